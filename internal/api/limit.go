package api

import (
	"net/http"
	"sync"

	"github.com/mcvalenti/BEOMAT/internal/httputil"
)

// computeLimiter caps concurrent trajectory-heavy requests per client and
// overall.
type computeLimiter struct {
	mu       sync.Mutex
	inflight map[string]int
	total    int
	maxPerIP int
	maxTotal int
}

func newComputeLimiter(maxPerIP, maxTotal int) *computeLimiter {
	return &computeLimiter{
		inflight: make(map[string]int),
		maxPerIP: maxPerIP,
		maxTotal: maxTotal,
	}
}

// acquire registers a request for ip. It reports false when the client or
// the global cap is reached.
func (l *computeLimiter) acquire(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.total >= l.maxTotal || l.inflight[ip] >= l.maxPerIP {
		return false
	}
	l.inflight[ip]++
	l.total++
	return true
}

func (l *computeLimiter) release(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.inflight[ip]--
	l.total--
	if l.inflight[ip] <= 0 {
		delete(l.inflight, ip)
	}
}

func (l *computeLimiter) count(ip string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inflight[ip]
}

// limited wraps next so that requests over the limit get 429.
func (h *handlers) limited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := httputil.ClientIP(r, h.opts.TrustProxy)
		if !h.limiter.acquire(ip) {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "too many concurrent computations")
			return
		}
		defer h.limiter.release(ip)
		next(w, r)
	}
}

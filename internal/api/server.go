// Package api exposes the catalog, propagation, access and decay operations
// over HTTP.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/mcvalenti/BEOMAT/internal/access"
	"github.com/mcvalenti/BEOMAT/internal/atmosphere"
	"github.com/mcvalenti/BEOMAT/internal/auth"
	"github.com/mcvalenti/BEOMAT/internal/health"
	"github.com/mcvalenti/BEOMAT/internal/httputil"
	"github.com/mcvalenti/BEOMAT/internal/metrics"
	"github.com/mcvalenti/BEOMAT/internal/propagation"
	"github.com/mcvalenti/BEOMAT/internal/tle"
)

// Options carries the computation settings the handlers use.
type Options struct {
	Sites       []access.Site
	Propagation propagation.PropConfig
	OpenWindow  access.OpenWindowPolicy
	// Atmosphere defaults to atmosphere.Default().
	Atmosphere *atmosphere.Table
	// MaxConcurrentPerIP bounds in-flight access and decay requests per
	// client (default 4).
	MaxConcurrentPerIP int
	// TrustProxy takes the client address from X-Forwarded-For/X-Real-IP.
	TrustProxy bool
}

const maxConcurrentTotal = 256

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a configured HTTP server.
func NewServer(addr string, logger *slog.Logger, authCfg auth.Config, store *tle.Store, opts Options) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           NewHandler(logger, authCfg, store, opts),
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

// NewHandler builds the routed handler with its middleware chain:
// metrics -> logging -> auth -> mux.
func NewHandler(logger *slog.Logger, authCfg auth.Config, store *tle.Store, opts Options) http.Handler {
	if opts.MaxConcurrentPerIP <= 0 {
		opts.MaxConcurrentPerIP = 4
	}
	h := &handlers{
		logger:  logger,
		store:   store,
		opts:    opts,
		limiter: newComputeLimiter(opts.MaxConcurrentPerIP, maxConcurrentTotal),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", health.Readyz(func() bool { return store.Get() != nil }))
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /api/v1/satellites", h.satellites)
	mux.HandleFunc("GET /api/v1/propagate/{norad_id}", h.propagate)
	mux.HandleFunc("GET /api/v1/elements/{norad_id}", h.elements)
	mux.HandleFunc("GET /api/v1/access/{norad_id}", h.limited(h.accessWindows))
	mux.HandleFunc("POST /api/v1/decay", h.limited(h.decay))

	var handler http.Handler = mux
	handler = auth.Middleware(authCfg)(handler)
	handler = loggingMiddleware(logger, opts.TrustProxy)(handler)
	handler = metrics.Middleware(handler)
	return handler
}

// HTTPServer returns the underlying *http.Server for external control (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// quietPaths are scraped often enough that their requests log at debug.
var quietPaths = map[string]bool{
	"/healthz": true,
	"/readyz":  true,
	"/metrics": true,
}

// responseRecorder captures the status code and body size for the request log.
type responseRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rr *responseRecorder) WriteHeader(code int) {
	rr.status = code
	rr.ResponseWriter.WriteHeader(code)
}

func (rr *responseRecorder) Write(b []byte) (int, error) {
	n, err := rr.ResponseWriter.Write(b)
	rr.bytes += n
	return n, err
}

func loggingMiddleware(logger *slog.Logger, trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rr := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rr, r)

			var level slog.Level
			switch {
			case rr.status >= 500:
				level = slog.LevelWarn
			case quietPaths[r.URL.Path]:
				level = slog.LevelDebug
			default:
				level = slog.LevelInfo
			}
			logger.Log(r.Context(), level, "request",
				"component", "api",
				"method", r.Method,
				"path", r.URL.Path,
				"query", r.URL.RawQuery,
				"status", rr.status,
				"bytes", rr.bytes,
				"elapsed", time.Since(start),
				"client", httputil.ClientIP(r, trustProxy),
			)
		})
	}
}

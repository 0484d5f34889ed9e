package api

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeLimiter(t *testing.T) {
	l := newComputeLimiter(3, 10)

	for i := 0; i < 3; i++ {
		require.True(t, l.acquire("10.0.0.1"), "acquire %d", i+1)
	}
	assert.False(t, l.acquire("10.0.0.1"), "acquire beyond per-client limit")
	assert.True(t, l.acquire("10.0.0.2"), "different client")

	l.release("10.0.0.1")
	assert.True(t, l.acquire("10.0.0.1"), "acquire after release")
	assert.Equal(t, 3, l.count("10.0.0.1"))
	assert.Equal(t, 1, l.count("10.0.0.2"))
}

func TestComputeLimiterGlobalCap(t *testing.T) {
	l := newComputeLimiter(5, 2)
	require.True(t, l.acquire("a"))
	require.True(t, l.acquire("b"))
	assert.False(t, l.acquire("c"), "global cap should reject a third client")
}

func TestComputeLimiterConcurrent(t *testing.T) {
	l := newComputeLimiter(100, 1000)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.acquire("10.0.0.1") {
				defer l.release("10.0.0.1")
				time.Sleep(5 * time.Millisecond)
			}
		}()
	}
	wg.Wait()

	assert.Zero(t, l.count("10.0.0.1"))
}

func TestLimitedResponds429(t *testing.T) {
	h := &handlers{opts: Options{TrustProxy: true}, limiter: newComputeLimiter(1, 10)}
	release := make(chan struct{})
	entered := make(chan struct{})
	slow := h.limited(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		w.WriteHeader(http.StatusOK)
	})

	first := httptest.NewRequest("GET", "/api/v1/access/25544", nil)
	first.Header.Set("X-Forwarded-For", "1.2.3.4")
	done := make(chan int)
	go func() {
		w := httptest.NewRecorder()
		slow(w, first)
		done <- w.Code
	}()
	<-entered

	second := httptest.NewRequest("GET", "/api/v1/access/25544", nil)
	second.Header.Set("X-Forwarded-For", "1.2.3.4")
	w := httptest.NewRecorder()
	slow(w, second)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	close(release)
	assert.Equal(t, http.StatusOK, <-done)
}

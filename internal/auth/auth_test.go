package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name   string
		cfg    Config
		path   string
		header string
		want   int
	}{
		{"disabled", Config{}, "/api/v1/decay", "", http.StatusOK},
		{"exempt path", Config{Enabled: true, Token: "t"}, "/healthz", "", http.StatusOK},
		{"exempt metrics", Config{Enabled: true, Token: "t"}, "/metrics", "", http.StatusOK},
		{"exempt prefix", Config{Enabled: true, Token: "t"}, "/api/v1/elements/25544", "", http.StatusOK},
		{"missing header", Config{Enabled: true, Token: "t"}, "/api/v1/propagate/25544", "", http.StatusUnauthorized},
		{"not bearer", Config{Enabled: true, Token: "t"}, "/api/v1/propagate/25544", "t", http.StatusUnauthorized},
		{"wrong token", Config{Enabled: true, Token: "t"}, "/api/v1/access/25544", "Bearer x", http.StatusUnauthorized},
		{"good token", Config{Enabled: true, Token: "t"}, "/api/v1/access/25544", "Bearer t", http.StatusOK},
		{"lowercase scheme", Config{Enabled: true, Token: "t"}, "/api/v1/decay", "bearer t", http.StatusOK},
		{"empty token", Config{Enabled: true, Token: "t"}, "/api/v1/decay", "Bearer ", http.StatusUnauthorized},
		{"basic scheme", Config{Enabled: true, Token: "t"}, "/api/v1/decay", "Basic dDp0", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			Middleware(tt.cfg)(ok).ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
			if w.Code == http.StatusUnauthorized {
				assert.NotEmpty(t, w.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestPublic(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/healthz", true},
		{"/api/v1/satellites", true},
		{"/api/v1/elements/25544", true},
		{"/api/v1/satellites/extra", false},
		{"/api/v1/propagate/25544", false},
		{"/api/v1/decay", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Public(tt.path), tt.path)
	}
}

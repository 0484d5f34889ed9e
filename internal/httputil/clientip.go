// Package httputil holds small request helpers shared by the HTTP layer.
package httputil

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the address used to key per-client limits and request
// logs. With trustProxy it prefers, in order, the first for= element of an
// RFC 7239 Forwarded header, the first X-Forwarded-For entry and X-Real-IP.
// Header values that do not parse as IP addresses are skipped. Only enable
// trustProxy behind a reverse proxy that overwrites these headers.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if ip := forwardedFor(r.Header.Get("Forwarded")); ip != "" {
			return ip
		}
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := normalize(first); ip != "" {
				return ip
			}
		}
		if ip := normalize(r.Header.Get("X-Real-IP")); ip != "" {
			return ip
		}
	}
	if ip := normalize(r.RemoteAddr); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

// forwardedFor extracts the for= parameter of the first Forwarded element.
func forwardedFor(h string) string {
	if h == "" {
		return ""
	}
	first, _, _ := strings.Cut(h, ",")
	for _, pair := range strings.Split(first, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if ok && strings.EqualFold(k, "for") {
			return normalize(strings.Trim(v, `"`))
		}
	}
	return ""
}

// normalize strips an optional port and IPv6 brackets and returns the
// canonical address, or "" when s is not an IP.
func normalize(s string) string {
	s = strings.TrimSpace(s)
	if host, _, err := net.SplitHostPort(s); err == nil {
		s = host
	}
	s = strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
	ip := net.ParseIP(s)
	if ip == nil {
		return ""
	}
	return ip.String()
}

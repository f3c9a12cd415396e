package ratelimit

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
)

// HTTPMiddleware wraps handlers with the limiter. The key function derives
// the identity from the request; requests that yield an empty key are passed
// through unchecked. Denied requests receive a 429 with rate limit headers.
func (l *Limiter) HTTPMiddleware(keyFunc func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)
			if key == "" {
				// If no key, allow the request
				next.ServeHTTP(w, r)
				return
			}

			decision := l.Check(r.Context(), key)

			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", decision.Limit))
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", decision.Remaining))
			w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", decision.ResetTime.Unix()))

			if !decision.Allowed {
				retryAfter := int(time.Until(decision.ResetTime).Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				fmt.Fprint(w, `{"error":"Too many requests"}`)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// KeyForScope returns the key function matching the policy scope: one budget
// per client IP for the global scope, or an independent budget per client IP
// and endpoint for the per-endpoint scope.
func KeyForScope(scope Scope) func(*http.Request) string {
	if scope == ScopePerEndpoint {
		return EndpointScopedIPKey
	}
	return IPBasedKey
}

// ClientIP extracts the client address from a request, preferring proxy
// headers over the socket address.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		// The first entry is the originating client
		if idx := strings.Index(forwarded, ","); idx >= 0 {
			forwarded = forwarded[:idx]
		}
		return strings.TrimSpace(forwarded)
	}

	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return strings.TrimSpace(realIP)
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// IPBasedKey derives a global identity from the client address.
func IPBasedKey(r *http.Request) string {
	ip := ClientIP(r)
	if ip == "" {
		return ""
	}
	return fmt.Sprintf("ip:%s", ip)
}

// EndpointScopedIPKey derives an identity from the client address combined
// with the request method and path, so each endpoint has its own budget.
func EndpointScopedIPKey(r *http.Request) string {
	ip := ClientIP(r)
	if ip == "" {
		return ""
	}
	return fmt.Sprintf("ip:%s|%s:%s", ip, r.Method, r.URL.Path)
}

// UserBasedKey derives an identity from the authenticated user, falling back
// to an empty key (pass-through) for anonymous requests.
func UserBasedKey(r *http.Request) string {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		return ""
	}
	return fmt.Sprintf("user:%s", userID)
}

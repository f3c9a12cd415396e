package middleware

import "net/http"

// MaxRequestBytes caps request bodies. Resume uploads top out at 5MB, so
// nothing legitimate is larger.
const MaxRequestBytes = 5 << 20

// SecurityMiddleware applies CORS and browser security headers to every
// response, answers preflight requests, and caps the request body so
// oversized payloads fail at the reader instead of filling handler buffers.
func SecurityMiddleware(allowedOrigin string) func(http.Handler) http.Handler {
	if allowedOrigin == "" {
		allowedOrigin = "*"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()

			// CORS headers
			h.Set("Access-Control-Allow-Origin", allowedOrigin)
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			h.Set("Access-Control-Max-Age", "86400")

			// Browser security headers
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "SAMEORIGIN")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBytes)
			next.ServeHTTP(w, r)
		})
	}
}

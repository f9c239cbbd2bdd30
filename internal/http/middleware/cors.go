package middleware

import (
	"net/http"
	"strings"
)

const (
	corsAllowedHeaders = "Content-Type, Accept"
	corsAllowedMethods = "POST, OPTIONS"
)

// CORS provides an allowlist-based CORS middleware for the public form
// endpoint. Listed origins are echoed back; any other origin gets
// defaultOrigin so the browser blocks the read. If allowedOrigins contains
// "*", any Origin is echoed back. OPTIONS requests are answered with 204.
func CORS(allowedOrigins []string, defaultOrigin string) func(http.Handler) http.Handler {
	allowAny := false
	allow := map[string]struct{}{}
	for _, origin := range allowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if origin == "*" {
			allowAny = true
			continue
		}
		allow[origin] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			allowed := origin
			if origin == "" || !(allowAny || isAllowedOrigin(allow, origin)) {
				allowed = defaultOrigin
			}
			if allowed != "" {
				w.Header().Set("Access-Control-Allow-Origin", allowed)
			}
			w.Header().Add("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Headers", corsAllowedHeaders)
			w.Header().Set("Access-Control-Allow-Methods", corsAllowedMethods)
			w.Header().Set("Access-Control-Max-Age", "600")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isAllowedOrigin(allow map[string]struct{}, origin string) bool {
	_, ok := allow[origin]
	return ok
}

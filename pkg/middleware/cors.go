package middleware

import (
	"net/http"
	"slices"
)

const (
	corsAllowMethods  = "GET, POST, DELETE, OPTIONS"
	corsAllowHeaders  = "Accept, Authorization, Content-Type, " + CorrelationHeader
	corsExposeHeaders = CorrelationHeader + ", Retry-After"
	corsMaxAge        = "600"
)

// CORS allows browser calls from allowedOrigins. Any origin is accepted in
// development or when allowedOrigins contains "*". Preflight requests are
// answered with 204 without reaching the router.
func CORS(allowedOrigins []string, environment string) func(http.Handler) http.Handler {
	wildcard := environment == "development" || slices.Contains(allowedOrigins, "*")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			origin := r.Header.Get("Origin")
			switch {
			case wildcard:
				h.Set("Access-Control-Allow-Origin", "*")
			case origin != "" && slices.Contains(allowedOrigins, origin):
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
			}
			h.Set("Access-Control-Expose-Headers", corsExposeHeaders)

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Set("Access-Control-Allow-Methods", corsAllowMethods)
				h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
				h.Set("Access-Control-Max-Age", corsMaxAge)
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

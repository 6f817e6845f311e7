package middleware

import (
	"net/http"
	"strings"
)

// CORS configuration. The gateway is consumed from arbitrary web
// origins, so the policy is open: any origin, GET/POST/OPTIONS, no
// credentials. Preflights are answered with 204.
var (
	corsAllowedMethods = strings.Join([]string{
		http.MethodGet, http.MethodPost, http.MethodOptions,
	}, ", ")

	corsAllowedHeaders = strings.Join([]string{
		"Content-Type",
		"X-API-Key",
		"X-Request-ID",
	}, ", ")

	corsExposedHeaders = strings.Join([]string{
		"X-Request-ID",
		"X-RateLimit-Limit",
		"X-RateLimit-Remaining",
		"X-RateLimit-Reset",
	}, ", ")
)

// CORS returns a middleware that allows cross-origin requests from any
// origin. Credentials are never allowed together with the wildcard.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Expose-Headers", corsExposedHeaders)

		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", corsAllowedMethods)
			w.Header().Set("Access-Control-Allow-Headers", corsAllowedHeaders)
			w.Header().Set("Access-Control-Max-Age", "86400")
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

package middleware

import (
	"net/http"
	"strings"

	"github.com/hba-portal/membership-backend/shared/utils"
)

// NewCORSMiddleware returns a middleware that handles CORS headers and
// preflight requests. Allowed origins come from CORS_ALLOWED_ORIGINS
// (comma-separated); "*" allows any origin.
func NewCORSMiddleware() func(http.Handler) http.Handler {
	allowed := strings.Split(utils.GetEnvOrDefault("CORS_ALLOWED_ORIGINS", "*"), ",")
	for i := range allowed {
		allowed[i] = strings.TrimSpace(allowed[i])
	}

	originAllowed := func(origin string) bool {
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && originAllowed(origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
				w.Header().Set("Access-Control-Max-Age", "3600")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

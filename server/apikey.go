package server

import (
	"crypto/subtle"
	"net/http"
)

// APIKeyHeader carries the shared-secret credential when access control is
// enabled.
const APIKeyHeader = "X-API-Key"

// apiKeyMiddleware rejects requests that do not carry the configured key: a
// missing header answers 401, a wrong value 403.
func apiKeyMiddleware(key string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := r.Header.Get(APIKeyHeader)
			if provided == "" {
				http.Error(w, "missing api key", http.StatusUnauthorized)
				return
			}
			if subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
				http.Error(w, "invalid api key", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/loreline-ai/loreline/internal/api"
	"github.com/loreline-ai/loreline/internal/domain"
)

// BearerAuth checks requests against a static API token. An empty token
// disables authentication, which is the default for local deployments.
func BearerAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				api.HandleError(w, domain.NewDomainError(domain.ErrCodeUnauthorized, "missing authorization header"))
				return
			}

			if !strings.HasPrefix(authHeader, "Bearer ") {
				api.HandleError(w, domain.NewDomainError(domain.ErrCodeUnauthorized, "invalid authorization format"))
				return
			}

			presented := strings.TrimPrefix(authHeader, "Bearer ")
			if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				api.HandleError(w, domain.NewDomainError(domain.ErrCodeUnauthorized, "invalid api token"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

package middleware

import (
	"errors"
	"net/http"

	"inkwell/internal/auth"
	"inkwell/internal/domain"
	"inkwell/internal/domain/models"
	"inkwell/internal/httputil"
)

// Auth resolves every request to a principal via the configured
// authenticator and stores it in the request context. Handlers never perform
// authentication themselves.
func Auth(authenticator auth.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := authenticator.Authenticate(r)
			if err != nil {
				status := http.StatusUnauthorized
				var httpErr domain.HTTPError
				if errors.As(err, &httpErr) {
					status = httpErr.StatusCode()
				}
				httputil.RespondError(w, status, err.Error())
				return
			}

			next.ServeHTTP(w, httputil.WithPrincipal(r, principal))
		})
	}
}

// RequireAdmin guards review operations (approve/reject/delete). It assumes
// Auth already ran.
func RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := httputil.GetPrincipal(r)
		if principal == nil || principal.Role != models.RoleAdmin {
			httputil.RespondError(w, http.StatusForbidden, "admin role required")
			return
		}
		next(w, r)
	}
}

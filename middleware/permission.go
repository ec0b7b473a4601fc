package middleware

import (
	"net/http"

	"github.com/akinalp/pastane/handlers"
	"github.com/akinalp/pastane/models"
	"github.com/akinalp/pastane/pkg"
)

// RequireRole, AuthMiddleware'den SONRA çalışır. Context'teki yönetici
// verilen rollerden birine sahip değilse 403 döner.
//
//	authMw.Require(middleware.RequireRole(models.AdminRoleOwner)(h))
func RequireRole(roles ...models.AdminRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			admin, ok := r.Context().Value(handlers.AdminContextKey).(*models.Admin)
			if !ok {
				pkg.ErrorWithMessage(w, http.StatusUnauthorized, "admin not found in context")
				return
			}

			for _, role := range roles {
				if admin.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			pkg.ErrorWithMessage(w, http.StatusForbidden, "insufficient permissions")
		})
	}
}

// RequireOwner, raporlar ve yönetici hesapları gibi sahip işlemleri için.
func RequireOwner(next http.Handler) http.Handler {
	return RequireRole(models.AdminRoleOwner)(next)
}

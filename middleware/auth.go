// Package middleware, HTTP request pipeline'ına eklenen ara katmanlar.
//
// Her middleware func(next http.Handler) http.Handler şeklindedir; kendi
// işini yapar, sorun yoksa next'i çağırır. Zincir main'de kurulur:
//
//	Recover → RequestID → AccessLog → metrics → CORS → mux
//
// Route seviyesindeki middleware'lar (Require, RequireOwner, IP limiti)
// init_routes.go'da handler'ları sarar.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/akinalp/pastane/handlers"
	"github.com/akinalp/pastane/models"
	"github.com/akinalp/pastane/pkg"
)

// TokenAuthenticator, AuthMiddleware'in ihtiyaç duyduğu AuthService alt kümesi.
type TokenAuthenticator interface {
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)
	Me(ctx context.Context, adminID string) (*models.Admin, error)
}

// AuthMiddleware, JWT access token doğrulaması.
type AuthMiddleware struct {
	auth TokenAuthenticator
}

func NewAuthMiddleware(auth TokenAuthenticator) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

// Require, "Authorization: Bearer <token>" zorunlu kılar. Token geçerliyse
// yönetici DB'den okunur (token geçerli ama hesap silinmiş olabilir) ve
// handlers.AdminContextKey ile context'e eklenir.
func (m *AuthMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "authorization header required")
			return
		}

		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || tokenString == "" {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "invalid authorization format, use: Bearer <token>")
			return
		}

		claims, err := m.auth.ValidateAccessToken(tokenString)
		if err != nil {
			pkg.Error(w, err)
			return
		}

		admin, err := m.auth.Me(r.Context(), claims.AdminID)
		if err != nil {
			if errors.Is(err, pkg.ErrNotFound) {
				pkg.ErrorWithMessage(w, http.StatusUnauthorized, "admin not found")
				return
			}
			pkg.Error(w, err)
			return
		}

		// Rol token'dan değil DB'den gelir; rol değişikliği hemen geçerli olur.
		ctx := context.WithValue(r.Context(), handlers.AdminContextKey, admin)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

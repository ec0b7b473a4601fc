package handlers

import (
	"net/http"
	"strconv"

	"github.com/akinalp/pastane/models"
	"github.com/akinalp/pastane/pkg"
	"github.com/akinalp/pastane/pkg/metrics"
	"github.com/akinalp/pastane/pkg/ratelimit"
	"github.com/akinalp/pastane/services"
)

// AuthHandler, panel girişi ve hesap güvenliği endpoint'leri.
type AuthHandler struct {
	authService  services.AuthService
	loginLimiter *ratelimit.LoginRateLimiter
}

// NewAuthHandler, loginLimiter nil ise brute-force koruması kapalıdır.
func NewAuthHandler(authService services.AuthService, loginLimiter *ratelimit.LoginRateLimiter) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		loginLimiter: loginLimiter,
	}
}

// Login godoc
// POST /api/auth/login
//
// IP başına deneme sınırı vardır. Başarılı giriş sayacı sıfırlar; 2FA açık
// hesaplarda yanıt token yerine challenge_token içerir.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ip := ratelimit.ClientIP(r)
	if !h.allow(w, ip) {
		return
	}

	var req models.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.authService.Login(r.Context(), &req, clientMeta(r))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	if result.Tokens != nil && h.loginLimiter != nil {
		h.loginLimiter.Reset(ip)
	}
	pkg.JSON(w, http.StatusOK, result)
}

// VerifyTwoFactor godoc
// POST /api/auth/2fa
// Body: { "challenge_token": "...", "code": "123456" }
//
// Kod denemeleri de login limitinden düşer.
func (h *AuthHandler) VerifyTwoFactor(w http.ResponseWriter, r *http.Request) {
	ip := ratelimit.ClientIP(r)
	if !h.allow(w, ip) {
		return
	}

	var req models.TwoFactorLoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.authService.VerifyTwoFactor(r.Context(), &req, clientMeta(r))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	if h.loginLimiter != nil {
		h.loginLimiter.Reset(ip)
	}
	pkg.JSON(w, http.StatusOK, result)
}

// Refresh godoc
// POST /api/auth/refresh
// Body: { "refresh_token": "..." }
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tokens, err := h.authService.Refresh(r.Context(), req.RefreshToken, clientMeta(r))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, tokens)
}

// Logout godoc
// POST /api/auth/logout
// Body: { "refresh_token": "..." }
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.authService.Logout(r.Context(), req.RefreshToken); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, messageResponse{Message: "logged out"})
}

// Me godoc
// GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	admin, ok := currentAdmin(w, r)
	if !ok {
		return
	}
	pkg.JSON(w, http.StatusOK, admin)
}

// ChangePassword godoc
// POST /api/admin/password
// Body: { "current_password": "...", "new_password": "..." }
//
// Başarılı olursa tüm oturumlar kapanır; istemci yeniden giriş yapar.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	admin, ok := currentAdmin(w, r)
	if !ok {
		return
	}

	var req models.ChangePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.authService.ChangePassword(r.Context(), admin.ID, &req); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, messageResponse{Message: "password changed"})
}

// SetupTwoFactor godoc
// POST /api/admin/2fa/setup
func (h *AuthHandler) SetupTwoFactor(w http.ResponseWriter, r *http.Request) {
	admin, ok := currentAdmin(w, r)
	if !ok {
		return
	}

	setup, err := h.authService.SetupTwoFactor(r.Context(), admin.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, setup)
}

// EnableTwoFactor godoc
// POST /api/admin/2fa/enable
// Body: { "code": "123456" }
func (h *AuthHandler) EnableTwoFactor(w http.ResponseWriter, r *http.Request) {
	admin, ok := currentAdmin(w, r)
	if !ok {
		return
	}

	var req models.TwoFactorCodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.authService.EnableTwoFactor(r.Context(), admin.ID, req.Code); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, messageResponse{Message: "two-factor authentication enabled"})
}

// DisableTwoFactor godoc
// POST /api/admin/2fa/disable
// Body: { "password": "...", "code": "123456" }
func (h *AuthHandler) DisableTwoFactor(w http.ResponseWriter, r *http.Request) {
	admin, ok := currentAdmin(w, r)
	if !ok {
		return
	}

	var req models.DisableTwoFactorRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.authService.DisableTwoFactor(r.Context(), admin.ID, &req); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, messageResponse{Message: "two-factor authentication disabled"})
}

func (h *AuthHandler) allow(w http.ResponseWriter, ip string) bool {
	if h.loginLimiter == nil || h.loginLimiter.Allow(ip) {
		return true
	}

	retry := h.loginLimiter.RetryAfter(ip)
	metrics.LoginAttempt(services.LoginRateLimited)
	metrics.RateLimited("login")
	w.Header().Set("Retry-After", strconv.Itoa(retry))
	pkg.ErrorWithMessage(w, http.StatusTooManyRequests,
		"too many login attempts, please try again in "+ratelimit.FormatRetry(retry))
	return false
}

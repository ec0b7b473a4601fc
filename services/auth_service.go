// Package services, business logic katmanını barındırır.
//
// Handler (HTTP) ile Repository (DB) arasında oturan katmandır. Service
// http.Request/Response bilmez, doğrudan SQL çalıştırmaz; birden fazla
// tabloya dokunan işlemler database.WithTx ile tek transaction'da yapılır.
package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/akinalp/pastane/config"
	"github.com/akinalp/pastane/models"
	"github.com/akinalp/pastane/pkg"
	"github.com/akinalp/pastane/pkg/crypto"
	"github.com/akinalp/pastane/pkg/logger"
	"github.com/akinalp/pastane/pkg/metrics"
	"github.com/akinalp/pastane/pkg/password"
	"github.com/akinalp/pastane/pkg/totp"
	"github.com/akinalp/pastane/repository"
	"github.com/akinalp/pastane/ws"
)

// challengeTTL, 2FA challenge token'ının geçerlilik süresi.
const challengeTTL = 5 * time.Minute

// Login sonuç etiketleri (metrics).
const (
	LoginSuccess         = "success"
	LoginFailure         = "failure"
	LoginTwoFactorNeeded = "2fa_required"
	LoginTwoFactorFailed = "2fa_failure"
	LoginRateLimited     = "rate_limited"
)

var errInvalidCredentials = fmt.Errorf("%w: invalid username or password", pkg.ErrUnauthorized)

// AuthService, panel girişi, oturumlar, 2FA ve yönetici hesapları.
type AuthService interface {
	Login(ctx context.Context, req *models.LoginRequest, meta models.ClientMeta) (*models.LoginResult, error)
	VerifyTwoFactor(ctx context.Context, req *models.TwoFactorLoginRequest, meta models.ClientMeta) (*models.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string, meta models.ClientMeta) (*models.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)
	Me(ctx context.Context, adminID string) (*models.Admin, error)

	ChangePassword(ctx context.Context, adminID string, req *models.ChangePasswordRequest) error

	SetupTwoFactor(ctx context.Context, adminID string) (*models.TwoFactorSetup, error)
	EnableTwoFactor(ctx context.Context, adminID, code string) error
	DisableTwoFactor(ctx context.Context, adminID string, req *models.DisableTwoFactorRequest) error

	ListAdmins(ctx context.Context) ([]models.Admin, error)
	CreateAdmin(ctx context.Context, req *models.CreateAdminRequest) (*models.Admin, error)
	// DeleteAdmin, kendini ve son sahip hesabını silmeye izin vermez.
	DeleteAdmin(ctx context.Context, actorID, id string) error
	// Bootstrap, hiç yönetici yoksa verilen bilgilerle sahip hesabı açar.
	Bootstrap(ctx context.Context, username, pw string) error
}

type authService struct {
	adminRepo   repository.AdminRepository
	sessionRepo repository.SessionRepository
	hub         ws.EventPublisher
	box         *crypto.Box
	policy      password.Policy
	jwtSecret   []byte
	issuer      string
	totpIssuer  string
	accessExp   time.Duration
	refreshExp  time.Duration
	log         *zap.Logger
	now         func() time.Time

	// usedSteps, yönetici başına son kabul edilen TOTP zaman adımı.
	// Aynı kod tolerans penceresi içinde ikinci kez kullanılamaz.
	stepsMu   sync.Mutex
	usedSteps map[string]int64
}

func NewAuthService(
	adminRepo repository.AdminRepository,
	sessionRepo repository.SessionRepository,
	hub ws.EventPublisher,
	box *crypto.Box,
	policy password.Policy,
	jwtCfg config.JWTConfig,
	totpIssuer string,
) AuthService {
	return &authService{
		adminRepo:   adminRepo,
		sessionRepo: sessionRepo,
		hub:         hub,
		box:         box,
		policy:      policy,
		jwtSecret:   []byte(jwtCfg.Secret),
		issuer:      jwtCfg.Issuer,
		totpIssuer:  totpIssuer,
		accessExp:   time.Duration(jwtCfg.AccessTokenExpiry) * time.Minute,
		refreshExp:  time.Duration(jwtCfg.RefreshTokenExpiry) * 24 * time.Hour,
		log:         logger.Named("auth"),
		now:         time.Now,
		usedSteps:   make(map[string]int64),
	}
}

func (s *authService) Login(ctx context.Context, req *models.LoginRequest, meta models.ClientMeta) (*models.LoginResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	admin, err := s.adminRepo.GetByUsername(ctx, req.Username)
	if errors.Is(err, pkg.ErrNotFound) {
		metrics.LoginAttempt(LoginFailure)
		return nil, errInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !password.Verify(admin.PasswordHash, req.Password) {
		metrics.LoginAttempt(LoginFailure)
		s.log.Info("login failed", zap.String("username", admin.Username), zap.String("ip", meta.IP))
		return nil, errInvalidCredentials
	}

	if admin.TOTPEnabled {
		challenge, err := s.sign(admin, models.TokenPurpose2FA, challengeTTL)
		if err != nil {
			return nil, err
		}
		metrics.LoginAttempt(LoginTwoFactorNeeded)
		return &models.LoginResult{RequiresTwoFactor: true, ChallengeToken: challenge}, nil
	}

	return s.completeLogin(ctx, admin, meta)
}

func (s *authService) VerifyTwoFactor(ctx context.Context, req *models.TwoFactorLoginRequest, meta models.ClientMeta) (*models.LoginResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	claims, err := s.parse(req.ChallengeToken)
	if err != nil || claims.Purpose != models.TokenPurpose2FA {
		return nil, fmt.Errorf("%w: invalid or expired challenge", pkg.ErrUnauthorized)
	}

	admin, err := s.adminRepo.GetByID(ctx, claims.AdminID)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid or expired challenge", pkg.ErrUnauthorized)
		}
		return nil, err
	}
	if !admin.TOTPEnabled || admin.TOTPSecret == nil {
		return nil, fmt.Errorf("%w: two-factor authentication is not enabled", pkg.ErrBadRequest)
	}

	ok, err := s.checkCode(admin, req.Code)
	if err != nil {
		return nil, err
	}
	if !ok {
		metrics.LoginAttempt(LoginTwoFactorFailed)
		return nil, fmt.Errorf("%w: invalid verification code", pkg.ErrUnauthorized)
	}

	return s.completeLogin(ctx, admin, meta)
}

func (s *authService) completeLogin(ctx context.Context, admin *models.Admin, meta models.ClientMeta) (*models.LoginResult, error) {
	tokens, err := s.issueTokens(ctx, admin, meta)
	if err != nil {
		return nil, err
	}

	at := s.now().UTC()
	if err := s.adminRepo.UpdateLastLogin(ctx, admin.ID, at); err != nil {
		s.log.Warn("failed to update last login", zap.String("admin_id", admin.ID), zap.Error(err))
	}
	admin.LastLoginAt = &at

	metrics.LoginAttempt(LoginSuccess)
	s.log.Info("admin logged in", zap.String("username", admin.Username), zap.String("ip", meta.IP))
	return &models.LoginResult{Admin: admin, Tokens: tokens}, nil
}

// Refresh, refresh token'ı döndürür: eski oturum silinir, yenisi açılır.
func (s *authService) Refresh(ctx context.Context, refreshToken string, meta models.ClientMeta) (*models.TokenPair, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: refresh_token is required", pkg.ErrBadRequest)
	}

	session, err := s.sessionRepo.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid refresh token", pkg.ErrUnauthorized)
		}
		return nil, err
	}

	if err := s.sessionRepo.DeleteByID(ctx, session.ID); err != nil {
		return nil, fmt.Errorf("failed to delete old session: %w", err)
	}
	if s.now().After(session.ExpiresAt) {
		return nil, fmt.Errorf("%w: refresh token expired", pkg.ErrUnauthorized)
	}

	admin, err := s.adminRepo.GetByID(ctx, session.AdminID)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid refresh token", pkg.ErrUnauthorized)
		}
		return nil, err
	}

	return s.issueTokens(ctx, admin, meta)
}

// Logout, oturumu siler. Bilinmeyen token hata değildir.
func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	session, err := s.sessionRepo.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil
		}
		return err
	}
	return s.sessionRepo.DeleteByID(ctx, session.ID)
}

// ValidateAccessToken, JWT access token'ı doğrular. 2FA challenge token'ları
// API erişimi için geçersizdir.
func (s *authService) ValidateAccessToken(tokenString string) (*models.TokenClaims, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != "" {
		return nil, fmt.Errorf("%w: invalid token", pkg.ErrUnauthorized)
	}
	return claims, nil
}

func (s *authService) Me(ctx context.Context, adminID string) (*models.Admin, error) {
	return s.adminRepo.GetByID(ctx, adminID)
}

// ChangePassword, şifreyi değiştirir ve tüm oturumları kapatır. Açık
// panel sekmeleri session_revoked olayıyla yeniden girişe yönlenir.
func (s *authService) ChangePassword(ctx context.Context, adminID string, req *models.ChangePasswordRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	admin, err := s.adminRepo.GetByID(ctx, adminID)
	if err != nil {
		return err
	}
	if !password.Verify(admin.PasswordHash, req.CurrentPassword) {
		return fmt.Errorf("%w: current password is incorrect", pkg.ErrUnauthorized)
	}
	if err := s.policy.Check(req.NewPassword, admin.Username); err != nil {
		return fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	hash, err := password.Hash(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.adminRepo.UpdatePassword(ctx, adminID, hash); err != nil {
		return err
	}
	if err := s.sessionRepo.DeleteByAdminID(ctx, adminID); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}

	s.hub.BroadcastToAdmin(adminID, ws.Event{Op: ws.OpSessionRevoked})
	s.log.Info("password changed", zap.String("admin_id", adminID))
	return nil
}

// SetupTwoFactor, yeni secret üretir ve şifreli olarak kaydeder. EnableTwoFactor
// ile doğrulanana kadar 2FA kapalı kalır.
func (s *authService) SetupTwoFactor(ctx context.Context, adminID string) (*models.TwoFactorSetup, error) {
	admin, err := s.adminRepo.GetByID(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if admin.TOTPEnabled {
		return nil, fmt.Errorf("%w: two-factor authentication is already enabled", pkg.ErrConflict)
	}

	key, err := totp.Generate(s.totpIssuer, admin.Username)
	if err != nil {
		return nil, err
	}
	sealed, err := s.box.Seal(key.Secret)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt totp secret: %w", err)
	}
	if err := s.adminRepo.UpdateTOTP(ctx, adminID, &sealed, false); err != nil {
		return nil, err
	}

	return &models.TwoFactorSetup{Secret: key.Secret, URL: key.URL}, nil
}

func (s *authService) EnableTwoFactor(ctx context.Context, adminID, code string) error {
	admin, err := s.adminRepo.GetByID(ctx, adminID)
	if err != nil {
		return err
	}
	if admin.TOTPEnabled {
		return fmt.Errorf("%w: two-factor authentication is already enabled", pkg.ErrConflict)
	}
	if admin.TOTPSecret == nil {
		return fmt.Errorf("%w: two-factor setup has not been started", pkg.ErrBadRequest)
	}

	ok, err := s.checkCode(admin, code)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: invalid verification code", pkg.ErrBadRequest)
	}

	if err := s.adminRepo.UpdateTOTP(ctx, adminID, admin.TOTPSecret, true); err != nil {
		return err
	}
	s.log.Info("two-factor enabled", zap.String("admin_id", adminID))
	return nil
}

func (s *authService) DisableTwoFactor(ctx context.Context, adminID string, req *models.DisableTwoFactorRequest) error {
	admin, err := s.adminRepo.GetByID(ctx, adminID)
	if err != nil {
		return err
	}
	if !admin.TOTPEnabled {
		return fmt.Errorf("%w: two-factor authentication is not enabled", pkg.ErrBadRequest)
	}
	if !password.Verify(admin.PasswordHash, req.Password) {
		return fmt.Errorf("%w: password is incorrect", pkg.ErrUnauthorized)
	}

	ok, err := s.checkCode(admin, req.Code)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: invalid verification code", pkg.ErrBadRequest)
	}

	if err := s.adminRepo.UpdateTOTP(ctx, adminID, nil, false); err != nil {
		return err
	}
	s.log.Info("two-factor disabled", zap.String("admin_id", adminID))
	return nil
}

func (s *authService) ListAdmins(ctx context.Context) ([]models.Admin, error) {
	return s.adminRepo.List(ctx)
}

func (s *authService) CreateAdmin(ctx context.Context, req *models.CreateAdminRequest) (*models.Admin, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}
	if err := s.policy.Check(req.Password, req.Username); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	admin := &models.Admin{
		Username:     req.Username,
		DisplayName:  req.DisplayName,
		PasswordHash: hash,
		Role:         req.Role,
	}
	if err := s.adminRepo.Create(ctx, admin); err != nil {
		return nil, err
	}

	s.log.Info("admin created", zap.String("username", admin.Username), zap.String("role", string(admin.Role)))
	return admin, nil
}

func (s *authService) DeleteAdmin(ctx context.Context, actorID, id string) error {
	if actorID == id {
		return fmt.Errorf("%w: you cannot delete your own account", pkg.ErrBadRequest)
	}

	target, err := s.adminRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if target.IsOwner() {
		owners, err := s.adminRepo.CountByRole(ctx, models.AdminRoleOwner)
		if err != nil {
			return err
		}
		if owners <= 1 {
			return fmt.Errorf("%w: cannot delete the last owner", pkg.ErrConflict)
		}
	}

	// sessions ON DELETE CASCADE ile silinir
	if err := s.adminRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.hub.BroadcastToAdmin(id, ws.Event{Op: ws.OpSessionRevoked})
	s.log.Info("admin deleted", zap.String("username", target.Username), zap.String("by", actorID))
	return nil
}

func (s *authService) Bootstrap(ctx context.Context, username, pw string) error {
	count, err := s.adminRepo.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	if username == "" || pw == "" {
		s.log.Warn("no admin account exists; set ADMIN_USERNAME and ADMIN_PASSWORD to create the owner")
		return nil
	}

	_, err = s.CreateAdmin(ctx, &models.CreateAdminRequest{
		Username: username,
		Password: pw,
		Role:     models.AdminRoleOwner,
	})
	if err != nil {
		return fmt.Errorf("failed to bootstrap owner account: %w", err)
	}
	return nil
}

// ─── Private Helpers ───

func (s *authService) checkCode(admin *models.Admin, code string) (bool, error) {
	secret, err := s.box.Open(*admin.TOTPSecret)
	if err != nil {
		return false, fmt.Errorf("failed to decrypt totp secret: %w", err)
	}
	step, ok := totp.Match(code, secret, s.now())
	if !ok {
		return false, nil
	}

	s.stepsMu.Lock()
	defer s.stepsMu.Unlock()
	if last, seen := s.usedSteps[admin.ID]; seen && step <= last {
		s.log.Warn("totp code reuse rejected", zap.String("admin_id", admin.ID))
		return false, nil
	}
	s.usedSteps[admin.ID] = step
	return true, nil
}

func (s *authService) sign(admin *models.Admin, purpose string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := &models.TokenClaims{
		AdminID:  admin.ID,
		Username: admin.Username,
		Role:     admin.Role,
		Purpose:  purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   admin.ID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *authService) parse(tokenString string) (*models.TokenClaims, error) {
	tokenString = strings.TrimSpace(tokenString)
	token, err := jwt.ParseWithClaims(tokenString, &models.TokenClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid token", pkg.ErrUnauthorized)
	}

	claims, ok := token.Claims.(*models.TokenClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token claims", pkg.ErrUnauthorized)
	}
	return claims, nil
}

func (s *authService) issueTokens(ctx context.Context, admin *models.Admin, meta models.ClientMeta) (*models.TokenPair, error) {
	access, err := s.sign(admin, "", s.accessExp)
	if err != nil {
		return nil, err
	}

	refreshBytes := make([]byte, 32)
	if _, err := rand.Read(refreshBytes); err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	refresh := hex.EncodeToString(refreshBytes)

	session := &models.Session{
		AdminID:      admin.ID,
		RefreshToken: refresh,
		UserAgent:    truncate(meta.UserAgent, 255),
		IPAddress:    meta.IP,
		ExpiresAt:    s.now().Add(s.refreshExp).UTC(),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &models.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(s.accessExp.Seconds()),
	}, nil
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/pastane/config"
	"github.com/akinalp/pastane/models"
	"github.com/akinalp/pastane/pkg"
	"github.com/akinalp/pastane/pkg/crypto"
	"github.com/akinalp/pastane/pkg/password"
	"github.com/akinalp/pastane/pkg/totp"
	"github.com/akinalp/pastane/repository"
	"github.com/akinalp/pastane/ws"
)

const (
	ownerName = "sahip"
	ownerPass = "Güçlü-Şifre-2030"
)

var testMeta = models.ClientMeta{IP: "127.0.0.1", UserAgent: "go-test"}

func newAuthEnv(t *testing.T) (*authService, *fakeHub) {
	t.Helper()
	db := newTestDB(t)
	box, err := crypto.NewBox(strings.Repeat("ab", 32))
	require.NoError(t, err)

	hub := newFakeHub()
	svc := NewAuthService(
		repository.NewSQLiteAdminRepo(db),
		repository.NewSQLiteSessionRepo(db),
		hub,
		box,
		password.DefaultPolicy,
		config.JWTConfig{Secret: "test-secret", Issuer: "pastane", AccessTokenExpiry: 15, RefreshTokenExpiry: 7},
		"Pastane",
	).(*authService)

	require.NoError(t, svc.Bootstrap(context.Background(), ownerName, ownerPass))
	return svc, hub
}

func login(t *testing.T, svc AuthService, username, pw string) *models.LoginResult {
	t.Helper()
	res, err := svc.Login(context.Background(), &models.LoginRequest{Username: username, Password: pw}, testMeta)
	require.NoError(t, err)
	return res
}

func TestAuthService_LoginAndTokens(t *testing.T) {
	svc, _ := newAuthEnv(t)
	ctx := context.Background()

	// İkinci bootstrap bir şey yapmaz
	require.NoError(t, svc.Bootstrap(ctx, "baska", ownerPass))
	admins, err := svc.ListAdmins(ctx)
	require.NoError(t, err)
	require.Len(t, admins, 1)

	_, err = svc.Login(ctx, &models.LoginRequest{Username: ownerName, Password: "yanlis"}, testMeta)
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)
	_, err = svc.Login(ctx, &models.LoginRequest{Username: "yok", Password: ownerPass}, testMeta)
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)

	res := login(t, svc, "SAHIP", ownerPass) // kullanıcı adı büyük/küçük harf duyarsız
	require.NotNil(t, res.Tokens)
	assert.False(t, res.RequiresTwoFactor)
	assert.NotNil(t, res.Admin.LastLoginAt)
	assert.Equal(t, 15*60, res.Tokens.ExpiresIn)

	claims, err := svc.ValidateAccessToken(res.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, models.AdminRoleOwner, claims.Role)
	assert.Equal(t, res.Admin.ID, claims.AdminID)

	_, err = svc.ValidateAccessToken(res.Tokens.AccessToken + "x")
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)

	t.Run("refresh rotates the token", func(t *testing.T) {
		pair, err := svc.Refresh(ctx, res.Tokens.RefreshToken, testMeta)
		require.NoError(t, err)
		assert.NotEqual(t, res.Tokens.RefreshToken, pair.RefreshToken)

		_, err = svc.Refresh(ctx, res.Tokens.RefreshToken, testMeta)
		assert.ErrorIs(t, err, pkg.ErrUnauthorized)

		require.NoError(t, svc.Logout(ctx, pair.RefreshToken))
		require.NoError(t, svc.Logout(ctx, pair.RefreshToken), "unknown token is not an error")
		_, err = svc.Refresh(ctx, pair.RefreshToken, testMeta)
		assert.ErrorIs(t, err, pkg.ErrUnauthorized)
	})

	t.Run("expired refresh token", func(t *testing.T) {
		res := login(t, svc, ownerName, ownerPass)
		svc.now = func() time.Time { return time.Now().Add(8 * 24 * time.Hour) }
		defer func() { svc.now = time.Now }()

		_, err := svc.Refresh(ctx, res.Tokens.RefreshToken, testMeta)
		assert.ErrorIs(t, err, pkg.ErrUnauthorized)
	})
}

func TestAuthService_TwoFactor(t *testing.T) {
	svc, _ := newAuthEnv(t)
	ctx := context.Background()
	clock := time.Now()
	svc.now = func() time.Time { return clock }
	owner := login(t, svc, ownerName, ownerPass).Admin

	setup, err := svc.SetupTwoFactor(ctx, owner.ID)
	require.NoError(t, err)
	assert.Contains(t, setup.URL, "otpauth://totp/")

	// Secret veritabanında şifreli durur
	stored, err := svc.adminRepo.GetByID(ctx, owner.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.TOTPSecret)
	assert.NotEqual(t, setup.Secret, *stored.TOTPSecret)
	assert.False(t, stored.TOTPEnabled)

	assert.ErrorIs(t, svc.EnableTwoFactor(ctx, owner.ID, "000000"), pkg.ErrBadRequest)

	code, err := totp.Code(setup.Secret, clock)
	require.NoError(t, err)
	require.NoError(t, svc.EnableTwoFactor(ctx, owner.ID, code))

	_, err = svc.SetupTwoFactor(ctx, owner.ID)
	assert.ErrorIs(t, err, pkg.ErrConflict)

	res := login(t, svc, ownerName, ownerPass)
	assert.True(t, res.RequiresTwoFactor)
	assert.Nil(t, res.Tokens)
	require.NotEmpty(t, res.ChallengeToken)

	_, err = svc.ValidateAccessToken(res.ChallengeToken)
	assert.ErrorIs(t, err, pkg.ErrUnauthorized, "challenge tokens cannot access the API")

	_, err = svc.VerifyTwoFactor(ctx, &models.TwoFactorLoginRequest{ChallengeToken: res.ChallengeToken, Code: "123456"}, testMeta)
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)

	clock = clock.Add(30 * time.Second)
	code, err = totp.Code(setup.Secret, clock)
	require.NoError(t, err)
	done, err := svc.VerifyTwoFactor(ctx, &models.TwoFactorLoginRequest{ChallengeToken: res.ChallengeToken, Code: code}, testMeta)
	require.NoError(t, err)
	require.NotNil(t, done.Tokens)

	_, err = svc.VerifyTwoFactor(ctx, &models.TwoFactorLoginRequest{ChallengeToken: done.Tokens.AccessToken, Code: code}, testMeta)
	assert.ErrorIs(t, err, pkg.ErrUnauthorized, "access tokens are not challenges")

	clock = clock.Add(30 * time.Second)
	code, err = totp.Code(setup.Secret, clock)
	require.NoError(t, err)
	err = svc.DisableTwoFactor(ctx, owner.ID, &models.DisableTwoFactorRequest{Password: "yanlis", Code: code})
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)
	require.NoError(t, svc.DisableTwoFactor(ctx, owner.ID, &models.DisableTwoFactorRequest{Password: ownerPass, Code: code}))

	assert.False(t, login(t, svc, ownerName, ownerPass).RequiresTwoFactor)
}

func TestAuthService_TwoFactorCodeCannotBeReplayed(t *testing.T) {
	svc, _ := newAuthEnv(t)
	ctx := context.Background()
	clock := time.Now()
	svc.now = func() time.Time { return clock }
	owner := login(t, svc, ownerName, ownerPass).Admin

	setup, err := svc.SetupTwoFactor(ctx, owner.ID)
	require.NoError(t, err)
	enableCode, err := totp.Code(setup.Secret, clock)
	require.NoError(t, err)
	require.NoError(t, svc.EnableTwoFactor(ctx, owner.ID, enableCode))

	clock = clock.Add(30 * time.Second)
	code, err := totp.Code(setup.Secret, clock)
	require.NoError(t, err)

	first := login(t, svc, ownerName, ownerPass)
	_, err = svc.VerifyTwoFactor(ctx, &models.TwoFactorLoginRequest{ChallengeToken: first.ChallengeToken, Code: code}, testMeta)
	require.NoError(t, err)

	// Aynı kod hâlâ tolerans penceresinde ama ikinci kez kabul edilmez.
	clock = clock.Add(10 * time.Second)
	second := login(t, svc, ownerName, ownerPass)
	_, err = svc.VerifyTwoFactor(ctx, &models.TwoFactorLoginRequest{ChallengeToken: second.ChallengeToken, Code: code}, testMeta)
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)

	// Daha eski bir adımın kodu da reddedilir.
	_, err = svc.VerifyTwoFactor(ctx, &models.TwoFactorLoginRequest{ChallengeToken: second.ChallengeToken, Code: enableCode}, testMeta)
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)

	clock = clock.Add(30 * time.Second)
	next, err := totp.Code(setup.Secret, clock)
	require.NoError(t, err)
	_, err = svc.VerifyTwoFactor(ctx, &models.TwoFactorLoginRequest{ChallengeToken: second.ChallengeToken, Code: next}, testMeta)
	assert.NoError(t, err)
}

func TestAuthService_ChangePasswordRevokesSessions(t *testing.T) {
	svc, hub := newAuthEnv(t)
	ctx := context.Background()
	res := login(t, svc, ownerName, ownerPass)

	err := svc.ChangePassword(ctx, res.Admin.ID, &models.ChangePasswordRequest{CurrentPassword: ownerPass, NewPassword: "kisa"})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)

	err = svc.ChangePassword(ctx, res.Admin.ID, &models.ChangePasswordRequest{CurrentPassword: "yanlis", NewPassword: "Yeni-Şifre-2031"})
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)

	err = svc.ChangePassword(ctx, res.Admin.ID, &models.ChangePasswordRequest{CurrentPassword: ownerPass, NewPassword: "Sahip-Sifre-2031x"})
	assert.ErrorIs(t, err, pkg.ErrBadRequest, "password must not contain the username")

	require.NoError(t, svc.ChangePassword(ctx, res.Admin.ID, &models.ChangePasswordRequest{CurrentPassword: ownerPass, NewPassword: "Yeni-Şifre-2031"}))

	_, err = svc.Refresh(ctx, res.Tokens.RefreshToken, testMeta)
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)
	assert.Equal(t, []string{ws.OpSessionRevoked}, hub.adminOps(res.Admin.ID))

	login(t, svc, ownerName, "Yeni-Şifre-2031")
}

func TestAuthService_AdminManagement(t *testing.T) {
	svc, _ := newAuthEnv(t)
	ctx := context.Background()
	owner := login(t, svc, ownerName, ownerPass).Admin

	staff, err := svc.CreateAdmin(ctx, &models.CreateAdminRequest{Username: "kasiyer", Password: "Kasa-Masa-2030!"})
	require.NoError(t, err)
	assert.Equal(t, models.AdminRoleStaff, staff.Role)
	assert.Equal(t, "kasiyer", staff.DisplayName)

	_, err = svc.CreateAdmin(ctx, &models.CreateAdminRequest{Username: "kasiyer", Password: "Kasa-Masa-2030!"})
	assert.ErrorIs(t, err, pkg.ErrAlreadyExists)

	_, err = svc.CreateAdmin(ctx, &models.CreateAdminRequest{Username: "x", Password: "Kasa-Masa-2030!"})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)

	assert.ErrorIs(t, svc.DeleteAdmin(ctx, owner.ID, owner.ID), pkg.ErrBadRequest)
	assert.ErrorIs(t, svc.DeleteAdmin(ctx, staff.ID, owner.ID), pkg.ErrConflict, "last owner")

	require.NoError(t, svc.DeleteAdmin(ctx, owner.ID, staff.ID))
	assert.ErrorIs(t, svc.DeleteAdmin(ctx, owner.ID, staff.ID), pkg.ErrNotFound)
}

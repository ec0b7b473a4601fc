package models

import "github.com/golang-jwt/jwt/v5"

// TokenPurpose2FA, sadece ikinci adım doğrulamasında geçerli olan kısa
// ömürlü token'ları işaretler. Bu token'larla API'ye erişilemez.
const TokenPurpose2FA = "2fa"

// TokenClaims, JWT payload'ı.
type TokenClaims struct {
	AdminID  string    `json:"admin_id"`
	Username string    `json:"username"`
	Role     AdminRole `json:"role"`
	Purpose  string    `json:"purpose,omitempty"`
	jwt.RegisteredClaims
}

// TokenPair, login ve refresh yanıtı.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"` // saniye
}

// LoginResult: 2FA kapalıysa Tokens dolu; açıksa ChallengeToken dolu ve
// istemci /api/auth/2fa ile devam eder.
type LoginResult struct {
	Admin             *Admin     `json:"admin,omitempty"`
	Tokens            *TokenPair `json:"tokens,omitempty"`
	RequiresTwoFactor bool       `json:"requires_two_factor"`
	ChallengeToken    string     `json:"challenge_token,omitempty"`
}

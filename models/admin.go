package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// AdminRole, yönetici yetki seviyesi.
type AdminRole string

const (
	// AdminRoleOwner raporlara ve yönetici hesaplarına erişir.
	AdminRoleOwner AdminRole = "owner"
	// AdminRoleStaff katalog, sipariş ve mesajları yönetir.
	AdminRoleStaff AdminRole = "staff"
)

// Admin, panel kullanıcısı.
type Admin struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	DisplayName  string     `json:"display_name"`
	PasswordHash string     `json:"-"`
	Role         AdminRole  `json:"role"`
	TOTPSecret   *string    `json:"-"` // AES-256-GCM ile şifreli
	TOTPEnabled  bool       `json:"totp_enabled"`
	LastLoginAt  *time.Time `json:"last_login_at"`
	CreatedAt    time.Time  `json:"created_at"`
}

func (a *Admin) IsOwner() bool {
	return a.Role == AdminRoleOwner
}

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.]{3,32}$`)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	if r.Username == "" || r.Password == "" {
		return fmt.Errorf("username and password are required")
	}
	return nil
}

// TwoFactorLoginRequest, şifre doğrulandıktan sonra gelen ikinci adım.
type TwoFactorLoginRequest struct {
	ChallengeToken string `json:"challenge_token"`
	Code           string `json:"code"`
}

func (r *TwoFactorLoginRequest) Validate() error {
	r.Code = strings.TrimSpace(r.Code)
	if r.ChallengeToken == "" || r.Code == "" {
		return fmt.Errorf("challenge_token and code are required")
	}
	return nil
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type CreateAdminRequest struct {
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Password    string    `json:"password"`
	Role        AdminRole `json:"role"`
}

// Validate, alan biçimlerini kontrol eder. Şifre politikası service
// katmanında uygulanır.
func (r *CreateAdminRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	if !usernamePattern.MatchString(r.Username) {
		return fmt.Errorf("username must be 3-32 characters of letters, digits, '_' or '.'")
	}
	r.DisplayName = strings.TrimSpace(r.DisplayName)
	if r.DisplayName == "" {
		r.DisplayName = r.Username
	}
	if err := checkLen("display name", r.DisplayName, 1, 64); err != nil {
		return err
	}
	if r.Role == "" {
		r.Role = AdminRoleStaff
	}
	if r.Role != AdminRoleOwner && r.Role != AdminRoleStaff {
		return fmt.Errorf("role must be 'owner' or 'staff'")
	}
	return nil
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (r *ChangePasswordRequest) Validate() error {
	if r.CurrentPassword == "" || r.NewPassword == "" {
		return fmt.Errorf("current_password and new_password are required")
	}
	if r.CurrentPassword == r.NewPassword {
		return fmt.Errorf("new password must differ from the current password")
	}
	return nil
}

// TwoFactorSetup, authenticator uygulamasına eklenecek bilgiler.
type TwoFactorSetup struct {
	Secret string `json:"secret"`
	URL    string `json:"otpauth_url"`
}

type TwoFactorCodeRequest struct {
	Code string `json:"code"`
}

type DisableTwoFactorRequest struct {
	Password string `json:"password"`
	Code     string `json:"code"`
}

// Package password, yönetici şifre politikası ve bcrypt hash işlemleri.
package password

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// Cost, bcrypt maliyet faktörü.
const Cost = 12

// Policy, şifre kuralları.
type Policy struct {
	MinLength      int
	MaxLength      int
	RequireUpper   bool
	RequireLower   bool
	RequireDigit   bool
	RequireSymbol  bool
	RejectUsername bool
}

// DefaultPolicy, panel hesapları için kullanılan politika.
// bcrypt 72 byte'tan sonrasını yok saydığı için üst sınır 72.
var DefaultPolicy = Policy{
	MinLength:      10,
	MaxLength:      72,
	RequireUpper:   true,
	RequireLower:   true,
	RequireDigit:   true,
	RequireSymbol:  true,
	RejectUsername: true,
}

// ErrPolicy, politika ihlali. Check'in döndüğü hata bunu sarar.
var ErrPolicy = errors.New("password does not meet policy")

// Violations, ihlal edilen kuralların listesi.
type Violations []string

func (v Violations) Error() string {
	return fmt.Sprintf("%s: %s", ErrPolicy.Error(), strings.Join(v, ", "))
}

// Is, errors.Is(err, ErrPolicy) için.
func (v Violations) Is(target error) bool { return target == ErrPolicy }

// Check, şifreyi politikaya göre denetler. İhlal yoksa nil döner.
func (p Policy) Check(pw, username string) error {
	var v Violations

	n := utf8.RuneCountInString(pw)
	if n < p.MinLength {
		v = append(v, fmt.Sprintf("at least %d characters", p.MinLength))
	}
	if p.MaxLength > 0 && len(pw) > p.MaxLength {
		v = append(v, fmt.Sprintf("at most %d bytes", p.MaxLength))
	}

	var upper, lower, digit, symbol bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r) || r == ' ':
			symbol = true
		}
	}
	if p.RequireUpper && !upper {
		v = append(v, "an uppercase letter")
	}
	if p.RequireLower && !lower {
		v = append(v, "a lowercase letter")
	}
	if p.RequireDigit && !digit {
		v = append(v, "a digit")
	}
	if p.RequireSymbol && !symbol {
		v = append(v, "a symbol")
	}
	if p.RejectUsername && username != "" &&
		strings.Contains(strings.ToLower(pw), strings.ToLower(username)) {
		v = append(v, "must not contain the username")
	}

	if len(v) > 0 {
		return v
	}
	return nil
}

// Hash, bcrypt hash üretir.
func Hash(pw string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(pw), Cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(h), nil
}

// Verify, şifre hash ile eşleşiyor mu.
func Verify(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// Package totp, RFC 6238 zaman tabanlı tek kullanımlık şifreler.
// Üretim ve doğrulama github.com/pquerna/otp ile yapılır.
package totp

import (
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

var validateOpts = totp.ValidateOpts{
	Period:    30,
	Skew:      1,
	Digits:    otp.DigitsSix,
	Algorithm: otp.AlgorithmSHA1,
}

// Key, yeni üretilmiş secret ve authenticator uygulamalarına verilecek
// otpauth:// URL'i.
type Key struct {
	Secret string
	URL    string
}

// Generate, hesap için yeni secret üretir.
func Generate(issuer, account string) (*Key, error) {
	k, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: account,
		Period:      validateOpts.Period,
		Digits:      validateOpts.Digits,
		Algorithm:   validateOpts.Algorithm,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate totp key: %w", err)
	}
	return &Key{Secret: k.Secret(), URL: k.URL()}, nil
}

// Validate, kodu t anına göre ±1 periyot toleransla doğrular.
func Validate(code, secret string, t time.Time) bool {
	_, ok := Match(code, secret, t)
	return ok
}

// Match, Validate gibi doğrular ve eşleşen zaman adımını (Unix/Period)
// döner. Aynı adımın ikinci kez kabul edilmemesi çağıranın işidir.
func Match(code, secret string, t time.Time) (int64, bool) {
	code = strings.ReplaceAll(strings.TrimSpace(code), " ", "")
	if len(code) != validateOpts.Digits.Length() {
		return 0, false
	}

	period := int64(validateOpts.Period)
	step := t.UTC().Unix() / period
	skew := int64(validateOpts.Skew)
	for s := step - skew; s <= step+skew; s++ {
		want, err := totp.GenerateCodeCustom(secret, time.Unix(s*period, 0).UTC(), validateOpts)
		if err != nil {
			return 0, false
		}
		if subtle.ConstantTimeCompare([]byte(want), []byte(code)) == 1 {
			return s, true
		}
	}
	return 0, false
}

// Code, t anı için geçerli kodu üretir.
func Code(secret string, t time.Time) (string, error) {
	code, err := totp.GenerateCodeCustom(secret, t.UTC(), validateOpts)
	if err != nil {
		return "", fmt.Errorf("failed to generate totp code: %w", err)
	}
	return code, nil
}

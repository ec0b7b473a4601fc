// Package crypto, veritabanında saklanan sırların (TOTP secret) AES-256-GCM
// ile şifrelenmesi.
//
//	box, _ := crypto.NewBox(cfg.Security.EncryptionKey)
//	sealed, _ := box.Seal("JBSWY3DPEHPK3PXP")
//	plain, _ := box.Open(sealed)
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
)

// ErrCiphertext, çözülemeyen veya bozuk şifreli veri.
var ErrCiphertext = errors.New("invalid ciphertext")

// DeriveKey, 64 hex karakterlik anahtarı 32 byte'a çevirir.
func DeriveKey(hexKey string) ([]byte, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("invalid hex key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("key must be 32 bytes (64 hex chars), got %d bytes", len(key))
	}
	return key, nil
}

// Box, tek bir anahtarla Seal/Open yapan AEAD sarmalayıcı.
// Eşzamanlı kullanım güvenlidir.
type Box struct {
	aead cipher.AEAD
}

// NewBox, hex anahtardan Box oluşturur.
func NewBox(hexKey string) (*Box, error) {
	key, err := DeriveKey(hexKey)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return &Box{aead: aead}, nil
}

// Seal, plaintext'i şifreler. Çıktı base64(nonce || ciphertext || tag).
// Her çağrıda rastgele nonce üretildiği için aynı girdi farklı çıktı verir.
func (b *Box) Seal(plaintext string) (string, error) {
	nonce := make([]byte, b.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("nonce generation: %w", err)
	}
	sealed := b.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open, Seal çıktısını çözer. Yanlış anahtar veya bozuk veri ErrCiphertext döner.
func (b *Box) Open(encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCiphertext, err)
	}
	n := b.aead.NonceSize()
	if len(data) < n+b.aead.Overhead() {
		return "", fmt.Errorf("%w: too short", ErrCiphertext)
	}
	plain, err := b.aead.Open(nil, data[:n], data[n:], nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCiphertext, err)
	}
	return string(plain), nil
}

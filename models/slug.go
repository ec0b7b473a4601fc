package models

import (
	"strings"
	"unicode"
)

var turkishFold = strings.NewReplacer(
	"ç", "c", "Ç", "c",
	"ğ", "g", "Ğ", "g",
	"ı", "i", "I", "i", "İ", "i",
	"ö", "o", "Ö", "o",
	"ş", "s", "Ş", "s",
	"ü", "u", "Ü", "u",
	"â", "a", "î", "i", "û", "u",
)

// Slugify, başlığı URL'de kullanılabilir hale getirir:
// "Çikolatalı Yaş Pasta" → "cikolatali-yas-pasta".
func Slugify(s string) string {
	s = turkishFold.Replace(s)

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// Package i18n, vitrin sayfaları ve e-postalar için çeviri metinleri.
//
// Dil şu sırayla belirlenir: ?lang= parametresi, Accept-Language header'ı,
// varsayılan dil (tr).
//
//	loc := i18n.NewLocalizer("en")
//	loc.T("nav.products") // "Products"
package i18n

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/akinalp/pastane/pkg/logger"
)

// SupportedLanguages, desteklenen dil kodları.
var SupportedLanguages = []string{"tr", "en"}

// DefaultLanguage, varsayılan dil.
const DefaultLanguage = "tr"

var (
	mu           sync.RWMutex
	translations = map[string]map[string]string{}
)

// Load, her desteklenen dil için <lang>.json dosyasını okur. İç içe
// anahtarlar noktalı düz anahtarlara açılır: {"nav":{"home":"..."}} → "nav.home".
func Load(localesFS fs.FS) error {
	loaded := make(map[string]map[string]string, len(SupportedLanguages))

	for _, lang := range SupportedLanguages {
		name := lang + ".json"
		data, err := fs.ReadFile(localesFS, name)
		if err != nil {
			return fmt.Errorf("failed to read translation file %s: %w", name, err)
		}

		var nested map[string]any
		if err := json.Unmarshal(data, &nested); err != nil {
			return fmt.Errorf("failed to parse translation file %s: %w", name, err)
		}

		flat := make(map[string]string)
		flatten("", nested, flat)
		loaded[lang] = flat

		logger.Named("i18n").Debug("translations loaded", zap.String("lang", lang), zap.Int("keys", len(flat)))
	}

	mu.Lock()
	translations = loaded
	mu.Unlock()
	return nil
}

// Localizer, tek dil için çevirmen.
type Localizer struct {
	lang string
}

// NewLocalizer, desteklenmeyen dilde varsayılana düşer.
func NewLocalizer(lang string) *Localizer {
	if !IsSupported(lang) {
		lang = DefaultLanguage
	}
	return &Localizer{lang: lang}
}

// Lang, localizer'ın dil kodu.
func (l *Localizer) Lang() string { return l.lang }

// T, anahtarın çevirisini döner. Dilde yoksa varsayılan dile, orada da
// yoksa anahtarın kendisine düşer.
func (l *Localizer) T(key string) string {
	mu.RLock()
	defer mu.RUnlock()

	if msg, ok := translations[l.lang][key]; ok {
		return msg
	}
	if msg, ok := translations[DefaultLanguage][key]; ok {
		return msg
	}
	return key
}

// TWithParams, {{param}} yer tutucularını doldurur.
func (l *Localizer) TWithParams(key string, params map[string]string) string {
	msg := l.T(key)
	for k, v := range params {
		msg = strings.ReplaceAll(msg, "{{"+k+"}}", v)
	}
	return msg
}

// Resolve, query parametresi ve Accept-Language'dan dili seçer.
func Resolve(queryLang, acceptLanguage string) string {
	if q := strings.ToLower(strings.TrimSpace(queryLang)); IsSupported(q) {
		return q
	}
	return DetectLanguage(acceptLanguage)
}

// DetectLanguage, Accept-Language'daki ilk desteklenen dili döner.
// Ör: "en-US,en;q=0.9,tr;q=0.8" → "en".
func DetectLanguage(acceptLanguage string) string {
	for _, part := range strings.Split(acceptLanguage, ",") {
		tag, _, _ := strings.Cut(strings.TrimSpace(part), ";")
		base, _, _ := strings.Cut(tag, "-")
		if lang := strings.ToLower(base); IsSupported(lang) {
			return lang
		}
	}
	return DefaultLanguage
}

// IsSupported, dil kodu destekleniyor mu.
func IsSupported(lang string) bool {
	return slices.Contains(SupportedLanguages, lang)
}

func flatten(prefix string, src map[string]any, dst map[string]string) {
	for k, v := range src {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case string:
			dst[key] = val
		case map[string]any:
			flatten(key, val, dst)
		}
	}
}

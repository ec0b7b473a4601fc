package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// DateLayout, teslim tarihleri ve rapor aralıkları için kullanılan biçim.
const DateLayout = "2006-01-02"

// MonthLayout, takvim ay parametresi biçimi (ör: 2026-10).
const MonthLayout = "2006-01"

// validate, format kontrolleri (e-posta vb.) için paylaşılan validator.
// *validator.Validate goroutine-safe'tir ve struct cache'i tuttuğu için
// tek instance kullanılır.
var validate = validator.New(validator.WithRequiredStructEnabled())

func isEmail(s string) bool {
	return validate.Var(s, "required,email,max=254") == nil
}

// ParseDate, "YYYY-MM-DD" metnini UTC gece yarısı olarak çözer.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be in YYYY-MM-DD format")
	}
	return t, nil
}

// ParseMonth, "YYYY-MM" metnini ayın ilk günü olarak çözer.
func ParseMonth(s string) (time.Time, error) {
	t, err := time.Parse(MonthLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("month must be in YYYY-MM format")
	}
	return t, nil
}

// checkLen, trim edilmiş metnin rune sayısını sınırlar.
func checkLen(field, value string, min, max int) error {
	n := utf8.RuneCountInString(value)
	if n < min || n > max {
		if min == 0 {
			return fmt.Errorf("%s must be at most %d characters", field, max)
		}
		return fmt.Errorf("%s must be between %d and %d characters", field, min, max)
	}
	return nil
}

func trimPtr(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}

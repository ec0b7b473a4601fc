package services

import (
	"regexp"
	"strings"
	"unicode"
)

// spamThreshold, bu skor ve üstündeki mesajlar spam işaretlenir.
const spamThreshold = 3

var spamKeywords = []string{
	"casino", "viagra", "bitcoin", "crypto", "forex", "loan", "seo service",
	"backlink", "porn", "bahis", "kumar", "kredi kart", "hemen kazan",
}

var (
	linkPattern     = regexp.MustCompile(`(?i)(https?://|www\.)`)
	spacePattern    = regexp.MustCompile(`[ \t]+`)
	newlinesPattern = regexp.MustCompile(`\n{3,}`)
)

// spamScore, mesajı basit sinyallerle puanlar:
// her anahtar kelime 2, ikiden fazla her link 1, aynı karakterin 6+ kez
// tekrarı 1, büyük harf ağırlıklı gövde 1.
func spamScore(subject, body string) int {
	text := strings.ToLower(subject + " " + body)
	score := 0

	for _, kw := range spamKeywords {
		if strings.Contains(text, kw) {
			score += 2
		}
	}
	if links := len(linkPattern.FindAllStringIndex(text, -1)); links > 2 {
		score += links - 2
	}
	if hasRepeatedRun(body) {
		score++
	}
	if isShouting(body) {
		score++
	}
	return score
}

func isSpam(subject, body string) bool {
	return spamScore(subject, body) >= spamThreshold
}

// hasRepeatedRun, aynı karakterin art arda 6 veya daha fazla tekrarı.
func hasRepeatedRun(s string) bool {
	var prev rune
	run := 0
	for _, r := range s {
		if r == prev && !unicode.IsSpace(r) {
			run++
			if run >= 6 {
				return true
			}
			continue
		}
		prev, run = r, 1
	}
	return false
}

// isShouting, en az 20 harfli ve harflerinin %70'i büyük olan metin.
func isShouting(s string) bool {
	letters, upper := 0, 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	return letters >= 20 && upper*10 >= letters*7
}

// sanitizeLine, tek satırlık alanlardan kontrol karakterlerini atar ve
// boşlukları tekilleştirir.
func sanitizeLine(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
	return strings.TrimSpace(spacePattern.ReplaceAllString(s, " "))
}

// sanitizeBody, satır sonlarını korur; diğer kontrol karakterlerini atar,
// ardışık boş satırları ikiye indirir.
func sanitizeBody(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '\n':
			return r
		case r == '\t':
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, s)

	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(spacePattern.ReplaceAllString(l, " "))
	}
	return strings.TrimSpace(newlinesPattern.ReplaceAllString(strings.Join(lines, "\n"), "\n\n"))
}

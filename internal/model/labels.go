package model

import (
	"strings"
	"unicode"
)

// DefaultLabeler turns a field name into a display label: "extraInfo" becomes
// "Extra Info", "date_of-birth" becomes "Date Of Birth".
func DefaultLabeler(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	var words []string
	var current []rune
	flush := func() {
		if len(current) > 0 {
			words = append(words, titleWord(string(current)))
			current = current[:0]
		}
	}

	runes := []rune(name)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || unicode.IsSpace(r):
			flush()
			continue
		case i > 0 && wordBoundary(runes[i-1], r):
			flush()
		}
		current = append(current, r)
	}
	flush()

	return strings.Join(words, " ")
}

func wordBoundary(prev, r rune) bool {
	if unicode.IsLower(prev) && unicode.IsUpper(r) {
		return true
	}
	if unicode.IsLetter(prev) && unicode.IsDigit(r) {
		return true
	}
	return unicode.IsDigit(prev) && unicode.IsLetter(r)
}

func titleWord(word string) string {
	lower := []rune(strings.ToLower(word))
	lower[0] = unicode.ToUpper(lower[0])
	return string(lower)
}

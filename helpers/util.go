package helpers

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ParsePrice keeps only the digits of text and parses them.
// Text without digits, or digits that overflow an int, yield 0.
func ParsePrice(text string) int {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, text)
	if digits == "" {
		return 0
	}

	price, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return price
}

// Truncate returns at most n runes of s
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// CollapseSpace trims s and folds every run of whitespace into a single space
func CollapseSpace(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

package util

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Thousands formats n with comma group separators, e.g. 12,345.
func Thousands(n int64) string {
	return printer.Sprintf("%d", n)
}

// NormalizeTickers trims, uppercases and de-duplicates symbols, keeping the
// first occurrence order. Empty entries are dropped.
func NormalizeTickers(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldCode strips combining marks (tone marks, umlauts) and folds width, so
// "Lǚ" and full-width "ＬＶ" reach the core as plain ASCII letters.
var foldCode = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeCode turns raw typed input into an engine code: lower-cased,
// accents removed, everything but ASCII letters and digits dropped.
func NormalizeCode(raw string) string {
	folded, _, err := transform.String(foldCode, raw)
	if err != nil {
		folded = raw
	}
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range strings.ToLower(folded) {
		if IsCodeRune(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsCodeRune reports whether r may appear in an engine code.
func IsCodeRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}

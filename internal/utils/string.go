package utils

import (
	"strconv"
	"strings"
)

// FormatWithCommas formats an integer with comma separators
func FormatWithCommas(n int) string {
	str := strconv.Itoa(n)
	if n < 1000 && n > -1000 {
		return str
	}
	sign := ""
	if n < 0 {
		sign, str = "-", str[1:]
	}
	var b strings.Builder
	for i, char := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(char)
	}
	return sign + b.String()
}

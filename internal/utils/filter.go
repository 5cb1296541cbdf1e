package utils

// IsValidCode reports whether s is already a normalised engine code:
// non-empty, lower-case ASCII letters and digits only.
func IsValidCode(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, r := range s {
		if !IsCodeRune(r) {
			return false
		}
	}
	return true
}

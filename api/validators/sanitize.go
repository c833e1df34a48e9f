package validators

import "strings"

// SanitizeString trims surrounding whitespace and truncates to maxLen
// runes. Used on free-text fields like load origin/destination that are
// stored verbatim.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen <= 0 {
		return trimmed
	}
	runes := []rune(trimmed)
	if len(runes) > maxLen {
		return string(runes[:maxLen])
	}
	return trimmed
}

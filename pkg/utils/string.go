package utils

// Truncate is a simple string truncate for display. It counts runes and
// appends an ellipsis when the string was cut.
func Truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

// Clip returns at most maxLen runes of s without any marker. A non-positive
// maxLen disables clipping.
func Clip(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}

	// Fast path: byte length bounds rune length.
	if len(s) <= maxLen {
		return s
	}

	n := 0
	for i := range s {
		if n == maxLen {
			return s[:i]
		}
		n++
	}
	return s
}

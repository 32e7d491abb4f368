package util

import (
	"strings"
	"unicode"
)

// CleanText strips control and invisible formatting characters, trims
// surrounding whitespace and truncates to maxRunes runes. A maxRunes of zero
// or less leaves the length alone.
func CleanText(s string, maxRunes int) string {
	builder := strings.Builder{}
	builder.Grow(len(s))

	for _, char := range s {
		if unicode.IsControl(char) || isInvisibleUnicode(char) {
			continue
		}
		builder.WriteRune(char)
	}

	cleaned := strings.TrimSpace(builder.String())

	// Truncate by runes so multi-byte characters are never split.
	if maxRunes > 0 {
		if runes := []rune(cleaned); len(runes) > maxRunes {
			cleaned = strings.TrimSpace(string(runes[:maxRunes]))
		}
	}

	return cleaned
}

// isInvisibleUnicode reports zero-width and other formatting characters that
// render as nothing but make two visually equal strings differ.
func isInvisibleUnicode(r rune) bool {
	switch r {
	case
		'\u200B', // Zero-Width Space
		'\u200C', // Zero-Width Non-Joiner
		'\u200D', // Zero-Width Joiner
		'\u200E', // Left-to-Right Mark
		'\u200F', // Right-to-Left Mark
		'\u2060', // Word Joiner
		'\uFEFF', // Zero-Width No-Break Space / BOM
		'\uFFF9', // Interlinear Annotation Anchor
		'\uFFFA', // Interlinear Annotation Separator
		'\uFFFB': // Interlinear Annotation Terminator
		return true
	}

	return unicode.Is(unicode.Cf, r)
}

package render

import (
	"strings"
	"unicode/utf8"
)

// estimateTextWidth estimates the width of text in pixels based on character count.
func estimateTextWidth(text string, fontSize int) int {
	// Rough estimation: average character width is about 0.6 * font size
	avgCharWidth := float64(fontSize) * 0.6
	return int(float64(utf8.RuneCountInString(text)) * avgCharWidth)
}

// truncateToWidth shortens text with an ellipsis until its estimated
// width fits maxWidth. Runes are never split.
func truncateToWidth(text string, fontSize, maxWidth int) string {
	if estimateTextWidth(text, fontSize) <= maxWidth {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := strings.TrimRight(string(runes), " ") + "…"
		if estimateTextWidth(candidate, fontSize) <= maxWidth {
			return candidate
		}
	}
	return ""
}

// escapeXML escapes special XML characters in a string to ensure valid SVG output.
// Characters XML 1.0 does not allow are dropped and invalid UTF-8 becomes U+FFFD.
func escapeXML(s string) string {
	s = strings.Map(xmlChar, s)
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	s = strings.ReplaceAll(s, "'", "&apos;")
	return s
}

func xmlChar(r rune) rune {
	switch {
	case r == '\t', r == '\n', r == '\r':
		return r
	case r >= 0x20 && r <= 0xD7FF,
		r >= 0xE000 && r <= 0xFFFD,
		r >= 0x10000 && r <= utf8.MaxRune:
		return r
	}
	return -1
}

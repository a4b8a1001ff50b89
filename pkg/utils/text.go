// Package utils provides shared utilities for text handling and logging.
package utils

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Truncate returns s truncated to maxLen runes, with "..." appended if truncated.
// The result never exceeds maxLen runes. If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string([]rune(s)[:maxLen])
	}
	return string([]rune(s)[:maxLen-3]) + "..."
}

// CollapseSpace replaces every run of whitespace with a single space and trims the ends.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// LeadSentences returns the first maxSentences sentences of text, stopping early
// once maxChars runes would be exceeded. Sentences end at '.', '!' or '?' followed by space.
func LeadSentences(text string, maxSentences, maxChars int) string {
	text = CollapseSpace(text)
	if text == "" || maxSentences <= 0 {
		return ""
	}
	var (
		b     strings.Builder
		count int
		start int
	)
	runes := []rune(text)
	for i, r := range runes {
		end := i == len(runes)-1
		if !end && !(isSentenceEnd(r) && unicode.IsSpace(runes[i+1])) {
			continue
		}
		sentence := strings.TrimSpace(string(runes[start : i+1]))
		start = i + 1
		if sentence == "" {
			continue
		}
		if maxChars > 0 && b.Len() > 0 && utf8.RuneCountInString(b.String())+1+utf8.RuneCountInString(sentence) > maxChars {
			break
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(sentence)
		count++
		if count >= maxSentences {
			break
		}
	}
	return Truncate(b.String(), maxChars)
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

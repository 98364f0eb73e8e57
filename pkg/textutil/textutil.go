// Package textutil holds small text cleanup helpers shared by the ingest
// and memory paths.
package textutil

import (
	"regexp"
	"strings"
)

var specialChars = regexp.MustCompile(`[^\p{L}\p{N}\s.,!?'-]`)

// Sanitize strips control and decorative characters and collapses
// whitespace. Transcription engines occasionally emit both.
func Sanitize(text string) string {
	text = specialChars.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(text), " ")
}

// Chunk splits text into word-aligned pieces of at most size bytes.
// Words longer than size become their own chunk rather than being split.
func Chunk(text string, size int) []string {
	if size <= 0 || text == "" {
		return nil
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []string
	var current []string
	currentLen := 0

	for _, word := range words {
		wordLen := len(word) + 1
		if currentLen+wordLen > size && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))
			current = current[:0]
			currentLen = 0
		}
		current = append(current, word)
		currentLen += wordLen
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}

// Truncate cuts s to at most max runes, appending an ellipsis when cut.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

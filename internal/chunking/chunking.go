// Package chunking builds the searchable text for a QA record and
// splits it into fixed-size, overlapping windows for the Embedding
// Client.
//
// The overlap-by-restepping loop is a direct generalization of the
// teacher's internal/chunker.SentenceChunker, which stepped by
// sentence index; here it steps by character offset instead, since
// the spec's chunking unit is characters, not sentences.
package chunking

import (
	"strings"

	"github.com/kxddry/ragqa/internal/domain"
)

// DefaultSize and DefaultOverlap match §4.5 of the specification.
const (
	DefaultSize    = 1000
	DefaultOverlap = 100
)

// SearchableText returns the concatenation of question, keywords,
// category, audience, separated by spaces, with empty fields omitted.
func SearchableText(r domain.QARecord) string {
	parts := make([]string, 0, 4)
	if r.Question != "" {
		parts = append(parts, r.Question)
	}
	if len(r.Keywords) > 0 {
		parts = append(parts, strings.Join(r.Keywords, " "))
	}
	if r.Category != "" {
		parts = append(parts, r.Category)
	}
	if r.Audience != "" {
		parts = append(parts, r.Audience)
	}
	return strings.Join(parts, " ")
}

// Window splits text into chunks of at most size characters, with
// overlap characters repeated between consecutive chunks. Text
// shorter than size produces exactly one chunk. size<=0 falls back to
// DefaultSize; a negative or out-of-range overlap is clamped to
// [0, size-1].
func Window(text string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size - 1
	}

	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}
	}

	var out []string
	i := 0
	for i < len(runes) {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[i:end]))
		if end == len(runes) {
			break
		}
		next := end - overlap
		if next <= i {
			next = i + 1
		}
		i = next
	}
	return out
}

// BuildChunks produces the chunks handed to the Embedding Client for
// QA record r, using size/overlap windowing over the record's
// searchable text. The caller attaches PayloadIndex structurally to
// each resulting domain.Chunk — §9 drops the inline index tag once
// PayloadIndex survives end-to-end, which it does here.
func BuildChunks(r domain.QARecord, size, overlap int) []string {
	return Window(SearchableText(r), size, overlap)
}

package chunking

import (
	"strings"
	"testing"

	"github.com/kxddry/ragqa/internal/domain"
)

func TestSearchableText_OmitsEmptyFields(t *testing.T) {
	r := domain.QARecord{Question: "What is Go?"}
	got := SearchableText(r)
	if got != "What is Go?" {
		t.Fatalf("expected just the question, got %q", got)
	}
}

func TestSearchableText_FullOrder(t *testing.T) {
	r := domain.QARecord{
		Question: "Q",
		Keywords: []string{"a", "b"},
		Category: "cat",
		Audience: "aud",
	}
	got := SearchableText(r)
	if got != "Q a b cat aud" {
		t.Fatalf("unexpected order/spacing: %q", got)
	}
}

func TestWindow_ShortTextIsOneChunk(t *testing.T) {
	chunks := Window("short text", 1000, 100)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk for short text, got %d", len(chunks))
	}
}

func TestWindow_LongTextOverlaps(t *testing.T) {
	text := strings.Repeat("a", 2500)
	chunks := Window(text, 1000, 100)
	if len(chunks) < 3 {
		t.Fatalf("expected at least 3 chunks for 2500 chars, got %d", len(chunks))
	}
	// coverage check: the chunks' total length must reach the text length
	covered := 0
	for _, c := range chunks {
		covered += len(c)
	}
	if covered < len(text) {
		t.Fatalf("chunks do not cover the whole text")
	}
}

func TestWindow_TerminatesOnDegenerateOverlap(t *testing.T) {
	text := strings.Repeat("x", 50)
	chunks := Window(text, 10, 9)
	if len(chunks) == 0 {
		t.Fatalf("expected at least one chunk")
	}
}

func TestBuildChunks_MatchesWindowedSearchableText(t *testing.T) {
	r := domain.QARecord{Question: strings.Repeat("q ", 1000)}
	chunks := BuildChunks(r, 1000, 100)
	want := Window(SearchableText(r), 1000, 100)
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d", len(want), len(chunks))
	}
	for i := range chunks {
		if chunks[i] != want[i] {
			t.Fatalf("chunk %d mismatch: got %q want %q", i, chunks[i], want[i])
		}
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks for long question")
	}
}

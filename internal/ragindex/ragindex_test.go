package ragindex

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/kxddry/ragqa/internal/corpus"
	"github.com/kxddry/ragqa/internal/domain"
	"github.com/kxddry/ragqa/internal/embedding"
	"github.com/kxddry/ragqa/internal/reconcile"
	"github.com/kxddry/ragqa/internal/vectorstore"
)

const dim = 8

func newHarness(t *testing.T, records []domain.QARecord) (*Index, *corpus.Store) {
	t.Helper()
	dir := t.TempDir()
	c := corpus.New(filepath.Join(dir, "corpus.json"))
	for _, r := range records {
		if _, err := c.Add(r); err != nil {
			t.Fatalf("seed record: %v", err)
		}
	}
	vs := vectorstore.New()
	if err := vs.Init(dim); err != nil {
		t.Fatalf("init store: %v", err)
	}
	emb := embedding.NewLocalEmbedder(dim)
	rec := reconcile.New(c, vs, emb, reconcile.Config{
		ChunkSize:     1000,
		ChunkOverlap:  100,
		CachePath:     filepath.Join(dir, "cache.json"),
		LedgerIndices: filepath.Join(dir, "ledger_indices.json"),
		LedgerCorpus:  filepath.Join(dir, "ledger_corpus.digest"),
	})
	idx := New(emb, vs, c, func(ctx context.Context) error {
		_, err := rec.Reconcile(ctx)
		return err
	})
	return idx, c
}

func TestSearch_EmptyCorpusReturnsEmpty(t *testing.T) {
	idx, c := newHarness(t, nil)
	// Write an empty JSON array to disk: a missing corpus file is
	// ErrCorpusUnavailable, not an empty corpus.
	if _, err := c.Add(domain.QARecord{Question: "Q", Answer: "A"}); err != nil {
		t.Fatalf("seed record: %v", err)
	}
	if err := c.Delete(0); err != nil {
		t.Fatalf("delete record: %v", err)
	}
	hits, err := idx.Search(context.Background(), "anything", 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected no hits against an empty corpus, got %+v", hits)
	}
}

func TestSearch_SingleRecordReturnsExactlyOneHitRegardlessOfK(t *testing.T) {
	idx, _ := newHarness(t, []domain.QARecord{{Question: "What is Go?", Answer: "A language."}})
	hits, err := idx.Search(context.Background(), "What is Go?", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected exactly 1 hit, got %d", len(hits))
	}
	if hits[0].Rank != 1 {
		t.Fatalf("expected rank 1, got %d", hits[0].Rank)
	}
}

func TestSearch_TopHitMatchesItsOwnQuestion(t *testing.T) {
	idx, _ := newHarness(t, []domain.QARecord{
		{Question: "How do I format a Go file?", Answer: "Run gofmt."},
		{Question: "What is the capital of France?", Answer: "Paris."},
		{Question: "How does garbage collection work?", Answer: "Tracing GC."},
	})
	hits, err := idx.Search(context.Background(), "What is the capital of France?", 3)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) == 0 {
		t.Fatalf("expected at least one hit")
	}
	if hits[0].Question != "What is the capital of France?" {
		t.Fatalf("expected top hit to be the matching record, got %q", hits[0].Question)
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].Similarity > hits[i-1].Similarity {
			t.Fatalf("hits must be in non-increasing similarity order: %+v", hits)
		}
	}
}

func TestSearch_ResultsAreDeduplicatedByPayloadIndex(t *testing.T) {
	// Chunking windows the searchable text (question+keywords+
	// category+audience), not the answer, so a long keyword set is
	// what forces this single record into multiple overlapping chunks
	// sharing one PayloadIndex.
	longKeywords := make([]string, 200)
	for i := range longKeywords {
		longKeywords[i] = "keyword"
	}
	idx, _ := newHarness(t, []domain.QARecord{
		{Question: "Long record", Answer: "A0", Keywords: longKeywords},
	})
	hits, err := idx.Search(context.Background(), "Long record", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	seen := make(map[int]bool)
	for _, h := range hits {
		if seen[h.PayloadIndex] {
			t.Fatalf("duplicate payload index %d in results: %+v", h.PayloadIndex, hits)
		}
		seen[h.PayloadIndex] = true
	}
}

func TestSearch_KIsClampedToConfiguredBounds(t *testing.T) {
	records := make([]domain.QARecord, 5)
	for i := range records {
		records[i] = domain.QARecord{Question: "Question", Answer: "Answer"}
	}
	idx, _ := newHarness(t, records)
	hits, err := idx.Search(context.Background(), "Question", 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != minK {
		t.Fatalf("expected k clamped up to %d, got %d hits", minK, len(hits))
	}

	hits, err = idx.Search(context.Background(), "Question", 1000)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) > maxK {
		t.Fatalf("expected k clamped down to at most %d, got %d hits", maxK, len(hits))
	}
}

func TestSearch_StalePayloadIndexIsSkippedSilently(t *testing.T) {
	idx, c := newHarness(t, []domain.QARecord{
		{Question: "Q0", Answer: "A0"},
		{Question: "Q1", Answer: "A1"},
	})
	if _, err := idx.Search(context.Background(), "Q0", 5); err != nil {
		t.Fatalf("initial search: %v", err)
	}
	// Mutate the corpus directly without reconciling, simulating a
	// chunk whose payload index no longer resolves.
	if err := c.Delete(1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	hits, err := idx.Search(context.Background(), "Q1", 5)
	if err != nil {
		t.Fatalf("search after drift: %v", err)
	}
	for _, h := range hits {
		if h.PayloadIndex == 1 && h.Question == "Q1" {
			t.Fatalf("expected stale payload index to resolve against current corpus, not the deleted record")
		}
	}
}

func TestSearch_DegenerateQueryReturnsEmptyNotError(t *testing.T) {
	idx, _ := newHarness(t, []domain.QARecord{{Question: "Q0", Answer: "A0"}})
	// The empty string embeds to a zero vector under LocalEmbedder,
	// since there are no runes to accumulate into it.
	hits, err := idx.Search(context.Background(), "", 5)
	if err != nil {
		t.Fatalf("expected no error for a degenerate query, got %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected an empty result for a degenerate query, got %+v", hits)
	}
}

func TestSearch_PropagatesCorpusUnavailableOnInit(t *testing.T) {
	dir := t.TempDir()
	c := corpus.New(filepath.Join(dir, "missing.json"))
	vs := vectorstore.New()
	_ = vs.Init(dim)
	emb := embedding.NewLocalEmbedder(dim)
	rec := reconcile.New(c, vs, emb, reconcile.Config{
		CachePath:     filepath.Join(dir, "cache.json"),
		LedgerIndices: filepath.Join(dir, "ledger_indices.json"),
		LedgerCorpus:  filepath.Join(dir, "ledger_corpus.digest"),
	})
	idx := New(emb, vs, c, func(ctx context.Context) error {
		_, err := rec.Reconcile(ctx)
		return err
	})

	_, err := idx.Search(context.Background(), "anything", 5)
	if !errors.Is(err, domain.ErrCorpusUnavailable) {
		t.Fatalf("expected ErrCorpusUnavailable to propagate, got %v", err)
	}
}

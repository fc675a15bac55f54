// Package ragindex implements the Search API: the read path consumed
// by both the interactive TUI and the chat orchestrator. It embeds a
// query, asks the Vector Store for a widened top-K, de-duplicates by
// payload index, resolves survivors against the Corpus Store, and
// returns a ranked, truncated result list.
//
// Grounded in the teacher's service.RAGServiceImpl.Query shape (embed
// then store.Search then post-process), with the teacher's Ochiai
// lexical fallback dropped in favor of the specified degenerate-query
// behavior (return an empty list) and a de-dup-by-payload-index step
// the teacher's one-chunk-per-document design never needed.
package ragindex

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/kxddry/ragqa/internal/domain"
)

// widenFactor multiplies k when asking the Vector Store for
// candidates, to leave room for de-duplication across multi-chunk
// records (§4.7 step 3).
const widenFactor = 4

const (
	minK = 1
	maxK = 50
)

// Index is the process-wide Search API singleton. It holds no
// exclusive state of its own beyond a one-time initialization gate;
// all durable state lives in the Vector Store and Corpus Store it was
// constructed with.
type Index struct {
	embedder domain.Embedder
	store    domain.VectorStore
	corpus   domain.CorpusStore
	reconcile func(ctx context.Context) error

	initOnce sync.Once
	initErr  error
}

// New wires an Index. Initialize (and so the first Search) calls
// reconcileFn at most once; concurrent first callers coalesce onto the
// same call via sync.Once. Refresh calls reconcileFn on every call.
func New(embedder domain.Embedder, store domain.VectorStore, corpus domain.CorpusStore, reconcileFn func(ctx context.Context) error) *Index {
	return &Index{embedder: embedder, store: store, corpus: corpus, reconcile: reconcileFn}
}

// Initialize runs the wired reconciliation function exactly once,
// regardless of how many goroutines call it concurrently — the first
// caller does the work, the rest observe its result.
func (idx *Index) Initialize(ctx context.Context) error {
	idx.initOnce.Do(func() {
		idx.initErr = idx.reconcile(ctx)
	})
	return idx.initErr
}

// Refresh forces a new reconciliation pass, bypassing the
// once-only gate — used after an external CRUD mutation. It does not
// reset the gate: Search will not attempt Initialize's reconciliation
// again afterward.
func (idx *Index) Refresh(ctx context.Context) error {
	return idx.reconcile(ctx)
}

// Search embeds queryText, retrieves a widened candidate set from the
// Vector Store, de-duplicates by payload index, resolves survivors
// against the Corpus Store, and returns up to k ranked hits. k is
// clamped to [1,50]. A stale payload index (no longer resolvable
// against the corpus) is skipped silently, not treated as an error.
func (idx *Index) Search(ctx context.Context, queryText string, k int) ([]domain.SearchHit, error) {
	if err := idx.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("ragindex: initialization: %w", err)
	}

	k = clamp(k, minK, maxK)

	// Step 2: embed before taking any store lock, so query-time
	// embedding I/O never blocks a concurrent Reconciler.
	queryVector, err := idx.embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("ragindex: embedding query: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// §7 QueryDegenerate: a zero query vector is not an error, it is
	// an empty result — there is nothing for cosine similarity to rank
	// against.
	if isZeroVector(queryVector) {
		return nil, nil
	}

	// Step 3: widen so de-duplication across multi-chunk records
	// still leaves k distinct payloads when possible.
	candidates, err := idx.store.Search(queryVector, k*widenFactor)
	if err != nil {
		return nil, fmt.Errorf("ragindex: vector search: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Step 4: de-dup by payload index, keeping the highest score.
	// Vector Store output is already score-descending, so the first
	// occurrence of a payload index is its best score.
	seen := make(map[int]bool, len(candidates))
	deduped := make([]domain.ScoredChunk, 0, len(candidates))
	for _, c := range candidates {
		if seen[c.Chunk.PayloadIndex] {
			continue
		}
		seen[c.Chunk.PayloadIndex] = true
		deduped = append(deduped, c)
	}

	// Step 5: resolve against the Corpus Store, skipping stale
	// payload indices silently.
	hits := make([]domain.SearchHit, 0, len(deduped))
	for _, c := range deduped {
		rec, err := idx.corpus.Get(c.Chunk.PayloadIndex)
		if err != nil {
			continue
		}
		hits = append(hits, domain.SearchHit{
			PayloadIndex: c.Chunk.PayloadIndex,
			Question:     rec.Question,
			Answer:       rec.Answer,
			Category:     rec.Category,
			Audience:     rec.Audience,
			Keywords:     rec.Keywords,
			Similarity:   c.Score,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Similarity > hits[j].Similarity })

	// Step 6: truncate to k.
	if len(hits) > k {
		hits = hits[:k]
	}
	for i := range hits {
		hits[i].Rank = i + 1
	}

	return hits, nil
}

func isZeroVector(v []float64) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

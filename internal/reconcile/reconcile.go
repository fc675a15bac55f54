// Package reconcile implements the Reconciler: the heart of the core.
// A single reconciliation pass loads the corpus, fingerprints it,
// classifies every index as deleted/added/changed/unchanged against
// the persisted ledger, drives delete/re-embed against the Vector
// Store, and persists the Cache Artifact before the Fingerprint
// Ledger, exactly in that order.
//
// This is a direct generalization of the teacher's
// service.RAGServiceImpl.IngestDocuments pipeline (chunk -> embed ->
// upsert), replacing its unconditional full rebuild with the
// change-classification the spec calls for, and lifting embedding I/O
// above the Vector Store's own lock so it is never held during
// provider calls.
package reconcile

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"sync"

	"github.com/kxddry/ragqa/internal/chunking"
	"github.com/kxddry/ragqa/internal/domain"
	"github.com/kxddry/ragqa/internal/hashutil"
	"github.com/kxddry/ragqa/internal/ledger"
)

// Config parameterizes chunking and persistence paths.
type Config struct {
	ChunkSize     int
	ChunkOverlap  int
	CachePath     string
	LedgerIndices string
	LedgerCorpus  string
}

// Reconciler drives reconciliation between the Corpus Store, the
// Vector Store, and the Fingerprint Ledger.
type Reconciler struct {
	corpus   domain.CorpusStore
	store    domain.VectorStore
	embedder domain.Embedder
	cfg      Config

	// inFlight serializes overlapping reconciliation requests: at
	// most one runs at a time (§5); callers arriving while one is in
	// progress wait for it to finish, then run their own pass against
	// the ledger it wrote.
	inFlight sync.Mutex
}

// New returns a Reconciler wired to the given collaborators.
func New(corpusStore domain.CorpusStore, store domain.VectorStore, embedder domain.Embedder, cfg Config) *Reconciler {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = chunking.DefaultSize
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = chunking.DefaultOverlap
	}
	return &Reconciler{corpus: corpusStore, store: store, embedder: embedder, cfg: cfg}
}

// Result summarizes a single reconciliation pass, mainly for logging
// and tests.
type Result struct {
	Added     []int
	Changed   []int
	Deleted   []int
	Unchanged []int
	// EmbedFailures holds indices whose embedding failed; the ledger
	// is not updated for these so the next run retries them.
	EmbedFailures map[int]error
}

// Reconcile runs one full pass (§4.4 steps 1-8). It serializes against
// any other in-flight call: the second caller observes the first
// call's results.
func (r *Reconciler) Reconcile(ctx context.Context) (Result, error) {
	r.inFlight.Lock()
	defer r.inFlight.Unlock()
	return r.reconcileLocked(ctx)
}

func (r *Reconciler) reconcileLocked(ctx context.Context) (Result, error) {
	// Step 1: load the corpus.
	records, err := r.corpus.ReadAll()
	if err != nil {
		return Result{}, err
	}

	rawBytes, err := r.corpus.RawBytes()
	if err != nil {
		return Result{}, err
	}

	// Step 2: current fingerprints.
	curr := make(map[int]string, len(records))
	for i, rec := range records {
		curr[i] = hashutil.RecordFingerprint(rec)
	}
	currCorpusDigest := hashutil.CorpusFingerprint(rawBytes)

	// Step 3: read the persisted ledger.
	prevLedger, err := ledger.Load(r.cfg.LedgerIndices, r.cfg.LedgerCorpus)
	if err != nil {
		return Result{}, err
	}

	// The previous corpus digest is not compared against the current
	// one: every pass classifies each index by its record fingerprint.
	prev := make(map[int]string, len(prevLedger.Indices))
	for k, v := range prevLedger.Indices {
		idx, convErr := strconv.Atoi(k)
		if convErr != nil {
			continue
		}
		prev[idx] = v
	}

	// Bootstrap / cache-loss recovery (§7): the ledger claims indices
	// but the store holds no chunks — either a fresh process, or an
	// embedding-framework build step that clears state (§4.4's
	// bootstrap edge case). Try to reload the persisted Cache Artifact
	// before classifying anything against the ledger. If the artifact
	// is absent, corrupt, or its dimension disagrees with the store's
	// (domain.ErrDimensionMismatch, which §7 makes fatal to the
	// cache), the ledger's claims cannot be trusted: discard it
	// entirely so every current index reclassifies as added and gets
	// fully re-embedded below, exactly as if the cache file had been
	// deleted (§6.2's "legal operational reset"), satisfying the §8
	// invariant that a ledger entry always has a backing chunk.
	if len(prev) > 0 && r.store.Count() == 0 {
		found, loadErr := r.store.LoadFromFile(r.cfg.CachePath)
		switch {
		case loadErr != nil:
			log.Printf("reconcile: warning: cache unreadable, discarding ledger and rebuilding: %v", loadErr)
			prevLedger = ledger.New()
			prev = make(map[int]string)
		case !found:
			log.Printf("reconcile: warning: cache missing but ledger has %d entries, discarding ledger and rebuilding", len(prev))
			prevLedger = ledger.New()
			prev = make(map[int]string)
		}
	}

	// Step 4: classify.
	result := Result{EmbedFailures: make(map[int]error)}
	for idx := range prev {
		if _, ok := curr[idx]; !ok {
			result.Deleted = append(result.Deleted, idx)
		}
	}
	for idx, digest := range curr {
		prevDigest, ok := prev[idx]
		switch {
		case !ok:
			result.Added = append(result.Added, idx)
		case prevDigest != digest:
			result.Changed = append(result.Changed, idx)
		default:
			result.Unchanged = append(result.Unchanged, idx)
		}
	}
	sort.Ints(result.Deleted)
	sort.Ints(result.Added)
	sort.Ints(result.Changed)
	sort.Ints(result.Unchanged)

	// Step 5: drop chunks for deleted indices.
	for _, idx := range result.Deleted {
		r.store.DeleteByPayloadIndex(idx)
	}

	// Step 6: drop stale chunks for changed indices before re-embedding.
	for _, idx := range result.Changed {
		r.store.DeleteByPayloadIndex(idx)
	}

	// Step 7: embed the union of added+changed, ascending index order,
	// outside any store lock — embedding I/O happens here, then
	// Insert takes the store's own short-lived exclusive lock.
	toEmbed := append(append([]int(nil), result.Added...), result.Changed...)
	sort.Ints(toEmbed)

	nextLedger := prevLedger.Clone()
	for _, idx := range result.Deleted {
		delete(nextLedger.Indices, strconv.Itoa(idx))
	}

	for _, idx := range toEmbed {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("reconcile: canceled before index %d: %w", idx, err)
		}
		rec := records[idx]
		texts := chunking.BuildChunks(rec, r.cfg.ChunkSize, r.cfg.ChunkOverlap)

		chunks := make([]domain.Chunk, 0, len(texts))
		failed := false
		for _, text := range texts {
			vec, embedErr := r.embedder.Embed(ctx, text)
			if embedErr != nil {
				result.EmbedFailures[idx] = embedErr
				failed = true
				break
			}
			chunks = append(chunks, domain.Chunk{PayloadIndex: idx, Text: text, Vector: vec})
		}
		if failed {
			// Per-record best-effort: leave this index un-embedded and
			// do not update its ledger entry, so the next run retries
			// it. The record is left with no chunks in the store.
			continue
		}
		if _, err := r.store.Insert(chunks); err != nil {
			result.EmbedFailures[idx] = err
			continue
		}
		nextLedger.Indices[strconv.Itoa(idx)] = curr[idx]
	}
	nextLedger.CorpusDigest = currCorpusDigest

	// Step 8: persist the Cache Artifact, then the Ledger. This order
	// is load-bearing: a crash between the two leaves the cache ahead
	// of the ledger, so the next run treats extra chunks as belonging
	// to unchanged records and only redoes work for truly changed
	// ones. The reverse order risks the cache lacking vectors the
	// ledger already claims.
	if err := r.store.SaveToFile(r.cfg.CachePath); err != nil {
		return result, fmt.Errorf("reconcile: saving cache: %w", err)
	}
	if err := nextLedger.Save(r.cfg.LedgerIndices, r.cfg.LedgerCorpus); err != nil {
		return result, fmt.Errorf("reconcile: saving ledger: %w", err)
	}

	return result, nil
}

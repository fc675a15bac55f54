// Package vectorstore implements the in-memory Vector Store and its
// Cache Codec: an exact cosine-similarity index over Chunks, generalized
// from the teacher's vectorstore/memory.Storage (same RWMutex
// discipline, dimension field, Init/Upsert/Search/Clear shape) to add
// payload-indexed deletion and on-disk persistence of the full state.
package vectorstore

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/kxddry/ragqa/internal/domain"
)

// Store is the reference domain.VectorStore implementation: an
// in-memory slice of Chunks searched by brute-force cosine similarity.
// Reads take a shared lock for the duration of the cosine pass; writes
// take an exclusive lock only around the slice mutation itself.
type Store struct {
	mu         sync.RWMutex
	dimension  int
	chunks     []domain.Chunk
	codec      *Codec
}

// New returns an empty Store. Call Init before inserting any chunks.
func New() *Store {
	return &Store{codec: NewCodec()}
}

// Init declares the embedding dimensionality. Any chunks already
// loaded (e.g. via LoadFromFile called before Init) are preserved.
func (s *Store) Init(dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("vectorstore: invalid dimension %d", dimension)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = dimension
	return nil
}

// LoadFromFile replaces in-memory state from the Cache Artifact at
// path. found is false, err is nil when the file does not exist — a
// normal outcome. A present-but-corrupt file returns found=false and a
// non-nil error wrapping domain.ErrCacheCorrupt. If Init has already
// declared a dimension and the artifact's differs, the load is
// refused with domain.ErrDimensionMismatch instead of silently
// adopting the cached dimension — per §7 this is fatal to the cache,
// not a value to fall back to.
func (s *Store) LoadFromFile(path string) (bool, error) {
	artifact, found, err := s.codec.Read(path)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dimension != 0 && artifact.Dimensions != s.dimension {
		return false, fmt.Errorf("%w: cache declares %d dims, store expects %d",
			domain.ErrDimensionMismatch, artifact.Dimensions, s.dimension)
	}
	s.dimension = artifact.Dimensions
	s.chunks = append([]domain.Chunk(nil), artifact.Vectors...)
	return true, nil
}

// SaveToFile serializes the full in-memory state to the Cache
// Artifact at path.
func (s *Store) SaveToFile(path string) error {
	s.mu.RLock()
	artifact := Artifact{
		Dimensions: s.dimension,
		Vectors:    append([]domain.Chunk(nil), s.chunks...),
	}
	s.mu.RUnlock()

	return s.codec.Write(path, artifact)
}

// Insert appends chunks, returning the count inserted. Every chunk
// must match the store's declared dimension.
func (s *Store) Insert(chunks []domain.Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range chunks {
		if len(c.Vector) != s.dimension {
			return 0, fmt.Errorf("%w: chunk has %d dims, store declares %d",
				domain.ErrDimensionMismatch, len(c.Vector), s.dimension)
		}
	}
	s.chunks = append(s.chunks, chunks...)
	return len(chunks), nil
}

// DeleteByPayloadIndex removes every chunk whose PayloadIndex equals
// index, returning the count removed.
func (s *Store) DeleteByPayloadIndex(index int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.chunks[:0]
	removed := 0
	for _, c := range s.chunks {
		if c.PayloadIndex == index {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	s.chunks = kept
	return removed
}

// Count returns the total number of chunks in the store.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// CountByPayloadIndex returns the number of chunks carrying index.
func (s *Store) CountByPayloadIndex(index int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, c := range s.chunks {
		if c.PayloadIndex == index {
			n++
		}
	}
	return n
}

// Search returns the k chunks with highest cosine similarity to query,
// in descending score order, ties broken by insertion order (earlier
// wins). Complexity is O(N*D) per query, which is accepted per the
// design's Non-goals — the corpus is small.
func (s *Store) Search(query []float64, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	scored := make([]domain.ScoredChunk, len(s.chunks))
	for i, c := range s.chunks {
		scored[i] = domain.ScoredChunk{Chunk: c, Score: cosine(query, c.Vector)}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}

// cosine computes (a·b) / (|a|·|b|). If either norm is zero the score
// is zero. Mismatched lengths (which should never occur given the
// dimension check on Insert) also score zero rather than panicking.
func cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

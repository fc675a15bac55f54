// Package domain holds the shared types and interfaces the rest of the
// core is built against: the QA record, the indexed Chunk, the search
// result payload, and the component contracts (Embedder, VectorStore,
// CorpusStore) that let each concern be implemented and tested in
// isolation.
package domain

import "context"

// QARecord is a single question/answer entry read from the corpus.
// Identity is positional: a record's index in the corpus slice at the
// time of the last reconciliation is the only identifier the core
// understands. Callers that need a stable identity across
// reconciliations must track it themselves.
type QARecord struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Category string   `json:"category,omitempty"`
	Audience string   `json:"audience,omitempty"`
	Keywords []string `json:"keywords,omitempty"`

	// Source is free-form provenance, e.g. "import:2026-01-04". It is
	// informational only and excluded from the record fingerprint.
	Source string `json:"source,omitempty"`
}

// Chunk is the unit stored in the Vector Store: a fragment of a
// record's searchable text plus its embedding vector, addressed back to a QA record by
// PayloadIndex. A Chunk whose PayloadIndex cannot be resolved against
// the Corpus Store is unreachable and must never be created.
type Chunk struct {
	PayloadIndex int       `json:"payload_index"`
	Text         string    `json:"text"`
	Vector       []float64 `json:"vector"`
}

// ScoredChunk pairs a Chunk with its similarity score from a search.
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// SearchHit is the resolved, user-facing result of a Search API query:
// a QA record's fields plus its rank and similarity score.
type SearchHit struct {
	PayloadIndex int      `json:"payload_index"`
	Question     string   `json:"question"`
	Answer       string   `json:"answer"`
	Category     string   `json:"category,omitempty"`
	Audience     string   `json:"audience,omitempty"`
	Keywords     []string `json:"keywords,omitempty"`
	Similarity   float64  `json:"similarity"`
	Rank         int      `json:"rank"`
}

// Embedder converts text into a fixed-dimension dense vector via an
// external (or local) provider. Retries are not automatic at this
// layer — callers choose retry policy.
type Embedder interface {
	// Embed returns the embedding vector for text, or fails with an
	// error satisfying errors.Is against ErrEmbedTransport or
	// ErrEmbedRejected.
	Embed(ctx context.Context, text string) ([]float64, error)
	// Dimension returns the declared dimensionality of vectors this
	// embedder produces.
	Dimension() int
}

// VectorStore is the in-memory collection of Chunks and the cosine
// search surface over them. Implementations must serialize writers
// against readers (see package vectorstore for the reference
// implementation's locking discipline).
type VectorStore interface {
	// Init declares the embedding dimensionality. It must preserve any
	// previously loaded Chunks — load-before-init is a supported
	// sequence.
	Init(dimension int) error
	// LoadFromFile replaces in-memory state from a Cache Artifact.
	// Returns found=false (not an error) when the file does not exist.
	LoadFromFile(path string) (found bool, err error)
	// SaveToFile serializes the full in-memory state to the Cache
	// Artifact at path.
	SaveToFile(path string) error
	// Insert appends chunks and returns the count inserted.
	Insert(chunks []Chunk) (int, error)
	// DeleteByPayloadIndex removes every Chunk with the given
	// PayloadIndex and returns the count removed.
	DeleteByPayloadIndex(index int) int
	// Search returns the k Chunks with highest cosine similarity to
	// query, in descending score order, ties broken by insertion
	// order.
	Search(query []float64, k int) ([]ScoredChunk, error)
	// Count returns the total number of Chunks in the store.
	Count() int
	// CountByPayloadIndex returns the number of Chunks carrying index.
	CountByPayloadIndex(index int) int
}

// CorpusStore is the authoritative list of QA records. It is mutated
// by the external CRUD surface (out of scope for this core) and read
// by the Hasher, the Reconciler, and the Search API.
type CorpusStore interface {
	// ReadAll loads and parses the full corpus.
	ReadAll() ([]QARecord, error)
	// Get fetches the record at position i.
	Get(i int) (QARecord, error)
	// RawBytes returns the corpus file's raw bytes, used by the Hasher
	// for the whole-file fingerprint.
	RawBytes() ([]byte, error)
}

package domain

import "errors"

// Error kinds shared across the core, per the error handling design.
// Callers should test with errors.Is, not string comparison.
var (
	// ErrCorpusUnavailable means the corpus file is missing or
	// unparsable. Fatal at startup; surfaced at each query.
	ErrCorpusUnavailable = errors.New("corpus unavailable")

	// ErrCacheUnavailable means the cache file is absent. Not an
	// error condition by itself — it triggers a full rebuild.
	ErrCacheUnavailable = errors.New("cache unavailable")

	// ErrCacheCorrupt means the cache file is present but unreadable.
	// Treated as ErrCacheUnavailable for recovery, but callers should
	// log a warning when they see it.
	ErrCacheCorrupt = errors.New("cache corrupt")

	// ErrEmbedTransport covers network/HTTP failures talking to the
	// embedding provider.
	ErrEmbedTransport = errors.New("embedding transport error")

	// ErrEmbedRejected covers auth, quota, or malformed-response
	// failures from the embedding provider.
	ErrEmbedRejected = errors.New("embedding rejected")

	// ErrDimensionMismatch means a cached vector's length disagrees
	// with the embedder's current dimensionality. Fatal to the cache:
	// the caller must drop it and rebuild.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrQueryDegenerate means the query text embedded to a zero
	// vector. Not surfaced as an error — Search returns an empty list.
	ErrQueryDegenerate = errors.New("query embeds to the zero vector")
)

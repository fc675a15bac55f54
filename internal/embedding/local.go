// Package embedding provides domain.Embedder implementations: an
// OpenAI-compatible HTTP client (subpackage openai) for production use,
// a deterministic local embedder for tests and offline operation, and
// a rate-limiting wrapper the Reconciler uses to pace outbound calls.
package embedding

import (
	"context"
	"fmt"
	"math"

	"github.com/kxddry/ragqa/internal/domain"
)

// LocalEmbedder is a deterministic, network-free embedder. It hashes
// each rune of the input into a fixed-dimension accumulator and L2
// normalizes the result, grounded in perbu-minirag's SimpleEmbedder
// placeholder scheme. It satisfies the same Embedder contract as a
// remote provider, so tests and offline runs can exercise the full
// Reconciler / Search API pipeline without network access.
type LocalEmbedder struct {
	dim int
}

// NewLocalEmbedder returns a LocalEmbedder producing vectors of the
// given dimension.
func NewLocalEmbedder(dimension int) *LocalEmbedder {
	return &LocalEmbedder{dim: dimension}
}

func (e *LocalEmbedder) Dimension() int { return e.dim }

func (e *LocalEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbedTransport, err)
	}
	if e.dim <= 0 {
		return nil, fmt.Errorf("%w: local embedder has non-positive dimension", domain.ErrEmbedRejected)
	}

	vec := make([]float64, e.dim)
	for i, r := range text {
		idx := i % e.dim
		vec[idx] += float64(r) / 1000.0
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec, nil
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}
	return vec, nil
}

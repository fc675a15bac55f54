package embedding

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/kxddry/ragqa/internal/domain"
)

// RateLimited wraps a domain.Embedder with a token-bucket limiter, so
// the Reconciler's embed fan-out (§5: "Embedding I/O MUST happen
// outside the exclusive lock") has an explicit, testable pacing policy
// instead of an unbounded number of concurrent provider calls.
type RateLimited struct {
	inner   domain.Embedder
	limiter *rate.Limiter
}

// NewRateLimited returns an embedder that allows at most
// requestsPerSecond calls per second, with a burst of burst.
func NewRateLimited(inner domain.Embedder, requestsPerSecond float64, burst int) *RateLimited {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimited{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

func (r *RateLimited) Dimension() int { return r.inner.Dimension() }

func (r *RateLimited) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, domain.ErrEmbedTransport
	}
	return r.inner.Embed(ctx, text)
}

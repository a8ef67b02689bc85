package embeddings

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

// DefaultMaxRetries is the retry budget applied when WithRetry is given a
// non-positive value.
const DefaultMaxRetries = 3

// retryEmbedder wraps an Embedder with bounded Fibonacci-backoff retries.
// The caller's context bounds the whole attempt sequence, so a cancelled
// request never keeps retrying in the background.
type retryEmbedder struct {
	inner      Embedder
	maxRetries uint64
	baseDelay  time.Duration
}

// WithRetry decorates e so transient provider failures are retried up to
// maxRetries times before surfacing.
func WithRetry(e Embedder, maxRetries int) Embedder {
	n := uint64(DefaultMaxRetries)
	if maxRetries > 0 {
		n = uint64(maxRetries)
	}
	return &retryEmbedder{
		inner:      e,
		maxRetries: n,
		baseDelay:  500 * time.Millisecond,
	}
}

func (r *retryEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var embedding []float32

	b := retry.NewFibonacci(r.baseDelay)
	err := retry.Do(ctx, retry.WithMaxRetries(r.maxRetries, b), func(ctx context.Context) error {
		var err error
		embedding, err = r.inner.Embed(ctx, text)
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return embedding, nil
}

func (r *retryEmbedder) Close() error {
	return r.inner.Close()
}

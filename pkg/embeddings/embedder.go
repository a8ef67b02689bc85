// Package embeddings
package embeddings

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnavailable is returned when the external embedding provider fails.
// Pipeline operations abort before any state mutation when they see it.
var ErrUnavailable = errors.New("embedding provider unavailable")

// Embedder provides text embedding capabilities. Providers are assumed
// deterministic: identical text yields an identical fixed-dimension vector.
type Embedder interface {
	// Embed converts text into a vector embedding.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Close releases any resources held by the embedder.
	Close() error
}

// PrepareText combines a submission's title and description into the single
// text that gets embedded and stored as the record's original text.
func PrepareText(title, description string) string {
	return fmt.Sprintf("TITLE: %s. DESCRIPTION: %s", title, description)
}

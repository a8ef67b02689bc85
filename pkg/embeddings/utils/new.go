// Package embeddingutils is the embeddings utility package
package embeddingutils

import (
	"fmt"

	"github.com/probitylab/screener/pkg/embeddings"
	"github.com/probitylab/screener/pkg/embeddings/hashing"
	"github.com/probitylab/screener/pkg/embeddings/ollama"
	"github.com/probitylab/screener/pkg/embeddings/openai"
)

type NewEmbedderOpts struct {
	ProviderType string
	TargetURL    string
	Model        string
	APIKey       string
	Dimensions   int
	MaxRetries   int
}

func NewEmbedder(o *NewEmbedderOpts) (embeddings.Embedder, error) {
	var (
		embedder embeddings.Embedder
		err      error
	)

	switch o.ProviderType {
	case "ollama":
		embedder, err = ollama.NewEmbedder(ollama.Config{
			BaseURL: o.TargetURL,
			Model:   o.Model,
		})
	case "openai":
		embedder, err = openai.NewEmbedder(openai.Config{
			APIKey: o.APIKey,
			Model:  o.Model,
		})
	case "hashing", "":
		embedder, err = hashing.NewEmbedder(o.Dimensions)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", o.ProviderType)
	}
	if err != nil {
		return nil, err
	}

	return embeddings.WithRetry(embedder, o.MaxRetries), nil
}

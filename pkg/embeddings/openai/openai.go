// Package openai implements pkg/embeddings' Embedder on the OpenAI
// embeddings API.
package openai

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/probitylab/screener/pkg/embeddings"
)

// DefaultEmbeddingModel is the default model for embeddings.
const DefaultEmbeddingModel = openai.SmallEmbedding3

// Embedder wraps the OpenAI embeddings endpoint.
type Embedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

// Config holds configuration for the OpenAI embedder.
type Config struct {
	// APIKey authenticates against the OpenAI API. Required.
	APIKey string

	// Model is the embedding model. Defaults to DefaultEmbeddingModel.
	Model string
}

// NewEmbedder creates a new embedder backed by the OpenAI API.
func NewEmbedder(cfg Config) (*Embedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	model := openai.EmbeddingModel(cfg.Model)
	if cfg.Model == "" {
		model = DefaultEmbeddingModel
	}

	return &Embedder{
		client: openai.NewClient(cfg.APIKey),
		model:  model,
	}, nil
}

// Embed converts text into a vector embedding.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", embeddings.ErrUnavailable, err)
	}

	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: no embeddings returned", embeddings.ErrUnavailable)
	}

	return resp.Data[0].Embedding, nil
}

// Close releases resources held by the embedder.
func (e *Embedder) Close() error {
	return nil
}

package testutils

import (
	"context"
	"fmt"

	"github.com/probitylab/screener/pkg/embeddings"
)

// MockEmbedder is a test embedder that returns predictable embeddings
type MockEmbedder struct {
	Embeddings map[string][]float32

	// Default is returned for any text without a configured embedding.
	Default []float32

	// FailOn causes Embed to return ErrUnavailable when the input text matches
	FailOn string

	// Calls accumulates every text passed to Embed.
	Calls []string
}

func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{
		Embeddings: make(map[string][]float32),
		Default:    []float32{0.1, 0.2, 0.3},
	}
}

func (m *MockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.Calls = append(m.Calls, text)

	if m.FailOn != "" && text == m.FailOn {
		return nil, fmt.Errorf("mock embedding failure for %q: %w", text, embeddings.ErrUnavailable)
	}

	if emb, ok := m.Embeddings[text]; ok {
		return emb, nil
	}

	return m.Default, nil
}

func (m *MockEmbedder) Close() error {
	return nil
}

package testutils

import (
	"context"
	"fmt"

	"github.com/probitylab/screener/pkg/vector"
)

// MockIndex is a test vector index with scriptable search results
type MockIndex struct {
	// Hits is returned (trimmed to k) by every Search call.
	Hits []vector.Hit

	// Records accumulates everything passed to Add.
	Records []vector.ProjectRecord

	// FailAdd causes Add to return an error.
	FailAdd bool

	// FailSearch causes Search to return an error.
	FailSearch bool

	dimensions int
}

func NewMockIndex(dimensions int) *MockIndex {
	return &MockIndex{dimensions: dimensions}
}

func (m *MockIndex) Add(_ context.Context, vectors [][]float32, records []vector.ProjectRecord) error {
	if m.FailAdd {
		return fmt.Errorf("mock index add failure")
	}
	if len(vectors) != len(records) {
		return vector.ErrLengthMismatch
	}
	m.Records = append(m.Records, records...)
	return nil
}

func (m *MockIndex) Search(_ context.Context, _ []float32, k int) ([]vector.Hit, error) {
	if m.FailSearch {
		return nil, fmt.Errorf("mock index search failure")
	}
	if k > len(m.Hits) {
		k = len(m.Hits)
	}
	return m.Hits[:k], nil
}

func (m *MockIndex) Size() int {
	return len(m.Records)
}

func (m *MockIndex) Dimensions() int {
	return m.dimensions
}

func (m *MockIndex) Close() error {
	return nil
}

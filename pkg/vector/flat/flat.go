// Package flat provides an in-memory vector index using an exact
// linear-scan cosine similarity search. Corpus growth is bounded by human
// review throughput, so the O(n*D) scan per query is acceptable; an
// approximate structure could replace it behind the same interface.
package flat

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/probitylab/screener/pkg/vector"
)

// DefaultK is the number of neighbors returned when the caller does not
// specify a positive k.
const DefaultK = 5

// Index implements vector.Index with parallel in-memory slices.
//
// The vectors and records slices grow in lock-step under the write lock;
// readers take the read lock so a search can never observe a half-applied
// append.
type Index struct {
	mu         sync.RWMutex
	dimensions int
	vectors    [][]float32
	records    []vector.ProjectRecord
	logger     *zap.Logger
}

// NewIndex creates an empty index with a fixed vector dimension.
func NewIndex(dimensions int, logger *zap.Logger) (*Index, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("index dimensions must be positive, got %d", dimensions)
	}

	return &Index{
		dimensions: dimensions,
		logger:     logger,
	}, nil
}

// Add normalizes and appends vectors with their records in lock-step.
// On error nothing is appended.
func (x *Index) Add(_ context.Context, vectors [][]float32, records []vector.ProjectRecord) error {
	if len(vectors) != len(records) {
		return fmt.Errorf("%w: %d vectors, %d records",
			vector.ErrLengthMismatch, len(vectors), len(records))
	}

	normalized := make([][]float32, len(vectors))
	for i, v := range vectors {
		if len(v) != x.dimensions {
			return fmt.Errorf("%w: vector %d has %d components, index dimension is %d",
				vector.ErrDimensionMismatch, i, len(v), x.dimensions)
		}
		normalized[i] = vector.Normalize(v)
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	x.vectors = append(x.vectors, normalized...)
	x.records = append(x.records, records...)

	x.logger.Debug("added entries to flat index",
		zap.Int("count", len(vectors)),
		zap.Int("size", len(x.records)),
	)

	return nil
}

// Search scans every stored vector and returns the top k hits sorted by
// descending similarity, ties broken by ascending insertion index.
func (x *Index) Search(_ context.Context, query []float32, k int) ([]vector.Hit, error) {
	if len(query) != x.dimensions {
		return nil, fmt.Errorf("%w: query has %d components, index dimension is %d",
			vector.ErrDimensionMismatch, len(query), x.dimensions)
	}
	if k <= 0 {
		k = DefaultK
	}

	q := vector.Normalize(query)

	x.mu.RLock()
	defer x.mu.RUnlock()

	type scored struct {
		idx   int
		score float64
	}

	scores := make([]scored, len(x.vectors))
	for i, v := range x.vectors {
		scores[i] = scored{idx: i, score: vector.Dot(q, v)}
	}

	sort.Slice(scores, func(a, b int) bool {
		if scores[a].score != scores[b].score {
			return scores[a].score > scores[b].score
		}
		return scores[a].idx < scores[b].idx
	})

	if k > len(scores) {
		k = len(scores)
	}

	hits := make([]vector.Hit, 0, k)
	for rank := 0; rank < k; rank++ {
		s := scores[rank]
		hits = append(hits, vector.Hit{
			Rank:   rank + 1,
			Score:  s.score,
			Record: x.records[s.idx],
		})
	}

	return hits, nil
}

// Size returns the number of stored entries.
func (x *Index) Size() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.records)
}

// Dimensions returns the fixed vector dimension of the index.
func (x *Index) Dimensions() int {
	return x.dimensions
}

// Close releases resources held by the index. The flat index holds none.
func (x *Index) Close() error {
	return nil
}

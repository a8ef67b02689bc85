// Package vector provides the corpus index: unit-normalized embedding vectors
// stored alongside project metadata, queried by cosine similarity.
package vector

import "context"

// Decision values recorded on a corpus entry.
const (
	DecisionAccept  = "accept"
	DecisionReject  = "reject"
	DecisionPending = "pending"
)

// ProjectRecord is the metadata row stored in lock-step with its embedding
// vector. Records are append-only: created at bootstrap or when a submission
// is accepted, never mutated or deleted.
type ProjectRecord struct {
	// ID is a unique, monotonically assigned project identifier.
	ID int `json:"id"`

	// Title of the project.
	Title string `json:"title"`

	// Year the project was submitted.
	Year int `json:"year"`

	// Decision is the prior review outcome (accept, reject, pending).
	Decision string `json:"decision"`

	// OriginalText is the prepared title+description text the embedding
	// was computed from.
	OriginalText string `json:"original_text"`
}

// Hit is a single nearest-neighbor result. It is a snapshot copy of the
// stored record, safe to hold across later index mutations.
type Hit struct {
	// Rank is the 1-based position in the result ordering.
	Rank int `json:"rank"`

	// Score is the cosine similarity between query and stored vector,
	// in [-1, 1].
	Score float64 `json:"similarity_score"`

	// Record is the matched project's metadata.
	Record ProjectRecord `json:"metadata"`
}

// Index stores normalized vectors with aligned metadata and answers
// k-nearest-neighbor queries.
//
// Implementations must keep row i of the vector store aligned with record i,
// append strictly at the end, and order search results by descending
// similarity with ties broken by ascending insertion index so identical
// inputs always produce identical output.
type Index interface {
	// Add normalizes and appends vectors with their records in lock-step.
	// Fails with ErrDimensionMismatch if any vector's length differs from
	// the index dimension, or ErrLengthMismatch if len(vectors) != len(records).
	Add(ctx context.Context, vectors [][]float32, records []ProjectRecord) error

	// Search returns the top k stored entries most similar to query,
	// at most min(k, Size()) hits. An empty index yields an empty result,
	// not an error.
	Search(ctx context.Context, query []float32, k int) ([]Hit, error)

	// Size returns the number of stored entries.
	Size() int

	// Dimensions returns the fixed vector dimension of the index.
	Dimensions() int

	// Close releases any resources held by the index.
	Close() error
}

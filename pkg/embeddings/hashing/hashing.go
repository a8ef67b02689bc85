// Package hashing implements a deterministic, fully local Embedder using
// token feature hashing. It needs no external service, which makes it the
// development and test stand-in for a real embedding model: texts sharing
// vocabulary land near each other, identical text embeds identically.
package hashing

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"
)

// DefaultDimensions is the vector dimension used when none is configured.
const DefaultDimensions = 384

// Embedder hashes word tokens into a fixed-dimension signed bag-of-words
// vector.
type Embedder struct {
	dimensions int
}

// NewEmbedder creates a hashing embedder with the given dimension.
func NewEmbedder(dimensions int) (*Embedder, error) {
	if dimensions < 0 {
		return nil, fmt.Errorf("embedder dimensions must be positive, got %d", dimensions)
	}
	if dimensions == 0 {
		dimensions = DefaultDimensions
	}
	return &Embedder{dimensions: dimensions}, nil
}

// Dimensions returns the fixed output dimension.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

// Embed converts text into a vector embedding. The same text always maps
// to the same vector.
func (e *Embedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dimensions)

	for _, token := range tokenize(text) {
		h := fnv.New64a()
		h.Write([]byte(token))
		sum := h.Sum64()

		bucket := int(sum % uint64(e.dimensions))
		// One hash bit decides the sign so collisions tend to cancel
		// instead of piling up.
		if sum&(1<<63) != 0 {
			vec[bucket] -= 1
		} else {
			vec[bucket] += 1
		}
	}

	return vec, nil
}

// Close releases resources held by the embedder.
func (e *Embedder) Close() error {
	return nil
}

// tokenize lowercases and splits on any non-alphanumeric rune.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

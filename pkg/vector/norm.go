package vector

import "math"

// Normalize returns a unit-L2 copy of v. Both sides of every similarity
// computation are normalized first, so the inner product equals cosine
// similarity. The zero vector has no direction and is returned as an
// all-zero copy: a degenerate point with similarity 0 to everything.
func Normalize(v []float32) []float32 {
	out := make([]float32, len(v))

	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return out
	}

	norm := math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// Dot returns the inner product of a and b, accumulated in float64 so
// scores are stable regardless of summation length.
func Dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

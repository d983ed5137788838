package services

import "math"

// Normalize scales v to unit length in place and returns it.
// Zero vectors are returned unchanged. Normalizing an already-normalized
// vector is a no-op within floating-point tolerance, so callers may apply
// it unconditionally.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	inv := 1.0 / math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
	return v
}

// Dot returns the inner product of a and b. For L2-normalized vectors
// this equals cosine similarity. Mismatched lengths compare the common
// prefix only.
func Dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

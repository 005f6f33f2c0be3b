package retrieval

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCosineIdentical(t *testing.T) {
	v := []float32{0.3, 0.4, 0.5}
	require.InDelta(t, 1.0, Cosine(v, v), 1e-9)
}

func TestCosineOrthogonal(t *testing.T) {
	require.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
}

func TestCosineOpposite(t *testing.T) {
	require.InDelta(t, -1.0, Cosine([]float32{1, 2}, []float32{-1, -2}), 1e-9)
}

func TestCosineZeroNorm(t *testing.T) {
	require.Equal(t, 0.0, Cosine([]float32{0, 0}, []float32{1, 2}))
	require.Equal(t, 0.0, Cosine([]float32{1, 2}, []float32{0, 0}))
}

func TestCosineMismatchedLengths(t *testing.T) {
	require.Equal(t, 0.0, Cosine([]float32{1, 2, 3}, []float32{1, 2}))
	require.Equal(t, 0.0, Cosine(nil, []float32{1}))
	require.Equal(t, 0.0, Cosine(nil, nil))
}

func TestCosineScaleInvariant(t *testing.T) {
	a := []float32{0.2, 0.5, 0.9}
	b := []float32{0.4, 1.0, 1.8}
	require.InDelta(t, 1.0, Cosine(a, b), 1e-6)
}

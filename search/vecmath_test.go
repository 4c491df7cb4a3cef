package search

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeVector(t *testing.T) {
	v := NormalizeVector([]float32{3, 4})
	assert.InDelta(t, 0.6, v[0], 0.001)
	assert.InDelta(t, 0.8, v[1], 0.001)

	var magnitude float32
	for _, val := range v {
		magnitude += val * val
	}
	assert.InDelta(t, 1.0, math.Sqrt(float64(magnitude)), 0.001)
}

func TestNormalizeVector_Zero(t *testing.T) {
	v := NormalizeVector([]float32{0, 0, 0})
	assert.Equal(t, []float32{0, 0, 0}, v)
}

func TestNormalizeVector_Empty(t *testing.T) {
	assert.Empty(t, NormalizeVector(nil))
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 0}, []float32{2, 0}), 0.001)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 0.001)
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 0.001)
}

func TestCosineSimilarity_Mismatched(t *testing.T) {
	assert.Zero(t, CosineSimilarity([]float32{1, 0}, []float32{1, 0, 0}))
	assert.Zero(t, CosineSimilarity(nil, nil))
	assert.Zero(t, CosineSimilarity([]float32{0, 0}, []float32{1, 1}))
}

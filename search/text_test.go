package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenizeAndFilter(t *testing.T) {
	tokens := tokenizeAndFilter("The defendant, charged with theft, was acquitted!")
	assert.Equal(t, []string{"defendant", "charged", "theft", "acquitted"}, tokens)
}

func TestTokenizeAndFilter_Empty(t *testing.T) {
	assert.Empty(t, tokenizeAndFilter(""))
	assert.Empty(t, tokenizeAndFilter("the a an of"))
}

func TestOverlapSimilarity(t *testing.T) {
	a := tokenSet([]string{"stolen", "vehicle", "knowledge"})
	b := tokenSet([]string{"stolen", "vehicle", "possession"})

	// Intersection 2, union 4.
	assert.InDelta(t, 0.5, overlapSimilarity(a, b), 0.001)
}

func TestOverlapSimilarity_Identical(t *testing.T) {
	a := tokenSet([]string{"probable", "cause"})
	assert.InDelta(t, 1.0, overlapSimilarity(a, a), 0.001)
}

func TestOverlapSimilarity_Disjoint(t *testing.T) {
	a := tokenSet([]string{"maritime", "salvage"})
	b := tokenSet([]string{"bankruptcy", "petition"})
	assert.Zero(t, overlapSimilarity(a, b))
}

func TestOverlapSimilarity_Empty(t *testing.T) {
	a := tokenSet(nil)
	b := tokenSet([]string{"evidence"})
	assert.Zero(t, overlapSimilarity(a, b))
	assert.Zero(t, overlapSimilarity(b, a))
}

package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/veridict/caselaw/ai"
	"github.com/veridict/caselaw/core"
)

// MockBatchScorer is a test double for ai.BatchScorer.
// It allows custom behavior injection via function fields and records the
// batches it was asked to score.
type MockBatchScorer struct {
	// ScoreBatchFunc is called by ScoreBatch if set.
	// If nil, uses a deterministic token-overlap score.
	ScoreBatchFunc func(ctx context.Context, premise string, factors []core.QueryFactor, batch []core.FactorSet) ([]ai.BatchScore, error)

	mu        sync.Mutex
	callCount int
	batches   [][]core.CaseID
}

// NewMockBatchScorer creates a mock scorer with default deterministic behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockBatchScorer() *MockBatchScorer {
	return &MockBatchScorer{}
}

// ScoreBatch scores each case by the best token overlap between any query
// factor and any case factor. Deterministic given identical inputs.
func (m *MockBatchScorer) ScoreBatch(ctx context.Context, premise string, factors []core.QueryFactor, batch []core.FactorSet) ([]ai.BatchScore, error) {
	m.record(batch)

	if m.ScoreBatchFunc != nil {
		return m.ScoreBatchFunc(ctx, premise, factors, batch)
	}

	scores := make([]ai.BatchScore, len(batch))
	for i, set := range batch {
		var best float32
		for _, qf := range factors {
			for _, f := range set.Factors {
				if s := tokenOverlap(qf.Text, f.Text); s > best {
					best = s
				}
			}
		}
		scores[i] = ai.BatchScore{CaseID: set.CaseID, Score: best}
	}
	return scores, nil
}

// CallCount returns the number of times ScoreBatch was called.
func (m *MockBatchScorer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Batches returns the case IDs of every batch scored so far, in call order.
func (m *MockBatchScorer) Batches() [][]core.CaseID {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]core.CaseID, len(m.batches))
	copy(out, m.batches)
	return out
}

// Reset clears the call count, recorded batches, and custom functions.
func (m *MockBatchScorer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.batches = nil
	m.ScoreBatchFunc = nil
}

func (m *MockBatchScorer) record(batch []core.FactorSet) {
	ids := make([]core.CaseID, len(batch))
	for i, set := range batch {
		ids[i] = set.CaseID
	}
	m.mu.Lock()
	m.callCount++
	m.batches = append(m.batches, ids)
	m.mu.Unlock()
}

// tokenOverlap is a case-insensitive Jaccard similarity over word sets.
func tokenOverlap(a, b string) float32 {
	aWords := strings.Fields(strings.ToLower(a))
	bWords := strings.Fields(strings.ToLower(b))
	if len(aWords) == 0 || len(bWords) == 0 {
		return 0
	}

	aSet := make(map[string]bool, len(aWords))
	for _, w := range aWords {
		aSet[w] = true
	}
	bSet := make(map[string]bool, len(bWords))
	for _, w := range bWords {
		bSet[w] = true
	}

	overlap := 0
	for w := range aSet {
		if bSet[w] {
			overlap++
		}
	}
	union := len(aSet) + len(bSet) - overlap
	if union == 0 {
		return 0
	}
	return float32(overlap) / float32(union)
}

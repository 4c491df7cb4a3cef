package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/veridict/caselaw/core"
)

// MockQueryAnalyzer is a test double for ai.QueryAnalyzer.
// It allows custom behavior injection via function fields.
type MockQueryAnalyzer struct {
	// DecomposeFunc is called by Decompose if set.
	// If nil, uses a simple deterministic decomposition.
	DecomposeFunc func(ctx context.Context, query string) (*core.DecomposedQuery, error)

	mu        sync.Mutex
	callCount int
}

// NewMockQueryAnalyzer creates a mock analyzer with default behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockQueryAnalyzer() *MockQueryAnalyzer {
	return &MockQueryAnalyzer{}
}

// Decompose produces a deterministic three-factor decomposition.
// Default behavior: splits the query into three roughly equal word spans with
// equal weights and a neutral polarity.
func (m *MockQueryAnalyzer) Decompose(ctx context.Context, query string) (*core.DecomposedQuery, error) {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.DecomposeFunc != nil {
		return m.DecomposeFunc(ctx, query)
	}

	words := strings.Fields(query)
	factors := make([]core.QueryFactor, 0, 3)
	if len(words) >= 3 {
		third := len(words) / 3
		spans := []string{
			strings.Join(words[:third], " "),
			strings.Join(words[third:2*third], " "),
			strings.Join(words[2*third:], " "),
		}
		for _, span := range spans {
			factors = append(factors, core.QueryFactor{Text: span, Weight: 1.0 / 3.0})
		}
	} else {
		for i := 0; i < 3; i++ {
			factors = append(factors, core.QueryFactor{Text: query, Weight: 1.0 / 3.0})
		}
	}

	return &core.DecomposedQuery{
		Premise:  query,
		Factors:  factors,
		Polarity: core.PolarityNone,
	}, nil
}

// CallCount returns the number of times Decompose was called.
func (m *MockQueryAnalyzer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockQueryAnalyzer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.DecomposeFunc = nil
}

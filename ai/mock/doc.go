// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.QueryAnalyzer,
// ai.BatchScorer, and ai.AIProvider for use in unit tests. The mocks allow
// tests to run without external AI services and enable controlled,
// deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	vectors, err := mockProvider.Embedder().EmbedTexts(ctx, texts)
//
//	// Custom behavior injection
//	scorer := mock.NewMockBatchScorer()
//	scorer.ScoreBatchFunc = func(ctx context.Context, premise string, factors []core.QueryFactor, batch []core.FactorSet) ([]ai.BatchScore, error) {
//	    return nil, errors.New("scorer down")
//	}
//
//	// Check call counts
//	count := scorer.CallCount()
//
// # Default Behavior
//
//   - MockEmbedder: Returns deterministic vectors based on text hash
//   - MockQueryAnalyzer: Splits the query into three equally weighted spans
//   - MockBatchScorer: Scores by token overlap, records every batch
//   - MockProvider: Aggregates the three mock services
package mock

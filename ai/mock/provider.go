// Copyright 2026 Veridict Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package mock

import "github.com/veridict/caselaw/ai"

// MockProvider is a test double for ai.AIProvider.
// It aggregates mock embedder, analyzer, and scorer instances.
type MockProvider struct {
	embedder *MockEmbedder
	analyzer *MockQueryAnalyzer
	scorer   *MockBatchScorer
}

// NewMockProvider creates a new mock provider with default mock services.
//
// Returns ai.AIProvider interface for consistency with production constructors.
// Use GetMockEmbedder()/GetMockAnalyzer()/GetMockScorer() to access concrete
// types for test assertions.
func NewMockProvider() ai.AIProvider {
	return &MockProvider{
		embedder: NewMockEmbedder(),
		analyzer: NewMockQueryAnalyzer(),
		scorer:   NewMockBatchScorer(),
	}
}

// NewMockProviderWithServices creates a mock provider with custom mock services.
// This allows full control over the behavior of each service.
func NewMockProviderWithServices(embedder *MockEmbedder, analyzer *MockQueryAnalyzer, scorer *MockBatchScorer) ai.AIProvider {
	return &MockProvider{
		embedder: embedder,
		analyzer: analyzer,
		scorer:   scorer,
	}
}

// Embedder returns the mock embedder.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// QueryAnalyzer returns the mock query analyzer.
func (p *MockProvider) QueryAnalyzer() ai.QueryAnalyzer {
	return p.analyzer
}

// BatchScorer returns the mock batch scorer.
func (p *MockProvider) BatchScorer() ai.BatchScorer {
	return p.scorer
}

// Close is a no-op for mock provider.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockEmbedder returns the underlying mock embedder for test assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockAnalyzer returns the underlying mock analyzer for test assertions.
func (p *MockProvider) GetMockAnalyzer() *MockQueryAnalyzer {
	return p.analyzer
}

// GetMockScorer returns the underlying mock scorer for test assertions.
func (p *MockProvider) GetMockScorer() *MockBatchScorer {
	return p.scorer
}

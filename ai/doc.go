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


// Package ai provides abstractions for the AI services used by the retrieval
// pipeline.
//
// This package defines interfaces for text embeddings, precise query
// decomposition, and batched semantic scoring. It follows the dependency
// inversion principle: the search pipeline depends on these abstractions,
// never on a concrete vendor.
//
// # Design Principles
//
// The package is designed around four key interfaces:
//
//   - Embedder: Generates vector embeddings from text
//   - QueryAnalyzer: Decomposes a query into weighted legal factors
//   - BatchScorer: Scores batches of case factor sets against a query
//   - AIProvider: Aggregates AI services for convenient initialization
//
// # Implementation Packages
//
// The ai package includes two implementation sub-packages:
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// Public constructors in ai/openai return interface types to enforce
// abstraction. Mock constructors return concrete types so tests can inject
// behavior and assert on call counts.
//
// # Usage Example
//
//	config := ai.DefaultConfig()
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vectors, err := provider.Embedder().EmbedTexts(ctx, factorTexts)
//	scores, err := provider.BatchScorer().ScoreBatch(ctx, premise, queryFactors, batch)
package ai

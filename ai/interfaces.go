package ai

import (
	"context"

	"github.com/veridict/caselaw/core"
)

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// QueryAnalyzer decomposes a raw search query into weighted legal factors.
// This is the precise decomposition path; callers are expected to fall back
// to a heuristic when it fails.
// Implementations must be thread-safe for concurrent use.
type QueryAnalyzer interface {
	// Decompose analyzes a query and returns its premise, weighted factors,
	// and the directional polarity the user is asking for.
	// Returns an error if analysis fails or produces no factors.
	Decompose(ctx context.Context, query string) (*core.DecomposedQuery, error)
}

// BatchScore is the scorer's verdict for one case in a batch.
type BatchScore struct {
	// CaseID identifies the scored case.
	CaseID core.CaseID

	// Score is the semantic match score in [0,1].
	Score float32

	// Direction is the scorer's read of the case outcome, when it can tell.
	// Empty when the scorer did not classify the case.
	Direction core.Direction

	// Err reports a per-case failure without failing the whole batch.
	Err error
}

// BatchScorer is the expensive precise scoring capability. One call scores a
// whole batch of cases against the query premise and factors.
// Implementations must be thread-safe for concurrent use.
type BatchScorer interface {
	// ScoreBatch scores every factor set in the batch against the query.
	// The result slice carries one entry per input factor set, in input order.
	// Per-case failures are reported through BatchScore.Err; a non-nil error
	// return means the whole batch failed.
	ScoreBatch(ctx context.Context, premise string, factors []core.QueryFactor, batch []core.FactorSet) ([]BatchScore, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle
// management. A provider creates and manages Embedder, QueryAnalyzer, and
// BatchScorer instances, ensuring they share configuration and resources.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// QueryAnalyzer returns the precise query decomposition service.
	// The returned QueryAnalyzer is safe for concurrent use.
	QueryAnalyzer() QueryAnalyzer

	// BatchScorer returns the precise batch scoring service.
	// The returned BatchScorer is safe for concurrent use.
	BatchScorer() BatchScorer

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}

package embed

import (
	"context"
	"fmt"
	"time"

	"github.com/veridict/caselaw/ai"
	"github.com/veridict/caselaw/core"
	"github.com/veridict/caselaw/retry"
	"github.com/veridict/caselaw/storage"
)

// BatchProcessor generates and stores factor vectors for pages of cases.
type BatchProcessor struct {
	repo           storage.CaseRepository
	embedder       ai.Embedder
	force          bool
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// force: regenerate vectors even for cases that already have them
// maxRetries: maximum number of retry attempts for embedding API calls
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(repo storage.CaseRepository, embedder ai.Embedder, force bool, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		repo:           repo,
		embedder:       embedder,
		force:          force,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process embeds the factor texts of a page of cases in one provider call
// and stores the normalized vectors. Cases that already have the right
// number of vectors are skipped unless force is set.
// Returns the number of cases whose vectors were written.
func (bp *BatchProcessor) Process(ctx context.Context, ids []core.CaseID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	type pendingCase struct {
		id      core.CaseID
		factors []core.Factor
		start   int // index of this case's first text in the batch
	}

	var texts []string
	var pending []pendingCase

	for _, id := range ids {
		factors, err := bp.repo.GetFactors(ctx, id)
		if err != nil {
			return 0, fmt.Errorf("failed to load factors for %s: %w", id, err)
		}
		if len(factors) == 0 {
			continue
		}

		if !bp.force {
			vectors, err := bp.repo.GetFactorVectors(ctx, id)
			if err != nil {
				return 0, fmt.Errorf("failed to load vectors for %s: %w", id, err)
			}
			if len(vectors) == len(factors) {
				continue
			}
		}

		pending = append(pending, pendingCase{id: id, factors: factors, start: len(texts)})
		for _, f := range factors {
			texts = append(texts, f.Text)
		}
	}

	if len(pending) == 0 {
		return 0, nil
	}

	// Generate embeddings with retry
	var embeddings [][]float32
	err := retry.WithBackoff(ctx, func() error {
		var embedErr error
		embeddings, embedErr = bp.embedder.EmbedTexts(ctx, texts)
		return embedErr
	}, bp.maxRetries, bp.retryBaseDelay)
	if err != nil {
		return 0, fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	if len(embeddings) != len(texts) {
		return 0, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(texts), len(embeddings))
	}

	for _, pc := range pending {
		vectors := make([][]float32, len(pc.factors))
		for i := range pc.factors {
			vectors[i] = normalizeVector(embeddings[pc.start+i])
		}
		if err := bp.repo.PutFactorVectors(ctx, pc.id, vectors); err != nil {
			return 0, fmt.Errorf("failed to store vectors for %s: %w", pc.id, err)
		}
	}

	return len(pending), nil
}

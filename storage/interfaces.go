package storage

import (
	"context"

	"github.com/veridict/caselaw/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// CaseRepository provides read and write access to cases, their extracted
// factors and holdings, and the factor vectors used by the vector prefilter.
// The retrieval pipeline only reads; writes come from the ingest and embed
// jobs.
type CaseRepository interface {
	Repository

	// AddCases adds one or more cases to storage.
	// Sets InsertedAt timestamp if not already set.
	AddCases(ctx context.Context, cases ...*core.Case) error

	// GetCase retrieves a single case by ID.
	// Returns ErrNotFound if the case doesn't exist.
	GetCase(ctx context.Context, id core.CaseID) (*core.Case, error)

	// GetCases retrieves multiple cases by their IDs.
	// Returns only the cases that exist (no error for missing cases).
	GetCases(ctx context.Context, ids ...core.CaseID) ([]*core.Case, error)

	// PutAnalysis stores the factors and holding extracted for a case and
	// flips its status to analyzed. Replaces any previous analysis.
	// The holding may be nil when extraction could not classify one.
	PutAnalysis(ctx context.Context, id core.CaseID, factors []core.Factor, holding *core.Holding) error

	// MarkAnalysisError flips a case's status to error.
	MarkAnalysisError(ctx context.Context, id core.CaseID) error

	// GetFactors retrieves the factors of one case.
	// Returns an empty slice for unanalyzed cases.
	GetFactors(ctx context.Context, id core.CaseID) ([]core.Factor, error)

	// GetHolding retrieves the holding of one case.
	// Returns ErrNotFound if the case has no holding.
	GetHolding(ctx context.Context, id core.CaseID) (*core.Holding, error)

	// CountAnalyzed returns the number of cases with extracted factors.
	CountAnalyzed(ctx context.Context) (int, error)

	// ForEachFactorSet streams the factor sets of all analyzed cases in
	// chunks of at most chunkSize, ordered by case ID ascending, so a full
	// corpus scan never materializes every factor in memory at once.
	// Iteration stops on the first error from fn or when the corpus is
	// exhausted. Context cancellation is checked between chunks.
	ForEachFactorSet(ctx context.Context, chunkSize int, fn func(sets []core.FactorSet) error) error

	// GetFactorVectors retrieves the stored embedding vectors for a case's
	// factors, in factor order. Returns nil when no vectors are stored.
	GetFactorVectors(ctx context.Context, id core.CaseID) ([][]float32, error)

	// PutFactorVectors stores the embedding vectors for a case's factors,
	// replacing any previous vectors.
	PutFactorVectors(ctx context.Context, id core.CaseID, vectors [][]float32) error

	// AnalyzedCaseIDs returns the IDs of analyzed cases, ordered ascending,
	// starting after the given ID (empty string starts from the beginning),
	// up to limit entries. Used for paged backfill scans.
	AnalyzedCaseIDs(ctx context.Context, after core.CaseID, limit int) ([]core.CaseID, error)
}

// CitationRepository provides access to the citation graph.
type CitationRepository interface {
	Repository

	// AddCitations adds directed citation edges.
	// Edges with an empty cited case ID are stored as dangling references.
	AddCitations(ctx context.Context, citations ...*core.Citation) error

	// GetCitations retrieves the outgoing citations of one case.
	GetCitations(ctx context.Context, citingID core.CaseID) ([]core.Citation, error)

	// GetCitingCases retrieves the citations pointing at the given case,
	// i.e. the rows where it appears as the cited case. Dangling edges never
	// appear here because they have no resolvable cited case.
	GetCitingCases(ctx context.Context, citedID core.CaseID) ([]core.Citation, error)
}

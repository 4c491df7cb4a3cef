package search

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/veridict/caselaw/ai"
	"github.com/veridict/caselaw/core"
	"github.com/veridict/caselaw/query"
	"github.com/veridict/caselaw/storage"
)

// Searcher runs the staged retrieval funnel over an analyzed case corpus.
type Searcher struct {
	caseRepository     storage.CaseRepository
	citationRepository storage.CitationRepository
	decomposer         *query.Decomposer
	embedder           ai.Embedder
	scorer             ai.BatchScorer
	pool               *ants.Pool
	config             Config
	logger             *slog.Logger

	vecCacheMu sync.Mutex
	vecCache   map[uint64][]float32
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithConfig replaces the default stage budgets and concurrency limits.
func WithConfig(config Config) Option {
	return func(s *Searcher) error {
		if err := config.Validate(); err != nil {
			return err
		}
		s.config = config
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(
	caseRepository storage.CaseRepository,
	citationRepository storage.CitationRepository,
	provider ai.AIProvider,
	opts ...Option,
) (*Searcher, error) {
	if caseRepository == nil {
		return nil, ErrCaseRepositoryRequired
	}
	if citationRepository == nil {
		return nil, ErrCitationRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	decomposer, err := query.NewDecomposer(provider.QueryAnalyzer())
	if err != nil {
		return nil, err
	}

	s := &Searcher{
		caseRepository:     caseRepository,
		citationRepository: citationRepository,
		decomposer:         decomposer,
		embedder:           provider.Embedder(),
		scorer:             provider.BatchScorer(),
		config:             DefaultConfig(),
		logger:             slog.Default(),
		vecCache:           make(map[uint64][]float32),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	if s.config.MaxWorkers > runtime.NumCPU()*8 {
		s.logger.Warn("MaxWorkers far exceeds available CPUs", "maxWorkers", s.config.MaxWorkers)
	}

	pool, err := ants.NewPool(s.config.MaxWorkers)
	if err != nil {
		return nil, err
	}
	s.pool = pool

	return s, nil
}

// Release frees the worker pool. The searcher must not be used afterwards.
func (s *Searcher) Release() {
	if s.pool != nil {
		s.pool.Release()
	}
}

// DefaultLimit is the result cap applied when a Request leaves Limit unset.
const DefaultLimit = 20

// Request is a fully specified search invocation.
type Request struct {
	Query string

	// Polarity, when set to anything other than core.PolarityNone, overrides
	// the direction filter derived from the query itself.
	Polarity core.Polarity

	// Limit caps the number of results. Zero means DefaultLimit.
	Limit int
}

// Search runs the full retrieval funnel and returns up to limit ranked
// cases for the query.
func (s *Searcher) Search(ctx context.Context, rawQuery string, limit int) (*core.SearchResponse, error) {
	return s.SearchWithMonitor(ctx, rawQuery, limit, nil)
}

// SearchRequest runs the funnel for a Request, applying its polarity
// override and default limit.
func (s *Searcher) SearchRequest(ctx context.Context, req Request) (*core.SearchResponse, error) {
	if req.Limit <= 0 {
		req.Limit = DefaultLimit
	}
	return s.run(ctx, req, nil)
}

// SearchWithMonitor runs the funnel with per-stage observation callbacks.
func (s *Searcher) SearchWithMonitor(ctx context.Context, rawQuery string, limit int, monitor SearchMonitor) (*core.SearchResponse, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	return s.run(ctx, Request{Query: rawQuery, Limit: limit}, monitor)
}

// run executes the staged funnel.
//
// Cancellation never loses work already done: when the context expires
// mid-ranking, the best partial ranking accumulated so far is returned
// with the partial flag set. An empty corpus yields an empty response,
// not an error.
func (s *Searcher) run(ctx context.Context, req Request, monitor SearchMonitor) (*core.SearchResponse, error) {
	rawQuery, limit := req.Query, req.Limit
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	if s.config.RequestDeadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.RequestDeadline)
		defer cancel()
	}

	monitor.Start(rawQuery)

	// Global precondition: an empty corpus can never produce results.
	analyzed, err := s.caseRepository.CountAnalyzed(ctx)
	if err != nil {
		return nil, err
	}
	if analyzed == 0 {
		s.logger.Info("search over empty corpus", "query", rawQuery)
		response := &core.SearchResponse{Results: []*core.SearchResult{}}
		monitor.Finish(response)
		return response, nil
	}

	decomposed, err := s.decomposer.Decompose(ctx, rawQuery)
	if err != nil {
		return nil, err
	}
	if req.Polarity != "" && req.Polarity != core.PolarityNone {
		decomposed.Polarity = req.Polarity
	}
	monitor.AfterDecomposition(decomposed)
	tokens := newQueryTokens(decomposed.Factors)

	candidates, err := s.lexicalFilter(ctx, tokens)
	if err != nil {
		if ctx.Err() != nil {
			return s.partialResponse(ctx, nil, nil, monitor), nil
		}
		return nil, err
	}
	monitor.AfterLexicalFilter(candidates)

	if len(candidates) == 0 {
		response := &core.SearchResponse{Results: []*core.SearchResult{}}
		monitor.Finish(response)
		return response, nil
	}

	candidates, degraded, err := s.vectorFilter(ctx, tokens, candidates)
	if err != nil {
		if ctx.Err() != nil {
			return s.partialResponse(ctx, candidates, nil, monitor), nil
		}
		return nil, err
	}
	if degraded {
		monitor.VectorFilterDegraded()
	}
	monitor.AfterVectorFilter(candidates)

	outcome, err := s.preciseRank(ctx, decomposed.Premise, decomposed.Factors, decomposed.Polarity, candidates, limit, monitor)
	if err != nil {
		if ctx.Err() != nil {
			return s.partialResponse(ctx, candidates, nil, monitor), nil
		}
		return nil, err
	}
	monitor.AfterPreciseRanking(outcome.candidates)

	ranked := outcome.candidates
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	results := s.buildResults(ctx, ranked, outcome.directions)
	s.enrichCitations(ctx, results)

	response := &core.SearchResponse{
		Results: results,
		Count:   len(results),
		Partial: degraded || outcome.partial || ctx.Err() != nil,
	}
	monitor.Finish(response)
	return response, nil
}

// buildResults resolves the final candidates into full search results.
func (s *Searcher) buildResults(ctx context.Context, ranked []core.CandidateScore, directions map[core.CaseID]core.Direction) []*core.SearchResult {
	results := make([]*core.SearchResult, 0, len(ranked))
	for _, cand := range ranked {
		result := &core.SearchResult{
			CaseID:           cand.CaseID,
			Score:            cand.Score,
			Stage:            cand.Stage,
			HoldingDirection: directions[cand.CaseID],
		}
		c, err := s.caseRepository.GetCase(ctx, cand.CaseID)
		if err != nil {
			s.logger.Warn("ranked case missing from storage", "caseID", cand.CaseID, "error", err)
		} else {
			result.Case = c
		}
		results = append(results, result)
	}
	return results
}

// partialResponse packages whatever candidates survived before cancellation
// into a best-effort response tagged partial.
func (s *Searcher) partialResponse(ctx context.Context, candidates []core.CandidateScore, directions map[core.CaseID]core.Direction, monitor SearchMonitor) *core.SearchResponse {
	results := s.buildResults(context.WithoutCancel(ctx), candidates, directions)
	response := &core.SearchResponse{
		Results: results,
		Count:   len(results),
		Partial: true,
	}
	monitor.Finish(response)
	return response
}

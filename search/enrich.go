package search

import (
	"context"
	"sync"

	"github.com/veridict/caselaw/core"
)

// enrichCitations attaches the citing cases of each result, fanning the
// lookups out on the worker pool. The citation graph only indexes
// resolvable edges, so dangling citations never show up here; citing cases
// that have since disappeared from the corpus are skipped. Enrichment
// failures degrade to an unenriched result rather than failing the search.
func (s *Searcher) enrichCitations(ctx context.Context, results []*core.SearchResult) {
	var wg sync.WaitGroup
	for _, result := range results {
		if ctx.Err() != nil {
			break
		}

		result := result
		wg.Add(1)
		err := s.pool.Submit(func() {
			defer wg.Done()
			s.enrichOne(ctx, result)
		})
		if err != nil {
			wg.Done()
			s.enrichOne(ctx, result)
		}
	}
	wg.Wait()
}

// enrichOne loads the citing cases for a single result. Each invocation
// writes only to its own result.
func (s *Searcher) enrichOne(ctx context.Context, result *core.SearchResult) {
	citations, err := s.citationRepository.GetCitingCases(ctx, result.CaseID)
	if err != nil {
		s.logger.Warn("citation lookup failed", "caseID", result.CaseID, "error", err)
		return
	}
	if len(citations) == 0 {
		return
	}

	citingIDs := make([]core.CaseID, len(citations))
	for i, c := range citations {
		citingIDs[i] = c.CitingCaseID
	}
	cases, err := s.caseRepository.GetCases(ctx, citingIDs...)
	if err != nil {
		s.logger.Warn("citing case lookup failed", "caseID", result.CaseID, "error", err)
		return
	}
	byID := make(map[core.CaseID]*core.Case, len(cases))
	for _, c := range cases {
		byID[c.ID] = c
	}

	for _, citation := range citations {
		citingCase, ok := byID[citation.CitingCaseID]
		if !ok {
			continue
		}
		result.CitingCases = append(result.CitingCases, core.CitingCase{
			CaseID:   citingCase.ID,
			Name:     citingCase.Name,
			Citation: citingCase.Citation,
			Context:  citation.Context,
		})
	}
}

package search

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/veridict/caselaw/ai"
	"github.com/veridict/caselaw/core"
	"github.com/veridict/caselaw/retry"
	"github.com/veridict/caselaw/storage"
)

// batchItem carries one candidate and its factor set to the scorer.
type batchItem struct {
	candidate core.CandidateScore
	set       core.FactorSet
}

// rankOutcome is the merged output of the precise ranking stage.
type rankOutcome struct {
	// candidates is sorted by score descending, case ID ascending on ties.
	// Substituted entries keep their prefilter stage tag; precisely scored
	// ones carry StagePrecise.
	candidates []core.CandidateScore

	// directions holds the holding direction per case, from the stored
	// holding when one exists, otherwise from the scorer's verdict.
	directions map[core.CaseID]core.Direction

	// partial is true when any batch fell back to substitute scores or the
	// request was cancelled mid-ranking.
	partial bool
}

// preciseRank sends the surviving candidates to the batch scorer through
// the bounded worker pool and merges the verdicts into a single ranking.
//
// Batches that keep failing after retries are not dropped: their cases fall
// back to the prefilter score and the outcome is marked partial. Once
// enough high-confidence results have accumulated to cover the requested
// limit with margin, queued batches stop being dispatched and in-flight
// ones are drained.
func (s *Searcher) preciseRank(
	ctx context.Context,
	premise string,
	factors []core.QueryFactor,
	polarity core.Polarity,
	candidates []core.CandidateScore,
	limit int,
	monitor SearchMonitor,
) (*rankOutcome, error) {
	outcome := &rankOutcome{
		directions: make(map[core.CaseID]core.Direction),
	}

	items, err := s.prepareBatchItems(ctx, polarity, candidates, outcome.directions)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return outcome, nil
	}

	batches := partition(items, s.config.CasesPerBatch)
	needed := limit + s.config.HighConfidenceMargin

	var (
		mu             sync.Mutex
		wg             sync.WaitGroup
		highConfidence int
		stopDispatch   bool
	)

	for i, batch := range batches {
		if ctx.Err() != nil {
			// Cancellation mid-ranking: batches that never reached the
			// pool are not dropped. Their cases fall back to prefilter
			// scores, same as a failed batch.
			mu.Lock()
			for _, pending := range batches[i:] {
				for _, item := range pending {
					outcome.candidates = append(outcome.candidates, item.candidate)
				}
			}
			outcome.partial = true
			mu.Unlock()
			break
		}
		mu.Lock()
		stopped := stopDispatch
		mu.Unlock()
		if stopped {
			break
		}

		batch := batch
		wg.Add(1)
		submitErr := s.pool.Submit(func() {
			defer wg.Done()

			scores, scoreErr := s.scoreBatchWithRetry(ctx, premise, factors, batch)

			mu.Lock()
			defer mu.Unlock()
			batchIDs := caseIDsOf(batch)

			if scoreErr != nil {
				// Substitute the prefilter score for every case in the
				// failed batch rather than dropping them.
				for _, item := range batch {
					outcome.candidates = append(outcome.candidates, item.candidate)
				}
				outcome.partial = true
				monitor.BatchScored(batchIDs, scoreErr)
				return
			}

			byID := make(map[core.CaseID]ai.BatchScore, len(scores))
			for _, v := range scores {
				byID[v.CaseID] = v
			}

			for _, item := range batch {
				verdict, ok := byID[item.candidate.CaseID]
				if !ok || verdict.Err != nil {
					outcome.candidates = append(outcome.candidates, item.candidate)
					outcome.partial = true
					continue
				}
				outcome.candidates = append(outcome.candidates, core.CandidateScore{
					CaseID: item.candidate.CaseID,
					Score:  verdict.Score,
					Stage:  core.StagePrecise,
				})
				if verdict.Direction != "" {
					if _, known := outcome.directions[item.candidate.CaseID]; !known {
						outcome.directions[item.candidate.CaseID] = verdict.Direction
					}
				}
				if verdict.Score >= s.config.HighConfidenceThreshold {
					highConfidence++
				}
			}
			monitor.BatchScored(batchIDs, nil)

			if !stopDispatch && highConfidence >= needed {
				stopDispatch = true
				monitor.EarlyTermination(highConfidence)
			}
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			for _, item := range batch {
				outcome.candidates = append(outcome.candidates, item.candidate)
			}
			outcome.partial = true
			mu.Unlock()
			s.logger.Warn("failed to submit scoring batch", "error", submitErr)
		}
	}

	wg.Wait()

	if ctx.Err() != nil {
		outcome.partial = true
	}

	// Post-scoring polarity filter for cases whose direction only became
	// known through the scorer's verdict.
	if polarity != core.PolarityNone && polarity != "" {
		kept := outcome.candidates[:0]
		for _, c := range outcome.candidates {
			direction, known := outcome.directions[c.CaseID]
			if known && !core.MatchesPolarity(direction, polarity) {
				continue
			}
			kept = append(kept, c)
		}
		outcome.candidates = kept
	}

	sort.Slice(outcome.candidates, func(i, j int) bool {
		return betterCandidate(outcome.candidates[i], outcome.candidates[j])
	})

	return outcome, nil
}

// prepareBatchItems loads factor sets and applies the pre-dispatch polarity
// filter. Cases whose stored holding already disagrees with the polarity
// are skipped before any scorer call is spent on them; cases without any
// factors are excluded as unscorable.
func (s *Searcher) prepareBatchItems(
	ctx context.Context,
	polarity core.Polarity,
	candidates []core.CandidateScore,
	directions map[core.CaseID]core.Direction,
) ([]batchItem, error) {
	items := make([]batchItem, 0, len(candidates))

	for _, cand := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		holding, err := s.caseRepository.GetHolding(ctx, cand.CaseID)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		if holding != nil {
			directions[cand.CaseID] = holding.Direction
			if !core.MatchesPolarity(holding.Direction, polarity) {
				continue
			}
		}

		factors, err := s.caseRepository.GetFactors(ctx, cand.CaseID)
		if err != nil {
			return nil, err
		}
		if len(factors) == 0 {
			s.logger.Debug("skipping case with no factors", "caseID", cand.CaseID)
			continue
		}

		items = append(items, batchItem{
			candidate: cand,
			set:       core.FactorSet{CaseID: cand.CaseID, Factors: factors},
		})
	}

	return items, nil
}

// scoreBatchWithRetry invokes the precise scorer for one batch, retrying
// with exponential backoff up to the configured bound.
func (s *Searcher) scoreBatchWithRetry(ctx context.Context, premise string, factors []core.QueryFactor, batch []batchItem) ([]ai.BatchScore, error) {
	sets := make([]core.FactorSet, len(batch))
	for i, item := range batch {
		sets[i] = item.set
	}

	var scores []ai.BatchScore
	err := retry.WithBackoff(ctx, func() error {
		out, callErr := s.scorer.ScoreBatch(ctx, premise, factors, sets)
		if callErr != nil {
			return callErr
		}
		scores = out
		return nil
	}, s.config.MaxRetries, s.config.RetryDelay)
	if err != nil {
		return nil, err
	}
	return scores, nil
}

// partition splits items into batches of at most size, preserving order.
func partition(items []batchItem, size int) [][]batchItem {
	var batches [][]batchItem
	for len(items) > 0 {
		n := size
		if n > len(items) {
			n = len(items)
		}
		batches = append(batches, items[:n])
		items = items[n:]
	}
	return batches
}

func caseIDsOf(batch []batchItem) []core.CaseID {
	ids := make([]core.CaseID, len(batch))
	for i, item := range batch {
		ids[i] = item.candidate.CaseID
	}
	return ids
}

package search

import (
	"context"

	"github.com/veridict/caselaw/core"
)

// queryTokens caches the token set of each query factor for one request.
type queryTokens struct {
	factors []core.QueryFactor
	sets    []map[string]bool
}

func newQueryTokens(factors []core.QueryFactor) *queryTokens {
	sets := make([]map[string]bool, len(factors))
	for i, f := range factors {
		sets[i] = tokenSet(tokenizeAndFilter(f.Text))
	}
	return &queryTokens{factors: factors, sets: sets}
}

// lexicalFilter scores every analyzed case by token overlap with the query
// factors and keeps the top TextPrefilterSize. The corpus is streamed in
// chunks so memory stays bounded regardless of corpus size.
func (s *Searcher) lexicalFilter(ctx context.Context, tokens *queryTokens) ([]core.CandidateScore, error) {
	top := newTopK(s.config.TextPrefilterSize)

	err := s.caseRepository.ForEachFactorSet(ctx, s.config.CorpusChunkSize, func(sets []core.FactorSet) error {
		for _, set := range sets {
			score := scoreFactorSet(tokens, set.Factors)
			if score <= s.config.MinLexicalScore {
				continue
			}
			top.Add(core.CandidateScore{
				CaseID: set.CaseID,
				Score:  score,
				Stage:  core.StageLexical,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return top.Sorted(), nil
}

// scoreFactorSet computes the lexical score of one case: for each query
// factor, the best overlap-times-weight product over the case's factors,
// summed with the query factor's weight.
func scoreFactorSet(tokens *queryTokens, factors []core.Factor) float32 {
	if len(factors) == 0 {
		return 0
	}

	factorSets := make([]map[string]bool, len(factors))
	for j := range factors {
		factorSets[j] = tokenSet(tokenizeAndFilter(factors[j].Text))
	}

	var score float32
	for i, qf := range tokens.factors {
		var best float32
		for j := range factors {
			weighted := overlapSimilarity(tokens.sets[i], factorSets[j]) * factors[j].WeightToHolding
			if weighted > best {
				best = weighted
			}
		}
		score += qf.Weight * best
	}
	return score
}

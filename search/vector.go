package search

import (
	"context"
	"fmt"

	"github.com/veridict/caselaw/core"
)

// caseVectors pairs a candidate with the embedding of each of its factors.
type caseVectors struct {
	candidate core.CandidateScore
	factors   []core.Factor
	vectors   [][]float32
}

// vectorFilter rescores the lexical survivors by embedding similarity and
// keeps the top VectorPrefilterSize. Stored factor vectors are preferred;
// cases without them are embedded on the fly in one batched provider call.
// If the embedding provider fails at any point the stage degrades to a
// pass-through of its input, capped at the stage budget, and the degraded
// flag is returned so the response can be marked partial.
func (s *Searcher) vectorFilter(ctx context.Context, tokens *queryTokens, candidates []core.CandidateScore) ([]core.CandidateScore, bool, error) {
	if len(candidates) == 0 {
		return candidates, false, nil
	}

	queryVecs, err := s.embedQueryFactors(ctx, tokens.factors)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		s.logger.Warn("embedding provider unavailable, vector stage degraded to pass-through", "error", err)
		return capCandidates(candidates, s.config.VectorPrefilterSize), true, nil
	}

	resolved, err := s.resolveCaseVectors(ctx, candidates)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		s.logger.Warn("factor embedding failed, vector stage degraded to pass-through", "error", err)
		return capCandidates(candidates, s.config.VectorPrefilterSize), true, nil
	}

	top := newTopK(s.config.VectorPrefilterSize)
	for _, cv := range resolved {
		score := scoreVectors(tokens.factors, queryVecs, cv.factors, cv.vectors)
		top.Add(core.CandidateScore{
			CaseID: cv.candidate.CaseID,
			Score:  score,
			Stage:  core.StageVector,
		})
	}

	return top.Sorted(), false, nil
}

// embedQueryFactors returns one embedding per query factor, consulting the
// per-searcher cache keyed by factor text hash before calling the provider.
func (s *Searcher) embedQueryFactors(ctx context.Context, factors []core.QueryFactor) ([][]float32, error) {
	vecs := make([][]float32, len(factors))
	var missing []int
	var missingTexts []string

	s.vecCacheMu.Lock()
	for i, f := range factors {
		if cached, ok := s.vecCache[core.ContentHash(f.Text)]; ok {
			vecs[i] = cached
		} else {
			missing = append(missing, i)
			missingTexts = append(missingTexts, f.Text)
		}
	}
	s.vecCacheMu.Unlock()

	if len(missing) == 0 {
		return vecs, nil
	}

	embedded, err := s.embedder.EmbedTexts(ctx, missingTexts)
	if err != nil {
		return nil, err
	}
	if len(embedded) != len(missingTexts) {
		return nil, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(missingTexts), len(embedded))
	}

	s.vecCacheMu.Lock()
	for j, i := range missing {
		vec := NormalizeVector(embedded[j])
		vecs[i] = vec
		s.vecCache[core.ContentHash(factors[i].Text)] = vec
	}
	s.vecCacheMu.Unlock()

	return vecs, nil
}

// resolveCaseVectors loads or generates the factor embeddings for every
// candidate. Missing vectors across all candidates are generated in a
// single provider call. Cases with no factors at all are dropped here.
func (s *Searcher) resolveCaseVectors(ctx context.Context, candidates []core.CandidateScore) ([]caseVectors, error) {
	resolved := make([]caseVectors, 0, len(candidates))

	var pendingTexts []string
	type pendingRef struct {
		caseIdx   int
		factorIdx int
	}
	var pending []pendingRef

	for _, cand := range candidates {
		factors, err := s.caseRepository.GetFactors(ctx, cand.CaseID)
		if err != nil {
			return nil, err
		}
		if len(factors) == 0 {
			continue
		}

		vectors, err := s.caseRepository.GetFactorVectors(ctx, cand.CaseID)
		if err != nil {
			return nil, err
		}
		if len(vectors) != len(factors) {
			// Stored vectors are stale or absent; regenerate the lot.
			vectors = make([][]float32, len(factors))
		}

		cv := caseVectors{candidate: cand, factors: factors, vectors: vectors}
		resolved = append(resolved, cv)

		caseIdx := len(resolved) - 1
		for i := range factors {
			if len(vectors[i]) == 0 {
				pending = append(pending, pendingRef{caseIdx: caseIdx, factorIdx: i})
				pendingTexts = append(pendingTexts, factors[i].Text)
			}
		}
	}

	if len(pendingTexts) > 0 {
		embedded, err := s.embedder.EmbedTexts(ctx, pendingTexts)
		if err != nil {
			return nil, err
		}
		if len(embedded) != len(pendingTexts) {
			return nil, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(pendingTexts), len(embedded))
		}
		for j, ref := range pending {
			resolved[ref.caseIdx].vectors[ref.factorIdx] = NormalizeVector(embedded[j])
		}
	}

	return resolved, nil
}

// scoreVectors computes the vector score of one case, same aggregation as
// the lexical stage but with cosine similarity as the match signal.
func scoreVectors(queryFactors []core.QueryFactor, queryVecs [][]float32, factors []core.Factor, vectors [][]float32) float32 {
	var score float32
	for i, qf := range queryFactors {
		var best float32
		for j := range factors {
			weighted := CosineSimilarity(queryVecs[i], vectors[j]) * factors[j].WeightToHolding
			if weighted > best {
				best = weighted
			}
		}
		score += qf.Weight * best
	}
	return score
}

// capCandidates truncates a candidate sequence to the given budget.
func capCandidates(candidates []core.CandidateScore, budget int) []core.CandidateScore {
	if len(candidates) > budget {
		return candidates[:budget]
	}
	return candidates
}

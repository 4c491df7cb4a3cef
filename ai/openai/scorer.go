package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/veridict/caselaw/ai"
	"github.com/veridict/caselaw/core"
)

// BatchScorer implements ai.BatchScorer using OpenAI-compatible chat APIs.
// One call scores a whole batch of case factor sets against the query,
// amortizing the expensive model invocation across many cases.
type BatchScorer struct {
	client        llms.Model
	maxBatchCases int
	logger        *slog.Logger
}

// verdicts mirrors the JSON structure expected from the LLM.
type verdicts struct {
	Scores []struct {
		CaseID    string  `json:"case_id"`
		Score     float32 `json:"similarity_score"`
		Direction string  `json:"direction"`
	} `json:"scores"`
}

// newBatchScorer is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newBatchScorer(config *ai.Config) (*BatchScorer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.ScorerHost),
		openai.WithToken("none"),
		openai.WithModel(config.ScorerModel),
	)
	if err != nil {
		return nil, err
	}

	return &BatchScorer{
		client:        client,
		maxBatchCases: config.MaxBatchCases,
		logger:        slog.Default().With("component", "openai-scorer"),
	}, nil
}

// NewBatchScorer creates a new batch scorer using the provided configuration.
//
// Returns ai.BatchScorer interface to enforce abstraction.
func NewBatchScorer(config *ai.Config) (ai.BatchScorer, error) {
	return newBatchScorer(config)
}

// ScoreBatch scores every factor set in the batch against the query.
// Cases the model omits from its answer are reported with a per-case error
// rather than failing the batch.
func (s *BatchScorer) ScoreBatch(ctx context.Context, premise string, factors []core.QueryFactor, batch []core.FactorSet) ([]ai.BatchScore, error) {
	if len(batch) == 0 {
		return nil, nil
	}
	if len(batch) > s.maxBatchCases {
		return nil, fmt.Errorf("batch of %d cases exceeds maximum of %d", len(batch), s.maxBatchCases)
	}

	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(scoreSystemPrompt)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(buildScorePrompt(premise, factors, batch))},
		},
	}

	// Try up to 3 times in case of malformed JSON
	var result verdicts
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		response, err := s.client.GenerateContent(ctx, content, llms.WithTemperature(0.2), llms.WithJSONMode())
		if err != nil {
			s.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return nil, err
		}

		if len(response.Choices) < 1 {
			return nil, errors.New("no choices returned from model")
		}

		responseText := repairJSON(stripFences(response.Choices[0].Content))
		if err := json.Unmarshal([]byte(responseText), &result); err != nil {
			lastErr = err
			s.logger.Warn("error parsing scorer response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}

		lastErr = nil
		break
	}

	if lastErr != nil {
		s.logger.Error("failed to parse scorer response after retries", "err", lastErr)
		return nil, lastErr
	}

	byCase := make(map[core.CaseID]ai.BatchScore, len(result.Scores))
	for _, v := range result.Scores {
		score := v.Score
		if score < 0 {
			score = 0
		}
		if score > 1 {
			score = 1
		}
		byCase[core.CaseID(v.CaseID)] = ai.BatchScore{
			CaseID:    core.CaseID(v.CaseID),
			Score:     score,
			Direction: parseDirection(v.Direction),
		}
	}

	// Report one entry per input case, in input order; model omissions become
	// per-case errors so the caller can substitute a fallback score.
	out := make([]ai.BatchScore, len(batch))
	for i, set := range batch {
		if v, ok := byCase[set.CaseID]; ok {
			out[i] = v
			continue
		}
		s.logger.Warn("scorer omitted case from batch answer", "caseID", set.CaseID)
		out[i] = ai.BatchScore{
			CaseID: set.CaseID,
			Err:    fmt.Errorf("case %s missing from scorer response", set.CaseID),
		}
	}
	return out, nil
}

func parseDirection(s string) core.Direction {
	switch core.Direction(s) {
	case core.DirectionForDefendant, core.DirectionAgainstDefendant, core.DirectionMixed, core.DirectionUnclear:
		return core.Direction(s)
	}
	return ""
}

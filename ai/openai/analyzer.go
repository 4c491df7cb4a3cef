package openai

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/veridict/caselaw/ai"
	"github.com/veridict/caselaw/core"
)

// QueryAnalyzer implements ai.QueryAnalyzer using OpenAI-compatible chat APIs.
type QueryAnalyzer struct {
	client llms.Model
	logger *slog.Logger
}

// decomposition mirrors the JSON structure expected from the LLM.
type decomposition struct {
	Premise  string `json:"premise"`
	Polarity string `json:"polarity"`
	Factors  []struct {
		Text   string  `json:"text"`
		Weight float32 `json:"weight"`
	} `json:"factors"`
}

// newQueryAnalyzer is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newQueryAnalyzer(config *ai.Config) (*QueryAnalyzer, error) {
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

	return &QueryAnalyzer{
		client: client,
		logger: slog.Default().With("component", "openai-analyzer"),
	}, nil
}

// NewQueryAnalyzer creates a new query analyzer using the provided configuration.
//
// Returns ai.QueryAnalyzer interface to enforce abstraction.
func NewQueryAnalyzer(config *ai.Config) (ai.QueryAnalyzer, error) {
	return newQueryAnalyzer(config)
}

// Decompose analyzes a query with an LLM and returns its structured form.
// Callers are expected to fall back to a heuristic decomposition on error.
func (a *QueryAnalyzer) Decompose(ctx context.Context, query string) (*core.DecomposedQuery, error) {
	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(decomposeSystemPrompt)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(buildDecomposePrompt(query))},
		},
	}

	// Try up to 3 times in case of malformed JSON
	var result decomposition
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		response, err := a.client.GenerateContent(ctx, content, llms.WithTemperature(0.3), llms.WithJSONMode())
		if err != nil {
			a.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return nil, err
		}

		if len(response.Choices) < 1 {
			return nil, errors.New("no choices returned from model")
		}

		responseText := repairJSON(stripFences(response.Choices[0].Content))
		if err := json.Unmarshal([]byte(responseText), &result); err != nil {
			lastErr = err
			a.logger.Warn("error parsing decomposition response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}

		lastErr = nil
		break
	}

	if lastErr != nil {
		a.logger.Error("failed to parse decomposition after retries", "err", lastErr)
		return nil, lastErr
	}

	if len(result.Factors) == 0 {
		return nil, errors.New("decomposition returned no factors")
	}

	decomposed := &core.DecomposedQuery{
		Premise:  result.Premise,
		Polarity: parsePolarity(result.Polarity),
	}
	if decomposed.Premise == "" {
		decomposed.Premise = query
	}
	for _, f := range result.Factors {
		if f.Text == "" {
			continue
		}
		decomposed.Factors = append(decomposed.Factors, core.QueryFactor{
			Text:   f.Text,
			Weight: f.Weight,
		})
	}
	if len(decomposed.Factors) == 0 {
		return nil, errors.New("decomposition returned only empty factors")
	}

	return decomposed, nil
}

func parsePolarity(s string) core.Polarity {
	switch core.Polarity(s) {
	case core.PolarityForDefendant, core.PolarityPlaintiff, core.PolarityNeutral:
		return core.Polarity(s)
	}
	return core.PolarityNone
}

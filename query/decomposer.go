// Copyright 2026 Veridict Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package query turns raw search queries into weighted legal factors.
//
// The precise strategy asks a language model to extract self-contained legal
// principles from the query. When the model is unavailable or returns
// nothing usable, a deterministic heuristic takes over so a search never
// fails at the decomposition step.
package query

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"github.com/veridict/caselaw/ai"
	"github.com/veridict/caselaw/core"
)

// FactorCount is the fixed number of query factors every decomposition
// produces. Downstream scoring assumes this count.
const FactorCount = 3

// ErrEmptyQuery indicates the query was empty after trimming.
var ErrEmptyQuery = errors.New("query is empty")

// ErrNoFactors indicates a strategy produced a decomposition without any
// usable factors.
var ErrNoFactors = errors.New("decomposition produced no factors")

// Strategy produces a decomposition for a query. Strategies are tried in
// order; a failing strategy hands the query to the next one.
type Strategy interface {
	Decompose(ctx context.Context, query string) (*core.DecomposedQuery, error)
}

// preciseStrategy delegates to a language model through ai.QueryAnalyzer.
type preciseStrategy struct {
	analyzer ai.QueryAnalyzer
}

func (p *preciseStrategy) Decompose(ctx context.Context, query string) (*core.DecomposedQuery, error) {
	result, err := p.analyzer.Decompose(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(result.Factors) == 0 {
		return nil, ErrNoFactors
	}
	return result, nil
}

// heuristicStrategy is the deterministic fallback. It never fails.
type heuristicStrategy struct{}

func (heuristicStrategy) Decompose(ctx context.Context, query string) (*core.DecomposedQuery, error) {
	return HeuristicDecompose(query), nil
}

// Decomposer produces a premise, weighted factors, and a polarity filter
// from a raw query string.
type Decomposer struct {
	strategies []Strategy
	logger     *slog.Logger
}

// Option configures a Decomposer.
type Option func(*Decomposer) error

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Decomposer) error {
		d.logger = logger
		return nil
	}
}

// WithStrategies replaces the default strategy chain. The last strategy
// should be one that cannot fail.
func WithStrategies(strategies ...Strategy) Option {
	return func(d *Decomposer) error {
		d.strategies = strategies
		return nil
	}
}

// NewDecomposer creates a new Decomposer. The analyzer may be nil, in which
// case every query goes through the heuristic strategy.
func NewDecomposer(analyzer ai.QueryAnalyzer, opts ...Option) (*Decomposer, error) {
	d := &Decomposer{
		logger: slog.Default().With("component", "query_decomposer"),
	}
	if analyzer != nil {
		d.strategies = append(d.strategies, &preciseStrategy{analyzer: analyzer})
	}
	d.strategies = append(d.strategies, heuristicStrategy{})

	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Decompose breaks a query into exactly FactorCount weighted factors plus a
// polarity filter. Strategies are tried in order; only cancellation and an
// exhausted chain surface as errors.
func (d *Decomposer) Decompose(ctx context.Context, rawQuery string) (*core.DecomposedQuery, error) {
	trimmed := strings.TrimSpace(rawQuery)
	if trimmed == "" {
		return nil, ErrEmptyQuery
	}

	var lastErr error
	for _, strategy := range d.strategies {
		result, err := strategy.Decompose(ctx, trimmed)
		if err == nil {
			normalize(result, trimmed)
			return result, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		d.logger.Warn("decomposition strategy failed, trying next", "error", err)
		lastErr = err
	}
	return nil, lastErr
}

// normalize enforces the decomposition invariants: a non-empty premise,
// exactly FactorCount factors, and weights summing to 1.0.
func normalize(q *core.DecomposedQuery, rawQuery string) {
	if strings.TrimSpace(q.Premise) == "" {
		q.Premise = rawQuery
	}
	if q.Polarity == "" {
		q.Polarity = core.PolarityNone
	}

	// Drop factors with no text.
	kept := q.Factors[:0]
	for _, f := range q.Factors {
		if strings.TrimSpace(f.Text) != "" {
			kept = append(kept, f)
		}
	}
	q.Factors = kept

	if len(q.Factors) > FactorCount {
		// Keep the heaviest factors. Stable sort preserves the original
		// order among equal weights.
		sort.SliceStable(q.Factors, func(i, j int) bool {
			return q.Factors[i].Weight > q.Factors[j].Weight
		})
		q.Factors = q.Factors[:FactorCount]
	}
	for len(q.Factors) < FactorCount {
		q.Factors = append(q.Factors, core.QueryFactor{
			Text:   rawQuery,
			Weight: 0,
		})
	}

	var sum float32
	for _, f := range q.Factors {
		if f.Weight > 0 {
			sum += f.Weight
		}
	}
	if sum <= 0 {
		for i := range q.Factors {
			q.Factors[i].Weight = 1.0 / FactorCount
		}
		return
	}
	for i := range q.Factors {
		if q.Factors[i].Weight < 0 {
			q.Factors[i].Weight = 0
		}
		q.Factors[i].Weight /= sum
	}
}

package query

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridict/caselaw/ai/mock"
	"github.com/veridict/caselaw/core"
)

func factorWeightSum(factors []core.QueryFactor) float32 {
	var sum float32
	for _, f := range factors {
		sum += f.Weight
	}
	return sum
}

func TestDecomposePreciseSuccess(t *testing.T) {
	analyzer := mock.NewMockQueryAnalyzer()
	analyzer.DecomposeFunc = func(ctx context.Context, query string) (*core.DecomposedQuery, error) {
		return &core.DecomposedQuery{
			Premise: "stolen vehicle knowledge",
			Factors: []core.QueryFactor{
				{Text: "knowledge of stolen status", Weight: 0.5},
				{Text: "possession of the vehicle", Weight: 0.3},
				{Text: "sufficiency of the evidence", Weight: 0.2},
			},
			Polarity: core.PolarityForDefendant,
		}, nil
	}

	d, err := NewDecomposer(analyzer)
	require.NoError(t, err)

	result, err := d.Decompose(context.Background(), "cases where defendant charged with stolen vehicle")
	require.NoError(t, err)

	assert.Equal(t, "stolen vehicle knowledge", result.Premise)
	assert.Len(t, result.Factors, FactorCount)
	assert.InDelta(t, 1.0, factorWeightSum(result.Factors), 0.001)
	assert.Equal(t, core.PolarityForDefendant, result.Polarity)
	assert.Equal(t, 1, analyzer.CallCount())
}

func TestDecomposeNormalizesWeights(t *testing.T) {
	analyzer := mock.NewMockQueryAnalyzer()
	analyzer.DecomposeFunc = func(ctx context.Context, query string) (*core.DecomposedQuery, error) {
		return &core.DecomposedQuery{
			Factors: []core.QueryFactor{
				{Text: "first principle", Weight: 2.0},
				{Text: "second principle", Weight: 1.0},
				{Text: "third principle", Weight: 1.0},
			},
		}, nil
	}

	d, err := NewDecomposer(analyzer)
	require.NoError(t, err)

	result, err := d.Decompose(context.Background(), "some query")
	require.NoError(t, err)

	assert.InDelta(t, 1.0, factorWeightSum(result.Factors), 0.001)
	assert.InDelta(t, 0.5, result.Factors[0].Weight, 0.001)
	assert.Equal(t, "some query", result.Premise)
	assert.Equal(t, core.PolarityNone, result.Polarity)
}

func TestDecomposeTruncatesToHeaviest(t *testing.T) {
	analyzer := mock.NewMockQueryAnalyzer()
	analyzer.DecomposeFunc = func(ctx context.Context, query string) (*core.DecomposedQuery, error) {
		return &core.DecomposedQuery{
			Factors: []core.QueryFactor{
				{Text: "light", Weight: 0.05},
				{Text: "heavy", Weight: 0.5},
				{Text: "medium", Weight: 0.25},
				{Text: "heavier", Weight: 0.6},
				{Text: "feather", Weight: 0.01},
			},
		}, nil
	}

	d, err := NewDecomposer(analyzer)
	require.NoError(t, err)

	result, err := d.Decompose(context.Background(), "some query")
	require.NoError(t, err)

	require.Len(t, result.Factors, FactorCount)
	assert.Equal(t, "heavier", result.Factors[0].Text)
	assert.Equal(t, "heavy", result.Factors[1].Text)
	assert.Equal(t, "medium", result.Factors[2].Text)
	assert.InDelta(t, 1.0, factorWeightSum(result.Factors), 0.001)
}

func TestDecomposePadsShortResults(t *testing.T) {
	analyzer := mock.NewMockQueryAnalyzer()
	analyzer.DecomposeFunc = func(ctx context.Context, query string) (*core.DecomposedQuery, error) {
		return &core.DecomposedQuery{
			Factors: []core.QueryFactor{
				{Text: "only factor", Weight: 1.0},
			},
		}, nil
	}

	d, err := NewDecomposer(analyzer)
	require.NoError(t, err)

	result, err := d.Decompose(context.Background(), "short query text")
	require.NoError(t, err)

	require.Len(t, result.Factors, FactorCount)
	assert.InDelta(t, 1.0, factorWeightSum(result.Factors), 0.001)
	assert.Equal(t, "short query text", result.Factors[1].Text)
}

func TestDecomposeFallsBackOnError(t *testing.T) {
	analyzer := mock.NewMockQueryAnalyzer()
	analyzer.DecomposeFunc = func(ctx context.Context, query string) (*core.DecomposedQuery, error) {
		return nil, errors.New("provider unavailable")
	}

	d, err := NewDecomposer(analyzer)
	require.NoError(t, err)

	result, err := d.Decompose(context.Background(), "defendant charged with possession of a stolen motor vehicle but lack of probable cause")
	require.NoError(t, err)

	assert.Len(t, result.Factors, FactorCount)
	assert.InDelta(t, 1.0, factorWeightSum(result.Factors), 0.001)
	assert.Equal(t, core.PolarityForDefendant, result.Polarity)
}

func TestDecomposeFallsBackOnEmptyFactors(t *testing.T) {
	analyzer := mock.NewMockQueryAnalyzer()
	analyzer.DecomposeFunc = func(ctx context.Context, query string) (*core.DecomposedQuery, error) {
		return &core.DecomposedQuery{}, nil
	}

	d, err := NewDecomposer(analyzer)
	require.NoError(t, err)

	result, err := d.Decompose(context.Background(), "prosecution failed to prove negligence")
	require.NoError(t, err)

	assert.Len(t, result.Factors, FactorCount)
	assert.Equal(t, core.PolarityPlaintiff, result.Polarity)
}

func TestDecomposeNilAnalyzerUsesHeuristic(t *testing.T) {
	d, err := NewDecomposer(nil)
	require.NoError(t, err)

	result, err := d.Decompose(context.Background(), "cases involving probable cause and sufficient evidence")
	require.NoError(t, err)

	assert.Len(t, result.Factors, FactorCount)
	assert.InDelta(t, 1.0, factorWeightSum(result.Factors), 0.001)
}

func TestDecomposeEmptyQuery(t *testing.T) {
	d, err := NewDecomposer(nil)
	require.NoError(t, err)

	_, err = d.Decompose(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestDecomposeCancelledContext(t *testing.T) {
	analyzer := mock.NewMockQueryAnalyzer()
	analyzer.DecomposeFunc = func(ctx context.Context, query string) (*core.DecomposedQuery, error) {
		return nil, ctx.Err()
	}

	d, err := NewDecomposer(analyzer)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = d.Decompose(ctx, "some query")
	assert.ErrorIs(t, err, context.Canceled)
}

type fixedStrategy struct {
	result *core.DecomposedQuery
	err    error
}

func (f fixedStrategy) Decompose(ctx context.Context, query string) (*core.DecomposedQuery, error) {
	return f.result, f.err
}

func TestDecomposeCustomStrategyChain(t *testing.T) {
	d, err := NewDecomposer(nil, WithStrategies(
		fixedStrategy{err: errors.New("primary unavailable")},
		fixedStrategy{result: &core.DecomposedQuery{
			Factors: []core.QueryFactor{{Text: "negligence", Weight: 1.0}},
		}},
	))
	require.NoError(t, err)

	result, err := d.Decompose(context.Background(), "negligence claims")
	require.NoError(t, err)
	assert.Equal(t, "negligence", result.Factors[0].Text)
	assert.Len(t, result.Factors, FactorCount)
}

func TestDecomposeExhaustedStrategies(t *testing.T) {
	wantErr := errors.New("all strategies down")
	d, err := NewDecomposer(nil, WithStrategies(fixedStrategy{err: wantErr}))
	require.NoError(t, err)

	_, err = d.Decompose(context.Background(), "negligence claims")
	assert.ErrorIs(t, err, wantErr)
}

func TestHeuristicDeterminism(t *testing.T) {
	query := "defendant charged with knowing possession of a stolen motor vehicle but lack of probable cause"

	first := HeuristicDecompose(query)
	second := HeuristicDecompose(query)

	require.Equal(t, first.Polarity, second.Polarity)
	require.Len(t, first.Factors, len(second.Factors))
	for i := range first.Factors {
		assert.Equal(t, first.Factors[i].Text, second.Factors[i].Text)
	}
}

func TestHeuristicPolarityKeywords(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected core.Polarity
	}{
		{"defendant", "cases favorable to the defendant", core.PolarityForDefendant},
		{"accused", "the accused was acquitted", core.PolarityForDefendant},
		{"charged", "person charged with theft", core.PolarityForDefendant},
		{"plaintiff", "plaintiff won damages", core.PolarityPlaintiff},
		{"prosecution", "prosecution proved its case", core.PolarityPlaintiff},
		{"neither", "contract disputes involving ambiguity", core.PolarityNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := HeuristicDecompose(tt.query)
			assert.Equal(t, tt.expected, result.Polarity)
		})
	}
}

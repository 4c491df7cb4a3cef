package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridict/caselaw/ai/mock"
	"github.com/veridict/caselaw/core"
	"github.com/veridict/caselaw/storage"
	"github.com/veridict/caselaw/storage/badger"
)

func setupTestPipeline(t *testing.T) (*Pipeline, storage.CaseRepository, storage.CitationRepository, *mock.MockEmbedder) {
	caseRepo, citationRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	embedder := mock.NewMockEmbedder()
	provider := mock.NewMockProviderWithServices(embedder, mock.NewMockQueryAnalyzer(), mock.NewMockBatchScorer())

	pipeline, err := NewPipeline(caseRepo, citationRepo, provider, WithPoolSize(2))
	require.NoError(t, err)
	t.Cleanup(pipeline.Release)

	return pipeline, caseRepo, citationRepo, embedder
}

func testAnalysis(id core.CaseID, name string) *CaseAnalysis {
	return &CaseAnalysis{
		Case: &core.Case{
			ID:       id,
			Name:     name,
			Citation: "100 F.3d 1",
		},
		Factors: []core.Factor{
			{CaseID: id, Text: "probable cause supported the warrantless arrest", WeightToHolding: 0.6, Type: core.FactorLegalPrinciple, CourtPosition: core.PositionForDefendant},
			{CaseID: id, Text: "officer observed the suspect fleeing", WeightToHolding: 0.4, Type: core.FactorFact, CourtPosition: core.PositionUnclear},
		},
		Holding: &core.Holding{CaseID: id, Text: "conviction reversed", Direction: core.DirectionForDefendant, Confidence: 0.9},
	}
}

func TestNewPipeline(t *testing.T) {
	caseRepo, citationRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	provider := mock.NewMockProvider()

	t.Run("valid", func(t *testing.T) {
		p, err := NewPipeline(caseRepo, citationRepo, provider)
		require.NoError(t, err)
		require.NotNil(t, p)
		p.Release()
	})

	t.Run("nil case repository", func(t *testing.T) {
		_, err := NewPipeline(nil, citationRepo, provider)
		assert.ErrorIs(t, err, ErrCaseRepositoryRequired)
	})

	t.Run("nil citation repository", func(t *testing.T) {
		_, err := NewPipeline(caseRepo, nil, provider)
		assert.ErrorIs(t, err, ErrCitationRepositoryRequired)
	})

	t.Run("nil provider", func(t *testing.T) {
		_, err := NewPipeline(caseRepo, citationRepo, nil)
		assert.ErrorIs(t, err, ErrAIProviderRequired)
	})
}

func TestIngestStoresAnalysis(t *testing.T) {
	pipeline, caseRepo, _, _ := setupTestPipeline(t)
	ctx := context.Background()

	analysis := testAnalysis("case-001", "State v. Harmon")
	require.NoError(t, pipeline.Ingest(ctx, analysis))
	pipeline.Wait()

	stored, err := caseRepo.GetCase(ctx, "case-001")
	require.NoError(t, err)
	assert.Equal(t, "State v. Harmon", stored.Name)
	assert.Equal(t, core.StatusAnalyzed, stored.Status)

	factors, err := caseRepo.GetFactors(ctx, "case-001")
	require.NoError(t, err)
	assert.Len(t, factors, 2)

	holding, err := caseRepo.GetHolding(ctx, "case-001")
	require.NoError(t, err)
	assert.Equal(t, core.DirectionForDefendant, holding.Direction)
}

func TestIngestGeneratesVectors(t *testing.T) {
	pipeline, caseRepo, _, embedder := setupTestPipeline(t)
	ctx := context.Background()

	require.NoError(t, pipeline.Ingest(ctx, testAnalysis("case-001", "State v. Harmon")))
	pipeline.Wait()

	assert.GreaterOrEqual(t, embedder.CallCount(), 1)

	vectors, err := caseRepo.GetFactorVectors(ctx, "case-001")
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	for _, v := range vectors {
		var sum float64
		for _, x := range v {
			sum += float64(x) * float64(x)
		}
		assert.InDelta(t, 1.0, sum, 0.001)
	}
}

func TestIngestStoresCitations(t *testing.T) {
	pipeline, _, citationRepo, _ := setupTestPipeline(t)
	ctx := context.Background()

	analysis := testAnalysis("case-002", "Miller v. City of Fairview")
	analysis.Citations = []*core.Citation{
		{CitingCaseID: "case-002", CitedCaseID: "case-001", Text: "State v. Harmon, 100 F.3d 1", Context: "relying on Harmon"},
		{CitingCaseID: "case-002", CitedCaseID: "", Text: "12 P.2d 9"},
	}
	require.NoError(t, pipeline.Ingest(ctx, analysis))
	pipeline.Wait()

	citing, err := citationRepo.GetCitingCases(ctx, "case-001")
	require.NoError(t, err)
	require.Len(t, citing, 1)
	assert.Equal(t, core.CaseID("case-002"), citing[0].CitingCaseID)
}

func TestIngestMissingCase(t *testing.T) {
	pipeline, _, _, _ := setupTestPipeline(t)

	err := pipeline.Ingest(context.Background(), &CaseAnalysis{})
	assert.ErrorIs(t, err, ErrMissingCase)
}

func TestIngestEmbedderFailureIsNotFatal(t *testing.T) {
	pipeline, caseRepo, _, embedder := setupTestPipeline(t)
	ctx := context.Background()

	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("embedder unavailable")
	}

	require.NoError(t, pipeline.Ingest(ctx, testAnalysis("case-001", "State v. Harmon")))
	pipeline.Wait()

	// Case data survives even though vector generation failed
	stored, err := caseRepo.GetCase(ctx, "case-001")
	require.NoError(t, err)
	assert.Equal(t, core.StatusAnalyzed, stored.Status)

	vectors, err := caseRepo.GetFactorVectors(ctx, "case-001")
	require.NoError(t, err)
	assert.Empty(t, vectors)
}

func TestIngestCaseWithoutAnalysis(t *testing.T) {
	pipeline, caseRepo, _, embedder := setupTestPipeline(t)
	ctx := context.Background()

	analysis := &CaseAnalysis{
		Case: &core.Case{ID: "case-003", Name: "In re Doe", Citation: "5 F.4th 77"},
	}
	require.NoError(t, pipeline.Ingest(ctx, analysis))
	pipeline.Wait()

	stored, err := caseRepo.GetCase(ctx, "case-003")
	require.NoError(t, err)
	assert.Equal(t, core.StatusUnanalyzed, stored.Status)
	assert.Equal(t, 0, embedder.CallCount())
}

func TestReadAnalyses(t *testing.T) {
	data := `[
		{
			"case": {"id": "case-010", "name": "People v. Ortiz", "citation": "88 Cal.App.5th 2"},
			"factors": [{"caseId": "case-010", "text": "lack of evidence of intent", "weightToHolding": 1.0, "type": "legal_principle", "courtPosition": "for_defendant"}],
			"holding": {"caseId": "case-010", "text": "judgment vacated", "direction": "for_defendant", "confidence": 0.8}
		}
	]`

	analyses, err := ReadAnalyses(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, analyses, 1)
	assert.Equal(t, core.CaseID("case-010"), analyses[0].Case.ID)
	require.Len(t, analyses[0].Factors, 1)
	assert.Equal(t, core.FactorLegalPrinciple, analyses[0].Factors[0].Type)
	assert.Equal(t, core.DirectionForDefendant, analyses[0].Holding.Direction)

	_, err = ReadAnalyses(strings.NewReader("{not json"))
	assert.Error(t, err)
}

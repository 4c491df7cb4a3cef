package badger

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/veridict/caselaw/core"
	"github.com/veridict/caselaw/storage"
)

func newTestCase(id core.CaseID, name string) *core.Case {
	return &core.Case{
		ID:          id,
		Name:        name,
		Citation:    "123 F.3d 456",
		CourtName:   "Court of Appeals",
		OpinionText: "The court held that the contract was enforceable.",
	}
}

func TestCaseBasics(t *testing.T) {
	caseRepo, citationRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() {
		citationRepo.Close()
		caseRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()

	c := newTestCase("case-001", "Smith v. Jones")
	if err := caseRepo.AddCases(ctx, c); err != nil {
		t.Fatalf("Failed to add case: %v", err)
	}

	if c.Status != core.StatusUnanalyzed {
		t.Fatalf("Expected unanalyzed status, got %v", c.Status)
	}
	if c.InsertedAt.IsZero() {
		t.Fatal("Expected InsertedAt to be set")
	}

	retrieved, err := caseRepo.GetCase(ctx, "case-001")
	if err != nil {
		t.Fatalf("Failed to get case: %v", err)
	}
	if retrieved.Name != "Smith v. Jones" {
		t.Fatalf("Expected 'Smith v. Jones', got '%s'", retrieved.Name)
	}

	_, err = caseRepo.GetCase(ctx, "no-such-case")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestGetCasesSkipsMissing(t *testing.T) {
	caseRepo, citationRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { citationRepo.Close(); caseRepo.Close(); backend.Close() }()

	ctx := context.Background()

	err = caseRepo.AddCases(ctx,
		newTestCase("case-001", "Smith v. Jones"),
		newTestCase("case-002", "Doe v. Roe"),
	)
	if err != nil {
		t.Fatalf("Failed to add cases: %v", err)
	}

	cases, err := caseRepo.GetCases(ctx, "case-001", "missing", "case-002")
	if err != nil {
		t.Fatalf("Failed to get cases: %v", err)
	}
	if len(cases) != 2 {
		t.Fatalf("Expected 2 cases, got %d", len(cases))
	}
}

func TestPutAnalysis(t *testing.T) {
	caseRepo, citationRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { citationRepo.Close(); caseRepo.Close(); backend.Close() }()

	ctx := context.Background()

	if err := caseRepo.AddCases(ctx, newTestCase("case-001", "Smith v. Jones")); err != nil {
		t.Fatalf("Failed to add case: %v", err)
	}

	factors := []core.Factor{
		{CaseID: "case-001", Text: "written contract existed", Type: core.FactorFact, WeightToHolding: 0.6, CourtPosition: core.PositionForDefendant},
		{CaseID: "case-001", Text: "consideration was adequate", Type: core.FactorLegalPrinciple, WeightToHolding: 0.4, CourtPosition: core.PositionForDefendant},
	}
	holding := &core.Holding{
		CaseID:     "case-001",
		Text:       "contract enforceable",
		Direction:  core.DirectionForDefendant,
		Confidence: 0.9,
	}

	if err := caseRepo.PutAnalysis(ctx, "case-001", factors, holding); err != nil {
		t.Fatalf("Failed to put analysis: %v", err)
	}

	retrieved, err := caseRepo.GetCase(ctx, "case-001")
	if err != nil {
		t.Fatalf("Failed to get case: %v", err)
	}
	if retrieved.Status != core.StatusAnalyzed {
		t.Fatalf("Expected analyzed status, got %v", retrieved.Status)
	}

	gotFactors, err := caseRepo.GetFactors(ctx, "case-001")
	if err != nil {
		t.Fatalf("Failed to get factors: %v", err)
	}
	if len(gotFactors) != 2 {
		t.Fatalf("Expected 2 factors, got %d", len(gotFactors))
	}

	gotHolding, err := caseRepo.GetHolding(ctx, "case-001")
	if err != nil {
		t.Fatalf("Failed to get holding: %v", err)
	}
	if gotHolding.Direction != core.DirectionForDefendant {
		t.Fatalf("Expected for_defendant direction, got %v", gotHolding.Direction)
	}

	count, err := caseRepo.CountAnalyzed(ctx)
	if err != nil {
		t.Fatalf("Failed to count analyzed: %v", err)
	}
	if count != 1 {
		t.Fatalf("Expected 1 analyzed case, got %d", count)
	}
}

func TestPutAnalysisNilHolding(t *testing.T) {
	caseRepo, citationRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { citationRepo.Close(); caseRepo.Close(); backend.Close() }()

	ctx := context.Background()

	if err := caseRepo.AddCases(ctx, newTestCase("case-001", "Smith v. Jones")); err != nil {
		t.Fatalf("Failed to add case: %v", err)
	}

	factors := []core.Factor{
		{CaseID: "case-001", Text: "some fact", Type: core.FactorFact, WeightToHolding: 1.0, CourtPosition: core.PositionUnclear},
	}
	if err := caseRepo.PutAnalysis(ctx, "case-001", factors, nil); err != nil {
		t.Fatalf("Failed to put analysis: %v", err)
	}

	_, err = caseRepo.GetHolding(ctx, "case-001")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for missing holding, got %v", err)
	}
}

func TestMarkAnalysisError(t *testing.T) {
	caseRepo, citationRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { citationRepo.Close(); caseRepo.Close(); backend.Close() }()

	ctx := context.Background()

	if err := caseRepo.AddCases(ctx, newTestCase("case-001", "Smith v. Jones")); err != nil {
		t.Fatalf("Failed to add case: %v", err)
	}
	if err := caseRepo.MarkAnalysisError(ctx, "case-001"); err != nil {
		t.Fatalf("Failed to mark error: %v", err)
	}

	retrieved, err := caseRepo.GetCase(ctx, "case-001")
	if err != nil {
		t.Fatalf("Failed to get case: %v", err)
	}
	if retrieved.Status != core.StatusError {
		t.Fatalf("Expected error status, got %v", retrieved.Status)
	}
}

func TestForEachFactorSetOrder(t *testing.T) {
	caseRepo, citationRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { citationRepo.Close(); caseRepo.Close(); backend.Close() }()

	ctx := context.Background()

	// Insert out of order; scans must still come back ID ascending.
	ids := []core.CaseID{"case-003", "case-001", "case-005", "case-002", "case-004"}
	for _, id := range ids {
		if err := caseRepo.AddCases(ctx, newTestCase(id, string(id))); err != nil {
			t.Fatalf("Failed to add case: %v", err)
		}
		factors := []core.Factor{
			{CaseID: id, Text: "factor for " + string(id), Type: core.FactorConcept, WeightToHolding: 1.0, CourtPosition: core.PositionUnclear},
		}
		if err := caseRepo.PutAnalysis(ctx, id, factors, nil); err != nil {
			t.Fatalf("Failed to put analysis: %v", err)
		}
	}

	var seen []core.CaseID
	var chunks int
	err = caseRepo.ForEachFactorSet(ctx, 2, func(sets []core.FactorSet) error {
		chunks++
		for _, set := range sets {
			seen = append(seen, set.CaseID)
			if len(set.Factors) != 1 {
				return fmt.Errorf("expected 1 factor for %s, got %d", set.CaseID, len(set.Factors))
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("ForEachFactorSet failed: %v", err)
	}

	if chunks != 3 {
		t.Fatalf("Expected 3 chunks, got %d", chunks)
	}
	expected := []core.CaseID{"case-001", "case-002", "case-003", "case-004", "case-005"}
	if len(seen) != len(expected) {
		t.Fatalf("Expected %d factor sets, got %d", len(expected), len(seen))
	}
	for i := range expected {
		if seen[i] != expected[i] {
			t.Fatalf("Expected %s at position %d, got %s", expected[i], i, seen[i])
		}
	}
}

func TestForEachFactorSetStopsOnError(t *testing.T) {
	caseRepo, citationRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { citationRepo.Close(); caseRepo.Close(); backend.Close() }()

	ctx := context.Background()

	for _, id := range []core.CaseID{"case-001", "case-002", "case-003"} {
		if err := caseRepo.AddCases(ctx, newTestCase(id, string(id))); err != nil {
			t.Fatalf("Failed to add case: %v", err)
		}
		factors := []core.Factor{
			{CaseID: id, Text: "f", Type: core.FactorConcept, WeightToHolding: 1.0, CourtPosition: core.PositionUnclear},
		}
		if err := caseRepo.PutAnalysis(ctx, id, factors, nil); err != nil {
			t.Fatalf("Failed to put analysis: %v", err)
		}
	}

	stop := errors.New("stop")
	calls := 0
	err = caseRepo.ForEachFactorSet(ctx, 1, func(sets []core.FactorSet) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) {
		t.Fatalf("Expected stop error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("Expected 1 call, got %d", calls)
	}
}

func TestFactorVectors(t *testing.T) {
	caseRepo, citationRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { citationRepo.Close(); caseRepo.Close(); backend.Close() }()

	ctx := context.Background()

	vectors, err := caseRepo.GetFactorVectors(ctx, "case-001")
	if err != nil {
		t.Fatalf("Unexpected error for missing vectors: %v", err)
	}
	if vectors != nil {
		t.Fatalf("Expected nil vectors, got %d", len(vectors))
	}

	put := [][]float32{{0.1, 0.2, 0.3}, {0.4, 0.5, 0.6}}
	if err := caseRepo.PutFactorVectors(ctx, "case-001", put); err != nil {
		t.Fatalf("Failed to put vectors: %v", err)
	}

	got, err := caseRepo.GetFactorVectors(ctx, "case-001")
	if err != nil {
		t.Fatalf("Failed to get vectors: %v", err)
	}
	if len(got) != 2 || len(got[0]) != 3 {
		t.Fatalf("Unexpected vector shape: %v", got)
	}
	if got[1][2] != 0.6 {
		t.Fatalf("Expected 0.6, got %f", got[1][2])
	}
}

func TestAnalyzedCaseIDsPaging(t *testing.T) {
	caseRepo, citationRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { citationRepo.Close(); caseRepo.Close(); backend.Close() }()

	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		id := core.CaseID(fmt.Sprintf("case-%03d", i))
		if err := caseRepo.AddCases(ctx, newTestCase(id, string(id))); err != nil {
			t.Fatalf("Failed to add case: %v", err)
		}
		factors := []core.Factor{
			{CaseID: id, Text: "f", Type: core.FactorConcept, WeightToHolding: 1.0, CourtPosition: core.PositionUnclear},
		}
		if err := caseRepo.PutAnalysis(ctx, id, factors, nil); err != nil {
			t.Fatalf("Failed to put analysis: %v", err)
		}
	}

	page1, err := caseRepo.AnalyzedCaseIDs(ctx, "", 2)
	if err != nil {
		t.Fatalf("Failed to page: %v", err)
	}
	if len(page1) != 2 || page1[0] != "case-001" || page1[1] != "case-002" {
		t.Fatalf("Unexpected first page: %v", page1)
	}

	page2, err := caseRepo.AnalyzedCaseIDs(ctx, page1[1], 2)
	if err != nil {
		t.Fatalf("Failed to page: %v", err)
	}
	if len(page2) != 2 || page2[0] != "case-003" {
		t.Fatalf("Unexpected second page: %v", page2)
	}

	page3, err := caseRepo.AnalyzedCaseIDs(ctx, page2[1], 2)
	if err != nil {
		t.Fatalf("Failed to page: %v", err)
	}
	if len(page3) != 1 || page3[0] != "case-005" {
		t.Fatalf("Unexpected last page: %v", page3)
	}
}

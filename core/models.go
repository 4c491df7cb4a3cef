package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// CaseID is the opaque, stable identifier of a court case.
// IDs are assigned by the collection pipeline and never change.
type CaseID string

// ContentHash generates a deterministic 64-bit hash from text content using BLAKE2b.
// It is used for embedding-cache keys and citation edge identifiers, so that
// identical content always maps to the same key.
func ContentHash(text string) uint64 {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return binary.LittleEndian.Uint64(sum)
}

// AnalysisStatus tracks whether a case has been through factor extraction.
type AnalysisStatus int

const (
	// StatusUnanalyzed means factor extraction has not run for the case.
	StatusUnanalyzed AnalysisStatus = iota + 1
	// StatusAnalyzed means factors and a holding are available.
	StatusAnalyzed
	// StatusError means factor extraction was attempted and failed.
	StatusError
)

// Direction classifies a holding or a scorer verdict relative to the defendant.
type Direction string

const (
	DirectionForDefendant     Direction = "for_defendant"
	DirectionAgainstDefendant Direction = "against_defendant"
	DirectionMixed            Direction = "mixed"
	DirectionUnclear          Direction = "unclear"
)

// Polarity is the directional filter derived from a query.
type Polarity string

const (
	PolarityForDefendant Polarity = "for_defendant"
	PolarityPlaintiff    Polarity = "plaintiff_favor"
	PolarityNeutral      Polarity = "neutral"
	PolarityNone         Polarity = "none"
)

// CourtPosition records how the court treated a factor.
type CourtPosition string

const (
	PositionForDefendant     CourtPosition = "for_defendant"
	PositionAgainstDefendant CourtPosition = "against_defendant"
	PositionNeutral          CourtPosition = "neutral"
	PositionMixed            CourtPosition = "mixed"
	PositionUnclear          CourtPosition = "unclear"
)

// FactorType categorizes an extracted factor.
type FactorType string

const (
	FactorConcept        FactorType = "concept"
	FactorFact           FactorType = "fact"
	FactorLegalPrinciple FactorType = "legal_principle"
)

// Case is a collected court case. The opinion text and metadata are produced
// by the collection pipeline; this module only reads them.
type Case struct {
	ID           CaseID
	Name         string
	Citation     string
	CourtName    string
	DecisionDate time.Time
	OpinionText  string
	Status       AnalysisStatus
	InsertedAt   time.Time
	UpdatedAt    time.Time
}

// Factor is an atomic legal principle, concept, or fact extracted from a case
// opinion, weighted by its importance to the outcome. The weights of one case
// are independent importances and are not required to sum to 1.
type Factor struct {
	CaseID          CaseID
	Text            string
	Type            FactorType
	WeightToHolding float32 // in [0,1]
	CourtPosition   CourtPosition
}

// Holding is the ultimate ruling of a case and its directional classification.
type Holding struct {
	CaseID     CaseID
	Text       string
	Direction  Direction
	Confidence float32 // in [0,1]
}

// Citation is a directed edge from a citing case to a cited case.
// CitedCaseID may reference a case that was never collected.
type Citation struct {
	CitingCaseID CaseID
	CitedCaseID  CaseID
	Text         string
	Context      string
}

// QueryFactor is one weighted legal principle decomposed from a search query.
// The factors of one query carry weights summing to 1.0.
type QueryFactor struct {
	Text   string
	Weight float32
}

// DecomposedQuery is the structured form of a raw search query.
type DecomposedQuery struct {
	Premise  string
	Factors  []QueryFactor
	Polarity Polarity
}

// Stage identifies which pipeline stage produced a candidate score.
type Stage string

const (
	StageLexical Stage = "lexical"
	StageVector  Stage = "vector"
	StagePrecise Stage = "precise"
)

// CandidateScore is an ephemeral per-request score for one case. A case may
// acquire scores from several stages; only the last stage's score survives
// into the final ranking.
type CandidateScore struct {
	CaseID CaseID
	Score  float32 // in [0,1]
	Stage  Stage
}

// FactorSet groups the factors of one case for batch scoring.
type FactorSet struct {
	CaseID  CaseID
	Factors []Factor
}

// CitingCase is a citation-graph annotation attached to a search result:
// a case that cites the result, with the citation context.
type CitingCase struct {
	CaseID   CaseID
	Name     string
	Citation string
	Context  string
}

// SearchResult is one ranked case in a search response.
type SearchResult struct {
	CaseID           CaseID
	Case             *Case
	Score            float32
	Stage            Stage
	HoldingDirection Direction
	CitingCases      []CitingCase
}

// SearchResponse is the full answer to one search request. Partial is set
// whenever any stage degraded (scorer failures, embedding outage, deadline).
type SearchResponse struct {
	Results []*SearchResult
	Count   int
	Partial bool
}

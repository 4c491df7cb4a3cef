package search

import "github.com/veridict/caselaw/core"

// SearchMonitor provides hooks to observe the retrieval funnel.
// Implement this interface to track intermediate stages during a search.
type SearchMonitor interface {
	Start(query string)
	AfterDecomposition(decomposed *core.DecomposedQuery)
	AfterLexicalFilter(candidates []core.CandidateScore)
	AfterVectorFilter(candidates []core.CandidateScore)
	VectorFilterDegraded()
	BatchScored(caseIDs []core.CaseID, err error)
	EarlyTermination(highConfidence int)
	AfterPreciseRanking(candidates []core.CandidateScore)
	Finish(response *core.SearchResponse)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                                {}
func (n *noopMonitor) AfterDecomposition(_ *core.DecomposedQuery)    {}
func (n *noopMonitor) AfterLexicalFilter(_ []core.CandidateScore)    {}
func (n *noopMonitor) AfterVectorFilter(_ []core.CandidateScore)     {}
func (n *noopMonitor) VectorFilterDegraded()                         {}
func (n *noopMonitor) BatchScored(_ []core.CaseID, _ error)          {}
func (n *noopMonitor) EarlyTermination(_ int)                        {}
func (n *noopMonitor) AfterPreciseRanking(_ []core.CandidateScore)   {}
func (n *noopMonitor) Finish(_ *core.SearchResponse)                 {}

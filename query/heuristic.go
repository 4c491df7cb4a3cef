package query

import (
	"fmt"
	"strings"

	"github.com/veridict/caselaw/core"
)

// legalTerm pairs a trigger phrase with the contextual factor text it
// expands to. Terms are checked in order so heuristic output is stable.
type legalTerm struct {
	trigger string
	factor  string
}

var legalTerms = []legalTerm{
	{
		trigger: "probable cause",
		factor:  "The legal principle that probable cause is required for searches and seizures applies in cases where defendants were charged but the prosecution lacked probable cause to support the charge.",
	},
	{
		trigger: "sufficient evidence",
		factor:  "The legal principle that sufficient evidence is required for conviction applies in cases where defendants were charged but the prosecution lacked sufficient evidence to establish the elements of the crime.",
	},
	{
		trigger: "lack of evidence",
		factor:  "The legal principle that sufficient evidence is required for conviction applies in cases where defendants were charged but the prosecution lacked sufficient evidence to establish the elements of the crime.",
	},
	{
		trigger: "stolen",
		factor:  "The legal principle that knowledge of stolen property is required for conviction applies in cases involving stolen property where the defendant's knowledge of the property's stolen status is at issue.",
	},
	{
		trigger: "motor vehicle",
		factor:  "The legal principle that knowing possession of a stolen motor vehicle requires proof of the defendant's knowledge applies in cases involving stolen motor vehicles.",
	},
	{
		trigger: "self-defense",
		factor:  "The legal principle that self-defense justifies otherwise unlawful force applies in cases where the defendant claims the use of force was necessary to prevent imminent harm.",
	},
	{
		trigger: "negligence",
		factor:  "The legal principle that negligence requires a breach of a duty of care causing harm applies in cases where liability turns on whether the defendant's conduct fell below the required standard.",
	},
}

var defendantKeywords = []string{"defendant", "accused", "charged"}
var plaintiffKeywords = []string{"plaintiff", "prosecution"}

var conjunctions = []string{" and ", " but ", " while ", " where ", "; "}

// HeuristicDecompose breaks a query into factors without any external call.
// Known legal phrases expand into contextual principle statements; the rest
// of the query is split on conjunctions. Output is deterministic for a
// given query string.
func HeuristicDecompose(rawQuery string) *core.DecomposedQuery {
	lower := strings.ToLower(rawQuery)

	var factors []core.QueryFactor
	for _, term := range legalTerms {
		if !strings.Contains(lower, term.trigger) {
			continue
		}
		factors = append(factors, core.QueryFactor{
			Text: fmt.Sprintf("%s The query asks: %q", term.factor, rawQuery),
		})
		if len(factors) == FactorCount {
			break
		}
	}

	if len(factors) < FactorCount {
		for _, span := range splitOnConjunctions(rawQuery) {
			if len(factors) == FactorCount {
				break
			}
			factors = append(factors, core.QueryFactor{
				Text: fmt.Sprintf("The query raises the issue: %q, in the context of the full query %q", span, rawQuery),
			})
		}
	}

	for len(factors) < FactorCount {
		factors = append(factors, core.QueryFactor{
			Text: fmt.Sprintf("The query involves legal principles related to the charges, circumstances, and issues mentioned in: %q", rawQuery),
		})
	}

	for i := range factors {
		factors[i].Weight = 1.0 / FactorCount
	}

	return &core.DecomposedQuery{
		Premise:  rawQuery,
		Factors:  factors,
		Polarity: detectPolarity(lower),
	}
}

// detectPolarity infers the direction filter from query wording. Defendant
// keywords are checked first; queries naming neither side get no filter.
func detectPolarity(lowerQuery string) core.Polarity {
	for _, kw := range defendantKeywords {
		if strings.Contains(lowerQuery, kw) {
			return core.PolarityForDefendant
		}
	}
	for _, kw := range plaintiffKeywords {
		if strings.Contains(lowerQuery, kw) {
			return core.PolarityPlaintiff
		}
	}
	return core.PolarityNone
}

// splitOnConjunctions breaks a query into clause-sized spans. Spans shorter
// than a few words are discarded as noise.
func splitOnConjunctions(rawQuery string) []string {
	spans := []string{rawQuery}
	for _, conj := range conjunctions {
		var next []string
		for _, span := range spans {
			next = append(next, strings.Split(span, conj)...)
		}
		spans = next
	}

	var result []string
	for _, span := range spans {
		span = strings.TrimSpace(span)
		if len(strings.Fields(span)) >= 3 {
			result = append(result, span)
		}
	}
	return result
}

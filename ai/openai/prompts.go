package openai

import (
	"fmt"
	"strings"

	"github.com/veridict/caselaw/core"
)

const decomposeSystemPrompt = `You are a legal research assistant. Always return valid JSON. ` +
	`Extract the distinct legal principles from the query with full context. Each factor must be ` +
	`self-contained and state the legal principle in the context mentioned in the query, using the ` +
	`query's exact wording. Do not assume what the user is searching for beyond what the query states.`

const decomposePromptTemplate = `Extract the three most important legal principles from the following search query.

Query: "%s"

Rules:
- Each factor MUST be a legal principle stated with the context from the query (charges, circumstances, legal issues mentioned).
- Each factor MUST be completely self-contained and readable WITHOUT the original query.
- USE THE EXACT VERBIAGE FROM THE QUERY - do not rephrase or assume specifics that are not explicitly stated.
- Each factor should be a complete sentence of roughly 20-40 words.
- Assign each factor a weight in [0,1] reflecting its importance to the query. Weights should sum to 1.0.
- Also restate the query as a one-sentence premise, and classify the polarity: whether the user wants cases favorable to the defendant, to the plaintiff, or neutral.

Return JSON in exactly this format:
{
    "premise": "one-sentence restatement of the query",
    "polarity": "for_defendant" or "plaintiff_favor" or "neutral",
    "factors": [
        {"text": "legal principle with full query context", "weight": 0.5},
        {"text": "...", "weight": 0.3},
        {"text": "...", "weight": 0.2}
    ]
}`

const scoreSystemPrompt = `You are a legal research assistant helping a lawyer find relevant cases. ` +
	`Be EXTREMELY selective - your selectivity must be visible in the scores you assign. If legal ` +
	`principles are fundamentally different, give VERY LOW scores (0.00-0.05). If they are somewhat ` +
	`related, give LOW scores (0.05-0.20). Only give high scores (0.50+) for closely related legal ` +
	`principles. Return only valid JSON.`

const scorePromptHeader = `You are evaluating whether a lawyer conducting legal research would be interested in each of the following cases, based on the legal principles they are researching.

Research premise:
%s

Legal principles the lawyer is researching (with their importance weights):
%s

For EACH case below, score how closely its legal principles match the lawyer's research:
- Fundamentally different principles: 0.00-0.05
- Somewhat related: 0.05-0.20
- Closely related: 0.20-0.50
- Same or nearly identical: 0.50-1.0
Most cases should score VERY LOW (0.00-0.05). Also classify each case's outcome direction when the factors make it clear: "for_defendant", "against_defendant", "mixed", or "unclear".

Return JSON in exactly this format:
{
    "scores": [
        {"case_id": "...", "similarity_score": 0.85, "direction": "for_defendant"},
        ...
    ]
}
Include exactly one entry per case, using the case_id given.

Cases:
`

// buildDecomposePrompt renders the decomposition prompt for one query.
func buildDecomposePrompt(query string) string {
	return fmt.Sprintf(decomposePromptTemplate, query)
}

// buildScorePrompt renders the batch scoring prompt for one scorer call.
func buildScorePrompt(premise string, factors []core.QueryFactor, batch []core.FactorSet) string {
	var qb strings.Builder
	for _, f := range factors {
		fmt.Fprintf(&qb, "- (weight %.2f) %s\n", f.Weight, f.Text)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, scorePromptHeader, premise, qb.String())
	for _, set := range batch {
		fmt.Fprintf(&sb, "\ncase_id: %s\nLegal principles from the case:\n", set.CaseID)
		for _, f := range set.Factors {
			fmt.Fprintf(&sb, "- (weight %.2f) %s\n", f.WeightToHolding, f.Text)
		}
	}
	return sb.String()
}

package prioritize

import (
	"context"
	"fmt"
	"math"

	"github.com/kmatsuda/userscope/internal/llm"
	"github.com/kmatsuda/userscope/internal/research"
)

type jtbdPayload struct {
	JobStatement     string  `json:"job_statement"`
	Importance       float64 `json:"importance"`
	Satisfaction     float64 `json:"satisfaction"`
	OpportunityScore float64 `json:"opportunity_score"`
	Category         string  `json:"category"`
	Reasoning        string  `json:"reasoning"`
}

// scoreJTBD asks the reasoning collaborator for a JTBD assessment and
// recomputes the opportunity score and category locally. Unreachable or
// unparsable responses degrade to the conservative default (importance 7,
// satisfaction 3, score 11, underserved).
func (e *Engine) scoreJTBD(ctx context.Context, pp research.PainPoint, problemStatement, targetUsers string) JTBDScore {
	prompt := jtbdPrompt(pp, problemStatement, targetUsers)
	raw, err := e.client.Complete(ctx, "jtbd-score", prompt)
	if err != nil {
		e.log.Warn().Err(err).Str("pain_point", pp.Description).Msg("jtbd scoring degraded to default")
		return defaultJTBD(pp)
	}

	var payload jtbdPayload
	if !llm.ExtractObject(raw, &payload) {
		e.log.Warn().Str("pain_point", pp.Description).Msg("jtbd response unparsable, using default")
		return defaultJTBD(pp)
	}

	importance := clamp(payload.Importance, 0, 10)
	satisfaction := clamp(payload.Satisfaction, 0, 10)
	score := opportunityScore(importance, satisfaction)
	category := CategorizeOpportunity(score)

	if math.Abs(score-payload.OpportunityScore) > 1e-9 || string(category) != payload.Category {
		e.log.Debug().
			Float64("echoed_score", payload.OpportunityScore).
			Float64("recomputed_score", score).
			Str("echoed_category", payload.Category).
			Msg("collaborator jtbd echo disagreed with recomputation")
	}

	return JTBDScore{
		JobStatement:     payload.JobStatement,
		Importance:       importance,
		Satisfaction:     satisfaction,
		OpportunityScore: score,
		Category:         category,
		Reasoning:        payload.Reasoning,
	}
}

func opportunityScore(importance, satisfaction float64) float64 {
	return importance + math.Max(importance-satisfaction, 0)
}

func defaultJTBD(pp research.PainPoint) JTBDScore {
	return JTBDScore{
		JobStatement:     fmt.Sprintf("When users face %s, they want a solution", pp.Description),
		Importance:       7.0,
		Satisfaction:     3.0,
		OpportunityScore: 11.0,
		Category:         Underserved,
		Reasoning:        "Default scoring due to parsing error",
		Degraded:         true,
	}
}

func jtbdPrompt(pp research.PainPoint, problemStatement, targetUsers string) string {
	return fmt.Sprintf(`You are a product strategist using the Jobs-to-be-Done framework.

Problem Statement: %s
Target Users: %s
Pain Point: %s
User Quote: %q
Severity: %s

Your task:
1. Write a JTBD statement: "When [situation], [user] wants to [motivation], so they can [outcome]"
2. Rate IMPORTANCE (0-10): How critical is this job to the user?
3. Rate SATISFACTION (0-10): How well are current solutions satisfying this need?
4. Calculate OPPORTUNITY SCORE = Importance + max(Importance - Satisfaction, 0)
5. Categorize: underserved (score > 10), wellserved (8-10), or overserved (< 8)
6. Explain your reasoning

Return as JSON:
{
  "job_statement": "When users...",
  "importance": 8.5,
  "satisfaction": 2.0,
  "opportunity_score": 15.0,
  "category": "underserved",
  "reasoning": "This job is critical because..."
}`, problemStatement, targetUsers, pp.Description, pp.Quote, pp.Severity)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

package prioritize

import (
	"context"
	"fmt"
	"strings"

	"github.com/kmatsuda/userscope/internal/llm"
	"github.com/kmatsuda/userscope/internal/research"
)

var blockingWords = []string{"can't", "unable", "impossible", "blocks", "prevents", "stuck"}

type effortPayload struct {
	UIFrontend     float64 `json:"ui_frontend"`
	BackendAPI     float64 `json:"backend_api"`
	Infrastructure float64 `json:"infrastructure"`
	TestingQA      float64 `json:"testing_qa"`
	TotalEffort    float64 `json:"total_effort"`
	Rationale      string  `json:"rationale"`
}

// scoreRICE computes the four RICE factors for one pain point. Reach comes
// from the market estimator, impact and confidence from fixed rules, effort
// from the reasoning collaborator with a conservative default on failure.
func (e *Engine) scoreRICE(ctx context.Context, pp research.PainPoint, problemStatement, targetUsers string, jtbd JTBDScore) RICEScore {
	est := e.market.EstimateReach(problemStatement, targetUsers, pp.Frequency, e.numComments, string(pp.Severity))

	impact := estimateImpact(string(pp.Severity), jtbd.Importance, pp.Quote)
	confidence := estimateConfidence(pp.Frequency, e.numSources, string(pp.Severity))
	effort, breakdown := e.estimateEffort(ctx, pp, problemStatement)

	return RICEScore{
		Reach:              est.Reach,
		ReachJustification: est.Justification,
		Impact:             impact,
		ImpactReasoning:    impactReasoning(string(pp.Severity), jtbd.Importance, impact, pp.Quote),
		Confidence:         confidence,
		ConfidenceBasis:    confidenceBasis(pp.Frequency, confidence),
		Effort:             effort,
		EffortBreakdown:    breakdown,
		RICEScore:          riceScore(est.Reach, impact, confidence, effort),
	}
}

// riceScore is reach × impact × confidence / effort, defined as 0 for
// non-positive effort rather than dividing.
func riceScore(reach int64, impact, confidence, effort float64) float64 {
	if effort <= 0 {
		return 0
	}
	return float64(reach) * impact * confidence / effort
}

// estimateImpact derives the impact multiplier, clamped to [0.25, 3.0].
func estimateImpact(severity string, importance float64, quote string) float64 {
	base := 1.0
	switch severity {
	case "High":
		base = 2.0
	case "Low":
		base = 0.5
	}

	importanceMult := 1.0
	switch {
	case importance >= 9.0:
		importanceMult = 1.5
	case importance >= 7.0:
		importanceMult = 1.2
	}

	quoteMult := 1.0
	lower := strings.ToLower(quote)
	for _, w := range blockingWords {
		if strings.Contains(lower, w) {
			quoteMult = 1.2
			break
		}
	}

	return clamp(base*importanceMult*quoteMult, 0.25, 3.0)
}

// estimateConfidence derives confidence in [0,1] from evidence volume.
func estimateConfidence(frequency, numSources int, severity string) float64 {
	var freqConf float64
	switch {
	case frequency >= 10:
		freqConf = 0.95
	case frequency >= 5:
		freqConf = 0.85
	case frequency >= 3:
		freqConf = 0.75
	default:
		freqConf = 0.60
	}

	sourceMult := float64(numSources) / 3.0
	if sourceMult > 1.0 {
		sourceMult = 1.0
	}

	boost := 0.0
	if severity == "High" {
		boost = 0.05
	}

	conf := freqConf*sourceMult + boost
	if conf > 1.0 {
		conf = 1.0
	}
	return conf
}

// estimateEffort asks the collaborator for a person-months estimate; any
// failure degrades to the fixed conservative breakdown summing to 2.0.
func (e *Engine) estimateEffort(ctx context.Context, pp research.PainPoint, problemStatement string) (float64, map[string]float64) {
	raw, err := e.client.Complete(ctx, "effort-estimate", effortPrompt(pp, problemStatement))
	if err != nil {
		e.log.Warn().Err(err).Str("pain_point", pp.Description).Msg("effort estimation degraded to default")
		return defaultEffort()
	}

	var payload effortPayload
	if !llm.ExtractObject(raw, &payload) {
		e.log.Warn().Str("pain_point", pp.Description).Msg("effort response unparsable, using default")
		return defaultEffort()
	}

	breakdown := map[string]float64{
		"UI/Frontend":    orDefault(payload.UIFrontend, 0.5),
		"Backend/API":    orDefault(payload.BackendAPI, 1.0),
		"Infrastructure": orDefault(payload.Infrastructure, 0.3),
		"Testing & QA":   orDefault(payload.TestingQA, 0.3),
	}

	total := payload.TotalEffort
	if total <= 0 {
		for _, v := range breakdown {
			total += v
		}
	}
	return total, breakdown
}

func defaultEffort() (float64, map[string]float64) {
	return 2.0, map[string]float64{
		"UI/Frontend":    0.5,
		"Backend/API":    1.0,
		"Infrastructure": 0.3,
		"Testing & QA":   0.2,
	}
}

func orDefault(v, def float64) float64 {
	if v <= 0 {
		return def
	}
	return v
}

func impactReasoning(severity string, importance, impact float64, quote string) string {
	level := "LOW"
	switch {
	case impact >= 2.0:
		level = "HIGH"
	case impact >= 1.0:
		level = "MEDIUM"
	}
	if len(quote) > 100 {
		quote = quote[:100]
	}
	return fmt.Sprintf(`**Impact: %.1f**

- Severity: %s
- JTBD Importance: %g/10
- User Quote: "%s..."

This pain point has %s impact on user experience.`, impact, severity, importance, quote, level)
}

func confidenceBasis(frequency int, confidence float64) string {
	return fmt.Sprintf(`**Confidence: %.0f%%**

- Mentioned %dx in research
- Data from multiple sources
- Consistent pattern across discussions`, confidence*100, frequency)
}

func effortPrompt(pp research.PainPoint, problemStatement string) string {
	return fmt.Sprintf(`You are a technical product manager estimating implementation effort.

Problem: %s
Pain Point to Solve: %s

Estimate effort in person-months for these components:
1. UI/Frontend work
2. Backend/API development
3. Infrastructure/DevOps
4. Testing & QA

Consider:
- Simple UI changes = 0.1-0.5 months
- API integrations = 0.5-2 months
- New services = 2-4 months
- ML/AI features = 4-6 months

Return as JSON:
{
  "ui_frontend": 0.5,
  "backend_api": 1.5,
  "infrastructure": 0.5,
  "testing_qa": 0.5,
  "total_effort": 3.0,
  "rationale": "Brief explanation"
}`, problemStatement, pp.Description)
}

// Package prioritize scores and ranks pain points with a hybrid
// JTBD + RICE + persona-alignment model.
package prioritize

import (
	"github.com/kmatsuda/userscope/internal/market"
	"github.com/kmatsuda/userscope/internal/research"
)

// OpportunityCategory classifies a JTBD opportunity score.
type OpportunityCategory string

const (
	Underserved OpportunityCategory = "underserved"
	WellServed  OpportunityCategory = "wellserved"
	Overserved  OpportunityCategory = "overserved"
)

// CategorizeOpportunity maps an opportunity score to its category:
// underserved above 10, wellserved in [8,10], overserved below 8.
func CategorizeOpportunity(score float64) OpportunityCategory {
	switch {
	case score > 10:
		return Underserved
	case score >= 8:
		return WellServed
	default:
		return Overserved
	}
}

// JTBDScore is the Jobs-to-be-Done assessment of one pain point.
// OpportunityScore is always recomputed as importance + max(importance −
// satisfaction, 0); the collaborator's echo is never trusted.
type JTBDScore struct {
	JobStatement     string              `json:"job_statement"`
	Importance       float64             `json:"importance"`
	Satisfaction     float64             `json:"satisfaction"`
	OpportunityScore float64             `json:"opportunity_score"`
	Category         OpportunityCategory `json:"category"`
	Reasoning        string              `json:"reasoning"`
	Degraded         bool                `json:"degraded,omitempty"`
}

// RICEScore carries the four RICE factors plus their explanations.
type RICEScore struct {
	Reach              int64              `json:"reach"`
	ReachJustification string             `json:"reach_justification"`
	Impact             float64            `json:"impact"`
	ImpactReasoning    string             `json:"impact_reasoning"`
	Confidence         float64            `json:"confidence"`
	ConfidenceBasis    string             `json:"confidence_basis"`
	Effort             float64            `json:"effort"`
	EffortBreakdown    map[string]float64 `json:"effort_breakdown"`
	RICEScore          float64            `json:"rice_score"`
}

// AffinityLevel is a persona's affinity for a pain point.
type AffinityLevel string

const (
	AffinityVeryHigh AffinityLevel = "VERY HIGH"
	AffinityHigh     AffinityLevel = "HIGH"
	AffinityMedium   AffinityLevel = "MEDIUM"
	AffinityLow      AffinityLevel = "LOW"
)

var affinityScores = map[AffinityLevel]float64{
	AffinityVeryHigh: 10,
	AffinityHigh:     7,
	AffinityMedium:   4,
	AffinityLow:      1,
}

// PersonaAlignment measures how strongly the synthesized personas are
// affected by a pain point.
type PersonaAlignment struct {
	AffectedPersonas []string                 `json:"affected_personas"`
	Coverage         float64                  `json:"coverage"`
	Affinities       map[string]AffinityLevel `json:"affinities"`
	Weight           float64                  `json:"weight"`
}

// MarketBlock is the market evidence attached to a justification.
type MarketBlock struct {
	TAM           string   `json:"tam"`
	SAM           string   `json:"sam"`
	SOM           string   `json:"som"`
	MarketSizeUSD int64    `json:"market_size_usd"`
	GrowthRate    string   `json:"growth_rate"`
	MarketGap     string   `json:"market_gap"`
	Sources       []string `json:"sources"`
}

// Justification is the evidence package behind one ranking decision.
type Justification struct {
	WhyTopPriority string      `json:"why_top_priority"`
	Evidence       []string    `json:"evidence"`
	MarketData     MarketBlock `json:"market_data"`
	QuoteSamples   []string    `json:"quote_samples"`
}

// PrioritizedPainPoint aggregates one pain point with its full scoring.
type PrioritizedPainPoint struct {
	PainPointID      string             `json:"pain_point_id"`
	Description      string             `json:"description"`
	OriginalSeverity research.Severity  `json:"original_severity"`
	PriorityRank     int                `json:"priority_rank"`
	FinalScore       float64            `json:"final_score"`
	JTBD             JTBDScore          `json:"jtbd"`
	RICE             RICEScore          `json:"rice"`
	PersonaAlignment PersonaAlignment   `json:"persona_alignment"`
	Justification    Justification      `json:"justification"`
	MarketCategory   market.Category    `json:"market_category"`
}

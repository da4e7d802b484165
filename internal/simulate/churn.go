package simulate

import (
	"math"
	"strings"
)

// frustrationWeights is the built-in churn weight per named event.
var frustrationWeights = map[string]float64{
	"long_wait":           30,
	"feature_unavailable": 25,
	"error_encountered":   20,
	"retry_required":      10,
	"unexpected_cost":     15,
	"poor_quality":        20,
	"lack_of_feedback":    10,
	"driver_cancellation": 25,
	"no_availability":     30,
	"redirect_failure":    20,
	"slow_response":       15,
	"payment_failure":     35,
	"data_loss":           40,
	"security_concern":    50,
}

const defaultEventWeight = 15

// RiskLevel classifies a churn probability.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// RiskLevelFor maps a probability to its band: [0,30] LOW, (30,50] MEDIUM,
// (50,75] HIGH, (75,100] CRITICAL.
func RiskLevelFor(p float64) RiskLevel {
	switch {
	case p <= 30:
		return RiskLow
	case p <= 50:
		return RiskMedium
	case p <= 75:
		return RiskHigh
	default:
		return RiskCritical
	}
}

// FrustrationEvent is one observed negative occurrence. Severity is a
// multiplier, nominally in [0.5, 2.0]; non-positive values are treated as
// 1.0.
type FrustrationEvent struct {
	Event    string  `json:"event"`
	Severity float64 `json:"severity"`
}

// EventRisk records how much risk one event contributed.
type EventRisk struct {
	Event     string  `json:"event"`
	RiskAdded float64 `json:"risk_added"`
}

// Adjustment is one named contextual churn adjustment.
type Adjustment struct {
	Factor     string  `json:"factor"`
	Adjustment float64 `json:"adjustment"`
}

// StepContext is the situation surrounding a churn calculation.
type StepContext struct {
	CurrentStep           string  `json:"current_step,omitempty"`
	TimeInvestedSeconds   float64 `json:"time_invested_seconds"`
	Urgency               string  `json:"urgency,omitempty"`
	AlternativesAvailable bool    `json:"alternatives_available"`
	FailureCount          int     `json:"failure_count"`
}

// ChurnAnalysis is the full breakdown of one churn calculation.
type ChurnAnalysis struct {
	BaseRisk              float64      `json:"base_risk"`
	FrustrationEvents     []EventRisk  `json:"frustration_events"`
	FormulaRisk           float64      `json:"formula_risk"`
	PatienceMultiplier    float64      `json:"patience_multiplier"`
	CalculatedRisk        float64      `json:"calculated_risk"`
	AIAdjustments         []Adjustment `json:"ai_adjustments"`
	FinalChurnProbability float64      `json:"final_churn_probability"`
	RiskLevel             RiskLevel    `json:"risk_level"`
	Reasoning             string       `json:"reasoning"`
}

// Calculator computes churn probability for one virtual user. The weight
// table is closed at construction; domain-specific events are supplied
// up front, never added at runtime.
type Calculator struct {
	user       VirtualUser
	weights    map[string]float64
	multiplier float64
}

// NewCalculator builds a Calculator for the user, merging any extra
// domain-specific event weights into a private copy of the built-in table.
func NewCalculator(user VirtualUser, extraWeights map[string]float64) *Calculator {
	weights := make(map[string]float64, len(frustrationWeights)+len(extraWeights))
	for k, v := range frustrationWeights {
		weights[k] = v
	}
	for k, v := range extraWeights {
		weights[k] = v
	}
	return &Calculator{user: user, weights: weights, multiplier: user.PatienceLevel.Multiplier()}
}

// Calculate runs the two-layer churn model: the formula layer (event
// weights, user triggers, patience multiplier) plus the externally supplied
// contextual adjustment, clamped to [0,100].
func (c *Calculator) Calculate(events []FrustrationEvent, ctx StepContext, aiAdjustment float64) ChurnAnalysis {
	baseRisk := c.user.BaseChurnRisk

	frustrationRisk := 0.0
	details := []EventRisk{}
	for _, ev := range events {
		severity := ev.Severity
		if severity <= 0 {
			severity = 1.0
		}
		weight, ok := c.weights[ev.Event]
		if !ok {
			weight = defaultEventWeight
		}
		added := weight * severity
		frustrationRisk += added
		details = append(details, EventRisk{Event: ev.Event, RiskAdded: added})
	}

	for _, trigger := range c.user.FrustrationTriggers {
		for _, ev := range events {
			if ev.Event == trigger.Trigger {
				frustrationRisk += trigger.Impact
				details = append(details, EventRisk{Event: trigger.Trigger + "_user_specific", RiskAdded: trigger.Impact})
				break
			}
		}
	}

	formulaRisk := baseRisk + frustrationRisk
	calculatedRisk := formulaRisk * c.multiplier

	adjustments := decomposeAdjustment(ctx, aiAdjustment)

	final := calculatedRisk + aiAdjustment
	final = math.Min(math.Max(final, 0), 100)

	level := RiskLevelFor(final)
	return ChurnAnalysis{
		BaseRisk:              baseRisk,
		FrustrationEvents:     details,
		FormulaRisk:           formulaRisk,
		PatienceMultiplier:    c.multiplier,
		CalculatedRisk:        calculatedRisk,
		AIAdjustments:         adjustments,
		FinalChurnProbability: final,
		RiskLevel:             level,
		Reasoning:             churnReasoning(level, details, adjustments),
	}
}

// decomposeAdjustment explains the supplied total adjustment as named
// factors. The residual "other_context" term absorbs whatever the named
// factors do not account for, keeping the decomposition exhaustive; its
// sign is unrestricted.
func decomposeAdjustment(ctx StepContext, total float64) []Adjustment {
	adjustments := []Adjustment{}

	if ctx.TimeInvestedSeconds > 0 {
		sunkCost := math.Min(-10, -(ctx.TimeInvestedSeconds/60)*3)
		adjustments = append(adjustments, Adjustment{Factor: "sunk_cost_effect", Adjustment: sunkCost})
	}

	switch ctx.Urgency {
	case "high":
		adjustments = append(adjustments, Adjustment{Factor: "high_urgency", Adjustment: -5})
	case "low":
		adjustments = append(adjustments, Adjustment{Factor: "low_urgency", Adjustment: 10})
	}

	if ctx.AlternativesAvailable {
		adjustments = append(adjustments, Adjustment{Factor: "easy_alternatives", Adjustment: 10})
	}

	if ctx.FailureCount == 1 {
		adjustments = append(adjustments, Adjustment{Factor: "first_failure", Adjustment: -5})
	} else if ctx.FailureCount >= 3 {
		adjustments = append(adjustments, Adjustment{Factor: "repeated_failures", Adjustment: 15})
	}

	accounted := 0.0
	for _, a := range adjustments {
		accounted += a.Adjustment
	}
	if math.Abs(total-accounted) > 0.1 {
		adjustments = append(adjustments, Adjustment{Factor: "other_context", Adjustment: total - accounted})
	}

	return adjustments
}

// churnReasoning picks a template per risk level, naming the largest
// frustration contributor and the largest-magnitude context factor. Ties
// keep the first occurrence.
func churnReasoning(level RiskLevel, events []EventRisk, adjustments []Adjustment) string {
	mainEvent := "general friction"
	if len(events) > 0 {
		best := events[0]
		for _, e := range events[1:] {
			if e.RiskAdded > best.RiskAdded {
				best = e
			}
		}
		mainEvent = best.Event
	}

	mainFactor := "user patience"
	if len(adjustments) > 0 {
		best := adjustments[0]
		for _, a := range adjustments[1:] {
			if math.Abs(a.Adjustment) > math.Abs(best.Adjustment) {
				best = a
			}
		}
		mainFactor = best.Factor
	}

	switch level {
	case RiskLow:
		return "Low churn risk. User is experiencing " + mainEvent + " but " + mainFactor + " keeps them engaged."
	case RiskMedium:
		return "Medium churn risk. " + titleWords(mainEvent) + " is causing frustration. User will likely try one more alternative before giving up completely."
	case RiskHigh:
		return "High churn risk. Significant frustration from " + mainEvent + ". User is close to abandoning the product entirely. " + titleWords(mainFactor) + " is the deciding factor."
	default:
		return "Critical churn risk. Multiple failures including " + mainEvent + " have exhausted user patience. Immediate intervention needed to prevent churn."
	}
}

func titleWords(s string) string {
	words := strings.Split(strings.ReplaceAll(s, "_", " "), " ")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

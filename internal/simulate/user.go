// Package simulate drives virtual users through product journeys and
// computes bounded churn probability at every step.
package simulate

import (
	"context"
	"fmt"

	"github.com/kmatsuda/userscope/internal/llm"
	"github.com/kmatsuda/userscope/internal/logger"
)

// PatienceLevel grades how long a user tolerates friction.
type PatienceLevel string

const (
	PatienceLow    PatienceLevel = "low"
	PatienceMedium PatienceLevel = "medium"
	PatienceHigh   PatienceLevel = "high"
)

// Multiplier returns the churn multiplier bound to the patience level.
// Unknown levels use the medium multiplier.
func (p PatienceLevel) Multiplier() float64 {
	switch p {
	case PatienceLow:
		return 2.0
	case PatienceHigh:
		return 1.0
	default:
		return 1.5
	}
}

// Sensitivity is one thing the user cares about, on a 0-10 scale.
type Sensitivity struct {
	Name        string  `json:"name"`
	Level       float64 `json:"level"`
	Description string  `json:"description"`
}

// Trait is one behavioral characteristic, on a 0-10 scale.
type Trait struct {
	Name        string  `json:"name"`
	Value       float64 `json:"value"`
	Description string  `json:"description"`
}

// FrustrationTrigger names an event that adds extra churn risk for this
// specific user when observed.
type FrustrationTrigger struct {
	Trigger   string  `json:"trigger"`
	Threshold float64 `json:"threshold"`
	Impact    float64 `json:"impact"`
}

const defaultBaseChurnRisk = 10.0

// VirtualUser is a simulated user profile, read-only once created.
type VirtualUser struct {
	Name                string               `json:"name"`
	Age                 int                  `json:"age"`
	Occupation          string               `json:"occupation"`
	Location            string               `json:"location"`
	ProblemContext      string               `json:"problem_context"`
	PrimaryGoal         string               `json:"primary_goal"`
	Sensitivities       []Sensitivity        `json:"sensitivities"`
	Traits              []Trait              `json:"traits"`
	PatienceLevel       PatienceLevel        `json:"patience_level"`
	FrustrationTriggers []FrustrationTrigger `json:"frustration_triggers"`
	BaseChurnRisk       float64              `json:"base_churn_risk"`
}

type userPayload struct {
	Name                string               `json:"name"`
	Age                 int                  `json:"age"`
	Occupation          string               `json:"occupation"`
	Location            string               `json:"location"`
	ProblemContext      string               `json:"problem_context"`
	PrimaryGoal         string               `json:"primary_goal"`
	Sensitivities       []Sensitivity        `json:"sensitivities"`
	Traits              []Trait              `json:"traits"`
	PatienceLevel       string               `json:"patience_level"`
	FrustrationTriggers []FrustrationTrigger `json:"frustration_triggers"`
}

// GenerateVirtualUser builds a user profile from the problem statement via
// the reasoning collaborator. Any failure, including a patience level
// outside the enum, degrades to a conservative default profile.
func GenerateVirtualUser(ctx context.Context, client *llm.Client, log *logger.Logger, problemStatement, targetUsers string) VirtualUser {
	raw, err := client.Complete(ctx, "generate-virtual-user", userPrompt(problemStatement, targetUsers))
	if err != nil {
		log.Warn().Err(err).Msg("virtual user generation degraded to default profile")
		return defaultVirtualUser(problemStatement, targetUsers)
	}

	var payload userPayload
	if !llm.ExtractObject(raw, &payload) {
		log.Warn().Msg("virtual user response unparsable, using default profile")
		return defaultVirtualUser(problemStatement, targetUsers)
	}

	patience := PatienceLevel(payload.PatienceLevel)
	if payload.Name == "" || (patience != PatienceLow && patience != PatienceMedium && patience != PatienceHigh) {
		log.Warn().Str("patience_level", payload.PatienceLevel).Msg("virtual user payload invalid, using default profile")
		return defaultVirtualUser(problemStatement, targetUsers)
	}

	return VirtualUser{
		Name:                payload.Name,
		Age:                 payload.Age,
		Occupation:          payload.Occupation,
		Location:            payload.Location,
		ProblemContext:      payload.ProblemContext,
		PrimaryGoal:         payload.PrimaryGoal,
		Sensitivities:       payload.Sensitivities,
		Traits:              payload.Traits,
		PatienceLevel:       patience,
		FrustrationTriggers: payload.FrustrationTriggers,
		BaseChurnRisk:       defaultBaseChurnRisk,
	}
}

func defaultVirtualUser(problemStatement, targetUsers string) VirtualUser {
	return VirtualUser{
		Name:           "Typical User",
		Age:            30,
		Occupation:     "Professional",
		Location:       "Unknown",
		ProblemContext: fmt.Sprintf("Regularly affected by: %s", problemStatement),
		PrimaryGoal:    fmt.Sprintf("Solve the problem as one of: %s", targetUsers),
		Sensitivities: []Sensitivity{
			{Name: "time_sensitivity", Level: 6, Description: "Values time but willing to wait for value"},
			{Name: "price_sensitivity", Level: 6, Description: "Cost-conscious"},
		},
		Traits: []Trait{
			{Name: "tech_savvy", Value: 5, Description: "Average comfort with technology"},
			{Name: "patience", Value: 5, Description: "Average patience level"},
		},
		PatienceLevel: PatienceMedium,
		FrustrationTriggers: []FrustrationTrigger{
			{Trigger: "long_wait", Threshold: 5, Impact: 20},
		},
		BaseChurnRisk: defaultBaseChurnRisk,
	}
}

func userPrompt(problemStatement, targetUsers string) string {
	return fmt.Sprintf(`Create a realistic virtual user profile for testing this product.

**Problem Statement:** %s
**Target Users:** %s

Create a detailed user profile that represents a typical user for this product. Include:
1. Demographics (name, age, occupation, location)
2. Problem context (how this problem affects them)
3. Primary goal (what they want to achieve)
4. Sensitivities (what they care about most - price, time, quality, etc.) - rate each 0-10
5. Behavioral traits (patience, tech savvy, brand loyalty, etc.) - rate each 0-10
6. Frustration triggers (what would make them give up)

**RESPOND IN THIS EXACT JSON FORMAT:**
{
  "name": "Realistic name",
  "age": 28,
  "occupation": "Job title",
  "location": "City, Country",
  "problem_context": "How this problem affects their daily life",
  "primary_goal": "What they want to achieve",
  "sensitivities": [
    {"name": "price_sensitivity", "level": 8, "description": "Very price-conscious"},
    {"name": "time_sensitivity", "level": 6, "description": "Values time but willing to wait for value"}
  ],
  "traits": [
    {"name": "tech_savvy", "value": 7, "description": "Comfortable with apps and technology"},
    {"name": "patience", "value": 5, "description": "Average patience level"}
  ],
  "patience_level": "medium",
  "frustration_triggers": [
    {"trigger": "long_wait", "threshold": 5, "impact": 30},
    {"trigger": "unexpected_cost", "threshold": 50, "impact": 25}
  ]
}

IMPORTANT: "patience_level" MUST be exactly one of these three values: "low", "medium", or "high" (no other variations allowed).

Make the user realistic and specific to the problem domain.`, problemStatement, targetUsers)
}

package simulate

import (
	"context"
	"fmt"
	"strings"

	"github.com/kmatsuda/userscope/internal/llm"
	"github.com/kmatsuda/userscope/internal/logger"
)

// Decision is the outcome of one decision-point delegation.
type Decision struct {
	ChosenOptionID    string
	Reasoning         string
	ContextAdjustment float64
	EmotionalState    EmotionalState
}

// DecisionEngine delegates user choices at decision points to the
// reasoning collaborator.
type DecisionEngine struct {
	client *llm.Client
	log    *logger.Logger
}

func NewDecisionEngine(client *llm.Client, log *logger.Logger) *DecisionEngine {
	return &DecisionEngine{client: client, log: log.WithComponent("decision")}
}

type decisionPayload struct {
	ChosenOption       int     `json:"chosen_option"`
	Reasoning          string  `json:"reasoning"`
	EmotionalState     string  `json:"emotional_state"`
	ContextAdjustment  float64 `json:"context_adjustment"`
	ContextExplanation string  `json:"context_explanation"`
}

// Decide picks the option this user would realistically choose. Transport
// failures and unparsable responses fall back to the first option with a
// zero adjustment.
func (d *DecisionEngine) Decide(ctx context.Context, user VirtualUser, stepCtx StepContext, options []DecisionOption, currentChurn float64) Decision {
	raw, err := d.client.Complete(ctx, "user-decision", decisionPrompt(user, stepCtx, options, currentChurn))
	if err != nil {
		d.log.Warn().Err(err).Msg("decision degraded to first option")
		return Decision{
			ChosenOptionID: options[0].OptionID,
			Reasoning:      fmt.Sprintf("Fallback decision due to error: %v", err),
			EmotionalState: EmotionFrustrated,
		}
	}

	var payload decisionPayload
	if !llm.ExtractObject(raw, &payload) {
		d.log.Warn().Msg("decision response unparsable, using first option")
		reasoning := raw
		if len(reasoning) > 200 {
			reasoning = reasoning[:200]
		}
		return Decision{
			ChosenOptionID: options[0].OptionID,
			Reasoning:      reasoning,
			EmotionalState: EmotionNeutral,
		}
	}

	chosen := options[0].OptionID
	if idx := payload.ChosenOption - 1; idx >= 0 && idx < len(options) {
		chosen = options[idx].OptionID
	}

	adjustment := payload.ContextAdjustment
	if adjustment > 50 {
		adjustment = 50
	} else if adjustment < -50 {
		adjustment = -50
	}

	reasoning := payload.Reasoning
	if reasoning == "" {
		reasoning = "User chose this option based on their profile"
	}
	if payload.ContextExplanation != "" {
		reasoning += "\n\nContext Analysis: " + payload.ContextExplanation
	}

	return Decision{
		ChosenOptionID:    chosen,
		Reasoning:         reasoning,
		ContextAdjustment: adjustment,
		EmotionalState:    NormalizeEmotionalState(payload.EmotionalState),
	}
}

func decisionPrompt(user VirtualUser, stepCtx StepContext, options []DecisionOption, currentChurn float64) string {
	var sens strings.Builder
	for _, s := range user.Sensitivities {
		fmt.Fprintf(&sens, "  - %s: %g/10 - %s\n", s.Name, s.Level, s.Description)
	}
	var traits strings.Builder
	for _, t := range user.Traits {
		fmt.Fprintf(&traits, "  - %s: %g/10 - %s\n", t.Name, t.Value, t.Description)
	}
	var opts strings.Builder
	for i, o := range options {
		fmt.Fprintf(&opts, "%d. %s\n   Consequences: %s\n", i+1, o.Description, o.Consequences)
	}

	return fmt.Sprintf(`You are simulating the decision-making of a realistic user. Based on their profile and current situation, decide what they would most likely do.

**USER PROFILE:**
Name: %s
Age: %d
Occupation: %s
Location: %s

Problem Context: %s
Primary Goal: %s

Sensitivities (what they care about):
%s
Behavioral Traits:
%s
Patience Level: %s

**CURRENT SITUATION:**
  - current_step: %s
  - time_invested_seconds: %g
  - urgency: %s
  - alternatives_available: %t
  - failure_count: %d

Current Frustration/Churn Risk: %g%%

**AVAILABLE OPTIONS:**
%s
**YOUR TASK:**
1. Consider this user's profile, goals, and sensitivities
2. Evaluate the current situation and frustration level
3. Decide which option this user would REALISTICALLY choose
4. Explain the reasoning behind the decision

**RESPOND IN THIS EXACT JSON FORMAT:**
{
  "chosen_option": 1,
  "reasoning": "Detailed explanation of why this user would make this choice based on their profile",
  "emotional_state": "frustrated|annoyed|neutral|hopeful|satisfied|angry|delighted",
  "context_adjustment": -10,
  "context_explanation": "Why the context adjustment (e.g., 'High urgency reduces churn by -5%%, but easy alternatives increase it by +10%%, net -10%%')"
}

The context_adjustment should be a number between -50 and +50 representing how contextual factors affect churn probability beyond the base calculation. Consider:
- Sunk cost (time already invested): reduces churn (-5 to -15)
- Urgency (how badly they need this now): high urgency reduces churn (-5), low increases it (+10)
- Alternatives (other options available): increases churn (+5 to +15)
- Failure count (is this first failure or repeated?): first time reduces (-5), repeated increases (+10 to +20)
- Emotional investment: reduces churn (-5 to -10)

Be realistic. Users don't give up immediately, but they also have limits.`,
		user.Name, user.Age, user.Occupation, user.Location,
		user.ProblemContext, user.PrimaryGoal,
		sens.String(), traits.String(), user.PatienceLevel,
		stepCtx.CurrentStep, stepCtx.TimeInvestedSeconds, stepCtx.Urgency,
		stepCtx.AlternativesAvailable, stepCtx.FailureCount,
		currentChurn, opts.String())
}

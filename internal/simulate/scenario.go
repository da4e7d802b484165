package simulate

import (
	"context"
	"fmt"
	"strings"

	"github.com/kmatsuda/userscope/internal/llm"
	"github.com/kmatsuda/userscope/internal/logger"
)

// StepType names what happens in a journey step.
type StepType string

const (
	StepAction         StepType = "action"
	StepSystemResponse StepType = "system_response"
	StepDecisionPoint  StepType = "decision_point"
	StepError          StepType = "error"
	StepSuccess        StepType = "success"
)

// EmotionalState labels how the simulated user feels at a step.
type EmotionalState string

const (
	EmotionNeutral    EmotionalState = "neutral"
	EmotionSatisfied  EmotionalState = "satisfied"
	EmotionHopeful    EmotionalState = "hopeful"
	EmotionFrustrated EmotionalState = "frustrated"
	EmotionAnnoyed    EmotionalState = "annoyed"
	EmotionAngry      EmotionalState = "angry"
	EmotionDelighted  EmotionalState = "delighted"
)

// NormalizeEmotionalState maps a free string onto the fixed enum, defaulting
// to neutral.
func NormalizeEmotionalState(s string) EmotionalState {
	switch EmotionalState(strings.ToLower(s)) {
	case EmotionNeutral, EmotionSatisfied, EmotionHopeful, EmotionFrustrated, EmotionAnnoyed, EmotionAngry, EmotionDelighted:
		return EmotionalState(strings.ToLower(s))
	default:
		return EmotionNeutral
	}
}

// ScenarioType classifies a scenario template.
type ScenarioType string

const (
	ScenarioHappyPath ScenarioType = "happy_path"
	ScenarioEdgeCase  ScenarioType = "edge_case"
	ScenarioFailure   ScenarioType = "failure"
)

// DecisionOption is one choice offered at a decision point.
type DecisionOption struct {
	OptionID     string `json:"option_id"`
	Description  string `json:"description"`
	Consequences string `json:"consequences"`
}

// JourneyStep is one simulated step with its churn snapshot.
type JourneyStep struct {
	StepNumber        int              `json:"step_number"`
	StepType          StepType         `json:"step_type"`
	Description       string           `json:"description"`
	UserAction        string           `json:"user_action,omitempty"`
	SystemResponse    string           `json:"system_response,omitempty"`
	EmotionalState    EmotionalState   `json:"emotional_state"`
	FrustrationLevel  float64          `json:"frustration_level"`
	ChurnAnalysis     *ChurnAnalysis   `json:"churn_analysis,omitempty"`
	IsDecisionPoint   bool             `json:"is_decision_point"`
	DecisionOptions   []DecisionOption `json:"decision_options,omitempty"`
	ChosenOption      string           `json:"chosen_option,omitempty"`
	DecisionReasoning string           `json:"decision_reasoning,omitempty"`
	TimeElapsed       float64          `json:"time_elapsed"`
	StepDuration      float64          `json:"step_duration"`
}

// Scenario is one simulated journey.
type Scenario struct {
	ScenarioID            string        `json:"scenario_id"`
	ScenarioName          string        `json:"scenario_name"`
	ScenarioType          ScenarioType  `json:"scenario_type"`
	Description           string        `json:"description"`
	Steps                 []JourneyStep `json:"steps"`
	Outcome               string        `json:"outcome"`
	FinalChurnProbability float64       `json:"final_churn_probability"`
	KeyInsights           []string      `json:"key_insights"`
}

// Result is the complete output of a simulation run.
type Result struct {
	VirtualUser     VirtualUser `json:"virtual_user"`
	Scenarios       []Scenario  `json:"scenarios"`
	SummaryInsights []string    `json:"summary_insights"`
	ChurnHotspots   []string    `json:"churn_hotspots"`
	Recommendations []string    `json:"recommendations"`
}

// stepTemplate and scenarioTemplate mirror the collaborator's template
// schema before simulation.
type stepTemplate struct {
	StepType        string   `json:"step_type"`
	Description     string   `json:"description"`
	ExpectedOutcome string   `json:"expected_outcome"`
	DecisionNeeded  string   `json:"decision_needed"`
	Options         []string `json:"options"`
}

type scenarioTemplate struct {
	ScenarioName string         `json:"scenario_name"`
	ScenarioType string         `json:"scenario_type"`
	Description  string         `json:"description"`
	Steps        []stepTemplate `json:"steps"`
}

type templatesPayload struct {
	Scenarios []scenarioTemplate `json:"scenarios"`
}

// generateTemplates asks the collaborator for scenario templates; any
// failure degrades to the single-scenario happy-path fallback.
func generateTemplates(ctx context.Context, client *llm.Client, log *logger.Logger, problemStatement, productFlow string, user VirtualUser, numScenarios int) []scenarioTemplate {
	raw, err := client.Complete(ctx, "generate-scenarios", scenarioPrompt(problemStatement, productFlow, user, numScenarios))
	if err != nil {
		log.Warn().Err(err).Msg("scenario generation degraded to fallback template")
		return fallbackTemplates()
	}

	var payload templatesPayload
	if !llm.ExtractObject(raw, &payload) || len(payload.Scenarios) == 0 {
		log.Warn().Msg("scenario response unparsable, using fallback template")
		return fallbackTemplates()
	}
	return payload.Scenarios
}

func fallbackTemplates() []scenarioTemplate {
	return []scenarioTemplate{{
		ScenarioName: "Basic Happy Path",
		ScenarioType: string(ScenarioHappyPath),
		Description:  "User completes basic flow",
		Steps: []stepTemplate{{
			StepType:        string(StepAction),
			Description:     "User starts using product",
			ExpectedOutcome: "Product responds",
		}},
	}}
}

func scenarioPrompt(problemStatement, productFlow string, user VirtualUser, numScenarios int) string {
	return fmt.Sprintf(`You are designing test scenarios for a product. Create %d realistic user journey scenarios.

**Product Details:**
Problem: %s
Product Flow: %s

**Target User:**
%s - %s
Goal: %s

**Scenario Requirements:**
1. First scenario should be the HAPPY PATH (everything works perfectly)
2. Remaining scenarios should be EDGE CASES and FAILURES:
   - Things that can go wrong
   - System failures
   - User mistakes
   - External factors (network issues, availability problems, etc.)

Keep scenarios simple: 3-5 key steps per scenario.

**RESPOND IN THIS EXACT JSON FORMAT:**
{
  "scenarios": [
    {
      "scenario_name": "Happy Path - Successful Journey",
      "scenario_type": "happy_path",
      "description": "User achieves their goal without issues",
      "steps": [
        {
          "step_type": "action",
          "description": "User opens the app",
          "expected_outcome": "App loads successfully"
        },
        {
          "step_type": "decision_point",
          "description": "System shows no available options",
          "decision_needed": "What should user do?",
          "options": [
            "Retry immediately",
            "Try alternative service",
            "Give up"
          ]
        }
      ]
    }
  ]
}

Make scenarios realistic and specific to this product.`, numScenarios, problemStatement, productFlow, user.Name, user.ProblemContext, user.PrimaryGoal)
}

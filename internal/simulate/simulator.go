package simulate

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kmatsuda/userscope/internal/llm"
	"github.com/kmatsuda/userscope/internal/logger"
	"github.com/kmatsuda/userscope/internal/telemetry"
)

// Simulator generates scenario templates and walks a virtual user through
// them, computing churn at every step.
type Simulator struct {
	client       *llm.Client
	decisions    *DecisionEngine
	log          *logger.Logger
	numScenarios int
	extraWeights map[string]float64
}

// Options configure a Simulator.
type Options struct {
	NumScenarios int
	// ExtraFrustrationWeights adds domain-specific events to the churn
	// weight table for this simulation's calculators.
	ExtraFrustrationWeights map[string]float64
}

func NewSimulator(client *llm.Client, opts Options, log *logger.Logger) *Simulator {
	if opts.NumScenarios <= 0 {
		opts.NumScenarios = 5
	}
	return &Simulator{
		client:       client,
		decisions:    NewDecisionEngine(client, log),
		log:          log.WithComponent("simulate"),
		numScenarios: opts.NumScenarios,
		extraWeights: opts.ExtraFrustrationWeights,
	}
}

// Run generates a virtual user and scenario templates, simulates every
// scenario, and aggregates cross-scenario insights. A non-positive
// numScenarios uses the configured default.
func (s *Simulator) Run(ctx context.Context, problemStatement, targetUsers, productFlow string, numScenarios int) Result {
	if numScenarios <= 0 {
		numScenarios = s.numScenarios
	}

	ctx, span := telemetry.Tracer("simulate").Start(ctx, "simulate.run")
	span.SetAttributes(attribute.Int("num_scenarios", numScenarios))
	defer span.End()

	user := GenerateVirtualUser(ctx, s.client, s.log, problemStatement, targetUsers)
	templates := generateTemplates(ctx, s.client, s.log, problemStatement, productFlow, user, numScenarios)

	scenarios := make([]Scenario, 0, len(templates))
	for _, tpl := range templates {
		scenarios = append(scenarios, s.simulateScenario(ctx, tpl, user))
	}

	s.log.Info().Int("scenarios", len(scenarios)).Str("user", user.Name).Msg("simulation complete")
	return Result{
		VirtualUser:     user,
		Scenarios:       scenarios,
		SummaryInsights: summaryInsights(scenarios),
		ChurnHotspots:   churnHotspots(scenarios),
		Recommendations: recommendations(scenarios),
	}
}

func (s *Simulator) simulateScenario(ctx context.Context, tpl scenarioTemplate, user VirtualUser) Scenario {
	calc := NewCalculator(user, s.extraWeights)

	scenarioType := ScenarioType(tpl.ScenarioType)
	switch scenarioType {
	case ScenarioHappyPath, ScenarioEdgeCase, ScenarioFailure:
	default:
		scenarioType = ScenarioHappyPath
	}

	var steps []JourneyStep
	var frustrations []FrustrationEvent
	elapsed := 0.0
	currentChurn := user.BaseChurnRisk

	for i, st := range tpl.Steps {
		stepType := StepType(st.StepType)
		switch stepType {
		case StepAction, StepSystemResponse, StepDecisionPoint, StepError, StepSuccess:
		default:
			stepType = StepAction
		}

		duration := stepDuration(stepType, st.Description)
		elapsed += duration

		var step JourneyStep
		if stepType == StepDecisionPoint || st.DecisionNeeded != "" {
			step = s.simulateDecisionStep(ctx, i+1, st, user, calc, frustrations, elapsed, duration)
			if step.ChurnAnalysis != nil && step.ChurnAnalysis.FinalChurnProbability > currentChurn {
				currentChurn = step.ChurnAnalysis.FinalChurnProbability
			}
		} else {
			step = simulateRegularStep(i+1, stepType, st, calc, frustrations, elapsed, duration)
			if stepType == StepError || strings.Contains(strings.ToLower(st.Description), "error") {
				frustrations = append(frustrations, FrustrationEvent{Event: "error_encountered", Severity: 1.0})
			}
		}
		steps = append(steps, step)
	}

	finalChurn := currentChurn
	if len(steps) > 0 && steps[len(steps)-1].ChurnAnalysis != nil {
		finalChurn = steps[len(steps)-1].ChurnAnalysis.FinalChurnProbability
	}

	var outcome string
	switch {
	case finalChurn > 75:
		outcome = "User churned - Gave up completely"
	case finalChurn > 50:
		outcome = "Partial success - User frustrated but completed"
	default:
		outcome = "Success - User achieved goal"
	}

	return Scenario{
		ScenarioID:            strings.ReplaceAll(strings.ToLower(tpl.ScenarioName), " ", "_"),
		ScenarioName:          tpl.ScenarioName,
		ScenarioType:          scenarioType,
		Description:           tpl.Description,
		Steps:                 steps,
		Outcome:               outcome,
		FinalChurnProbability: finalChurn,
		KeyInsights:           scenarioInsights(steps),
	}
}

func (s *Simulator) simulateDecisionStep(ctx context.Context, stepNum int, st stepTemplate, user VirtualUser, calc *Calculator, frustrations []FrustrationEvent, elapsed, duration float64) JourneyStep {
	options := make([]DecisionOption, 0, len(st.Options))
	for i, desc := range st.Options {
		options = append(options, DecisionOption{
			OptionID:     fmt.Sprintf("option_%d", i+1),
			Description:  desc,
			Consequences: "Potential outcome of choosing: " + desc,
		})
	}
	if len(options) == 0 {
		options = append(options, DecisionOption{OptionID: "option_1", Description: "Continue", Consequences: "User proceeds"})
	}

	urgency := "medium"
	if strings.Contains(strings.ToLower(user.ProblemContext), "urgent") {
		urgency = "high"
	}
	failureCount := 0
	for _, e := range frustrations {
		if strings.Contains(e.Event, "error") {
			failureCount++
		}
	}

	stepCtx := StepContext{
		CurrentStep:           st.Description,
		TimeInvestedSeconds:   elapsed,
		Urgency:               urgency,
		AlternativesAvailable: len(options) > 2,
		FailureCount:          failureCount,
	}

	preDecision := calc.Calculate(frustrations, stepCtx, 0)
	decision := s.decisions.Decide(ctx, user, stepCtx, options, preDecision.FinalChurnProbability)
	analysis := calc.Calculate(frustrations, stepCtx, decision.ContextAdjustment)

	return JourneyStep{
		StepNumber:        stepNum,
		StepType:          StepDecisionPoint,
		Description:       st.Description,
		EmotionalState:    decision.EmotionalState,
		FrustrationLevel:  math.Min(analysis.FinalChurnProbability/10, 10),
		ChurnAnalysis:     &analysis,
		IsDecisionPoint:   true,
		DecisionOptions:   options,
		ChosenOption:      decision.ChosenOptionID,
		DecisionReasoning: decision.Reasoning,
		TimeElapsed:       elapsed,
		StepDuration:      duration,
	}
}

func simulateRegularStep(stepNum int, stepType StepType, st stepTemplate, calc *Calculator, frustrations []FrustrationEvent, elapsed, duration float64) JourneyStep {
	description := st.Description
	if description == "" {
		description = "User takes action"
	}

	emotional := EmotionNeutral
	frustration := 5.0
	switch {
	case strings.Contains(strings.ToLower(description), "error") || strings.Contains(strings.ToLower(st.ExpectedOutcome), "fail"):
		emotional = EmotionFrustrated
		frustration = 7.0
	case strings.Contains(strings.ToLower(st.ExpectedOutcome), "success"):
		emotional = EmotionHopeful
		frustration = 3.0
	}

	analysis := calc.Calculate(frustrations, StepContext{TimeInvestedSeconds: elapsed}, 0)

	step := JourneyStep{
		StepNumber:       stepNum,
		StepType:         stepType,
		Description:      description,
		EmotionalState:   emotional,
		FrustrationLevel: frustration,
		ChurnAnalysis:    &analysis,
		TimeElapsed:      elapsed,
		StepDuration:     duration,
	}
	if stepType == StepAction {
		step.UserAction = description
	}
	if stepType == StepSystemResponse {
		step.SystemResponse = st.ExpectedOutcome
	}
	return step
}

// stepDuration estimates seconds per step by type, with a long wait branch
// for steps that describe waiting.
func stepDuration(stepType StepType, description string) float64 {
	switch stepType {
	case StepAction:
		return 5.0
	case StepSystemResponse:
		return 2.0
	case StepDecisionPoint:
		return 10.0
	}
	if strings.Contains(strings.ToLower(description), "wait") {
		return 120.0
	}
	return 3.0
}

func scenarioInsights(steps []JourneyStep) []string {
	insights := []string{}

	var maxStep *JourneyStep
	for i := range steps {
		if steps[i].ChurnAnalysis == nil {
			continue
		}
		if maxStep == nil || steps[i].ChurnAnalysis.FinalChurnProbability > maxStep.ChurnAnalysis.FinalChurnProbability {
			maxStep = &steps[i]
		}
	}
	if maxStep != nil {
		insights = append(insights, fmt.Sprintf("Highest churn risk at step %d: %s (%.0f%%)",
			maxStep.StepNumber, maxStep.Description, maxStep.ChurnAnalysis.FinalChurnProbability))
	}

	decisions := 0
	for _, s := range steps {
		if s.IsDecisionPoint {
			decisions++
		}
	}
	if decisions > 0 {
		insights = append(insights, fmt.Sprintf("User faced %d decision point(s)", decisions))
	}

	totalTime := 0.0
	if len(steps) > 0 {
		totalTime = steps[len(steps)-1].TimeElapsed
	}
	insights = append(insights, fmt.Sprintf("Total journey time: %.0f seconds (%.1f minutes)", totalTime, totalTime/60))

	return insights
}

func summaryInsights(scenarios []Scenario) []string {
	insights := []string{}

	avg := 0.0
	if len(scenarios) > 0 {
		for _, s := range scenarios {
			avg += s.FinalChurnProbability
		}
		avg /= float64(len(scenarios))
	}
	insights = append(insights, fmt.Sprintf("Average churn probability across scenarios: %.1f%%", avg))

	success, churned := 0, 0
	for _, s := range scenarios {
		lower := strings.ToLower(s.Outcome)
		if strings.Contains(lower, "success") {
			success++
		}
		if strings.Contains(lower, "churn") {
			churned++
		}
	}
	insights = append(insights, fmt.Sprintf("Outcomes: %d successful, %d churned out of %d scenarios", success, churned, len(scenarios)))

	return insights
}

// churnHotspots lists the most common step descriptions whose churn
// probability exceeded 50, top 3 by occurrence.
func churnHotspots(scenarios []Scenario) []string {
	counts := map[string]int{}
	order := []string{}
	for _, sc := range scenarios {
		for _, step := range sc.Steps {
			if step.ChurnAnalysis != nil && step.ChurnAnalysis.FinalChurnProbability > 50 {
				if _, seen := counts[step.Description]; !seen {
					order = append(order, step.Description)
				}
				counts[step.Description]++
			}
		}
	}

	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if len(order) > 3 {
		order = order[:3]
	}

	hotspots := []string{}
	for _, desc := range order {
		hotspots = append(hotspots, fmt.Sprintf("%s (occurred in %d scenario(s))", desc, counts[desc]))
	}
	return hotspots
}

// recommendations names the top 3 frustration events by occurrence across
// all per-step churn analyses.
func recommendations(scenarios []Scenario) []string {
	counts := map[string]int{}
	order := []string{}
	for _, sc := range scenarios {
		for _, step := range sc.Steps {
			if step.ChurnAnalysis == nil {
				continue
			}
			for _, ev := range step.ChurnAnalysis.FrustrationEvents {
				if _, seen := counts[ev.Event]; !seen {
					order = append(order, ev.Event)
				}
				counts[ev.Event]++
			}
		}
	}

	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if len(order) > 3 {
		order = order[:3]
	}

	recs := []string{}
	for _, event := range order {
		recs = append(recs, fmt.Sprintf("Reduce %s - occurred %d times across scenarios", titleWords(event), counts[event]))
	}
	return recs
}

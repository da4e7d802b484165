package simulate

import (
	"math"
	"strings"
	"testing"
)

func mediumUser() VirtualUser {
	return VirtualUser{
		Name:          "Test User",
		PatienceLevel: PatienceMedium,
		BaseChurnRisk: 10.0,
	}
}

func TestRiskLevelBands(t *testing.T) {
	cases := []struct {
		p    float64
		want RiskLevel
	}{
		{0, RiskLow},
		{30, RiskLow},
		{30.01, RiskMedium},
		{50, RiskMedium},
		{50.01, RiskHigh},
		{75, RiskHigh},
		{75.01, RiskCritical},
		{100, RiskCritical},
	}
	for _, tc := range cases {
		if got := RiskLevelFor(tc.p); got != tc.want {
			t.Errorf("RiskLevelFor(%g) = %s, want %s", tc.p, got, tc.want)
		}
	}
}

func TestCalculateWorkedExample(t *testing.T) {
	// base 10, patience medium (x1.5), one long_wait at severity 1.0
	// (weight 30): formula 40, calculated 60, adjustment -10 => 50 MEDIUM.
	c := NewCalculator(mediumUser(), nil)
	got := c.Calculate([]FrustrationEvent{{Event: "long_wait", Severity: 1.0}}, StepContext{}, -10)

	if got.FormulaRisk != 40 {
		t.Errorf("formula risk = %g, want 40", got.FormulaRisk)
	}
	if got.CalculatedRisk != 60 {
		t.Errorf("calculated risk = %g, want 60", got.CalculatedRisk)
	}
	if got.FinalChurnProbability != 50 {
		t.Errorf("final = %g, want 50", got.FinalChurnProbability)
	}
	if got.RiskLevel != RiskMedium {
		t.Errorf("risk level = %s, want MEDIUM (upper bound inclusive)", got.RiskLevel)
	}
}

func TestCalculateBounded(t *testing.T) {
	c := NewCalculator(VirtualUser{PatienceLevel: PatienceLow, BaseChurnRisk: 10}, nil)

	high := c.Calculate([]FrustrationEvent{
		{Event: "security_concern", Severity: 2.0},
		{Event: "data_loss", Severity: 2.0},
	}, StepContext{}, 50)
	if high.FinalChurnProbability != 100 {
		t.Errorf("final = %g, want clamped 100", high.FinalChurnProbability)
	}
	if high.RiskLevel != RiskCritical {
		t.Errorf("risk level = %s", high.RiskLevel)
	}

	low := c.Calculate(nil, StepContext{}, -500)
	if low.FinalChurnProbability != 0 {
		t.Errorf("final = %g, want clamped 0", low.FinalChurnProbability)
	}
	if low.RiskLevel != RiskLow {
		t.Errorf("risk level = %s", low.RiskLevel)
	}
}

func TestCalculateUnknownEventWeight(t *testing.T) {
	c := NewCalculator(mediumUser(), nil)
	got := c.Calculate([]FrustrationEvent{{Event: "mystery_event", Severity: 1.0}}, StepContext{}, 0)
	// base 10 + default weight 15 = 25, x1.5 = 37.5.
	if got.FormulaRisk != 25 {
		t.Errorf("formula risk = %g, want 25", got.FormulaRisk)
	}
	if got.FinalChurnProbability != 37.5 {
		t.Errorf("final = %g, want 37.5", got.FinalChurnProbability)
	}
}

func TestCalculateMalformedSeverity(t *testing.T) {
	c := NewCalculator(mediumUser(), nil)
	zero := c.Calculate([]FrustrationEvent{{Event: "long_wait"}}, StepContext{}, 0)
	one := c.Calculate([]FrustrationEvent{{Event: "long_wait", Severity: 1.0}}, StepContext{}, 0)
	if zero.FormulaRisk != one.FormulaRisk {
		t.Errorf("non-positive severity should act as 1.0: %g vs %g", zero.FormulaRisk, one.FormulaRisk)
	}
}

func TestCalculateUserTriggers(t *testing.T) {
	user := mediumUser()
	user.FrustrationTriggers = []FrustrationTrigger{
		{Trigger: "long_wait", Threshold: 5, Impact: 20},
		{Trigger: "unexpected_cost", Threshold: 50, Impact: 25},
	}
	c := NewCalculator(user, nil)
	got := c.Calculate([]FrustrationEvent{{Event: "long_wait", Severity: 1.0}}, StepContext{}, 0)
	// base 10 + weight 30 + trigger 20 = 60. The unmatched trigger adds
	// nothing.
	if got.FormulaRisk != 60 {
		t.Errorf("formula risk = %g, want 60", got.FormulaRisk)
	}
	found := false
	for _, e := range got.FrustrationEvents {
		if e.Event == "long_wait_user_specific" && e.RiskAdded == 20 {
			found = true
		}
	}
	if !found {
		t.Errorf("trigger contribution missing: %+v", got.FrustrationEvents)
	}
}

func TestCalculateExtraWeights(t *testing.T) {
	c := NewCalculator(mediumUser(), map[string]float64{"cart_wiped": 45})
	got := c.Calculate([]FrustrationEvent{{Event: "cart_wiped", Severity: 1.0}}, StepContext{}, 0)
	if got.FormulaRisk != 55 {
		t.Errorf("formula risk = %g, want 55", got.FormulaRisk)
	}
	// The built-in table must not be touched.
	if _, ok := frustrationWeights["cart_wiped"]; ok {
		t.Error("extra weight leaked into the shared table")
	}
}

func TestDecomposeAdjustment(t *testing.T) {
	ctx := StepContext{
		TimeInvestedSeconds:   300, // 5 minutes => -15 sunk cost
		Urgency:               "high",
		AlternativesAvailable: true,
		FailureCount:          3,
	}
	// Named factors: -15 -5 +10 +15 = +5. Supplied total 20 leaves +15
	// residual.
	got := decomposeAdjustment(ctx, 20)

	want := map[string]float64{
		"sunk_cost_effect":  -15,
		"high_urgency":      -5,
		"easy_alternatives": 10,
		"repeated_failures": 15,
		"other_context":     15,
	}
	if len(got) != len(want) {
		t.Fatalf("adjustments = %+v", got)
	}
	for _, a := range got {
		if w, ok := want[a.Factor]; !ok || math.Abs(a.Adjustment-w) > 1e-9 {
			t.Errorf("factor %s = %g, want %g", a.Factor, a.Adjustment, w)
		}
	}
}

func TestDecomposeAdjustmentSunkCostFloor(t *testing.T) {
	// 1 minute invested gives -3 by rate, floored at -10.
	got := decomposeAdjustment(StepContext{TimeInvestedSeconds: 60}, -10)
	if len(got) != 1 || got[0].Factor != "sunk_cost_effect" || got[0].Adjustment != -10 {
		t.Errorf("adjustments = %+v, want single sunk_cost_effect -10", got)
	}
}

func TestDecomposeAdjustmentResidualSign(t *testing.T) {
	// Residual may be negative as well as positive.
	got := decomposeAdjustment(StepContext{}, -7)
	if len(got) != 1 || got[0].Factor != "other_context" || got[0].Adjustment != -7 {
		t.Errorf("adjustments = %+v", got)
	}

	// No residual entry when the total matches the named factors.
	got = decomposeAdjustment(StepContext{Urgency: "low"}, 10)
	for _, a := range got {
		if a.Factor == "other_context" {
			t.Errorf("unexpected residual: %+v", got)
		}
	}
}

func TestDecomposeAdjustmentFirstFailure(t *testing.T) {
	got := decomposeAdjustment(StepContext{FailureCount: 1}, -5)
	if len(got) != 1 || got[0].Factor != "first_failure" || got[0].Adjustment != -5 {
		t.Errorf("adjustments = %+v", got)
	}
	// Two failures trigger neither branch.
	got = decomposeAdjustment(StepContext{FailureCount: 2}, 0)
	if len(got) != 0 {
		t.Errorf("adjustments = %+v, want none", got)
	}
}

func TestChurnReasoningSelection(t *testing.T) {
	events := []EventRisk{
		{Event: "retry_required", RiskAdded: 10},
		{Event: "payment_failure", RiskAdded: 35},
		{Event: "long_wait", RiskAdded: 35},
	}
	adjustments := []Adjustment{
		{Factor: "first_failure", Adjustment: -5},
		{Factor: "easy_alternatives", Adjustment: 10},
	}
	r := churnReasoning(RiskHigh, events, adjustments)
	// payment_failure wins the event argmax (first of the tied pair);
	// easy_alternatives has the largest magnitude.
	if want := "Significant frustration from payment_failure"; !contains(r, want) {
		t.Errorf("reasoning = %q, want %q", r, want)
	}
	if want := "Easy Alternatives is the deciding factor"; !contains(r, want) {
		t.Errorf("reasoning = %q, want %q", r, want)
	}
}

func TestChurnReasoningDefaults(t *testing.T) {
	r := churnReasoning(RiskLow, nil, nil)
	if want := "general friction"; !contains(r, want) {
		t.Errorf("reasoning = %q", r)
	}
	if want := "user patience"; !contains(r, want) {
		t.Errorf("reasoning = %q", r)
	}
}

func TestCalculateIdempotent(t *testing.T) {
	c := NewCalculator(mediumUser(), nil)
	events := []FrustrationEvent{{Event: "error_encountered", Severity: 1.5}}
	ctx := StepContext{TimeInvestedSeconds: 120, Urgency: "medium", FailureCount: 1}
	a := c.Calculate(events, ctx, 5)
	b := c.Calculate(events, ctx, 5)
	if a.FinalChurnProbability != b.FinalChurnProbability || a.Reasoning != b.Reasoning {
		t.Error("repeated calculation differs")
	}
}

func contains(s, sub string) bool { return strings.Contains(s, sub) }

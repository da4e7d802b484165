package prioritize

import (
	"context"
	"math"
	"testing"

	"github.com/kmatsuda/userscope/internal/research"
)

func TestEstimateImpactClamped(t *testing.T) {
	// 2.0 * 1.5 * 1.2 = 3.6 before the clamp.
	if got := estimateImpact("High", 9.5, "this blocks me completely"); got != 3.0 {
		t.Errorf("impact = %g, want 3.0 (upper clamp)", got)
	}
	// 0.5 * 1.0 * 1.0 = 0.5, above the lower clamp.
	if got := estimateImpact("Low", 2.0, "meh"); got != 0.5 {
		t.Errorf("impact = %g, want 0.5", got)
	}
	if got := estimateImpact("Unknown", 5.0, ""); got != 1.0 {
		t.Errorf("unknown severity impact = %g, want 1.0", got)
	}
}

func TestEstimateImpactQuoteIntensity(t *testing.T) {
	without := estimateImpact("Medium", 5.0, "it is a bit slow")
	with := estimateImpact("Medium", 5.0, "I can't finish my order")
	if without != 1.0 {
		t.Errorf("baseline impact = %g, want 1.0", without)
	}
	if math.Abs(with-1.2) > 1e-9 {
		t.Errorf("blocking-quote impact = %g, want 1.2", with)
	}
}

func TestEstimateImpactImportanceTiers(t *testing.T) {
	cases := []struct {
		importance float64
		want       float64
	}{
		{9.0, 1.5},
		{8.9, 1.2},
		{7.0, 1.2},
		{6.9, 1.0},
	}
	for _, tc := range cases {
		got := estimateImpact("Medium", tc.importance, "")
		if math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("impact at importance %g = %g, want %g", tc.importance, got, tc.want)
		}
	}
}

func TestEstimateConfidence(t *testing.T) {
	cases := []struct {
		freq, sources int
		severity      string
		want          float64
	}{
		{10, 3, "Medium", 0.95},
		{10, 3, "High", 1.0},
		{5, 3, "Medium", 0.85},
		{3, 3, "Medium", 0.75},
		{1, 3, "Medium", 0.60},
		{10, 2, "Medium", 0.95 * 2.0 / 3.0},
		{10, 6, "Medium", 0.95},
	}
	for _, tc := range cases {
		got := estimateConfidence(tc.freq, tc.sources, tc.severity)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("confidence(%d, %d, %s) = %g, want %g", tc.freq, tc.sources, tc.severity, got, tc.want)
		}
	}
}

func TestEstimateConfidenceCapped(t *testing.T) {
	if got := estimateConfidence(100, 10, "High"); got != 1.0 {
		t.Errorf("confidence = %g, want 1.0 cap", got)
	}
}

func TestEstimateEffortFallback(t *testing.T) {
	e := newTestEngine(&taskCaller{effort: "no structured answer here"})
	total, breakdown := e.estimateEffort(context.Background(), research.PainPoint{Description: "d"}, "p")
	if total != 2.0 {
		t.Errorf("fallback effort = %g, want 2.0", total)
	}
	sum := 0.0
	for _, v := range breakdown {
		sum += v
	}
	if math.Abs(sum-2.0) > 1e-9 {
		t.Errorf("fallback breakdown sums to %g, want 2.0", sum)
	}
}

func TestEstimateEffortParsed(t *testing.T) {
	e := newTestEngine(&taskCaller{effort: `{"ui_frontend": 0.5, "backend_api": 2.0,
		"infrastructure": 0.5, "testing_qa": 0.5, "total_effort": 3.5, "rationale": "new service"}`})
	total, breakdown := e.estimateEffort(context.Background(), research.PainPoint{Description: "d"}, "p")
	if total != 3.5 {
		t.Errorf("effort = %g, want 3.5", total)
	}
	if breakdown["Backend/API"] != 2.0 {
		t.Errorf("backend = %g", breakdown["Backend/API"])
	}
}

func TestScoreRICEZeroEffort(t *testing.T) {
	e := newTestEngine(&taskCaller{
		jtbd:   `{"importance": 5, "satisfaction": 5}`,
		effort: `{"ui_frontend": 0, "backend_api": 0, "infrastructure": 0, "testing_qa": 0, "total_effort": -1}`,
	})
	pp := research.PainPoint{Description: "d", Severity: research.SeverityMedium, Frequency: 3}
	jtbd := e.scoreJTBD(context.Background(), pp, "p", "t")
	rice := e.scoreRICE(context.Background(), pp, "p", "t", jtbd)
	// Zero/negative component estimates fall back to the default breakdown,
	// so effort stays positive and the score is well-defined.
	if rice.Effort <= 0 {
		t.Errorf("effort = %g, want positive", rice.Effort)
	}
	if rice.RICEScore == 0 {
		t.Error("rice score should be nonzero with positive effort")
	}
}

func TestRICEScoreZeroWhenEffortNonPositive(t *testing.T) {
	if got := riceScore(1000, 2.0, 0.9, 0); got != 0 {
		t.Errorf("rice = %g, want 0 for zero effort", got)
	}
	if got := riceScore(1000, 2.0, 0.9, -1); got != 0 {
		t.Errorf("rice = %g, want 0 for negative effort", got)
	}
	if got := riceScore(1000, 2.0, 0.5, 2.0); got != 500 {
		t.Errorf("rice = %g, want 500", got)
	}
}

package prioritize

import (
	"context"
	"fmt"
	"math"
	"sort"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kmatsuda/userscope/internal/llm"
	"github.com/kmatsuda/userscope/internal/logger"
	"github.com/kmatsuda/userscope/internal/market"
	"github.com/kmatsuda/userscope/internal/persona"
	"github.com/kmatsuda/userscope/internal/research"
	"github.com/kmatsuda/userscope/internal/telemetry"
)

// Options tune the evidence defaults used when research metadata is not
// carried through to prioritization.
type Options struct {
	// DefaultComments is the comment volume assumed for reach estimation.
	DefaultComments int
	// DefaultSources is the source-diversity figure for confidence.
	DefaultSources int
}

// Engine scores and ranks pain points. It is stateless across runs; each
// pain point is scored independently.
type Engine struct {
	client      *llm.Client
	market      *market.Estimator
	log         *logger.Logger
	numComments int
	numSources  int
}

func NewEngine(client *llm.Client, est *market.Estimator, opts Options, log *logger.Logger) *Engine {
	if opts.DefaultComments <= 0 {
		opts.DefaultComments = 50
	}
	if opts.DefaultSources <= 0 {
		opts.DefaultSources = 2
	}
	return &Engine{
		client:      client,
		market:      est,
		log:         log.WithComponent("prioritize"),
		numComments: opts.DefaultComments,
		numSources:  opts.DefaultSources,
	}
}

// Prioritize scores every pain point and returns them ranked by final score
// descending. Ties keep input order. An empty input yields an empty list.
func (e *Engine) Prioritize(ctx context.Context, painPoints []research.PainPoint, personas []persona.Persona, problemStatement, targetUsers string) []PrioritizedPainPoint {
	if len(painPoints) == 0 {
		return []PrioritizedPainPoint{}
	}

	ctx, span := telemetry.Tracer("prioritize").Start(ctx, "prioritize.run")
	span.SetAttributes(attribute.Int("pain_points", len(painPoints)), attribute.Int("personas", len(personas)))
	defer span.End()

	out := make([]PrioritizedPainPoint, 0, len(painPoints))
	for i, pp := range painPoints {
		jtbd := e.scoreJTBD(ctx, pp, problemStatement, targetUsers)
		rice := e.scoreRICE(ctx, pp, problemStatement, targetUsers, jtbd)
		alignment := alignPersonas(pp.Description, personas)
		score := finalScore(jtbd, rice, alignment)

		out = append(out, PrioritizedPainPoint{
			PainPointID:      fmt.Sprintf("pp_%d", i),
			Description:      pp.Description,
			OriginalSeverity: pp.Severity,
			FinalScore:       score,
			JTBD:             jtbd,
			RICE:             rice,
			PersonaAlignment: alignment,
			Justification:    e.buildJustification(pp, jtbd, rice, alignment, problemStatement, targetUsers),
			MarketCategory:   e.market.IdentifyCategory(problemStatement, targetUsers),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FinalScore > out[j].FinalScore
	})
	for i := range out {
		out[i].PriorityRank = i + 1
	}

	e.log.Info().Int("ranked", len(out)).Msg("prioritization complete")
	return out
}

// finalScore blends the three normalized sub-scores 40/40/20. The RICE term
// is log-compressed so reach-in-the-millions scores cannot drown out the
// other components.
func finalScore(jtbd JTBDScore, rice RICEScore, alignment PersonaAlignment) float64 {
	jtbdNorm := jtbd.OpportunityScore / 20.0 * 100
	riceNorm := math.Min(math.Log10(math.Max(rice.RICEScore, 1))*20, 100)
	personaNorm := alignment.Weight / 10.0 * 100

	final := jtbdNorm*0.4 + riceNorm*0.4 + personaNorm*0.2
	return math.Round(final*100) / 100
}

func (e *Engine) buildJustification(pp research.PainPoint, jtbd JTBDScore, rice RICEScore, alignment PersonaAlignment, problemStatement, targetUsers string) Justification {
	snap := e.market.MarketData(problemStatement, targetUsers)

	evidence := []string{
		fmt.Sprintf("JTBD Opportunity Score: %g/20 (%s)", jtbd.OpportunityScore, jtbd.Category),
		fmt.Sprintf("Affects %s users (%s)", formatCount(rice.Reach), targetUsers),
		fmt.Sprintf("Impact: %gx multiplier", rice.Impact),
		fmt.Sprintf("Confidence: %.0f%% based on research data", rice.Confidence*100),
		fmt.Sprintf("Affects %d/%d personas", len(alignment.AffectedPersonas), len(alignment.Affinities)),
		fmt.Sprintf("Mentioned %dx in user research", pp.Frequency),
		fmt.Sprintf("Severity: %s", pp.Severity),
	}

	var why string
	switch {
	case jtbd.OpportunityScore > 15:
		why = fmt.Sprintf("Highly underserved customer need (%g/20 opportunity score) affecting %s users with strong evidence and feasible implementation.",
			jtbd.OpportunityScore, formatCount(rice.Reach))
	case rice.RICEScore > 1_000_000:
		why = fmt.Sprintf("Exceptional RICE score (%.0f) indicates massive value delivery potential with %s users affected.",
			rice.RICEScore, formatCount(rice.Reach))
	default:
		why = fmt.Sprintf("Strong combination of customer need (JTBD: %g/20) and strategic value (RICE: %.0f).",
			jtbd.OpportunityScore, rice.RICEScore)
	}

	quote := pp.Quote
	if quote == "" {
		quote = "User feedback from research"
	}

	return Justification{
		WhyTopPriority: why,
		Evidence:       evidence,
		MarketData: MarketBlock{
			TAM:           snap.TAM,
			SAM:           snap.SAM,
			SOM:           snap.SOM,
			MarketSizeUSD: snap.MarketSizeUSD,
			GrowthRate:    snap.GrowthRate,
			MarketGap:     "No existing solution addresses this pain point comprehensively",
			Sources:       snap.Sources,
		},
		QuoteSamples: []string{quote},
	}
}

func formatCount(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var out []byte
	lead := len(s) % 3
	if lead > 0 {
		out = append(out, s[:lead]...)
	}
	for i := lead; i < len(s); i += 3 {
		if len(out) > 0 {
			out = append(out, ',')
		}
		out = append(out, s[i:i+3]...)
	}
	return string(out)
}

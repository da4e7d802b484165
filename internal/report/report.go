// Package report renders prioritization results as markdown and prints
// them to PDF through headless Chromium.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/kmatsuda/userscope/internal/market"
	"github.com/kmatsuda/userscope/internal/persona"
	"github.com/kmatsuda/userscope/internal/prioritize"
)

// Input is everything a prioritization report draws from.
type Input struct {
	ProblemStatement string
	GeneratedAt      time.Time
	Market           market.Snapshot
	Personas         []persona.Persona
	PainPoints       []prioritize.PrioritizedPainPoint
}

// Document is the serialized form of a prioritization result, shared by
// the run store, the HTTP API, and the PDF renderer CLI.
type Document struct {
	ProblemStatement string                            `json:"problem_statement"`
	GeneratedAt      time.Time                         `json:"generated_at"`
	Market           market.Snapshot                   `json:"market"`
	Personas         []persona.Persona                 `json:"personas"`
	Prioritized      []prioritize.PrioritizedPainPoint `json:"prioritized"`
}

// Input converts the document to report input.
func (d Document) Input() Input {
	return Input{
		ProblemStatement: d.ProblemStatement,
		GeneratedAt:      d.GeneratedAt,
		Market:           d.Market,
		Personas:         d.Personas,
		PainPoints:       d.Prioritized,
	}
}

// Markdown builds the full prioritization report.
func Markdown(in Input) string {
	var b strings.Builder

	b.WriteString("# Prioritization Report\n\n")
	fmt.Fprintf(&b, "**Problem Statement:** %s\n\n", in.ProblemStatement)
	if !in.GeneratedAt.IsZero() {
		fmt.Fprintf(&b, "**Generated:** %s\n\n", in.GeneratedAt.Format("January 2, 2006 at 3:04 PM MST"))
	}
	fmt.Fprintf(&b, "**Market Category:** %s\n\n", in.Market.Category)

	writeMarketOverview(&b, in.Market)
	writePersonas(&b, in.Personas)
	writeRankingTable(&b, in.PainPoints)
	writeDetailedFindings(&b, in.PainPoints)

	return b.String()
}

func writeMarketOverview(b *strings.Builder, snap market.Snapshot) {
	b.WriteString("## Market Overview\n\n")
	b.WriteString("| Segment | Size |\n|---|---|\n")
	fmt.Fprintf(b, "| TAM | %s |\n", snap.TAM)
	fmt.Fprintf(b, "| SAM | %s |\n", snap.SAM)
	fmt.Fprintf(b, "| SOM | %s |\n", snap.SOM)
	b.WriteString("\n")
	fmt.Fprintf(b, "Market size: **$%s** with projected growth of **%s**.\n\n", formatInt(snap.MarketSizeUSD), snap.GrowthRate)
	if len(snap.Sources) > 0 {
		b.WriteString("Sources: " + strings.Join(snap.Sources, ", ") + "\n\n")
	}
}

func writePersonas(b *strings.Builder, personas []persona.Persona) {
	if len(personas) == 0 {
		return
	}
	b.WriteString("## Target Personas\n\n")
	for _, p := range personas {
		fmt.Fprintf(b, "### %s, %d\n\n", p.Name, p.Age)
		fmt.Fprintf(b, "%s based in %s. %s\n\n", p.Occupation, p.Location, p.Background)
		if p.Quote != "" {
			fmt.Fprintf(b, "> %s\n\n", p.Quote)
		}
		if len(p.Goals) > 0 {
			b.WriteString("**Goals:** " + strings.Join(p.Goals, "; ") + "\n\n")
		}
		if len(p.PainPoints) > 0 {
			b.WriteString("**Pain points:** " + strings.Join(p.PainPoints, "; ") + "\n\n")
		}
	}
}

func writeRankingTable(b *strings.Builder, points []prioritize.PrioritizedPainPoint) {
	b.WriteString("## Priority Ranking\n\n")
	if len(points) == 0 {
		b.WriteString("No pain points were scored.\n\n")
		return
	}
	b.WriteString("| Rank | Pain Point | Final Score | Opportunity | RICE | Persona Weight |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, p := range points {
		fmt.Fprintf(b, "| %d | %s | %.2f | %.1f (%s) | %.0f | %.1f |\n",
			p.PriorityRank, p.Description, p.FinalScore,
			p.JTBD.OpportunityScore, p.JTBD.Category,
			p.RICE.RICEScore, p.PersonaAlignment.Weight)
	}
	b.WriteString("\n")
}

func writeDetailedFindings(b *strings.Builder, points []prioritize.PrioritizedPainPoint) {
	if len(points) == 0 {
		return
	}
	b.WriteString("## Detailed Findings\n\n")
	for _, p := range points {
		fmt.Fprintf(b, "### %d. %s\n\n", p.PriorityRank, p.Description)
		fmt.Fprintf(b, "Severity: **%s** | Final score: **%.2f**\n\n", p.OriginalSeverity, p.FinalScore)

		fmt.Fprintf(b, "**Job to be done:** %s\n\n", p.JTBD.JobStatement)
		fmt.Fprintf(b, "Importance %.1f, satisfaction %.1f, opportunity %.1f (%s).\n\n",
			p.JTBD.Importance, p.JTBD.Satisfaction, p.JTBD.OpportunityScore, p.JTBD.Category)

		fmt.Fprintf(b, "**RICE:** reach %s, impact %.2f, confidence %.2f, effort %.1f person-months, score %.0f.\n\n",
			formatInt(p.RICE.Reach), p.RICE.Impact, p.RICE.Confidence, p.RICE.Effort, p.RICE.RICEScore)

		if len(p.PersonaAlignment.AffectedPersonas) > 0 {
			fmt.Fprintf(b, "**Affected personas (%.0f%% coverage):** %s\n\n",
				p.PersonaAlignment.Coverage*100, strings.Join(p.PersonaAlignment.AffectedPersonas, ", "))
		}

		fmt.Fprintf(b, "**Why this priority:** %s\n\n", p.Justification.WhyTopPriority)
		for _, e := range p.Justification.Evidence {
			b.WriteString("- " + e + "\n")
		}
		if len(p.Justification.Evidence) > 0 {
			b.WriteString("\n")
		}
		for _, q := range p.Justification.QuoteSamples {
			fmt.Fprintf(b, "> %s\n\n", q)
		}
	}
}

func formatInt(n int64) string {
	s := fmt.Sprintf("%d", n)
	if n < 0 {
		s = s[1:]
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := strings.Join(parts, ",")
	if n < 0 {
		out = "-" + out
	}
	return out
}

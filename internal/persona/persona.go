// Package persona synthesizes user personas from extracted pain points.
package persona

import (
	"context"
	"fmt"
	"strings"

	"github.com/kmatsuda/userscope/internal/llm"
	"github.com/kmatsuda/userscope/internal/logger"
	"github.com/kmatsuda/userscope/internal/research"
)

// TechSavviness grades comfort with technology.
type TechSavviness string

const (
	TechLow    TechSavviness = "Low"
	TechMedium TechSavviness = "Medium"
	TechHigh   TechSavviness = "High"
)

// NormalizeTechSavviness maps any string to a valid level; unknown values
// degrade to Medium.
func NormalizeTechSavviness(s string) TechSavviness {
	switch TechSavviness(s) {
	case TechLow, TechMedium, TechHigh:
		return TechSavviness(s)
	default:
		return TechMedium
	}
}

// Persona is one synthesized user archetype.
type Persona struct {
	Name             string        `json:"name"`
	Age              int           `json:"age"`
	Occupation       string        `json:"occupation"`
	Location         string        `json:"location"`
	Background       string        `json:"background"`
	ImageDescription string        `json:"image_description,omitempty"`
	Goals            []string      `json:"goals"`
	PainPoints       []string      `json:"pain_points"`
	Behaviors        []string      `json:"behaviors"`
	Quote            string        `json:"quote"`
	TechSavviness    TechSavviness `json:"tech_savviness"`
	UsageFrequency   string        `json:"usage_frequency,omitempty"`
	AvgSpend         string        `json:"avg_spend,omitempty"`
	Motivations      []string      `json:"motivations,omitempty"`
	Frustrations     []string      `json:"frustrations,omitempty"`
}

// Synthesizer generates personas via the reasoning collaborator.
type Synthesizer struct {
	client *llm.Client
	log    *logger.Logger
}

func NewSynthesizer(client *llm.Client, log *logger.Logger) *Synthesizer {
	return &Synthesizer{client: client, log: log.WithComponent("persona")}
}

type personaPayload struct {
	Name             string   `json:"name"`
	Age              int      `json:"age"`
	Occupation       string   `json:"occupation"`
	Location         string   `json:"location"`
	Background       string   `json:"background"`
	ImageDescription string   `json:"image_description"`
	Goals            []string `json:"goals"`
	PainPoints       []string `json:"pain_points"`
	Behaviors        []string `json:"behaviors"`
	Quote            string   `json:"quote"`
	TechSavviness    string   `json:"tech_savviness"`
	UsageFrequency   string   `json:"usage_frequency"`
	AvgSpend         string   `json:"avg_spend"`
	Motivations      []string `json:"motivations"`
	Frustrations     []string `json:"frustrations"`
}

// Generate synthesizes up to numPersonas personas grounded on the given pain
// points. Empty pain points or an unparsable response yield an empty slice.
func (s *Synthesizer) Generate(ctx context.Context, painPoints []research.PainPoint, problemStatement, targetUsers string, numPersonas int) []Persona {
	if len(painPoints) == 0 {
		return nil
	}
	if numPersonas <= 0 {
		numPersonas = 3
	}

	prompt := personaPrompt(formatPainPoints(painPoints), problemStatement, targetUsers, numPersonas)
	raw, err := s.client.Complete(ctx, "generate-personas", prompt)
	if err != nil {
		s.log.Warn().Err(err).Msg("persona generation degraded to empty result")
		return nil
	}

	var payload []personaPayload
	if !llm.ExtractArray(raw, &payload) {
		s.log.Warn().Msg("persona response unparsable, degraded to empty result")
		return nil
	}

	out := make([]Persona, 0, len(payload))
	for _, p := range payload {
		if strings.TrimSpace(p.Name) == "" {
			continue
		}
		age := p.Age
		if age <= 0 {
			age = 30
		}
		out = append(out, Persona{
			Name:             p.Name,
			Age:              age,
			Occupation:       p.Occupation,
			Location:         p.Location,
			Background:       p.Background,
			ImageDescription: p.ImageDescription,
			Goals:            p.Goals,
			PainPoints:       p.PainPoints,
			Behaviors:        p.Behaviors,
			Quote:            p.Quote,
			TechSavviness:    NormalizeTechSavviness(p.TechSavviness),
			UsageFrequency:   p.UsageFrequency,
			AvgSpend:         p.AvgSpend,
			Motivations:      p.Motivations,
			Frustrations:     p.Frustrations,
		})
		if len(out) == numPersonas {
			break
		}
	}
	s.log.Info().Int("personas", len(out)).Msg("persona synthesis complete")
	return out
}

func formatPainPoints(painPoints []research.PainPoint) string {
	var sb strings.Builder
	for i, pp := range painPoints {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, pp.Description)
		fmt.Fprintf(&sb, "   Quote: %q\n", pp.Quote)
		fmt.Fprintf(&sb, "   Severity: %s\n\n", pp.Severity)
	}
	return sb.String()
}

func personaPrompt(painPointsText, problemStatement, targetUsers string, numPersonas int) string {
	return fmt.Sprintf(`You are a UX researcher creating realistic user personas based on actual user pain points.

Problem Context:
%s

Target Users:
%s

Pain Points (from real user research):
%s

Your task:
Create %d distinct, realistic user personas that represent different segments of the target audience. Each persona should:
1. Have a realistic name, age, occupation, and location
2. Reflect the pain points above in their behaviors and frustrations
3. Have unique characteristics, goals, and contexts
4. Feel like a real person, not a stereotype
5. Include specific, actionable details

IMPORTANT: Make personas diverse across ages, occupations, tech savviness levels, usage patterns, and backgrounds.

Return your analysis as a JSON array with this EXACT structure:
[
  {
    "name": "Full name",
    "age": 28,
    "occupation": "Specific job title",
    "location": "City, Country",
    "background": "Brief lifestyle context (1-2 sentences)",
    "image_description": "Physical description for image generation",
    "goals": ["Goal 1", "Goal 2", "Goal 3"],
    "pain_points": ["Pain point 1 from research", "Pain point 2", "Pain point 3"],
    "behaviors": ["Behavior 1", "Behavior 2", "Behavior 3"],
    "quote": "A characteristic quote from this persona",
    "tech_savviness": "Low|Medium|High",
    "usage_frequency": "Specific frequency (e.g., '2-3x per week')",
    "avg_spend": "Spending range",
    "motivations": ["Motivation 1", "Motivation 2"],
    "frustrations": ["Frustration 1", "Frustration 2"]
  }
]

Guidelines:
- Occupations should be specific (not just "professional")
- Quotes should sound natural
- Pain points should directly reference the research data above
- Behaviors should be observable actions
- Make each persona feel unique and memorable

Return ONLY the JSON array, no additional text.

JSON Output:`, problemStatement, targetUsers, painPointsText, numPersonas)
}

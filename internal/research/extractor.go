package research

import (
	"context"
	"fmt"
	"strings"

	"github.com/kmatsuda/userscope/internal/llm"
	"github.com/kmatsuda/userscope/internal/logger"
)

const (
	maxBodyChars    = 500
	maxCommentChars = 300
)

// Extractor turns discussion items into structured pain points via the
// reasoning collaborator.
type Extractor struct {
	client *llm.Client
	log    *logger.Logger
}

func NewExtractor(client *llm.Client, log *logger.Logger) *Extractor {
	return &Extractor{client: client, log: log.WithComponent("research")}
}

type painPointPayload struct {
	Description string `json:"description"`
	Quote       string `json:"quote"`
	Severity    string `json:"severity"`
	SourceURL   string `json:"source_url"`
	Frequency   int    `json:"frequency"`
}

// ExtractPainPoints analyzes the given discussion items. Empty input yields
// an empty result. An unreachable or unparsable collaborator degrades to an
// empty result, never an error, per the documented fallback policy.
func (e *Extractor) ExtractPainPoints(ctx context.Context, items []DiscussionItem, problemStatement, targetUsers string) []PainPoint {
	if len(items) == 0 {
		return nil
	}

	prompt := extractionPrompt(formatContext(items), problemStatement, targetUsers)
	raw, err := e.client.Complete(ctx, "extract-pain-points", prompt)
	if err != nil {
		e.log.Warn().Err(err).Msg("pain point extraction degraded to empty result")
		return nil
	}

	var payload []painPointPayload
	if !llm.ExtractArray(raw, &payload) {
		e.log.Warn().Msg("pain point response unparsable, degraded to empty result")
		return nil
	}

	seen := make(map[string]bool)
	out := make([]PainPoint, 0, len(payload))
	for _, p := range payload {
		desc := strings.TrimSpace(p.Description)
		if desc == "" {
			continue
		}
		key := strings.ToLower(desc)
		if seen[key] {
			continue
		}
		seen[key] = true

		freq := p.Frequency
		if freq < 1 {
			freq = 1
		}
		out = append(out, PainPoint{
			Description: desc,
			Quote:       p.Quote,
			Severity:    NormalizeSeverity(p.Severity),
			SourceURL:   p.SourceURL,
			Frequency:   freq,
		})
	}
	e.log.Info().Int("items", len(items)).Int("pain_points", len(out)).Msg("extraction complete")
	return out
}

func formatContext(items []DiscussionItem) string {
	var sb strings.Builder
	for i, item := range items {
		fmt.Fprintf(&sb, "\n--- POST %d ---\n", i+1)
		fmt.Fprintf(&sb, "Title: %s\n", item.Title)
		fmt.Fprintf(&sb, "URL: %s\n", item.URL)
		if item.Body != "" {
			fmt.Fprintf(&sb, "Content: %s\n", truncate(item.Body, maxBodyChars))
		}
		if len(item.Comments) > 0 {
			sb.WriteString("\nTop Comments:\n")
			for _, c := range item.Comments {
				if c.Text != "" {
					fmt.Fprintf(&sb, "- %s\n", truncate(c.Text, maxCommentChars))
				}
			}
		}
	}
	return sb.String()
}

func extractionPrompt(context, problemStatement, targetUsers string) string {
	return fmt.Sprintf(`Analyze the following online discussions to extract specific pain points related to the problem statement.

Problem Statement: %s
Target Users: %s

Discussion Data:
%s

Your task:
1. Identify distinct pain points that users express
2. For each pain point, extract a direct quote from the discussion data
3. Assess the severity (Low, Medium, or High) based on:
   - High: Critical problems that block users or cause significant frustration
   - Medium: Notable inconveniences that affect user experience
   - Low: Minor annoyances or nice-to-have improvements
4. Identify the source URL for each pain point

Return your analysis as a JSON array with this exact structure:
[
  {
    "description": "Clear 1-sentence description of the pain point",
    "quote": "Exact quote from a user that demonstrates this pain point",
    "severity": "Low|Medium|High",
    "source_url": "Discussion URL",
    "frequency": 1
  }
]

Rules:
- Only extract pain points that are clearly related to the problem statement
- Use actual quotes from the discussion data
- Each pain point should be distinct (no duplicates)
- Be specific and actionable in descriptions
- Return ONLY the JSON array, no additional text

JSON Output:`, problemStatement, targetUsers, context)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

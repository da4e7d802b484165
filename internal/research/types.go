// Package research defines the discussion-data contract and extracts
// structured pain points from discussion items.
package research

// Severity grades how badly a pain point hurts its users.
type Severity string

const (
	SeverityLow    Severity = "Low"
	SeverityMedium Severity = "Medium"
	SeverityHigh   Severity = "High"
)

// NormalizeSeverity maps any string to a valid Severity. Unknown values
// degrade to Medium.
func NormalizeSeverity(s string) Severity {
	switch Severity(s) {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return Severity(s)
	default:
		return SeverityMedium
	}
}

// PainPoint is one structured user complaint, immutable once extracted.
type PainPoint struct {
	Description string   `json:"description"`
	Quote       string   `json:"quote"`
	Severity    Severity `json:"severity"`
	SourceURL   string   `json:"source_url"`
	Frequency   int      `json:"frequency"`
}

// Comment is a single reply on a discussion item.
type Comment struct {
	Text            string `json:"text"`
	EngagementScore int    `json:"engagement_score"`
}

// DiscussionItem is one post/thread returned by a data source.
type DiscussionItem struct {
	Title           string    `json:"title"`
	Body            string    `json:"body"`
	URL             string    `json:"url"`
	EngagementScore int       `json:"engagement_score"`
	Comments        []Comment `json:"comments"`
}

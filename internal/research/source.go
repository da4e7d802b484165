package research

import (
	"context"
	"fmt"
)

// QueryMode declares which query shape a source supports. It is a fixed
// capability resolved at registration, never discovered per call.
type QueryMode int

const (
	// QuerySimple sources take a query string and a result cap.
	QuerySimple QueryMode = iota
	// QueryThreaded sources additionally honor per-item comment caps and a
	// recency window.
	QueryThreaded
)

func (m QueryMode) String() string {
	switch m {
	case QuerySimple:
		return "simple"
	case QueryThreaded:
		return "threaded"
	default:
		return fmt.Sprintf("querymode(%d)", int(m))
	}
}

// Query carries the search parameters. Threaded-only fields are ignored by
// QuerySimple sources.
type Query struct {
	ProblemStatement   string
	TargetUsers        string
	MaxResults         int
	MaxCommentsPerItem int
	DaysBack           int
}

// Source supplies discussion items for a query. Implementations wrap one
// upstream platform each.
type Source interface {
	Name() string
	Mode() QueryMode
	Search(ctx context.Context, q Query) ([]DiscussionItem, error)
}

// DemoSource returns canned discussion data for offline runs and tests.
type DemoSource struct{}

func (DemoSource) Name() string    { return "demo" }
func (DemoSource) Mode() QueryMode { return QueryThreaded }

func (DemoSource) Search(_ context.Context, q Query) ([]DiscussionItem, error) {
	items := []DiscussionItem{
		{
			Title:           "Anyone else struggling with " + q.ProblemStatement + "?",
			Body:            "I keep running into this every week and nothing seems to help.",
			URL:             "https://demo.example/thread/1",
			EngagementScore: 128,
			Comments: []Comment{
				{Text: "Same here, I can't get anything done because of this.", EngagementScore: 45},
				{Text: "It wastes at least an hour of my day, every day.", EngagementScore: 31},
				{Text: "Tried three different workarounds, none of them stuck.", EngagementScore: 18},
			},
		},
		{
			Title:           "Looking for recommendations",
			Body:            "What do " + q.TargetUsers + " use to deal with this? The existing options feel half-baked.",
			URL:             "https://demo.example/thread/2",
			EngagementScore: 76,
			Comments: []Comment{
				{Text: "Honestly nothing works well, I gave up and do it manually.", EngagementScore: 22},
				{Text: "The pricing on the current tools is impossible to justify.", EngagementScore: 14},
			},
		},
		{
			Title:           "Minor gripe",
			Body:            "Not a dealbreaker but the notifications are annoying.",
			URL:             "https://demo.example/thread/3",
			EngagementScore: 12,
			Comments: []Comment{
				{Text: "Yeah, would be nice to have a quiet mode.", EngagementScore: 5},
			},
		},
	}
	if q.MaxResults > 0 && q.MaxResults < len(items) {
		items = items[:q.MaxResults]
	}
	return items, nil
}

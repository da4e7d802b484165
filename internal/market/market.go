// Package market estimates addressable reach for a pain point from static
// category reference data and evidence signals. All lookups and arithmetic
// are deterministic; there is no external I/O.
package market

import (
	"fmt"
	"math"
	"strings"
)

// Category identifies one entry of the fixed market reference table.
type Category string

const (
	CategoryCabBooking     Category = "cab_booking"
	CategoryQuickCommerce  Category = "qcommerce"
	CategoryEcommerce      Category = "ecommerce"
	CategoryFintech        Category = "fintech"
	CategoryFoodDelivery   Category = "food_delivery"
	CategoryDeveloperTools Category = "developer_tools"
	CategoryDefault        Category = "default"
)

// Data is the static reference record bound to a category.
type Data struct {
	MarketSizeUSD int64
	GrowthRate    string
	ActiveUsers   int64
	Description   string
	Sources       []string
}

// categoryOrder fixes match priority: the first category whose keyword list
// hits the combined problem+target text wins.
var categoryOrder = []Category{
	CategoryCabBooking,
	CategoryQuickCommerce,
	CategoryEcommerce,
	CategoryFintech,
	CategoryFoodDelivery,
	CategoryDeveloperTools,
}

var categoryKeywords = map[Category][]string{
	CategoryCabBooking:     {"cab", "taxi", "uber", "ola", "rapido", "ride", "booking", "transport"},
	CategoryQuickCommerce:  {"qcommerce", "quick commerce", "grocery", "zepto", "blinkit", "instamart", "delivery", "instant"},
	CategoryEcommerce:      {"ecommerce", "shopping", "online shopping", "amazon", "flipkart", "meesho"},
	CategoryFintech:        {"payment", "wallet", "upi", "banking", "loan", "credit", "paytm", "phonepe"},
	CategoryFoodDelivery:   {"food delivery", "swiggy", "zomato", "restaurant", "order food"},
	CategoryDeveloperTools: {"api", "developer", "coding", "programming", "kubernetes", "deployment", "devops", "cloud"},
}

// marketData holds 2025 reference figures for the Indian consumer market.
var marketData = map[Category]Data{
	CategoryCabBooking: {
		MarketSizeUSD: 22_250_000_000,
		GrowthRate:    "7.89% CAGR",
		ActiveUsers:   50_000_000,
		Description:   "India Taxi Market",
		Sources:       []string{"Mordor Intelligence India Taxi Market Report 2025"},
	},
	CategoryQuickCommerce: {
		MarketSizeUSD: 5_380_000_000,
		GrowthRate:    "16.07% CAGR",
		ActiveUsers:   25_000_000,
		Description:   "India Quick Commerce Market",
		Sources:       []string{"Market Research Reports 2025"},
	},
	CategoryEcommerce: {
		MarketSizeUSD: 85_000_000_000,
		GrowthRate:    "18% CAGR",
		ActiveUsers:   200_000_000,
		Description:   "India E-commerce Market",
		Sources:       []string{"Industry Reports 2025"},
	},
	CategoryFintech: {
		MarketSizeUSD: 150_000_000_000,
		GrowthRate:    "22% CAGR",
		ActiveUsers:   300_000_000,
		Description:   "India Fintech Market",
		Sources:       []string{"Fintech Market Analysis 2025"},
	},
	CategoryFoodDelivery: {
		MarketSizeUSD: 15_000_000_000,
		GrowthRate:    "25% CAGR",
		ActiveUsers:   80_000_000,
		Description:   "India Food Delivery Market",
		Sources:       []string{"Food Tech Market Reports 2025"},
	},
	CategoryDeveloperTools: {
		MarketSizeUSD: 5_000_000_000,
		GrowthRate:    "20% CAGR",
		ActiveUsers:   5_000_000,
		Description:   "India Developer Tools Market",
		Sources:       []string{"Tech Industry Reports 2025"},
	},
	CategoryDefault: {
		MarketSizeUSD: 10_000_000_000,
		GrowthRate:    "15% CAGR",
		ActiveUsers:   50_000_000,
		Description:   "Indian Consumer Market",
		Sources:       []string{"Market Estimates"},
	},
}

const maxPenetration = 0.50

// Estimate is the result of a reach calculation.
type Estimate struct {
	Category        Category `json:"category"`
	Reach           int64    `json:"reach"`
	PenetrationRate float64  `json:"penetration_rate"`
	Justification   string   `json:"justification"`
}

// Snapshot is the full reference view of a category for reporting.
type Snapshot struct {
	Category      Category `json:"category"`
	TAM           string   `json:"tam"`
	SAM           string   `json:"sam"`
	SOM           string   `json:"som"`
	MarketSizeUSD int64    `json:"market_size_usd"`
	GrowthRate    string   `json:"growth_rate"`
	Sources       []string `json:"sources"`
}

// Estimator maps problem domains to market categories and computes reach.
type Estimator struct{}

// NewEstimator returns an Estimator over the built-in reference table.
func NewEstimator() *Estimator { return &Estimator{} }

// IdentifyCategory resolves the market category by case-insensitive keyword
// substring match against the combined problem and target-user text.
func (e *Estimator) IdentifyCategory(problemStatement, targetUsers string) Category {
	text := strings.ToLower(problemStatement + " " + targetUsers)
	for _, cat := range categoryOrder {
		for _, kw := range categoryKeywords[cat] {
			if strings.Contains(text, kw) {
				return cat
			}
		}
	}
	return CategoryDefault
}

// EstimateReach computes the affected-user estimate for a pain point from
// its recurrence frequency, the comment volume analyzed, and its severity.
func (e *Estimator) EstimateReach(problemStatement, targetUsers string, frequency, numComments int, severity string) Estimate {
	cat := e.IdentifyCategory(problemStatement, targetUsers)
	data := marketData[cat]

	rate := penetrationRate(frequency, numComments, severity)
	reach := int64(math.Floor(float64(data.ActiveUsers) * rate))

	return Estimate{
		Category:        cat,
		Reach:           reach,
		PenetrationRate: rate,
		Justification:   buildJustification(data, rate, reach, frequency, numComments, severity),
	}
}

// MarketData returns the reference snapshot for the resolved category.
func (e *Estimator) MarketData(problemStatement, targetUsers string) Snapshot {
	cat := e.IdentifyCategory(problemStatement, targetUsers)
	data := marketData[cat]
	return Snapshot{
		Category:      cat,
		TAM:           data.Description,
		SAM:           fmt.Sprintf("%s active users in India", formatInt(data.ActiveUsers)),
		SOM:           "To be calculated based on pain point penetration",
		MarketSizeUSD: data.MarketSizeUSD,
		GrowthRate:    data.GrowthRate,
		Sources:       data.Sources,
	}
}

func penetrationRate(frequency, numComments int, severity string) float64 {
	var base float64
	switch {
	case frequency >= 10:
		base = 0.40
	case frequency >= 5:
		base = 0.30
	case frequency >= 3:
		base = 0.20
	default:
		base = 0.10
	}

	var commentMult float64
	switch {
	case numComments >= 100:
		commentMult = 1.2
	case numComments >= 50:
		commentMult = 1.1
	case numComments >= 20:
		commentMult = 1.0
	default:
		commentMult = 0.8
	}

	sevMult := 1.0
	switch severity {
	case "High":
		sevMult = 1.2
	case "Low":
		sevMult = 0.7
	}

	return math.Min(base*commentMult*sevMult, maxPenetration)
}

func buildJustification(data Data, rate float64, reach int64, frequency, numComments int, severity string) string {
	return fmt.Sprintf(`**Reach Calculation:**
- Market: %s
- Total Active Users: %s
- Estimated Penetration: %.0f%%

**Evidence:**
- Mentioned %dx in user research
- %d comments/discussions analyzed
- Severity: %s

**Calculation:**
%s users x %.0f%% = %s affected users

**Source:** %s`,
		data.Description, formatInt(data.ActiveUsers), rate*100,
		frequency, numComments, severity,
		formatInt(data.ActiveUsers), rate*100, formatInt(reach),
		strings.Join(data.Sources, ", "))
}

// formatInt renders n with comma thousands separators.
func formatInt(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var sb strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		sb.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if sb.Len() > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(s[i : i+3])
	}
	return sb.String()
}

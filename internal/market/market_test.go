package market

import (
	"strings"
	"testing"
)

func TestIdentifyCategory(t *testing.T) {
	e := NewEstimator()
	cases := []struct {
		problem string
		target  string
		want    Category
	}{
		{"booking a cab takes too long", "commuters", CategoryCabBooking},
		{"grocery orders arrive late", "urban families", CategoryQuickCommerce},
		{"online shopping returns are painful", "shoppers", CategoryEcommerce},
		{"UPI payment failures during checkout", "merchants", CategoryFintech},
		{"ordering from swiggy is confusing", "diners", CategoryFoodDelivery},
		{"kubernetes deployment is slow", "platform engineers", CategoryDeveloperTools},
		{"nothing matches here", "nobody in particular", CategoryDefault},
	}
	for _, tc := range cases {
		if got := e.IdentifyCategory(tc.problem, tc.target); got != tc.want {
			t.Errorf("IdentifyCategory(%q, %q) = %s, want %s", tc.problem, tc.target, got, tc.want)
		}
	}
}

func TestIdentifyCategoryOrderSensitive(t *testing.T) {
	e := NewEstimator()
	// "delivery" is a quick-commerce keyword and qcommerce precedes
	// food_delivery in the declared order, so it must win even when food
	// terms are also present.
	got := e.IdentifyCategory("food delivery from restaurants is slow", "diners")
	if got != CategoryQuickCommerce {
		t.Errorf("category = %s, want %s (declared order must decide)", got, CategoryQuickCommerce)
	}
}

func TestIdentifyCategoryCaseInsensitive(t *testing.T) {
	e := NewEstimator()
	if got := e.IdentifyCategory("UBER surge pricing", ""); got != CategoryCabBooking {
		t.Errorf("category = %s, want %s", got, CategoryCabBooking)
	}
}

func TestPenetrationRateMonotonicInFrequency(t *testing.T) {
	prev := 0.0
	for _, freq := range []int{2, 3, 5, 10} {
		rate := penetrationRate(freq, 50, "Medium")
		if rate < prev {
			t.Errorf("penetration rate decreased at freq=%d: %f < %f", freq, rate, prev)
		}
		prev = rate
	}
}

func TestPenetrationRateCapped(t *testing.T) {
	// 0.40 * 1.2 * 1.2 = 0.576 before the cap.
	rate := penetrationRate(20, 500, "High")
	if rate != 0.50 {
		t.Errorf("rate = %f, want 0.50 cap", rate)
	}
}

func TestPenetrationRateTiers(t *testing.T) {
	cases := []struct {
		freq, comments int
		severity       string
		want           float64
	}{
		{10, 20, "Medium", 0.40},
		{5, 20, "Medium", 0.30},
		{3, 20, "Medium", 0.20},
		{1, 20, "Medium", 0.10},
		{3, 100, "Medium", 0.24},
		{3, 50, "Medium", 0.22},
		{3, 5, "Medium", 0.16},
		{3, 20, "High", 0.24},
		{3, 20, "Low", 0.14},
	}
	for _, tc := range cases {
		got := penetrationRate(tc.freq, tc.comments, tc.severity)
		if diff := got - tc.want; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("penetrationRate(%d, %d, %s) = %f, want %f", tc.freq, tc.comments, tc.severity, got, tc.want)
		}
	}
}

func TestPenetrationRateUnknownSeverity(t *testing.T) {
	if got, want := penetrationRate(3, 20, "Catastrophic"), 0.20; got != want {
		t.Errorf("unknown severity rate = %f, want %f (Medium multiplier)", got, want)
	}
}

func TestEstimateReach(t *testing.T) {
	e := NewEstimator()
	// Fintech: 300M active users, freq 10 / 50 comments / High severity
	// gives 0.40 * 1.1 * 1.2 = 0.528, capped to 0.50.
	est := e.EstimateReach("UPI payment keeps failing", "young professionals", 10, 50, "High")
	if est.Category != CategoryFintech {
		t.Fatalf("category = %s, want %s", est.Category, CategoryFintech)
	}
	if est.PenetrationRate != 0.50 {
		t.Errorf("penetration = %f, want 0.50", est.PenetrationRate)
	}
	if est.Reach != 150_000_000 {
		t.Errorf("reach = %d, want 150000000", est.Reach)
	}
	for _, frag := range []string{"India Fintech Market", "300,000,000", "Mentioned 10x", "Severity: High", "Fintech Market Analysis 2025"} {
		if !strings.Contains(est.Justification, frag) {
			t.Errorf("justification missing %q", frag)
		}
	}
}

func TestMarketData(t *testing.T) {
	e := NewEstimator()
	snap := e.MarketData("cab rides are expensive", "commuters")
	if snap.Category != CategoryCabBooking {
		t.Fatalf("category = %s", snap.Category)
	}
	if snap.TAM != "India Taxi Market" {
		t.Errorf("TAM = %q", snap.TAM)
	}
	if snap.SAM != "50,000,000 active users in India" {
		t.Errorf("SAM = %q", snap.SAM)
	}
	if snap.MarketSizeUSD != 22_250_000_000 {
		t.Errorf("market size = %d", snap.MarketSizeUSD)
	}
}

func TestFormatInt(t *testing.T) {
	cases := map[int64]string{
		0:          "0",
		999:        "999",
		1000:       "1,000",
		50000000:   "50,000,000",
		1450000000: "1,450,000,000",
	}
	for n, want := range cases {
		if got := formatInt(n); got != want {
			t.Errorf("formatInt(%d) = %q, want %q", n, got, want)
		}
	}
}

//go:build integration

package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kmatsuda/userscope/internal/httpapi"
	"github.com/kmatsuda/userscope/internal/llm"
	"github.com/kmatsuda/userscope/internal/logger"
	"github.com/kmatsuda/userscope/internal/market"
	"github.com/kmatsuda/userscope/internal/persona"
	"github.com/kmatsuda/userscope/internal/prioritize"
	"github.com/kmatsuda/userscope/internal/research"
	"github.com/kmatsuda/userscope/internal/simulate"
	"github.com/kmatsuda/userscope/internal/store"
)

// scriptedCaller routes each pipeline prompt to a canned JSON response so
// the whole stack runs without a network.
type scriptedCaller struct{}

func (scriptedCaller) ModelName() string { return "scripted" }

func (scriptedCaller) Complete(_ context.Context, prompt string) (string, error) {
	switch {
	case strings.Contains(prompt, "extract specific pain points"):
		return `[{"description": "Drivers cancel after accepting", "quote": "Cancelled on me twice today", "severity": "High", "source_url": "https://demo.example/thread/1", "frequency": 12}]`, nil
	case strings.Contains(prompt, "distinct, realistic user personas"):
		return `[{"name": "Priya Sharma", "age": 31, "occupation": "Product Manager", "location": "Mumbai", "background": "Commutes daily", "goals": ["Arrive on time"], "pain_points": ["Drivers cancel after accepting"], "behaviors": ["Books rides in advance"], "quote": "I need reliability", "tech_savviness": "High", "usage_frequency": "Daily", "avg_spend": "moderate", "motivations": ["Predictability"], "frustrations": ["Last-minute cancellations"]}]`, nil
	case strings.Contains(prompt, "Jobs-to-be-Done"):
		return `{"job_statement": "When booking a ride, users want a confirmed pickup", "importance": 9, "satisfaction": 2, "opportunity_score": 16, "category": "underserved", "reasoning": "High importance, low satisfaction"}`, nil
	case strings.Contains(prompt, "person-months"):
		return `{"ui_frontend": 1.0, "backend_api": 2.0, "infrastructure": 0.5, "testing_qa": 0.5, "total_effort": 4.0}`, nil
	case strings.Contains(prompt, "virtual user profile"):
		return `{"name": "Asha Rao", "age": 29, "occupation": "Consultant", "location": "Bengaluru", "problem_context": "Needs reliable rides", "primary_goal": "Get to meetings", "sensitivities": [], "traits": [], "patience_level": "medium", "frustration_triggers": []}`, nil
	case strings.Contains(prompt, "designing test scenarios"):
		return `{"scenarios": [{"scenario_name": "Happy Path", "scenario_type": "happy_path", "description": "All works", "steps": [{"step_type": "action", "description": "User books a ride", "expected_outcome": "Booking succeeds"}]}]}`, nil
	case strings.Contains(prompt, "simulating the decision-making"):
		return `{"chosen_option": 1, "reasoning": "Stays with the app", "emotional_state": "neutral", "context_adjustment": 0, "context_explanation": ""}`, nil
	default:
		return "{}", nil
	}
}

func TestFullPipelineOverHTTP(t *testing.T) {
	log := logger.Nop()
	client := llm.NewClient(scriptedCaller{}, 0, log)

	st, err := store.Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	estimator := market.NewEstimator()
	handler := httpapi.NewServer(httpapi.Config{
		Sources:     []research.Source{research.DemoSource{}},
		Extractor:   research.NewExtractor(client, log),
		Personas:    persona.NewSynthesizer(client, log),
		Prioritizer: prioritize.NewEngine(client, estimator, prioritize.Options{}, log),
		Simulator:   simulate.NewSimulator(client, simulate.Options{NumScenarios: 1}, log),
		Estimator:   estimator,
		Store:       st,
		Log:         log,
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	defer srv.Close()

	baseURL := "http://" + ln.Addr().String()
	t.Logf("userscope running at %s", baseURL)

	// --- 1. Research ---
	var researchResp struct {
		RunID      string `json:"run_id"`
		PainPoints []struct {
			Description string `json:"description"`
			Severity    string `json:"severity"`
			Frequency   int    `json:"frequency"`
		} `json:"pain_points"`
		Degraded bool `json:"degraded"`
	}
	postJSON(t, baseURL+"/v1/research",
		`{"problem_statement": "cab booking is unreliable", "target_users": "urban commuters"}`, &researchResp)
	if len(researchResp.PainPoints) != 1 || researchResp.Degraded {
		t.Fatalf("research = %+v", researchResp)
	}

	painPointsJSON, _ := json.Marshal(researchResp.PainPoints)

	// --- 2. Personas ---
	var personasResp struct {
		Personas []json.RawMessage `json:"personas"`
	}
	postJSON(t, baseURL+"/v1/personas",
		`{"pain_points": `+string(painPointsJSON)+`, "problem_statement": "cab booking is unreliable", "num_personas": 1}`, &personasResp)
	if len(personasResp.Personas) != 1 {
		t.Fatalf("personas = %d", len(personasResp.Personas))
	}
	personasJSON, _ := json.Marshal(personasResp.Personas)

	// --- 3. Prioritize ---
	var prioritizeResp struct {
		RunID       string `json:"run_id"`
		Prioritized []struct {
			PriorityRank int     `json:"priority_rank"`
			FinalScore   float64 `json:"final_score"`
			JTBD         struct {
				OpportunityScore float64 `json:"opportunity_score"`
			} `json:"jtbd"`
		} `json:"prioritized"`
	}
	postJSON(t, baseURL+"/v1/prioritize",
		`{"pain_points": `+string(painPointsJSON)+`, "personas": `+string(personasJSON)+`, "problem_statement": "cab booking is unreliable", "target_users": "urban commuters"}`, &prioritizeResp)
	if len(prioritizeResp.Prioritized) != 1 {
		t.Fatalf("prioritized = %+v", prioritizeResp)
	}
	top := prioritizeResp.Prioritized[0]
	if top.PriorityRank != 1 || top.JTBD.OpportunityScore != 16 {
		t.Errorf("top = %+v", top)
	}
	if top.FinalScore <= 0 || top.FinalScore > 100 {
		t.Errorf("final score out of range: %g", top.FinalScore)
	}

	// --- 4. Report ---
	md := getBody(t, baseURL+"/v1/runs/"+prioritizeResp.RunID+"/report")
	for _, want := range []string{"# Prioritization Report", "Drivers cancel after accepting", "Priya Sharma"} {
		if !strings.Contains(md, want) {
			t.Errorf("report missing %q", want)
		}
	}

	// --- 5. Simulate ---
	var simulateResp struct {
		RunID       string `json:"run_id"`
		VirtualUser struct {
			Name string `json:"name"`
		} `json:"virtual_user"`
		Scenarios []struct {
			Outcome string `json:"outcome"`
		} `json:"scenarios"`
	}
	postJSON(t, baseURL+"/v1/simulate",
		`{"problem_statement": "cab booking is unreliable", "target_users": "urban commuters", "product_flow": "open, book, ride", "num_scenarios": 1}`, &simulateResp)
	if simulateResp.VirtualUser.Name != "Asha Rao" || len(simulateResp.Scenarios) != 1 {
		t.Fatalf("simulate = %+v", simulateResp)
	}
	if !strings.Contains(simulateResp.Scenarios[0].Outcome, "Success") {
		t.Errorf("outcome = %q", simulateResp.Scenarios[0].Outcome)
	}

	// --- 6. Runs listing has all four ---
	var listing struct {
		Runs []struct {
			Kind string `json:"kind"`
		} `json:"runs"`
	}
	resp, err := http.Get(baseURL + "/v1/runs")
	if err != nil {
		t.Fatalf("GET /v1/runs: %v", err)
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		t.Fatalf("decode runs: %v", err)
	}
	if len(listing.Runs) != 4 {
		t.Errorf("runs = %+v, want 4", listing.Runs)
	}
}

func postJSON(t *testing.T, url, body string, dst any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewReader([]byte(body)))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST %s returned %d: %s", url, resp.StatusCode, raw)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		t.Fatalf("decode %s response: %v\n%s", url, err, raw)
	}
}

func getBody(t *testing.T, url string) string {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s returned %d: %s", url, resp.StatusCode, raw)
	}
	return string(raw)
}

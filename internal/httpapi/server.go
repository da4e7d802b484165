// Package httpapi exposes the research, persona, prioritization, and
// simulation pipelines over HTTP and serves stored runs.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kmatsuda/userscope/internal/logger"
	"github.com/kmatsuda/userscope/internal/market"
	"github.com/kmatsuda/userscope/internal/persona"
	"github.com/kmatsuda/userscope/internal/prioritize"
	"github.com/kmatsuda/userscope/internal/report"
	"github.com/kmatsuda/userscope/internal/research"
	"github.com/kmatsuda/userscope/internal/simulate"
	"github.com/kmatsuda/userscope/internal/store"
)

// PainPointExtractor analyzes discussion items into pain points.
type PainPointExtractor interface {
	ExtractPainPoints(ctx context.Context, items []research.DiscussionItem, problemStatement, targetUsers string) []research.PainPoint
}

// PersonaSynthesizer builds personas from pain points.
type PersonaSynthesizer interface {
	Generate(ctx context.Context, painPoints []research.PainPoint, problemStatement, targetUsers string, numPersonas int) []persona.Persona
}

// Prioritizer scores and ranks pain points.
type Prioritizer interface {
	Prioritize(ctx context.Context, painPoints []research.PainPoint, personas []persona.Persona, problemStatement, targetUsers string) []prioritize.PrioritizedPainPoint
}

// ScenarioRunner drives a virtual user through simulated journeys.
type ScenarioRunner interface {
	Run(ctx context.Context, problemStatement, targetUsers, productFlow string, numScenarios int) simulate.Result
}

// Config wires the pipeline services into the server.
type Config struct {
	Sources     []research.Source
	Extractor   PainPointExtractor
	Personas    PersonaSynthesizer
	Prioritizer Prioritizer
	Simulator   ScenarioRunner
	Estimator   *market.Estimator
	Store       *store.Store
	Log         *logger.Logger
}

type Server struct {
	cfg Config
	log *logger.Logger
}

// NewServer builds the HTTP handler for all v1 routes.
func NewServer(cfg Config) http.Handler {
	s := &Server{cfg: cfg, log: cfg.Log.WithComponent("httpapi")}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	v1 := router.Group("/v1")
	v1.GET("/health", s.handleHealth)
	v1.POST("/research", s.handleResearch)
	v1.POST("/personas", s.handlePersonas)
	v1.POST("/prioritize", s.handlePrioritize)
	v1.POST("/simulate", s.handleSimulate)
	v1.GET("/runs", s.handleListRuns)
	v1.GET("/runs/:id", s.handleGetRun)
	v1.GET("/runs/:id/report", s.handleRunReport)
	return router
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"ok":    false,
		"error": gin.H{"code": "bad_request", "message": msg},
	})
}

func internalError(c *gin.Context, msg string) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"ok":    false,
		"error": gin.H{"code": "internal", "message": msg},
	})
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"ok":    false,
		"error": gin.H{"code": "not_found", "message": "run not found"},
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "status": "healthy"})
}

type researchRequest struct {
	ProblemStatement string `json:"problem_statement" binding:"required"`
	TargetUsers      string `json:"target_users" binding:"required"`
	MaxResults       int    `json:"max_results"`
}

type researchResponse struct {
	RunID      string               `json:"run_id,omitempty"`
	PainPoints []research.PainPoint `json:"pain_points"`
	Degraded   bool                 `json:"degraded"`
}

func (s *Server) handleResearch(c *gin.Context) {
	var req researchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	query := research.Query{
		ProblemStatement: req.ProblemStatement,
		TargetUsers:      req.TargetUsers,
		MaxResults:       req.MaxResults,
	}
	var items []research.DiscussionItem
	for _, src := range s.cfg.Sources {
		found, err := src.Search(c.Request.Context(), query)
		if err != nil {
			s.log.Warn().Err(err).Str("source", src.Name()).Msg("source search failed, skipping")
			continue
		}
		items = append(items, found...)
	}

	points := s.cfg.Extractor.ExtractPainPoints(c.Request.Context(), items, req.ProblemStatement, req.TargetUsers)
	if points == nil {
		points = []research.PainPoint{}
	}

	resp := researchResponse{
		PainPoints: points,
		Degraded:   len(items) > 0 && len(points) == 0,
	}
	resp.RunID = s.saveRun(store.RunResearch, req.ProblemStatement, resp)
	c.JSON(http.StatusOK, resp)
}

type personasRequest struct {
	PainPoints       []research.PainPoint `json:"pain_points" binding:"required"`
	ProblemStatement string               `json:"problem_statement" binding:"required"`
	TargetUsers      string               `json:"target_users"`
	NumPersonas      int                  `json:"num_personas"`
}

type personasResponse struct {
	RunID    string            `json:"run_id,omitempty"`
	Personas []persona.Persona `json:"personas"`
}

func (s *Server) handlePersonas(c *gin.Context) {
	var req personasRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	personas := s.cfg.Personas.Generate(c.Request.Context(), req.PainPoints, req.ProblemStatement, req.TargetUsers, req.NumPersonas)
	if personas == nil {
		personas = []persona.Persona{}
	}

	resp := personasResponse{Personas: personas}
	resp.RunID = s.saveRun(store.RunPersonas, req.ProblemStatement, resp)
	c.JSON(http.StatusOK, resp)
}

type prioritizeRequest struct {
	PainPoints       []research.PainPoint `json:"pain_points" binding:"required"`
	Personas         []persona.Persona    `json:"personas"`
	ProblemStatement string               `json:"problem_statement" binding:"required"`
	TargetUsers      string               `json:"target_users"`
}

// prioritizeResponse is stored as the run payload so the report endpoint
// can rebuild the full report later.
type prioritizeResponse struct {
	RunID string `json:"run_id,omitempty"`
	report.Document
}

func (s *Server) handlePrioritize(c *gin.Context) {
	var req prioritizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	ranked := s.cfg.Prioritizer.Prioritize(c.Request.Context(), req.PainPoints, req.Personas, req.ProblemStatement, req.TargetUsers)

	resp := prioritizeResponse{Document: report.Document{
		ProblemStatement: req.ProblemStatement,
		GeneratedAt:      time.Now().UTC(),
		Market:           s.cfg.Estimator.MarketData(req.ProblemStatement, req.TargetUsers),
		Personas:         req.Personas,
		Prioritized:      ranked,
	}}
	resp.RunID = s.saveRun(store.RunPrioritize, req.ProblemStatement, resp)
	c.JSON(http.StatusOK, resp)
}

type simulateRequest struct {
	ProblemStatement string `json:"problem_statement" binding:"required"`
	TargetUsers      string `json:"target_users" binding:"required"`
	ProductFlow      string `json:"product_flow" binding:"required"`
	NumScenarios     int    `json:"num_scenarios"`
}

type simulateResponse struct {
	RunID string `json:"run_id,omitempty"`
	simulate.Result
}

func (s *Server) handleSimulate(c *gin.Context) {
	var req simulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	result := s.cfg.Simulator.Run(c.Request.Context(), req.ProblemStatement, req.TargetUsers, req.ProductFlow, req.NumScenarios)

	resp := simulateResponse{Result: result}
	resp.RunID = s.saveRun(store.RunSimulate, req.ProblemStatement, resp)
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleListRuns(c *gin.Context) {
	runs, err := s.cfg.Store.List(store.RunKind(c.Query("kind")))
	if err != nil {
		internalError(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (s *Server) handleGetRun(c *gin.Context) {
	run, err := s.cfg.Store.Get(c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		notFound(c)
		return
	}
	if err != nil {
		internalError(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, run)
}

// handleRunReport rebuilds the markdown prioritization report from a stored
// prioritize run.
func (s *Server) handleRunReport(c *gin.Context) {
	run, err := s.cfg.Store.Get(c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		notFound(c)
		return
	}
	if err != nil {
		internalError(c, err.Error())
		return
	}
	if run.Kind != store.RunPrioritize {
		badRequest(c, "reports are only available for prioritize runs")
		return
	}

	var doc report.Document
	if err := json.Unmarshal(run.Payload, &doc); err != nil {
		internalError(c, "stored payload is unreadable")
		return
	}

	md := report.Markdown(doc.Input())
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(md))
}

// saveRun archives a pipeline result. Persistence failures are logged but
// never fail the request.
func (s *Server) saveRun(kind store.RunKind, problemStatement string, payload any) string {
	if s.cfg.Store == nil {
		return ""
	}
	id, err := s.cfg.Store.Save(kind, problemStatement, payload)
	if err != nil {
		s.log.Error().Err(err).Str("kind", string(kind)).Msg("failed to persist run")
		return ""
	}
	return id
}

// userscope serves the research, persona, prioritization, and simulation
// pipelines over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kmatsuda/userscope/internal/config"
	"github.com/kmatsuda/userscope/internal/httpapi"
	"github.com/kmatsuda/userscope/internal/llm"
	"github.com/kmatsuda/userscope/internal/logger"
	"github.com/kmatsuda/userscope/internal/market"
	"github.com/kmatsuda/userscope/internal/persona"
	"github.com/kmatsuda/userscope/internal/prioritize"
	"github.com/kmatsuda/userscope/internal/research"
	"github.com/kmatsuda/userscope/internal/simulate"
	"github.com/kmatsuda/userscope/internal/store"
	"github.com/kmatsuda/userscope/internal/telemetry"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Default().Fatal().Err(err).Msg("load config")
	}
	log := logger.New(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	shutdownTracing, err := telemetry.Init(ctx, cfg.Telemetry.Enabled, cfg.Telemetry.Endpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("init telemetry")
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		_ = shutdownTracing(flushCtx)
	}()

	caller, err := llm.NewAnthropicCaller(cfg.Anthropic.APIKey, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens)
	if err != nil {
		log.Fatal().Err(err).Msg("init anthropic caller")
	}
	client := llm.NewClient(caller, cfg.Anthropic.RequestsPerMinute, log)

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Database.Path).Msg("open run store")
	}
	defer st.Close()

	estimator := market.NewEstimator()
	handler := httpapi.NewServer(httpapi.Config{
		Sources:   []research.Source{research.DemoSource{}},
		Extractor: research.NewExtractor(client, log),
		Personas:  persona.NewSynthesizer(client, log),
		Prioritizer: prioritize.NewEngine(client, estimator, prioritize.Options{
			DefaultComments: cfg.Research.DefaultComments,
			DefaultSources:  cfg.Research.DefaultSources,
		}, log),
		Simulator: simulate.NewSimulator(client, simulate.Options{
			NumScenarios:            cfg.Simulation.NumScenarios,
			ExtraFrustrationWeights: cfg.Simulation.ExtraFrustrationWeights,
		}, log),
		Estimator: estimator,
		Store:     st,
		Log:       log,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", cfg.Server.Addr).Str("model", client.ModelName()).Msg("userscope listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server failed")
	}
	log.Info().Msg("userscope stopped")
}

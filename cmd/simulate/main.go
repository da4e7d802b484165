// simulate drives a virtual user through generated product scenarios and
// writes the simulation result as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kmatsuda/userscope/internal/config"
	"github.com/kmatsuda/userscope/internal/llm"
	"github.com/kmatsuda/userscope/internal/logger"
	"github.com/kmatsuda/userscope/internal/simulate"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	problem := flag.String("problem", "", "problem statement the product addresses")
	target := flag.String("target", "", "target user description")
	flow := flag.String("flow", "", "product flow description (step by step)")
	numScenarios := flag.Int("scenarios", 0, "number of scenarios to simulate (default from config)")
	outputPath := flag.String("output", "", "path to write result JSON (defaults to stdout)")
	flag.Parse()

	log := logger.Default()
	if *problem == "" || *target == "" || *flow == "" {
		log.Fatal().Msg("missing required -problem, -target, and -flow")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	caller, err := llm.NewAnthropicCaller(cfg.Anthropic.APIKey, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens)
	if err != nil {
		log.Fatal().Err(err).Msg("init anthropic caller")
	}
	client := llm.NewClient(caller, cfg.Anthropic.RequestsPerMinute, log)

	sim := simulate.NewSimulator(client, simulate.Options{
		NumScenarios:            cfg.Simulation.NumScenarios,
		ExtraFrustrationWeights: cfg.Simulation.ExtraFrustrationWeights,
	}, log)
	result := sim.Run(ctx, *problem, *target, *flow, *numScenarios)

	for _, insight := range result.SummaryInsights {
		log.Info().Msg(insight)
	}

	b, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("encode result")
	}
	if *outputPath == "" {
		fmt.Println(string(b))
		return
	}
	if err := os.WriteFile(*outputPath, b, 0o644); err != nil {
		log.Fatal().Err(err).Msg("write output")
	}
}

// prioritize runs the research-to-ranking pipeline from the command line
// and writes the result as JSON, with an optional markdown report.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kmatsuda/userscope/internal/config"
	"github.com/kmatsuda/userscope/internal/llm"
	"github.com/kmatsuda/userscope/internal/logger"
	"github.com/kmatsuda/userscope/internal/market"
	"github.com/kmatsuda/userscope/internal/persona"
	"github.com/kmatsuda/userscope/internal/prioritize"
	"github.com/kmatsuda/userscope/internal/report"
	"github.com/kmatsuda/userscope/internal/research"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	problem := flag.String("problem", "", "problem statement to research")
	target := flag.String("target", "", "target user description")
	numPersonas := flag.Int("personas", 0, "number of personas to synthesize (default from config)")
	outputPath := flag.String("output", "", "path to write result JSON (defaults to stdout)")
	markdownPath := flag.String("markdown", "", "optional path to write the markdown report")
	flag.Parse()

	log := logger.Default()
	if *problem == "" || *target == "" {
		log.Fatal().Msg("missing required -problem and -target")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}
	if *numPersonas <= 0 {
		*numPersonas = cfg.Research.DefaultNumPersona
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	caller, err := llm.NewAnthropicCaller(cfg.Anthropic.APIKey, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens)
	if err != nil {
		log.Fatal().Err(err).Msg("init anthropic caller")
	}
	client := llm.NewClient(caller, cfg.Anthropic.RequestsPerMinute, log)

	query := research.Query{
		ProblemStatement: *problem,
		TargetUsers:      *target,
		MaxResults:       cfg.Research.MaxResults,
	}
	items, err := research.DemoSource{}.Search(ctx, query)
	if err != nil {
		log.Fatal().Err(err).Msg("source search")
	}

	extractor := research.NewExtractor(client, log)
	painPoints := extractor.ExtractPainPoints(ctx, items, *problem, *target)
	log.Info().Int("pain_points", len(painPoints)).Msg("extraction complete")

	synth := persona.NewSynthesizer(client, log)
	personas := synth.Generate(ctx, painPoints, *problem, *target, *numPersonas)
	log.Info().Int("personas", len(personas)).Msg("persona synthesis complete")

	estimator := market.NewEstimator()
	engine := prioritize.NewEngine(client, estimator, prioritize.Options{
		DefaultComments: cfg.Research.DefaultComments,
		DefaultSources:  cfg.Research.DefaultSources,
	}, log)
	ranked := engine.Prioritize(ctx, painPoints, personas, *problem, *target)

	doc := report.Document{
		ProblemStatement: *problem,
		GeneratedAt:      time.Now().UTC(),
		Market:           estimator.MarketData(*problem, *target),
		Personas:         personas,
		Prioritized:      ranked,
	}

	if err := writeJSON(*outputPath, doc); err != nil {
		log.Fatal().Err(err).Msg("write output")
	}
	if *markdownPath != "" {
		if err := os.WriteFile(*markdownPath, []byte(report.Markdown(doc.Input())), 0o644); err != nil {
			log.Fatal().Err(err).Msg("write markdown")
		}
	}
}

func writeJSON(path string, doc report.Document) error {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if path == "" {
		_, err = fmt.Println(string(b))
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

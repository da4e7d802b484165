// render-report rebuilds the markdown prioritization report from a saved
// result document and optionally prints it to PDF through headless
// Chromium.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kmatsuda/userscope/internal/report"
)

func main() {
	inputPath := flag.String("input", "", "path to saved prioritization result JSON")
	markdownPath := flag.String("markdown", "", "path to write rebuilt markdown (defaults to stdout)")
	pdfPath := flag.String("pdf", "", "optional path to write rendered PDF")
	flag.Parse()

	if *inputPath == "" {
		fmt.Fprintln(os.Stderr, "missing required -input")
		os.Exit(1)
	}

	in, err := os.ReadFile(*inputPath)
	if err != nil {
		fatal("read input: %v", err)
	}

	var doc report.Document
	if err := json.Unmarshal(in, &doc); err != nil {
		fatal("decode input JSON: %v", err)
	}

	md := report.Markdown(doc.Input())
	if err := writeMarkdown(*markdownPath, md); err != nil {
		fatal("write markdown: %v", err)
	}

	if *pdfPath != "" {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		pdf, err := report.NewChromiumPDFRenderer().Render(ctx, md)
		if err != nil {
			fatal("render pdf: %v", err)
		}
		if err := os.WriteFile(*pdfPath, pdf, 0o644); err != nil {
			fatal("write pdf: %v", err)
		}
	}
}

func writeMarkdown(path, markdown string) error {
	if path == "" {
		_, err := fmt.Print(markdown)
		return err
	}
	return os.WriteFile(path, []byte(markdown), 0o644)
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

package report

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// ChromiumPDFRenderer prints a markdown report to PDF through a headless
// Chromium instance.
type ChromiumPDFRenderer struct {
	chromePath string
}

func NewChromiumPDFRenderer() *ChromiumPDFRenderer {
	return &ChromiumPDFRenderer{chromePath: detectChromePath()}
}

// Render converts the markdown report to HTML and prints it to A4 PDF.
func (r *ChromiumPDFRenderer) Render(ctx context.Context, markdown string) ([]byte, error) {
	htmlDoc, err := buildHTML(markdown)
	if err != nil {
		return nil, err
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
	}
	if r.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(r.chromePath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(timeoutCtx, append(chromedp.DefaultExecAllocatorOptions[:], opts...)...)
	defer allocCancel()

	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	defer taskCancel()

	var pdf []byte
	dataURL := "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(htmlDoc))
	if err := chromedp.Run(taskCtx,
		chromedp.Navigate(dataURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			footer := `<div style="width:100%;text-align:center;font-size:9px;color:#666;padding-right:8px;">` +
				`Page <span class="pageNumber"></span> of <span class="totalPages"></span></div>`
			out, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithDisplayHeaderFooter(true).
				WithHeaderTemplate(`<div></div>`).
				WithFooterTemplate(footer).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				WithMarginTop(0.5).
				WithMarginBottom(0.75).
				WithMarginLeft(0.45).
				WithMarginRight(0.45).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = out
			return nil
		}),
	); err != nil {
		return nil, err
	}
	return pdf, nil
}

func buildHTML(markdown string) (string, error) {
	var content strings.Builder
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := md.Convert([]byte(markdown), &content); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}
	contentHTML := applyPrintLayoutHooks(content.String())

	return "<!doctype html><html><head><meta charset='utf-8'><title>Prioritization Report</title>" +
		"<style>" + reportCSS + "</style></head><body>" +
		"<div class='report-wrap'><div class='report-html'>" + contentHTML + "</div></div>" +
		"</body></html>", nil
}

// applyPrintLayoutHooks starts Detailed Findings on a fresh page so the
// ranking table is never split across the section boundary.
func applyPrintLayoutHooks(contentHTML string) string {
	reFindings := regexp.MustCompile(`(?i)<h2([^>]*)>\s*Detailed Findings\s*</h2>`)
	return reFindings.ReplaceAllString(contentHTML, `<h2$1 data-page-break-before="true">Detailed Findings</h2>`)
}

const reportCSS = `html,body,*{-webkit-print-color-adjust:exact !important;print-color-adjust:exact !important;}
body{font-family:Georgia,serif;color:#1c1917;background:#fff;padding:0.6rem;line-height:1.5;}
.report-wrap{max-width:1000px;margin:0 auto;}
.report-html h1{font-size:1.6rem;border-bottom:2px solid #1d4ed8;padding-bottom:0.3rem;}
.report-html h2{font-size:1.2rem;color:#1d4ed8;margin-top:1.4rem;}
.report-html h3{font-size:1rem;margin-top:1rem;}
.report-html blockquote{border-left:3px solid #a8a29e;margin:0.5rem 0;padding:0.2rem 0.8rem;color:#44403c;font-style:italic;}
.report-html table{width:100%;border-collapse:collapse;border:1px solid #a8a29e;font-size:0.8rem;}
.report-html th,.report-html td{border:1px solid #a8a29e;padding:0.35rem 0.45rem;text-align:left;vertical-align:top;}
.report-html thead th{background:#f1f5f9;font-weight:700;}
h2[data-page-break-before="true"]{break-before:page;page-break-before:always;}
@media print{ @page{size:auto;margin:12mm;} body{padding:0;} .report-wrap{max-width:none;} }`

func detectChromePath() string {
	candidates := []string{
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/usr/bin/google-chrome",
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

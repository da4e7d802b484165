package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"github.com/kmatsuda/userscope/internal/logger"
	"github.com/kmatsuda/userscope/internal/telemetry"
)

const systemPrompt = "You are a product research analyst. You produce structured, conservative outputs grounded in the data you are given and do not invent facts. Return strict JSON only."

const maxAttempts = 3

var statusCodeRe = regexp.MustCompile(`(?:status(?:\s+code)?[:=\s]+)(\d{3})`)

type failureClass int

const (
	failureNone failureClass = iota
	failureTimeout
	failureRateLimit
	failureServer
	failureClient
)

// Caller issues a single completion request to the reasoning collaborator.
type Caller interface {
	Complete(ctx context.Context, prompt string) (string, error)
	ModelName() string
}

// AnthropicMessager is the slice of the Anthropic SDK we depend on,
// injectable for tests.
type AnthropicMessager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// AnthropicCaller implements Caller against the Anthropic messages API.
type AnthropicCaller struct {
	messages  AnthropicMessager
	model     string
	maxTokens int64
}

// NewAnthropicCaller builds a caller from explicit configuration.
func NewAnthropicCaller(apiKey, model string, maxTokens int) (*AnthropicCaller, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("anthropic api key is required")
	}
	if maxTokens <= 0 {
		maxTokens = 4000
	}
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicCaller{messages: &c.Messages, model: model, maxTokens: int64(maxTokens)}, nil
}

func (a *AnthropicCaller) ModelName() string { return a.model }

func (a *AnthropicCaller) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := a.messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(a.model),
		MaxTokens:   a.maxTokens,
		System:      []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
		Temperature: anthropic.Float(0.3),
	})
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	return sb.String(), nil
}

// Client wraps a Caller with rate limiting, transient-failure retry, and
// tracing. It returns raw response text; interpreting the payload is owned
// by the call site via ExtractObject/ExtractArray.
type Client struct {
	caller  Caller
	limiter *rate.Limiter
	log     *logger.Logger
}

// NewClient builds a Client. requestsPerMinute <= 0 disables rate limiting.
func NewClient(caller Caller, requestsPerMinute float64, log *logger.Logger) *Client {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if requestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerMinute/60.0), 1)
	}
	return &Client{caller: caller, limiter: limiter, log: log.WithComponent("llm")}
}

func (c *Client) ModelName() string {
	if c == nil || c.caller == nil {
		return ""
	}
	return c.caller.ModelName()
}

// Complete issues one prompt, retrying transient transport failures with
// backoff. Content-level problems (empty or malformed payloads) are not
// retried here; call sites apply their documented fallbacks.
func (c *Client) Complete(ctx context.Context, task, prompt string) (string, error) {
	tracer := telemetry.Tracer("llm")
	ctx, span := tracer.Start(ctx, "llm.complete")
	span.SetAttributes(attribute.String("llm.task", task), attribute.String("llm.model", c.ModelName()))
	defer span.End()

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}
		start := time.Now()
		raw, err := c.caller.Complete(ctx, prompt)
		if err == nil {
			c.log.Debug().Str("task", task).Int("attempt", attempt).
				Dur("elapsed", time.Since(start)).Int("chars", len(raw)).
				Msg("completion ok")
			return raw, nil
		}
		lastErr = err
		class := classifyTransportError(err)
		c.log.Warn().Str("task", task).Int("attempt", attempt).Err(err).
			Msg("completion transport error")
		if class == failureClient || attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoffDelay(attempt)):
		}
	}
	return "", fmt.Errorf("%s: %w", task, lastErr)
}

func classifyTransportError(err error) failureClass {
	if errors.Is(err, context.DeadlineExceeded) {
		return failureTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return failureTimeout
	}
	msg := strings.ToLower(err.Error())
	if m := statusCodeRe.FindStringSubmatch(msg); len(m) == 2 {
		switch {
		case strings.HasPrefix(m[1], "429"):
			return failureRateLimit
		case strings.HasPrefix(m[1], "5"):
			return failureServer
		case strings.HasPrefix(m[1], "4"):
			return failureClient
		}
	}
	switch {
	case strings.Contains(msg, "rate limit"), strings.Contains(msg, "status 429"):
		return failureRateLimit
	case strings.Contains(msg, "status 4"):
		return failureClient
	default:
		return failureServer
	}
}

func backoffDelay(attempt int) time.Duration {
	switch attempt {
	case 1:
		return 1 * time.Second
	case 2:
		return 2 * time.Second
	default:
		return 4 * time.Second
	}
}

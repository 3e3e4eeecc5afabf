package classifier

import (
	"context"
	"net/http"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/jobmarket-cli/internal/resilience"
	"github.com/sells-group/jobmarket-cli/pkg/anthropic"
	"github.com/sells-group/jobmarket-cli/pkg/gemini"
)

// Compile-time interface checks.
var (
	_ Provider = (*AnthropicProvider)(nil)
	_ Provider = (*GeminiProvider)(nil)
	_ Provider = (*StubProvider)(nil)
)

const jsonOnlySystem = "You are a data extraction service. Reply with exactly one JSON object and nothing else."

// AnthropicProvider generates text with the Anthropic Messages API.
type AnthropicProvider struct {
	client anthropic.Client
	model  string
}

// NewAnthropicProvider creates a provider for model (DefaultModel if empty).
func NewAnthropicProvider(client anthropic.Client, model string) *AnthropicProvider {
	if model == "" {
		model = anthropic.DefaultModel
	}
	return &AnthropicProvider{client: client, model: model}
}

// Generate implements Provider.
func (p *AnthropicProvider) Generate(ctx context.Context, req Request) (Response, error) {
	temp := float64(req.Temperature)
	msgReq := anthropic.MessageRequest{
		Model:       p.model,
		MaxTokens:   int64(req.MaxOutputTokens),
		Messages:    []anthropic.Message{{Role: "user", Content: req.Prompt}},
		Temperature: &temp,
	}
	if req.JSONOnly {
		msgReq.System = jsonOnlySystem
	}

	resp, err := p.client.CreateMessage(ctx, msgReq)
	if err != nil {
		return Response{}, classifyStatus(err, anthropic.StatusCode(err), "")
	}
	resp.Usage.LogCost(p.model, req.Kind.String())

	return Response{
		Text:         resp.Text(),
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	}, nil
}

// GeminiProvider generates text with the Gemini API.
type GeminiProvider struct {
	client gemini.Client
	model  string
}

// NewGeminiProvider creates a provider for model (DefaultModel if empty).
func NewGeminiProvider(client gemini.Client, model string) *GeminiProvider {
	if model == "" {
		model = gemini.DefaultModel
	}
	return &GeminiProvider{client: client, model: model}
}

// Generate implements Provider.
func (p *GeminiProvider) Generate(ctx context.Context, req Request) (Response, error) {
	temp := req.Temperature
	resp, err := p.client.Generate(ctx, gemini.GenerateRequest{
		Model:           p.model,
		Prompt:          req.Prompt,
		MaxOutputTokens: req.MaxOutputTokens,
		Temperature:     &temp,
		JSON:            req.JSONOnly,
	})
	if err != nil {
		code, status, _ := gemini.APIStatus(err)
		return Response{}, classifyStatus(err, code, status)
	}

	return Response{
		Text:         resp.Text,
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
	}, nil
}

// classifyStatus maps a provider error onto the resilience taxonomy:
// throttling becomes a 429 TransientError, other retryable statuses a
// plain TransientError, everything else passes through as permanent.
func classifyStatus(err error, code int, status string) error {
	switch {
	case code == http.StatusTooManyRequests,
		strings.EqualFold(status, "RESOURCE_EXHAUSTED"),
		resilience.IsRateLimited(err):
		return resilience.NewRateLimitError(err)
	case resilience.IsTransientHTTPStatus(code):
		return resilience.NewTransientError(err, code)
	case code != 0:
		return eris.Wrapf(err, "classifier: provider status %d", code)
	default:
		return err
	}
}

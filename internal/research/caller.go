package research

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/blueprint-cli/internal/cost"
	"github.com/sells-group/blueprint-cli/internal/model"
	"github.com/sells-group/blueprint-cli/internal/resilience"
	"github.com/sells-group/blueprint-cli/pkg/perplexity"
)

// Request is one research call: a system+user prompt pair with output
// constraints.
type Request struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// Response carries the raw model text along with provenance the section
// wrapper folds into its output.
type Response struct {
	Text      string
	Citations []model.Citation
	Model     string
	Cost      float64
}

// ModelCaller issues a single research call. Implementations own retry
// policy; callers own timeouts via the context.
type ModelCaller interface {
	Research(ctx context.Context, req Request) (*Response, error)
}

// PerplexityCaller backs ModelCaller with the Perplexity chat completions
// API. Rate-limit and 5xx responses get one retry; timeouts and other 4xx
// responses do not.
type PerplexityCaller struct {
	client perplexity.Client
	calc   *cost.Calculator
}

// NewPerplexityCaller wires a Perplexity client and a cost calculator.
func NewPerplexityCaller(client perplexity.Client, calc *cost.Calculator) *PerplexityCaller {
	return &PerplexityCaller{client: client, calc: calc}
}

func (c *PerplexityCaller) Research(ctx context.Context, req Request) (*Response, error) {
	apiReq := perplexity.ChatCompletionRequest{
		Messages: []perplexity.Message{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		ResponseFormat: &perplexity.ResponseFormat{Type: "json_object"},
	}
	if req.Temperature > 0 {
		apiReq.Temperature = &req.Temperature
	}
	if req.MaxTokens > 0 {
		apiReq.MaxTokens = &req.MaxTokens
	}

	retryCfg := resilience.DefaultRetryConfig()
	retryCfg.ShouldRetry = retryableResearchError
	retryCfg.OnRetry = resilience.RetryLogger("perplexity", "chat_completion")

	start := time.Now()
	resp, err := resilience.DoVal(ctx, retryCfg, func(ctx context.Context) (*perplexity.ChatCompletionResponse, error) {
		return c.client.ChatCompletion(ctx, apiReq)
	})
	if err != nil {
		return nil, err
	}

	zap.L().Debug("research call complete",
		zap.String("model", resp.Model),
		zap.Int("sources", len(resp.SearchResults)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &Response{
		Text:      resp.Text(),
		Citations: citationsFrom(resp),
		Model:     resp.Model,
		Cost:      c.calc.ResearchQuery(),
	}, nil
}

// retryableResearchError treats only rate limits and server errors as
// retryable. A context deadline on the section is final.
func retryableResearchError(err error) bool {
	var apiErr *perplexity.APIError
	if errors.As(err, &apiErr) {
		return resilience.IsTransientHTTPStatus(apiErr.StatusCode)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	return resilience.IsTransient(err)
}

// citationsFrom prefers the structured search results and falls back to the
// bare citation URLs. Nothing is fabricated: an empty response yields an
// empty slice.
func citationsFrom(resp *perplexity.ChatCompletionResponse) []model.Citation {
	if len(resp.SearchResults) > 0 {
		out := make([]model.Citation, 0, len(resp.SearchResults))
		for _, sr := range resp.SearchResults {
			if sr.URL == "" {
				continue
			}
			out = append(out, model.Citation{
				URL:     sr.URL,
				Title:   sr.Title,
				Date:    sr.Date,
				Snippet: sr.Snippet,
			})
		}
		return out
	}

	out := make([]model.Citation, 0, len(resp.Citations))
	for _, u := range resp.Citations {
		if u == "" {
			continue
		}
		out = append(out, model.Citation{URL: u})
	}
	return out
}

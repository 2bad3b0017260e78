// Package adlibrary provides a client for the ad-creative intelligence API,
// which aggregates ad library results across platforms.
package adlibrary

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.adintel.dev/v1"

// ErrMissingCredentials is returned when no API key is configured. Callers
// degrade to an empty creative set rather than failing their section.
var ErrMissingCredentials = eris.New("adlibrary: no API key configured")

// IsMissingCredentials reports whether err is the missing-credentials
// sentinel.
func IsMissingCredentials(err error) bool {
	return errors.Is(err, ErrMissingCredentials)
}

// Client defines the ad-fetch operations.
type Client interface {
	FetchAds(ctx context.Context, req FetchRequest) (*FetchResponse, error)
}

// FetchRequest searches ad libraries for creatives.
type FetchRequest struct {
	Query            string   `json:"query"`
	Domain           string   `json:"domain,omitempty"`
	Platforms        []string `json:"platforms,omitempty"`
	PerPlatformLimit int      `json:"perPlatformLimit,omitempty"`
	Enrich           bool     `json:"enrich,omitempty"`
}

// FetchResponse is the response from POST /ads/search.
type FetchResponse struct {
	Ads []AdCreative `json:"ads"`
}

// AdCreative is a single fetched ad. Score is populated only when the
// upstream service pre-scored the match.
type AdCreative struct {
	Headline   string `json:"headline"`
	Body       string `json:"body"`
	Advertiser string `json:"advertiser"`
	Platform   string `json:"platform"`
	LandingURL string `json:"landingUrl,omitempty"`
	Score      *int   `json:"score,omitempty"`

	Transcript     string   `json:"transcript,omitempty"`
	HookText       string   `json:"hookText,omitempty"`
	HookType       string   `json:"hookType,omitempty"`
	EmotionalTones []string `json:"emotionalTones,omitempty"`
}

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("adlibrary: HTTP %d: %s", e.StatusCode, e.Body)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit caps outbound requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a new ad library client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(5), 2),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) FetchAds(ctx context.Context, req FetchRequest) (*FetchResponse, error) {
	if c.apiKey == "" {
		return nil, ErrMissingCredentials
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "adlibrary: rate limit wait")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "adlibrary: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ads/search", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "adlibrary: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "adlibrary: send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "adlibrary: read response")
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrMissingCredentials
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var result FetchResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "adlibrary: unmarshal response")
	}

	return &result, nil
}

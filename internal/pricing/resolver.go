// Package pricing discovers, scrapes, and extracts competitor pricing pages,
// gating the result behind a confidence score so no guessed price ever
// reaches the blueprint.
package pricing

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/blueprint-cli/internal/cost"
	"github.com/sells-group/blueprint-cli/internal/model"
	"github.com/sells-group/blueprint-cli/pkg/anthropic"
	"github.com/sells-group/blueprint-cli/pkg/firecrawl"
)

// commonPaths are HEAD-probed in order when the sitemap scan finds nothing.
var commonPaths = []string{"/pricing", "/plans", "/price", "/buy", "/pricing-plans"}

// Resolver resolves one competitor's pricing page into scored tiers.
type Resolver struct {
	scraper   firecrawl.Client
	extractor anthropic.Client
	modelID   string
	calc      *cost.Calculator

	probe         *http.Client
	scrapeTimeout time.Duration
}

// NewResolver wires the scraper and the extraction model. A zero
// scrapeTimeout defaults to 30s; a nil calculator reports zero cost.
func NewResolver(scraper firecrawl.Client, extractor anthropic.Client, modelID string, calc *cost.Calculator, scrapeTimeout time.Duration) *Resolver {
	if scrapeTimeout <= 0 {
		scrapeTimeout = 30 * time.Second
	}
	return &Resolver{
		scraper:   scraper,
		extractor: extractor,
		modelID:   modelID,
		calc:      calc,
		probe: &http.Client{
			Timeout: 10 * time.Second,
		},
		scrapeTimeout: scrapeTimeout,
	}
}

// Available reports whether pricing resolution can run at all. Probed once
// per pipeline run; when false, every competitor is marked unavailable
// without any network traffic.
func (r *Resolver) Available() bool {
	return r != nil && r.scraper != nil && r.scraper.IsAvailable()
}

// Resolve runs the full discovery-scrape-extract-score flow for one
// competitor. It never returns an error: failures come back as a
// ScoredPricingResult with Success=false and a verification hint the caller
// surfaces instead of a price. Cost carries the spend of the scrape and
// extraction sub-calls whether or not the result passed the gate.
func (r *Resolver) Resolve(ctx context.Context, name, website string) model.ScoredPricingResult {
	origin := NormalizeOrigin(website)
	if origin == "" {
		return failed("no usable website", "", 0)
	}
	verifyURL := origin + "/pricing"

	pricingURL := r.discoverPricingURL(ctx, name, origin)
	if pricingURL == "" {
		return failed("No pricing page found", verifyURL, 0)
	}

	var spent float64
	page, err := r.scraper.Scrape(ctx, firecrawl.ScrapeRequest{
		URL:     pricingURL,
		Formats: []string{"markdown"},
		Timeout: int(r.scrapeTimeout.Milliseconds()),
	})
	if err != nil {
		zap.L().Warn("pricing page scrape failed",
			zap.String("competitor", name),
			zap.String("url", pricingURL),
			zap.Error(err),
		)
		return failed(fmt.Sprintf("scrape failed: %v", err), verifyURL, spent)
	}
	if r.calc != nil {
		spent += r.calc.Scrape()
	}
	content := page.Data.Markdown
	if strings.TrimSpace(content) == "" {
		return failed("scraped page was empty", verifyURL, spent)
	}

	tiers, extractCost, err := r.extractTiers(ctx, name, pricingURL, content)
	spent += extractCost
	if err != nil {
		zap.L().Warn("pricing tier extraction failed",
			zap.String("competitor", name),
			zap.String("url", pricingURL),
			zap.Error(err),
		)
		return failed(fmt.Sprintf("extraction failed: %v", err), verifyURL, spent)
	}

	tiers = DedupeTiers(filterRelevantTiers(name, tiers))
	breakdown := scoreConfidence(tiers, content)
	confidence := breakdown.Total()

	if len(tiers) == 0 || confidence < model.MinPricingConfidence {
		zap.L().Info("pricing confidence below threshold",
			zap.String("competitor", name),
			zap.Int("confidence", confidence),
			zap.Int("tiers", len(tiers)),
		)
		return model.ScoredPricingResult{
			Success:    false,
			Confidence: confidence,
			Breakdown:  breakdown,
			SourceURL:  pricingURL,
			VerifyURL:  verifyURL,
			Error:      "confidence below trust threshold",
			Cost:       spent,
		}
	}

	return model.ScoredPricingResult{
		Success:    true,
		Tiers:      tiers,
		Confidence: confidence,
		Breakdown:  breakdown,
		SourceURL:  pricingURL,
		VerifyURL:  verifyURL,
		Cost:       spent,
	}
}

func failed(reason, verifyURL string, spent float64) model.ScoredPricingResult {
	return model.ScoredPricingResult{
		Success:   false,
		VerifyURL: verifyURL,
		Error:     reason,
		Cost:      spent,
	}
}

// NormalizeOrigin forces https and strips path, query, and trailing slash:
// "www.acme.com/about" becomes "https://www.acme.com".
func NormalizeOrigin(website string) string {
	s := strings.TrimSpace(website)
	if s == "" {
		return ""
	}
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimPrefix(s, "https://")
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if s == "" || !strings.Contains(s, ".") {
		return ""
	}
	return "https://" + s
}

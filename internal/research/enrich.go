package research

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/blueprint-cli/internal/ads"
	"github.com/sells-group/blueprint-cli/internal/model"
	"github.com/sells-group/blueprint-cli/internal/pricing"
	"github.com/sells-group/blueprint-cli/pkg/adlibrary"
)

// Enrichment fans out one ad-fetch and one pricing-scrape per competitor,
// all concurrent, then merges the gathered results back into the snapshots.
// Every sub-task degrades on failure; enrichment never fails the section.
type Enrichment struct {
	AdClient adlibrary.Client
	Merger   *ads.Merger
	Pricing  *pricing.Resolver

	EnableAds        bool
	EnablePricing    bool
	EnrichAds        bool
	PerPlatformLimit int
}

func (e *Enrichment) adsEnabled() bool {
	return e.EnableAds && e.AdClient != nil && e.Merger != nil
}

// pricingEnabled is probed once per run; a missing scraper key skips
// pricing resolution wholesale.
func (e *Enrichment) pricingEnabled() bool {
	return e.EnablePricing && e.Pricing.Available()
}

// Enrich runs the fan-out and returns the USD cost of the scoring and
// scraping sub-calls it made.
func (e *Enrichment) Enrich(ctx context.Context, analysis *model.CompetitorAnalysis) float64 {
	n := len(analysis.Competitors)
	if n == 0 {
		return 0
	}

	adsOn := e.adsEnabled()
	pricingOn := e.pricingEnabled()
	if !adsOn && !pricingOn {
		return 0
	}

	// Gather-then-merge: each goroutine owns one slot, the merge happens
	// after Wait, so no locking is needed.
	adResults := make([]ads.MergeResult, n)
	priceResults := make([]*model.ScoredPricingResult, n)

	g, gctx := errgroup.WithContext(ctx)
	for i := range analysis.Competitors {
		comp := analysis.Competitors[i]

		if adsOn {
			g.Go(func() error {
				adResults[i] = e.fetchAndMerge(gctx, comp)
				return nil
			})
		}
		if pricingOn && comp.Website != "" {
			g.Go(func() error {
				res := e.Pricing.Resolve(gctx, comp.Name, comp.Website)
				priceResults[i] = &res
				return nil
			})
		}
	}
	g.Wait() //nolint:errcheck // sub-tasks only degrade, never error

	var spent float64
	for i := range analysis.Competitors {
		comp := &analysis.Competitors[i]
		applyAds(comp, adResults[i])
		applyPricing(comp, priceResults[i], adResults[i].ProvisionalTiers)
		spent += adResults[i].Cost
		if priceResults[i] != nil {
			spent += priceResults[i].Cost
		}
	}

	// The creative library is rebuilt from the merged per-competitor sets,
	// but only when ad enrichment actually ran; a pricing-only pass keeps
	// the validated library untouched.
	if adsOn {
		library := make([]model.EnrichedAdCreative, 0, len(analysis.CreativeLibrary))
		for i := range analysis.Competitors {
			library = append(library, analysis.Competitors[i].AdCreatives...)
		}
		analysis.CreativeLibrary = library
	}
	return spent
}

// fetchAndMerge pulls the competitor's ads and runs them through the
// relevance merger. Missing credentials and fetch errors both degrade to no
// creatives.
func (e *Enrichment) fetchAndMerge(ctx context.Context, comp model.CompetitorSnapshot) ads.MergeResult {
	req := adlibrary.FetchRequest{
		Query:            comp.Name,
		Domain:           comp.Website,
		Platforms:        comp.AdPlatforms,
		PerPlatformLimit: e.PerPlatformLimit,
		Enrich:           e.EnrichAds,
	}
	resp, err := e.AdClient.FetchAds(ctx, req)
	if err != nil {
		if adlibrary.IsMissingCredentials(err) {
			zap.L().Debug("ad fetch skipped, no credentials", zap.String("competitor", comp.Name))
		} else {
			zap.L().Warn("ad fetch failed", zap.String("competitor", comp.Name), zap.Error(err))
		}
		return ads.MergeResult{}
	}
	return e.Merger.Merge(ctx, comp.Name, comp.Website, resp.Ads)
}

func applyAds(comp *model.CompetitorSnapshot, res ads.MergeResult) {
	if len(res.Creatives) == 0 {
		return
	}
	comp.AdCreatives = res.Creatives
	comp.AdMessagingThemes = res.Themes
}

// applyPricing enforces the non-hallucination invariant: tiers appear on a
// snapshot only when scraping succeeded with enough confidence. Ad-derived
// provisional tiers survive only by merging under a successful scrape;
// otherwise the snapshot stays unavailable with zero tiers and a
// verification hint.
func applyPricing(comp *model.CompetitorSnapshot, res *model.ScoredPricingResult, provisional []model.PricingTier) {
	if res == nil {
		comp.PricingSource = model.PricingUnavailable
		comp.PricingConfidence = 0
		comp.PricingTiers = nil
		if comp.Website != "" {
			comp.PricingVerifyURL = pricing.NormalizeOrigin(comp.Website) + "/pricing"
		}
		return
	}

	if res.Success && len(res.Tiers) > 0 && res.Confidence >= model.MinPricingConfidence {
		comp.PricingSource = model.PricingScraped
		comp.PricingConfidence = res.Confidence
		comp.PricingTiers = pricing.DedupeTiers(append(append([]model.PricingTier{}, res.Tiers...), provisional...))
		comp.PricingVerifyURL = res.SourceURL
		return
	}

	comp.PricingSource = model.PricingUnavailable
	comp.PricingConfidence = res.Confidence
	comp.PricingTiers = nil
	comp.PricingVerifyURL = res.VerifyURL
}

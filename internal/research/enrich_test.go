package research

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/blueprint-cli/internal/ads"
	"github.com/sells-group/blueprint-cli/internal/cost"
	"github.com/sells-group/blueprint-cli/internal/model"
	"github.com/sells-group/blueprint-cli/internal/pricing"
	"github.com/sells-group/blueprint-cli/pkg/adlibrary"
	"github.com/sells-group/blueprint-cli/pkg/anthropic"
	"github.com/sells-group/blueprint-cli/pkg/firecrawl"
)

// fakeAdClient serves a canned per-query creative set.
type fakeAdClient struct {
	byQuery map[string][]adlibrary.AdCreative
	err     error
}

func (f *fakeAdClient) FetchAds(_ context.Context, req adlibrary.FetchRequest) (*adlibrary.FetchResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &adlibrary.FetchResponse{Ads: f.byQuery[req.Query]}, nil
}

func intPtr(n int) *int { return &n }

func TestEnrichmentAttachesScoredAds(t *testing.T) {
	client := &fakeAdClient{byQuery: map[string][]adlibrary.AdCreative{
		"Acme": {
			{Headline: "Acme closes deals faster", Advertiser: "Acme", Platform: "meta", Score: intPtr(85)},
			{Headline: "Unrelated brand ad", Advertiser: "Other Co", Platform: "meta", Score: intPtr(12)},
		},
	}}

	e := &Enrichment{
		AdClient:  client,
		Merger:    ads.NewMerger(nil),
		EnableAds: true,
	}

	analysis := model.CompetitorAnalysis{
		Competitors: []model.CompetitorSnapshot{{
			Name:          "Acme",
			Website:       "https://acme.com",
			PricingSource: model.PricingUnavailable,
		}},
		CreativeLibrary: []model.EnrichedAdCreative{{Headline: "stale model-claimed ad"}},
	}

	e.Enrich(context.Background(), &analysis)

	comp := analysis.Competitors[0]
	require.Len(t, comp.AdCreatives, 1)
	assert.Equal(t, "Acme closes deals faster", comp.AdCreatives[0].Headline)
	assert.GreaterOrEqual(t, comp.AdCreatives[0].Relevance.Score, model.MinAdRelevanceScore)

	// The creative library is rebuilt from the merged per-competitor sets.
	require.Len(t, analysis.CreativeLibrary, 1)
	assert.Equal(t, "Acme closes deals faster", analysis.CreativeLibrary[0].Headline)
}

func TestEnrichmentDegradesOnAdFetchFailure(t *testing.T) {
	e := &Enrichment{
		AdClient:  &fakeAdClient{err: adlibrary.ErrMissingCredentials},
		Merger:    ads.NewMerger(nil),
		EnableAds: true,
	}

	analysis := model.CompetitorAnalysis{
		Competitors: []model.CompetitorSnapshot{{Name: "Acme", PricingSource: model.PricingUnavailable}},
	}

	e.Enrich(context.Background(), &analysis)

	assert.Empty(t, analysis.Competitors[0].AdCreatives)
	assert.Empty(t, analysis.CreativeLibrary)
}

// fakePricingScraper serves one canned pricing page through the sitemap
// discovery path.
type fakePricingScraper struct {
	pricingURL string
	page       string
}

func (f *fakePricingScraper) Scrape(_ context.Context, _ firecrawl.ScrapeRequest) (*firecrawl.ScrapeResponse, error) {
	return &firecrawl.ScrapeResponse{Success: true, Data: firecrawl.PageData{Markdown: f.page}}, nil
}

func (f *fakePricingScraper) Map(_ context.Context, _ firecrawl.MapRequest) (*firecrawl.MapResponse, error) {
	return &firecrawl.MapResponse{Success: true, Links: []string{f.pricingURL}}, nil
}

func (f *fakePricingScraper) Search(_ context.Context, _ firecrawl.SearchRequest) (*firecrawl.SearchResponse, error) {
	return &firecrawl.SearchResponse{}, nil
}

func (f *fakePricingScraper) IsAvailable() bool { return true }

type fakeTierExtractor struct{ text string }

func (f *fakeTierExtractor) CreateMessage(_ context.Context, _ anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	return &anthropic.MessageResponse{
		Model:   "claude-sonnet-4-5-20250929",
		Content: []anthropic.ContentBlock{{Type: "text", Text: f.text}},
		Usage:   anthropic.TokenUsage{InputTokens: 2000, OutputTokens: 400},
	}, nil
}

func TestEnrichmentPricingOnlyKeepsCreativeLibrary(t *testing.T) {
	page := `# Pricing
Starter plan: $19 per month, for individuals. Includes 5 projects.
Pro plan: $99 per month, for teams. Includes SSO and audit logs.`
	scraper := &fakePricingScraper{pricingURL: "https://acme.com/pricing", page: page}
	extractor := &fakeTierExtractor{text: `{"tiers":[
		{"tier":"Starter","price":"$19/mo","description":"for individuals","audience":"individuals","features":["5 projects"]},
		{"tier":"Pro","price":"$99/mo","description":"for teams","audience":"teams","features":["SSO","audit logs"]}
	]}`}
	calc := cost.NewCalculator(cost.DefaultRates())

	e := &Enrichment{
		Pricing:       pricing.NewResolver(scraper, extractor, "claude-sonnet-4-5-20250929", calc, 0),
		EnablePricing: true,
	}

	analysis := model.CompetitorAnalysis{
		Competitors: []model.CompetitorSnapshot{{
			Name:          "Acme",
			Website:       "https://acme.com",
			PricingSource: model.PricingUnavailable,
		}},
		CreativeLibrary: []model.EnrichedAdCreative{{Headline: "validated research ad", Advertiser: "Acme"}},
	}

	spent := e.Enrich(context.Background(), &analysis)

	comp := analysis.Competitors[0]
	assert.Equal(t, model.PricingScraped, comp.PricingSource)
	require.NotEmpty(t, comp.PricingTiers)

	// A pricing-only pass must not discard the validated creative library.
	require.Len(t, analysis.CreativeLibrary, 1)
	assert.Equal(t, "validated research ad", analysis.CreativeLibrary[0].Headline)

	// One scrape plus one extraction call.
	assert.InDelta(t, 0.005+0.006+0.006, spent, 1e-9)
}

func TestEnrichmentDisabledIsNoop(t *testing.T) {
	e := &Enrichment{}
	analysis := model.CompetitorAnalysis{
		Competitors:     []model.CompetitorSnapshot{{Name: "Acme"}},
		CreativeLibrary: []model.EnrichedAdCreative{{Headline: "kept"}},
	}

	e.Enrich(context.Background(), &analysis)

	assert.Len(t, analysis.CreativeLibrary, 1)
}

func TestApplyPricing(t *testing.T) {
	t.Run("high-confidence scrape merges provisional tiers", func(t *testing.T) {
		comp := model.CompetitorSnapshot{Name: "Acme", Website: "https://acme.com"}
		res := &model.ScoredPricingResult{
			Success:    true,
			Confidence: 80,
			Tiers: []model.PricingTier{
				{Tier: "Pro", Price: "$99/mo", Description: "for teams", Features: []string{"sso"}},
			},
			SourceURL: "https://acme.com/pricing",
		}
		provisional := []model.PricingTier{
			{Tier: "pro", Price: "$99/mo"},
			{Tier: "Starter", Price: "$19/mo"},
		}

		applyPricing(&comp, res, provisional)

		assert.Equal(t, model.PricingScraped, comp.PricingSource)
		assert.Equal(t, 80, comp.PricingConfidence)
		require.Len(t, comp.PricingTiers, 2)
		// The scraped Pro tier wins its dedupe key: it is more complete.
		assert.Equal(t, "for teams", comp.PricingTiers[0].Description)
		assert.Equal(t, "Starter", comp.PricingTiers[1].Tier)
	})

	t.Run("low confidence clears tiers and leaves a hint", func(t *testing.T) {
		comp := model.CompetitorSnapshot{Name: "Acme", Website: "https://acme.com"}
		res := &model.ScoredPricingResult{
			Success:    false,
			Confidence: 35,
			VerifyURL:  "https://acme.com/pricing",
		}

		applyPricing(&comp, res, []model.PricingTier{{Tier: "Pro", Price: "$99"}})

		assert.Equal(t, model.PricingUnavailable, comp.PricingSource)
		assert.Empty(t, comp.PricingTiers)
		assert.Equal(t, "https://acme.com/pricing", comp.PricingVerifyURL)
	})

	t.Run("pricing skipped entirely still marks unavailable", func(t *testing.T) {
		comp := model.CompetitorSnapshot{Name: "Acme", Website: "www.acme.com/about"}

		applyPricing(&comp, nil, nil)

		assert.Equal(t, model.PricingUnavailable, comp.PricingSource)
		assert.Equal(t, 0, comp.PricingConfidence)
		assert.Equal(t, "https://www.acme.com/pricing", comp.PricingVerifyURL)
	})
}

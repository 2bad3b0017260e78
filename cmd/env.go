package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/blueprint-cli/internal/ads"
	"github.com/sells-group/blueprint-cli/internal/cost"
	"github.com/sells-group/blueprint-cli/internal/pipeline"
	"github.com/sells-group/blueprint-cli/internal/pricing"
	"github.com/sells-group/blueprint-cli/internal/research"
	"github.com/sells-group/blueprint-cli/internal/store"
	"github.com/sells-group/blueprint-cli/pkg/adlibrary"
	"github.com/sells-group/blueprint-cli/pkg/anthropic"
	"github.com/sells-group/blueprint-cli/pkg/firecrawl"
	"github.com/sells-group/blueprint-cli/pkg/perplexity"
)

// env bundles the wired dependencies behind every command.
type env struct {
	store store.Store
}

func (e *env) Close() {
	if e.store != nil {
		e.store.Close()
	}
}

// initStore opens and migrates the configured run store.
func initStore(ctx context.Context) (*env, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	case "sqlite", "":
		st, err = store.NewSQLite(cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return &env{store: st}, nil
}

// newOrchestrator wires the research caller, competitor enrichment, and
// pipeline from config.
func newOrchestrator(progress pipeline.ProgressFunc) (*pipeline.Orchestrator, error) {
	if cfg.Perplexity.Key == "" {
		return nil, eris.New("perplexity key is required (BLUEPRINT_PERPLEXITY_KEY)")
	}

	calc := cost.NewCalculator(costRates())

	pplxOpts := []perplexity.Option{perplexity.WithModel(cfg.Perplexity.Model)}
	if cfg.Perplexity.BaseURL != "" {
		pplxOpts = append(pplxOpts, perplexity.WithBaseURL(cfg.Perplexity.BaseURL))
	}
	caller := research.NewPerplexityCaller(perplexity.NewClient(cfg.Perplexity.Key, pplxOpts...), calc)

	enricher := newEnricher(calc)

	return pipeline.New(caller, enricher, cfg.Research, progress), nil
}

// newEnricher builds the competitor enrichment fan-out. Missing keys
// disable the corresponding sub-capability rather than failing startup.
func newEnricher(calc *cost.Calculator) research.CompetitorEnricher {
	var aiClient anthropic.Client
	if cfg.Anthropic.Key != "" {
		aiClient = anthropic.NewClient(cfg.Anthropic.Key)
	}

	var scorer ads.Scorer
	if aiClient != nil {
		scorer = ads.NewClaudeScorer(aiClient, cfg.Anthropic.HaikuModel, calc)
	}

	var adClient adlibrary.Client
	if cfg.AdLibrary.Key != "" {
		adOpts := []adlibrary.Option{}
		if cfg.AdLibrary.BaseURL != "" {
			adOpts = append(adOpts, adlibrary.WithBaseURL(cfg.AdLibrary.BaseURL))
		}
		adClient = adlibrary.NewClient(cfg.AdLibrary.Key, adOpts...)
	}

	var resolver *pricing.Resolver
	if cfg.Firecrawl.Key != "" && aiClient != nil {
		fcOpts := []firecrawl.Option{}
		if cfg.Firecrawl.BaseURL != "" {
			fcOpts = append(fcOpts, firecrawl.WithBaseURL(cfg.Firecrawl.BaseURL))
		}
		// Tier extraction runs on the stronger model.
		resolver = pricing.NewResolver(
			firecrawl.NewClient(cfg.Firecrawl.Key, fcOpts...),
			aiClient,
			cfg.Anthropic.SonnetModel,
			calc,
			time.Duration(cfg.Research.ScrapeTimeoutSecs)*time.Second,
		)
	}

	return &research.Enrichment{
		AdClient:         adClient,
		Merger:           ads.NewMerger(scorer),
		Pricing:          resolver,
		EnableAds:        cfg.Research.EnableAdEnrichment && adClient != nil,
		EnablePricing:    cfg.Research.EnablePricingScrape && resolver != nil,
		EnrichAds:        cfg.AdLibrary.Enrich,
		PerPlatformLimit: cfg.AdLibrary.PerPlatformLimit,
	}
}

// costRates converts configured pricing into calculator rates, falling back
// to defaults for anything unset.
func costRates() cost.Rates {
	rates := cost.DefaultRates()
	if len(cfg.Pricing.Anthropic) > 0 {
		rates.Anthropic = make(map[string]cost.ModelRate, len(cfg.Pricing.Anthropic))
		for m, p := range cfg.Pricing.Anthropic {
			rates.Anthropic[m] = cost.ModelRate{Input: p.Input, Output: p.Output}
		}
	}
	if cfg.Pricing.Perplexity.PerQuery > 0 {
		rates.Perplexity.PerQuery = cfg.Pricing.Perplexity.PerQuery
	}
	if cfg.Pricing.Firecrawl.PerScrape > 0 {
		rates.Firecrawl.PerScrape = cfg.Pricing.Firecrawl.PerScrape
	}
	return rates
}

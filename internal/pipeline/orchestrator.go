// Package pipeline sequences the five blueprint sections in dependency
// order and folds their outputs into a single document.
package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/blueprint-cli/internal/config"
	"github.com/sells-group/blueprint-cli/internal/model"
	"github.com/sells-group/blueprint-cli/internal/research"
)

// ProgressFunc receives a progress event after each section boundary.
type ProgressFunc func(model.ProgressEvent)

// Orchestrator runs the fixed section order: market, ICP, offer,
// competitor, synthesis. Sections are strictly sequential; each later
// prompt folds in digests of the earlier results.
type Orchestrator struct {
	caller   research.ModelCaller
	enricher research.CompetitorEnricher
	cfg      config.ResearchConfig
	progress ProgressFunc
}

// New creates an Orchestrator. enricher may be nil to disable competitor
// enrichment; progress may be nil.
func New(caller research.ModelCaller, enricher research.CompetitorEnricher, cfg config.ResearchConfig, progress ProgressFunc) *Orchestrator {
	return &Orchestrator{
		caller:   caller,
		enricher: enricher,
		cfg:      cfg,
		progress: progress,
	}
}

// step ties a section key to its percent-complete mark and its runner. The
// runner writes its output into bp and its digest view into up.
type step struct {
	key     model.SectionKey
	percent int
	run     func(ctx context.Context, businessContext string, up *research.Upstream, bp *model.Blueprint) (citations []model.Citation, modelID string, cost float64, err error)
}

// Generate runs the whole pipeline. It never returns an error: failures and
// cancellations come back inside the GenerationResult with whatever
// sections completed, so callers can always render the partial document.
func (o *Orchestrator) Generate(ctx context.Context, businessContext string) *model.GenerationResult {
	started := time.Now()
	sanitized := research.SanitizeContext(businessContext, o.cfg.MaxContextChars)

	bp := &model.Blueprint{
		Metadata: model.BlueprintMetadata{
			GeneratedAt:        started.UTC(),
			SchemaVersion:      model.SchemaVersion,
			CitationsBySection: make(map[string][]model.Citation),
		},
	}
	up := &research.Upstream{}

	sectionTimeout := time.Duration(o.cfg.SectionTimeoutSecs) * time.Second
	competitorTimeout := time.Duration(o.cfg.CompetitorTimeoutSecs) * time.Second

	steps := []step{
		{
			key:     model.SectionMarket,
			percent: 20,
			run: func(ctx context.Context, bc string, up *research.Upstream, bp *model.Blueprint) ([]model.Citation, string, float64, error) {
				sec, err := research.Market(ctx, o.caller, bc, sectionTimeout)
				if err != nil {
					return nil, "", 0, err
				}
				bp.Market = sec
				up.Market = &sec.Data
				return sec.Citations, sec.Model, sec.Cost, nil
			},
		},
		{
			key:     model.SectionICP,
			percent: 40,
			run: func(ctx context.Context, bc string, up *research.Upstream, bp *model.Blueprint) ([]model.Citation, string, float64, error) {
				sec, err := research.ICP(ctx, o.caller, bc, *up, sectionTimeout)
				if err != nil {
					return nil, "", 0, err
				}
				bp.ICP = sec
				up.ICP = &sec.Data
				return sec.Citations, sec.Model, sec.Cost, nil
			},
		},
		{
			key:     model.SectionOffer,
			percent: 60,
			run: func(ctx context.Context, bc string, up *research.Upstream, bp *model.Blueprint) ([]model.Citation, string, float64, error) {
				sec, err := research.Offer(ctx, o.caller, bc, *up, sectionTimeout)
				if err != nil {
					return nil, "", 0, err
				}
				bp.Offer = sec
				up.Offer = &sec.Data
				return sec.Citations, sec.Model, sec.Cost, nil
			},
		},
		{
			key:     model.SectionCompetitor,
			percent: 80,
			run: func(ctx context.Context, bc string, up *research.Upstream, bp *model.Blueprint) ([]model.Citation, string, float64, error) {
				sec, err := research.Competitor(ctx, o.caller, bc, *up, o.enricher, competitorTimeout)
				if err != nil {
					return nil, "", 0, err
				}
				bp.Competitor = sec
				up.Competitor = &sec.Data
				return sec.Citations, sec.Model, sec.Cost, nil
			},
		},
		{
			key:     model.SectionSynthesis,
			percent: 100,
			run: func(ctx context.Context, bc string, up *research.Upstream, bp *model.Blueprint) ([]model.Citation, string, float64, error) {
				sec, err := research.Synthesize(ctx, o.caller, bc, *up, sectionTimeout)
				if err != nil {
					return nil, "", 0, err
				}
				bp.Synthesis = sec
				return sec.Citations, sec.Model, sec.Cost, nil
			},
		},
	}

	log := zap.L().With(zap.String("component", "pipeline"))
	for _, s := range steps {
		// Cancellation is checked once per section boundary; in-flight
		// sub-calls within a section run to completion.
		if err := ctx.Err(); err != nil {
			log.Info("generation canceled", zap.String("next_section", string(s.key)))
			o.emit(model.ProgressEvent{
				Section: s.key,
				Label:   model.SectionLabel(s.key),
				Percent: s.percent,
				Err:     err,
			})
			o.finishMetadata(bp, started)
			return &model.GenerationResult{
				Success:       false,
				Blueprint:     bp,
				Error:         "generation canceled",
				FailedSection: s.key,
			}
		}

		start := time.Now()
		citations, modelID, sectionCost, err := s.run(ctx, sanitized, up, bp)
		if err != nil {
			log.Error("section failed",
				zap.String("section", string(s.key)),
				zap.Duration("elapsed", time.Since(start)),
				zap.Error(err),
			)
			o.emit(model.ProgressEvent{
				Section: s.key,
				Label:   model.SectionLabel(s.key),
				Percent: s.percent,
				Err:     err,
			})
			o.finishMetadata(bp, started)
			return &model.GenerationResult{
				Success:       false,
				Blueprint:     bp,
				Error:         err.Error(),
				FailedSection: s.key,
			}
		}

		bp.Metadata.TotalCost += sectionCost
		if len(citations) > 0 {
			bp.Metadata.CitationsBySection[string(s.key)] = citations
		}
		recordModel(&bp.Metadata, modelID)

		o.emit(model.ProgressEvent{
			Section: s.key,
			Label:   model.SectionLabel(s.key),
			Percent: s.percent,
		})
		log.Info("section complete",
			zap.String("section", string(s.key)),
			zap.Int("percent", s.percent),
			zap.Duration("elapsed", time.Since(start)),
		)
	}

	o.finishMetadata(bp, started)
	return &model.GenerationResult{Success: true, Blueprint: bp}
}

func (o *Orchestrator) emit(ev model.ProgressEvent) {
	if o.progress != nil {
		o.progress(ev)
	}
}

func (o *Orchestrator) finishMetadata(bp *model.Blueprint, started time.Time) {
	bp.Metadata.ProcessingMS = time.Since(started).Milliseconds()
}

func recordModel(md *model.BlueprintMetadata, modelID string) {
	if modelID == "" {
		return
	}
	for _, m := range md.ModelsUsed {
		if m == modelID {
			return
		}
	}
	md.ModelsUsed = append(md.ModelsUsed, modelID)
}

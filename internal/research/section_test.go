package research

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/blueprint-cli/internal/jsonx"
	"github.com/sells-group/blueprint-cli/internal/model"
)

// fakeCaller is a scripted ModelCaller.
type fakeCaller struct {
	text string
	err  error

	lastReq Request
}

func (f *fakeCaller) Research(_ context.Context, req Request) (*Response, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &Response{
		Text: f.text,
		Citations: []model.Citation{
			{URL: "https://example.com/report", Title: "Industry Report"},
		},
		Model: "sonar-pro",
		Cost:  0.005,
	}, nil
}

func TestMarketSection(t *testing.T) {
	t.Run("fenced response with prose", func(t *testing.T) {
		caller := &fakeCaller{
			text: "Here is the analysis:\n```json\n{\"categorySnapshot\":{\"category\":\"CRM\"},\"marketMaturity\":\"mature\"}\n```\nHope that helps.",
		}

		sec, err := Market(context.Background(), caller, "we sell CRM software", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, "CRM", sec.Data.CategorySnapshot.Category)
		assert.Equal(t, model.MaturityMature, sec.Data.MarketMaturity)
		assert.Equal(t, "sonar-pro", sec.Model)
		assert.Equal(t, 0.005, sec.Cost)
		require.Len(t, sec.Citations, 1)
		assert.Equal(t, "https://example.com/report", sec.Citations[0].URL)
	})

	t.Run("no JSON in response is fatal for the section", func(t *testing.T) {
		caller := &fakeCaller{text: "I could not find reliable data on this market."}

		_, err := Market(context.Background(), caller, "ctx", time.Minute)
		require.Error(t, err)
		assert.True(t, errors.Is(err, jsonx.ErrNoJSON))
	})

	t.Run("call failure propagates", func(t *testing.T) {
		caller := &fakeCaller{err: errors.New("boom")}

		_, err := Market(context.Background(), caller, "ctx", time.Minute)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "market")
	})

	t.Run("business context lands in the user prompt", func(t *testing.T) {
		caller := &fakeCaller{text: "{}"}

		_, err := Market(context.Background(), caller, "artisanal dog treats", time.Minute)
		require.NoError(t, err)
		assert.Contains(t, caller.lastReq.User, "artisanal dog treats")
		assert.Contains(t, caller.lastReq.System, "Output ONLY a single JSON object")
	})
}

func TestUpstreamDigestsFlowIntoPrompts(t *testing.T) {
	market := &model.MarketOverview{
		CategorySnapshot: model.CategorySnapshot{Category: "CRM", MarketSize: "$50B"},
		MarketMaturity:   model.MaturityMature,
		AwarenessLevel:   model.AwarenessHigh,
		BuyingBehavior:   model.BuyingCommittee,
		PainPoints:       model.PainPoints{Primary: []string{"data silos"}},
	}
	icp := &model.ICPValidation{
		ValidationStatus: model.ValidationValidated,
		FitScore:         8,
		Risks:            []model.ICPRisk{{Risk: "long cycles", Rating: model.RatingHigh}},
	}

	t.Run("icp prompt carries market digest", func(t *testing.T) {
		caller := &fakeCaller{text: "{}"}
		_, err := ICP(context.Background(), caller, "ctx", Upstream{Market: market}, time.Minute)
		require.NoError(t, err)
		assert.Contains(t, caller.lastReq.User, "CRM")
		assert.Contains(t, caller.lastReq.User, "data silos")
	})

	t.Run("offer prompt carries market and icp digests", func(t *testing.T) {
		caller := &fakeCaller{text: "{}"}
		_, err := Offer(context.Background(), caller, "ctx", Upstream{Market: market, ICP: icp}, time.Minute)
		require.NoError(t, err)
		assert.Contains(t, caller.lastReq.User, "validated")
		assert.Contains(t, caller.lastReq.User, "long cycles")
	})

	t.Run("synthesis prompt digests every section", func(t *testing.T) {
		caller := &fakeCaller{text: "{}"}
		up := Upstream{
			Market: market,
			ICP:    icp,
			Offer:  &model.OfferViability{OverallScore: 6.3, FinalVerdict: model.FinalVerdict{Recommendation: model.RecommendProceed, Confidence: 7}},
			Competitor: &model.CompetitorAnalysis{
				Competitors: []model.CompetitorSnapshot{{Name: "Acme", ThreatLevel: model.RatingHigh, Positioning: "enterprise suite"}},
				Summary:     "crowded at the top",
			},
		}
		_, err := Synthesize(context.Background(), caller, "ctx", up, time.Minute)
		require.NoError(t, err)
		assert.Contains(t, caller.lastReq.User, "Acme")
		assert.Contains(t, caller.lastReq.User, "proceed")
		assert.Contains(t, caller.lastReq.User, "crowded at the top")
	})
}

func TestCompetitorSection(t *testing.T) {
	const resp = `{"competitors":[{"name":"Acme","website":"https://acme.com"}],"creativeLibrary":[],"summary":"one rival"}`

	t.Run("validates and skips enrichment when nil", func(t *testing.T) {
		caller := &fakeCaller{text: resp}
		sec, err := Competitor(context.Background(), caller, "ctx", Upstream{}, nil, time.Minute)
		require.NoError(t, err)
		require.Len(t, sec.Data.Competitors, 1)
		assert.Equal(t, model.PricingUnavailable, sec.Data.Competitors[0].PricingSource)
	})

	t.Run("schema-breaking response is fatal", func(t *testing.T) {
		caller := &fakeCaller{text: `{"summary":"no lists here"}`}
		_, err := Competitor(context.Background(), caller, "ctx", Upstream{}, nil, time.Minute)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "competitors")
	})

	t.Run("enrichment cost folds into the section cost", func(t *testing.T) {
		caller := &fakeCaller{text: resp}
		sec, err := Competitor(context.Background(), caller, "ctx", Upstream{}, &stubEnricher{cost: 0.011}, time.Minute)
		require.NoError(t, err)
		assert.InDelta(t, 0.005+0.011, sec.Cost, 1e-9)
	})
}

// stubEnricher reports a fixed sub-call cost without touching the analysis.
type stubEnricher struct{ cost float64 }

func (s *stubEnricher) Enrich(_ context.Context, _ *model.CompetitorAnalysis) float64 {
	return s.cost
}

package research

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/blueprint-cli/internal/model"
)

const competitorSystemPrompt = `You are a competitive intelligence analyst. Identify the most relevant
direct competitors for the business described by the user and profile each
one. Use current sources and cite them. Do NOT guess at pricing plans or
tiers; pricing is verified separately.

Output ONLY a single JSON object with exactly this shape, no prose before or
after it:
{
  "competitors": [{
    "name": string, "website": string, "positioning": string,
    "offer": string, "price": string,
    "adPlatforms": [string], "strengths": [string], "weaknesses": [string],
    "threatLevel": "low" | "medium" | "high",
    "reviewSummary": string
  }],
  "creativeLibrary": [{"headline": string, "body": string, "advertiser": string, "platform": string}],
  "whiteSpaceGaps": [string],
  "summary": string
}`

// CompetitorEnricher attaches fetched ad creatives and scraped pricing to a
// validated competitor analysis and reports the USD cost its sub-calls
// incurred. Enrichment degrades; it never fails the section.
type CompetitorEnricher interface {
	Enrich(ctx context.Context, analysis *model.CompetitorAnalysis) float64
}

// Competitor runs the competitor-intelligence section. The timeout covers
// both the research call and the per-competitor enrichment fan-out, so the
// section manages its own deadline instead of delegating to runSection.
func Competitor(ctx context.Context, caller ModelCaller, businessContext string, up Upstream, enricher CompetitorEnricher, timeout time.Duration) (*model.Section[model.CompetitorAnalysis], error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req := Request{
		System:      competitorSystemPrompt,
		User:        competitorUserPrompt(businessContext, up),
		Temperature: 0.2,
		MaxTokens:   4096,
	}
	sec, err := runSection(ctx, caller, model.SectionCompetitor, req, 0, ValidateCompetitors)
	if err != nil {
		return nil, err
	}

	if enricher != nil {
		sec.Cost += enricher.Enrich(ctx, &sec.Data)
	}
	return sec, nil
}

func competitorUserPrompt(businessContext string, up Upstream) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Business context:\n%s\n", businessContext)
	if d := marketDigest(up.Market); d != "" {
		fmt.Fprintf(&b, "\nMarket overview (already researched):\n%s", d)
	}
	if d := icpDigest(up.ICP); d != "" {
		fmt.Fprintf(&b, "\nICP validation (already researched):\n%s", d)
	}
	b.WriteString("\nProfile the competitors and output the JSON object.")
	return b.String()
}

// ValidateCompetitors coerces an untrusted object into a CompetitorAnalysis.
// Unlike the other validators it can fail: the competitors and
// creativeLibrary keys are structural, and their outright absence means the
// response does not carry the section at all.
//
// Pricing fields are never taken from the model. Every validated snapshot
// starts as PricingUnavailable; only the pricing resolver upgrades it.
func ValidateCompetitors(m map[string]any) (model.CompetitorAnalysis, error) {
	if _, ok := m["competitors"]; !ok {
		return model.CompetitorAnalysis{}, eris.New("missing required key \"competitors\"")
	}
	if _, ok := m["creativeLibrary"]; !ok {
		return model.CompetitorAnalysis{}, eris.New("missing required key \"creativeLibrary\"")
	}

	comps := make([]model.CompetitorSnapshot, 0)
	for _, obj := range objSliceField(m, "competitors") {
		name := strField(obj, "name")
		if name == "" {
			continue
		}
		comps = append(comps, model.CompetitorSnapshot{
			Name:          name,
			Website:       strField(obj, "website"),
			Positioning:   strField(obj, "positioning"),
			Offer:         strField(obj, "offer"),
			Price:         strField(obj, "price"),
			AdPlatforms:   strSliceField(obj, "adPlatforms"),
			Strengths:     strSliceField(obj, "strengths"),
			Weaknesses:    strSliceField(obj, "weaknesses"),
			ThreatLevel:   enumField(obj, "threatLevel", model.RiskRatings, model.RatingMedium),
			ReviewSummary: strField(obj, "reviewSummary"),

			PricingSource:     model.PricingUnavailable,
			PricingConfidence: 0,
		})
	}

	library := make([]model.EnrichedAdCreative, 0)
	for _, obj := range objSliceField(m, "creativeLibrary") {
		ad := model.EnrichedAdCreative{
			Headline:   strField(obj, "headline"),
			Body:       strField(obj, "body"),
			Advertiser: strField(obj, "advertiser"),
			Platform:   strField(obj, "platform"),
		}
		if ad.Headline == "" && ad.Body == "" {
			continue
		}
		library = append(library, ad)
	}

	return model.CompetitorAnalysis{
		Competitors:     comps,
		CreativeLibrary: library,
		WhiteSpaceGaps:  strSliceField(m, "whiteSpaceGaps"),
		Summary:         strField(m, "summary"),
	}, nil
}

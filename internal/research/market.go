package research

import (
	"context"
	"fmt"
	"time"

	"github.com/sells-group/blueprint-cli/internal/model"
)

const marketSystemPrompt = `You are a market research analyst. Research the market category for the
business described by the user. Use current sources and cite them.

Output ONLY a single JSON object with exactly this shape, no prose before or
after it:
{
  "categorySnapshot": {"category": string, "description": string, "marketSize": string, "growthRate": string},
  "marketMaturity": "emerging" | "growing" | "mature" | "declining",
  "awarenessLevel": "low" | "medium" | "high",
  "buyingBehavior": "impulse" | "considered" | "committee",
  "painPoints": {"primary": [string], "secondary": [string]},
  "trends": [string],
  "demandSignals": [string],
  "seasonalityNotes": string,
  "competitiveDensity": string
}`

// Market runs the market-overview section.
func Market(ctx context.Context, caller ModelCaller, businessContext string, timeout time.Duration) (*model.Section[model.MarketOverview], error) {
	req := Request{
		System:      marketSystemPrompt,
		User:        fmt.Sprintf("Business context:\n%s\n\nResearch this business's market category and output the JSON object.", businessContext),
		Temperature: 0.2,
		MaxTokens:   2048,
	}
	return runSection(ctx, caller, model.SectionMarket, req, timeout, func(m map[string]any) (model.MarketOverview, error) {
		return ValidateMarket(m), nil
	})
}

// ValidateMarket coerces an untrusted object into a fully-populated
// MarketOverview. Total: any input, including an empty object, yields a
// valid record.
func ValidateMarket(m map[string]any) model.MarketOverview {
	snap := objField(m, "categorySnapshot")
	pains := objField(m, "painPoints")

	return model.MarketOverview{
		CategorySnapshot: model.CategorySnapshot{
			Category:    strField(snap, "category"),
			Description: strField(snap, "description"),
			MarketSize:  strField(snap, "marketSize"),
			GrowthRate:  strField(snap, "growthRate"),
		},
		MarketMaturity: enumField(m, "marketMaturity", model.MarketMaturities, model.MaturityGrowing),
		AwarenessLevel: enumField(m, "awarenessLevel", model.AwarenessLevels, model.AwarenessMedium),
		BuyingBehavior: enumField(m, "buyingBehavior", model.BuyingBehaviors, model.BuyingConsidered),
		PainPoints: model.PainPoints{
			Primary:   strSliceField(pains, "primary"),
			Secondary: strSliceField(pains, "secondary"),
		},
		Trends:             strSliceField(m, "trends"),
		DemandSignals:      strSliceField(m, "demandSignals"),
		SeasonalityNotes:   strField(m, "seasonalityNotes"),
		CompetitiveDensity: strField(m, "competitiveDensity"),
	}
}

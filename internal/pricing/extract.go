package pricing

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"

	"github.com/sells-group/blueprint-cli/internal/jsonx"
	"github.com/sells-group/blueprint-cli/internal/model"
	"github.com/sells-group/blueprint-cli/pkg/anthropic"
)

// maxPageChars bounds the scraped content handed to the extraction model.
const maxPageChars = 20000

const extractSystemPrompt = `You extract pricing plans from a scraped pricing page. Use ONLY facts
present in the supplied page content. If the page shows no plans, output an
empty tiers array. NEVER invent a plan name or a price; "Custom" or
"Contact sales" is a valid price only when the page says so.

Output ONLY a JSON object:
{"tiers": [{"tier": string, "price": string, "description": string, "audience": string, "features": [string], "limitations": [string]}]}`

// extractTiers hands the scraped markdown to the extraction model and
// decodes the tier list. The second return is the USD cost of the call.
func (r *Resolver) extractTiers(ctx context.Context, name, url, content string) ([]model.PricingTier, float64, error) {
	if len(content) > maxPageChars {
		cut := maxPageChars
		for cut > 0 && !utf8.RuneStart(content[cut]) {
			cut--
		}
		content = content[:cut]
	}

	user := fmt.Sprintf("Company: %s\nPage: %s\n\nPage content:\n%s", name, url, content)
	resp, err := r.extractor.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     r.modelID,
		MaxTokens: 2048,
		System:    extractSystemPrompt,
		Messages:  []anthropic.Message{{Role: "user", Content: user}},
	})
	if err != nil {
		return nil, 0, eris.Wrap(err, "pricing: extraction call")
	}
	spent := r.extractionCost(resp)

	obj, err := jsonx.ExtractMap(resp.Text())
	if err != nil {
		return nil, spent, eris.Wrap(err, "pricing: no JSON in extraction response")
	}

	rawTiers, _ := obj["tiers"].([]any)
	tiers := make([]model.PricingTier, 0, len(rawTiers))
	for _, rt := range rawTiers {
		t, ok := rt.(map[string]any)
		if !ok {
			continue
		}
		tier := model.PricingTier{
			Tier:        strVal(t["tier"]),
			Price:       strVal(t["price"]),
			Description: strVal(t["description"]),
			Audience:    strVal(t["audience"]),
			Features:    strSlice(t["features"]),
			Limitations: strSlice(t["limitations"]),
		}
		if tier.Tier == "" || tier.Price == "" {
			continue
		}
		tiers = append(tiers, tier)
	}
	return tiers, spent, nil
}

func (r *Resolver) extractionCost(resp *anthropic.MessageResponse) float64 {
	if r.calc == nil {
		return 0
	}
	modelID := resp.Model
	if modelID == "" {
		modelID = r.modelID
	}
	return r.calc.Claude(modelID, int(resp.Usage.InputTokens), int(resp.Usage.OutputTokens))
}

func strVal(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func strSlice(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, e := range arr {
		if s, ok := e.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

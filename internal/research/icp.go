package research

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sells-group/blueprint-cli/internal/model"
)

const icpSystemPrompt = `You are a B2B go-to-market analyst. Validate whether the ideal customer
profile described by the user is a real, reachable segment with genuine
demand. Use current sources and cite them.

Output ONLY a single JSON object with exactly this shape, no prose before or
after it:
{
  "validationStatus": "validated" | "workable" | "mismatched",
  "segments": [{"name": string, "description": string, "channels": [string], "estimatedSize": string}],
  "risks": [{"risk": string, "rating": "low" | "medium" | "high"}],
  "buyingTriggers": [string],
  "commonObjections": [string],
  "fitScore": number (1-10)
}`

// ICP runs the ICP-validation section. The market overview, when present,
// is digested into the prompt.
func ICP(ctx context.Context, caller ModelCaller, businessContext string, up Upstream, timeout time.Duration) (*model.Section[model.ICPValidation], error) {
	req := Request{
		System:      icpSystemPrompt,
		User:        icpUserPrompt(businessContext, up),
		Temperature: 0.2,
		MaxTokens:   2048,
	}
	return runSection(ctx, caller, model.SectionICP, req, timeout, func(m map[string]any) (model.ICPValidation, error) {
		return ValidateICP(m), nil
	})
}

func icpUserPrompt(businessContext string, up Upstream) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Business context:\n%s\n", businessContext)
	if d := marketDigest(up.Market); d != "" {
		fmt.Fprintf(&b, "\nMarket overview (already researched):\n%s", d)
	}
	b.WriteString("\nValidate the ICP and output the JSON object.")
	return b.String()
}

// marketDigest compacts the market section for downstream prompts.
func marketDigest(m *model.MarketOverview) string {
	if m == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "- Category: %s (%s, maturity %s)\n",
		m.CategorySnapshot.Category, m.CategorySnapshot.MarketSize, m.MarketMaturity)
	fmt.Fprintf(&b, "- Buyer awareness %s, buying behavior %s\n", m.AwarenessLevel, m.BuyingBehavior)
	if len(m.PainPoints.Primary) > 0 {
		fmt.Fprintf(&b, "- Primary pains: %s\n", strings.Join(capSlice(m.PainPoints.Primary, 3), "; "))
	}
	if len(m.Trends) > 0 {
		fmt.Fprintf(&b, "- Trends: %s\n", strings.Join(capSlice(m.Trends, 3), "; "))
	}
	return b.String()
}

func capSlice(s []string, max int) []string {
	if len(s) > max {
		return s[:max]
	}
	return s
}

// ValidateICP coerces an untrusted object into a fully-populated
// ICPValidation.
func ValidateICP(m map[string]any) model.ICPValidation {
	segments := make([]model.ICPSegment, 0)
	for _, obj := range objSliceField(m, "segments") {
		seg := model.ICPSegment{
			Name:          strField(obj, "name"),
			Description:   strField(obj, "description"),
			Channels:      strSliceField(obj, "channels"),
			EstimatedSize: strField(obj, "estimatedSize"),
		}
		if seg.Name == "" && seg.Description == "" {
			continue
		}
		segments = append(segments, seg)
	}

	risks := make([]model.ICPRisk, 0)
	for _, obj := range objSliceField(m, "risks") {
		risk := strField(obj, "risk")
		if risk == "" {
			continue
		}
		risks = append(risks, model.ICPRisk{
			Risk:   risk,
			Rating: enumField(obj, "rating", model.RiskRatings, model.RatingMedium),
		})
	}

	return model.ICPValidation{
		ValidationStatus: enumField(m, "validationStatus", model.ValidationStatuses, model.ValidationWorkable),
		Segments:         segments,
		Risks:            risks,
		BuyingTriggers:   strSliceField(m, "buyingTriggers"),
		CommonObjections: strSliceField(m, "commonObjections"),
		FitScore:         scoreField(m, "fitScore", 1, 10, 5),
	}
}

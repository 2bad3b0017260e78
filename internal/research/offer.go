package research

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sells-group/blueprint-cli/internal/model"
)

const offerSystemPrompt = `You are a direct-response offer strategist. Assess whether the offer
described by the user is viable for paid acquisition. Use current sources
and cite them.

Output ONLY a single JSON object with exactly this shape, no prose before or
after it:
{
  "offerStrength": {"clarity": number (1-10), "differentiation": number (1-10), "valueAlignment": number (1-10), "urgency": number (1-10)},
  "redFlags": [subset of: "vague-promise", "weak-guarantee", "price-anchored", "no-urgency", "crowded-positioning", "unproven-mechanism", "high-friction-fulfillment"],
  "formFriction": "low" | "medium" | "high",
  "economics": {"estimatedCpl": string, "estimatedCac": string, "estimatedLtv": string, "notes": string},
  "finalVerdict": {"recommendation": "proceed" | "revise" | "reconsider", "confidence": number (1-10), "rationale": string}
}`

// Offer runs the offer-viability section, with market and ICP digests in
// the prompt when available.
func Offer(ctx context.Context, caller ModelCaller, businessContext string, up Upstream, timeout time.Duration) (*model.Section[model.OfferViability], error) {
	req := Request{
		System:      offerSystemPrompt,
		User:        offerUserPrompt(businessContext, up),
		Temperature: 0.2,
		MaxTokens:   2048,
	}
	return runSection(ctx, caller, model.SectionOffer, req, timeout, func(m map[string]any) (model.OfferViability, error) {
		return ValidateOffer(m), nil
	})
}

func offerUserPrompt(businessContext string, up Upstream) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Business context:\n%s\n", businessContext)
	if d := marketDigest(up.Market); d != "" {
		fmt.Fprintf(&b, "\nMarket overview (already researched):\n%s", d)
	}
	if d := icpDigest(up.ICP); d != "" {
		fmt.Fprintf(&b, "\nICP validation (already researched):\n%s", d)
	}
	b.WriteString("\nAssess the offer and output the JSON object.")
	return b.String()
}

// icpDigest compacts the ICP section for downstream prompts: status, top
// risk ratings, triggers.
func icpDigest(icp *model.ICPValidation) string {
	if icp == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "- Validation status: %s (fit score %.1f/10)\n", icp.ValidationStatus, icp.FitScore)
	for i, r := range icp.Risks {
		if i >= 3 {
			break
		}
		fmt.Fprintf(&b, "- Risk (%s): %s\n", r.Rating, r.Risk)
	}
	if len(icp.BuyingTriggers) > 0 {
		fmt.Fprintf(&b, "- Buying triggers: %s\n", strings.Join(capSlice(icp.BuyingTriggers, 3), "; "))
	}
	return b.String()
}

// ValidateOffer coerces an untrusted object into a fully-populated
// OfferViability. The overall score is always recomputed as the mean of the
// four strength subscores; a model-supplied value is ignored.
func ValidateOffer(m map[string]any) model.OfferViability {
	strengthObj := objField(m, "offerStrength")
	strength := model.OfferStrength{
		Clarity:         scoreField(strengthObj, "clarity", 1, 10, 5),
		Differentiation: scoreField(strengthObj, "differentiation", 1, 10, 5),
		ValueAlignment:  scoreField(strengthObj, "valueAlignment", 1, 10, 5),
		Urgency:         scoreField(strengthObj, "urgency", 1, 10, 5),
	}

	verdictObj := objField(m, "finalVerdict")
	econObj := objField(m, "economics")

	return model.OfferViability{
		OfferStrength: strength,
		RedFlags:      filterRedFlags(strSliceField(m, "redFlags")),
		FormFriction:  enumField(m, "formFriction", model.FormFrictions, model.RatingMedium),
		Economics: model.UnitEconomics{
			EstimatedCPL: strField(econObj, "estimatedCpl"),
			EstimatedCAC: strField(econObj, "estimatedCac"),
			EstimatedLTV: strField(econObj, "estimatedLtv"),
			Notes:        strField(econObj, "notes"),
		},
		FinalVerdict: model.FinalVerdict{
			Recommendation: enumField(verdictObj, "recommendation", model.Recommendations, model.RecommendRevise),
			Confidence:     scoreField(verdictObj, "confidence", 1, 10, 5),
			Rationale:      strField(verdictObj, "rationale"),
		},
		OverallScore: round1((strength.Clarity + strength.Differentiation + strength.ValueAlignment + strength.Urgency) / 4),
	}
}

// filterRedFlags drops values outside the fixed red-flag vocabulary. The
// field is a set, so unknown values are removed rather than defaulted.
func filterRedFlags(flags []string) []string {
	out := make([]string, 0, len(flags))
	seen := make(map[string]bool)
	for _, f := range flags {
		f = strings.ToLower(strings.TrimSpace(f))
		if seen[f] {
			continue
		}
		for _, known := range model.OfferRedFlags {
			if f == known {
				out = append(out, f)
				seen[f] = true
				break
			}
		}
	}
	return out
}

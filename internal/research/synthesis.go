package research

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sells-group/blueprint-cli/internal/model"
)

const synthesisSystemPrompt = `You are a strategy consultant writing the executive synthesis of a
completed research engagement. Base your synthesis ONLY on the section
summaries supplied by the user; do not introduce new claims.

Output ONLY a single JSON object with exactly this shape, no prose before or
after it:
{
  "executiveSummary": string,
  "positioningStatement": string,
  "keyInsights": [string],
  "strategicPriorities": [string],
  "risks": [string],
  "nextSteps": [string]
}`

// Synthesize runs the cross-section synthesis over the four completed
// data-gathering sections.
func Synthesize(ctx context.Context, caller ModelCaller, businessContext string, up Upstream, timeout time.Duration) (*model.Section[model.Synthesis], error) {
	req := Request{
		System:      synthesisSystemPrompt,
		User:        synthesisUserPrompt(businessContext, up),
		Temperature: 0.3,
		MaxTokens:   2048,
	}
	return runSection(ctx, caller, model.SectionSynthesis, req, timeout, func(m map[string]any) (model.Synthesis, error) {
		return ValidateSynthesis(m), nil
	})
}

func synthesisUserPrompt(businessContext string, up Upstream) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Business context:\n%s\n", businessContext)
	if d := marketDigest(up.Market); d != "" {
		fmt.Fprintf(&b, "\nMarket overview:\n%s", d)
	}
	if d := icpDigest(up.ICP); d != "" {
		fmt.Fprintf(&b, "\nICP validation:\n%s", d)
	}
	if d := offerDigest(up.Offer); d != "" {
		fmt.Fprintf(&b, "\nOffer viability:\n%s", d)
	}
	if d := competitorDigest(up.Competitor); d != "" {
		fmt.Fprintf(&b, "\nCompetitor intelligence:\n%s", d)
	}
	b.WriteString("\nSynthesize the findings and output the JSON object.")
	return b.String()
}

func offerDigest(o *model.OfferViability) string {
	if o == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "- Overall score %.1f/10, verdict %s (confidence %.1f/10)\n",
		o.OverallScore, o.FinalVerdict.Recommendation, o.FinalVerdict.Confidence)
	if len(o.RedFlags) > 0 {
		fmt.Fprintf(&b, "- Red flags: %s\n", strings.Join(o.RedFlags, ", "))
	}
	if o.FinalVerdict.Rationale != "" {
		fmt.Fprintf(&b, "- Rationale: %s\n", o.FinalVerdict.Rationale)
	}
	return b.String()
}

func competitorDigest(c *model.CompetitorAnalysis) string {
	if c == nil {
		return ""
	}
	var b strings.Builder
	for i, comp := range c.Competitors {
		if i >= 5 {
			break
		}
		fmt.Fprintf(&b, "- %s (threat %s): %s\n", comp.Name, comp.ThreatLevel, comp.Positioning)
	}
	if len(c.WhiteSpaceGaps) > 0 {
		fmt.Fprintf(&b, "- White-space gaps: %s\n", strings.Join(capSlice(c.WhiteSpaceGaps, 3), "; "))
	}
	if c.Summary != "" {
		fmt.Fprintf(&b, "- Summary: %s\n", c.Summary)
	}
	return b.String()
}

// ValidateSynthesis coerces an untrusted object into a fully-populated
// Synthesis record.
func ValidateSynthesis(m map[string]any) model.Synthesis {
	return model.Synthesis{
		ExecutiveSummary:     strField(m, "executiveSummary"),
		PositioningStatement: strField(m, "positioningStatement"),
		KeyInsights:          strSliceField(m, "keyInsights"),
		StrategicPriorities:  strSliceField(m, "strategicPriorities"),
		Risks:                strSliceField(m, "risks"),
		NextSteps:            strSliceField(m, "nextSteps"),
	}
}

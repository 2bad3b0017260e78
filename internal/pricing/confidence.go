package pricing

import (
	"regexp"
	"strings"

	"github.com/sells-group/blueprint-cli/internal/model"
)

// genericTierNames are plan names common enough across SaaS pricing pages
// to be relevant without mentioning the company.
var genericTierNames = map[string]bool{
	"free": true, "basic": true, "starter": true, "lite": true,
	"standard": true, "plus": true, "pro": true, "professional": true,
	"premium": true, "business": true, "growth": true, "team": true,
	"teams": true, "enterprise": true, "individual": true, "scale": true,
}

// addOnKeywords mark line items that are upsells rather than plans.
var addOnKeywords = []string{"add-on", "addon", "add on", "overage", "extra seat", "additional user", "top-up", "upsell"}

var priceFormatRe = regexp.MustCompile(`(?i)^(?:[$€£]\s?\d[\d,]*(?:\.\d{1,2})?(?:\s?/\s?\w+)*|free|custom|contact (?:us|sales))`)

var priceDigitsRe = regexp.MustCompile(`\d[\d,]*(?:\.\d{1,2})?`)

// filterRelevantTiers drops extracted tiers that score below the relevance
// floor: add-on line items, and names that are neither generic SaaS tier
// names nor related to the company.
func filterRelevantTiers(company string, tiers []model.PricingTier) []model.PricingTier {
	out := make([]model.PricingTier, 0, len(tiers))
	for _, t := range tiers {
		if tierRelevance(company, t) >= model.MinAdRelevanceScore {
			out = append(out, t)
		}
	}
	return out
}

// tierRelevance scores 0-100 how plausibly a tier belongs to the company's
// own plan lineup.
func tierRelevance(company string, t model.PricingTier) int {
	name := strings.ToLower(strings.TrimSpace(t.Tier))
	haystack := strings.ToLower(t.Tier + " " + t.Description)

	for _, kw := range addOnKeywords {
		if strings.Contains(haystack, kw) {
			return 0
		}
	}

	score := 30
	for _, word := range strings.Fields(name) {
		if genericTierNames[word] {
			score = 70
			break
		}
	}
	if company != "" {
		for _, tok := range strings.Fields(strings.ToLower(company)) {
			if len(tok) >= 3 && strings.Contains(haystack, tok) {
				score += 30
				break
			}
		}
	}
	if score > 100 {
		score = 100
	}
	return score
}

// scoreConfidence applies the five-factor rubric, each factor contributing
// 0-20 points.
func scoreConfidence(tiers []model.PricingTier, pageContent string) model.ConfidenceBreakdown {
	if len(tiers) == 0 {
		return model.ConfidenceBreakdown{}
	}

	var overlapping, complete, plausible, wellFormed int
	for _, t := range tiers {
		if digits := priceDigitsRe.FindString(t.Price); digits != "" && strings.Contains(pageContent, digits) {
			overlapping++
		} else if digits == "" {
			// "Free" and "Custom" carry no digits to cross-check; count
			// them when the word itself appears on the page.
			if strings.Contains(strings.ToLower(pageContent), strings.ToLower(strings.TrimSpace(t.Price))) {
				overlapping++
			}
		}
		complete += t.Completeness()
		if t.Tier != "" && t.Price != "" {
			plausible++
		}
		if priceFormatRe.MatchString(strings.TrimSpace(t.Price)) {
			wellFormed++
		}
	}

	n := len(tiers)
	return model.ConfidenceBreakdown{
		SourceOverlap:      frac20(overlapping, n),
		SchemaCompleteness: frac20(complete, n*4),
		FieldPlausibility:  frac20(plausible, n),
		TierCount:          tierCountScore(n),
		PriceFormat:        frac20(wellFormed, n),
	}
}

func frac20(num, den int) int {
	if den == 0 {
		return 0
	}
	return num * 20 / den
}

// tierCountScore rewards a believable plan count: real pricing pages carry
// one to six plans.
func tierCountScore(n int) int {
	switch {
	case n == 0:
		return 0
	case n <= 6:
		return 20
	case n <= 8:
		return 10
	default:
		return 5
	}
}

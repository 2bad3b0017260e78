package ads

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/blueprint-cli/internal/model"
	"github.com/sells-group/blueprint-cli/pkg/adlibrary"
)

// ctaPatterns are matched case-insensitively against ad text to surface
// common calls to action.
var ctaPatterns = []string{
	"book a demo",
	"get started",
	"start free trial",
	"free trial",
	"learn more",
	"sign up",
	"talk to sales",
	"get a quote",
	"try it free",
	"download now",
	"shop now",
	"request access",
}

// currencyRe matches price mentions like "$49", "$1,299.00/mo", "€20".
var currencyRe = regexp.MustCompile(`[$€£]\s?\d[\d,]*(?:\.\d{1,2})?(?:\s?/\s?(?:mo|month|yr|year|user|seat))?`)

// tierMentionRe matches "Pro plan at $29/mo" style phrases in ad copy, the
// lowest-confidence source of pricing tiers.
var tierMentionRe = regexp.MustCompile(`(?i)\b(free|basic|starter|lite|standard|plus|pro|professional|premium|business|growth|team|enterprise)\b(?:\s+plan)?\s*(?:at|for|from|starting at|:|-)?\s*([$€£]\s?\d[\d,]*(?:\.\d{1,2})?(?:\s?/\s?(?:mo|month|yr|year|user|seat))?)`)

// stopWords are excluded from theme extraction.
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "your": true,
	"you": true, "our": true, "are": true, "that": true, "this": true,
	"from": true, "get": true, "all": true, "more": true, "now": true,
	"can": true, "how": true, "what": true, "why": true, "not": true,
	"has": true, "have": true, "its": true, "their": true, "them": true,
	"was": true, "will": true, "one": true, "out": true, "about": true,
	"into": true, "than": true, "then": true, "when": true, "who": true,
	"new": true, "use": true, "using": true, "any": true, "per": true,
}

// MergeResult is the merger's output for one competitor. Cost is the USD
// spend of the scoring call, if one was made.
type MergeResult struct {
	Creatives        []model.EnrichedAdCreative
	Themes           []string
	PriceMentions    []string
	ProvisionalTiers []model.PricingTier
	Cost             float64
}

// Merger scores, filters, and sorts ad creatives and derives messaging
// signals from the survivors.
type Merger struct {
	scorer Scorer
}

// NewMerger creates a Merger. A nil scorer falls back to name and domain
// heuristics.
func NewMerger(scorer Scorer) *Merger {
	return &Merger{scorer: scorer}
}

// Merge converts the fetched creatives, scores any that arrived unscored,
// drops everything under the relevance floor, and sorts the rest descending
// by score. Themes, CTAs, and price mentions are derived from the surviving
// ads only.
func (m *Merger) Merge(ctx context.Context, competitor, domain string, fetched []adlibrary.AdCreative) MergeResult {
	if len(fetched) == 0 {
		return MergeResult{Creatives: []model.EnrichedAdCreative{}}
	}

	creatives := make([]model.EnrichedAdCreative, 0, len(fetched))
	unscored := make([]int, 0, len(fetched))
	for i, raw := range fetched {
		ad := model.EnrichedAdCreative{
			Headline:       raw.Headline,
			Body:           raw.Body,
			Advertiser:     raw.Advertiser,
			Platform:       raw.Platform,
			LandingURL:     raw.LandingURL,
			Transcript:     raw.Transcript,
			HookText:       raw.HookText,
			HookType:       raw.HookType,
			EmotionalTones: raw.EmotionalTones,
		}
		if raw.Score != nil {
			ad.Relevance = &model.RelevanceAssessment{Score: clampScore(*raw.Score), Rationale: "pre-scored upstream"}
		} else {
			unscored = append(unscored, i)
		}
		creatives = append(creatives, ad)
	}

	spent := m.scoreUnscored(ctx, competitor, domain, creatives, unscored)

	kept := make([]model.EnrichedAdCreative, 0, len(creatives))
	for _, ad := range creatives {
		if ad.Relevance == nil || ad.Relevance.Score < model.MinAdRelevanceScore {
			score := 0
			if ad.Relevance != nil {
				score = ad.Relevance.Score
			}
			logDroppedAd(competitor, ad, score)
			continue
		}
		kept = append(kept, ad)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Relevance.Score > kept[j].Relevance.Score
	})

	if len(kept) == 0 {
		return MergeResult{Creatives: kept, Cost: spent}
	}

	text := adText(kept)
	return MergeResult{
		Creatives:        kept,
		Themes:           extractThemes(text, ctasIn(text)),
		PriceMentions:    extractPriceMentions(text),
		ProvisionalTiers: extractProvisionalTiers(text),
		Cost:             spent,
	}
}

// scoreUnscored fills in relevance for ads the upstream service did not
// pre-score, preferring the model scorer and falling back to heuristics.
// Returns the USD cost of the scoring call.
func (m *Merger) scoreUnscored(ctx context.Context, competitor, domain string, creatives []model.EnrichedAdCreative, unscored []int) float64 {
	if len(unscored) == 0 {
		return 0
	}

	subset := make([]model.EnrichedAdCreative, len(unscored))
	for i, idx := range unscored {
		subset[i] = creatives[idx]
	}

	var (
		assessments []model.RelevanceAssessment
		spent       float64
	)
	if m.scorer != nil {
		var err error
		assessments, spent, err = m.scorer.Score(ctx, competitor, domain, subset)
		if err != nil {
			zap.L().Warn("relevance scoring failed, using heuristics",
				zap.String("competitor", competitor),
				zap.Error(err),
			)
			assessments = nil
		}
	}
	if assessments == nil {
		assessments = heuristicScores(competitor, domain, subset)
	}

	for i, idx := range unscored {
		if i < len(assessments) {
			a := assessments[i]
			creatives[idx].Relevance = &a
		}
	}
	return spent
}

func adText(ads []model.EnrichedAdCreative) string {
	var b strings.Builder
	for _, ad := range ads {
		b.WriteString(ad.Headline)
		b.WriteString(" ")
		b.WriteString(ad.Body)
		b.WriteString(" ")
	}
	return b.String()
}

// extractThemes runs stop-word-filtered word-frequency analysis over the ad
// text, keeping words seen at least twice, up to five themes. Matched CTA
// phrases are appended after the frequency themes.
func extractThemes(text string, ctas []string) []string {
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,!?:;\"'()[]{}")
		if len(w) < 3 || stopWords[w] || currencyRe.MatchString(w) {
			continue
		}
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}

	frequent := make([]string, 0)
	for _, w := range order {
		if counts[w] >= 2 {
			frequent = append(frequent, w)
		}
	}
	sort.SliceStable(frequent, func(i, j int) bool {
		return counts[frequent[i]] > counts[frequent[j]]
	})
	if len(frequent) > 5 {
		frequent = frequent[:5]
	}

	return append(frequent, ctas...)
}

// ctasIn returns the fixed CTA phrases present in the text, in pattern
// order.
func ctasIn(text string) []string {
	lower := strings.ToLower(text)
	out := make([]string, 0)
	for _, cta := range ctaPatterns {
		if strings.Contains(lower, cta) {
			out = append(out, cta)
		}
	}
	return out
}

func extractPriceMentions(text string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, m := range currencyRe.FindAllString(text, -1) {
		m = strings.TrimSpace(m)
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}

func titleCase(s string) string {
	s = strings.ToLower(s)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// extractProvisionalTiers mines "Pro plan at $29/mo" phrases out of ad copy.
// These are the lowest-confidence tier source and are only ever merged under
// scraped tiers, never surfaced on their own.
func extractProvisionalTiers(text string) []model.PricingTier {
	out := make([]model.PricingTier, 0)
	seen := make(map[string]bool)
	for _, m := range tierMentionRe.FindAllStringSubmatch(text, -1) {
		tier := model.PricingTier{
			Tier:  titleCase(m[1]),
			Price: strings.TrimSpace(m[2]),
		}
		key := tier.DedupeKey()
		if !seen[key] {
			seen[key] = true
			out = append(out, tier)
		}
	}
	return out
}

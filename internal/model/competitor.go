package model

import "strings"

// Pricing sources. Pricing on a CompetitorSnapshot is never populated from
// the research model's own guess: it is either scraped from the competitor's
// pricing page or explicitly marked unavailable.
const (
	PricingScraped     = "scraped"
	PricingUnavailable = "unavailable"
)

// MinAdRelevanceScore is the relevance floor below which a fetched ad is
// treated as a cross-brand false positive and dropped.
const MinAdRelevanceScore = 40

// MinPricingConfidence is the confidence floor below which scraped tiers
// are discarded and the competitor is marked PricingUnavailable.
const MinPricingConfidence = 60

// CompetitorAnalysis is the validated record for the competitor section.
type CompetitorAnalysis struct {
	Competitors     []CompetitorSnapshot `json:"competitors"`
	CreativeLibrary []EnrichedAdCreative `json:"creativeLibrary"`
	WhiteSpaceGaps  []string             `json:"whiteSpaceGaps"`
	Summary         string               `json:"summary"`
}

// CompetitorSnapshot holds everything learned about one competitor. The
// snapshot is mutated twice after model extraction: the ad merger attaches
// scored creatives and derived themes, and the pricing resolver replaces
// any model-guessed pricing with scraped-or-absent pricing.
type CompetitorSnapshot struct {
	Name        string   `json:"name"`
	Website     string   `json:"website"`
	Positioning string   `json:"positioning"`
	Offer       string   `json:"offer"`
	Price       string   `json:"price"`
	AdPlatforms []string `json:"adPlatforms"`
	Strengths   []string `json:"strengths"`
	Weaknesses  []string `json:"weaknesses"`
	ThreatLevel string   `json:"threatLevel"`

	ReviewSummary string `json:"reviewSummary,omitempty"`

	AdCreatives       []EnrichedAdCreative `json:"adCreatives,omitempty"`
	AdMessagingThemes []string             `json:"adMessagingThemes,omitempty"`

	PricingTiers      []PricingTier `json:"pricingTiers,omitempty"`
	PricingSource     string        `json:"pricingSource"`
	PricingConfidence int           `json:"pricingConfidence"`
	PricingVerifyURL  string        `json:"pricingVerifyUrl,omitempty"`
}

// PricingTier is one plan on a pricing page.
type PricingTier struct {
	Tier        string   `json:"tier"`
	Price       string   `json:"price"`
	Description string   `json:"description,omitempty"`
	Audience    string   `json:"audience,omitempty"`
	Features    []string `json:"features,omitempty"`
	Limitations []string `json:"limitations,omitempty"`
}

// DedupeKey returns the normalized (tier, price) identity used when merging
// tiers from multiple sources.
func (t PricingTier) DedupeKey() string {
	norm := func(s string) string {
		return strings.Join(strings.Fields(strings.ToLower(s)), " ")
	}
	return norm(t.Tier) + "|" + norm(t.Price)
}

// Completeness counts populated optional fields. Deduplication keeps the
// variant with the higher count.
func (t PricingTier) Completeness() int {
	n := 0
	if t.Description != "" {
		n++
	}
	if t.Audience != "" {
		n++
	}
	if len(t.Features) > 0 {
		n++
	}
	if len(t.Limitations) > 0 {
		n++
	}
	return n
}

// ScoredPricingResult is the pricing resolver's output for one competitor.
type ScoredPricingResult struct {
	Success    bool                `json:"success"`
	Tiers      []PricingTier       `json:"tiers"`
	Confidence int                 `json:"confidence"`
	Breakdown  ConfidenceBreakdown `json:"breakdown"`
	SourceURL  string              `json:"sourceUrl,omitempty"`
	VerifyURL  string              `json:"verifyUrl,omitempty"`
	Error      string              `json:"error,omitempty"`
	Cost       float64             `json:"cost,omitempty"`
}

// ConfidenceBreakdown is the five-factor rubric gating trust in scraped
// pricing. Each factor contributes 0-20 points.
type ConfidenceBreakdown struct {
	SourceOverlap      int `json:"sourceOverlap"`
	SchemaCompleteness int `json:"schemaCompleteness"`
	FieldPlausibility  int `json:"fieldPlausibility"`
	TierCount          int `json:"tierCount"`
	PriceFormat        int `json:"priceFormat"`
}

// Total sums the factors into the 0-100 confidence score.
func (b ConfidenceBreakdown) Total() int {
	return b.SourceOverlap + b.SchemaCompleteness + b.FieldPlausibility + b.TierCount + b.PriceFormat
}

// EnrichedAdCreative is a fetched ad plus optional relevance assessment and
// enrichment data.
type EnrichedAdCreative struct {
	Headline   string `json:"headline"`
	Body       string `json:"body"`
	Advertiser string `json:"advertiser"`
	Platform   string `json:"platform"`
	LandingURL string `json:"landingUrl,omitempty"`

	Relevance *RelevanceAssessment `json:"relevance,omitempty"`

	Transcript     string   `json:"transcript,omitempty"`
	HookText       string   `json:"hookText,omitempty"`
	HookType       string   `json:"hookType,omitempty"`
	EmotionalTones []string `json:"emotionalTones,omitempty"`
}

// RelevanceAssessment is the 0-100 confidence that an ad belongs to the
// named competitor rather than an unrelated or subsidiary brand.
type RelevanceAssessment struct {
	Score     int    `json:"score"`
	Rationale string `json:"rationale,omitempty"`
}

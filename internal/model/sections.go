package model

// Enum vocabularies for section fields. Validators substitute the documented
// default for any out-of-vocabulary value rather than propagating it.

// Market maturity stages.
const (
	MaturityEmerging  = "emerging"
	MaturityGrowing   = "growing" // default
	MaturityMature    = "mature"
	MaturityDeclining = "declining"
)

// MarketMaturities is the allow-list for MarketOverview.MarketMaturity.
var MarketMaturities = []string{MaturityEmerging, MaturityGrowing, MaturityMature, MaturityDeclining}

// Awareness levels.
const (
	AwarenessLow    = "low"
	AwarenessMedium = "medium" // default
	AwarenessHigh   = "high"
)

// AwarenessLevels is the allow-list for MarketOverview.AwarenessLevel.
var AwarenessLevels = []string{AwarenessLow, AwarenessMedium, AwarenessHigh}

// Buying behaviors.
const (
	BuyingImpulse    = "impulse"
	BuyingConsidered = "considered" // default
	BuyingCommittee  = "committee"
)

// BuyingBehaviors is the allow-list for MarketOverview.BuyingBehavior.
var BuyingBehaviors = []string{BuyingImpulse, BuyingConsidered, BuyingCommittee}

// ICP validation statuses.
const (
	ValidationValidated  = "validated"
	ValidationWorkable   = "workable" // default
	ValidationMismatched = "mismatched"
)

// ValidationStatuses is the allow-list for ICPValidation.ValidationStatus.
var ValidationStatuses = []string{ValidationValidated, ValidationWorkable, ValidationMismatched}

// Risk ratings (shared by ICP risk entries and competitor threat levels).
const (
	RatingLow    = "low"
	RatingMedium = "medium" // default
	RatingHigh   = "high"
)

// RiskRatings is the allow-list for rating-valued fields.
var RiskRatings = []string{RatingLow, RatingMedium, RatingHigh}

// Offer recommendation statuses.
const (
	RecommendProceed    = "proceed"
	RecommendRevise     = "revise" // default
	RecommendReconsider = "reconsider"
)

// Recommendations is the allow-list for FinalVerdict.Recommendation.
var Recommendations = []string{RecommendProceed, RecommendRevise, RecommendReconsider}

// OfferRedFlags is the fixed vocabulary of offer red flags; unknown values
// are dropped rather than defaulted, since the field is a set.
var OfferRedFlags = []string{
	"vague-promise",
	"weak-guarantee",
	"price-anchored",
	"no-urgency",
	"crowded-positioning",
	"unproven-mechanism",
	"high-friction-fulfillment",
}

// FormFrictions is the allow-list for OfferViability.FormFriction.
var FormFrictions = []string{RatingLow, RatingMedium, RatingHigh}

// MarketOverview is the validated record for the market section.
type MarketOverview struct {
	CategorySnapshot   CategorySnapshot `json:"categorySnapshot"`
	MarketMaturity     string           `json:"marketMaturity"`
	AwarenessLevel     string           `json:"awarenessLevel"`
	BuyingBehavior     string           `json:"buyingBehavior"`
	PainPoints         PainPoints       `json:"painPoints"`
	Trends             []string         `json:"trends"`
	DemandSignals      []string         `json:"demandSignals"`
	SeasonalityNotes   string           `json:"seasonalityNotes"`
	CompetitiveDensity string           `json:"competitiveDensity"`
}

// CategorySnapshot summarizes the market category.
type CategorySnapshot struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	MarketSize  string `json:"marketSize"`
	GrowthRate  string `json:"growthRate"`
}

// PainPoints splits buyer pains by priority.
type PainPoints struct {
	Primary   []string `json:"primary"`
	Secondary []string `json:"secondary"`
}

// ICPValidation is the validated record for the ICP section.
type ICPValidation struct {
	ValidationStatus string       `json:"validationStatus"`
	Segments         []ICPSegment `json:"segments"`
	Risks            []ICPRisk    `json:"risks"`
	BuyingTriggers   []string     `json:"buyingTriggers"`
	CommonObjections []string     `json:"commonObjections"`
	FitScore         float64      `json:"fitScore"`
}

// ICPSegment describes one target buyer segment.
type ICPSegment struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Channels      []string `json:"channels"`
	EstimatedSize string   `json:"estimatedSize"`
}

// ICPRisk is a named risk with a rating from the fixed vocabulary.
type ICPRisk struct {
	Risk   string `json:"risk"`
	Rating string `json:"rating"`
}

// OfferViability is the validated record for the offer section.
type OfferViability struct {
	OfferStrength OfferStrength `json:"offerStrength"`
	RedFlags      []string      `json:"redFlags"`
	FormFriction  string        `json:"formFriction"`
	Economics     UnitEconomics `json:"economics"`
	FinalVerdict  FinalVerdict  `json:"finalVerdict"`
	// OverallScore is recomputed by the validator as the mean of the
	// OfferStrength subscores, rounded to one decimal. Model-supplied
	// values are ignored.
	OverallScore float64 `json:"overallScore"`
}

// OfferStrength scores four offer dimensions on a 1-10 scale.
type OfferStrength struct {
	Clarity         float64 `json:"clarity"`
	Differentiation float64 `json:"differentiation"`
	ValueAlignment  float64 `json:"valueAlignment"`
	Urgency         float64 `json:"urgency"`
}

// UnitEconomics carries CPL/CAC/LTV estimates as free-text figures.
type UnitEconomics struct {
	EstimatedCPL string `json:"estimatedCpl"`
	EstimatedCAC string `json:"estimatedCac"`
	EstimatedLTV string `json:"estimatedLtv"`
	Notes        string `json:"notes"`
}

// FinalVerdict is the offer section's bottom line.
type FinalVerdict struct {
	Recommendation string  `json:"recommendation"`
	Confidence     float64 `json:"confidence"`
	Rationale      string  `json:"rationale"`
}

// Synthesis is the validated record for the cross-section synthesis.
type Synthesis struct {
	ExecutiveSummary     string   `json:"executiveSummary"`
	PositioningStatement string   `json:"positioningStatement"`
	KeyInsights          []string `json:"keyInsights"`
	StrategicPriorities  []string `json:"strategicPriorities"`
	Risks                []string `json:"risks"`
	NextSteps            []string `json:"nextSteps"`
}

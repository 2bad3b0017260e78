// Package model defines the typed records produced by the blueprint
// research pipeline.
package model

import "time"

// SchemaVersion identifies the blueprint output shape. Bump when a section
// record gains or loses fields.
const SchemaVersion = "2.0"

// Citation is a source reference attached by the research model. Citations
// are passed through verbatim; the pipeline never fabricates them.
type Citation struct {
	URL     string `json:"url"`
	Title   string `json:"title,omitempty"`
	Date    string `json:"date,omitempty"`
	Snippet string `json:"snippet,omitempty"`
}

// Section bundles a validated section record with its provenance.
type Section[T any] struct {
	Data      T          `json:"data"`
	Citations []Citation `json:"citations"`
	Model     string     `json:"model"`
	Cost      float64    `json:"cost"`
}

// Blueprint is the complete strategic blueprint. Nil sections were not
// reached before a failure or cancellation.
type Blueprint struct {
	Market     *Section[MarketOverview]     `json:"market,omitempty"`
	ICP        *Section[ICPValidation]      `json:"icp,omitempty"`
	Offer      *Section[OfferViability]     `json:"offer,omitempty"`
	Competitor *Section[CompetitorAnalysis] `json:"competitor,omitempty"`
	Synthesis  *Section[Synthesis]          `json:"synthesis,omitempty"`
	Metadata   BlueprintMetadata            `json:"metadata"`
}

// BlueprintMetadata describes a completed (or partial) generation run.
type BlueprintMetadata struct {
	GeneratedAt        time.Time             `json:"generatedAt"`
	SchemaVersion      string                `json:"schemaVersion"`
	ProcessingMS       int64                 `json:"processingMs"`
	TotalCost          float64               `json:"totalCost"`
	ModelsUsed         []string              `json:"modelsUsed"`
	CitationsBySection map[string][]Citation `json:"citationsBySection"`
}

// SectionKey identifies a pipeline section.
type SectionKey string

// Section keys in pipeline order.
const (
	SectionMarket     SectionKey = "market"
	SectionICP        SectionKey = "icp"
	SectionOffer      SectionKey = "offer"
	SectionCompetitor SectionKey = "competitor"
	SectionSynthesis  SectionKey = "synthesis"
)

// SectionLabel returns the human-readable label for a section key.
func SectionLabel(key SectionKey) string {
	switch key {
	case SectionMarket:
		return "Market Overview"
	case SectionICP:
		return "ICP Validation"
	case SectionOffer:
		return "Offer Viability"
	case SectionCompetitor:
		return "Competitor Intelligence"
	case SectionSynthesis:
		return "Cross-Section Synthesis"
	default:
		return string(key)
	}
}

// ProgressEvent is emitted by the orchestrator at each section boundary.
type ProgressEvent struct {
	Section SectionKey `json:"section"`
	Label   string     `json:"label"`
	Percent int        `json:"percent"`
	Err     error      `json:"-"`
}

// GenerationResult is the orchestrator's sole output shape. On failure,
// Blueprint holds whatever sections completed before the failing one.
type GenerationResult struct {
	Success       bool       `json:"success"`
	Blueprint     *Blueprint `json:"blueprint,omitempty"`
	Error         string     `json:"error,omitempty"`
	FailedSection SectionKey `json:"failedSection,omitempty"`
}

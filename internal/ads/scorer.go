// Package ads scores fetched ad creatives for relevance to a competitor and
// merges the survivors, with derived messaging themes and pricing mentions,
// into the competitor snapshot.
package ads

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/blueprint-cli/internal/cost"
	"github.com/sells-group/blueprint-cli/internal/jsonx"
	"github.com/sells-group/blueprint-cli/internal/model"
	"github.com/sells-group/blueprint-cli/pkg/anthropic"
)

// Scorer assigns each creative a 0-100 relevance score against the named
// competitor and reports the USD cost of the call. Index positions in the
// result line up with the input.
type Scorer interface {
	Score(ctx context.Context, competitor, domain string, creatives []model.EnrichedAdCreative) ([]model.RelevanceAssessment, float64, error)
}

const scorerSystemPrompt = `You assess whether fetched ads actually belong to a named company. Ad
library search matches on keywords and often returns ads from unrelated or
subsidiary brands.

For each ad, score 0-100 how confident you are that the ad was run by the
named company (100 = certainly this company, 0 = certainly a different
advertiser). Judge by advertiser name, landing domain, and ad copy.

Output ONLY a JSON object:
{"scores": [{"index": number, "score": number, "rationale": string}]}`

// ClaudeScorer batches all of a competitor's creatives into one message and
// parses the per-index assessments back out.
type ClaudeScorer struct {
	client anthropic.Client
	model  string
	calc   *cost.Calculator
}

// NewClaudeScorer creates a relevance scorer backed by the given model. A
// nil calculator reports zero cost.
func NewClaudeScorer(client anthropic.Client, modelID string, calc *cost.Calculator) *ClaudeScorer {
	return &ClaudeScorer{client: client, model: modelID, calc: calc}
}

func (s *ClaudeScorer) Score(ctx context.Context, competitor, domain string, creatives []model.EnrichedAdCreative) ([]model.RelevanceAssessment, float64, error) {
	if len(creatives) == 0 {
		return nil, 0, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Company: %s", competitor)
	if domain != "" {
		fmt.Fprintf(&b, " (website: %s)", domain)
	}
	b.WriteString("\n\nAds:\n")
	for i, ad := range creatives {
		fmt.Fprintf(&b, "[%d] advertiser=%q platform=%q", i, ad.Advertiser, ad.Platform)
		if ad.LandingURL != "" {
			fmt.Fprintf(&b, " landing=%q", ad.LandingURL)
		}
		fmt.Fprintf(&b, "\n    headline: %s\n    body: %s\n", ad.Headline, truncate(ad.Body, 300))
	}

	resp, err := s.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     s.model,
		MaxTokens: 2048,
		System:    scorerSystemPrompt,
		Messages:  []anthropic.Message{{Role: "user", Content: b.String()}},
	})
	if err != nil {
		return nil, 0, eris.Wrap(err, "ads: score creatives")
	}
	spent := s.callCost(resp)

	obj, err := jsonx.ExtractMap(resp.Text())
	if err != nil {
		return nil, spent, eris.Wrap(err, "ads: parse score response")
	}

	out := make([]model.RelevanceAssessment, len(creatives))
	for i := range out {
		out[i] = model.RelevanceAssessment{Score: 0, Rationale: "not scored"}
	}
	entries, _ := obj["scores"].([]any)
	for _, e := range entries {
		entry, ok := e.(map[string]any)
		if !ok {
			continue
		}
		idx, ok := entry["index"].(float64)
		if !ok || int(idx) < 0 || int(idx) >= len(creatives) {
			continue
		}
		score, _ := entry["score"].(float64)
		rationale, _ := entry["rationale"].(string)
		out[int(idx)] = model.RelevanceAssessment{Score: clampScore(int(score)), Rationale: rationale}
	}
	return out, spent, nil
}

func (s *ClaudeScorer) callCost(resp *anthropic.MessageResponse) float64 {
	if s.calc == nil {
		return 0
	}
	modelID := resp.Model
	if modelID == "" {
		modelID = s.model
	}
	return s.calc.Claude(modelID, int(resp.Usage.InputTokens), int(resp.Usage.OutputTokens))
}

// heuristicScores is the fallback when no model scorer is available or the
// scoring call failed: name and domain matching only.
func heuristicScores(competitor, domain string, creatives []model.EnrichedAdCreative) []model.RelevanceAssessment {
	compNorm := normalizeName(competitor)
	domainRoot := rootDomain(domain)

	out := make([]model.RelevanceAssessment, len(creatives))
	for i, ad := range creatives {
		advNorm := normalizeName(ad.Advertiser)
		switch {
		case advNorm != "" && advNorm == compNorm:
			out[i] = model.RelevanceAssessment{Score: 90, Rationale: "advertiser name matches"}
		case advNorm != "" && (strings.Contains(advNorm, compNorm) || strings.Contains(compNorm, advNorm)):
			out[i] = model.RelevanceAssessment{Score: 70, Rationale: "advertiser name partially matches"}
		case domainRoot != "" && strings.Contains(strings.ToLower(ad.LandingURL), domainRoot):
			out[i] = model.RelevanceAssessment{Score: 75, Rationale: "landing URL matches competitor domain"}
		default:
			out[i] = model.RelevanceAssessment{Score: 20, Rationale: "no advertiser or domain match"}
		}
	}
	return out
}

func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, suffix := range []string{" inc", " inc.", " llc", " ltd", " co", " co.", " corp", " corp."} {
		s = strings.TrimSuffix(s, suffix)
	}
	return strings.TrimSpace(s)
}

// rootDomain extracts "example" from "https://www.example.com/x".
func rootDomain(website string) string {
	s := strings.ToLower(website)
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimPrefix(s, "www.")
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.Index(s, "."); i > 0 {
		s = s[:i]
	}
	return s
}

func clampScore(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

// truncate cuts at a rune boundary so prompt text stays valid UTF-8.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

func logDroppedAd(competitor string, ad model.EnrichedAdCreative, score int) {
	zap.L().Debug("dropping low-relevance ad",
		zap.String("competitor", competitor),
		zap.String("advertiser", ad.Advertiser),
		zap.String("platform", ad.Platform),
		zap.Int("score", score),
	)
}

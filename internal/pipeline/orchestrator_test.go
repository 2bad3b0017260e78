package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/blueprint-cli/internal/config"
	"github.com/sells-group/blueprint-cli/internal/model"
	"github.com/sells-group/blueprint-cli/internal/research"
)

const (
	marketJSON     = `{"categorySnapshot":{"category":"CRM"},"marketMaturity":"mature"}`
	icpJSON        = `{"validationStatus":"validated","fitScore":8}`
	offerJSON      = `{"offerStrength":{"clarity":8,"differentiation":6,"valueAlignment":7,"urgency":4}}`
	competitorJSON = `{"competitors":[{"name":"Acme","website":"https://acme.com"}],"creativeLibrary":[],"summary":"one rival"}`
	synthesisJSON  = `{"executiveSummary":"Go upmarket."}`
)

// scripted answers each section by sniffing its system prompt, and can be
// told to fail a given section.
type scripted struct {
	failOn string
	calls  int
	seen   []string
}

func (s *scripted) Research(_ context.Context, req research.Request) (*research.Response, error) {
	s.calls++

	var key, text string
	switch {
	case strings.Contains(req.System, "market research analyst"):
		key, text = "market", marketJSON
	case strings.Contains(req.System, "go-to-market analyst"):
		key, text = "icp", icpJSON
	case strings.Contains(req.System, "offer strategist"):
		key, text = "offer", offerJSON
	case strings.Contains(req.System, "competitive intelligence"):
		key, text = "competitor", competitorJSON
	default:
		key, text = "synthesis", synthesisJSON
	}
	s.seen = append(s.seen, key)

	if s.failOn == key {
		return nil, eris.New("research call failed")
	}
	return &research.Response{
		Text:      text,
		Citations: []model.Citation{{URL: "https://example.com/" + key}},
		Model:     "sonar-pro",
		Cost:      0.005,
	}, nil
}

func testCfg() config.ResearchConfig {
	return config.ResearchConfig{
		SectionTimeoutSecs:    60,
		CompetitorTimeoutSecs: 120,
		MaxContextChars:       8000,
	}
}

func TestGenerateCompleteRun(t *testing.T) {
	caller := &scripted{}
	var events []model.ProgressEvent
	o := New(caller, nil, testCfg(), func(ev model.ProgressEvent) { events = append(events, ev) })

	res := o.Generate(context.Background(), "B2B CRM for dental practices")

	require.True(t, res.Success)
	require.NotNil(t, res.Blueprint)
	assert.Equal(t, []string{"market", "icp", "offer", "competitor", "synthesis"}, caller.seen)

	bp := res.Blueprint
	require.NotNil(t, bp.Market)
	require.NotNil(t, bp.ICP)
	require.NotNil(t, bp.Offer)
	require.NotNil(t, bp.Competitor)
	require.NotNil(t, bp.Synthesis)

	assert.Equal(t, model.SchemaVersion, bp.Metadata.SchemaVersion)
	assert.InDelta(t, 0.025, bp.Metadata.TotalCost, 1e-9)
	assert.Equal(t, []string{"sonar-pro"}, bp.Metadata.ModelsUsed)
	assert.Len(t, bp.Metadata.CitationsBySection, 5)
	assert.Contains(t, bp.Metadata.CitationsBySection, "market")

	require.Len(t, events, 5)
	assert.Equal(t, model.SectionMarket, events[0].Section)
	assert.Equal(t, 20, events[0].Percent)
	assert.Equal(t, 100, events[4].Percent)
	for _, ev := range events {
		assert.NoError(t, ev.Err)
	}
}

func TestGeneratePartialFailure(t *testing.T) {
	caller := &scripted{failOn: "offer"}
	var events []model.ProgressEvent
	o := New(caller, nil, testCfg(), func(ev model.ProgressEvent) { events = append(events, ev) })

	res := o.Generate(context.Background(), "ctx")

	require.False(t, res.Success)
	assert.Equal(t, model.SectionOffer, res.FailedSection)
	assert.Contains(t, res.Error, "research call failed")

	// Completed sections survive; the failing one and everything after it
	// are absent.
	bp := res.Blueprint
	require.NotNil(t, bp)
	assert.NotNil(t, bp.Market)
	assert.NotNil(t, bp.ICP)
	assert.Nil(t, bp.Offer)
	assert.Nil(t, bp.Competitor)
	assert.Nil(t, bp.Synthesis)

	// No section after the failure was attempted.
	assert.Equal(t, []string{"market", "icp", "offer"}, caller.seen)

	require.Len(t, events, 3)
	last := events[len(events)-1]
	assert.Equal(t, model.SectionOffer, last.Section)
	assert.Error(t, last.Err)
}

func TestGenerateCancellationAtBoundary(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	caller := &scripted{}
	var events []model.ProgressEvent
	o := New(caller, nil, testCfg(), func(ev model.ProgressEvent) { events = append(events, ev) })

	res := o.Generate(ctx, "ctx")

	require.False(t, res.Success)
	assert.Equal(t, "generation canceled", res.Error)
	assert.Equal(t, model.SectionMarket, res.FailedSection)
	assert.Zero(t, caller.calls)
	require.NotNil(t, res.Blueprint)
	assert.Nil(t, res.Blueprint.Market)

	// The terminal boundary is still announced to progress listeners.
	require.Len(t, events, 1)
	assert.Equal(t, model.SectionMarket, events[0].Section)
	assert.ErrorIs(t, events[0].Err, context.Canceled)
}

func TestGenerateAggregatesCitations(t *testing.T) {
	caller := &scripted{}
	o := New(caller, nil, testCfg(), nil)

	res := o.Generate(context.Background(), "ctx")
	require.True(t, res.Success)

	cites := res.Blueprint.Metadata.CitationsBySection["icp"]
	require.Len(t, cites, 1)
	assert.Equal(t, "https://example.com/icp", cites[0].URL)
}

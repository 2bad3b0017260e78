package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/blueprint-cli/internal/model"
)

func TestDedupeTiers(t *testing.T) {
	t.Run("keeps the more complete variant", func(t *testing.T) {
		tiers := []model.PricingTier{
			{Tier: "Pro", Price: "$99/mo"},
			{Tier: "  pro ", Price: "$99/MO", Description: "for teams", Features: []string{"sso"}},
			{Tier: "Starter", Price: "$19/mo"},
		}

		got := DedupeTiers(tiers)

		require.Len(t, got, 2)
		assert.Equal(t, "for teams", got[0].Description)
		assert.Equal(t, "Starter", got[1].Tier)
	})

	t.Run("first wins on equal completeness", func(t *testing.T) {
		tiers := []model.PricingTier{
			{Tier: "Pro", Price: "$99", Description: "first"},
			{Tier: "Pro", Price: "$99", Description: "second"},
		}

		got := DedupeTiers(tiers)

		require.Len(t, got, 1)
		assert.Equal(t, "first", got[0].Description)
	})

	t.Run("distinct prices are distinct tiers", func(t *testing.T) {
		tiers := []model.PricingTier{
			{Tier: "Pro", Price: "$99/mo"},
			{Tier: "Pro", Price: "$990/yr"},
		}
		assert.Len(t, DedupeTiers(tiers), 2)
	})
}

func TestTierRelevance(t *testing.T) {
	tests := []struct {
		name string
		tier model.PricingTier
		pass bool
	}{
		{"generic SaaS name", model.PricingTier{Tier: "Enterprise", Price: "Custom"}, true},
		{"company name in description", model.PricingTier{Tier: "Acme Cloud", Price: "$50", Description: "full Acme platform"}, true},
		{"add-on line item", model.PricingTier{Tier: "Extra Seat Add-On", Price: "$5"}, false},
		{"overage item", model.PricingTier{Tier: "Pro", Price: "$0.10", Description: "overage per event"}, false},
		{"unrelated oddity", model.PricingTier{Tier: "Gift Card", Price: "$25"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tierRelevance("Acme", tt.tier)
			if tt.pass {
				assert.GreaterOrEqual(t, got, model.MinAdRelevanceScore)
			} else {
				assert.Less(t, got, model.MinAdRelevanceScore)
			}
		})
	}
}

func TestScoreConfidence(t *testing.T) {
	t.Run("no tiers scores zero", func(t *testing.T) {
		assert.Equal(t, 0, scoreConfidence(nil, "whatever").Total())
	})

	t.Run("well-grounded tiers clear the threshold", func(t *testing.T) {
		page := "Starter is $19 per month. Pro is $99 per month."
		tiers := []model.PricingTier{
			{Tier: "Starter", Price: "$19/mo", Description: "solo", Audience: "individuals", Features: []string{"f"}},
			{Tier: "Pro", Price: "$99/mo", Description: "teams", Audience: "teams", Features: []string{"f"}},
		}

		b := scoreConfidence(tiers, page)

		assert.Equal(t, 20, b.SourceOverlap)
		assert.Equal(t, 20, b.FieldPlausibility)
		assert.Equal(t, 20, b.TierCount)
		assert.Equal(t, 20, b.PriceFormat)
		assert.GreaterOrEqual(t, b.Total(), model.MinPricingConfidence)
	})

	t.Run("prices absent from the page kill source overlap", func(t *testing.T) {
		tiers := []model.PricingTier{{Tier: "Pro", Price: "$123.45"}}

		b := scoreConfidence(tiers, "no numbers here at all")

		assert.Equal(t, 0, b.SourceOverlap)
	})

	t.Run("free tier overlaps by word", func(t *testing.T) {
		tiers := []model.PricingTier{{Tier: "Free", Price: "Free"}}

		b := scoreConfidence(tiers, "Start on our Free plan today.")

		assert.Equal(t, 20, b.SourceOverlap)
	})

	t.Run("implausible tier count is penalized", func(t *testing.T) {
		assert.Equal(t, 20, tierCountScore(3))
		assert.Equal(t, 10, tierCountScore(7))
		assert.Equal(t, 5, tierCountScore(12))
		assert.Equal(t, 0, tierCountScore(0))
	})
}

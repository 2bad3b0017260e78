package pricing

import "github.com/sells-group/blueprint-cli/internal/model"

// DedupeTiers collapses tiers sharing a normalized (tier, price) key,
// keeping the variant with more populated optional fields. First-seen order
// is preserved.
func DedupeTiers(tiers []model.PricingTier) []model.PricingTier {
	if len(tiers) <= 1 {
		return tiers
	}

	index := make(map[string]int, len(tiers))
	out := make([]model.PricingTier, 0, len(tiers))
	for _, t := range tiers {
		key := t.DedupeKey()
		if i, seen := index[key]; seen {
			if t.Completeness() > out[i].Completeness() {
				out[i] = t
			}
			continue
		}
		index[key] = len(out)
		out = append(out, t)
	}
	return out
}

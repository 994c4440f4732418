package valuation

import (
	"sort"

	"cepradar/server/internal/models"
)

// Confidence tiers over the engine's 0-100 score.
const (
	TierHigh   = "high"   // score >= 70
	TierMedium = "medium" // 40 <= score < 70
	TierLow    = "low"    // score < 40
)

// TierForScore maps a confidence score to its tier. A nil score has no tier
// and is excluded from every tier filter.
func TierForScore(score *float64) string {
	if score == nil {
		return ""
	}
	switch {
	case *score >= 70:
		return TierHigh
	case *score >= 40:
		return TierMedium
	default:
		return TierLow
	}
}

// ValidTier reports whether tier is empty or one of the known tiers.
func ValidTier(tier string) bool {
	switch tier {
	case "", TierHigh, TierMedium, TierLow:
		return true
	}
	return false
}

// Filter selects valuation records. Zero-valued fields are inactive; active
// fields are combined with logical AND, so the zero Filter matches everything.
type Filter struct {
	Cep      string
	Tier     string
	PriceMin *float64
	PriceMax *float64
}

// Apply returns the records matching every active criterion, preserving
// input order. The price range applies to the suggested price.
func (f Filter) Apply(items []models.Valuation) []models.Valuation {
	out := make([]models.Valuation, 0, len(items))
	for _, v := range items {
		if f.matches(v) {
			out = append(out, v)
		}
	}
	return out
}

func (f Filter) matches(v models.Valuation) bool {
	if f.Cep != "" && v.Cep != f.Cep {
		return false
	}
	if f.Tier != "" && TierForScore(v.Confidence) != f.Tier {
		return false
	}
	if f.PriceMin != nil && v.PriceSuggested < *f.PriceMin {
		return false
	}
	if f.PriceMax != nil && v.PriceSuggested > *f.PriceMax {
		return false
	}
	return true
}

// DistinctCEPs returns the sorted set of CEPs present in items.
func DistinctCEPs(items []models.Valuation) []string {
	seen := make(map[string]struct{}, len(items))
	ceps := make([]string, 0, len(items))
	for _, v := range items {
		if _, ok := seen[v.Cep]; ok {
			continue
		}
		seen[v.Cep] = struct{}{}
		ceps = append(ceps, v.Cep)
	}
	sort.Strings(ceps)
	return ceps
}

package valuation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cepradar/server/internal/models"
)

func score(v float64) *float64 { return &v }

func sampleValuations() []models.Valuation {
	return []models.Valuation{
		{ID: 1, Cep: "88015200", PriceSuggested: 450000, Confidence: score(85)},
		{ID: 2, Cep: "88015200", PriceSuggested: 320000, Confidence: score(55)},
		{ID: 3, Cep: "01310100", PriceSuggested: 900000, Confidence: score(30)},
		{ID: 4, Cep: "01310100", PriceSuggested: 700000, Confidence: nil},
		{ID: 5, Cep: "30130010", PriceSuggested: 250000, Confidence: score(70)},
	}
}

func TestTierForScoreBoundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0, TierLow},
		{39.9, TierLow},
		{40, TierMedium},
		{69.9, TierMedium},
		{70, TierHigh},
		{100, TierHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TierForScore(&tt.score), "score %v", tt.score)
	}
}

// Every score in [0,100] lands in exactly one tier.
func TestTiersExhaustiveAndExclusive(t *testing.T) {
	for s := 0.0; s <= 100.0; s += 0.5 {
		tier := TierForScore(&s)
		require.Contains(t, []string{TierLow, TierMedium, TierHigh}, tier)
	}
}

func TestTierForScoreNil(t *testing.T) {
	assert.Equal(t, "", TierForScore(nil))
}

func TestNilScoreExcludedFromEveryTier(t *testing.T) {
	items := sampleValuations()
	for _, tier := range []string{TierLow, TierMedium, TierHigh} {
		filtered := Filter{Tier: tier}.Apply(items)
		for _, v := range filtered {
			assert.NotNil(t, v.Confidence, "tier %s must not include unscored valuations", tier)
		}
	}
}

func TestFilterByCEP(t *testing.T) {
	filtered := Filter{Cep: "88015200"}.Apply(sampleValuations())
	require.Len(t, filtered, 2)
	assert.Equal(t, int64(1), filtered[0].ID)
	assert.Equal(t, int64(2), filtered[1].ID)
}

func TestFilterConjunction(t *testing.T) {
	min := 300000.0
	max := 500000.0
	filtered := Filter{
		Cep:      "88015200",
		Tier:     TierHigh,
		PriceMin: &min,
		PriceMax: &max,
	}.Apply(sampleValuations())

	require.Len(t, filtered, 1)
	assert.Equal(t, int64(1), filtered[0].ID)
}

func TestFilterPriceRange(t *testing.T) {
	min := 300000.0
	filtered := Filter{PriceMin: &min}.Apply(sampleValuations())
	require.Len(t, filtered, 4)

	max := 300000.0
	filtered = Filter{PriceMax: &max}.Apply(sampleValuations())
	require.Len(t, filtered, 1)
	assert.Equal(t, int64(5), filtered[0].ID)
}

func TestEmptyFilterReturnsEverything(t *testing.T) {
	items := sampleValuations()
	filtered := Filter{}.Apply(items)
	assert.Equal(t, items, filtered)
}

func TestDistinctCEPs(t *testing.T) {
	ceps := DistinctCEPs(sampleValuations())
	assert.Equal(t, []string{"01310100", "30130010", "88015200"}, ceps)
}

func TestDistinctCEPsEmpty(t *testing.T) {
	assert.Empty(t, DistinctCEPs(nil))
}

func TestValidTier(t *testing.T) {
	assert.True(t, ValidTier(""))
	assert.True(t, ValidTier(TierHigh))
	assert.True(t, ValidTier(TierMedium))
	assert.True(t, ValidTier(TierLow))
	assert.False(t, ValidTier("extreme"))
}

package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cepradar/server/internal/models"
)

func TestWriteComparablesHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteComparables(&buf, "88015200", nil))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 1)
	assert.Equal(t,
		"cep,endereco,bairro,preco,area_interna_m2,area_externa_m2,quartos,banheiros,idade_anos,distancia_m,preco_m2,fonte",
		lines[0])
}

func TestWriteComparablesQuoting(t *testing.T) {
	age := 15
	dist := 123.6
	items := []models.Comparable{
		{
			Price:        450000,
			InteriorArea: 80,
			ExteriorArea: 12,
			Bedrooms:     2,
			Bathrooms:    1,
			AgeYears:     &age,
			Address:      `Rua "A"`,
			Neighborhood: "Centro",
			SourceURL:    "https://example.com/anuncio/1",
			DistanceM:    &dist,
			PricePerM2:   5625,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteComparables(&buf, "88015200", items))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t,
		`88015200,"Rua ""A""",Centro,450000.00,80,12,2,1,15,124,5625.00,https://example.com/anuncio/1`,
		lines[1])
}

func TestWriteComparablesMissingOptionals(t *testing.T) {
	items := []models.Comparable{
		{Price: 300000, Address: "Av. Beira-Mar 100", Neighborhood: "Agronômica"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteComparables(&buf, "88015200", items))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	// nil age and distance render as empty fields, not zeros
	assert.Equal(t, "88015200,Av. Beira-Mar 100,Agronômica,300000.00,0,0,0,0,,,0.00,", lines[1])
}

func TestWriteComparablesDistanceRounding(t *testing.T) {
	tests := []struct {
		distance float64
		want     string
	}{
		{499.4, "499"},
		{499.5, "500"},
		{0.2, "0"},
	}

	for _, tt := range tests {
		d := tt.distance
		var buf bytes.Buffer
		require.NoError(t, WriteComparables(&buf, "88015200", []models.Comparable{{DistanceM: &d}}))
		lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
		fields := strings.Split(lines[1], ",")
		assert.Equal(t, tt.want, fields[9], "distance %v", tt.distance)
	}
}

func TestWriteValuations(t *testing.T) {
	confidence := 85.0
	items := []models.Valuation{
		{
			Cep:             "88015200",
			Address:         `Rua "A", 42`,
			AreaM2:          75,
			PriceMin:        400000,
			PriceAvg:        450000,
			PriceMax:        500000,
			PriceSuggested:  455000,
			PricePerM2:      6066.67,
			Confidence:      &confidence,
			ComparablesUsed: 12,
			CreatedAt:       time.Date(2026, 8, 30, 14, 0, 0, 0, time.UTC),
		},
		{
			Cep:            "01310100",
			Address:        "Av. Paulista 1000",
			PriceSuggested: 900000,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteValuations(&buf, items))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t,
		"cep,endereco,area_m2,preco_min,preco_medio,preco_max,preco_sugerido,preco_m2,confianca,comparaveis_usados,data",
		lines[0])
	assert.Equal(t,
		`88015200,"Rua ""A"", 42",75,400000.00,450000.00,500000.00,455000.00,6066.67,85,12,2026-08-30T14:00:00Z`,
		lines[1])
	// missing confidence stays empty
	fields := strings.Split(lines[2], ",")
	assert.Equal(t, "", fields[8])
}

package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"cepradar/server/internal/models"
)

// Column orders are part of the download contract with the dashboard and
// must not be reordered.
var (
	comparableHeader = []string{
		"cep", "endereco", "bairro", "preco", "area_interna_m2",
		"area_externa_m2", "quartos", "banheiros", "idade_anos",
		"distancia_m", "preco_m2", "fonte",
	}
	valuationHeader = []string{
		"cep", "endereco", "area_m2", "preco_min", "preco_medio",
		"preco_max", "preco_sugerido", "preco_m2", "confianca",
		"comparaveis_usados", "data",
	}
)

// WriteComparables serializes listings for the given CEP to w. Quoting and
// quote doubling follow RFC 4180; distances are rounded to whole meters.
func WriteComparables(w io.Writer, cep string, items []models.Comparable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(comparableHeader); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}

	for _, c := range items {
		row := []string{
			cep,
			c.Address,
			c.Neighborhood,
			money(c.Price),
			area(c.InteriorArea),
			area(c.ExteriorArea),
			strconv.Itoa(c.Bedrooms),
			strconv.Itoa(c.Bathrooms),
			optInt(c.AgeYears),
			distance(c.DistanceM),
			money(c.PricePerM2),
			c.SourceURL,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteValuations serializes valuation records to w, using the same CSV
// conventions as WriteComparables.
func WriteValuations(w io.Writer, items []models.Valuation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(valuationHeader); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}

	for _, v := range items {
		row := []string{
			v.Cep,
			v.Address,
			area(v.AreaM2),
			money(v.PriceMin),
			money(v.PriceAvg),
			money(v.PriceMax),
			money(v.PriceSuggested),
			money(v.PricePerM2),
			optFloat(v.Confidence),
			strconv.Itoa(v.ComparablesUsed),
			v.CreatedAt.Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func area(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func optInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func optFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func distance(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(int(math.Round(*v)))
}

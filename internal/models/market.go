package models

import "time"

// AddressSuggestion is an ephemeral autocomplete hit. Selecting one in the
// dashboard submits its CEP for monitoring; nothing is persisted.
type AddressSuggestion struct {
	Label     string  `json:"label"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	City      string  `json:"city,omitempty"`
	State     string  `json:"state,omitempty"`
	Cep       string  `json:"cep,omitempty"`
}

// RegionData summarizes the market around a CEP's coordinates.
type RegionData struct {
	Cep        string  `json:"cep"`
	Latitude   float64 `json:"lat"`
	Longitude  float64 `json:"lon"`
	PriceMin   float64 `json:"price_min"`
	PriceMax   float64 `json:"price_max"`
	PriceMean  float64 `json:"price_mean"`
	PricePerM2 float64 `json:"price_per_m2"`
}

// Comparable is a scraped listing near a monitored CEP. DistanceM and the
// coordinates may be absent when the engine could not geocode the listing;
// PricePerM2 is derived locally from price and interior area.
type Comparable struct {
	Price        float64  `json:"price"`
	InteriorArea float64  `json:"interior_area"`
	ExteriorArea float64  `json:"exterior_area"`
	Bedrooms     int      `json:"bedrooms"`
	Bathrooms    int      `json:"bathrooms"`
	AgeYears     *int     `json:"age_years"`
	Address      string   `json:"address"`
	Neighborhood string   `json:"neighborhood"`
	SourceURL    string   `json:"source_url"`
	Latitude     *float64 `json:"lat,omitempty"`
	Longitude    *float64 `json:"lon,omitempty"`
	DistanceM    *float64 `json:"distance_m,omitempty"`
	PricePerM2   float64  `json:"price_per_m2,omitempty"`
}

// Valuation is one historical output of the engine's pricing pipeline.
// Confidence is nil when the engine could not score the estimate.
type Valuation struct {
	ID              int64     `json:"id" gorm:"primaryKey"`
	Cep             string    `json:"cep" gorm:"size:8;index"`
	Address         string    `json:"address"`
	AreaM2          float64   `json:"area_m2"`
	PriceMin        float64   `json:"price_min"`
	PriceAvg        float64   `json:"price_avg"`
	PriceMax        float64   `json:"price_max"`
	PriceSuggested  float64   `json:"price_suggested"`
	PricePerM2      float64   `json:"price_per_m2"`
	Confidence      *float64  `json:"confidence"`
	ComparablesUsed int       `json:"comparables_used"`
	CreatedAt       time.Time `json:"created_at"`
}

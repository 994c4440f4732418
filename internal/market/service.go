package market

import (
	"context"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/sirupsen/logrus"

	"cepradar/server/internal/models"
)

// Engine is the slice of the upstream client the properties view needs.
type Engine interface {
	GetRegionData(ctx context.Context, cep string) (*models.RegionData, error)
	ListComparables(ctx context.Context, lat, lon, radius float64) ([]models.Comparable, error)
}

// View is everything the properties screen shows for one CEP.
type View struct {
	Region      *models.RegionData  `json:"regiao"`
	Comparables []models.Comparable `json:"comparaveis"`
}

// Service assembles the properties view: region summary first, then the
// comparable listings around the region's coordinates.
type Service struct {
	engine  Engine
	logger  *logrus.Logger
	radiusM float64
}

func NewService(engine Engine, logger *logrus.Logger, radiusM float64) *Service {
	return &Service{
		engine:  engine,
		logger:  logger,
		radiusM: radiusM,
	}
}

// Load fetches region data for the CEP and then the comparables within the
// configured radius of its coordinates. When the region fetch fails the
// comparables fetch is not attempted.
func (s *Service) Load(ctx context.Context, cep string) (*View, error) {
	region, err := s.engine.GetRegionData(ctx, cep)
	if err != nil {
		return nil, fmt.Errorf("region data for %s: %w", cep, err)
	}

	comparables, err := s.engine.ListComparables(ctx, region.Latitude, region.Longitude, s.radiusM)
	if err != nil {
		return nil, fmt.Errorf("comparables for %s: %w", cep, err)
	}

	center := orb.Point{region.Longitude, region.Latitude}
	for i := range comparables {
		enrich(&comparables[i], center)
	}

	s.logger.WithFields(logrus.Fields{
		"cep":         cep,
		"comparables": len(comparables),
		"radius_m":    s.radiusM,
	}).Info("Loaded market view")

	return &View{Region: region, Comparables: comparables}, nil
}

// enrich fills the fields derived locally: haversine distance from the
// region center when the engine omitted it, and price per m² of interior
// area when that area is positive.
func enrich(c *models.Comparable, center orb.Point) {
	if c.DistanceM == nil && c.Latitude != nil && c.Longitude != nil {
		d := geo.Distance(center, orb.Point{*c.Longitude, *c.Latitude})
		c.DistanceM = &d
	}
	if c.InteriorArea > 0 {
		c.PricePerM2 = c.Price / c.InteriorArea
	}
}

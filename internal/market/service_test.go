package market

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cepradar/server/internal/models"
)

type fakeEngine struct {
	region     *models.RegionData
	regionErr  error
	listings   []models.Comparable
	listErr    error
	listCalled bool
	gotLat     float64
	gotLon     float64
	gotRadius  float64
}

func (f *fakeEngine) GetRegionData(ctx context.Context, cep string) (*models.RegionData, error) {
	if f.regionErr != nil {
		return nil, f.regionErr
	}
	return f.region, nil
}

func (f *fakeEngine) ListComparables(ctx context.Context, lat, lon, radius float64) ([]models.Comparable, error) {
	f.listCalled = true
	f.gotLat, f.gotLon, f.gotRadius = lat, lon, radius
	return f.listings, f.listErr
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestLoadUsesRegionCoordinatesAndRadius(t *testing.T) {
	engine := &fakeEngine{
		region: &models.RegionData{Cep: "88015200", Latitude: -27.5954, Longitude: -48.5480},
	}
	svc := NewService(engine, quietLogger(), 500)

	view, err := svc.Load(context.Background(), "88015200")
	require.NoError(t, err)
	assert.Equal(t, -27.5954, engine.gotLat)
	assert.Equal(t, -48.5480, engine.gotLon)
	assert.Equal(t, 500.0, engine.gotRadius)
	assert.NotNil(t, view.Region)
}

func TestLoadAbortsWhenRegionFails(t *testing.T) {
	engine := &fakeEngine{regionErr: errors.New("engine down")}
	svc := NewService(engine, quietLogger(), 500)

	_, err := svc.Load(context.Background(), "88015200")
	require.Error(t, err)
	assert.False(t, engine.listCalled, "comparables must not be fetched when region data fails")
}

func TestLoadSurfacesComparablesFailure(t *testing.T) {
	engine := &fakeEngine{
		region:  &models.RegionData{Latitude: -27.59, Longitude: -48.54},
		listErr: errors.New("engine down"),
	}
	svc := NewService(engine, quietLogger(), 500)

	_, err := svc.Load(context.Background(), "88015200")
	require.Error(t, err)
}

func TestLoadDerivesPricePerM2(t *testing.T) {
	engine := &fakeEngine{
		region: &models.RegionData{Latitude: -27.59, Longitude: -48.54},
		listings: []models.Comparable{
			{Price: 450000, InteriorArea: 90},
			{Price: 300000, InteriorArea: 0},
		},
	}
	svc := NewService(engine, quietLogger(), 500)

	view, err := svc.Load(context.Background(), "88015200")
	require.NoError(t, err)
	require.Len(t, view.Comparables, 2)
	assert.Equal(t, 5000.0, view.Comparables[0].PricePerM2)
	assert.Zero(t, view.Comparables[1].PricePerM2, "no price per m² without a positive interior area")
}

func TestLoadFillsMissingDistance(t *testing.T) {
	lat := -27.5954
	lon := -48.5480
	given := 120.0
	engine := &fakeEngine{
		region: &models.RegionData{Latitude: -27.5954, Longitude: -48.5480},
		listings: []models.Comparable{
			// ~111m north of the center (0.001 degree of latitude)
			{Latitude: ptr(lat + 0.001), Longitude: &lon},
			// engine-provided distance is kept as-is
			{Latitude: ptr(lat + 0.01), Longitude: &lon, DistanceM: &given},
			// no coordinates, no distance
			{},
		},
	}
	svc := NewService(engine, quietLogger(), 500)

	view, err := svc.Load(context.Background(), "88015200")
	require.NoError(t, err)

	require.NotNil(t, view.Comparables[0].DistanceM)
	assert.InDelta(t, 111, *view.Comparables[0].DistanceM, 2)

	assert.Equal(t, 120.0, *view.Comparables[1].DistanceM)
	assert.Nil(t, view.Comparables[2].DistanceM)
}

func ptr(v float64) *float64 { return &v }

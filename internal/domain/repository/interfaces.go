package repository

import (
	"context"
	"time"

	"MineWatch/internal/domain/models"
)

// MineRegistry yields mines with their location and products.
// Lookup returns models.ErrSourceUnavailable when the registry simply has no
// data for a mine; any other error is fatal for the refresh.
type MineRegistry interface {
	ListMines(ctx context.Context) ([]string, error)
	Lookup(ctx context.Context, name string) (*models.MineRecord, error)
}

// VegetationSource reduces satellite imagery over a mine and its control region.
type VegetationSource interface {
	Vegetation(ctx context.Context, loc models.Location, mineSize, controlSize float64, from, to time.Time) (*models.VegetationSeries, error)
}

// PriceSource yields raw, sparse commodity prices.
type PriceSource interface {
	Prices(ctx context.Context, c models.Commodity, from, to time.Time) ([]models.PriceObservation, error)
	Latest(ctx context.Context, c models.Commodity) (models.PriceObservation, error)
}

// MineStore persists the working mine list between runs.
type MineStore interface {
	Load(ctx context.Context) ([]models.MineRecord, error)
	Save(ctx context.Context, mines []models.MineRecord) error
}

// ResultStore persists run results.
type ResultStore interface {
	SaveReport(ctx context.Context, r *models.Report) error
}

// ReportReader serves the most recent persisted report.
type ReportReader interface {
	LatestReport(ctx context.Context) (*models.Report, error)
}

// Publisher announces run results downstream.
type Publisher interface {
	PublishForecasts(ctx context.Context, runID string, forecasts []models.Forecast) error
	Close() error
}

// Metrics records pipeline observations.
type Metrics interface {
	RecordMineProcessed(outcome string)
	RecordPoints(stats models.GrowthStats)
	RecordModel(c models.Commodity, lag int, r2 float64)
	RecordForecast(c models.Commodity, growth float64)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}

// PriceWriter stores price observations for later runs.
type PriceWriter interface {
	SavePrices(ctx context.Context, c models.Commodity, obs []models.PriceObservation) error
}

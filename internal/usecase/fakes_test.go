package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"MineWatch/internal/domain/models"
)

type fakeMetrics struct {
	mu        sync.Mutex
	mines     map[string]int
	points    models.GrowthStats
	lags      map[models.Commodity]int
	forecasts map[models.Commodity]float64
	errors    map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{
		mines:     map[string]int{},
		lags:      map[models.Commodity]int{},
		forecasts: map[models.Commodity]float64{},
		errors:    map[string]int{},
	}
}

func (m *fakeMetrics) RecordMineProcessed(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mines[outcome]++
}

func (m *fakeMetrics) RecordPoints(s models.GrowthStats) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.points.Add(s)
}

func (m *fakeMetrics) RecordModel(c models.Commodity, lag int, _ float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lags[c] = lag
}

func (m *fakeMetrics) RecordForecast(c models.Commodity, g float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forecasts[c] = g
}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func (m *fakeMetrics) RecordLatency(string, float64) {}

// fakePrices serves fixed observations per commodity.
type fakePrices struct {
	obs    map[models.Commodity][]models.PriceObservation
	latest map[models.Commodity]models.PriceObservation
	calls  int
}

func (f *fakePrices) Prices(_ context.Context, c models.Commodity, _, _ time.Time) ([]models.PriceObservation, error) {
	f.calls++
	o, ok := f.obs[c]
	if !ok {
		return nil, fmt.Errorf("%w: no dataset for %s", models.ErrSourceUnavailable, c)
	}
	return o, nil
}

func (f *fakePrices) Latest(_ context.Context, c models.Commodity) (models.PriceObservation, error) {
	if o, ok := f.latest[c]; ok {
		return o, nil
	}
	o := f.obs[c]
	if len(o) == 0 {
		return models.PriceObservation{}, fmt.Errorf("%w: no dataset for %s", models.ErrSourceUnavailable, c)
	}
	return o[len(o)-1], nil
}

type fakeRegistry struct {
	names   []string
	records map[string]*models.MineRecord
	fail    map[string]error
	listErr error
}

func (r *fakeRegistry) ListMines(context.Context) ([]string, error) {
	return r.names, r.listErr
}

func (r *fakeRegistry) Lookup(_ context.Context, name string) (*models.MineRecord, error) {
	if err := r.fail[name]; err != nil {
		return nil, err
	}
	rec, ok := r.records[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrSourceUnavailable, name)
	}
	cp := *rec
	return &cp, nil
}

type fakeVegetation struct {
	byLat map[float64]*models.VegetationSeries
	calls int
}

func (v *fakeVegetation) Vegetation(_ context.Context, loc models.Location, _, _ float64, _, _ time.Time) (*models.VegetationSeries, error) {
	v.calls++
	s, ok := v.byLat[loc.Lat]
	if !ok {
		return nil, fmt.Errorf("%w: no imagery", models.ErrSourceUnavailable)
	}
	return s, nil
}

type memMineStore struct {
	mines []models.MineRecord
	saved int
}

func (s *memMineStore) Load(context.Context) ([]models.MineRecord, error) {
	out := make([]models.MineRecord, len(s.mines))
	copy(out, s.mines)
	return out, nil
}

func (s *memMineStore) Save(_ context.Context, mines []models.MineRecord) error {
	s.saved++
	s.mines = append([]models.MineRecord(nil), mines...)
	return nil
}

type memResultStore struct{ reports []*models.Report }

func (s *memResultStore) SaveReport(_ context.Context, r *models.Report) error {
	s.reports = append(s.reports, r)
	return nil
}

type memPublisher struct {
	runID     string
	forecasts []models.Forecast
}

func (p *memPublisher) PublishForecasts(_ context.Context, runID string, f []models.Forecast) error {
	p.runID = runID
	p.forecasts = f
	return nil
}

func (p *memPublisher) Close() error { return nil }

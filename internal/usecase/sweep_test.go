package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MineWatch/internal/domain/models"
	"MineWatch/internal/services/prices"
	"MineWatch/internal/services/selection"
)

var sweepBase = time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)

func linearMine(name string, products []models.Commodity, n int) *models.MineRecord {
	m := &models.MineRecord{Name: name, Products: products}
	for d := 0; d < n; d++ {
		m.Growth = append(m.Growth, models.GrowthPoint{Growth: float64(d), Date: sweepBase.AddDate(0, 0, d)})
	}
	return m
}

func TestSweep_TieBreaksToSmallerLag(t *testing.T) {
	values := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	lookup := prices.NewBook(
		&prices.Series{Commodity: models.Gold, First: sweepBase, Values: values},
		&prices.Series{Commodity: models.Silver, First: sweepBase, Values: values},
	)
	mines := []*models.MineRecord{linearMine("a", []models.Commodity{models.Gold}, 10)}
	all := []models.Commodity{models.Gold, models.Silver}
	_, err := selection.Baseline(mines, all, 2, lookup, false)
	require.NoError(t, err)

	metrics := newFakeMetrics()
	uc := NewSweepUseCase(2, metrics, nil)
	got, err := uc.Sweep(context.Background(), mines, all, 2, lookup)
	require.NoError(t, err)
	require.Len(t, got, 2)

	gold := got[models.Gold]
	require.True(t, gold.HasModel())
	assert.Equal(t, []float64{1, 1, 1}, gold.RSquaredByLag)
	assert.Equal(t, 0, gold.BestLag)
	assert.Equal(t, []string{"a"}, gold.Mines)
	assert.Equal(t, 0, metrics.lags[models.Gold])

	silver := got[models.Silver]
	assert.False(t, silver.HasModel())
	assert.Equal(t, []float64{0, 0, 0}, silver.RSquaredByLag)
}

func TestSweep_PicksHighestLag(t *testing.T) {
	// price leads growth by three days
	values := []float64{5, 1, 4, 2, 8, 3, 7, 6, 9, 2, 5, 1}
	lookup := prices.NewBook(&prices.Series{Commodity: models.Copper, First: sweepBase, Values: values})
	m := &models.MineRecord{Name: "lagged", Products: []models.Commodity{models.Copper}}
	for d := 3; d < len(values); d++ {
		m.Growth = append(m.Growth, models.GrowthPoint{Growth: values[d-3] / 10, Date: sweepBase.AddDate(0, 0, d)})
	}
	mines := []*models.MineRecord{m}
	cs := []models.Commodity{models.Copper}
	_, err := selection.Baseline(mines, cs, 5, lookup, false)
	require.NoError(t, err)

	got, err := NewSweepUseCase(1, nil, nil).Sweep(context.Background(), mines, cs, 5, lookup)
	require.NoError(t, err)
	cm := got[models.Copper]
	assert.Equal(t, 3, cm.BestLag)
	assert.InDelta(t, 1.0, cm.Model.RSquared, 1e-9)
	for lag, r2 := range cm.RSquaredByLag {
		assert.LessOrEqual(t, r2, cm.RSquaredByLag[3]+1e-12, "lag %d", lag)
	}
}

func TestSweep_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewSweepUseCase(1, nil, nil).Sweep(ctx, nil, []models.Commodity{models.Gold}, 3, prices.NewBook())
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestForecast_RanksDescendingAndExcludes(t *testing.T) {
	byCommodity := map[models.Commodity]models.CommodityModel{
		models.Gold:   {Commodity: models.Gold, BestLag: 30, Model: &models.RegressionModel{Slope: 0.001, RSquared: 0.4}},
		models.Copper: {Commodity: models.Copper, BestLag: 7, Model: &models.RegressionModel{Slope: 1, Intercept: 0.5, RSquared: 0.2}},
		models.Silver: {Commodity: models.Silver},
		models.Lead:   {Commodity: models.Lead, Model: &models.RegressionModel{Slope: 1}},
	}
	current := map[models.Commodity]float64{models.Gold: 1800, models.Copper: 3, models.Silver: 20}

	ranking, excluded, err := Forecast(byCommodity, current, 0)
	require.NoError(t, err)
	require.Len(t, ranking, 2)
	assert.Equal(t, models.Copper, ranking[0].Commodity)
	assert.Equal(t, 1, ranking[0].Rank)
	assert.InDelta(t, 3.5, ranking[0].PredictedGrowth, 1e-12)
	assert.Equal(t, models.Gold, ranking[1].Commodity)
	assert.InDelta(t, 1.8, ranking[1].PredictedGrowth, 1e-12)
	assert.Equal(t, 30, ranking[1].BestLag)

	require.Len(t, excluded, 2)
	names := []string{excluded[0].Name, excluded[1].Name}
	assert.ElementsMatch(t, []string{"Silver", "Lead"}, names)

	top, _, err := Forecast(byCommodity, current, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, models.Copper, top[0].Commodity)
}

func TestForecast_EqualPredictionsOrderedByName(t *testing.T) {
	byCommodity := map[models.Commodity]models.CommodityModel{
		models.Uranium: {Commodity: models.Uranium, Model: &models.RegressionModel{Intercept: 0.3}},
		models.Coal:    {Commodity: models.Coal, Model: &models.RegressionModel{Intercept: 0.3}},
	}
	current := map[models.Commodity]float64{models.Uranium: 40, models.Coal: 60}
	ranking, _, err := Forecast(byCommodity, current, 0)
	require.NoError(t, err)
	assert.Equal(t, models.Coal, ranking[0].Commodity)
	assert.Equal(t, models.Uranium, ranking[1].Commodity)
}

func TestForecast_NoModel(t *testing.T) {
	_, excluded, err := Forecast(map[models.Commodity]models.CommodityModel{
		models.Gold: {Commodity: models.Gold},
	}, map[models.Commodity]float64{models.Gold: 1}, 0)
	assert.True(t, errors.Is(err, models.ErrNoPredictiveModel))
	assert.Len(t, excluded, 1)
}

package selection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MineWatch/internal/domain/models"
	"MineWatch/internal/services/prices"
)

var base = time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)

func book(c models.Commodity, values ...float64) *prices.Book {
	return prices.NewBook(&prices.Series{Commodity: c, First: base, Values: values})
}

func mine(name string, products []models.Commodity, growth ...float64) *models.MineRecord {
	m := &models.MineRecord{Name: name, Products: products}
	for i, g := range growth {
		m.Growth = append(m.Growth, models.GrowthPoint{Growth: g, Date: base.AddDate(0, 0, i)})
	}
	return m
}

var gold = []models.Commodity{models.Gold}

func TestAlign_ShiftsPriceBackByLagDays(t *testing.T) {
	lookup := book(models.Gold, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19)
	m := &models.MineRecord{Name: "a", Products: gold, Growth: []models.GrowthPoint{
		{Growth: 0.1, Date: base},
		{Growth: 0.4, Date: base.AddDate(0, 0, 3)},
		{Growth: 0.9, Date: base.AddDate(0, 0, 9)},
	}}

	s := Align(m, models.Gold, 2, lookup)
	assert.Equal(t, []float64{11, 17}, s.Prices)
	assert.Equal(t, []float64{0.4, 0.9}, s.Growths)
	assert.Equal(t, 1, s.Dropped)
}

func TestBaseline_FillsReusesAndSkips(t *testing.T) {
	lookup := book(models.Gold, 10, 11, 12, 13, 14, 15)
	good := mine("good", gold, 0.10, 0.11, 0.12, 0.13, 0.14, 0.15)
	single := mine("single", gold, 0.5)
	copperOnly := mine("copper", []models.Commodity{models.Copper}, 0.1, 0.2, 0.3)
	mines := []*models.MineRecord{good, single, copperOnly}

	st, err := Baseline(mines, gold, 1, lookup, false)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Computed)
	assert.Equal(t, 2, st.Skipped)

	r2, ok := good.Baseline(models.Gold, 0)
	require.True(t, ok)
	assert.InDelta(t, 1.0, r2, 1e-9)
	_, ok = good.Baseline(models.Gold, 1)
	assert.True(t, ok)
	_, ok = single.Baseline(models.Gold, 0)
	assert.False(t, ok)
	assert.Empty(t, copperOnly.RSquared)

	good.SetBaseline(models.Gold, 0, 0.42)
	st, err = Baseline([]*models.MineRecord{good}, gold, 1, lookup, false)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Reused)
	r2, _ = good.Baseline(models.Gold, 0)
	assert.Equal(t, 0.42, r2)

	st, err = Baseline([]*models.MineRecord{good}, gold, 1, lookup, true)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Computed)
	r2, _ = good.Baseline(models.Gold, 0)
	assert.InDelta(t, 1.0, r2, 1e-9)
}

func TestSelectBest_GreedyWithRollback(t *testing.T) {
	lookup := book(models.Gold, 0, 1, 2, 3)

	a := mine("a", gold, 0, 1, 2, 3)
	b := mine("b", gold, 3, 2, 1, 0)
	c := mine("c", gold, 0, 1, 2, 3)
	noProduct := mine("d", []models.Commodity{models.Silver}, 0, 1, 2, 3)
	noBaseline := mine("e", gold, 0, 1, 2, 3)

	// baselines chosen to fix the visiting order a, b, c
	a.SetBaseline(models.Gold, 0, 0.1)
	b.SetBaseline(models.Gold, 0, 0.5)
	c.SetBaseline(models.Gold, 0, 0.9)
	noProduct.SetBaseline(models.Gold, 0, 0.0)

	sel, err := SelectBest([]*models.MineRecord{c, noBaseline, b, noProduct, a}, models.Gold, 0, lookup)
	require.NoError(t, err)
	require.NotNil(t, sel)

	assert.Equal(t, []string{"a", "c"}, sel.Mines)
	assert.Equal(t, 3, sel.Considered)
	assert.Equal(t, 8, sel.Model.N)
	assert.Equal(t, 1.0, sel.Model.RSquared)
	assert.InDelta(t, 1.0, sel.Model.Slope, 1e-12)
	assert.InDelta(t, 0.0, sel.Model.Intercept, 1e-12)
}

func TestSelectBest_StableOnEqualBaselines(t *testing.T) {
	lookup := book(models.Gold, 1, 2, 3, 4, 5)
	x := mine("x", gold, 0.1, 0.3, 0.2, 0.5, 0.4)
	y := mine("y", gold, 0.5, 0.4, 0.3, 0.2, 0.1)
	x.SetBaseline(models.Gold, 0, 0.3)
	y.SetBaseline(models.Gold, 0, 0.3)

	sel, err := SelectBest([]*models.MineRecord{x, y}, models.Gold, 0, lookup)
	require.NoError(t, err)
	require.NotNil(t, sel)
	assert.Equal(t, "x", sel.Mines[0])
}

func TestSelectBest_PooledFitNeverBelowFirstAccepted(t *testing.T) {
	lookup := book(models.Gold, 5, 6, 8, 7, 9, 11, 10, 12)
	mines := []*models.MineRecord{
		mine("m1", gold, 0.2, 0.3, 0.5, 0.4, 0.6, 0.8, 0.7, 0.9),
		mine("m2", gold, 0.9, 0.1, 0.8, 0.2, 0.7, 0.3, 0.6, 0.4),
		mine("m3", gold, 0.1, 0.2, 0.4, 0.3, 0.5, 0.7, 0.6, 0.8),
		mine("m4", gold, 0.5, 0.5, 0.1, 0.9, 0.2, 0.8, 0.3, 0.7),
	}
	_, err := Baseline(mines, gold, 0, lookup, false)
	require.NoError(t, err)

	sel, err := SelectBest(mines, models.Gold, 0, lookup)
	require.NoError(t, err)
	require.NotNil(t, sel)

	byName := map[string]*models.MineRecord{}
	for _, m := range mines {
		byName[m.Name] = m
	}
	first, err := FitMine(byName[sel.Mines[0]], models.Gold, 0, lookup)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, sel.Model.RSquared+1e-12, first.RSquared)
	assert.LessOrEqual(t, sel.Model.RSquared, 1.0)
}

func TestSelectBest_NoCandidates(t *testing.T) {
	lookup := book(models.Gold, 1, 2, 3)
	sel, err := SelectBest([]*models.MineRecord{mine("x", gold, 0.1, 0.2, 0.3)}, models.Gold, 0, lookup)
	assert.NoError(t, err)
	assert.Nil(t, sel)

	sel, err = SelectBest(nil, models.Gold, 0, lookup)
	assert.NoError(t, err)
	assert.Nil(t, sel)
}

// Package regression fits ordinary least squares lines of growth against price
// and keeps running sufficient statistics so samples can be added and removed.
package regression

import (
	"fmt"

	"MineWatch/internal/domain/models"
)

// relTol is the centred-to-raw sum of squares ratio below which an axis is
// treated as constant. Raw sums make the check independent of price scale.
const relTol = 1e-12

// Accumulator holds the sufficient statistics of a paired sample.
// The zero value is empty and ready to use.
type Accumulator struct {
	n                    int
	sx, sy, sxx, syy, sxy float64
}

// Add includes one (price, growth) pair.
func (a *Accumulator) Add(x, y float64) {
	a.n++
	a.sx += x
	a.sy += y
	a.sxx += x * x
	a.syy += y * y
	a.sxy += x * y
}

// Remove undoes a previous Add of the same pair.
func (a *Accumulator) Remove(x, y float64) {
	a.n--
	a.sx -= x
	a.sy -= y
	a.sxx -= x * x
	a.syy -= y * y
	a.sxy -= x * y
}

// AddAll includes every pair of xs and ys, which must have equal length.
func (a *Accumulator) AddAll(xs, ys []float64) {
	for i := range xs {
		a.Add(xs[i], ys[i])
	}
}

// RemoveAll undoes AddAll.
func (a *Accumulator) RemoveAll(xs, ys []float64) {
	for i := range xs {
		a.Remove(xs[i], ys[i])
	}
}

// N is the number of pairs currently held.
func (a *Accumulator) N() int { return a.n }

// Model returns the least squares fit of y on x.
func (a *Accumulator) Model() (models.RegressionModel, error) {
	if a.n < 2 {
		return models.RegressionModel{}, fmt.Errorf("%w: %d pairs", models.ErrInsufficientData, a.n)
	}
	n := float64(a.n)
	// centred sums; clamp tiny negatives from cancellation after Remove
	cxx := a.sxx - a.sx*a.sx/n
	cyy := a.syy - a.sy*a.sy/n
	cxy := a.sxy - a.sx*a.sy/n
	if cxx <= relTol*a.sxx {
		return models.RegressionModel{}, fmt.Errorf("%w: price has no variance", models.ErrDegenerateInput)
	}

	slope := cxy / cxx
	m := models.RegressionModel{
		Slope:     slope,
		Intercept: (a.sy - slope*a.sx) / n,
		N:         a.n,
	}
	if cyy > relTol*a.syy {
		r2 := cxy * cxy / (cxx * cyy)
		if r2 > 1 {
			r2 = 1
		}
		m.RSquared = r2
	}
	return m, nil
}

// Fit regresses growths on prices at the given index lag: prices[i] is paired
// with growths[i+lag], using len(growths)-lag pairs. Lag 0 requires equal
// lengths.
func Fit(prices, growths []float64, lag int) (models.RegressionModel, error) {
	if lag < 0 {
		return models.RegressionModel{}, fmt.Errorf("regression: negative lag %d", lag)
	}
	if lag == 0 && len(prices) != len(growths) {
		return models.RegressionModel{}, fmt.Errorf("regression: length mismatch %d != %d", len(prices), len(growths))
	}
	if len(prices) <= lag || len(growths) <= lag {
		return models.RegressionModel{}, fmt.Errorf("%w: lag %d with %d prices and %d growths",
			models.ErrInsufficientData, lag, len(prices), len(growths))
	}

	pairs := len(growths) - lag
	if pairs > len(prices) {
		pairs = len(prices)
	}
	var acc Accumulator
	for i := 0; i < pairs; i++ {
		acc.Add(prices[i], growths[i+lag])
	}
	return acc.Model()
}

// Package selection chooses which mines to pool for a (commodity, lag) model.
//
// Each mine first gets a baseline fit on its own. Candidates are then visited
// from the weakest baseline to the strongest and kept only while the pooled
// fit does not get worse.
package selection

import (
	"fmt"
	"sort"

	"MineWatch/internal/domain/models"
	"MineWatch/internal/services/prices"
	"MineWatch/internal/services/regression"
	"MineWatch/pkg/util"
)

// Sample is a mine's growth signal paired with lagged prices.
type Sample struct {
	Prices  []float64
	Growths []float64
	Dropped int // growth points whose shifted price was unavailable
}

// Align pairs each growth point at day d with the price lag days earlier.
func Align(mine *models.MineRecord, c models.Commodity, lag int, lookup prices.Lookup) Sample {
	s := Sample{
		Prices:  make([]float64, 0, len(mine.Growth)),
		Growths: make([]float64, 0, len(mine.Growth)),
	}
	for _, p := range mine.Growth {
		price, err := lookup.Price(c, util.AddDays(p.Date, -lag))
		if err != nil {
			s.Dropped++
			continue
		}
		s.Prices = append(s.Prices, price)
		s.Growths = append(s.Growths, p.Growth)
	}
	return s
}

// FitMine is the single-mine fit for (c, lag).
func FitMine(mine *models.MineRecord, c models.Commodity, lag int, lookup prices.Lookup) (models.RegressionModel, error) {
	s := Align(mine, c, lag, lookup)
	return regression.Fit(s.Prices, s.Growths, 0)
}

// BaselineStats counts what Baseline did.
type BaselineStats struct {
	Computed int
	Reused   int
	Skipped  int // too few points or constant price
}

// Baseline fills each mine's RSquared[c][lag] for every product in
// commodities and every lag in [0, maxLag]. Existing entries are kept unless
// refresh is set. A fit that fails on data grounds records nothing, so the
// mine is not a candidate at that lag.
func Baseline(mines []*models.MineRecord, commodities []models.Commodity, maxLag int, lookup prices.Lookup, refresh bool) (BaselineStats, error) {
	var st BaselineStats
	for _, mine := range mines {
		for _, c := range commodities {
			if !mine.Produces(c) {
				continue
			}
			for lag := 0; lag <= maxLag; lag++ {
				if _, ok := mine.Baseline(c, lag); ok && !refresh {
					st.Reused++
					continue
				}
				m, err := FitMine(mine, c, lag, lookup)
				if err != nil {
					if !models.IsDataInsufficiency(err) {
						return st, fmt.Errorf("baseline %s/%s lag %d: %w", mine.Name, c, lag, err)
					}
					if byLag := mine.RSquared[c]; byLag != nil {
						delete(byLag, lag)
					}
					st.Skipped++
					continue
				}
				mine.SetBaseline(c, lag, m.RSquared)
				st.Computed++
			}
		}
	}
	return st, nil
}

// Selection is the pooled model for one (commodity, lag).
type Selection struct {
	Commodity  models.Commodity
	Lag        int
	Model      models.RegressionModel
	Mines      []string
	Considered int
}

type candidate struct {
	mine     *models.MineRecord
	baseline float64
	sample   Sample
}

// SelectBest greedily pools candidate mines for (c, lag). It returns nil
// without error when no mine qualifies or nothing fits.
func SelectBest(mines []*models.MineRecord, c models.Commodity, lag int, lookup prices.Lookup) (*Selection, error) {
	if lag < 0 {
		return nil, fmt.Errorf("selection: negative lag %d", lag)
	}

	cands := make([]candidate, 0, len(mines))
	for _, mine := range mines {
		if !mine.Produces(c) {
			continue
		}
		r2, ok := mine.Baseline(c, lag)
		if !ok {
			continue
		}
		cands = append(cands, candidate{mine: mine, baseline: r2})
	}
	if len(cands) == 0 {
		return nil, nil
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].baseline < cands[j].baseline })

	// samples are aligned once; the accumulator only tracks what is accepted
	for i := range cands {
		cands[i].sample = Align(cands[i].mine, c, lag, lookup)
	}

	var (
		acc      regression.Accumulator
		best     models.RegressionModel
		accepted []int
	)
	for i := range cands {
		s := cands[i].sample
		if len(s.Prices) == 0 {
			continue
		}
		acc.AddAll(s.Prices, s.Growths)
		m, err := acc.Model()
		if err == nil && (len(accepted) == 0 || m.RSquared >= best.RSquared) {
			best = m
			accepted = append(accepted, i)
			continue
		}
		if err != nil && !models.IsDataInsufficiency(err) {
			return nil, err
		}
		acc.RemoveAll(s.Prices, s.Growths)
	}
	if len(accepted) == 0 {
		return nil, nil
	}

	sel := &Selection{
		Commodity:  c,
		Lag:        lag,
		Model:      best,
		Mines:      make([]string, len(accepted)),
		Considered: len(cands),
	}
	for i, idx := range accepted {
		sel.Mines[i] = cands[idx].mine.Name
	}
	return sel, nil
}

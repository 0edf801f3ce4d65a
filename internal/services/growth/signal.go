// Package growth derives a per-mine growth signal from satellite vegetation
// readings: season-scaled size, per-day rate of change, percentile clipping.
package growth

import (
	"fmt"
	"math"
	"sort"
	"time"

	"MineWatch/internal/domain/models"
	"MineWatch/internal/services/prices"
	"MineWatch/pkg/util"
)

// SeasonEpsilon keeps the season-scaled ratio finite when mine and control
// readings coincide. Must stay 0.1 for parity with stored signals.
const SeasonEpsilon = 0.1

// SeasonScaledSize compares the mine footprint to its control region.
func SeasonScaledSize(mine, control float64) float64 {
	return 1 - mine/(control-mine+SeasonEpsilon)
}

// Pair joins mine and control readings taken at the same timestamp, ordered
// by date. The result is undefined where either reading is.
func Pair(v *models.VegetationSeries) []models.GrowthObservation {
	if v == nil {
		return nil
	}
	control := make(map[int64]*float64, len(v.Control))
	for _, r := range v.Control {
		control[r.Time.Unix()] = r.Mean
	}

	out := make([]models.GrowthObservation, 0, len(v.Mine))
	for _, r := range v.Mine {
		c, ok := control[r.Time.Unix()]
		if !ok {
			continue
		}
		o := models.GrowthObservation{Date: util.Day(r.Time)}
		if r.Mean != nil && c != nil {
			size := SeasonScaledSize(*r.Mean, *c)
			o.SeasonScaledSize = &size
		}
		out = append(out, o)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Outcome tags what happened to one observation.
type Outcome int

const (
	Valid Outcome = iota
	SkippedUndefined
	SkippedNoPrice
	SkippedZeroPeriod
)

func (o Outcome) String() string {
	switch o {
	case Valid:
		return "valid"
	case SkippedUndefined:
		return "undefined"
	case SkippedNoPrice:
		return "no_price"
	case SkippedZeroPeriod:
		return "zero_period"
	default:
		return "unknown"
	}
}

// PointResult is the tagged outcome for one observation.
type PointResult struct {
	Date    time.Time
	Outcome Outcome
	Rate    float64 // valid points only
	Reason  string
}

// Options holds the clipping percentiles.
type Options struct {
	LowerPercentile float64
	UpperPercentile float64
}

// DefaultOptions clip at the 5th and 95th percentile.
var DefaultOptions = Options{LowerPercentile: 5, UpperPercentile: 95}

// Signal is a normalised growth signal with its bookkeeping.
type Signal struct {
	Points  []models.GrowthPoint
	Results []PointResult
	Stats   models.GrowthStats
	Lower   float64 // rate at LowerPercentile
	Upper   float64 // rate at UpperPercentile
}

// Build converts ordered observations into a normalised signal. Every product
// must have a price on a point's date for the point to count. The returned
// Signal carries the per-point results even when err is non-nil.
func Build(obs []models.GrowthObservation, products []models.Commodity, lookup prices.Lookup, opts Options) (*Signal, error) {
	sig := &Signal{Results: make([]PointResult, 0, len(obs))}

	var (
		prev  *models.GrowthObservation
		rates []float64
		dates []time.Time
	)
	for i := range obs {
		cur := obs[i]
		if !cur.Defined() {
			sig.record(PointResult{Date: cur.Date, Outcome: SkippedUndefined, Reason: "no satellite value"})
			continue
		}
		if prev == nil {
			prev = &obs[i]
			continue
		}

		days := util.DaysBetween(prev.Date, cur.Date)
		if days <= 0 {
			sig.record(PointResult{Date: cur.Date, Outcome: SkippedZeroPeriod, Reason: "no elapsed days since previous reading"})
			continue
		}

		res := checkPrices(cur.Date, products, lookup)
		if res.Outcome == Valid {
			res.Rate = (*cur.SeasonScaledSize - *prev.SeasonScaledSize) / float64(days)
			rates = append(rates, res.Rate)
			dates = append(dates, cur.Date)
		}
		sig.record(res)
		prev = &obs[i]
	}

	if len(rates) < 2 {
		return sig, fmt.Errorf("%w: %d valid growth points", models.ErrInsufficientData, len(rates))
	}

	sorted := make([]float64, len(rates))
	copy(sorted, rates)
	sort.Float64s(sorted)
	sig.Lower = Percentile(sorted, opts.LowerPercentile)
	sig.Upper = Percentile(sorted, opts.UpperPercentile)
	if sig.Upper == sig.Lower {
		return sig, fmt.Errorf("%w: growth rates have no spread", models.ErrInsufficientData)
	}

	sig.Points = make([]models.GrowthPoint, len(rates))
	for i, r := range rates {
		sig.Points[i] = models.GrowthPoint{Growth: Normalize(r, sig.Lower, sig.Upper), Date: dates[i]}
	}
	return sig, nil
}

func (s *Signal) record(r PointResult) {
	s.Results = append(s.Results, r)
	switch r.Outcome {
	case Valid:
		s.Stats.Valid++
	case SkippedUndefined:
		s.Stats.SkippedUndefined++
	case SkippedNoPrice:
		s.Stats.SkippedNoPrice++
	case SkippedZeroPeriod:
		s.Stats.SkippedZeroPeriod++
	}
}

func checkPrices(day time.Time, products []models.Commodity, lookup prices.Lookup) PointResult {
	for _, c := range products {
		if _, err := lookup.Price(c, day); err != nil {
			return PointResult{Date: day, Outcome: SkippedNoPrice, Reason: err.Error()}
		}
	}
	return PointResult{Date: day, Outcome: Valid}
}

// Normalize clips rate into [lower, upper] and rescales it to [0,1].
func Normalize(rate, lower, upper float64) float64 {
	v := (rate - lower) / (upper - lower)
	return math.Max(0, math.Min(1, v))
}

// Percentile returns the p-th percentile (0..100) of ascending values using
// linear interpolation between closest ranks.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	pos := p / 100 * float64(n-1)
	lo := int(math.Floor(pos))
	if lo < 0 {
		return sorted[0]
	}
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// Package prices turns sparse commodity price observations into dense daily
// series and serves them to the rest of the pipeline.
package prices

import (
	"fmt"
	"time"

	"MineWatch/internal/domain/models"
	"MineWatch/pkg/util"
)

// Series is a dense daily price series with no gaps.
type Series struct {
	Commodity models.Commodity
	First     time.Time // day of Values[0]
	Values    []float64
}

// Last returns the final day covered by the series.
func (s *Series) Last() time.Time {
	return util.AddDays(s.First, len(s.Values)-1)
}

// Len returns the number of days in the series.
func (s *Series) Len() int { return len(s.Values) }

// At returns the price on day.
func (s *Series) At(day time.Time) (float64, error) {
	i := util.DaysBetween(s.First, day)
	if i < 0 || i >= len(s.Values) {
		return 0, fmt.Errorf("%w: %s %s not in [%s, %s]", models.ErrDateOutOfRange,
			s.Commodity, util.FormatDate(day), util.FormatDate(s.First), util.FormatDate(s.Last()))
	}
	return s.Values[i], nil
}

// Interpolate builds the dense series over [from, to] from observations sorted
// ascending by date. Each day takes the observed value when one exists on that
// day and otherwise the linear interpolation between the surrounding
// observations. Days outside the observed range cannot be interpolated.
func Interpolate(c models.Commodity, obs []models.PriceObservation, from, to time.Time) (*Series, error) {
	if len(obs) == 0 {
		return nil, fmt.Errorf("%w: no %s prices", models.ErrSourceUnavailable, c)
	}
	from, to = util.Day(from), util.Day(to)
	if to.Before(from) {
		return nil, fmt.Errorf("interpolate %s: end %s before start %s", c, util.FormatDate(to), util.FormatDate(from))
	}

	first, last := util.Day(obs[0].Date), util.Day(obs[len(obs)-1].Date)
	if from.Before(first) || to.After(last) {
		return nil, fmt.Errorf("%w: %s observations cover [%s, %s], need [%s, %s]", models.ErrDateOutOfRange, c,
			util.FormatDate(first), util.FormatDate(last), util.FormatDate(from), util.FormatDate(to))
	}

	days := util.DaysBetween(from, to) + 1
	out := &Series{Commodity: c, First: from, Values: make([]float64, 0, days)}

	// lastObs is the latest observation on or before day, nextObs the one after it.
	lastObs, nextObs := 0, 1
	for day := from; !day.After(to); day = util.AddDays(day, 1) {
		for nextObs < len(obs) && !util.Day(obs[nextObs].Date).After(day) {
			lastObs = nextObs
			nextObs++
		}

		d0 := util.Day(obs[lastObs].Date)
		if d0.Equal(day) || nextObs >= len(obs) {
			out.Values = append(out.Values, obs[lastObs].Price)
			continue
		}

		d1 := util.Day(obs[nextObs].Date)
		span := float64(util.DaysBetween(d0, d1))
		elapsed := float64(util.DaysBetween(d0, day))
		p0, p1 := obs[lastObs].Price, obs[nextObs].Price
		out.Values = append(out.Values, p0+(p1-p0)*elapsed/span)
	}

	return out, nil
}

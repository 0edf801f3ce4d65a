package prices

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"MineWatch/internal/domain/models"
	domrepo "MineWatch/internal/domain/repository"
	"MineWatch/pkg/util"
)

// Window is the nominal analysis window.
type Window struct {
	Start time.Time
	End   time.Time
}

// Buffers are the two nested buffer widths around the window, in days.
// CoverageDays extends the dense series so that satellite dates outside the
// nominal window and every lag shift still resolve. InterpolationDays is the
// extra slack fetched beyond that so an anchor observation exists on both
// edges of the dense series.
type Buffers struct {
	InterpolationDays int
	CoverageDays      int
}

// DefaultBuffers mirror the empirically tuned constants.
var DefaultBuffers = Buffers{InterpolationDays: 31, CoverageDays: 124}

// Lookup resolves a commodity price on a day without I/O.
type Lookup interface {
	Price(c models.Commodity, day time.Time) (float64, error)
}

// Cache builds and memoises one dense series per commodity for the lifetime
// of one analysis run. It is owned by the run, not shared process-wide.
type Cache struct {
	source  domrepo.PriceSource
	window  Window
	buffers Buffers

	mu     sync.Mutex
	series map[models.Commodity]*Series
}

// NewCache creates an empty cache over window.
func NewCache(source domrepo.PriceSource, window Window, buffers Buffers) *Cache {
	return &Cache{
		source:  source,
		window:  Window{Start: util.Day(window.Start), End: util.Day(window.End)},
		buffers: buffers,
		series:  make(map[models.Commodity]*Series),
	}
}

// SeriesRange is the inclusive day range every built series covers.
func (c *Cache) SeriesRange() (time.Time, time.Time) {
	return util.AddDays(c.window.Start, -c.buffers.CoverageDays), util.AddDays(c.window.End, c.buffers.CoverageDays)
}

// FetchRange is the inclusive day range requested from the price source.
func (c *Cache) FetchRange() (time.Time, time.Time) {
	pad := c.buffers.CoverageDays + c.buffers.InterpolationDays
	return util.AddDays(c.window.Start, -pad), util.AddDays(c.window.End, pad)
}

// Get returns the price of commodity on day, building its series on first use.
func (c *Cache) Get(ctx context.Context, commodity models.Commodity, day time.Time) (float64, error) {
	s, err := c.load(ctx, commodity)
	if err != nil {
		return 0, err
	}
	return s.At(day)
}

// GetString is Get with a textual YYYY-MM-DD day.
func (c *Cache) GetString(ctx context.Context, commodity models.Commodity, day string) (float64, error) {
	d, err := util.ParseDate(day)
	if err != nil {
		return 0, err
	}
	return c.Get(ctx, commodity, d)
}

// Preload builds the series for every commodity up front. Failures are
// isolated per commodity and returned keyed by commodity; ctx cancellation
// aborts with an error.
func (c *Cache) Preload(ctx context.Context, commodities []models.Commodity) (map[models.Commodity]error, error) {
	failed := make(map[models.Commodity]error)
	for _, commodity := range commodities {
		if err := ctx.Err(); err != nil {
			return failed, err
		}
		if _, err := c.load(ctx, commodity); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return failed, err
			}
			failed[commodity] = err
		}
	}
	return failed, nil
}

// Book snapshots the series built so far into a read-only Lookup.
func (c *Cache) Book() *Book {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := &Book{series: make(map[models.Commodity]*Series, len(c.series))}
	for k, v := range c.series {
		b.series[k] = v
	}
	return b
}

func (c *Cache) load(ctx context.Context, commodity models.Commodity) (*Series, error) {
	if !commodity.IsKnown() {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownCommodity, commodity)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.series[commodity]; ok {
		return s, nil
	}

	fetchFrom, fetchTo := c.FetchRange()
	obs, err := c.source.Prices(ctx, commodity, fetchFrom, fetchTo)
	if err != nil {
		return nil, fmt.Errorf("fetch %s prices: %w", commodity, err)
	}
	obs = sortedObservations(obs)

	from, to := c.SeriesRange()
	s, err := Interpolate(commodity, obs, from, to)
	if err != nil {
		return nil, err
	}
	c.series[commodity] = s
	return s, nil
}

// sortedObservations orders by date and keeps the last value seen per day.
func sortedObservations(obs []models.PriceObservation) []models.PriceObservation {
	out := make([]models.PriceObservation, len(obs))
	copy(out, obs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	dedup := out[:0]
	for _, o := range out {
		if n := len(dedup); n > 0 && util.Day(dedup[n-1].Date).Equal(util.Day(o.Date)) {
			dedup[n-1] = o
			continue
		}
		dedup = append(dedup, o)
	}
	return dedup
}

// Book is an immutable set of dense series, safe for concurrent readers.
type Book struct {
	series map[models.Commodity]*Series
}

// NewBook assembles a Book from already built series.
func NewBook(series ...*Series) *Book {
	b := &Book{series: make(map[models.Commodity]*Series, len(series))}
	for _, s := range series {
		b.series[s.Commodity] = s
	}
	return b
}

// Price implements Lookup.
func (b *Book) Price(c models.Commodity, day time.Time) (float64, error) {
	s, ok := b.series[c]
	if !ok {
		return 0, fmt.Errorf("%w: no price series for %q", models.ErrUnknownCommodity, c)
	}
	return s.At(day)
}

// Has reports whether a series for c was built.
func (b *Book) Has(c models.Commodity) bool {
	_, ok := b.series[c]
	return ok
}

// Commodities lists the commodities with a series, in vocabulary order.
func (b *Book) Commodities() []models.Commodity {
	out := make([]models.Commodity, 0, len(b.series))
	for c := range b.series {
		out = append(out, c)
	}
	models.SortCommodities(out)
	return out
}

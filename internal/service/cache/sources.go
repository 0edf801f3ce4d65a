// Package cache wraps the remote data sources with a read-through cache so
// repeated runs over the same window skip the network.
package cache

import (
	"context"
	"fmt"
	"time"

	"MineWatch/internal/domain/models"
	drepo "MineWatch/internal/domain/repository"
	pcache "MineWatch/pkg/cache"
	applogger "MineWatch/pkg/logger"
)

// Config holds entry lifetimes per source.
type Config struct {
	Enabled       bool          `yaml:"enabled" default:"false"`
	PriceTTL      time.Duration `yaml:"price_ttl" default:"12h"`
	LatestTTL     time.Duration `yaml:"latest_ttl" default:"15m"`
	VegetationTTL time.Duration `yaml:"vegetation_ttl" default:"168h"`
}

// PriceSource caches price history and latest quotes per commodity.
type PriceSource struct {
	next  drepo.PriceSource
	store pcache.Service
	cfg   Config
	log   *applogger.Logger
}

// NewPriceSource decorates next with store.
func NewPriceSource(next drepo.PriceSource, store pcache.Service, cfg Config, log *applogger.Logger) *PriceSource {
	return &PriceSource{next: next, store: store, cfg: cfg, log: orNop(log)}
}

func (p *PriceSource) Prices(ctx context.Context, c models.Commodity, from, to time.Time) ([]models.PriceObservation, error) {
	key := pcache.GenerateKeyWithParams("prices", c, from.Format(models.DateLayout), to.Format(models.DateLayout))
	obs, hit, cacheErr, err := pcache.GetOrLoad(ctx, p.store, key, p.cfg.PriceTTL, func() ([]models.PriceObservation, error) {
		return p.next.Prices(ctx, c, from, to)
	})
	logCache(p.log, key, hit, cacheErr)
	return obs, err
}

func (p *PriceSource) Latest(ctx context.Context, c models.Commodity) (models.PriceObservation, error) {
	key := pcache.GenerateKeyWithParams("latest", c)
	obs, hit, cacheErr, err := pcache.GetOrLoad(ctx, p.store, key, p.cfg.LatestTTL, func() (models.PriceObservation, error) {
		return p.next.Latest(ctx, c)
	})
	logCache(p.log, key, hit, cacheErr)
	return obs, err
}

// VegetationSource caches satellite reductions per location, footprint and
// date range.
type VegetationSource struct {
	next  drepo.VegetationSource
	store pcache.Service
	cfg   Config
	log   *applogger.Logger
}

// NewVegetationSource decorates next with store.
func NewVegetationSource(next drepo.VegetationSource, store pcache.Service, cfg Config, log *applogger.Logger) *VegetationSource {
	return &VegetationSource{next: next, store: store, cfg: cfg, log: orNop(log)}
}

func (v *VegetationSource) Vegetation(ctx context.Context, loc models.Location, mineSize, controlSize float64, from, to time.Time) (*models.VegetationSeries, error) {
	key := VegetationKey(loc, mineSize, controlSize, from, to)
	series, hit, cacheErr, err := pcache.GetOrLoad(ctx, v.store, key, v.cfg.VegetationTTL, func() (*models.VegetationSeries, error) {
		return v.next.Vegetation(ctx, loc, mineSize, controlSize, from, to)
	})
	logCache(v.log, key, hit, cacheErr)
	return series, err
}

// VegetationKey identifies one reduction request. Coordinates are rounded to
// six decimals, roughly 0.1 m.
func VegetationKey(loc models.Location, mineSize, controlSize float64, from, to time.Time) string {
	return pcache.GenerateKeyWithParams("vegetation",
		fmt.Sprintf("%.6f", loc.Lat), fmt.Sprintf("%.6f", loc.Lon),
		fmt.Sprintf("%g", mineSize), fmt.Sprintf("%g", controlSize),
		from.Format(models.DateLayout), to.Format(models.DateLayout))
}

func logCache(log *applogger.Logger, key string, hit bool, cacheErr error) {
	if cacheErr != nil {
		log.Warn("cache unavailable, using source", applogger.String("key", key), applogger.Error(cacheErr))
		return
	}
	if hit {
		log.Debug("cache hit", applogger.String("key", key))
	}
}

func orNop(l *applogger.Logger) *applogger.Logger {
	if l == nil {
		return applogger.Nop()
	}
	return l
}

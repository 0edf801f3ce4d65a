package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"MineWatch/internal/domain/models"
	drepo "MineWatch/internal/domain/repository"
	applogger "MineWatch/pkg/logger"
)

// PriceSyncUseCase copies upstream price series into the local price store.
type PriceSyncUseCase struct {
	upstream drepo.PriceSource
	writer   drepo.PriceWriter
	metrics  drepo.Metrics
	log      *applogger.Logger
}

func NewPriceSyncUseCase(upstream drepo.PriceSource, writer drepo.PriceWriter, metrics drepo.Metrics, log *applogger.Logger) *PriceSyncUseCase {
	if log == nil {
		log = applogger.Nop()
	}
	return &PriceSyncUseCase{upstream: upstream, writer: writer, metrics: metrics, log: log}
}

// SyncResult counts stored rows per commodity.
type SyncResult struct {
	Stored   map[models.Commodity]int
	Excluded []models.Exclusion
}

// Sync fetches [from, to] for each commodity and stores it. Commodities the
// upstream has no data for are excluded; write failures abort the sync.
func (uc *PriceSyncUseCase) Sync(ctx context.Context, commodities []models.Commodity, from, to time.Time) (*SyncResult, error) {
	if uc.writer == nil {
		return nil, fmt.Errorf("price sync: no price store configured")
	}
	if !to.After(from) {
		return nil, fmt.Errorf("price sync: end %s is not after start %s", to.Format(models.DateLayout), from.Format(models.DateLayout))
	}
	if len(commodities) == 0 {
		commodities = models.Commodities
	}

	start := time.Now()
	res := &SyncResult{Stored: make(map[models.Commodity]int, len(commodities))}
	for _, c := range commodities {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		obs, err := uc.upstream.Prices(ctx, c, from, to)
		if err != nil {
			if errors.Is(err, models.ErrSourceUnavailable) || errors.Is(err, models.ErrUnknownCommodity) {
				res.Excluded = append(res.Excluded, models.Exclusion{Kind: "commodity", Name: c.String(), Reason: err.Error()})
				uc.log.Warn("price sync skipped commodity", applogger.String("commodity", c.String()), applogger.Error(err))
				continue
			}
			uc.recordError("price_sync_fetch")
			return res, fmt.Errorf("fetch %s prices: %w", c, err)
		}
		if err := uc.writer.SavePrices(ctx, c, obs); err != nil {
			uc.recordError("price_sync_store")
			return res, fmt.Errorf("store %s prices: %w", c, err)
		}
		res.Stored[c] = len(obs)
	}

	if uc.metrics != nil {
		uc.metrics.RecordLatency("price_sync", time.Since(start).Seconds())
	}
	uc.log.Info("price sync finished",
		applogger.Int("commodities", len(res.Stored)),
		applogger.Int("excluded", len(res.Excluded)),
		applogger.Duration("took", time.Since(start)),
	)
	return res, nil
}

func (uc *PriceSyncUseCase) recordError(kind string) {
	if uc.metrics != nil {
		uc.metrics.RecordError(kind)
	}
}

package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"MineWatch/internal/domain/models"
	drepo "MineWatch/internal/domain/repository"
	"MineWatch/internal/services/prices"
	"MineWatch/internal/services/selection"
	applogger "MineWatch/pkg/logger"
)

// SweepUseCase runs model selection over every lag of every commodity.
type SweepUseCase struct {
	workers int
	metrics drepo.Metrics
	log     *applogger.Logger
}

func NewSweepUseCase(workers int, metrics drepo.Metrics, log *applogger.Logger) *SweepUseCase {
	if workers <= 0 {
		workers = 1
	}
	if log == nil {
		log = applogger.Nop()
	}
	return &SweepUseCase{workers: workers, metrics: metrics, log: log}
}

// Sweep returns one CommodityModel per commodity. The best lag is the one
// with the highest pooled R²; on equal R² the smaller lag wins. Mines and
// lookup are only read, so commodities run on separate workers.
func (uc *SweepUseCase) Sweep(ctx context.Context, mines []*models.MineRecord, commodities []models.Commodity, maxLag int, lookup prices.Lookup) (map[models.Commodity]models.CommodityModel, error) {
	if maxLag < 0 {
		return nil, fmt.Errorf("sweep: negative max lag %d", maxLag)
	}

	type item struct {
		model models.CommodityModel
		err   error
	}
	jobs := make(chan models.Commodity)
	ch := make(chan item, len(commodities))
	var wg sync.WaitGroup

	for w := 0; w < uc.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range jobs {
				m, err := uc.sweepCommodity(ctx, mines, c, maxLag, lookup)
				ch <- item{m, err}
			}
		}()
	}
	go func() {
		defer close(jobs)
		for _, c := range commodities {
			select {
			case jobs <- c:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() { wg.Wait(); close(ch) }()

	out := make(map[models.Commodity]models.CommodityModel, len(commodities))
	var firstErr error
	for it := range ch {
		if it.err != nil {
			if firstErr == nil {
				firstErr = it.err
			}
			continue
		}
		out[it.model.Commodity] = it.model
	}
	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (uc *SweepUseCase) sweepCommodity(ctx context.Context, mines []*models.MineRecord, c models.Commodity, maxLag int, lookup prices.Lookup) (models.CommodityModel, error) {
	res := models.CommodityModel{Commodity: c, RSquaredByLag: make([]float64, maxLag+1)}
	var best *selection.Selection

	for lag := 0; lag <= maxLag; lag++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		sel, err := selection.SelectBest(mines, c, lag, lookup)
		if err != nil {
			return res, fmt.Errorf("select %s lag %d: %w", c, lag, err)
		}
		if sel == nil {
			continue
		}
		res.RSquaredByLag[lag] = sel.Model.RSquared
		if best == nil || sel.Model.RSquared > best.Model.RSquared {
			best = sel
		}
	}

	if best == nil {
		uc.log.Debug("no model for commodity", applogger.String("commodity", c.String()))
		return res, nil
	}
	model := best.Model
	res.BestLag = best.Lag
	res.Model = &model
	res.Mines = best.Mines
	if uc.metrics != nil {
		uc.metrics.RecordModel(c, best.Lag, model.RSquared)
	}
	uc.log.Debug("best lag selected",
		applogger.String("commodity", c.String()),
		applogger.Int("lag", best.Lag),
		applogger.Float64("r2", model.RSquared),
		applogger.Int("mines", len(best.Mines)),
	)
	return res, nil
}

// Forecast evaluates each commodity's winning model at its current price and
// ranks the results by predicted growth, highest first. Commodities without a
// model or a current price are returned as exclusions. top <= 0 keeps all.
func Forecast(byCommodity map[models.Commodity]models.CommodityModel, current map[models.Commodity]float64, top int) ([]models.Forecast, []models.Exclusion, error) {
	names := make([]models.Commodity, 0, len(byCommodity))
	for c := range byCommodity {
		names = append(names, c)
	}
	models.SortCommodities(names)

	var (
		ranking  []models.Forecast
		excluded []models.Exclusion
	)
	for _, c := range names {
		m := byCommodity[c]
		if !m.HasModel() {
			excluded = append(excluded, models.Exclusion{Kind: "commodity", Name: c.String(), Reason: "no mine subset produced a model"})
			continue
		}
		price, ok := current[c]
		if !ok {
			excluded = append(excluded, models.Exclusion{Kind: "commodity", Name: c.String(), Reason: "no current price"})
			continue
		}
		ranking = append(ranking, models.Forecast{
			Commodity:       c,
			BestLag:         m.BestLag,
			RSquared:        m.Model.RSquared,
			CurrentPrice:    price,
			PredictedGrowth: m.Model.Predict(price),
		})
	}
	if len(ranking) == 0 {
		return nil, excluded, models.ErrNoPredictiveModel
	}

	sort.SliceStable(ranking, func(i, j int) bool {
		if ranking[i].PredictedGrowth != ranking[j].PredictedGrowth {
			return ranking[i].PredictedGrowth > ranking[j].PredictedGrowth
		}
		return ranking[i].Commodity < ranking[j].Commodity
	})
	if top > 0 && len(ranking) > top {
		ranking = ranking[:top]
	}
	for i := range ranking {
		ranking[i].Rank = i + 1
	}
	return ranking, excluded, nil
}

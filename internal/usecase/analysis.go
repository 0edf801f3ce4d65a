package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"MineWatch/internal/domain/models"
	drepo "MineWatch/internal/domain/repository"
	"MineWatch/internal/services/growth"
	"MineWatch/internal/services/prices"
	"MineWatch/internal/services/selection"
	applogger "MineWatch/pkg/logger"
)

// AnalysisParams describes one run.
type AnalysisParams struct {
	Start       time.Time
	End         time.Time
	MaxLag      int // days
	MineSize    float64
	ControlSize float64
	Commodities []models.Commodity // empty means the whole vocabulary

	// Current prices override the price source's latest observation.
	CurrentPrices map[models.Commodity]float64
	Top           int

	RefreshMines    bool
	RefreshGrowth   bool
	RefreshBaseline bool
}

// AnalysisUseCase runs the full pipeline: mines, growth signals, price
// series, baselines, lag sweep, forecast, persistence.
type AnalysisUseCase struct {
	mines      *MinesUseCase
	vegetation drepo.VegetationSource
	prices     drepo.PriceSource
	store      drepo.MineStore
	results    drepo.ResultStore // optional
	publisher  drepo.Publisher   // optional
	metrics    drepo.Metrics
	sweep      *SweepUseCase
	buffers    prices.Buffers
	growthOpts growth.Options
	log        *applogger.Logger
	now        func() time.Time
}

func NewAnalysisUseCase(
	mines *MinesUseCase,
	vegetation drepo.VegetationSource,
	priceSource drepo.PriceSource,
	store drepo.MineStore,
	results drepo.ResultStore,
	publisher drepo.Publisher,
	metrics drepo.Metrics,
	sweep *SweepUseCase,
	buffers prices.Buffers,
	growthOpts growth.Options,
	log *applogger.Logger,
) *AnalysisUseCase {
	if log == nil {
		log = applogger.Nop()
	}
	return &AnalysisUseCase{
		mines:      mines,
		vegetation: vegetation,
		prices:     priceSource,
		store:      store,
		results:    results,
		publisher:  publisher,
		metrics:    metrics,
		sweep:      sweep,
		buffers:    buffers,
		growthOpts: growthOpts,
		log:        log,
		now:        time.Now,
	}
}

func (p *AnalysisParams) validate(buffers prices.Buffers) error {
	if p.Start.IsZero() || p.End.IsZero() {
		return fmt.Errorf("start and end dates required")
	}
	if !p.End.After(p.Start) {
		return fmt.Errorf("end %s is not after start %s", p.End.Format(models.DateLayout), p.Start.Format(models.DateLayout))
	}
	if p.MaxLag < 0 {
		return fmt.Errorf("horizon must be non-negative, got %d", p.MaxLag)
	}
	if p.MaxLag >= buffers.CoverageDays {
		return fmt.Errorf("horizon %d days needs a coverage buffer above it, have %d", p.MaxLag, buffers.CoverageDays)
	}
	if p.MineSize <= 0 || p.ControlSize <= p.MineSize {
		return fmt.Errorf("control size %.0f must exceed mine size %.0f", p.ControlSize, p.MineSize)
	}
	for _, c := range p.Commodities {
		if !c.IsKnown() {
			return fmt.Errorf("%w: %q", models.ErrUnknownCommodity, c)
		}
	}
	return nil
}

// Run executes the pipeline. Failures for a single mine or commodity are
// recorded in Report.Excluded; only the absence of any usable model fails
// the run, and in that case the report built so far is still returned.
func (uc *AnalysisUseCase) Run(ctx context.Context, p AnalysisParams) (*models.Report, error) {
	if err := p.validate(uc.buffers); err != nil {
		return nil, err
	}
	start := time.Now()
	commodities := p.Commodities
	if len(commodities) == 0 {
		commodities = append([]models.Commodity(nil), models.Commodities...)
	}

	rep := &models.Report{
		RunID:       uuid.NewString(),
		GeneratedAt: uc.now().UTC(),
		Start:       p.Start,
		End:         p.End,
		MaxLag:      p.MaxLag,
	}
	log := uc.log.With(applogger.String("run_id", rep.RunID))

	records, err := uc.loadMines(ctx, p.RefreshMines, rep)
	if err != nil {
		return nil, err
	}
	mines := make([]*models.MineRecord, len(records))
	for i := range records {
		mines[i] = &records[i]
	}

	// prices for every requested commodity some mine produces
	produced := producedBy(mines, commodities)
	for _, c := range commodities {
		if !containsCommodity(produced, c) {
			rep.Excluded = append(rep.Excluded, models.Exclusion{Kind: "commodity", Name: c.String(), Reason: "no mine produces it"})
		}
	}
	cache := prices.NewCache(uc.prices, prices.Window{Start: p.Start, End: p.End}, uc.buffers)
	failed, err := cache.Preload(ctx, produced)
	if err != nil {
		return nil, err
	}
	for _, c := range models.Commodities {
		if ferr, ok := failed[c]; ok {
			log.Warn("commodity prices unavailable", applogger.String("commodity", c.String()), applogger.Error(ferr))
			uc.recordError("prices")
			rep.Excluded = append(rep.Excluded, models.Exclusion{Kind: "commodity", Name: c.String(), Reason: ferr.Error()})
		}
	}
	book := cache.Book()
	priced := book.Commodities()

	working, err := uc.buildGrowth(ctx, mines, book, p, rep, log)
	if err != nil {
		return nil, err
	}
	rep.MineCount = len(working)

	bst, err := selection.Baseline(working, priced, p.MaxLag, book, p.RefreshBaseline)
	if err != nil {
		return nil, err
	}
	log.Debug("baselines ready",
		applogger.Int("computed", bst.Computed),
		applogger.Int("reused", bst.Reused),
		applogger.Int("skipped", bst.Skipped),
	)

	byCommodity, err := uc.sweep.Sweep(ctx, working, priced, p.MaxLag, book)
	if err != nil {
		return nil, err
	}
	for _, c := range priced {
		rep.Models = append(rep.Models, byCommodity[c])
	}

	// growth and baselines are worth keeping even if no model came out
	if err := uc.store.Save(ctx, records); err != nil {
		return nil, fmt.Errorf("save mines: %w", err)
	}

	current := uc.currentPrices(ctx, byCommodity, p.CurrentPrices, log)
	ranking, excluded, ferr := Forecast(byCommodity, current, p.Top)
	rep.Excluded = append(rep.Excluded, excluded...)
	rep.Ranking = ranking
	uc.recordLatency("analysis", time.Since(start))
	if ferr != nil {
		uc.recordError("no_model")
		return rep, ferr
	}
	for _, f := range ranking {
		if uc.metrics != nil {
			uc.metrics.RecordForecast(f.Commodity, f.PredictedGrowth)
		}
	}

	uc.emit(ctx, rep, log)
	log.Info("analysis finished",
		applogger.Int("mines", rep.MineCount),
		applogger.Int("ranked", len(rep.Ranking)),
		applogger.Int("excluded", len(rep.Excluded)),
		applogger.Duration("took_ms", time.Since(start)),
	)
	return rep, nil
}

func (uc *AnalysisUseCase) loadMines(ctx context.Context, refresh bool, rep *models.Report) ([]models.MineRecord, error) {
	if !refresh {
		stored, err := uc.mines.Load(ctx)
		if err != nil {
			return nil, err
		}
		if len(stored) > 0 {
			return stored, nil
		}
	}
	fresh, excluded, err := uc.mines.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	rep.Excluded = append(rep.Excluded, excluded...)
	return fresh, nil
}

// buildGrowth fills Growth for mines that lack it (or all of them when
// refreshing) and returns the mines usable for regression.
func (uc *AnalysisUseCase) buildGrowth(ctx context.Context, mines []*models.MineRecord, book *prices.Book, p AnalysisParams, rep *models.Report, log *applogger.Logger) ([]*models.MineRecord, error) {
	working := make([]*models.MineRecord, 0, len(mines))
	for _, m := range mines {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		products := pricedProducts(m, book)
		if len(products) == 0 {
			uc.recordMine("no_priced_product")
			rep.Excluded = append(rep.Excluded, models.Exclusion{Kind: "mine", Name: m.Name, Reason: "no product with a price series"})
			continue
		}
		if len(m.Growth) > 0 && !p.RefreshGrowth {
			uc.recordMine("cached")
			working = append(working, m)
			continue
		}

		t0 := time.Now()
		veg, err := uc.vegetation.Vegetation(ctx, m.Location, p.MineSize, p.ControlSize, p.Start, p.End)
		uc.recordLatency("vegetation", time.Since(t0))
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Warn("vegetation unavailable", applogger.String("mine", m.Name), applogger.Error(err))
			uc.recordError("vegetation")
			uc.recordMine("source_unavailable")
			rep.Excluded = append(rep.Excluded, models.Exclusion{Kind: "mine", Name: m.Name, Reason: err.Error()})
			continue
		}

		sig, err := growth.Build(growth.Pair(veg), products, book, uc.growthOpts)
		rep.GrowthStats.Add(sig.Stats)
		if uc.metrics != nil {
			uc.metrics.RecordPoints(sig.Stats)
		}
		// baselines belong to the previous signal
		m.Growth = nil
		m.RSquared = nil
		if err != nil {
			if !errors.Is(err, models.ErrInsufficientData) {
				return nil, fmt.Errorf("growth for %s: %w", m.Name, err)
			}
			log.Info("mine dropped", applogger.String("mine", m.Name), applogger.Error(err))
			uc.recordMine("insufficient")
			rep.Excluded = append(rep.Excluded, models.Exclusion{Kind: "mine", Name: m.Name, Reason: err.Error()})
			continue
		}
		m.Growth = sig.Points
		uc.recordMine("built")
		log.Debug("growth signal built",
			applogger.String("mine", m.Name),
			applogger.Int("valid", sig.Stats.Valid),
			applogger.Int("skipped_no_price", sig.Stats.SkippedNoPrice),
			applogger.Int("skipped_undefined", sig.Stats.SkippedUndefined),
		)
		working = append(working, m)
	}
	return working, nil
}

// currentPrices resolves a price for every commodity with a model, falling
// back to the source's latest raw observation.
func (uc *AnalysisUseCase) currentPrices(ctx context.Context, byCommodity map[models.Commodity]models.CommodityModel, supplied map[models.Commodity]float64, log *applogger.Logger) map[models.Commodity]float64 {
	out := make(map[models.Commodity]float64, len(byCommodity))
	for c, m := range byCommodity {
		if !m.HasModel() {
			continue
		}
		if v, ok := supplied[c]; ok {
			out[c] = v
			continue
		}
		obs, err := uc.prices.Latest(ctx, c)
		if err != nil {
			log.Warn("no current price", applogger.String("commodity", c.String()), applogger.Error(err))
			uc.recordError("prices")
			continue
		}
		log.Info("using latest observed price",
			applogger.String("commodity", c.String()),
			applogger.Float64("price", obs.Price),
			applogger.Date("observed", obs.Date),
		)
		out[c] = obs.Price
	}
	return out
}

// emit hands the report to the optional sinks; their failures are logged.
func (uc *AnalysisUseCase) emit(ctx context.Context, rep *models.Report, log *applogger.Logger) {
	if uc.results != nil {
		if err := uc.results.SaveReport(ctx, rep); err != nil {
			log.Error("save report failed", applogger.Error(err))
			uc.recordError("result_store")
		}
	}
	if uc.publisher != nil {
		if err := uc.publisher.PublishForecasts(ctx, rep.RunID, rep.Ranking); err != nil {
			log.Error("publish forecasts failed", applogger.Error(err))
			uc.recordError("publish")
		}
	}
}

func (uc *AnalysisUseCase) recordMine(outcome string) {
	if uc.metrics != nil {
		uc.metrics.RecordMineProcessed(outcome)
	}
}

func (uc *AnalysisUseCase) recordError(kind string) {
	if uc.metrics != nil {
		uc.metrics.RecordError(kind)
	}
}

func (uc *AnalysisUseCase) recordLatency(op string, d time.Duration) {
	if uc.metrics != nil {
		uc.metrics.RecordLatency(op, d.Seconds())
	}
}

func producedBy(mines []*models.MineRecord, commodities []models.Commodity) []models.Commodity {
	var out []models.Commodity
	for _, c := range commodities {
		for _, m := range mines {
			if m.Produces(c) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

func containsCommodity(cs []models.Commodity, c models.Commodity) bool {
	for _, k := range cs {
		if k == c {
			return true
		}
	}
	return false
}

func pricedProducts(m *models.MineRecord, book *prices.Book) []models.Commodity {
	var out []models.Commodity
	for _, c := range m.Products {
		if book.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"MineWatch/internal/domain/models"
	"MineWatch/internal/domain/repository"
	"MineWatch/internal/handler/api"
	internalrepo "MineWatch/internal/repository"
	icache "MineWatch/internal/service/cache"
	srcmetrics "MineWatch/internal/service/metrics"
	"MineWatch/internal/service/quandl"
	"MineWatch/internal/service/ratelimit"
	"MineWatch/internal/service/wikipedia"
	"MineWatch/internal/services/analytics"
	"MineWatch/internal/services/growth"
	"MineWatch/internal/services/prices"
	"MineWatch/internal/usecase"
	"MineWatch/pkg/breaker"
	pcache "MineWatch/pkg/cache"
	pkgch "MineWatch/pkg/clickhouse"
	"MineWatch/pkg/config"
	pkgkafka "MineWatch/pkg/kafka"
	applogger "MineWatch/pkg/logger"
	"MineWatch/pkg/metrics"
	"MineWatch/pkg/server"
)

// sourceMissing reports upstream answers that mean "no data for this entity".
// They must not trip a breaker.
func sourceMissing(err error) bool {
	return errors.Is(err, models.ErrSourceUnavailable) || errors.Is(err, models.ErrUnknownCommodity)
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithConfig(cfg.Kafka.ProducerConfig),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideLogger builds the application logger. Error logs are aggregated to
// the Kafka log topic when one is configured.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, error) {
	l, err := applogger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if producer != nil && cfg.Kafka.LogTopic != "" {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.LogTopic,
			Publisher:      producer,
		})
	}
	return l, nil
}

// ProvideRecorder creates the Prometheus recorder and registers the upstream
// source collectors on its registry.
func ProvideRecorder() *metrics.Recorder {
	rec := metrics.New()
	srcmetrics.Register(rec.Registry())
	return rec
}

// ProvideMetrics exposes the recorder as the domain metrics sink.
func ProvideMetrics(rec *metrics.Recorder) repository.Metrics {
	return rec
}

// ProvideLimiter creates the per-host limiter shared by every HTTP source.
func ProvideLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
}

// ProvideMineRegistry creates the Wikipedia-backed mine registry.
func ProvideMineRegistry(cfg *config.Config, limiter *ratelimit.Limiter, log *applogger.Logger) (repository.MineRegistry, error) {
	br := breaker.New("wikipedia", cfg.Breaker, sourceMissing)
	c, err := wikipedia.New(cfg.Wikipedia, limiter, br, log)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ProvideQuandlClient creates the upstream price client.
func ProvideQuandlClient(cfg *config.Config, limiter *ratelimit.Limiter, log *applogger.Logger) (*quandl.Client, error) {
	br := breaker.New("quandl", cfg.Breaker, sourceMissing)
	return quandl.New(cfg.Prices.Quandl, limiter, br, log)
}

// ProvideCacheService creates the cache store: in-process memory, with Redis
// underneath when enabled.
func ProvideCacheService(cfg *config.Config, log *applogger.Logger) (pcache.Service, error) {
	if !cfg.Cache.Redis.Enabled {
		return pcache.NewMemoryCache(pcache.WithMemoryMaxSize(cfg.Cache.MemorySize)), nil
	}
	remote, err := pcache.NewRedisCache(pcache.WithRedisConfig(cfg.Cache.Redis.RedisConfig))
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	log.Info("redis cache connected",
		applogger.String("host", cfg.Cache.Redis.Host),
		applogger.Int("port", cfg.Cache.Redis.Port),
	)
	return pcache.NewLayeredCache(remote,
		pcache.WithLayeredMemorySize(cfg.Cache.MemorySize),
		pcache.WithLayeredMemoryTTL(cfg.Cache.LatestTTL),
	), nil
}

// ProvideClickHouseClient creates a ClickHouse client with the schema in
// place, or nil when ClickHouse is disabled.
func ProvideClickHouseClient(cfg *config.Config, log *applogger.Logger) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(pkgch.WithConfig(cfg.ClickHouse))
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.ClickHouseSchema); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	log.Info("clickhouse ready",
		applogger.String("host", cfg.ClickHouse.Host),
		applogger.String("database", cfg.ClickHouse.Database),
	)
	return client, nil
}

// ProvidePriceWriter returns the ClickHouse price store, or nil without one.
func ProvidePriceWriter(ch *pkgch.Client, log *applogger.Logger) repository.PriceWriter {
	if ch == nil {
		return nil
	}
	return internalrepo.NewCHPriceStore(ch, log)
}

// ProvidePriceSource selects the configured price backend and wraps it with
// the read-through cache when enabled.
func ProvidePriceSource(cfg *config.Config, q *quandl.Client, ch *pkgch.Client, store pcache.Service, log *applogger.Logger) repository.PriceSource {
	var src repository.PriceSource = q
	if cfg.Prices.Backend == "clickhouse" && ch != nil {
		src = internalrepo.NewCHPriceStore(ch, log)
	}
	if !cfg.Cache.Enabled {
		return src
	}
	return icache.NewPriceSource(src, store, cfg.Cache.Config, log)
}

// ProvideVegetationSource creates the satellite client, cached when enabled.
func ProvideVegetationSource(cfg *config.Config, store pcache.Service, log *applogger.Logger) repository.VegetationSource {
	br := breaker.New("satellite", cfg.Breaker, sourceMissing)
	var src repository.VegetationSource = analytics.NewVegetationClient(cfg.Satellite, br, log)
	if !cfg.Cache.Enabled {
		return src
	}
	return icache.NewVegetationSource(src, store, cfg.Cache.Config, log)
}

func ProvideMineStore(cfg *config.Config) repository.MineStore {
	return internalrepo.NewFileMineStore(cfg.Store.MinesPath)
}

func ProvideReportStore(cfg *config.Config) *internalrepo.FileReportStore {
	return internalrepo.NewFileReportStore(cfg.Store.ReportDir)
}

func ProvideReportReader(fs *internalrepo.FileReportStore) repository.ReportReader {
	return fs
}

// ProvideResultStore writes reports to disk and, when enabled, to ClickHouse.
func ProvideResultStore(fs *internalrepo.FileReportStore, ch *pkgch.Client) repository.ResultStore {
	if ch == nil {
		return fs
	}
	return internalrepo.MultiResultStore{fs, internalrepo.NewCHResultStore(ch)}
}

// ProvidePublisher creates the Kafka forecast publisher, or nil without Kafka.
func ProvidePublisher(cfg *config.Config, producer *pkgkafka.Producer) repository.Publisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

func ProvideSweep(cfg *config.Config, m repository.Metrics, log *applogger.Logger) *usecase.SweepUseCase {
	return usecase.NewSweepUseCase(cfg.Analysis.Workers, m, log)
}

func ProvideMines(registry repository.MineRegistry, store repository.MineStore, m repository.Metrics, log *applogger.Logger) *usecase.MinesUseCase {
	return usecase.NewMinesUseCase(registry, store, m, log)
}

// ProvideAnalysis creates the pipeline with buffers and clipping from config.
func ProvideAnalysis(
	cfg *config.Config,
	mines *usecase.MinesUseCase,
	vegetation repository.VegetationSource,
	priceSource repository.PriceSource,
	store repository.MineStore,
	results repository.ResultStore,
	publisher repository.Publisher,
	m repository.Metrics,
	sweep *usecase.SweepUseCase,
	log *applogger.Logger,
) *usecase.AnalysisUseCase {
	buffers := prices.Buffers{
		InterpolationDays: cfg.Analysis.Buffers.InterpolationDays,
		CoverageDays:      cfg.Analysis.Buffers.CoverageDays,
	}
	opts := growth.Options{
		LowerPercentile: cfg.Analysis.LowerPercentile,
		UpperPercentile: cfg.Analysis.UpperPercentile,
	}
	return usecase.NewAnalysisUseCase(mines, vegetation, priceSource, store, results, publisher, m, sweep, buffers, opts, log)
}

func ProvideReportQuery(reader repository.ReportReader) *usecase.ReportQueryUseCase {
	return usecase.NewReportQueryUseCase(reader)
}

// ProvidePriceSync copies quandl prices into the price store.
func ProvidePriceSync(q *quandl.Client, writer repository.PriceWriter, m repository.Metrics, log *applogger.Logger) *usecase.PriceSyncUseCase {
	return usecase.NewPriceSyncUseCase(q, writer, m, log)
}

func ProvideResultsHandler(log *applogger.Logger, reports *usecase.ReportQueryUseCase) *api.ResultsEchoHandler {
	return api.NewResultsEchoHandler(log, reports)
}

// ProvideApp creates the application.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	rec *metrics.Recorder,
	analysis *usecase.AnalysisUseCase,
	mines *usecase.MinesUseCase,
	reports *usecase.ReportQueryUseCase,
	sync *usecase.PriceSyncUseCase,
	handler *api.ResultsEchoHandler,
	store pcache.Service,
	ch *pkgch.Client,
	publisher repository.Publisher,
) *server.App {
	app := server.New(cfg, log, rec, analysis, mines, reports, sync, handler)
	app.AddCloser("cache", store)
	if publisher != nil {
		app.AddCloser("kafka", publisher)
	}
	if ch != nil {
		app.AddCloser("clickhouse", ch)
	}
	return app
}

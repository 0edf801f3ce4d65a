package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"

	"MineWatch/internal/domain/models"
)

// Config controls where batch runs push their metrics.
type Config struct {
	PushgatewayURL string `yaml:"pushgateway_url" validate:"omitempty,url"`
	Job            string `yaml:"job" default:"minewatch"`
}

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	registry *prometheus.Registry

	minesTotal     *prometheus.CounterVec
	pointsTotal    *prometheus.CounterVec
	modelR2        *prometheus.GaugeVec
	modelLag       *prometheus.GaugeVec
	forecastGrowth *prometheus.GaugeVec
	errorsTotal    *prometheus.CounterVec
	latency        *prometheus.HistogramVec
}

// New creates a recorder whose collectors live on their own registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		minesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "minewatch_mines_processed_total",
				Help: "Mines processed by growth outcome",
			},
			[]string{"outcome"},
		),
		pointsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "minewatch_growth_points_total",
				Help: "Growth observations by outcome",
			},
			[]string{"outcome"},
		),
		modelR2: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "minewatch_model_r_squared",
				Help: "Pooled R² of the best model per commodity",
			},
			[]string{"commodity"},
		),
		modelLag: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "minewatch_model_best_lag_days",
				Help: "Best lag in days per commodity",
			},
			[]string{"commodity"},
		),
		forecastGrowth: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "minewatch_forecast_growth",
				Help: "Predicted growth at the current price",
			},
			[]string{"commodity"},
		),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "minewatch_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "minewatch_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// Registry exposes the recorder's registry, e.g. for promhttp or extra collectors.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// RecordMineProcessed counts one mine by outcome.
func (r *Recorder) RecordMineProcessed(outcome string) {
	r.minesTotal.WithLabelValues(outcome).Inc()
}

// RecordPoints adds one mine's point outcomes.
func (r *Recorder) RecordPoints(stats models.GrowthStats) {
	r.pointsTotal.WithLabelValues("valid").Add(float64(stats.Valid))
	r.pointsTotal.WithLabelValues("undefined").Add(float64(stats.SkippedUndefined))
	r.pointsTotal.WithLabelValues("no_price").Add(float64(stats.SkippedNoPrice))
	r.pointsTotal.WithLabelValues("zero_period").Add(float64(stats.SkippedZeroPeriod))
}

// RecordModel records the winning lag and fit for a commodity.
func (r *Recorder) RecordModel(c models.Commodity, lag int, r2 float64) {
	r.modelR2.WithLabelValues(c.String()).Set(r2)
	r.modelLag.WithLabelValues(c.String()).Set(float64(lag))
}

// RecordForecast records the predicted growth for a commodity.
func (r *Recorder) RecordForecast(c models.Commodity, growth float64) {
	r.forecastGrowth.WithLabelValues(c.String()).Set(growth)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Push sends the registry to a Prometheus pushgateway. A blank URL is a no-op.
func (r *Recorder) Push(ctx context.Context, cfg Config) error {
	if cfg.PushgatewayURL == "" {
		return nil
	}
	job := cfg.Job
	if job == "" {
		job = "minewatch"
	}
	if err := push.New(cfg.PushgatewayURL, job).Gatherer(r.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}

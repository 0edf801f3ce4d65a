package metrics

import (
    "errors"
    "sync"
    "time"

    "github.com/prometheus/client_golang/prometheus"

    "MineWatch/internal/domain/models"
)

var (
    once sync.Once

    SourceLatency = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{
            Namespace: "minewatch",
            Subsystem: "source",
            Name:      "latency_seconds",
            Help:      "Latency of calls to remote data sources",
            Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
        },
        []string{"source"},
    )

    SourceErrors = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "minewatch",
            Subsystem: "source",
            Name:      "errors_total",
            Help:      "Failed calls to remote data sources by kind",
        },
        []string{"source", "kind"},
    )
)

// Register adds the source collectors to reg once per process.
func Register(reg prometheus.Registerer) {
    once.Do(func() {
        reg.MustRegister(SourceLatency, SourceErrors)
    })
}

// ObserveCall records one call to source that started at start.
func ObserveCall(source string, start time.Time, err error) {
    SourceLatency.WithLabelValues(source).Observe(time.Since(start).Seconds())
    if err == nil {
        return
    }
    SourceErrors.WithLabelValues(source, errorKind(err)).Inc()
}

func errorKind(err error) string {
    switch {
    case errors.Is(err, models.ErrSourceUnavailable):
        return "unavailable"
    case errors.Is(err, models.ErrUnknownCommodity):
        return "unknown_commodity"
    default:
        return "failure"
    }
}

// Package breaker wraps sony/gobreaker for upstream data collaborators.
package breaker

import (
	"errors"
	"time"

	cb "github.com/sony/gobreaker"
)

// ErrOpen is returned while the breaker rejects calls.
var ErrOpen = errors.New("circuit breaker open")

// Config tunes when the breaker trips.
type Config struct {
	ConsecutiveFailures uint32        `yaml:"consecutive_failures" default:"3"`
	MinRequests         uint32        `yaml:"min_requests" default:"20"`
	FailureRatio        float64       `yaml:"failure_ratio" default:"0.5"`
	Interval            time.Duration `yaml:"interval" default:"60s"`
	Timeout             time.Duration `yaml:"timeout" default:"30s"`
}

type Breaker struct{ cb *cb.CircuitBreaker }

// New builds a breaker. Errors for which benign returns true (for example
// "this entity has no data") count as successes.
func New(name string, cfg Config, benign func(error) bool) *Breaker {
	st := cb.Settings{Name: name, Interval: cfg.Interval, Timeout: cfg.Timeout}
	st.ReadyToTrip = func(counts cb.Counts) bool {
		if cfg.ConsecutiveFailures > 0 && counts.ConsecutiveFailures >= cfg.ConsecutiveFailures {
			return true
		}
		if counts.Requests < cfg.MinRequests || cfg.FailureRatio <= 0 {
			return false
		}
		return float64(counts.TotalFailures)/float64(counts.Requests) > cfg.FailureRatio
	}
	if benign != nil {
		st.IsSuccessful = func(err error) bool { return err == nil || benign(err) }
	}
	return &Breaker{cb: cb.NewCircuitBreaker(st)}
}

// Do runs fn through the breaker.
func (b *Breaker) Do(fn func() error) error {
	_, err := b.cb.Execute(func() (interface{}, error) { return nil, fn() })
	if errors.Is(err, cb.ErrOpenState) || errors.Is(err, cb.ErrTooManyRequests) {
		return errors.Join(ErrOpen, err)
	}
	return err
}

// State reports the current breaker state name.
func (b *Breaker) State() string { return b.cb.State().String() }

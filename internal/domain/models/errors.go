package models

import "errors"

// Error taxonomy shared by the pipeline. Callers match with errors.Is.
var (
	// ErrUnknownCommodity: commodity outside the vocabulary or without a price source.
	ErrUnknownCommodity = errors.New("unknown commodity")

	// ErrDateOutOfRange: price requested outside the interpolated window.
	ErrDateOutOfRange = errors.New("date out of range")

	// ErrInsufficientData: too few points to normalise or regress.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrDegenerateInput: zero variance in a regression's independent variable.
	ErrDegenerateInput = errors.New("degenerate input")

	// ErrSourceUnavailable: a collaborator had no usable data for one entity.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrNoPredictiveModel: nothing usable survived filtering.
	ErrNoPredictiveModel = errors.New("no predictive model could be built")

	// ErrNoReport: no analysis run has been persisted yet.
	ErrNoReport = errors.New("no report available")
)

// IsDataInsufficiency reports whether err means "skip this combination".
func IsDataInsufficiency(err error) bool {
	return errors.Is(err, ErrInsufficientData) || errors.Is(err, ErrDegenerateInput)
}

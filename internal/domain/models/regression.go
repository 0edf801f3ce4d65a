package models

import "time"

// RegressionModel is an OLS fit of growth against price.
type RegressionModel struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	RSquared  float64 `json:"r_squared"`
	N         int     `json:"n"`
}

// Predict evaluates the fitted line at price.
func (m RegressionModel) Predict(price float64) float64 {
	return m.Intercept + m.Slope*price
}

// CommodityModel is the outcome of the lag sweep for one commodity.
type CommodityModel struct {
	Commodity     Commodity        `json:"commodity"`
	BestLag       int              `json:"best_lag"`
	Model         *RegressionModel `json:"model,omitempty"`
	Mines         []string         `json:"mines,omitempty"`
	RSquaredByLag []float64        `json:"r_squared_by_lag"`
}

// HasModel reports whether any lag produced a usable model.
func (m CommodityModel) HasModel() bool { return m.Model != nil }

// Forecast is the predicted growth for one commodity at its current price.
type Forecast struct {
	Rank            int       `json:"rank"`
	Commodity       Commodity `json:"commodity"`
	BestLag         int       `json:"best_lag"`
	RSquared        float64   `json:"r_squared"`
	CurrentPrice    float64   `json:"current_price"`
	PredictedGrowth float64   `json:"predicted_growth"`
}

// Exclusion records why an entity dropped out of the run.
type Exclusion struct {
	Kind   string `json:"kind"` // mine, commodity
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// GrowthStats aggregates point outcomes across all mines of a run.
type GrowthStats struct {
	Valid             int `json:"valid"`
	SkippedUndefined  int `json:"skipped_undefined"`
	SkippedNoPrice    int `json:"skipped_no_price"`
	SkippedZeroPeriod int `json:"skipped_zero_period"`
}

// Add accumulates o into s.
func (s *GrowthStats) Add(o GrowthStats) {
	s.Valid += o.Valid
	s.SkippedUndefined += o.SkippedUndefined
	s.SkippedNoPrice += o.SkippedNoPrice
	s.SkippedZeroPeriod += o.SkippedZeroPeriod
}

// Report is the persisted outcome of one analysis run.
type Report struct {
	RunID       string           `json:"run_id"`
	GeneratedAt time.Time        `json:"generated_at"`
	Start       time.Time        `json:"start"`
	End         time.Time        `json:"end"`
	MaxLag      int              `json:"max_lag"`
	MineCount   int              `json:"mine_count"`
	Models      []CommodityModel `json:"models"`
	Ranking     []Forecast       `json:"ranking"`
	GrowthStats GrowthStats      `json:"growth_stats"`
	Excluded    []Exclusion      `json:"excluded,omitempty"`
}

// Model returns the sweep result for c.
func (r *Report) Model(c Commodity) (CommodityModel, bool) {
	for _, m := range r.Models {
		if m.Commodity == c {
			return m, true
		}
	}
	return CommodityModel{}, false
}

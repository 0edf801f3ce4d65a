package models

import "time"

// PriceObservation is one raw, sparse price point from a price source.
type PriceObservation struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// VegetationReading is a mean vegetation index at one satellite timestep.
// Mean is nil when the service returned no value.
type VegetationReading struct {
	Time time.Time `json:"t"`
	Mean *float64  `json:"mean"`
}

// VegetationSeries holds the mine footprint and control region readings.
type VegetationSeries struct {
	Mine    []VegetationReading `json:"mine"`
	Control []VegetationReading `json:"control"`
}

// GrowthObservation is a season-scaled size sample. SeasonScaledSize is nil
// when either underlying reading was undefined.
type GrowthObservation struct {
	Date             time.Time
	SeasonScaledSize *float64
}

// Defined reports whether the observation carries a value.
func (o GrowthObservation) Defined() bool { return o.SeasonScaledSize != nil }

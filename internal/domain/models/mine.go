package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the textual calendar date form used across the module.
const DateLayout = "2006-01-02"

// Location is a WGS84 coordinate in degrees.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// GrowthPoint is one normalised growth value in [0,1].
type GrowthPoint struct {
	Growth float64   `json:"growth"`
	Date   time.Time `json:"date"`
}

type growthPointJSON struct {
	Growth float64 `json:"growth"`
	Date   string  `json:"date"`
}

func (p GrowthPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(growthPointJSON{Growth: p.Growth, Date: p.Date.Format(DateLayout)})
}

func (p *GrowthPoint) UnmarshalJSON(b []byte) error {
	var raw growthPointJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	d, err := time.Parse(DateLayout, raw.Date)
	if err != nil {
		return fmt.Errorf("growth point date: %w", err)
	}
	p.Growth = raw.Growth
	p.Date = d
	return nil
}

// MineRecord is one mine with its derived growth signal and baseline fits.
// RSquared is keyed by commodity then lag in days.
type MineRecord struct {
	Name     string                        `json:"name"`
	Location Location                      `json:"location"`
	Products []Commodity                   `json:"products"`
	Growth   []GrowthPoint                 `json:"growth,omitempty"`
	RSquared map[Commodity]map[int]float64 `json:"RSquared,omitempty"`
}

// Produces reports whether the mine lists c among its products.
func (m *MineRecord) Produces(c Commodity) bool {
	for _, p := range m.Products {
		if p == c {
			return true
		}
	}
	return false
}

// Baseline returns the single-mine R² for (c, lag) if it was computed.
func (m *MineRecord) Baseline(c Commodity, lag int) (float64, bool) {
	byLag, ok := m.RSquared[c]
	if !ok {
		return 0, false
	}
	r2, ok := byLag[lag]
	return r2, ok
}

// SetBaseline records the single-mine R² for (c, lag).
func (m *MineRecord) SetBaseline(c Commodity, lag int, r2 float64) {
	if m.RSquared == nil {
		m.RSquared = make(map[Commodity]map[int]float64)
	}
	if m.RSquared[c] == nil {
		m.RSquared[c] = make(map[int]float64)
	}
	m.RSquared[c][lag] = r2
}

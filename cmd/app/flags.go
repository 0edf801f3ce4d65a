package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"MineWatch/internal/domain/models"
	"MineWatch/pkg/util"
)

// parsePrices turns repeated NAME=PRICE flags into a price map. Later
// entries win.
func parsePrices(entries []string) (map[models.Commodity]float64, error) {
	out := make(map[models.Commodity]float64, len(entries))
	for _, e := range entries {
		name, raw, ok := strings.Cut(e, "=")
		if !ok {
			return nil, fmt.Errorf("price %q: want NAME=PRICE", e)
		}
		c, err := models.ParseCommodity(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("price %q: %w", e, err)
		}
		if v <= 0 {
			return nil, fmt.Errorf("price %q: must be positive", e)
		}
		out[c] = v
	}
	return out, nil
}

func parseCommodities(names []string) ([]models.Commodity, error) {
	out := make([]models.Commodity, 0, len(names))
	for _, n := range names {
		c, err := models.ParseCommodity(strings.TrimSpace(n))
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func parseDate(flag, v string) (time.Time, error) {
	t, err := util.ParseDate(v)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: %w", flag, err)
	}
	return t, nil
}

// currentPrices merges configured prices with flag prices, flags last.
func currentPrices(configured map[string]float64, flags []string) (map[models.Commodity]float64, error) {
	out := make(map[models.Commodity]float64, len(configured)+len(flags))
	for name, v := range configured {
		c, err := models.ParseCommodity(name)
		if err != nil {
			return nil, fmt.Errorf("analysis.current_prices: %w", err)
		}
		out[c] = v
	}
	fromFlags, err := parsePrices(flags)
	if err != nil {
		return nil, err
	}
	for c, v := range fromFlags {
		out[c] = v
	}
	return out, nil
}

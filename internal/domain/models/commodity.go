package models

import (
	"fmt"
	"sort"
	"strings"
)

// Commodity is a tracked market commodity.
type Commodity string

const (
	Gold    Commodity = "Gold"
	Silver  Commodity = "Silver"
	Copper  Commodity = "Copper"
	Uranium Commodity = "Uranium"
	Coal    Commodity = "Coal"
	Lead    Commodity = "Lead"
)

// Commodities is the fixed vocabulary in its canonical order.
var Commodities = []Commodity{Gold, Silver, Copper, Uranium, Coal, Lead}

// ParseCommodity resolves a case-insensitive name against the vocabulary.
func ParseCommodity(s string) (Commodity, error) {
	name := strings.TrimSpace(s)
	for _, c := range Commodities {
		if strings.EqualFold(string(c), name) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCommodity, s)
}

// IsKnown reports whether c belongs to the vocabulary.
func (c Commodity) IsKnown() bool {
	for _, k := range Commodities {
		if k == c {
			return true
		}
	}
	return false
}

func (c Commodity) String() string { return string(c) }

// SortCommodities orders commodities by vocabulary position, unknown names last.
func SortCommodities(cs []Commodity) {
	rank := func(c Commodity) int {
		for i, k := range Commodities {
			if k == c {
				return i
			}
		}
		return len(Commodities)
	}
	sort.SliceStable(cs, func(i, j int) bool {
		ri, rj := rank(cs[i]), rank(cs[j])
		if ri != rj {
			return ri < rj
		}
		return cs[i] < cs[j]
	})
}

package reporting

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MineWatch/internal/domain/models"
)

func report() *models.Report {
	return &models.Report{
		RunID:  "r",
		MaxLag: 2,
		Models: []models.CommodityModel{
			{Commodity: models.Copper, RSquaredByLag: []float64{0.1, 0.25, 0.5}},
			{Commodity: models.Gold, RSquaredByLag: []float64{0.9, 0.8, 0.7}},
		},
		Ranking: []models.Forecast{
			{Rank: 1, Commodity: models.Gold, PredictedGrowth: 0.75, BestLag: 0, RSquared: 0.9, CurrentPrice: 1800},
			{Rank: 2, Commodity: models.Copper, PredictedGrowth: 0.5, BestLag: 2, RSquared: 0.5, CurrentPrice: 9000},
		},
		Excluded: []models.Exclusion{{Kind: "mine", Name: "Ghost", Reason: "no data for this mine"}},
	}
}

func TestWriteLagTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteLagTable(&buf, report()))

	assert.Equal(t, "lag,Gold,Copper\n0,0.9000,0.1000\n1,0.8000,0.2500\n2,0.7000,0.5000\n", buf.String())
}

func TestWriteLagTable_ShortSeriesBlank(t *testing.T) {
	rep := report()
	rep.Models[0].RSquaredByLag = []float64{0.1}
	var buf bytes.Buffer
	require.NoError(t, WriteLagTable(&buf, rep))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, "2,0.7000,", lines[3])
}

func TestWriteRanking(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRanking(&buf, report().Ranking))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "RANK"))
	assert.Contains(t, lines[1], "Gold")
	assert.Contains(t, lines[1], "0.7500")
	assert.Contains(t, lines[2], "Copper")
}

func TestWriteExclusions(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteExclusions(&buf, nil))
	assert.Empty(t, buf.String())

	require.NoError(t, WriteExclusions(&buf, report().Excluded))
	assert.Contains(t, buf.String(), "no data for this mine")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, report()))

	var back models.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, "r", back.RunID)
	assert.Len(t, back.Ranking, 2)
}

func TestWriteMines(t *testing.T) {
	mines := []models.MineRecord{{
		Name:     "Bingham Canyon",
		Location: models.Location{Lat: 40.52, Lon: -112.15},
		Products: []models.Commodity{models.Copper, models.Gold},
		Growth:   []models.GrowthPoint{{Growth: 0.5}, {Growth: 0.1}},
	}}
	var buf bytes.Buffer
	require.NoError(t, WriteMines(&buf, mines))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "Copper,Gold")
	assert.Contains(t, lines[1], "40.5200")
}

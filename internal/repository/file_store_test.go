package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MineWatch/internal/domain/models"
)

func TestFileMineStore_MissingFileIsEmpty(t *testing.T) {
	s := NewFileMineStore(filepath.Join(t.TempDir(), "mineData.json"))
	mines, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, mines)
}

func TestFileMineStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "mineData.json")
	s := NewFileMineStore(path)
	ctx := context.Background()

	m := models.MineRecord{
		Name:     "Super Pit",
		Location: models.Location{Lat: -30.78, Lon: 121.5},
		Products: []models.Commodity{models.Gold},
		Growth: []models.GrowthPoint{
			{Growth: 0.25, Date: time.Date(2019, 3, 1, 0, 0, 0, 0, time.UTC)},
		},
	}
	m.SetBaseline(models.Gold, 30, 0.42)
	require.NoError(t, s.Save(ctx, []models.MineRecord{m}))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Super Pit", got[0].Name)
	assert.Equal(t, []models.Commodity{models.Gold}, got[0].Products)
	require.Len(t, got[0].Growth, 1)
	assert.True(t, got[0].Growth[0].Date.Equal(m.Growth[0].Date))
	r2, ok := got[0].Baseline(models.Gold, 30)
	assert.True(t, ok)
	assert.Equal(t, 0.42, r2)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}

func TestFileMineStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mineData.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err := NewFileMineStore(path).Load(context.Background())
	assert.Error(t, err)
}

func TestFileReportStore_LatestWins(t *testing.T) {
	dir := t.TempDir()
	s := NewFileReportStore(dir)
	ctx := context.Background()

	_, err := s.LatestReport(ctx)
	assert.ErrorIs(t, err, models.ErrNoReport)

	require.NoError(t, s.SaveReport(ctx, &models.Report{RunID: "a", MaxLag: 10}))
	require.NoError(t, s.SaveReport(ctx, &models.Report{RunID: "b", MaxLag: 20}))

	rep, err := s.LatestReport(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", rep.RunID)
	assert.Equal(t, 20, rep.MaxLag)

	assert.FileExists(t, filepath.Join(dir, "report-a.json"))
	assert.FileExists(t, filepath.Join(dir, "report-b.json"))
}

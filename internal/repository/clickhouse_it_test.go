package repository

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"MineWatch/internal/domain/models"
	pkgch "MineWatch/pkg/clickhouse"
)

func setupClickHouse(t *testing.T) *pkgch.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "clickhouse/clickhouse-server:24.1-alpine",
			ExposedPorts: []string{"9000/tcp"},
			WaitingFor: wait.ForAll(
				wait.ForLog("Ready for connections").WithStartupTimeout(60*time.Second),
				wait.ForListeningPort("9000/tcp"),
			),
			Env: map[string]string{
				"CLICKHOUSE_DB":       "minewatch",
				"CLICKHOUSE_USER":     "default",
				"CLICKHOUSE_PASSWORD": "",
			},
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "9000")
	require.NoError(t, err)
	p, err := strconv.Atoi(port.Port())
	require.NoError(t, err)

	client, err := pkgch.NewClient(
		pkgch.WithHost(host),
		pkgch.WithPort(p),
		pkgch.WithDatabase("minewatch"),
		pkgch.WithCredentials("default", ""),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.InitSchema(ctx, ClickHouseSchema))
	return client
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCHPriceStore_Integration(t *testing.T) {
	client := setupClickHouse(t)
	s := NewCHPriceStore(client, nil)
	ctx := context.Background()

	_, err := s.Prices(ctx, models.Gold, day(2020, 1, 1), day(2020, 1, 31))
	assert.ErrorIs(t, err, models.ErrSourceUnavailable)

	require.NoError(t, s.SavePrices(ctx, models.Gold, []models.PriceObservation{
		{Date: day(2020, 1, 2), Price: 1520},
		{Date: day(2020, 1, 3), Price: 1550},
		{Date: day(2020, 2, 3), Price: 1580},
	}))

	obs, err := s.Prices(ctx, models.Gold, day(2020, 1, 1), day(2020, 1, 31))
	require.NoError(t, err)
	require.Len(t, obs, 2)
	assert.True(t, obs[0].Date.Equal(day(2020, 1, 2)))
	assert.Equal(t, 1550.0, obs[1].Price)

	latest, err := s.Latest(ctx, models.Gold)
	require.NoError(t, err)
	assert.True(t, latest.Date.Equal(day(2020, 2, 3)))
	assert.Equal(t, 1580.0, latest.Price)

	_, err = s.Latest(ctx, models.Lead)
	assert.ErrorIs(t, err, models.ErrSourceUnavailable)
}

func TestCHResultStore_Integration(t *testing.T) {
	client := setupClickHouse(t)
	s := NewCHResultStore(client)
	ctx := context.Background()

	r := &models.Report{
		RunID:       "run-it",
		GeneratedAt: time.Now(),
		Models: []models.CommodityModel{
			{Commodity: models.Gold, BestLag: 1, Model: &models.RegressionModel{RSquared: 0.5}, RSquaredByLag: []float64{0.1, 0.5}},
		},
		Ranking: []models.Forecast{{Rank: 1, Commodity: models.Gold, BestLag: 1, RSquared: 0.5, CurrentPrice: 1800, PredictedGrowth: 0.7}},
	}
	require.NoError(t, s.SaveReport(ctx, r))

	var n uint64
	require.NoError(t, client.DB().QueryRowContext(ctx, "SELECT count() FROM lag_r2 WHERE run_id = ?", "run-it").Scan(&n))
	assert.Equal(t, uint64(2), n)

	var growth float64
	require.NoError(t, client.DB().QueryRowContext(ctx, "SELECT growth FROM forecasts WHERE run_id = ? AND rank = 1", "run-it").Scan(&growth))
	assert.Equal(t, 0.7, growth)
}

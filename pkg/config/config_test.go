package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_DefaultsOnly(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "development", c.Environment)
	assert.Equal(t, 90, c.Analysis.Horizon)
	assert.Equal(t, 31, c.Analysis.Buffers.InterpolationDays)
	assert.Equal(t, 124, c.Analysis.Buffers.CoverageDays)
	assert.Equal(t, 5.0, c.Analysis.LowerPercentile)
	assert.Equal(t, "quandl", c.Prices.Backend)
	assert.Equal(t, "mineData.json", c.Store.MinesPath)
	assert.Equal(t, 120*time.Second, c.Satellite.Timeout)
	assert.Equal(t, 12*time.Hour, c.Cache.PriceTTL)
	assert.Equal(t, "minewatch", c.Cache.Redis.Prefix)
	assert.Equal(t, uint32(3), c.Breaker.ConsecutiveFailures)
	assert.Equal(t, 8080, c.Server.Port)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
environment: production
analysis:
  start: "2016-01-01"
  end: "2019-06-30"
  horizon: 30
  current_prices:
    Gold: 1800
prices:
  quandl:
    api_key: abc
cache:
  enabled: true
  redis:
    enabled: true
    host: redis
kafka:
  enabled: true
  brokers: ["k1:9092", "k2:9092"]
server:
  read_timeout: 3s
`)
	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "production", c.Environment)
	assert.Equal(t, 30, c.Analysis.Horizon)
	assert.Equal(t, 2000.0, c.Analysis.MineSize)
	assert.Equal(t, 1800.0, c.Analysis.CurrentPrices["Gold"])
	assert.Equal(t, "abc", c.Prices.Quandl.APIKey)
	assert.True(t, c.Cache.Enabled)
	assert.True(t, c.Cache.Redis.Enabled)
	assert.Equal(t, "redis", c.Cache.Redis.Host)
	assert.Equal(t, 6379, c.Cache.Redis.Port)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
	assert.Equal(t, "minewatch.forecasts", c.Kafka.Topic)
	assert.Equal(t, 3*time.Second, c.Server.ReadTimeout)

	start, end, err := c.Analysis.Window()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2019, 6, 30, 0, 0, 0, 0, time.UTC), end)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"horizon beyond coverage": "analysis:\n  horizon: 200\n",
		"bad backend":             "prices:\n  backend: csv\n",
		"clickhouse disabled":     "prices:\n  backend: clickhouse\n",
		"bad date":                "analysis:\n  start: 01/02/2020\n",
		"control smaller":         "analysis:\n  mine_size: 5000\n  control_size: 1000\n",
		"kafka without brokers":   "kafka:\n  enabled: true\n",
		"negative price":          "analysis:\n  current_prices:\n    Gold: -1\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	env := map[string]string{
		"QUANDL_API_KEY":  "secret",
		"KAFKA_BROKERS":   "a:1,b:2",
		"CLICKHOUSE_HOST": "ch",
		"REDIS_PORT":      "6380",
	}
	require.NoError(t, c.applyEnv(func(k string) string { return env[k] }))

	assert.Equal(t, "secret", c.Prices.Quandl.APIKey)
	assert.Equal(t, []string{"a:1", "b:2"}, c.Kafka.Brokers)
	assert.True(t, c.Kafka.Enabled)
	assert.True(t, c.ClickHouse.Enabled)
	assert.Equal(t, 6380, c.Cache.Redis.Port)

	env["REDIS_PORT"] = "x"
	assert.Error(t, c.applyEnv(func(k string) string { return env[k] }))
}

func TestShippedConfigLoads(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "config", "config.yaml"))
	require.NoError(t, err)
	assert.Len(t, c.Prices.Quandl.Datasets, 6)
	assert.Equal(t, "USD (PM)", c.Prices.Quandl.Datasets["Gold"].Column)
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	icache "MineWatch/internal/service/cache"
	"MineWatch/internal/service/quandl"
	"MineWatch/internal/service/wikipedia"
	"MineWatch/internal/services/analytics"
	"MineWatch/pkg/breaker"
	pcache "MineWatch/pkg/cache"
	pkgch "MineWatch/pkg/clickhouse"
	pkgkafka "MineWatch/pkg/kafka"
	applogger "MineWatch/pkg/logger"
	"MineWatch/pkg/metrics"
)

const DateLayout = "2006-01-02"

type Config struct {
	Environment string                     `yaml:"environment" default:"development" validate:"required"`
	Log         applogger.Config           `yaml:"log"`
	Analysis    AnalysisConfig             `yaml:"analysis"`
	Store       StoreConfig                `yaml:"store"`
	Wikipedia   wikipedia.Config           `yaml:"wikipedia"`
	Prices      PricesConfig               `yaml:"prices"`
	Satellite   analytics.VegetationConfig `yaml:"satellite"`
	RateLimit   RateLimitConfig            `yaml:"rate_limit"`
	Breaker     breaker.Config             `yaml:"breaker"`
	Cache       CacheConfig                `yaml:"cache"`
	ClickHouse  pkgch.ClientConfig         `yaml:"clickhouse"`
	Kafka       KafkaConfig                `yaml:"kafka"`
	Metrics     metrics.Config             `yaml:"metrics"`
	Server      ServerConfig               `yaml:"server"`
}

// AnalysisConfig holds run parameters. CLI flags override them.
type AnalysisConfig struct {
	Start           string             `yaml:"start" validate:"omitempty,datetime=2006-01-02"`
	End             string             `yaml:"end" validate:"omitempty,datetime=2006-01-02"`
	Horizon         int                `yaml:"horizon" default:"90" validate:"gte=0"`
	MineSize        float64            `yaml:"mine_size" default:"2000" validate:"gt=0"`
	ControlSize     float64            `yaml:"control_size" default:"10000" validate:"gtfield=MineSize"`
	Commodities     []string           `yaml:"commodities"`
	CurrentPrices   map[string]float64 `yaml:"current_prices" validate:"dive,gt=0"`
	Top             int                `yaml:"top" validate:"gte=0"`
	Workers         int                `yaml:"workers" default:"4" validate:"gte=1,lte=64"`
	Buffers         BuffersConfig      `yaml:"buffers"`
	LowerPercentile float64            `yaml:"lower_percentile" default:"5" validate:"gte=0,lt=100"`
	UpperPercentile float64            `yaml:"upper_percentile" default:"95" validate:"gtfield=LowerPercentile,lte=100"`
}

// BuffersConfig are the nested buffer widths around the window, in days.
type BuffersConfig struct {
	InterpolationDays int `yaml:"interpolation_days" default:"31" validate:"gte=1"`
	CoverageDays      int `yaml:"coverage_days" default:"124" validate:"gte=1"`
}

type StoreConfig struct {
	MinesPath string `yaml:"mines_path" default:"mineData.json" validate:"required"`
	ReportDir string `yaml:"report_dir" default:"reports" validate:"required"`
}

type PricesConfig struct {
	Backend string        `yaml:"backend" default:"quandl" validate:"oneof=quandl clickhouse"`
	Quandl  quandl.Config `yaml:"quandl"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps" default:"5" validate:"gte=0"`
	Burst int     `yaml:"burst" default:"5" validate:"gte=1"`
}

type CacheConfig struct {
	icache.Config `yaml:",inline"`
	MemorySize    int         `yaml:"memory_size" default:"2000" validate:"gte=1"`
	Redis         RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Enabled            bool `yaml:"enabled"`
	pcache.RedisConfig `yaml:",inline"`
}

type KafkaConfig struct {
	Enabled                 bool   `yaml:"enabled"`
	Topic                   string `yaml:"topic" default:"minewatch.forecasts" validate:"required"`
	LogTopic                string `yaml:"log_topic"`
	pkgkafka.ProducerConfig `yaml:",inline"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" default:"0.0.0.0"`
	Port            int           `yaml:"port" default:"8080" validate:"gt=0,lte=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	SlowThreshold   time.Duration `yaml:"slow_threshold" default:"2s"`
}

var validate = validator.New()

// Default returns a configuration with every default applied.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	return &c, nil
}

// Load reads and parses a YAML configuration file over the defaults. An empty
// path yields the defaults alone.
func Load(path string) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := c.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("MINEWATCH_ENV"); v != "" {
		c.Environment = v
	}
	if v := getenv("MINEWATCH_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("QUANDL_API_KEY"); v != "" {
		c.Prices.Quandl.APIKey = v
	}
	if v := getenv("MINEWATCH_PRICE_BACKEND"); v != "" {
		c.Prices.Backend = v
	}
	if v := getenv("MINEWATCH_SATELLITE_URL"); v != "" {
		c.Satellite.URL = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
		c.ClickHouse.Enabled = true
	}
	if v := getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := getenv("REDIS_HOST"); v != "" {
		c.Cache.Redis.Host = v
		c.Cache.Redis.Enabled = true
	}
	if v := getenv("REDIS_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REDIS_PORT: %w", err)
		}
		c.Cache.Redis.Port = p
	}
	if v := getenv("PUSHGATEWAY_URL"); v != "" {
		c.Metrics.PushgatewayURL = v
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Analysis.Horizon >= c.Analysis.Buffers.CoverageDays {
		return fmt.Errorf("analysis.horizon (%d) must be below buffers.coverage_days (%d)",
			c.Analysis.Horizon, c.Analysis.Buffers.CoverageDays)
	}
	if c.Prices.Backend == "clickhouse" && !c.ClickHouse.Enabled {
		return errors.New("prices.backend clickhouse requires clickhouse.enabled")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return errors.New("kafka.brokers is required when kafka is enabled")
	}
	return nil
}

// Window parses the configured analysis dates. Zero times mean unset.
func (a AnalysisConfig) Window() (start, end time.Time, err error) {
	if a.Start != "" {
		if start, err = time.Parse(DateLayout, a.Start); err != nil {
			return start, end, fmt.Errorf("analysis.start: %w", err)
		}
	}
	if a.End != "" {
		if end, err = time.Parse(DateLayout, a.End); err != nil {
			return start, end, fmt.Errorf("analysis.end: %w", err)
		}
	}
	return start, end, nil
}

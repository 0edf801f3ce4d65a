package kafka

import "time"

// ProducerOption configures Producer.
type ProducerOption func(*ProducerConfig)

// ProducerConfig holds producer configuration.
type ProducerConfig struct {
	Brokers      []string      `yaml:"brokers"`
	RequiredAcks int           `yaml:"required_acks" default:"-1" validate:"gte=-1,lte=1"`
	Compression  string        `yaml:"compression" default:"gzip" validate:"oneof=gzip snappy lz4 zstd"`
	MaxAttempts  int           `yaml:"max_attempts" default:"3"`
	WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
	ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
	BatchSize    int           `yaml:"batch_size" default:"100"`
	BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
	BatchTimeout time.Duration `yaml:"batch_timeout" default:"1s"`
	Async        bool          `yaml:"async"`
	HashByKey    bool          `yaml:"hash_by_key" default:"true"`
}

// WithConfig copies every field from cfg.
func WithConfig(cfg ProducerConfig) ProducerOption {
	return func(c *ProducerConfig) {
		*c = cfg
	}
}

// WithBrokers sets Kafka brokers.
func WithBrokers(brokers []string) ProducerOption {
	return func(c *ProducerConfig) {
		c.Brokers = brokers
	}
}

// WithCompression sets compression type.
func WithCompression(compression string) ProducerOption {
	return func(c *ProducerConfig) {
		c.Compression = compression
	}
}

// WithRequiredAcks sets required acknowledgements (-1 = all).
func WithRequiredAcks(acks int) ProducerOption {
	return func(c *ProducerConfig) {
		c.RequiredAcks = acks
	}
}

// WithBatchTimeout sets batch timeout.
func WithBatchTimeout(timeout time.Duration) ProducerOption {
	return func(c *ProducerConfig) {
		c.BatchTimeout = timeout
	}
}

// WithHashByKey sets hash balancer for per-key (commodity) ordering.
func WithHashByKey(hash bool) ProducerOption {
	return func(c *ProducerConfig) {
		c.HashByKey = hash
	}
}

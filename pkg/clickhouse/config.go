package clickhouse

import "time"

// ClientOption configures Client.
type ClientOption func(*ClientConfig)

// ClientConfig holds ClickHouse configuration.
type ClientConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Host            string        `yaml:"host" default:"localhost"`
	Port            int           `yaml:"port" default:"9000" validate:"gt=0,lte=65535"`
	Database        string        `yaml:"database" default:"minewatch"`
	User            string        `yaml:"user" default:"default"`
	Password        string        `yaml:"password"`
	MaxOpenConns    int           `yaml:"max_open_conns" default:"10"`
	MaxIdleConns    int           `yaml:"max_idle_conns" default:"5"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" default:"5m"`
	DialTimeout     time.Duration `yaml:"dial_timeout" default:"5s"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
	UseHTTP         bool          `yaml:"use_http"`
	AsyncInsert     bool          `yaml:"async_insert"`
	WaitForAsync    bool          `yaml:"wait_for_async"`
	MaxExecTime     time.Duration `yaml:"max_exec_time"`
	ConnectAttempts int           `yaml:"connect_attempts" default:"3" validate:"gte=1"`
}

// WithConfig copies every field from cfg.
func WithConfig(cfg ClientConfig) ClientOption {
	return func(c *ClientConfig) {
		*c = cfg
	}
}

// WithHost sets database host.
func WithHost(host string) ClientOption {
	return func(c *ClientConfig) {
		c.Host = host
	}
}

// WithPort sets database port.
func WithPort(port int) ClientOption {
	return func(c *ClientConfig) {
		c.Port = port
	}
}

// WithDatabase sets database name.
func WithDatabase(database string) ClientOption {
	return func(c *ClientConfig) {
		c.Database = database
	}
}

// WithCredentials sets username and password.
func WithCredentials(user, password string) ClientOption {
	return func(c *ClientConfig) {
		c.User = user
		c.Password = password
	}
}

// WithTimeouts sets dial/read timeouts.
func WithTimeouts(dial, read time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.DialTimeout = dial
		c.ReadTimeout = read
	}
}

// WithHTTP enables HTTP protocol instead of native.
func WithHTTP(useHTTP bool) ClientOption {
	return func(c *ClientConfig) {
		c.UseHTTP = useHTTP
	}
}

// WithAsyncInsert configures async_insert and wait behavior.
func WithAsyncInsert(enabled, wait bool) ClientOption {
	return func(c *ClientConfig) {
		c.AsyncInsert = enabled
		c.WaitForAsync = wait
	}
}

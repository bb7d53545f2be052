package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration. Both daemons read
// the same file; each picks the sections it needs.
type Config struct {
	Management ServerConfig   `yaml:"management"`
	Telemetry  ServerConfig   `yaml:"telemetry"`
	Database   DatabaseConfig `yaml:"database"`
	Broker     BrokerConfig   `yaml:"broker"`
	Retry      RetryConfig    `yaml:"retry"`
}

// ServerConfig holds the HTTP server configuration for one service.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// BrokerConfig holds the event broker connection configuration.
type BrokerConfig struct {
	Seeds              []string      `yaml:"seeds"`
	Topic              string        `yaml:"topic"`
	Partitions         int32         `yaml:"partitions"`
	ConsumerGroup      string        `yaml:"consumer_group"`
	SendTimeoutSeconds int           `yaml:"send_timeout_seconds"`
	SendTimeout        time.Duration `yaml:"-"` // Ignored by YAML parser
}

// RetryConfig holds the retry budgets for the sync pipeline.
type RetryConfig struct {
	SupervisorDelaySeconds int           `yaml:"supervisor_delay_seconds"`
	SupervisorAttempts     int           `yaml:"supervisor_attempts"`
	ConsumerBackoffSeconds int           `yaml:"consumer_backoff_seconds"`
	SupervisorDelay        time.Duration `yaml:"-"`
	ConsumerBackoff        time.Duration `yaml:"-"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.Broker.Topic == "" {
		cfg.Broker.Topic = "device"
	}
	if cfg.Broker.Partitions <= 0 {
		cfg.Broker.Partitions = 3
	}
	if cfg.Broker.ConsumerGroup == "" {
		cfg.Broker.ConsumerGroup = "telemetry-service"
	}
	if len(cfg.Broker.Seeds) == 0 {
		log.Printf("broker.seeds is not set; defaulting to localhost:9092")
		cfg.Broker.Seeds = []string{"localhost:9092"}
	}
	if cfg.Broker.SendTimeoutSeconds <= 0 {
		cfg.Broker.SendTimeoutSeconds = 10
	}
	cfg.Broker.SendTimeout = time.Duration(cfg.Broker.SendTimeoutSeconds) * time.Second

	if cfg.Retry.SupervisorDelaySeconds <= 0 {
		cfg.Retry.SupervisorDelaySeconds = 3
	}
	if cfg.Retry.SupervisorAttempts <= 0 {
		cfg.Retry.SupervisorAttempts = 5
	}
	if cfg.Retry.ConsumerBackoffSeconds <= 0 {
		cfg.Retry.ConsumerBackoffSeconds = 5
	}
	cfg.Retry.SupervisorDelay = time.Duration(cfg.Retry.SupervisorDelaySeconds) * time.Second
	cfg.Retry.ConsumerBackoff = time.Duration(cfg.Retry.ConsumerBackoffSeconds) * time.Second

	if cfg.Management.Port <= 0 {
		cfg.Management.Port = 8080
	}
	if cfg.Telemetry.Port <= 0 {
		cfg.Telemetry.Port = 8081
	}
	for _, srv := range []*ServerConfig{&cfg.Management, &cfg.Telemetry} {
		if srv.RateLimitPerSec <= 0 {
			srv.RateLimitPerSec = 10
		}
		if srv.RateLimitBurst <= 0 {
			srv.RateLimitBurst = 5
		}
		if srv.CacheTTLSeconds <= 0 {
			srv.CacheTTLSeconds = 30
		}
	}

	return &cfg, nil
}

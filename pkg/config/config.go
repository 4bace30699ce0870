package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`

	Data struct {
		Dir     string   `yaml:"dir" validate:"required"`
		Symbols []string `yaml:"symbols" validate:"min=2,dive,required"`
	} `yaml:"data"`

	Returns struct {
		Bin      time.Duration `yaml:"bin" default:"1m"`
		Horizons []string      `yaml:"horizons" default:"[\"1m\",\"5m\"]"`
	} `yaml:"returns"`

	PCA struct {
		MinExplainedVariance float64 `yaml:"min_explained_variance" default:"0.5" validate:"gte=0,lte=1"`
		MinObservations      int     `yaml:"min_observations" default:"10" validate:"gte=2"`
	} `yaml:"pca"`

	Pipeline struct {
		Workers int      `yaml:"workers" default:"0"` // 0 = NumCPU
		Modes   []string `yaml:"modes" default:"[\"contemporaneous\",\"lagged\"]" validate:"min=1,dive,oneof=contemporaneous lagged"`
	} `yaml:"pipeline"`

	Backend struct {
		Type string `yaml:"type" default:"none" validate:"oneof=none kafka clickhouse"`
	} `yaml:"backend"`

	Kafka struct {
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic"`
		RequiredAcks int           `yaml:"required_acks" default:"-1"`
		Compression  string        `yaml:"compression" default:"gzip"`
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		BatchSize    int           `yaml:"batch_size" default:"100"`
		Linger       time.Duration `yaml:"linger" default:"1s"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
	} `yaml:"kafka"`

	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"crossimpact"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
	} `yaml:"clickhouse"`

	Server struct {
		Enabled         bool          `yaml:"enabled"`
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`

	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`

	Cache struct {
		TTL   time.Duration `yaml:"ttl" default:"30s"`
		Redis struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	Log struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
}

var validate = validator.New()

// Load reads and parses a YAML configuration file, applies struct defaults
// and validates the result.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("DATA_DIR"); v != "" {
		c.Data.Dir = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Data.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("BACKEND"); v != "" {
		c.Backend.Type = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Validate checks structural tags plus the cross-field rules the tags
// cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	if c.Returns.Bin <= 0 {
		return fmt.Errorf("returns.bin must be positive")
	}
	if len(c.Returns.Horizons) == 0 {
		return fmt.Errorf("returns.horizons cannot be empty")
	}
	for _, h := range c.Returns.Horizons {
		d, err := time.ParseDuration(h)
		if err != nil {
			return fmt.Errorf("returns.horizons: invalid horizon %q: %w", h, err)
		}
		if d <= 0 || d%c.Returns.Bin != 0 {
			return fmt.Errorf("returns.horizons: horizon %q must be a positive multiple of returns.bin %s", h, c.Returns.Bin)
		}
	}

	switch c.Backend.Type {
	case "kafka":
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers required for kafka backend")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("kafka.topic required for kafka backend")
		}
	case "clickhouse":
		if c.ClickHouse.Host == "" {
			return fmt.Errorf("clickhouse.host required for clickhouse backend")
		}
	}

	if c.Cache.Redis.Enabled && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("cache.redis.addr required when redis cache is enabled")
	}
	return nil
}

// HorizonDurations returns the configured horizons as durations. Call only
// after Validate; invalid entries are skipped.
func (c *Config) HorizonDurations() []time.Duration {
	out := make([]time.Duration, 0, len(c.Returns.Horizons))
	for _, h := range c.Returns.Horizons {
		d, err := time.ParseDuration(h)
		if err != nil {
			continue
		}
		out = append(out, d)
	}
	return out
}

package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store backends understood by the repository factory
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreMySQL  = "mysql"
)

type Config struct {
	Host               string        `mapstructure:"host"`
	Port               string        `mapstructure:"port"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
	FetchTimeout       time.Duration `mapstructure:"fetch_timeout"`
	ValidationTimeout  time.Duration `mapstructure:"validation_timeout"`
	MaxRequestBodySize int64         `mapstructure:"max_request_body_size"`
	LogLevel           string        `mapstructure:"log_level"`

	// Analysis
	SampleStride  int  `mapstructure:"sample_stride"`
	RenderHeatmap bool `mapstructure:"render_heatmap"`
	BatchWorkers  int  `mapstructure:"batch_workers"`
	MaxBatchSize  int  `mapstructure:"max_batch_size"`

	// Result persistence
	StoreBackend      string `mapstructure:"store_backend"`
	RedisAddr         string `mapstructure:"redis_addr"`
	RedisPassword     string `mapstructure:"redis_password"`
	RedisDB           int    `mapstructure:"redis_db"`
	RedisHistoryLimit int    `mapstructure:"redis_history_limit"`
	MySQLDSN          string `mapstructure:"mysql_dsn"`

	// Image sources
	AzureStorageAccount string `mapstructure:"azure_storage_account"`
	AzureStorageKey     string `mapstructure:"azure_storage_key"`

	// Content validator
	GeminiAPIKey      string `mapstructure:"gemini_api_key"`
	GeminiModel       string `mapstructure:"gemini_model"`
	ValidatorFailOpen bool   `mapstructure:"validator_fail_open"`
}

func (c *Config) ServerAddress() string {
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// AzureEnabled reports whether blob credentials are configured
func (c *Config) AzureEnabled() bool {
	return c.AzureStorageAccount != "" && c.AzureStorageKey != ""
}

// ValidatorEnabled reports whether the remote content validator should be used
func (c *Config) ValidatorEnabled() bool {
	return c.GeminiAPIKey != ""
}

var defaults = map[string]interface{}{
	"host":                  "0.0.0.0",
	"port":                  "8080",
	"request_timeout":       30 * time.Second,
	"fetch_timeout":         15 * time.Second,
	"validation_timeout":    20 * time.Second,
	"max_request_body_size": int64(10 * 1024 * 1024), // 10MB
	"log_level":             "info",
	"sample_stride":         4,
	"render_heatmap":        true,
	"batch_workers":         4,
	"max_batch_size":        16,
	"store_backend":         StoreMemory,
	"redis_addr":            "",
	"redis_password":        "",
	"redis_db":              0,
	"redis_history_limit":   100,
	"mysql_dsn":             "",
	"azure_storage_account": "",
	"azure_storage_key":     "",
	"gemini_api_key":        "",
	"gemini_model":          "gemini-2.0-flash",
	"validator_fail_open":   false,
}

// Load reads configuration from the environment, optionally layered over the
// YAML file named by CONFIG_FILE.
func Load() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if file := strings.TrimSpace(v.GetString("config_file")); file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config failed: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config failed: %w", err)
	}
	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks ranges and backend requirements
func (c *Config) Validate() error {
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.RequestTimeout <= 0 || c.FetchTimeout <= 0 || c.ValidationTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s, validation=%s)",
			c.RequestTimeout, c.FetchTimeout, c.ValidationTimeout)
	}
	if c.SampleStride < 1 {
		return fmt.Errorf("SAMPLE_STRIDE must be >= 1 (got %d)", c.SampleStride)
	}
	if c.BatchWorkers < 1 || c.MaxBatchSize < 1 {
		return fmt.Errorf("BATCH_WORKERS and MAX_BATCH_SIZE must be >= 1 (got %d, %d)", c.BatchWorkers, c.MaxBatchSize)
	}

	switch c.StoreBackend {
	case StoreMemory:
	case StoreRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis store backend")
		}
	case StoreMySQL:
		if c.MySQLDSN == "" {
			return fmt.Errorf("MYSQL_DSN is required for the mysql store backend")
		}
	default:
		return fmt.Errorf("unsupported STORE_BACKEND: %q", c.StoreBackend)
	}
	return nil
}

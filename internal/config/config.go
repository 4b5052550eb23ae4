package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"feewatch/internal/logging"
)

// EnvPrefix prefixes every environment override, e.g. FEEWATCH_COLLECTOR_INTERVAL.
const EnvPrefix = "FEEWATCH"

// Config materialises application configuration. It is built once at startup
// and handed to components by value or pointer; nothing mutates it afterwards.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Collector CollectorConfig `mapstructure:"collector"`
	Endpoints EndpointsConfig `mapstructure:"endpoints"`
	Output    OutputConfig    `mapstructure:"output"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Export    ExportConfig    `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// CollectorConfig governs polling cadence.
type CollectorConfig struct {
	Interval     time.Duration `mapstructure:"interval"`
	StartupDelay time.Duration `mapstructure:"startup_delay"`
}

// EndpointsConfig points at the fee and mempool APIs.
type EndpointsConfig struct {
	FeesURL        string        `mapstructure:"fees_url"`
	MempoolURL     string        `mapstructure:"mempool_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// OutputConfig locates the append-only output files.
type OutputConfig struct {
	CSVPath    string `mapstructure:"csv_path"`
	JSONLPath  string `mapstructure:"jsonl_path"`
	ErrorsPath string `mapstructure:"errors_path"`
	Fsync      bool   `mapstructure:"fsync"`
}

// DatabaseConfig encapsulates the optional PostgreSQL mirror.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// MetricsConfig controls the Prometheus listener.
type MetricsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	ListenAddr string `mapstructure:"listen_addr"`
	Path       string `mapstructure:"path"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from defaults, file, .env and environment.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadDotEnv exports variables from ./.env without overriding the real environment.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "feewatch")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("collector.interval", "180s")
	v.SetDefault("collector.startup_delay", "0s")

	v.SetDefault("endpoints.fees_url", "https://mempool.space/api/v1/fees/recommended")
	v.SetDefault("endpoints.mempool_url", "https://mempool.space/api/v1/mempool")
	v.SetDefault("endpoints.request_timeout", "15s")
	v.SetDefault("endpoints.user_agent", "feewatch/1.0")

	v.SetDefault("output.csv_path", "data/snapshots.csv")
	v.SetDefault("output.jsonl_path", "data/snapshots.jsonl")
	v.SetDefault("output.errors_path", "data/errors.log")
	v.SetDefault("output.fsync", true)

	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_open_conns", 4)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.conn_max_lifetime", "30m")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.listen_addr", ":9108")
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("export.max_data_points", 5000)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Collector.Interval <= 0 {
		return fmt.Errorf("collector.interval must be greater than zero")
	}
	if c.Collector.StartupDelay < 0 {
		return fmt.Errorf("collector.startup_delay cannot be negative")
	}
	if c.Endpoints.RequestTimeout <= 0 {
		return fmt.Errorf("endpoints.request_timeout must be greater than zero")
	}
	if err := validateURL("endpoints.fees_url", c.Endpoints.FeesURL); err != nil {
		return err
	}
	if err := validateURL("endpoints.mempool_url", c.Endpoints.MempoolURL); err != nil {
		return err
	}
	if c.Output.CSVPath == "" || c.Output.JSONLPath == "" || c.Output.ErrorsPath == "" {
		return fmt.Errorf("output.csv_path, output.jsonl_path and output.errors_path are required")
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	if c.Metrics.Enabled && c.Metrics.ListenAddr == "" {
		return fmt.Errorf("metrics.listen_addr is required when metrics are enabled")
	}
	return nil
}

func validateURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL, got %q", key, raw)
	}
	return nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}

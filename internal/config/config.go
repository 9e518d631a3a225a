package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is read when SCREENER_CONFIG is unset.
const DefaultPath = "config/screener.yaml"

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the screener.
type Config struct {
	Storage Storage `yaml:"storage"`
	Server  Server  `yaml:"server"`
	Alpaca  Alpaca  `yaml:"alpaca"`
	Logging Logging `yaml:"logging"`
	History History `yaml:"history"`
	Heatmap Heatmap `yaml:"heatmap"`
	Refresh Refresh `yaml:"refresh"`
}

// Storage selects and locates the snapshot source.
type Storage struct {
	Kind            string `yaml:"kind"` // file, http or parquet
	DataDir         string `yaml:"data_dir"`
	BaseURL         string `yaml:"base_url"`
	ParquetDir      string `yaml:"parquet_dir"`
	SQLitePath      string `yaml:"sqlite_path"`
	RateLimitPerMin int    `yaml:"rate_limit_per_min"`
}

// Server holds network listener configuration.
type Server struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	GRPCPort int    `yaml:"grpc_port"`
}

// Addr returns host:port of the HTTP listener.
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// GRPCAddr returns host:port of the gRPC listener.
func (s Server) GRPCAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.GRPCPort)
}

// Alpaca holds optional credentials for watchlists and the market calendar.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	BaseURL   string `yaml:"base_url"`
	Watchlist string `yaml:"watchlist"`
}

// Enabled reports whether credentials are present.
func (a Alpaca) Enabled() bool {
	return a.APIKey != "" && a.APISecret != ""
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// History configures series reconstruction.
type History struct {
	MaxPoints    int           `yaml:"max_points"`
	Policy       string        `yaml:"policy"` // bounded or continuous
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	Concurrency  int           `yaml:"concurrency"`
}

// Heatmap sets the canvas geometry.
type Heatmap struct {
	Width          float64 `yaml:"width"`
	Height         float64 `yaml:"height"`
	MinGroupHeight float64 `yaml:"min_group_height"`
	GroupSpacing   float64 `yaml:"group_spacing"`
	GridGap        float64 `yaml:"grid_gap"`
}

// Refresh schedules the date-list refresh job.
type Refresh struct {
	Schedule  string `yaml:"schedule"`
	WarmDates int    `yaml:"warm_dates"`
}

// Defaults returns the configuration used for fields left unset.
func Defaults() Config {
	return Config{
		Storage: Storage{Kind: "file", DataDir: "data", ParquetDir: "data/parquet", SQLitePath: "data/screener.db"},
		Server:  Server{Host: "0.0.0.0", Port: 8080, GRPCPort: 9090},
		Alpaca:  Alpaca{BaseURL: "https://paper-api.alpaca.markets", Watchlist: "screener"},
		Logging: Logging{Level: "info", Format: "json"},
		History: History{MaxPoints: 30, Policy: "bounded", FetchTimeout: 10 * time.Second, Concurrency: 16},
		Heatmap: Heatmap{Width: 1200, Height: 800, MinGroupHeight: 200, GroupSpacing: 8, GridGap: 6},
		Refresh: Refresh{Schedule: "@every 15m", WarmDates: 5},
	}
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Path returns SCREENER_CONFIG or DefaultPath.
func Path() string {
	if v := os.Getenv("SCREENER_CONFIG"); v != "" {
		return v
	}
	return DefaultPath
}

// Load reads the YAML configuration file at the given path over the
// defaults, applies environment variable overrides and validates the result.
// A missing file is not an error: defaults and the environment apply.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, err
	}

	applyEnvOverrides(&cfg)
	cfg.fillDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// fillDefaults replaces zero values an explicit YAML key may have set.
func (c *Config) fillDefaults() {
	d := Defaults()
	if c.Storage.Kind == "" {
		c.Storage.Kind = d.Storage.Kind
	}
	if c.History.MaxPoints == 0 {
		c.History.MaxPoints = d.History.MaxPoints
	}
	if c.History.Policy == "" {
		c.History.Policy = d.History.Policy
	}
	if c.History.FetchTimeout == 0 {
		c.History.FetchTimeout = d.History.FetchTimeout
	}
	if c.History.Concurrency == 0 {
		c.History.Concurrency = d.History.Concurrency
	}
	if c.Heatmap.Width == 0 {
		c.Heatmap.Width = d.Heatmap.Width
	}
	if c.Heatmap.Height == 0 {
		c.Heatmap.Height = d.Heatmap.Height
	}
	if c.Heatmap.MinGroupHeight == 0 {
		c.Heatmap.MinGroupHeight = d.Heatmap.MinGroupHeight
	}
	if c.Refresh.Schedule == "" {
		c.Refresh.Schedule = d.Refresh.Schedule
	}
}

// Validate rejects unknown enum values and non-positive sizes.
func (c *Config) Validate() error {
	switch c.Storage.Kind {
	case "file":
		if c.Storage.DataDir == "" {
			return fmt.Errorf("storage.data_dir is required for kind file")
		}
	case "http":
		if c.Storage.BaseURL == "" {
			return fmt.Errorf("storage.base_url is required for kind http")
		}
	case "parquet":
		if c.Storage.ParquetDir == "" {
			return fmt.Errorf("storage.parquet_dir is required for kind parquet")
		}
	default:
		return fmt.Errorf("storage.kind %q: want file, http or parquet", c.Storage.Kind)
	}
	switch c.History.Policy {
	case "bounded", "continuous":
	default:
		return fmt.Errorf("history.policy %q: want bounded or continuous", c.History.Policy)
	}
	if c.History.MaxPoints < 0 || c.History.Concurrency < 0 || c.History.FetchTimeout < 0 {
		return fmt.Errorf("history sizes must not be negative")
	}
	if c.Heatmap.Width <= 0 || c.Heatmap.Height <= 0 || c.Heatmap.MinGroupHeight <= 0 {
		return fmt.Errorf("heatmap width, height and min_group_height must be positive")
	}
	if c.Heatmap.GroupSpacing < 0 || c.Heatmap.GridGap < 0 {
		return fmt.Errorf("heatmap spacing must not be negative")
	}
	if c.Server.Port <= 0 || c.Server.GRPCPort < 0 {
		return fmt.Errorf("server ports out of range")
	}
	return nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SCREENER_STORAGE_KIND"); v != "" {
		cfg.Storage.Kind = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("DATA_BASE_URL"); v != "" {
		cfg.Storage.BaseURL = v
	}
	if v := os.Getenv("PARQUET_DIR"); v != "" {
		cfg.Storage.ParquetDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}

	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("ALPACA_API_SECRET"); v != "" {
		cfg.Alpaca.APISecret = v
	}
	if v := os.Getenv("ALPACA_BASE_URL"); v != "" {
		cfg.Alpaca.BaseURL = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("HISTORY_POLICY"); v != "" {
		cfg.History.Policy = v
	}

	// Standard Alpaca env vars take priority, matching the SDK.
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
}

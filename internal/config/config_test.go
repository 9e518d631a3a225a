package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var overrideVars = []string{
	"SCREENER_STORAGE_KIND", "DATA_DIR", "DATA_BASE_URL", "PARQUET_DIR", "SQLITE_PATH", "PORT",
	"ALPACA_API_KEY", "ALPACA_API_SECRET", "ALPACA_BASE_URL", "LOG_LEVEL", "HISTORY_POLICY",
	"APCA_API_KEY_ID", "APCA_API_SECRET_KEY",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range overrideVars {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "screener.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
storage:
  kind: "http"
  base_url: "https://example.com/data"
  rate_limit_per_min: 120
server:
  host: "127.0.0.1"
  port: 8081
  grpc_port: 9091
alpaca:
  api_key: "test-key"
  api_secret: "test-secret"
logging:
  level: "debug"
  format: "text"
history:
  max_points: 20
  policy: "continuous"
  fetch_timeout: "3s"
  concurrency: 4
heatmap:
  width: 1000
refresh:
  schedule: "0 */5 * * * *"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Storage.Kind != "http" || cfg.Storage.BaseURL != "https://example.com/data" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if cfg.Storage.RateLimitPerMin != 120 {
		t.Errorf("RateLimitPerMin = %d, want 120", cfg.Storage.RateLimitPerMin)
	}
	if cfg.Server.Addr() != "127.0.0.1:8081" || cfg.Server.GRPCAddr() != "127.0.0.1:9091" {
		t.Errorf("addrs = %s %s", cfg.Server.Addr(), cfg.Server.GRPCAddr())
	}
	if !cfg.Alpaca.Enabled() {
		t.Error("Alpaca.Enabled() = false, want true")
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "text" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if cfg.History.MaxPoints != 20 || cfg.History.Policy != "continuous" || cfg.History.Concurrency != 4 {
		t.Errorf("History = %+v", cfg.History)
	}
	if cfg.History.FetchTimeout != 3*time.Second {
		t.Errorf("FetchTimeout = %v, want 3s", cfg.History.FetchTimeout)
	}
	if cfg.Heatmap.Width != 1000 || cfg.Heatmap.Height != 800 {
		t.Errorf("Heatmap = %+v, want width 1000 and default height", cfg.Heatmap)
	}
	if cfg.Refresh.Schedule != "0 */5 * * * *" {
		t.Errorf("Schedule = %q", cfg.Refresh.Schedule)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	d := Defaults()
	if cfg.Storage != d.Storage || cfg.History != d.History || cfg.Heatmap != d.Heatmap {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
	if cfg.Alpaca.Enabled() {
		t.Error("Alpaca enabled without credentials")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATA_DIR", "/srv/data")
	t.Setenv("ALPACA_API_KEY", "yaml-style")
	t.Setenv("APCA_API_KEY_ID", "sdk-style")
	t.Setenv("PORT", "9000")
	t.Setenv("HISTORY_POLICY", "continuous")

	cfg, err := Load(writeConfig(t, "storage:\n  data_dir: /ignored\n"))
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Storage.DataDir != "/srv/data" {
		t.Errorf("DataDir = %q, want /srv/data", cfg.Storage.DataDir)
	}
	if cfg.Alpaca.APIKey != "sdk-style" {
		t.Errorf("APIKey = %q, want sdk-style", cfg.Alpaca.APIKey)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.History.Policy != "continuous" {
		t.Errorf("Policy = %q", cfg.History.Policy)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name, yaml, want string
	}{
		{"kind", "storage:\n  kind: s3\n", "storage.kind"},
		{"http without url", "storage:\n  kind: http\n", "base_url"},
		{"policy", "history:\n  policy: sometimes\n", "history.policy"},
		{"width", "heatmap:\n  width: -5\n", "heatmap"},
		{"yaml", "storage: [", "parsing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestPath(t *testing.T) {
	t.Setenv("SCREENER_CONFIG", "")
	if Path() != DefaultPath {
		t.Errorf("Path() = %q, want %q", Path(), DefaultPath)
	}
	t.Setenv("SCREENER_CONFIG", "/etc/screener.yaml")
	if Path() != "/etc/screener.yaml" {
		t.Errorf("Path() = %q", Path())
	}
}

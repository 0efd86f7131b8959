package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	if cfg.Server.Port != 4241 {
		t.Errorf("expected default port 4241, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "localhost" {
		t.Errorf("expected default host localhost, got %s", cfg.Server.Host)
	}
	if cfg.API.URL != "http://localhost:3000" {
		t.Errorf("expected default api url http://localhost:3000, got %s", cfg.API.URL)
	}
	if cfg.Search.DebounceMS != 300 {
		t.Errorf("expected default debounce 300, got %d", cfg.Search.DebounceMS)
	}
	if cfg.Storage.Badger.Path != "./data/fund-portal" {
		t.Errorf("expected default badger path ./data/fund-portal, got %s", cfg.Storage.Badger.Path)
	}
	if !cfg.MCP.Enabled {
		t.Error("expected MCP enabled by default")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected default log level info, got %s", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("expected default log format text, got %s", cfg.Logging.Format)
	}
	if issues := cfg.Validate(); len(issues) != 0 {
		t.Errorf("expected defaults to validate, got %v", issues)
	}
}

func TestLoadFromFiles_NoFiles(t *testing.T) {
	cfg, err := LoadFromFiles()
	if err != nil {
		t.Fatalf("LoadFromFiles with no files should not error: %v", err)
	}
	if cfg.Server.Port != 4241 {
		t.Errorf("expected default port 4241, got %d", cfg.Server.Port)
	}
}

func TestLoadFromFiles_ValidTOML(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "test.toml")

	content := `
environment = "dev"

[server]
port = 9090
host = "0.0.0.0"

[api]
url = "http://funds.internal:8080"
timeout = "3s"

[search]
debounce_ms = 150

[session]
idle_timeout = "5m"

[storage.badger]
path = "/tmp/test-db"

[logging]
level = "debug"
format = "json"
`
	if err := os.WriteFile(tomlPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFiles(tomlPath)
	if err != nil {
		t.Fatalf("LoadFromFiles failed: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("expected host 0.0.0.0, got %s", cfg.Server.Host)
	}
	if cfg.API.URL != "http://funds.internal:8080" {
		t.Errorf("expected api url override, got %s", cfg.API.URL)
	}
	if cfg.API.GetTimeout() != 3*time.Second {
		t.Errorf("expected 3s timeout, got %v", cfg.API.GetTimeout())
	}
	if cfg.Search.QuietPeriod() != 150*time.Millisecond {
		t.Errorf("expected 150ms quiet period, got %v", cfg.Search.QuietPeriod())
	}
	if cfg.Session.GetIdleTimeout() != 5*time.Minute {
		t.Errorf("expected 5m idle timeout, got %v", cfg.Session.GetIdleTimeout())
	}
	if cfg.Storage.Badger.Path != "/tmp/test-db" {
		t.Errorf("expected badger path /tmp/test-db, got %s", cfg.Storage.Badger.Path)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Logging.Level)
	}
	if !cfg.IsDevMode() {
		t.Error("expected dev mode")
	}
}

func TestLoadFromFiles_LaterFileWins(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "base.toml")
	override := filepath.Join(dir, "override.toml")

	if err := os.WriteFile(base, []byte("[server]\nport = 1111\nhost = \"base\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(override, []byte("[server]\nport = 2222\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFiles(base, override)
	if err != nil {
		t.Fatalf("LoadFromFiles failed: %v", err)
	}
	if cfg.Server.Port != 2222 {
		t.Errorf("expected port 2222, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "base" {
		t.Errorf("expected host from base file, got %s", cfg.Server.Host)
	}
}

func TestLoadFromFiles_MissingFile(t *testing.T) {
	_, err := LoadFromFiles("/nonexistent/fund-portal.toml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadFromFiles_InvalidTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(path, []byte("[server\nport = "), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromFiles(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("FUNDS_SERVER_PORT", "7070")
	t.Setenv("FUNDS_SERVER_HOST", "127.0.0.1")
	t.Setenv("FUNDS_API_URL", "http://api.example.com")
	t.Setenv("FUNDS_API_TIMEOUT", "2s")
	t.Setenv("FUNDS_SEARCH_DEBOUNCE_MS", "500")
	t.Setenv("FUNDS_SESSION_IDLE_TIMEOUT", "1h")
	t.Setenv("FUNDS_MCP_ENABLED", "false")
	t.Setenv("FUNDS_BADGER_PATH", "/data/funds")
	t.Setenv("FUNDS_LOG_LEVEL", "warn")
	t.Setenv("FUNDS_LOG_OUTPUTS", "console, file")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Server.Port != 7070 {
		t.Errorf("expected port 7070, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("expected host 127.0.0.1, got %s", cfg.Server.Host)
	}
	if cfg.API.URL != "http://api.example.com" {
		t.Errorf("expected api url override, got %s", cfg.API.URL)
	}
	if cfg.API.Timeout != "2s" {
		t.Errorf("expected timeout 2s, got %s", cfg.API.Timeout)
	}
	if cfg.Search.DebounceMS != 500 {
		t.Errorf("expected debounce 500, got %d", cfg.Search.DebounceMS)
	}
	if cfg.Session.IdleTimeout != "1h" {
		t.Errorf("expected idle timeout 1h, got %s", cfg.Session.IdleTimeout)
	}
	if cfg.MCP.Enabled {
		t.Error("expected MCP disabled")
	}
	if cfg.Storage.Badger.Path != "/data/funds" {
		t.Errorf("expected badger path /data/funds, got %s", cfg.Storage.Badger.Path)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected log level warn, got %s", cfg.Logging.Level)
	}
	if len(cfg.Logging.Outputs) != 2 || cfg.Logging.Outputs[1] != "file" {
		t.Errorf("expected outputs [console file], got %v", cfg.Logging.Outputs)
	}
}

func TestApplyEnvOverrides_InvalidPortIgnored(t *testing.T) {
	t.Setenv("FUNDS_SERVER_PORT", "not-a-number")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Server.Port != 4241 {
		t.Errorf("expected port to remain 4241, got %d", cfg.Server.Port)
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	cfg := NewDefaultConfig()
	ApplyFlagOverrides(cfg, 8081, "0.0.0.0")

	if cfg.Server.Port != 8081 {
		t.Errorf("expected port 8081, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("expected host 0.0.0.0, got %s", cfg.Server.Host)
	}
}

func TestApplyFlagOverrides_ZeroValuesIgnored(t *testing.T) {
	cfg := NewDefaultConfig()
	ApplyFlagOverrides(cfg, 0, "")

	if cfg.Server.Port != 4241 {
		t.Errorf("expected port 4241, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "localhost" {
		t.Errorf("expected host localhost, got %s", cfg.Server.Host)
	}
}

func TestValidate(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Server.Port = 0
	cfg.API.URL = "not a url"
	cfg.API.Timeout = "soon"
	cfg.Search.DebounceMS = -1
	cfg.Storage.Badger.Path = ""

	issues := cfg.Validate()
	if len(issues) != 5 {
		t.Fatalf("expected 5 issues, got %d: %v", len(issues), issues)
	}
	joined := strings.Join(issues, "\n")
	for _, want := range []string{"server.port", "api.url", "api.timeout", "search.debounce_ms", "storage.badger.path"} {
		if !strings.Contains(joined, want) {
			t.Errorf("expected issue mentioning %s, got %v", want, issues)
		}
	}
}

func TestDurationFallbacks(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.API.Timeout = "garbage"
	cfg.Session.IdleTimeout = ""
	cfg.Search.DebounceMS = 0

	if cfg.API.GetTimeout() != 10*time.Second {
		t.Errorf("expected 10s fallback, got %v", cfg.API.GetTimeout())
	}
	if cfg.Session.GetIdleTimeout() != 30*time.Minute {
		t.Errorf("expected 30m fallback, got %v", cfg.Session.GetIdleTimeout())
	}
	if cfg.Search.QuietPeriod() != 300*time.Millisecond {
		t.Errorf("expected 300ms fallback, got %v", cfg.Search.QuietPeriod())
	}
}

func TestBaseURL(t *testing.T) {
	cfg := NewDefaultConfig()
	if got := cfg.BaseURL(); got != "http://localhost:4241" {
		t.Errorf("expected http://localhost:4241, got %s", got)
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadConfigFileYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "fundchat.yaml", `
server_url: http://advisor.example.com:8022
timeout_seconds: 15
health_interval_seconds: 10
min_server_version: "1.0.0"
user_context:
  channel: cli
`)

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.ServerURL != "http://advisor.example.com:8022" {
		t.Fatalf("unexpected server_url: %q", cfg.ServerURL)
	}
	if cfg.TimeoutSeconds != 15 || cfg.HealthIntervalSeconds != 10 {
		t.Fatalf("unexpected timeouts: %d/%d", cfg.TimeoutSeconds, cfg.HealthIntervalSeconds)
	}
	if cfg.MinServerVersion != "1.0.0" {
		t.Fatalf("unexpected min_server_version: %q", cfg.MinServerVersion)
	}
	if cfg.UserContext["channel"] != "cli" {
		t.Fatalf("unexpected user_context: %v", cfg.UserContext)
	}
}

func TestLoadConfigFileTOML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "fundchat.toml", `
server_url = "http://localhost:9000"
timeout_seconds = 5
`)

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.ServerURL != "http://localhost:9000" || cfg.TimeoutSeconds != 5 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadConfigFileJSON(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "fundchat.json", `{"server_url":"http://localhost:9001"}`)

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.ServerURL != "http://localhost:9001" {
		t.Fatalf("unexpected server_url: %q", cfg.ServerURL)
	}
}

func TestLoadConfigFileInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "fundchat.yaml", "server_url: [broken\n")

	if _, err := LoadConfigFile(path); err == nil {
		t.Fatalf("expected parse error for invalid YAML")
	}
}

func TestFindConfigFileOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "fundchat.json", `{"server_url":"http://json"}`)
	writeFile(t, dir, "fundchat.yaml", "server_url: http://yaml\n")

	found, err := FindConfigFile(dir)
	if err != nil {
		t.Fatalf("expected config file, got error %v", err)
	}
	if filepath.Base(found) != "fundchat.yaml" {
		t.Fatalf("expected yaml to take precedence, got %s", found)
	}
}

func TestGetServerConfigPrecedence(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "fundchat.yaml", "server_url: http://from-file:8022\ntimeout_seconds: 7\n")

	// File wins over defaults.
	cfg, err := GetServerConfig(dir, "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.URL != "http://from-file:8022" || cfg.TimeoutSeconds != 7 {
		t.Fatalf("expected file values, got %+v", cfg)
	}
	if cfg.HealthIntervalSeconds != DefaultHealthIntervalSeconds {
		t.Fatalf("expected default health interval, got %d", cfg.HealthIntervalSeconds)
	}

	// Flag wins over file.
	cfg, err = GetServerConfig(dir, "http://from-flag:8022")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.URL != "http://from-flag:8022" {
		t.Fatalf("expected flag value, got %q", cfg.URL)
	}

	// Defaults when no file exists.
	cfg, err = GetServerConfig(t.TempDir(), "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.URL != DefaultServerURL {
		t.Fatalf("expected default URL, got %q", cfg.URL)
	}
}

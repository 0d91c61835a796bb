package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	yaml "gopkg.in/yaml.v2"
)

// LoadConfig loads a fundchat config file from the specified directory.
func LoadConfig(configDir string) (*Config, error) {
	if configDir == "" {
		return nil, fmt.Errorf("config directory is required")
	}

	foundFile, err := FindConfigFile(configDir)
	if err != nil {
		return nil, fmt.Errorf("no fundchat config file (yaml/toml/json) found in %s", configDir)
	}

	return LoadConfigFile(foundFile)
}

// LoadConfigFile loads and parses a specific fundchat config file based on
// its extension.
func LoadConfigFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filePath, err)
	}

	fileExt := strings.ToLower(filepath.Ext(filePath))

	var cfg Config
	switch fileExt {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config file %s: %w", filePath, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse TOML config file %s: %w", filePath, err)
		}
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config file %s: %w", filePath, err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file extension: %s", fileExt)
	}

	return &cfg, nil
}

// FindConfigFile searches for a fundchat config file in the specified directory.
func FindConfigFile(searchPath string) (string, error) {
	for _, name := range SupportedConfigFiles {
		candidate := filepath.Join(searchPath, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no config file found in %s", searchPath)
}

// ServerConfig is the resolved connection configuration for the client.
type ServerConfig struct {
	URL                   string
	TimeoutSeconds        int
	HealthIntervalSeconds int
	MinServerVersion      string
	UserContext           map[string]string
}

// GetServerConfig resolves the server configuration with flag > file > default
// precedence. flagURL is the value of the --server-url flag ("" when unset).
func GetServerConfig(configDir, flagURL string) (*ServerConfig, error) {
	resolved := &ServerConfig{
		URL:                   DefaultServerURL,
		TimeoutSeconds:        DefaultTimeoutSeconds,
		HealthIntervalSeconds: DefaultHealthIntervalSeconds,
	}

	if cfg, err := LoadConfig(configDir); err == nil && cfg != nil {
		if strings.TrimSpace(cfg.ServerURL) != "" {
			resolved.URL = strings.TrimSpace(cfg.ServerURL)
		}
		if cfg.TimeoutSeconds > 0 {
			resolved.TimeoutSeconds = cfg.TimeoutSeconds
		}
		if cfg.HealthIntervalSeconds > 0 {
			resolved.HealthIntervalSeconds = cfg.HealthIntervalSeconds
		}
		resolved.MinServerVersion = cfg.MinServerVersion
		resolved.UserContext = cfg.UserContext
	}

	if strings.TrimSpace(flagURL) != "" {
		resolved.URL = strings.TrimSpace(flagURL)
	}

	return resolved, nil
}

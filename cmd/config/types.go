package config

// SupportedConfigFiles lists all supported fundchat config file names,
// searched in this order.
var SupportedConfigFiles = []string{
	"fundchat.yaml",
	"fundchat.yml",
	"fundchat.toml",
	"fundchat.json",
}

// Config represents the complete fundchat client configuration.
type Config struct {
	ServerURL             string            `yaml:"server_url" toml:"server_url" json:"server_url"`
	TimeoutSeconds        int               `yaml:"timeout_seconds,omitempty" toml:"timeout_seconds,omitempty" json:"timeout_seconds,omitempty"`
	HealthIntervalSeconds int               `yaml:"health_interval_seconds,omitempty" toml:"health_interval_seconds,omitempty" json:"health_interval_seconds,omitempty"`
	MinServerVersion      string            `yaml:"min_server_version,omitempty" toml:"min_server_version,omitempty" json:"min_server_version,omitempty"`
	UserContext           map[string]string `yaml:"user_context,omitempty" toml:"user_context,omitempty" json:"user_context,omitempty"`
}

// Defaults applied when a field is absent from both flags and the config file.
const (
	DefaultServerURL             = "http://localhost:8022"
	DefaultTimeoutSeconds        = 30
	DefaultHealthIntervalSeconds = 30
)

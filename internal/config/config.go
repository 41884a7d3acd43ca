// Package config provides the configuration schema and loader for the
// paniwala server.
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hbashir/paniwala/internal/voice/grammar"
)

// Duration is a [time.Duration] that unmarshals from YAML strings like
// "2s" or "2500ms".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns d as a [time.Duration].
func (d Duration) Std() time.Duration { return time.Duration(d) }

// LogLevel controls log verbosity for the paniwala server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure. It is typically loaded from
// a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Business BusinessConfig `yaml:"business"`
	Voice    VoiceConfig    `yaml:"voice"`
}

// ServerConfig holds network and logging settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// AllowedOrigins lists CORS origins permitted to call the API and
	// open voice WebSocket sessions. Empty means same-origin only.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// StorageConfig selects the ledger backend. With an empty DSN the server
// runs on the in-memory store and loses data on restart.
type StorageConfig struct {
	// PostgresDSN is the connection string for the PostgreSQL ledger.
	PostgresDSN string `yaml:"postgres_dsn"`
}

// BusinessConfig fixes the civil timezone and the business day cutoff.
type BusinessConfig struct {
	// Timezone is the IANA name of the business's civil timezone.
	Timezone string `yaml:"timezone"`

	// DayCutoffHour ends the business day. Transactions before this hour
	// count toward the previous day. Valid range 0-23.
	DayCutoffHour int `yaml:"day_cutoff_hour"`
}

// VoiceConfig tunes the voice command pipeline.
type VoiceConfig struct {
	// DefaultMode fixes the command interpretation mode for new sessions:
	// "cash", "credit", or "auto".
	DefaultMode grammar.Mode `yaml:"default_mode"`

	// ClassifyThreshold is the numeric cutoff used by auto mode: a first
	// chunk resolving to a number above it is treated as a credit address
	// identity rather than a quantity.
	ClassifyThreshold int `yaml:"classify_threshold"`

	// ShortDebounce is the settle window once a command has its mandatory
	// slots. Zero selects the built-in default.
	ShortDebounce Duration `yaml:"short_debounce"`

	// LongDebounce is the give-up window for incomplete commands. Zero
	// selects the built-in default.
	LongDebounce Duration `yaml:"long_debounce"`
}

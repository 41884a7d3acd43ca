package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hbashir/paniwala/internal/dates"
	"github.com/hbashir/paniwala/internal/voice/grammar"
)

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults, and
// validates the result. Useful in tests where configs are constructed
// from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			// An empty file means run on defaults.
			return cfg, nil
		}
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when a field is absent from the
// YAML file.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr: ":8080",
			LogLevel:   LogInfo,
		},
		Business: BusinessConfig{
			Timezone:      dates.DefaultTimezone,
			DayCutoffHour: dates.DefaultCutoffHour,
		},
		Voice: VoiceConfig{
			DefaultMode:       grammar.ModeAuto,
			ClassifyThreshold: grammar.DefaultClassifyThreshold,
		},
	}
}

// Validate checks that cfg contains a coherent set of values. It returns
// a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.ListenAddr == "" {
		errs = append(errs, errors.New("server.listen_addr must not be empty"))
	}
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	if cfg.Business.DayCutoffHour < 0 || cfg.Business.DayCutoffHour > 23 {
		errs = append(errs, fmt.Errorf("business.day_cutoff_hour %d is out of range 0-23", cfg.Business.DayCutoffHour))
	}
	if cfg.Business.Timezone != "" {
		if _, err := time.LoadLocation(cfg.Business.Timezone); err != nil {
			errs = append(errs, fmt.Errorf("business.timezone %q is not a valid IANA timezone", cfg.Business.Timezone))
		}
	}

	if cfg.Voice.DefaultMode != "" && !cfg.Voice.DefaultMode.IsValid() {
		errs = append(errs, fmt.Errorf("voice.default_mode %q is invalid; valid values: cash, credit, auto", cfg.Voice.DefaultMode))
	}
	if cfg.Voice.ClassifyThreshold < 0 {
		errs = append(errs, fmt.Errorf("voice.classify_threshold %d must not be negative", cfg.Voice.ClassifyThreshold))
	}
	if cfg.Voice.ShortDebounce < 0 || cfg.Voice.LongDebounce < 0 {
		errs = append(errs, errors.New("voice debounce windows must not be negative"))
	}
	if cfg.Voice.ShortDebounce > 0 && cfg.Voice.LongDebounce > 0 &&
		cfg.Voice.ShortDebounce > cfg.Voice.LongDebounce {
		errs = append(errs, errors.New("voice.short_debounce must not exceed voice.long_debounce"))
	}

	return errors.Join(errs...)
}

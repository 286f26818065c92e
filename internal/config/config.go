// Package config loads the formengine service and CLI configuration from YAML
// or TOML files with FORMENGINE_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/alpaka/formengine/pkg/changerequest"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FORMENGINE_"

// ErrUnsupportedFormat is returned for config files that are neither YAML nor
// TOML.
var ErrUnsupportedFormat = errors.New("config: unsupported file format")

// Duration is a time.Duration written as a Go duration string ("30s").
type Duration time.Duration

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", text, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText renders the duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the time.Duration value.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the full configuration.
type Config struct {
	// Listen is the HTTP listen address of the serve command.
	Listen string `yaml:"listen" toml:"listen" validate:"required,hostname_port"`
	// Schema is a page file path or URL; empty selects the embedded default.
	Schema   string         `yaml:"schema,omitempty" toml:"schema,omitempty"`
	API      APIConfig      `yaml:"api" toml:"api"`
	Log      LogConfig      `yaml:"log" toml:"log"`
	Sessions SessionsConfig `yaml:"sessions" toml:"sessions"`
}

// APIConfig points at the change-request backend.
type APIConfig struct {
	BaseURL string   `yaml:"base_url" toml:"base_url" validate:"required,url"`
	Token   string   `yaml:"token,omitempty" toml:"token,omitempty"`
	Timeout Duration `yaml:"timeout" toml:"timeout" validate:"gt=0"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level" toml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" toml:"format" validate:"oneof=json text"`
}

// SessionsConfig bounds the in-memory session store.
type SessionsConfig struct {
	TTL Duration `yaml:"ttl" toml:"ttl" validate:"gt=0"`
	Max int      `yaml:"max" toml:"max" validate:"gte=0"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Listen: ":8081",
		API: APIConfig{
			BaseURL: changerequest.DefaultBaseURL,
			Timeout: Duration(30 * time.Second),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Sessions: SessionsConfig{
			TTL: Duration(30 * time.Minute),
			Max: 1000,
		},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := Decode(data, filepath.Ext(path), &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode unmarshals data into cfg using the format implied by ext.
func Decode(data []byte, ext string, cfg *Config) error {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "yaml", "yml":
		return yaml.Unmarshal(data, cfg)
	case "toml":
		var derr *toml.DecodeError
		if err := toml.Unmarshal(data, cfg); err != nil {
			if errors.As(err, &derr) {
				row, col := derr.Position()
				return fmt.Errorf("line %d, column %d: %w", row, col, err)
			}
			return err
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// Encode renders cfg in the format implied by ext.
func Encode(cfg Config, ext string) ([]byte, error) {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "yaml", "yml":
		return yaml.Marshal(cfg)
	case "toml":
		return toml.Marshal(cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides fields from the environment. LOG_LEVEL and LOG_FORMAT
// are honoured as well; the prefixed variables win.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	str := func(target *string, keys ...string) {
		for _, key := range keys {
			if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
				*target = strings.TrimSpace(v)
			}
		}
	}
	dur := func(target *Duration, key string) error {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		if err := target.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		return nil
	}

	str(&c.Listen, EnvPrefix+"LISTEN")
	str(&c.Schema, EnvPrefix+"SCHEMA")
	str(&c.API.BaseURL, EnvPrefix+"API_BASE_URL")
	str(&c.API.Token, EnvPrefix+"API_TOKEN")
	str(&c.Log.Level, "LOG_LEVEL", EnvPrefix+"LOG_LEVEL")
	str(&c.Log.Format, "LOG_FORMAT", EnvPrefix+"LOG_FORMAT")
	c.Log.Level = strings.ToLower(c.Log.Level)
	c.Log.Format = strings.ToLower(c.Log.Format)

	if err := dur(&c.API.Timeout, EnvPrefix+"API_TIMEOUT"); err != nil {
		return err
	}
	return dur(&c.Sessions.TTL, EnvPrefix+"SESSIONS_TTL")
}

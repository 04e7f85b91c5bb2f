package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

//go:embed config_defaults.yaml
var configDefaults []byte

// ConfigError signals a missing or invalid global configuration value.
// It is fatal and aborts the run before any ad processing.
type ConfigError struct {
	File  string
	Field string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config property [%s] not specified @ [%s]", e.Field, e.File)
}

// Config holds the global configuration (embedded defaults + user file overlay).
type Config struct {
	Login struct {
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
	} `mapstructure:"login"`

	AdFiles    []string          `mapstructure:"ad_files"`
	AdDefaults map[string]any    `mapstructure:"ad_defaults"`
	Categories map[string]string `mapstructure:"categories"`

	CollectValidationErrors bool `mapstructure:"collect_validation_errors"`

	// Browser settings are passed through to the browser driver untouched.
	Browser map[string]any `mapstructure:"browser"`

	path string
}

// Load reads the global config from path, layered over the embedded defaults.
// The file may be YAML or JSON. If it does not exist it is created from the
// defaults (and the resulting config will fail the login check below).
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(configDefaults)); err != nil {
		return Config{}, fmt.Errorf("read embedded config defaults: %w", err)
	}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		log.Warn().Str("file", path).Msg("config file does not exist; creating it with default values")
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return Config{}, fmt.Errorf("create config directory: %w", err)
		}
		if err := os.WriteFile(path, configDefaults, 0o644); err != nil {
			return Config{}, fmt.Errorf("write default config file: %w", err)
		}
	} else {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config file %s: %w", path, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return Config{}, fmt.Errorf("resolve config path: %w", err)
	}
	cfg.path = abs

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Login.Username == "" {
		return &ConfigError{File: c.path, Field: "login.username"}
	}
	if c.Login.Password == "" {
		return &ConfigError{File: c.path, Field: "login.password"}
	}
	return nil
}

// Path returns the absolute path of the loaded config file.
func (c Config) Path() string { return c.path }

// BaseDir is the directory ad file patterns are resolved against.
func (c Config) BaseDir() string { return filepath.Dir(c.path) }

// DescriptionAffixes returns the configured description prefix and suffix.
func (c Config) DescriptionAffixes() (prefix, suffix string) {
	d := cast.ToStringMap(c.AdDefaults["description"])
	return cast.ToString(d["prefix"]), cast.ToString(d["suffix"])
}

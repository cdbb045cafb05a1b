// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the hotspots configuration: built-in defaults, an
// optional TOML file and environment overrides, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jcodagnone/hotspots/curation"
	"github.com/jcodagnone/hotspots/ebird"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Environment variables read by ApplyEnv.
const (
	EnvAPIKey    = "EBIRD_API_KEY"
	EnvRadiusKm  = "HOTSPOTS_RADIUS_KM"
	EnvOverlapKm = "HOTSPOTS_OVERLAP_KM"
	EnvDBPath    = "HOTSPOTS_DB_PATH"
)

// Detection holds the clustering thresholds.
type Detection struct {
	RadiusKm  float64 `toml:"radius_km"`
	OverlapKm float64 `toml:"overlap_km"`
}

// EBird holds the region-data provider settings.
type EBird struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	UserAgent      string `toml:"user_agent"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Storage holds the local database settings.
type Storage struct {
	DBPath      string `toml:"db_path"`
	MaxAgeHours int    `toml:"max_age_hours"`
}

// Server holds the review API settings.
type Server struct {
	Addr string `toml:"addr"`
}

// Config is the whole configuration of the hotspots tools.
type Config struct {
	Detection Detection `toml:"detection"`
	EBird     EBird     `toml:"ebird"`
	Storage   Storage   `toml:"storage"`
	Server    Server    `toml:"server"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Detection: Detection{
			RadiusKm:  curation.DefaultRadiusKm,
			OverlapKm: curation.DefaultOverlapKm,
		},
		EBird: EBird{
			BaseURL:        ebird.DefaultBaseURL,
			TimeoutSeconds: 60,
		},
		Storage: Storage{
			DBPath:      filepath.Join("db", "hotspots.duckdb"),
			MaxAgeHours: 24 * 7,
		},
		Server: Server{
			Addr: ":8080",
		},
	}
}

// Load reads the configuration file at path, or the first default location
// that exists, and applies the environment on top. It returns the resolved
// path and whether a file was read.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		data, err := os.ReadFile(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}

		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	// .env files only fill variables that aren't already set.
	_ = godotenv.Load(".env")

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// ApplyEnv overrides settings from the environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvAPIKey); ok && v != "" {
		c.EBird.APIKey = v
	}

	if v, ok := lookup(EnvDBPath); ok && v != "" {
		c.Storage.DBPath = v
	}

	for _, f := range []struct {
		name  string
		value *float64
	}{
		{EnvRadiusKm, &c.Detection.RadiusKm},
		{EnvOverlapKm, &c.Detection.OverlapKm},
	} {
		v, ok := lookup(f.name)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}

		km, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("parsing %s=%q: %w", f.name, v, err)
		}

		*f.value = km
	}

	return nil
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	if err := c.DetectionOptions().Validate(); err != nil {
		return fmt.Errorf("detection: %w", err)
	}

	if strings.TrimSpace(c.Storage.DBPath) == "" {
		return errors.New("storage: db_path is required")
	}

	if c.Storage.MaxAgeHours < 0 {
		return fmt.Errorf("storage: max_age_hours must not be negative, got %d", c.Storage.MaxAgeHours)
	}

	if c.EBird.TimeoutSeconds < 0 {
		return fmt.Errorf("ebird: timeout_seconds must not be negative, got %d", c.EBird.TimeoutSeconds)
	}

	return nil
}

// DetectionOptions returns the configured thresholds.
func (c *Config) DetectionOptions() curation.Options {
	return curation.Options{
		RadiusKm:  c.Detection.RadiusKm,
		OverlapKm: c.Detection.OverlapKm,
	}
}

// ClientOptions returns the provider client settings.
func (c *Config) ClientOptions() *ebird.ClientOptions {
	return &ebird.ClientOptions{
		APIKey:    c.EBird.APIKey,
		BaseURL:   c.EBird.BaseURL,
		UserAgent: c.EBird.UserAgent,
		Timeout:   time.Duration(c.EBird.TimeoutSeconds) * time.Second,
	}
}

// MaxAge is how long a stored region is considered fresh.
func (c *Config) MaxAge() time.Duration {
	return time.Duration(c.Storage.MaxAgeHours) * time.Hour
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}

		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", false, fmt.Errorf("config file %s: %w", expanded, err)
			}

			return "", false, fmt.Errorf("stat config: %w", err)
		}

		return expanded, true, nil
	}

	projectPath, err := filepath.Abs("hotspots.toml")
	if err != nil {
		return "", false, err
	}

	userPath, err := expandPath("~/.config/hotspots/config.toml")
	if err != nil {
		return "", false, err
	}

	for _, candidate := range []string{projectPath, userPath} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true, nil
		}
	}

	return "", false, nil
}

func expandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}

		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}

	absolute, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", path, err)
	}

	return absolute, nil
}

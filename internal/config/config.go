// Package config resolves explorer settings from defaults, an optional YAML
// file and EXPLORER_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"account-explorer/internal/geocode"
	"account-explorer/internal/logging"
)

const FileName = "explorer.yaml"

type GeoNames struct {
	Path        string `yaml:"path"`
	DownloadURL string `yaml:"download_url"`
}

type S3 struct {
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
}

type Session struct {
	Secret string        `yaml:"secret"`
	TTL    time.Duration `yaml:"ttl"`
}

type Config struct {
	// File is the config file actually read, if any.
	File string `yaml:"-"`

	Source           string         `yaml:"source"`
	Sheet            string         `yaml:"sheet"`
	Port             string         `yaml:"port"`
	DensityPrecision int            `yaml:"density_precision"`
	GeoNames         GeoNames       `yaml:"geonames"`
	S3               S3             `yaml:"s3"`
	Session          Session        `yaml:"session"`
	Log              logging.Config `yaml:"log"`
}

func Default() Config {
	return Config{
		Source:           "Strategic_Account_Ownership_Master.xlsx",
		Sheet:            "Database",
		Port:             "9595",
		DensityPrecision: 4,
		GeoNames: GeoNames{
			Path:        filepath.Join("geonames", "US.zip"),
			DownloadURL: geocode.DefaultUSPostalURL,
		},
		Session: Session{
			Secret: "change-me-account-explorer-session-key",
			TTL:    12 * time.Hour,
		},
		Log: logging.Config{Level: "info", Format: "json"},
	}
}

// Load reads path, or the first explorer.yaml found in the standard
// locations when path is empty, over the defaults and then applies the
// environment. A missing file is not an error unless path was given.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
		cfg.File = path
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	set := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	// PORT first so EXPLORER_PORT wins when both are set.
	set("PORT", &c.Port)
	set("EXPLORER_PORT", &c.Port)
	set("EXPLORER_SOURCE", &c.Source)
	set("EXPLORER_SHEET", &c.Sheet)
	set("EXPLORER_GEONAMES", &c.GeoNames.Path)
	set("EXPLORER_GEONAMES_URL", &c.GeoNames.DownloadURL)
	set("EXPLORER_LOG_LEVEL", &c.Log.Level)
	set("EXPLORER_LOG_FORMAT", &c.Log.Format)
	set("EXPLORER_SESSION_SECRET", &c.Session.Secret)
	set("EXPLORER_S3_REGION", &c.S3.Region)
	set("EXPLORER_S3_ENDPOINT", &c.S3.Endpoint)

	if v := os.Getenv("EXPLORER_SESSION_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("EXPLORER_SESSION_TTL: %w", err)
		}
		c.Session.TTL = ttl
	}
	if v := os.Getenv("EXPLORER_DENSITY_PRECISION"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("EXPLORER_DENSITY_PRECISION: %w", err)
		}
		c.DensityPrecision = p
	}
	return nil
}

func (c Config) Validate() error {
	if c.Source == "" {
		return errors.New("config: source is required")
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("config: port %q is not a number", c.Port)
	}
	if c.DensityPrecision < 1 || c.DensityPrecision > 12 {
		return fmt.Errorf("config: density_precision %d out of range 1-12", c.DensityPrecision)
	}
	if len(c.Session.Secret) < 16 {
		return errors.New("config: session secret must be at least 16 bytes")
	}
	return nil
}

func (c Config) Addr() string {
	return ":" + c.Port
}

func findConfigFile() string {
	candidates := []string{
		os.Getenv("XDG_CONFIG_HOME"),
		os.Getenv("HOME"),
		".",
	}
	for _, dir := range candidates {
		if dir == "" {
			continue
		}
		file := filepath.Join(dir, FileName)
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			return file
		}
	}
	return ""
}

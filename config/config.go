package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is read from DAYLIFE_* environment variables, optionally seeded
// from a .env file in the working directory.
type Config struct {
	Port string `mapstructure:"DAYLIFE_PORT"`
	// DataSource is a directory or http(s) base URL holding the CSV exports.
	// Empty serves the bundled sample data.
	DataSource    string        `mapstructure:"DAYLIFE_DATA_SOURCE"`
	BaseDate      string        `mapstructure:"DAYLIFE_BASE_DATE"`
	WindowMinutes float64       `mapstructure:"DAYLIFE_WINDOW_MINUTES"`
	MaxGapMinutes float64       `mapstructure:"DAYLIFE_MAX_GAP_MINUTES"`
	AssetTable    string        `mapstructure:"DAYLIFE_ASSET_TABLE"`
	AssetDir      string        `mapstructure:"DAYLIFE_ASSET_DIR"`
	CacheMaxAge   time.Duration `mapstructure:"DAYLIFE_CACHE_MAX_AGE"`
	OpenBrowser   bool          `mapstructure:"DAYLIFE_OPEN_BROWSER"`
	LogDir        string        `mapstructure:"DAYLIFE_LOG_DIR"`
	Watch         bool          `mapstructure:"DAYLIFE_WATCH"`
}

var defaults = map[string]any{
	"DAYLIFE_PORT":            "8080",
	"DAYLIFE_DATA_SOURCE":     "",
	"DAYLIFE_BASE_DATE":       "2024-01-01",
	"DAYLIFE_WINDOW_MINUTES":  60.0,
	"DAYLIFE_MAX_GAP_MINUTES": 3.0,
	"DAYLIFE_ASSET_TABLE":     "",
	"DAYLIFE_ASSET_DIR":       "assets",
	"DAYLIFE_CACHE_MAX_AGE":   "2h",
	"DAYLIFE_OPEN_BROWSER":    true,
	"DAYLIFE_LOG_DIR":         "logs",
	"DAYLIFE_WATCH":           true,
}

// Load reads the configuration. A missing .env file is not an error.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Ignoring .env file: %v", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to read configuration: %w", err)
	}
	if _, err := cfg.Base(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Base parses BaseDate as midnight UTC of study day 1.
func (c Config) Base() (time.Time, error) {
	t, err := time.Parse("2006-01-02", c.BaseDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid DAYLIFE_BASE_DATE %q: %w", c.BaseDate, err)
	}
	return t, nil
}

// Window is the visible time span.
func (c Config) Window() time.Duration {
	return time.Duration(c.WindowMinutes * float64(time.Minute))
}

// MaxGap is the interpolation threshold.
func (c Config) MaxGap() time.Duration {
	return time.Duration(c.MaxGapMinutes * float64(time.Minute))
}

// Addr is the listen address.
func (c Config) Addr() string {
	return ":" + c.Port
}

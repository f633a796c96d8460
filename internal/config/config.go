// Package config loads the service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"

	"dietplan/internal/domain"
)

// Config holds every setting the service reads at startup. It is loaded once
// and treated as immutable.
type Config struct {
	Addr        string
	DatabaseURL string
	LogLevel    string

	Places    PlacesConfig
	Metabolic domain.MetabolicDefaults

	TrendWindow int
}

// PlacesConfig configures the Nominatim place-search client.
type PlacesConfig struct {
	BaseURL         string
	UserAgent       string
	RequestsPerSec  float64
	Timeout         time.Duration
	SearchLimit     int
	DefaultRadiusKm float64
}

// Load reads configuration from the environment and an optional .env file in
// the working directory.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	setDefaults(v)

	// A missing .env is fine; the environment alone is enough.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read .env: %w", err)
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	d := domain.DefaultMetabolicDefaults()

	v.SetDefault("ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("NOMINATIM_URL", "https://nominatim.openstreetmap.org")
	v.SetDefault("NOMINATIM_USER_AGENT", "dietplan/1.0")
	v.SetDefault("NOMINATIM_RPS", 1.0)
	v.SetDefault("NOMINATIM_TIMEOUT", 10*time.Second)
	v.SetDefault("PLACE_SEARCH_LIMIT", 10)
	v.SetDefault("DEFAULT_RADIUS_KM", 2.0)

	v.SetDefault("ASSUMED_AGE", d.Age)
	v.SetDefault("ASSUMED_SEX", string(d.Sex))
	v.SetDefault("CALORIE_REDUCTION_FACTOR", d.ReductionFactor)

	v.SetDefault("TREND_WINDOW", 4)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Addr:        v.GetString("ADDR"),
		DatabaseURL: v.GetString("DATABASE_URL"),
		LogLevel:    strings.ToLower(v.GetString("LOG_LEVEL")),
		Places: PlacesConfig{
			BaseURL:         strings.TrimRight(v.GetString("NOMINATIM_URL"), "/"),
			UserAgent:       v.GetString("NOMINATIM_USER_AGENT"),
			RequestsPerSec:  v.GetFloat64("NOMINATIM_RPS"),
			Timeout:         v.GetDuration("NOMINATIM_TIMEOUT"),
			SearchLimit:     v.GetInt("PLACE_SEARCH_LIMIT"),
			DefaultRadiusKm: v.GetFloat64("DEFAULT_RADIUS_KM"),
		},
		Metabolic: domain.MetabolicDefaults{
			Age:             v.GetInt("ASSUMED_AGE"),
			Sex:             domain.Sex(strings.ToLower(v.GetString("ASSUMED_SEX"))),
			ReductionFactor: v.GetFloat64("CALORIE_REDUCTION_FACTOR"),
		},
		TrendWindow: v.GetInt("TREND_WINDOW"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later at request time.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("ADDR is required")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got %q", c.LogLevel)
	}
	if c.Places.BaseURL == "" {
		return fmt.Errorf("NOMINATIM_URL is required")
	}
	if c.Places.RequestsPerSec <= 0 {
		return fmt.Errorf("NOMINATIM_RPS must be > 0")
	}
	if c.Places.SearchLimit <= 0 {
		return fmt.Errorf("PLACE_SEARCH_LIMIT must be > 0")
	}
	if c.Places.DefaultRadiusKm <= 0 {
		return fmt.Errorf("DEFAULT_RADIUS_KM must be > 0")
	}
	if c.Metabolic.Age <= 0 {
		return fmt.Errorf("ASSUMED_AGE must be > 0")
	}
	if _, err := domain.ParseSex(string(c.Metabolic.Sex)); err != nil {
		return fmt.Errorf("ASSUMED_SEX: %w", err)
	}
	if f := c.Metabolic.ReductionFactor; f <= 0 || f > 1 {
		return fmt.Errorf("CALORIE_REDUCTION_FACTOR must be in (0, 1]")
	}
	if c.TrendWindow <= 0 {
		return fmt.Errorf("TREND_WINDOW must be > 0")
	}
	return nil
}

// Package config loads server settings from an optional YAML file and
// lets environment variables override individual fields, so containers
// can tweak a single knob without shipping a file.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port string `yaml:"port"`

	DatabaseURL   string `yaml:"databaseUrl"`
	RedisURL      string `yaml:"redisUrl"`
	DirectionsURL string `yaml:"directionsUrl"`

	// TravelSpeedKmh is the assumed point-to-point speed for ETA math.
	TravelSpeedKmh float64 `yaml:"travelSpeedKmh"`
	// Planner defaults applied when a request leaves them unset.
	DefaultMaxTourHours float64 `yaml:"defaultMaxTourHours"`
	DefaultVenueMinutes int     `yaml:"defaultVenueMinutes"`
	// DefaultMaxVenues caps route growth through edits.
	DefaultMaxVenues int `yaml:"defaultMaxVenues"`
	PlannerWorkers      int     `yaml:"plannerWorkers"`
	TwoOptIterations    int     `yaml:"twoOptIterations"`

	DirectionsTimeoutSec int `yaml:"directionsTimeoutSec"`

	// Per-client rate limit on route generation.
	RateRPS   float64 `yaml:"rateRps"`
	RateBurst int     `yaml:"rateBurst"`
}

func defaults() Config {
	return Config{
		Port:                 "8080",
		TravelSpeedKmh:       18,
		DefaultMaxTourHours:  8,
		DefaultVenueMinutes:  30,
		DefaultMaxVenues:     10,
		PlannerWorkers:       8,
		TwoOptIterations:     8,
		DirectionsTimeoutSec: 5,
		RateRPS:              2,
		RateBurst:            5,
	}
}

// Load reads CONFIG_FILE if set, then applies env overrides on top of
// the file values and built-in defaults.
func Load() (Config, error) {
	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	envStr("PORT", &c.Port)
	envStr("DATABASE_URL", &c.DatabaseURL)
	envStr("REDIS_URL", &c.RedisURL)
	envStr("DIRECTIONS_URL", &c.DirectionsURL)
	envFloat("TRAVEL_SPEED_KMH", &c.TravelSpeedKmh)
	envFloat("DEFAULT_MAX_TOUR_HOURS", &c.DefaultMaxTourHours)
	envInt("DEFAULT_VENUE_MINUTES", &c.DefaultVenueMinutes)
	envInt("DEFAULT_MAX_VENUES", &c.DefaultMaxVenues)
	envInt("PLANNER_WORKERS", &c.PlannerWorkers)
	envInt("TWO_OPT_ITERATIONS", &c.TwoOptIterations)
	envInt("DIRECTIONS_TIMEOUT_SEC", &c.DirectionsTimeoutSec)
	envFloat("RATE_RPS", &c.RateRPS)
	envInt("RATE_BURST", &c.RateBurst)
}

func (c Config) validate() error {
	if c.TravelSpeedKmh <= 0 {
		return fmt.Errorf("config: travelSpeedKmh must be positive, got %v", c.TravelSpeedKmh)
	}
	if c.DefaultMaxTourHours <= 0 {
		return fmt.Errorf("config: defaultMaxTourHours must be positive, got %v", c.DefaultMaxTourHours)
	}
	if c.DefaultVenueMinutes <= 0 {
		return fmt.Errorf("config: defaultVenueMinutes must be positive, got %v", c.DefaultVenueMinutes)
	}
	if c.DefaultMaxVenues < 1 {
		return fmt.Errorf("config: defaultMaxVenues must be at least 1, got %d", c.DefaultMaxVenues)
	}
	if c.PlannerWorkers < 1 {
		return fmt.Errorf("config: plannerWorkers must be at least 1, got %d", c.PlannerWorkers)
	}
	return nil
}

func envStr(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

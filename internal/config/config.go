package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rubiojr/gasvolt/internal/compare"
	"github.com/rubiojr/gasvolt/pkg/api"
)

const (
	DefaultPath    = "gasvolt.yaml"
	DefaultMPG     = 42.6
	DefaultEMPG    = 2.9
	DefaultAddr    = "127.0.0.1:8080"
	DefaultRefresh = "0 */6 * * *"
)

// Station is a GasBuddy station to watch.
type Station struct {
	Label string `yaml:"label"`
	ID    int    `yaml:"id"`
}

// Config holds all application configuration.
type Config struct {
	Vehicle     compare.Vehicle   `yaml:"vehicle"`
	Fuel        string            `yaml:"fuel"`
	Stations    []Station         `yaml:"stations"`
	Chargers    []compare.Charger `yaml:"chargers"`
	HomeCharger string            `yaml:"home_charger"`
	Origin      string            `yaml:"origin"`
	HTTP        struct {
		Timeout   time.Duration `yaml:"timeout"`
		UserAgent string        `yaml:"user_agent"`
		BaseURL   string        `yaml:"base_url"`
		Proxy     string        `yaml:"proxy"`
	} `yaml:"http"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Serve struct {
		Addr    string `yaml:"addr"`
		Refresh string `yaml:"refresh"`
	} `yaml:"serve"`
}

func rate(v float64) *float64 { return &v }

// DefaultStations are the stations watched when the config lists none.
func DefaultStations() []Station {
	return []Station{
		{Label: "diamond", ID: 4027}, // Diamond Gas & Mart, 789 E Evelyn Ave, Mountain View
		{Label: "costco", ID: 490},   // Costco, 150 Lawrence Station Rd, Sunnyvale
	}
}

// DefaultChargers are the charging rates used when the config lists none.
func DefaultChargers() []compare.Charger {
	return []compare.Charger{
		{Name: "Home", Rate: rate(0.31)},
		{Name: "Work (free L2)", Rate: rate(0.00)},
		{Name: "ChargePoint", Rate: rate(0.35)},
		{Name: "Supercharger", Rate: rate(0.48)},
		{Name: "Library L2"},
	}
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("GASVOLT_MPG"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("GASVOLT_MPG: %w", err)
		}
		c.Vehicle.MPG = f
	}
	if v := os.Getenv("GASVOLT_EMPG"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("GASVOLT_EMPG: %w", err)
		}
		c.Vehicle.EMPG = f
	}
	if v := os.Getenv("GASVOLT_FUEL"); v != "" {
		c.Fuel = v
	}
	if v := os.Getenv("GASVOLT_DB"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("GASVOLT_ORIGIN"); v != "" {
		c.Origin = v
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Vehicle.MPG == 0 {
		c.Vehicle.MPG = DefaultMPG
	}
	if c.Vehicle.EMPG == 0 {
		c.Vehicle.EMPG = DefaultEMPG
	}
	if c.Fuel == "" {
		c.Fuel = api.FuelRegular
	}
	if len(c.Stations) == 0 {
		c.Stations = DefaultStations()
	}
	if len(c.Chargers) == 0 {
		c.Chargers = DefaultChargers()
	}
	if c.HomeCharger == "" {
		c.HomeCharger = "Home"
	}
	if c.HTTP.Timeout == 0 {
		c.HTTP.Timeout = api.DefaultTimeout
	}
	if c.Serve.Addr == "" {
		c.Serve.Addr = DefaultAddr
	}
	if c.Serve.Refresh == "" {
		c.Serve.Refresh = DefaultRefresh
	}
}

// Validate checks that all fields hold usable values.
func (c *Config) Validate() error {
	if err := c.Vehicle.Validate(); err != nil {
		return err
	}
	if !slices.Contains(api.FuelTypes, c.Fuel) {
		return fmt.Errorf("unknown fuel type %q (expected one of %v)", c.Fuel, api.FuelTypes)
	}
	seen := make(map[string]struct{}, len(c.Stations))
	ids := make(map[int]string, len(c.Stations))
	for _, s := range c.Stations {
		if s.ID <= 0 {
			return fmt.Errorf("station %q: id must be positive", s.Label)
		}
		if s.Label == "" {
			return fmt.Errorf("station %d: label is required", s.ID)
		}
		if _, dup := seen[s.Label]; dup {
			return fmt.Errorf("station %q listed twice", s.Label)
		}
		seen[s.Label] = struct{}{}
		if other, dup := ids[s.ID]; dup {
			return fmt.Errorf("stations %q and %q share id %d", other, s.Label, s.ID)
		}
		ids[s.ID] = s.Label
	}
	for _, ch := range c.Chargers {
		if ch.Name == "" {
			return fmt.Errorf("charger name is required")
		}
		if ch.Rate != nil && *ch.Rate < 0 {
			return fmt.Errorf("charger %q: rate must not be negative", ch.Name)
		}
	}
	if c.HTTP.Timeout < 0 {
		return fmt.Errorf("http.timeout must not be negative")
	}
	if c.HTTP.Proxy != "" {
		if _, err := api.ParseProxy(c.HTTP.Proxy); err != nil {
			return fmt.Errorf("http.proxy: %w", err)
		}
	}
	return nil
}

// APIOptions returns the fetcher options for this config.
func (c *Config) APIOptions() api.Options {
	return api.Options{
		BaseURL:   c.HTTP.BaseURL,
		Timeout:   c.HTTP.Timeout,
		UserAgent: c.HTTP.UserAgent,
		Proxy:     c.HTTP.Proxy,
	}
}

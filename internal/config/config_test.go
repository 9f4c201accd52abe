package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Vehicle.MPG != DefaultMPG || cfg.Vehicle.EMPG != DefaultEMPG {
		t.Errorf("Expected default vehicle, got %v", cfg.Vehicle)
	}
	if cfg.Fuel != "regular_gas" {
		t.Errorf("Expected regular_gas, got %q", cfg.Fuel)
	}
	if len(cfg.Stations) != 2 || cfg.Stations[0].ID != 4027 || cfg.Stations[1].ID != 490 {
		t.Errorf("Unexpected default stations %+v", cfg.Stations)
	}
	if cfg.HomeCharger != "Home" {
		t.Errorf("Expected Home charger, got %q", cfg.HomeCharger)
	}
	if cfg.HTTP.Timeout != 15*time.Second {
		t.Errorf("Expected 15s timeout, got %v", cfg.HTTP.Timeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gasvolt.yaml")
	data := `
vehicle:
  mpg: 30
  empg: 3.5
fuel: premium_gas
stations:
  - label: shell
    id: 12345
chargers:
  - name: Garage
    rate: 0.22
  - name: Mall
home_charger: Garage
http:
  timeout: 5s
database:
  path: /tmp/prices.db
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Vehicle.MPG != 30 || cfg.Vehicle.EMPG != 3.5 {
		t.Errorf("Unexpected vehicle %v", cfg.Vehicle)
	}
	if cfg.Fuel != "premium_gas" {
		t.Errorf("Unexpected fuel %q", cfg.Fuel)
	}
	if len(cfg.Stations) != 1 || cfg.Stations[0].Label != "shell" {
		t.Errorf("Unexpected stations %+v", cfg.Stations)
	}
	if len(cfg.Chargers) != 2 {
		t.Fatalf("Expected 2 chargers, got %d", len(cfg.Chargers))
	}
	if cfg.Chargers[0].Rate == nil || *cfg.Chargers[0].Rate != 0.22 {
		t.Errorf("Unexpected Garage rate %v", cfg.Chargers[0].Rate)
	}
	if cfg.Chargers[1].Rate != nil {
		t.Error("Expected Mall rate to be unknown")
	}
	if cfg.HTTP.Timeout != 5*time.Second {
		t.Errorf("Unexpected timeout %v", cfg.HTTP.Timeout)
	}
	if cfg.Database.Path != "/tmp/prices.db" {
		t.Errorf("Unexpected db path %q", cfg.Database.Path)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("GASVOLT_MPG", "50")
	t.Setenv("GASVOLT_EMPG", "4.1")
	t.Setenv("GASVOLT_FUEL", "diesel")
	t.Setenv("GASVOLT_DB", "env.db")
	t.Setenv("GASVOLT_ORIGIN", "37.39,-122.06")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Vehicle.MPG != 50 || cfg.Vehicle.EMPG != 4.1 {
		t.Errorf("Expected env vehicle, got %v", cfg.Vehicle)
	}
	if cfg.Fuel != "diesel" || cfg.Database.Path != "env.db" || cfg.Origin != "37.39,-122.06" {
		t.Errorf("Env overrides not applied: %+v", cfg)
	}

	t.Setenv("GASVOLT_MPG", "lots")
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for invalid GASVOLT_MPG")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("vehicle: [1, 2"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"bad fuel", func(c *Config) { c.Fuel = "kerosene" }, "unknown fuel"},
		{"bad mpg", func(c *Config) { c.Vehicle.MPG = -1 }, "mpg"},
		{"bad station id", func(c *Config) { c.Stations = []Station{{Label: "x", ID: 0}} }, "id must be positive"},
		{"duplicate station", func(c *Config) { c.Stations = []Station{{Label: "x", ID: 1}, {Label: "x", ID: 2}} }, "twice"},
		{"negative rate", func(c *Config) { r := -0.1; c.Chargers[0].Rate = &r }, "negative"},
		{"shared station id", func(c *Config) { c.Stations = []Station{{Label: "a", ID: 490}, {Label: "b", ID: 490}} }, "share id 490"},
		{"bad proxy", func(c *Config) { c.HTTP.Proxy = "http://[::1" }, "http.proxy"},
		{"proxy without host", func(c *Config) { c.HTTP.Proxy = "proxy.local" }, "http.proxy"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
			if err != nil {
				t.Fatal(err)
			}
			test.mutate(cfg)
			err = cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), test.errMsg) {
				t.Errorf("Validate() = %v, expected error containing %q", err, test.errMsg)
			}
		})
	}
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/rubiojr/gasvolt/internal/config"
	"github.com/rubiojr/gasvolt/internal/gasvolt"
	"github.com/rubiojr/gasvolt/internal/geo"
	"github.com/rubiojr/gasvolt/pkg/api"
)

func globalFlags() []cli.Flag {
	return append([]cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Configuration file",
			Value:   config.DefaultPath,
			EnvVars: []string{"GASVOLT_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "db",
			Usage: "Price history database file (disabled when empty)",
		},
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "Log debug messages to stderr",
		},
	}, comparisonFlags()...)
}

// comparisonFlags are accepted both before and after the subcommand name.
func comparisonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Float64Flag{
			Name:  "mpg",
			Usage: fmt.Sprintf("Gas fuel economy in miles per gallon (default: %g)", config.DefaultMPG),
		},
		&cli.Float64Flag{
			Name:  "empg",
			Usage: fmt.Sprintf("Electric efficiency in miles per kWh (default: %g)", config.DefaultEMPG),
		},
		&cli.StringFlag{
			Name:  "fuel",
			Usage: fmt.Sprintf("Fuel type: %v (default: %s)", api.FuelTypes, api.FuelRegular),
		},
		&cli.StringFlag{
			Name:  "origin",
			Usage: "Show distances from this place or \"lat,lng\"",
		},
		&cli.BoolFlag{
			Name:  "no-color",
			Usage: "Disable colored console output (also NO_COLOR)",
		},
	}
}

func lineageFloat(c *cli.Context, name string) float64 {
	for _, ctx := range c.Lineage() {
		if v := ctx.Float64(name); v != 0 {
			return v
		}
	}
	return 0
}

func lineageString(c *cli.Context, name string) string {
	for _, ctx := range c.Lineage() {
		if v := ctx.String(name); v != "" {
			return v
		}
	}
	return ""
}

func lineageBool(c *cli.Context, name string) bool {
	for _, ctx := range c.Lineage() {
		if ctx.Bool(name) {
			return true
		}
	}
	return false
}

func newLogger(c *cli.Context) *slog.Logger {
	if !lineageBool(c, "debug") {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// loadConfig reads the config file and applies command line overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(lineageString(c, "config"))
	if err != nil {
		return nil, err
	}
	if v := lineageFloat(c, "mpg"); v != 0 {
		cfg.Vehicle.MPG = v
	}
	if v := lineageFloat(c, "empg"); v != 0 {
		cfg.Vehicle.EMPG = v
	}
	if v := lineageString(c, "fuel"); v != "" {
		cfg.Fuel = v
	}
	if v := lineageString(c, "origin"); v != "" {
		cfg.Origin = v
	}
	if v := lineageString(c, "db"); v != "" {
		cfg.Database.Path = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// manualPrice parses the optional positional gas price. Flag parsing stops
// at the price, so anything after it is rejected rather than ignored.
func manualPrice(c *cli.Context) (*float64, error) {
	arg := c.Args().First()
	if arg == "" {
		return nil, nil
	}
	if c.NArg() > 1 {
		return nil, fmt.Errorf("unexpected arguments %v: flags must come before the price", c.Args().Tail())
	}
	p, err := strconv.ParseFloat(arg, 64)
	if err != nil || p <= 0 {
		return nil, fmt.Errorf("invalid gas price %q: expected a positive number in $/gal", arg)
	}
	return &p, nil
}

// env is what every price command needs.
type env struct {
	cfg     *config.Config
	log     *slog.Logger
	storage *gasvolt.Storage
	svc     *gasvolt.Service
}

func newEnv(ctx context.Context, c *cli.Context, logger *slog.Logger) (*env, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	e := &env{cfg: cfg, log: logger}

	if cfg.Database.Path != "" {
		e.storage, err = gasvolt.NewStorage(ctx, cfg.Database.Path, logger)
		if err != nil {
			return nil, fmt.Errorf("error initializing storage: %w", err)
		}
	}

	var origin *geo.Point
	if cfg.Origin != "" {
		p, err := geo.NewGeocoder().Resolve(cfg.Origin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  origin %q: %v\n", cfg.Origin, err)
		} else {
			origin = &p
		}
	}

	fetcher := api.NewGasBuddyAPI(cfg.APIOptions())
	e.svc = gasvolt.NewService(cfg, fetcher, e.storage, origin, logger)
	return e, nil
}

func (e *env) Close() {
	if e.storage != nil {
		e.storage.Close()
	}
}

func colorEnabled(c *cli.Context) bool {
	if lineageBool(c, "no-color") || os.Getenv("NO_COLOR") != "" {
		return false
	}
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/rubiojr/gasvolt/internal/gasvolt"
	"github.com/rubiojr/gasvolt/internal/render"
)

func compareCommand() *cli.Command {
	return &cli.Command{
		Name:      "compare",
		Usage:     "Compare gas against the configured chargers (default command)",
		ArgsUsage: "[gas price in $/gal]",
		Flags: append([]cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the report as JSON",
			},
		}, comparisonFlags()...),
		Action: compareAction,
	}
}

func compareAction(c *cli.Context) error {
	manual, err := manualPrice(c)
	if err != nil {
		return err
	}

	e, err := newEnv(c.Context, c, newLogger(c))
	if err != nil {
		return err
	}
	defer e.Close()

	if manual == nil && !c.Bool("json") {
		fmt.Fprintf(os.Stderr, "Fetching live %s prices...\n", e.cfg.Fuel)
	}

	report, err := e.svc.Run(c.Context, manual)
	if errors.Is(err, gasvolt.ErrNoPrices) {
		if err := render.TextNoPrices(os.Stdout, report.Failures); err != nil {
			return err
		}
		return cli.Exit("", 1)
	}
	if err != nil {
		return err
	}

	if c.Bool("json") {
		return render.JSON(os.Stdout, report)
	}
	return render.Text(os.Stdout, report, render.TextOptions{Color: colorEnabled(c)})
}

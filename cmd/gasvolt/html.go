package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/rubiojr/gasvolt/internal/gasvolt"
	"github.com/rubiojr/gasvolt/internal/render"
)

func htmlCommand() *cli.Command {
	return &cli.Command{
		Name:      "html",
		Usage:     "Write the comparison as a static HTML page",
		ArgsUsage: "[gas price in $/gal]",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file (stdout when empty)",
			},
		}, comparisonFlags()...),
		Action: htmlAction,
	}
}

func htmlAction(c *cli.Context) error {
	manual, err := manualPrice(c)
	if err != nil {
		return err
	}

	e, err := newEnv(c.Context, c, newLogger(c))
	if err != nil {
		return err
	}
	defer e.Close()

	var w io.Writer = os.Stdout
	if path := c.String("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("error creating %s: %w", path, err)
		}
		defer f.Close()
		w = f
	}

	report, err := e.svc.Run(c.Context, manual)
	if errors.Is(err, gasvolt.ErrNoPrices) {
		if err := render.HTMLFailure(w, report.Failures); err != nil {
			return err
		}
		return cli.Exit("", 1)
	}
	if err != nil {
		return err
	}
	return render.HTML(w, report)
}

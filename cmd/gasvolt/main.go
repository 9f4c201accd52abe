package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:      "gasvolt",
		Usage:     "Gas vs electric break-even calculator",
		ArgsUsage: "[gas price in $/gal, omit to fetch live from GasBuddy]",
		Flags:     globalFlags(),
		Action:    compareAction,
		Commands: []*cli.Command{
			compareCommand(),
			htmlCommand(),
			serveCommand(),
			historyCommand(),
			pruneCommand(),
			checkStatusCommand(),
			stationsCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

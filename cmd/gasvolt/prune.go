package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/rubiojr/gasvolt/internal/gasvolt"
)

func pruneCommand() *cli.Command {
	return &cli.Command{
		Name:  "prune",
		Usage: "Delete recorded prices older than the given number of days",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "days",
				Usage: "Keep this many days of history",
				Value: 90,
			},
		},
		Action: pruneAction,
	}
}

func pruneAction(c *cli.Context) error {
	days := c.Int("days")
	if days < 1 {
		return fmt.Errorf("--days must be at least 1, got %d", days)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if cfg.Database.Path == "" {
		return errNoDatabase
	}

	storage, err := gasvolt.NewStorage(c.Context, cfg.Database.Path, newLogger(c))
	if err != nil {
		return fmt.Errorf("error initializing storage: %w", err)
	}
	defer storage.Close()

	n, err := storage.DeleteOldRecords(c.Context, days)
	if err != nil {
		return err
	}
	if err := storage.VacuumDatabase(c.Context); err != nil {
		return err
	}
	fmt.Printf("Deleted %d records older than %d days\n", n, days)
	return nil
}

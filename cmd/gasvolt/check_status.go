package main

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/rubiojr/gasvolt/internal/gasvolt"
)

func checkStatusCommand() *cli.Command {
	return &cli.Command{
		Name:  "check-status",
		Usage: "Check for days without recorded prices",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "start",
				Usage: "Start date (YYYY-MM-DD), defaults to the first recorded day",
			},
			&cli.StringFlag{
				Name:  "end",
				Usage: "End date (YYYY-MM-DD), defaults to today",
			},
		},
		Action: checkStatusAction,
	}
}

func checkStatusAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if cfg.Database.Path == "" {
		return errNoDatabase
	}

	storage, err := gasvolt.NewStorage(c.Context, cfg.Database.Path, newLogger(c))
	if err != nil {
		return err
	}
	defer storage.Close()

	allDates, err := storage.RecordedDates(c.Context)
	if err != nil {
		return err
	}
	if len(allDates) == 0 {
		fmt.Println("No dates found in database.")
		return nil
	}

	startDate := allDates[0]
	if c.String("start") != "" {
		startDate, err = time.Parse(time.DateOnly, c.String("start"))
		if err != nil {
			return fmt.Errorf("invalid start date: %w", err)
		}
	}
	endDate := time.Now().UTC()
	if c.String("end") != "" {
		endDate, err = time.Parse(time.DateOnly, c.String("end"))
		if err != nil {
			return fmt.Errorf("invalid end date: %w", err)
		}
	}

	fmt.Printf("Checking for missing days in range: %s to %s\n", startDate.Format(time.DateOnly), endDate.Format(time.DateOnly))

	missing := missingDays(allDates, startDate, endDate)
	if len(missing) == 0 {
		fmt.Println("No missing days in the given range.")
		return nil
	}
	fmt.Println("Missing days:")
	for _, m := range missing {
		fmt.Println(m)
	}
	return nil
}

// missingDays lists the days in [start, end] absent from dates.
func missingDays(dates []time.Time, start, end time.Time) []string {
	dateSet := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		dateSet[d.Format(time.DateOnly)] = struct{}{}
	}

	var missing []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		ds := d.Format(time.DateOnly)
		if _, ok := dateSet[ds]; !ok {
			missing = append(missing, ds)
		}
	}
	return missing
}

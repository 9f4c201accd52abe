package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/urfave/cli/v2"

	"github.com/rubiojr/gasvolt/internal/gasvolt"
)

var errNoDatabase = errors.New("no database configured, pass --db or set database.path")

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recorded station prices",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "station",
				Usage: "Only show this station label",
			},
			&cli.StringFlag{
				Name:  "fuel",
				Usage: "Only show this fuel type",
			},
			&cli.DurationFlag{
				Name:  "since",
				Usage: "Only show prices fetched within this duration (e.g. 72h)",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of records",
				Value: 50,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print records as JSON",
			},
		},
		Action: historyAction,
	}
}

func historyAction(c *cli.Context) error {
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

	q := gasvolt.HistoryQuery{
		Label: c.String("station"),
		Fuel:  c.String("fuel"),
		Limit: c.Int("limit"),
	}
	if d := c.Duration("since"); d > 0 {
		q.Since = time.Now().Add(-d)
	}

	records, err := storage.History(c.Context, q)
	if err != nil {
		return err
	}

	if c.Bool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Println("No recorded prices.")
		return nil
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Fetched", "Station", "Fuel", "Credit", "Cash", "Posted"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	for _, r := range records {
		cash := "-"
		if r.Cash != nil {
			cash = fmt.Sprintf("$%.2f", *r.Cash)
		}
		tw.AppendRow(table.Row{
			r.FetchedAt.Local().Format("2006-01-02 15:04"),
			fmt.Sprintf("%s (%s)", r.Name, r.Label),
			r.Fuel,
			fmt.Sprintf("$%.2f", r.Credit),
			cash,
			r.Posted,
		})
	}
	tw.Render()
	return nil
}

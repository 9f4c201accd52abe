package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"

	"github.com/rubiojr/gasvolt/internal/config"
	"github.com/rubiojr/gasvolt/internal/geo"
	"github.com/rubiojr/gasvolt/pkg/api"
)

func stationsCommand() *cli.Command {
	return &cli.Command{
		Name:   "stations",
		Usage:  "List the configured stations with every posted fuel price",
		Flags:  comparisonFlags(),
		Action: stationsAction,
	}
}

func stationsAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	var origin *geo.Point
	if cfg.Origin != "" {
		p, err := geo.NewGeocoder().Resolve(cfg.Origin)
		if err != nil {
			return err
		}
		fmt.Println("Location found:", p.Name)
		origin = &p
	}

	gb := api.NewGasBuddyAPI(cfg.APIOptions())
	if listStations(c.Context, os.Stdout, gb, cfg.Stations, origin) == 0 {
		return cli.Exit("", 1)
	}
	return nil
}

// listStations prints one row per station and returns how many answered.
func listStations(ctx context.Context, w io.Writer, gb *api.GasBuddyAPI, stations []config.Station, origin *geo.Point) int {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)

	header := table.Row{"Label", "Station"}
	for _, fuel := range api.FuelTypes {
		header = append(header, fuel)
	}
	header = append(header, "Distance", "URL")
	tw.AppendHeader(header)

	ok := 0
	for _, st := range stations {
		sp, err := gb.FetchStation(ctx, st.ID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  [%s] fetch failed: %v\n", st.Label, err)
			continue
		}
		if sp == nil {
			fmt.Fprintf(os.Stderr, "  [%s] no station data\n", st.Label)
			continue
		}

		row := table.Row{st.Label, stationTitle(sp)}
		for _, fuel := range api.FuelTypes {
			row = append(row, fuelCell(sp, fuel))
		}
		dist := "-"
		if origin != nil && sp.HasLocation() {
			dist = fmt.Sprintf("%.1f mi", geo.Distance(*origin, sp.Latitude, sp.Longitude)/geo.MetersPerMile)
		}
		row = append(row, dist, gb.StationURL(st.ID))
		tw.AppendRow(row)
		ok++
	}
	tw.Render()
	return ok
}

func stationTitle(sp *api.StationPrice) string {
	switch {
	case sp.Address != "" && sp.City != "":
		return fmt.Sprintf("%s (%s, %s)", sp.Name, sp.Address, sp.City)
	case sp.City != "":
		return fmt.Sprintf("%s (%s)", sp.Name, sp.City)
	default:
		return sp.Name
	}
}

func fuelCell(sp *api.StationPrice, fuel string) string {
	fp, ok := sp.Fuel(fuel)
	if !ok || fp.Credit == nil {
		return "-"
	}
	if fp.Cash != nil {
		return fmt.Sprintf("$%.2f / $%.2f cash", *fp.Credit, *fp.Cash)
	}
	return fmt.Sprintf("$%.2f", *fp.Credit)
}

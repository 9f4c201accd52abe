package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/rubiojr/gasvolt/internal/compare"
	"github.com/rubiojr/gasvolt/internal/gasvolt"
)

// TextOptions controls console output.
type TextOptions struct {
	Color bool
}

var breakEvenBox = lipgloss.NewStyle().
	BorderStyle(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("#4ecca3")).
	Padding(0, 2).
	MarginLeft(2)

type console struct {
	w    io.Writer
	opts TextOptions
	err  error
}

func (c *console) printf(format string, args ...any) {
	if c.err != nil {
		return
	}
	_, c.err = fmt.Fprintf(c.w, format, args...)
}

func (c *console) table(tw table.Writer) {
	tw.SetStyle(table.StyleRounded)
	for _, line := range strings.Split(tw.Render(), "\n") {
		c.printf("  %s\n", line)
	}
}

func (c *console) colorize(v compare.Verdict, known bool, s string) string {
	if !c.opts.Color {
		return s
	}
	if !known {
		return text.Colors{text.FgYellow, text.Italic}.Sprint(s)
	}
	switch v {
	case compare.VerdictCharge:
		return text.FgGreen.Sprint(s)
	case compare.VerdictGas:
		return text.FgRed.Sprint(s)
	default:
		return text.FgYellow.Sprint(s)
	}
}

// Text writes the console report.
func Text(w io.Writer, r *gasvolt.Report, opts TextOptions) error {
	c := &console{w: w, opts: opts}

	c.printf("\n  Vehicle: %s\n", r.Vehicle)
	if r.Origin != nil {
		c.printf("  Origin: %s\n", r.Origin.Name)
	}

	if r.Manual {
		c.printf("  Gas price: $%.3f/gal (manual)\n\n", r.GasPrice)
	} else {
		c.printf("  Fuel: %s\n", r.Fuel)
		if r.StaleSince != nil {
			c.printf("  Live fetch failed, using prices recorded %s\n", r.StaleSince.Local().Format("2006-01-02 15:04"))
		}
		c.printf("\n")
		writeFailures(c, r.Failures)
		writeStations(c, r)
		if r.Cheapest != nil {
			c.printf("\n  Cheapest gas: $%.2f/gal @ %s\n", r.Cheapest.Credit, r.Cheapest.Name())
		}
	}

	writeBreakEven(c, r.Comparison)
	writeChargers(c, r.Comparison)
	writeSweep(c, r.Sweep)

	if home := r.Comparison.Home; home != nil {
		c.printf("\n  Gas would need to drop below $%.2f/gal to beat charging at %s ($%.2f/kWh)\n",
			home.GasToBeat, home.Name, home.Rate)
	}
	c.printf("\n")

	return c.err
}

// TextNoPrices writes the console message for a run without any price.
func TextNoPrices(w io.Writer, failures []gasvolt.Failure) error {
	c := &console{w: w}
	writeFailures(c, failures)
	c.printf("  No live prices found. Pass a price manually:\n")
	c.printf("    gasvolt 4.00\n")
	return c.err
}

func writeFailures(c *console, failures []gasvolt.Failure) {
	for _, f := range failures {
		c.printf("  [%s] %s\n", f.Label, f.Reason)
	}
	if len(failures) > 0 {
		c.printf("\n")
	}
}

func writeStations(c *console, r *gasvolt.Report) {
	if len(r.Quotes) == 0 {
		return
	}
	tw := table.NewWriter()
	header := table.Row{"Station", "Location", "Credit", "Cash"}
	if r.Origin != nil {
		header = append(header, "Distance")
	}
	tw.AppendHeader(header)
	for _, q := range r.Quotes {
		row := table.Row{q.Name(), q.Location(), money(q.Credit, 2), optionalMoney(q.Cash)}
		if r.Origin != nil {
			row = append(row, distance(q))
		}
		tw.AppendRow(row)
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	c.table(tw)
}

func writeBreakEven(c *console, res *compare.Result) {
	be := money(res.BreakEvenRate, 3)
	style := breakEvenBox
	if !c.opts.Color {
		style = style.UnsetBorderForeground()
	}
	box := style.Render(fmt.Sprintf("Break-even electricity price: %s/kWh\nCharge if your rate is below %s/kWh", be, be))
	c.printf("\n%s\n\n", box)
}

func writeChargers(c *console, res *compare.Result) {
	if len(res.Chargers) == 0 {
		return
	}
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"Location", "Rate", "$/mi", "vs Gas", "Verdict"})
	for _, cr := range res.Chargers {
		if !cr.Known {
			tw.AppendRow(table.Row{cr.Name, unknownRate, placeholder, placeholder, c.colorize(cr.Verdict, false, "unknown")})
			continue
		}
		tw.AppendRow(table.Row{
			cr.Name,
			money(*cr.Rate, 2),
			money(cr.CostPerMile, 4),
			fmt.Sprintf("%+.4f", cr.Diff),
			c.colorize(cr.Verdict, true, verdictText(cr)),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	c.table(tw)
}

func writeSweep(c *console, rows []compare.SweepRow) {
	if len(rows) == 0 {
		return
	}
	c.printf("\n")
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"Elec Rate", "$/mi (elec)", "$/mi (gas)", "Verdict"})
	for _, row := range rows {
		verdict := "Gas"
		if row.Verdict == compare.VerdictCharge {
			verdict = "Charge"
		}
		if row.NearBreakEvenPoint {
			verdict += " <--"
		}
		tw.AppendRow(table.Row{
			money(row.Rate, 2) + "/kWh",
			money(row.CostPerMile, 4) + "/mi",
			money(row.GasCostPerMile, 4) + "/mi",
			c.colorize(row.Verdict, true, verdict),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})
	c.table(tw)
}

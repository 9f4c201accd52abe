package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/rubiojr/gasvolt/internal/gasvolt"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html.tmpl"))

const updatedLayout = "2006-01-02 15:04 UTC"

type htmlStation struct {
	Name, Location, Credit, Cash, Distance string
}

type htmlCharger struct {
	Class, Name, Rate, PerMile, Diff, Verdict string
}

type htmlPage struct {
	Vehicle      struct{ MPG, EMPG float64 }
	Updated      string
	Stale        string
	HeroLabel    string
	GasPrice     string
	BreakEven    string
	ShowDistance bool
	Stations     []htmlStation
	Chargers     []htmlCharger
	Home         string
	Failures     []string
}

func newHTMLPage(r *gasvolt.Report) *htmlPage {
	p := &htmlPage{
		Updated:      r.GeneratedAt.UTC().Format(updatedLayout),
		GasPrice:     money(r.GasPrice, 2),
		BreakEven:    money(r.Comparison.BreakEvenRate, 3),
		ShowDistance: r.Origin != nil,
	}
	p.Vehicle.MPG = r.Vehicle.MPG
	p.Vehicle.EMPG = r.Vehicle.EMPG

	switch {
	case r.Manual:
		p.HeroLabel = "Gas price (manual)"
	case r.Cheapest != nil:
		p.HeroLabel = "Cheapest gas: " + r.Cheapest.Name()
	}
	if r.StaleSince != nil {
		p.Stale = r.StaleSince.UTC().Format(updatedLayout)
	}

	for _, q := range r.Quotes {
		p.Stations = append(p.Stations, htmlStation{
			Name:     q.Name(),
			Location: q.Location(),
			Credit:   money(q.Credit, 2),
			Cash:     optionalMoney(q.Cash),
			Distance: distance(q),
		})
	}

	for _, cr := range r.Comparison.Chargers {
		row := htmlCharger{Class: rowClass(cr), Name: cr.Name, Verdict: verdictText(cr)}
		if cr.Known {
			row.Rate = money(*cr.Rate, 2)
			row.PerMile = money(cr.CostPerMile, 4)
			row.Diff = fmt.Sprintf("%+.4f", cr.Diff)
		} else {
			row.Rate = unknownRate
			row.PerMile = placeholder
			row.Diff = placeholder
		}
		p.Chargers = append(p.Chargers, row)
	}

	if home := r.Comparison.Home; home != nil {
		p.Home = money(home.GasToBeat, 2)
	}

	for _, f := range r.Failures {
		p.Failures = append(p.Failures, f.String())
	}
	return p
}

// HTML writes the report as a self-contained HTML page.
func HTML(w io.Writer, r *gasvolt.Report) error {
	return templates.ExecuteTemplate(w, "report.html.tmpl", newHTMLPage(r))
}

// HTMLFailure writes the page shown when no station produced a price.
func HTMLFailure(w io.Writer, failures []gasvolt.Failure) error {
	msgs := make([]string, 0, len(failures))
	for _, f := range failures {
		msgs = append(msgs, f.String())
	}
	return templates.ExecuteTemplate(w, "failure.html.tmpl", msgs)
}

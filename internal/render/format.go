// Package render turns a gasvolt report into console text, HTML or JSON.
package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/rubiojr/gasvolt/internal/compare"
	"github.com/rubiojr/gasvolt/internal/gasvolt"
	"github.com/rubiojr/gasvolt/internal/geo"
)

const (
	placeholder    = "—"
	unknownRate    = "???"
	unknownVerdict = "GO FIND OUT!"
)

func money(v float64, decimals int) string {
	return fmt.Sprintf("$%.*f", decimals, v)
}

func optionalMoney(v *float64) string {
	if v == nil {
		return placeholder
	}
	return money(*v, 2)
}

func distance(q compare.Quote) string {
	if q.Distance == nil {
		return placeholder
	}
	return fmt.Sprintf("%.1f mi", *q.Distance/geo.MetersPerMile)
}

// verdictText is the human readable verdict for one charger row.
func verdictText(cr compare.ChargerResult) string {
	if !cr.Known {
		return unknownVerdict
	}
	switch cr.Verdict {
	case compare.VerdictCharge:
		return fmt.Sprintf("Charge — save $%.3f/mi", cr.Saving())
	case compare.VerdictGas:
		return fmt.Sprintf("Gas — costs $%.3f/mi more", cr.Saving())
	default:
		return "Basically equal"
	}
}

// rowClass is the CSS class for a charger row.
func rowClass(cr compare.ChargerResult) string {
	if !cr.Known {
		return "unknown"
	}
	return cr.Verdict.String()
}

// JSON writes the report as indented JSON.
func JSON(w io.Writer, r *gasvolt.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

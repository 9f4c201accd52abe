package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rubiojr/gasvolt/internal/compare"
	"github.com/rubiojr/gasvolt/internal/gasvolt"
	"github.com/rubiojr/gasvolt/internal/geo"
	"github.com/rubiojr/gasvolt/pkg/api"
)

func rate(v float64) *float64 { return &v }

func testReport(t *testing.T, manual *float64) *gasvolt.Report {
	t.Helper()
	col := &gasvolt.Collection{
		Fuel: api.FuelRegular,
		Quotes: []compare.Quote{
			{
				Label:   "costco",
				Station: &api.StationPrice{ID: 490, Name: "Costco", Address: "150 Lawrence Station Rd", City: "Sunnyvale"},
				Credit:  4.00,
			},
			{
				Label:   "diamond",
				Station: &api.StationPrice{ID: 4027, Name: "Diamond <Gas> & Mart", Address: "789 E Evelyn Ave", City: "Mountain View"},
				Credit:  4.59,
				Cash:    rate(4.49),
			},
		},
		Failures: []gasvolt.Failure{{Label: "shell", Reason: "fetch failed: unexpected status code: 403"}},
	}
	if manual != nil {
		col = nil
	}
	r, err := gasvolt.BuildReport(gasvolt.ReportInput{
		Vehicle: compare.Vehicle{MPG: 42.6, EMPG: 2.9},
		Fuel:    api.FuelRegular,
		Chargers: []compare.Charger{
			{Name: "Home", Rate: rate(0.20)},
			{Name: "Supercharger", Rate: rate(0.48)},
			{Name: "Library L2"},
		},
		HomeCharger: "Home",
		Collection:  col,
		ManualPrice: manual,
		Now:         time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("BuildReport() failed: %v", err)
	}
	return r
}

func TestText(t *testing.T) {
	var buf bytes.Buffer
	if err := Text(&buf, testReport(t, nil), TextOptions{}); err != nil {
		t.Fatalf("Text() failed: %v", err)
	}
	out := buf.String()

	expected := []string{
		"Vehicle: 42.6 MPG / 2.9 mi/kWh",
		"[shell] fetch failed: unexpected status code: 403",
		"Costco",
		"$4.49",
		"Cheapest gas: $4.00/gal @ Costco",
		"Break-even electricity price: $0.272/kWh",
		"Charge — save",
		"Gas — costs",
		"???",
		"unknown",
		"$0.25/kWh",
		"Charge <--",
		"Gas would need to drop below $2.94/gal to beat charging at Home",
	}
	for _, s := range expected {
		if !strings.Contains(out, s) {
			t.Errorf("Expected output to contain %q\n%s", s, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("Expected no ANSI colors when Color is off")
	}
}

func TestTextManual(t *testing.T) {
	var buf bytes.Buffer
	if err := Text(&buf, testReport(t, rate(4.00)), TextOptions{}); err != nil {
		t.Fatalf("Text() failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Gas price: $4.000/gal (manual)") {
		t.Errorf("Expected manual price line\n%s", out)
	}
	if strings.Contains(out, "Cheapest gas") {
		t.Error("Manual report should not name a cheapest station")
	}
}

func TestTextDistance(t *testing.T) {
	r := testReport(t, nil)
	r.Origin = &geo.Point{Name: "Mountain View", Lat: 37.39, Lng: -122.06}
	d := 3218.688
	r.Quotes[0].Distance = &d

	var buf bytes.Buffer
	if err := Text(&buf, r, TextOptions{}); err != nil {
		t.Fatalf("Text() failed: %v", err)
	}
	if !strings.Contains(buf.String(), "2.0 mi") {
		t.Errorf("Expected distance column\n%s", buf.String())
	}
}

func TestTextNoPrices(t *testing.T) {
	var buf bytes.Buffer
	failures := []gasvolt.Failure{{Label: "diamond", Reason: "no regular_gas price available"}}
	if err := TextNoPrices(&buf, failures); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "[diamond] no regular_gas price available") || !strings.Contains(out, "No live prices found") {
		t.Errorf("Unexpected output\n%s", out)
	}
}

func TestHTML(t *testing.T) {
	var buf bytes.Buffer
	if err := HTML(&buf, testReport(t, nil)); err != nil {
		t.Fatalf("HTML() failed: %v", err)
	}
	out := buf.String()

	expected := []string{
		"<!DOCTYPE html>",
		"42.6 MPG / 2.9 mi/kWh",
		"Updated 2026-10-17 09:30 UTC",
		"Cheapest gas: Costco",
		"$4.00/gal",
		"$0.272/kWh",
		"Diamond &lt;Gas&gt; &amp; Mart",
		`<tr class="charge"><td>Home</td>`,
		`<tr class="gas"><td>Supercharger</td>`,
		`<tr class="unknown"><td>Library L2</td><td>???</td>`,
		"GO FIND OUT!",
		"<strong>$2.94/gal</strong>",
		"shell: fetch failed",
	}
	for _, s := range expected {
		if !strings.Contains(out, s) {
			t.Errorf("Expected HTML to contain %q", s)
		}
	}
	if strings.Contains(out, "<th>Distance</th>") {
		t.Error("Expected no distance column without an origin")
	}
}

func TestHTMLManual(t *testing.T) {
	var buf bytes.Buffer
	if err := HTML(&buf, testReport(t, rate(3.25))); err != nil {
		t.Fatalf("HTML() failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Gas price (manual)") || !strings.Contains(out, "$3.25/gal") {
		t.Error("Expected manual hero block")
	}
	if strings.Contains(out, "<h2>Gas Stations</h2>") {
		t.Error("Manual report should not list stations")
	}
}

func TestHTMLFailure(t *testing.T) {
	var buf bytes.Buffer
	failures := []gasvolt.Failure{{Label: "costco", Reason: "fetch failed: <timeout>", Err: errors.New("timeout")}}
	if err := HTMLFailure(&buf, failures); err != nil {
		t.Fatalf("HTMLFailure() failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Failed to fetch gas prices") || !strings.Contains(out, "costco: fetch failed: &lt;timeout&gt;") {
		t.Errorf("Unexpected failure page\n%s", out)
	}
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := JSON(&buf, testReport(t, nil)); err != nil {
		t.Fatalf("JSON() failed: %v", err)
	}
	var decoded struct {
		GasPrice   float64 `json:"gas_price"`
		Comparison struct {
			Chargers []struct {
				Name    string `json:"name"`
				Verdict string `json:"verdict"`
			} `json:"chargers"`
		} `json:"comparison"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded.GasPrice != 4.00 {
		t.Errorf("Expected gas price 4.00, got %v", decoded.GasPrice)
	}
	verdicts := map[string]string{}
	for _, c := range decoded.Comparison.Chargers {
		verdicts[c.Name] = c.Verdict
	}
	if verdicts["Home"] != "charge" || verdicts["Supercharger"] != "gas" || verdicts["Library L2"] != "unknown" {
		t.Errorf("Unexpected verdicts %v", verdicts)
	}
}

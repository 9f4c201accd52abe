package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rubiojr/gasvolt/internal/config"
	"github.com/rubiojr/gasvolt/internal/geo"
	"github.com/rubiojr/gasvolt/pkg/api"
)

const costcoPage = `<html><head><script>
window.__APOLLO_STATE__ = {"Station:490": {
  "name": "Costco",
  "latitude": 37.3703, "longitude": -122.0010,
  "address": {"line1": "150 Lawrence Station Rd", "locality": "Sunnyvale"},
  "prices": [
    {"fuelProduct": "regular_gas", "credit": {"price": 4.19, "postedTime": "2026-10-16T18:00:00.000Z"}, "cash": null},
    {"fuelProduct": "diesel", "credit": {"price": 4.79}, "cash": {"price": 4.69}}
  ]}};
</script></head><body></body></html>`

func TestListStations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/station/490" {
			http.Error(w, "blocked", http.StatusForbidden)
			return
		}
		fmt.Fprint(w, costcoPage)
	}))
	defer srv.Close()

	gb := api.NewGasBuddyAPI(api.Options{BaseURL: srv.URL})
	stations := []config.Station{{Label: "costco", ID: 490}, {Label: "diamond", ID: 4027}}
	origin := &geo.Point{Name: "Mountain View", Lat: 37.3861, Lng: -122.0839}

	var buf bytes.Buffer
	ok := listStations(context.Background(), &buf, gb, stations, origin)
	if ok != 1 {
		t.Errorf("Expected 1 station to answer, got %d", ok)
	}

	out := buf.String()
	for _, s := range []string{
		"Costco (150 Lawrence Station Rd, Sunnyvale)",
		"$4.19",
		"$4.79 / $4.69 cash",
		" mi",
		srv.URL + "/station/490",
	} {
		if !strings.Contains(out, s) {
			t.Errorf("Expected output to contain %q\n%s", s, out)
		}
	}
	if strings.Contains(out, "diamond") {
		t.Errorf("Failed station should not be listed\n%s", out)
	}
}

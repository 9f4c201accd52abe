package gasvolt

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/rubiojr/gasvolt/internal/compare"
	"github.com/rubiojr/gasvolt/pkg/api"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorage(context.Background(), filepath.Join(t.TempDir(), "test.db"), slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("NewStorage() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testQuotes() []compare.Quote {
	return []compare.Quote{
		{
			Label:   "costco",
			Station: &api.StationPrice{ID: 490, Name: "Costco", Address: "150 Lawrence Station Rd", City: "Sunnyvale"},
			Credit:  4.19,
			Updated: "2026-10-16T18:00:00.000Z",
		},
		{
			Label:   "diamond",
			Station: &api.StationPrice{ID: 4027, Name: "Diamond Gas & Mart", City: "Mountain View", Latitude: 37.3925, Longitude: -122.0612},
			Credit:  4.59,
			Cash:    price(4.49),
		},
	}
}

func TestStorageSaveAndHistory(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	first := time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)
	second := first.Add(6 * time.Hour)

	if err := s.SaveQuotes(ctx, first, api.FuelRegular, testQuotes()); err != nil {
		t.Fatalf("SaveQuotes() failed: %v", err)
	}
	later := testQuotes()
	later[0].Credit = 4.09
	if err := s.SaveQuotes(ctx, second, api.FuelRegular, later); err != nil {
		t.Fatalf("SaveQuotes() failed: %v", err)
	}

	records, err := s.History(ctx, HistoryQuery{})
	if err != nil {
		t.Fatalf("History() failed: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("Expected 4 records, got %d", len(records))
	}
	if !records[0].FetchedAt.Equal(second) || records[0].Credit != 4.09 {
		t.Errorf("Expected newest cheapest record first, got %+v", records[0])
	}

	diamond, err := s.History(ctx, HistoryQuery{Label: "diamond", Limit: 1})
	if err != nil {
		t.Fatalf("History() failed: %v", err)
	}
	if len(diamond) != 1 {
		t.Fatalf("Expected 1 diamond record, got %d", len(diamond))
	}
	if diamond[0].Cash == nil || *diamond[0].Cash != 4.49 {
		t.Errorf("Expected cash 4.49, got %v", diamond[0].Cash)
	}
	if diamond[0].StationID != 4027 || diamond[0].Name != "Diamond Gas & Mart" {
		t.Errorf("Unexpected record %+v", diamond[0])
	}

	since, err := s.History(ctx, HistoryQuery{Since: second})
	if err != nil {
		t.Fatalf("History() failed: %v", err)
	}
	if len(since) != 2 {
		t.Errorf("Expected 2 records since the second run, got %d", len(since))
	}

	diesel, err := s.History(ctx, HistoryQuery{Fuel: api.FuelDiesel})
	if err != nil {
		t.Fatalf("History() failed: %v", err)
	}
	if len(diesel) != 0 {
		t.Errorf("Expected no diesel records, got %d", len(diesel))
	}
}

func TestStorageLatestQuotes(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	_, _, found, err := s.LatestQuotes(ctx, api.FuelRegular)
	if err != nil {
		t.Fatalf("LatestQuotes() failed: %v", err)
	}
	if found {
		t.Fatal("Expected nothing recorded yet")
	}

	at := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	if err := s.SaveQuotes(ctx, at, api.FuelRegular, testQuotes()); err != nil {
		t.Fatalf("SaveQuotes() failed: %v", err)
	}

	quotes, fetchedAt, found, err := s.LatestQuotes(ctx, api.FuelRegular)
	if err != nil {
		t.Fatalf("LatestQuotes() failed: %v", err)
	}
	if !found || len(quotes) != 2 {
		t.Fatalf("Expected 2 latest quotes, got %d (found=%v)", len(quotes), found)
	}
	if !fetchedAt.Equal(at) {
		t.Errorf("Expected fetched at %v, got %v", at, fetchedAt)
	}
	if quotes[0].Label != "costco" || quotes[0].Name() != "Costco" {
		t.Errorf("Expected costco first, got %+v", quotes[0])
	}
	if quotes[0].Station.HasLocation() {
		t.Errorf("Expected no coordinates for costco, got %+v", quotes[0].Station)
	}
	if st := quotes[1].Station; st.Latitude != 37.3925 || st.Longitude != -122.0612 {
		t.Errorf("Expected diamond coordinates to round trip, got %v,%v", st.Latitude, st.Longitude)
	}

	// A newer run invalidates the cached result.
	newer := testQuotes()[:1]
	newer[0].Credit = 3.99
	if err := s.SaveQuotes(ctx, at.Add(time.Hour), api.FuelRegular, newer); err != nil {
		t.Fatalf("SaveQuotes() failed: %v", err)
	}
	quotes, _, _, err = s.LatestQuotes(ctx, api.FuelRegular)
	if err != nil {
		t.Fatalf("LatestQuotes() failed: %v", err)
	}
	if len(quotes) != 1 || quotes[0].Credit != 3.99 {
		t.Errorf("Expected the newer run, got %+v", quotes)
	}
}

func TestStorageDeleteOldRecords(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	old := time.Now().AddDate(0, 0, -40)
	recent := time.Now().AddDate(0, 0, -1)
	if err := s.SaveQuotes(ctx, old, api.FuelRegular, testQuotes()); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveQuotes(ctx, recent, api.FuelRegular, testQuotes()); err != nil {
		t.Fatal(err)
	}

	deleted, err := s.DeleteOldRecords(ctx, 30)
	if err != nil {
		t.Fatalf("DeleteOldRecords() failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("Expected 2 deleted rows, got %d", deleted)
	}

	records, err := s.History(ctx, HistoryQuery{})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Errorf("Expected 2 remaining records, got %d", len(records))
	}

	if err := s.VacuumDatabase(ctx); err != nil {
		t.Errorf("VacuumDatabase() failed: %v", err)
	}
}

func TestStorageSaveNothing(t *testing.T) {
	s := newTestStorage(t)
	if err := s.SaveQuotes(context.Background(), time.Now(), api.FuelRegular, nil); err != nil {
		t.Fatalf("SaveQuotes(nil) failed: %v", err)
	}
}

func TestStorageRecordedDates(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	dates, err := s.RecordedDates(ctx)
	if err != nil {
		t.Fatalf("RecordedDates() failed: %v", err)
	}
	if len(dates) != 0 {
		t.Errorf("Expected no dates in an empty database, got %v", dates)
	}

	for _, at := range []time.Time{
		time.Date(2026, 10, 15, 20, 0, 0, 0, time.UTC),
		time.Date(2026, 10, 13, 8, 0, 0, 0, time.UTC),
		time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC),
	} {
		if err := s.SaveQuotes(ctx, at, api.FuelRegular, testQuotes()); err != nil {
			t.Fatal(err)
		}
	}

	dates, err = s.RecordedDates(ctx)
	if err != nil {
		t.Fatalf("RecordedDates() failed: %v", err)
	}
	want := []string{"2026-10-13", "2026-10-15"}
	if len(dates) != len(want) {
		t.Fatalf("Expected %d dates, got %v", len(want), dates)
	}
	for i, d := range dates {
		if got := d.Format(time.DateOnly); got != want[i] {
			t.Errorf("date %d: expected %s, got %s", i, want[i], got)
		}
	}
}

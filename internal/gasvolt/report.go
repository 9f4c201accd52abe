package gasvolt

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/rubiojr/gasvolt/internal/compare"
	"github.com/rubiojr/gasvolt/internal/config"
	"github.com/rubiojr/gasvolt/internal/geo"
)

// ErrNoPrices is returned when no station produced a usable price and no
// manual price was given.
var ErrNoPrices = errors.New("no live prices found")

// Report is everything the presenters need for one run.
type Report struct {
	GeneratedAt time.Time          `json:"generated_at"`
	Vehicle     compare.Vehicle    `json:"vehicle"`
	Fuel        string             `json:"fuel"`
	Manual      bool               `json:"manual"`
	GasPrice    float64            `json:"gas_price"`
	Quotes      []compare.Quote    `json:"quotes"`
	Failures    []Failure          `json:"failures,omitempty"`
	Cheapest    *compare.Quote     `json:"cheapest,omitempty"`
	Comparison  *compare.Result    `json:"comparison"`
	Sweep       []compare.SweepRow `json:"sweep"`
	Origin      *geo.Point         `json:"origin,omitempty"`
	// StaleSince is set when quotes were read back from history instead of
	// fetched live.
	StaleSince *time.Time `json:"stale_since,omitempty"`
}

// ReportInput gathers what BuildReport needs.
type ReportInput struct {
	Vehicle     compare.Vehicle
	Fuel        string
	Chargers    []compare.Charger
	HomeCharger string
	Collection  *Collection
	ManualPrice *float64
	Origin      *geo.Point
	Now         time.Time
}

// BuildReport compares the manual price, or else the cheapest collected
// credit price, against every charger. When there is no price to compare it
// returns ErrNoPrices together with a report carrying the failures.
func BuildReport(in ReportInput) (*Report, error) {
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	r := &Report{
		GeneratedAt: now.UTC(),
		Vehicle:     in.Vehicle,
		Fuel:        in.Fuel,
		Origin:      in.Origin,
	}
	if in.Collection != nil {
		r.Quotes = in.Collection.Quotes
		r.Failures = in.Collection.Failures
	}

	switch {
	case in.ManualPrice != nil:
		r.Manual = true
		r.GasPrice = *in.ManualPrice
	default:
		cheapest, ok := compare.Cheapest(r.Quotes)
		if !ok {
			return r, ErrNoPrices
		}
		r.Cheapest = &cheapest
		r.GasPrice = cheapest.Credit
	}

	res, err := compare.Compare(r.GasPrice, in.Vehicle, in.Chargers, in.HomeCharger)
	if err != nil {
		return nil, err
	}
	r.Comparison = res
	r.Sweep = compare.Sweep(r.GasPrice, in.Vehicle, nil)

	return r, nil
}

// Service runs the fetch, record and compare pipeline for a config.
type Service struct {
	cfg       *config.Config
	collector *Collector
	storage   *Storage
	origin    *geo.Point
	log       *slog.Logger

	// FallbackToHistory makes Run use the last recorded quotes when no
	// station answers.
	FallbackToHistory bool
}

// NewService wires a Service. storage and origin may be nil.
func NewService(cfg *config.Config, fetcher Fetcher, storage *Storage, origin *geo.Point, logger *slog.Logger) *Service {
	collector := NewCollector(fetcher, logger)
	collector.SetOrigin(origin)
	return &Service{
		cfg:       cfg,
		collector: collector,
		storage:   storage,
		origin:    origin,
		log:       logger,
	}
}

// Run produces a report. With a manual price no station is fetched.
func (s *Service) Run(ctx context.Context, manualPrice *float64) (*Report, error) {
	in := ReportInput{
		Vehicle:     s.cfg.Vehicle,
		Fuel:        s.cfg.Fuel,
		Chargers:    s.cfg.Chargers,
		HomeCharger: s.cfg.HomeCharger,
		ManualPrice: manualPrice,
		Origin:      s.origin,
		Now:         time.Now(),
	}
	if manualPrice != nil {
		return BuildReport(in)
	}

	col := s.collector.Collect(ctx, s.cfg.Stations, s.cfg.Fuel)
	in.Collection = col

	if s.storage != nil && len(col.Quotes) > 0 {
		if err := s.storage.SaveQuotes(ctx, in.Now, s.cfg.Fuel, col.Quotes); err != nil {
			s.log.Error("Failed to record quotes", "error", err)
		}
	}

	report, err := BuildReport(in)
	if !errors.Is(err, ErrNoPrices) || !s.FallbackToHistory || s.storage == nil {
		return report, err
	}

	quotes, fetchedAt, found, herr := s.storage.LatestQuotes(ctx, s.cfg.Fuel)
	if herr != nil {
		s.log.Error("Failed to read recorded quotes", "error", herr)
		return report, err
	}
	if !found || len(quotes) == 0 {
		return report, err
	}

	s.log.Warn("Using recorded quotes", "fetched_at", fetchedAt)
	quotes = slices.Clone(quotes)
	for i := range quotes {
		setDistance(&quotes[i], s.origin)
	}
	in.Collection = &Collection{Fuel: s.cfg.Fuel, Quotes: quotes, Failures: col.Failures}
	report, err = BuildReport(in)
	if err != nil {
		return report, err
	}
	report.StaleSince = &fetchedAt
	return report, nil
}

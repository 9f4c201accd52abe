// Package gasvolt collects station prices and assembles gas versus electric
// reports.
package gasvolt

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rubiojr/gasvolt/internal/compare"
	"github.com/rubiojr/gasvolt/internal/config"
	"github.com/rubiojr/gasvolt/internal/geo"
	"github.com/rubiojr/gasvolt/pkg/api"
)

// Fetcher retrieves one station's prices. *api.GasBuddyAPI implements it.
type Fetcher interface {
	FetchStation(ctx context.Context, stationID int) (*api.StationPrice, error)
}

// Failure describes a station that produced no usable price.
type Failure struct {
	Label     string `json:"label"`
	StationID int    `json:"station_id"`
	Reason    string `json:"reason"`
	Err       error  `json:"-"`
}

func (f Failure) String() string {
	return fmt.Sprintf("%s: %s", f.Label, f.Reason)
}

// Collection is the outcome of fetching every configured station.
type Collection struct {
	Fuel     string
	Quotes   []compare.Quote
	Failures []Failure
}

// Collector fetches stations one after the other.
type Collector struct {
	fetcher Fetcher
	origin  *geo.Point
	log     *slog.Logger
}

func NewCollector(fetcher Fetcher, logger *slog.Logger) *Collector {
	return &Collector{fetcher: fetcher, log: logger}
}

// SetOrigin enables distance reporting from p to each station.
func (c *Collector) SetOrigin(p *geo.Point) {
	c.origin = p
}

// Collect fetches fuel prices for each station. A station that fails is
// logged and recorded as a Failure; it never aborts the collection. Quotes
// are returned cheapest first.
func (c *Collector) Collect(ctx context.Context, stations []config.Station, fuel string) *Collection {
	col := &Collection{Fuel: fuel}

	for _, st := range stations {
		if err := ctx.Err(); err != nil {
			col.Failures = append(col.Failures, Failure{
				Label: st.Label, StationID: st.ID, Reason: err.Error(), Err: err,
			})
			continue
		}

		c.log.Debug("fetching station", "label", st.Label, "id", st.ID)
		station, err := c.fetcher.FetchStation(ctx, st.ID)
		if err != nil {
			c.log.Warn("fetch failed", "label", st.Label, "id", st.ID, "error", err)
			col.Failures = append(col.Failures, Failure{
				Label:     st.Label,
				StationID: st.ID,
				Reason:    fmt.Sprintf("fetch failed: %v", err),
				Err:       err,
			})
			continue
		}

		if _, listed := station.Fuel(fuel); !listed {
			c.log.Warn("no price available", "label", st.Label, "id", st.ID, "fuel", fuel)
			col.Failures = append(col.Failures, Failure{
				Label:     st.Label,
				StationID: st.ID,
				Reason:    fmt.Sprintf("no %s price available", fuel),
			})
			continue
		}

		q, ok := compare.QuoteFor(st.Label, station, fuel)
		if !ok {
			// Listed without a credit price: nothing to compare, nothing to report.
			c.log.Debug("no credit price", "label", st.Label, "id", st.ID, "fuel", fuel)
			continue
		}

		setDistance(&q, c.origin)
		col.Quotes = append(col.Quotes, q)
	}

	compare.SortQuotes(col.Quotes)
	return col
}

// setDistance fills q.Distance when both the origin and the station
// location are known.
func setDistance(q *compare.Quote, origin *geo.Point) {
	if origin == nil || q.Station == nil || !q.Station.HasLocation() {
		return
	}
	d := geo.Distance(*origin, q.Station.Latitude, q.Station.Longitude)
	q.Distance = &d
}

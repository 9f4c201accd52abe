package compare

import (
	"sort"

	"github.com/rubiojr/gasvolt/pkg/api"
)

// Quote is a usable credit price for one fuel at one station.
type Quote struct {
	Label    string            `json:"label"`
	Station  *api.StationPrice `json:"station"`
	Credit   float64           `json:"credit"`
	Cash     *float64          `json:"cash,omitempty"`
	Updated  string            `json:"updated,omitempty"`
	Distance *float64          `json:"distance_m,omitempty"` // meters from the origin
}

// Name returns the station name, falling back to the configured label.
func (q Quote) Name() string {
	if q.Station != nil && q.Station.Name != "" {
		return q.Station.Name
	}
	return q.Label
}

// Location returns "address, city" for the quoted station.
func (q Quote) Location() string {
	if q.Station == nil {
		return ""
	}
	switch {
	case q.Station.Address == "":
		return q.Station.City
	case q.Station.City == "":
		return q.Station.Address
	default:
		return q.Station.Address + ", " + q.Station.City
	}
}

// QuoteFor builds a quote for fuel from a fetched station. ok is false when
// the station does not list the fuel or has no credit price for it.
func QuoteFor(label string, station *api.StationPrice, fuel string) (q Quote, ok bool) {
	price, listed := station.Fuel(fuel)
	if !listed || price.Credit == nil {
		return Quote{}, false
	}
	return Quote{
		Label:   label,
		Station: station,
		Credit:  *price.Credit,
		Cash:    price.Cash,
		Updated: price.Updated,
	}, true
}

// SortQuotes orders quotes by credit price, cheapest first. Ties keep their
// input order.
func SortQuotes(quotes []Quote) {
	sort.SliceStable(quotes, func(i, j int) bool {
		return quotes[i].Credit < quotes[j].Credit
	})
}

// Cheapest returns the quote with the lowest credit price.
func Cheapest(quotes []Quote) (Quote, bool) {
	if len(quotes) == 0 {
		return Quote{}, false
	}
	best := quotes[0]
	for _, q := range quotes[1:] {
		if q.Credit < best.Credit {
			best = q
		}
	}
	return best, true
}

package api

// Fuel product keys as they appear in GasBuddy station pages.
const (
	FuelRegular  = "regular_gas"
	FuelMidgrade = "midgrade_gas"
	FuelPremium  = "premium_gas"
	FuelDiesel   = "diesel"
)

// FuelTypes lists the fuel product keys accepted on the command line.
var FuelTypes = []string{FuelRegular, FuelMidgrade, FuelPremium, FuelDiesel}

// StationPrice is the normalized price record for a single station.
type StationPrice struct {
	ID        int                  `json:"id"`
	Name      string               `json:"name"`
	Address   string               `json:"address"`
	City      string               `json:"city"`
	Latitude  float64              `json:"latitude,omitempty"`
	Longitude float64              `json:"longitude,omitempty"`
	Prices    map[string]FuelPrice `json:"prices"`
}

// FuelPrice holds the posted prices for one fuel product. Nil prices were not
// reported by the station.
type FuelPrice struct {
	Credit  *float64 `json:"credit"`
	Cash    *float64 `json:"cash"`
	Updated string   `json:"updated,omitempty"`
}

// Fuel returns the prices for the given fuel product, if listed.
func (s *StationPrice) Fuel(fuel string) (FuelPrice, bool) {
	if s == nil {
		return FuelPrice{}, false
	}
	p, ok := s.Prices[fuel]
	return p, ok
}

// HasLocation reports whether the station page carried coordinates.
func (s *StationPrice) HasLocation() bool {
	return s.Latitude != 0 || s.Longitude != 0
}

// apolloStation mirrors the subset of the Station:{id} entry we read.
type apolloStation struct {
	Name    string `json:"name"`
	Address struct {
		Line1    string `json:"line1"`
		Locality string `json:"locality"`
	} `json:"address"`
	Latitude  float64       `json:"latitude"`
	Longitude float64       `json:"longitude"`
	Prices    []apolloPrice `json:"prices"`
}

type apolloPrice struct {
	FuelProduct string             `json:"fuelProduct"`
	Credit      *apolloPostedPrice `json:"credit"`
	Cash        *apolloPostedPrice `json:"cash"`
}

type apolloPostedPrice struct {
	Price      *float64 `json:"price"`
	PostedTime string   `json:"postedTime"`
}

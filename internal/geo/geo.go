// Package geo resolves the origin location and measures station distances.
package geo

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/muesli/gominatim"
	"github.com/patrickmn/go-cache"
	"github.com/tkrajina/gpxgo/gpx"
)

const (
	NominatimServer = "https://nominatim.openstreetmap.org/"
	MetersPerMile   = 1609.344

	geocodeCacheExpiry  = 24 * time.Hour
	geocodeCacheCleanup = 48 * time.Hour
)

var ErrNotFound = errors.New("location not found")

// Point is a WGS84 coordinate with the name it was resolved from.
type Point struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// SearchFunc performs a Nominatim query. Tests replace it to stay offline.
type SearchFunc func(q string) ([]gominatim.SearchResult, error)

// Geocoder turns place names into coordinates, caching lookups.
type Geocoder struct {
	search SearchFunc
	cache  *cache.Cache
}

// NewGeocoder returns a Geocoder backed by the public Nominatim server.
func NewGeocoder() *Geocoder {
	gominatim.SetServer(NominatimServer)
	return NewGeocoderWithSearch(func(q string) ([]gominatim.SearchResult, error) {
		qry := gominatim.SearchQuery{Q: q}
		return qry.Get()
	})
}

// NewGeocoderWithSearch returns a Geocoder using a custom search function.
func NewGeocoderWithSearch(search SearchFunc) *Geocoder {
	return &Geocoder{
		search: search,
		cache:  cache.New(geocodeCacheExpiry, geocodeCacheCleanup),
	}
}

// Resolve accepts either "lat,lng" or a free-form place name.
func (g *Geocoder) Resolve(location string) (Point, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return Point{}, ErrNotFound
	}
	if p, ok := ParseCoordinates(location); ok {
		return p, nil
	}

	if cached, found := g.cache.Get(location); found {
		return cached.(Point), nil
	}

	results, err := g.search(location)
	if err != nil {
		return Point{}, fmt.Errorf("geocoding error: %w", err)
	}
	if len(results) == 0 {
		return Point{}, fmt.Errorf("%w: %s", ErrNotFound, location)
	}

	p, err := resultToPoint(results[0])
	if err != nil {
		return Point{}, err
	}
	g.cache.Set(location, p, cache.DefaultExpiration)
	return p, nil
}

func resultToPoint(result gominatim.SearchResult) (Point, error) {
	lat, err := strconv.ParseFloat(result.Lat, 64)
	if err != nil {
		return Point{}, fmt.Errorf("error parsing latitude: %w", err)
	}
	lng, err := strconv.ParseFloat(result.Lon, 64)
	if err != nil {
		return Point{}, fmt.Errorf("error parsing longitude: %w", err)
	}
	return Point{Name: result.DisplayName, Lat: lat, Lng: lng}, nil
}

// ParseCoordinates parses "lat,lng". ok is false for anything else,
// including out of range values.
func ParseCoordinates(s string) (Point, bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Point{}, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Point{}, false
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Point{}, false
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return Point{}, false
	}
	return Point{Name: s, Lat: lat, Lng: lng}, true
}

// Distance returns the great-circle distance in meters between two points.
func Distance(from Point, lat, lng float64) float64 {
	return gpx.Distance2D(from.Lat, from.Lng, lat, lng, true)
}

// Package api provides types and functions to scrape live fuel prices from
// GasBuddy station pages.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const (
	DefaultBaseURL   = "https://www.gasbuddy.com"
	DefaultTimeout   = 15 * time.Second
	DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) " +
		"Chrome/120.0.0.0 Safari/537.36"

	apolloMarker = "__APOLLO_STATE__"
)

var apolloStateRe = regexp.MustCompile(`(?s)window\.__APOLLO_STATE__\s*=\s*(\{.*?\});`)

// Options tweaks the client built by NewGasBuddyAPI. Zero values fall back to
// the package defaults.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	Proxy     string
}

// GasBuddyAPI fetches station pages and extracts their embedded price data.
type GasBuddyAPI struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	proxyErr   error
}

// ParseProxy parses a proxy URL such as "http://127.0.0.1:3128".
func ParseProxy(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("expected scheme://host[:port], got %q", raw)
	}
	return u, nil
}

// NewGasBuddyAPI creates a new GasBuddyAPI client.
func NewGasBuddyAPI(opts Options) *GasBuddyAPI {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	// The cloned transport already honours HTTPS_PROXY.
	transport := http.DefaultTransport.(*http.Transport).Clone()
	var proxyErr error
	if opts.Proxy != "" {
		u, err := ParseProxy(opts.Proxy)
		if err != nil {
			proxyErr = fmt.Errorf("invalid proxy %q: %w", opts.Proxy, err)
		} else {
			transport.Proxy = http.ProxyURL(u)
		}
	}

	return &GasBuddyAPI{
		proxyErr:  proxyErr,
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		userAgent: opts.UserAgent,
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
	}
}

// StationURL returns the public page URL for a station.
func (api *GasBuddyAPI) StationURL(stationID int) string {
	return fmt.Sprintf("%s/station/%d", api.baseURL, stationID)
}

// FetchStation downloads a station page and returns its normalized prices.
// Network and HTTP status errors are returned; a page without price data
// yields a nil record and a nil error.
func (api *GasBuddyAPI) FetchStation(ctx context.Context, stationID int) (*StationPrice, error) {
	if api.proxyErr != nil {
		return nil, api.proxyErr
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, api.StationURL(stationID), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("User-Agent", api.userAgent)

	resp, err := api.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error fetching data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	return ParseStationPage(body, stationID)
}

// ParseStationPage extracts the station record from a station page body.
func ParseStationPage(page []byte, stationID int) (*StationPrice, error) {
	state, found, err := ExtractApolloState(page)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	raw, ok := state[fmt.Sprintf("Station:%d", stationID)]
	if !ok {
		return nil, nil
	}

	var station apolloStation
	if err := json.Unmarshal(raw, &station); err != nil {
		return nil, fmt.Errorf("error unmarshaling station %d: %w", stationID, err)
	}

	return normalizeStation(stationID, &station), nil
}

// ExtractApolloState finds the window.__APOLLO_STATE__ object in the page's
// script elements. found is false when no script carries the blob.
func ExtractApolloState(page []byte) (state map[string]json.RawMessage, found bool, err error) {
	for _, script := range scriptBodies(page) {
		if !strings.Contains(script, apolloMarker) {
			continue
		}
		m := apolloStateRe.FindStringSubmatch(script)
		if m == nil {
			continue
		}
		if err := json.Unmarshal([]byte(m[1]), &state); err != nil {
			return nil, false, fmt.Errorf("error unmarshaling apollo state: %w", err)
		}
		return state, true, nil
	}
	return nil, false, nil
}

// scriptBodies returns the text content of every <script> element.
func scriptBodies(page []byte) []string {
	var scripts []string
	z := html.NewTokenizer(bytes.NewReader(page))
	inScript := false
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or a malformed tail; either way we keep what we have.
			return scripts
		case html.StartTagToken:
			name, _ := z.TagName()
			inScript = string(name) == "script"
		case html.EndTagToken, html.SelfClosingTagToken:
			inScript = false
		case html.TextToken:
			if inScript {
				scripts = append(scripts, string(z.Text()))
			}
		}
	}
}

func normalizeStation(stationID int, s *apolloStation) *StationPrice {
	sp := &StationPrice{
		ID:        stationID,
		Name:      s.Name,
		Address:   s.Address.Line1,
		City:      s.Address.Locality,
		Latitude:  s.Latitude,
		Longitude: s.Longitude,
		Prices:    make(map[string]FuelPrice, len(s.Prices)),
	}
	for _, p := range s.Prices {
		if p.FuelProduct == "" {
			continue
		}
		fp := FuelPrice{}
		if p.Credit != nil {
			fp.Credit = positive(p.Credit.Price)
			fp.Updated = p.Credit.PostedTime
		}
		if p.Cash != nil {
			fp.Cash = positive(p.Cash.Price)
		}
		sp.Prices[p.FuelProduct] = fp
	}
	return sp
}

// positive drops missing, zero and negative prices; GasBuddy reports 0 for
// products a station has not priced.
func positive(v *float64) *float64 {
	if v == nil || *v <= 0 {
		return nil
	}
	p := *v
	return &p
}

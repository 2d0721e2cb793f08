// Package geo contains the external collaborator clients: forward geocoding,
// offline timezone resolution, and place-photo search. Every client treats
// "not found" as domain.ErrNotFound so callers can distinguish an empty
// answer from a transport failure; both degrade gracefully upstream.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/pkeller/tripstitch/internal/domain"
)

const defaultGeocodeBaseURL = "https://maps.googleapis.com/maps/api/geocode/json"

// Location is a resolved place: coordinates plus the provider's canonical
// name for it.
type Location struct {
	Lat           float64
	Lng           float64
	FormattedName string
}

// Geocoder resolves free-text place names to coordinates via an HTTP
// geocoding API. Successful and not-found answers are cached with a TTL in
// the injected cache so repeated assignment/enrichment of the same trip does
// not hammer the provider.
type Geocoder struct {
	client  *http.Client
	apiKey  string
	baseURL string
	cache   *cache.Cache
}

// NewGeocoder constructs a Geocoder. The cache is shared, injected state —
// pass the same instance to every client that should see the same entries.
// An empty apiKey is allowed; lookups then fail with domain.ErrNotFound and
// callers degrade as they would for any collaborator outage.
func NewGeocoder(apiKey string, c *cache.Cache) *Geocoder {
	return &Geocoder{
		client:  &http.Client{Timeout: 10 * time.Second},
		apiKey:  apiKey,
		baseURL: defaultGeocodeBaseURL,
		cache:   c,
	}
}

// WithBaseURL overrides the provider endpoint. Used by tests to point the
// client at a local httptest server.
func (g *Geocoder) WithBaseURL(u string) *Geocoder {
	g.baseURL = u
	return g
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Geocode resolves text to a Location. Returns domain.ErrNotFound when the
// provider has no answer (or no API key is configured); any other error is a
// transport or provider failure.
func (g *Geocoder) Geocode(ctx context.Context, text string) (Location, error) {
	if text == "" || g.apiKey == "" {
		return Location{}, fmt.Errorf("geo.Geocoder.Geocode: %w", domain.ErrNotFound)
	}

	key := "geocode:" + text
	if cached, ok := g.cache.Get(key); ok {
		if loc, ok := cached.(Location); ok {
			return loc, nil
		}
		// A cached not-found is stored as nil.
		return Location{}, fmt.Errorf("geo.Geocoder.Geocode: %w", domain.ErrNotFound)
	}

	q := url.Values{}
	q.Set("address", text)
	q.Set("key", g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return Location{}, fmt.Errorf("geo.Geocoder.Geocode: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return Location{}, fmt.Errorf("geo.Geocoder.Geocode: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Location{}, fmt.Errorf("geo.Geocoder.Geocode: unexpected status %s", resp.Status)
	}

	var body geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Location{}, fmt.Errorf("geo.Geocoder.Geocode: decode: %w", err)
	}

	if body.Status != "OK" || len(body.Results) == 0 {
		g.cache.Set(key, nil, cache.DefaultExpiration)
		return Location{}, fmt.Errorf("geo.Geocoder.Geocode: %q: %w", text, domain.ErrNotFound)
	}

	loc := Location{
		Lat:           body.Results[0].Geometry.Location.Lat,
		Lng:           body.Results[0].Geometry.Location.Lng,
		FormattedName: body.Results[0].FormattedAddress,
	}
	g.cache.Set(key, loc, cache.DefaultExpiration)
	return loc, nil
}

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

const defaultPlacesBaseURL = "https://maps.googleapis.com/maps/api/place/textsearch/json"

// PhotoSearcher finds a representative photo URL for a place name via a
// text-search places API. Like Geocoder, it caches answers (including
// not-found) and reports an empty result as domain.ErrNotFound.
type PhotoSearcher struct {
	client  *http.Client
	apiKey  string
	baseURL string
	cache   *cache.Cache
}

func NewPhotoSearcher(apiKey string, c *cache.Cache) *PhotoSearcher {
	return &PhotoSearcher{
		client:  &http.Client{Timeout: 10 * time.Second},
		apiKey:  apiKey,
		baseURL: defaultPlacesBaseURL,
		cache:   c,
	}
}

func (p *PhotoSearcher) WithBaseURL(u string) *PhotoSearcher {
	p.baseURL = u
	return p
}

type placesResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Photos []struct {
			PhotoReference string `json:"photo_reference"`
		} `json:"photos"`
	} `json:"results"`
}

// Search returns a fetchable photo URL for the place named by text.
// domain.ErrNotFound means the provider knows no photo; it is not a failure.
func (p *PhotoSearcher) Search(ctx context.Context, text string) (string, error) {
	if text == "" || p.apiKey == "" {
		return "", fmt.Errorf("geo.PhotoSearcher.Search: %w", domain.ErrNotFound)
	}

	key := "photo:" + text
	if cached, ok := p.cache.Get(key); ok {
		if u, ok := cached.(string); ok && u != "" {
			return u, nil
		}
		return "", fmt.Errorf("geo.PhotoSearcher.Search: %w", domain.ErrNotFound)
	}

	q := url.Values{}
	q.Set("query", text)
	q.Set("key", p.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("geo.PhotoSearcher.Search: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("geo.PhotoSearcher.Search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geo.PhotoSearcher.Search: unexpected status %s", resp.Status)
	}

	var body placesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("geo.PhotoSearcher.Search: decode: %w", err)
	}

	ref := firstPhotoRef(body)
	if body.Status != "OK" || ref == "" {
		p.cache.Set(key, "", cache.DefaultExpiration)
		return "", fmt.Errorf("geo.PhotoSearcher.Search: %q: %w", text, domain.ErrNotFound)
	}

	photoURL := fmt.Sprintf(
		"https://maps.googleapis.com/maps/api/place/photo?maxwidth=800&photo_reference=%s&key=%s",
		url.QueryEscape(ref), url.QueryEscape(p.apiKey),
	)
	p.cache.Set(key, photoURL, cache.DefaultExpiration)
	return photoURL, nil
}

func firstPhotoRef(body placesResponse) string {
	for _, r := range body.Results {
		for _, ph := range r.Photos {
			if ph.PhotoReference != "" {
				return ph.PhotoReference
			}
		}
	}
	return ""
}

package geocode

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/dalemusser/swarmhub/internal/domain/models"
)

// DefaultGoogleURL is the Google Geocoding API endpoint.
const DefaultGoogleURL = "https://maps.googleapis.com/maps/api/geocode/json"

// Google queries the Google Geocoding API.
type Google struct {
	baseURL string
	key     string
	c       *client
}

// NewGoogle returns a Google provider. An empty baseURL uses DefaultGoogleURL.
func NewGoogle(baseURL, key string, cfg ClientConfig, hc *http.Client) *Google {
	if baseURL == "" {
		baseURL = DefaultGoogleURL
	}
	return &Google{baseURL: baseURL, key: key, c: newClient(cfg, hc)}
}

func (g *Google) Name() string { return "google" }

type googleResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
	ErrorMessage string `json:"error_message"`
}

func (g *Google) Geocode(ctx context.Context, address, city string) (models.Coordinates, error) {
	q := url.Values{}
	q.Set("address", strings.TrimSpace(address)+", "+strings.TrimSpace(city))
	q.Set("key", g.key)

	var resp googleResponse
	if err := g.c.getJSON(ctx, g.baseURL+"?"+q.Encode(), &resp); err != nil {
		return models.Coordinates{}, err
	}

	switch resp.Status {
	case "OK":
	case "ZERO_RESULTS":
		return models.Coordinates{}, ErrNotFound
	default:
		return models.Coordinates{}, fmt.Errorf("google geocode status %s: %s", resp.Status, resp.ErrorMessage)
	}
	if len(resp.Results) == 0 {
		return models.Coordinates{}, ErrNotFound
	}
	loc := resp.Results[0].Geometry.Location
	pt := models.Coordinates{Lat: loc.Lat, Lng: loc.Lng}
	if !ValidPoint(pt) {
		return models.Coordinates{}, ErrNotFound
	}
	return pt, nil
}

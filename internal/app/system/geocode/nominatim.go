package geocode

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dalemusser/swarmhub/internal/domain/models"
)

// DefaultNominatimURL is the public OpenStreetMap Nominatim instance.
const DefaultNominatimURL = "https://nominatim.openstreetmap.org"

// Nominatim queries a Nominatim-compatible search endpoint.
type Nominatim struct {
	baseURL string
	c       *client
}

// NewNominatim returns a Nominatim provider. An empty baseURL uses
// DefaultNominatimURL. Public instances require a descriptive user agent.
func NewNominatim(baseURL string, cfg ClientConfig, hc *http.Client) *Nominatim {
	if baseURL == "" {
		baseURL = DefaultNominatimURL
	}
	return &Nominatim{baseURL: strings.TrimRight(baseURL, "/"), c: newClient(cfg, hc)}
}

func (n *Nominatim) Name() string { return "nominatim" }

type nominatimPlace struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func (n *Nominatim) Geocode(ctx context.Context, address, city string) (models.Coordinates, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("limit", "1")
	q.Set("street", strings.TrimSpace(address))
	q.Set("city", strings.TrimSpace(city))

	var places []nominatimPlace
	if err := n.c.getJSON(ctx, n.baseURL+"/search?"+q.Encode(), &places); err != nil {
		return models.Coordinates{}, err
	}
	if len(places) == 0 {
		return models.Coordinates{}, ErrNotFound
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("nominatim lat %q: %w", places[0].Lat, err)
	}
	lng, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("nominatim lon %q: %w", places[0].Lon, err)
	}
	pt := models.Coordinates{Lat: lat, Lng: lng}
	if !ValidPoint(pt) {
		return models.Coordinates{}, ErrNotFound
	}
	return pt, nil
}

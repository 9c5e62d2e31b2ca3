// Package maps talks to the geocoding and directions provider.
//
// The provider speaks the Google Maps response format (Goong by default):
//
//	GET {base}/geocode?address=...&api_key=...
//	GET {base}/Direction?origin=lat,lng&destination=lat,lng&vehicle=bike&api_key=...
package maps

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"order-tracking/internal/metrics"
	"order-tracking/internal/models"
)

// ErrNotConfigured is returned by every call when no API key is set.
var ErrNotConfigured = errors.New("maps: provider api key not configured")

// DefaultBaseURL is the Goong REST endpoint.
const DefaultBaseURL = "https://rsapi.goong.io"

// Client is an HTTP client for the maps provider.
type Client struct {
	apiKey     string
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient creates a provider client. Every request is bounded by timeout.
func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// VehicleCode maps a vehicle profile to the provider's vehicle parameter.
func VehicleCode(p models.VehicleProfile) string {
	if p == models.VehicleCar {
		return "car"
	}
	return "bike"
}

// geocodeResponse is the subset of the geocode reply we read.
type geocodeResponse struct {
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// directionsResponse is the subset of the directions reply we read.
type directionsResponse struct {
	Routes []struct {
		OverviewPolyline struct {
			Points string `json:"points"`
		} `json:"overview_polyline"`
		Legs []struct {
			Distance struct {
				Value int `json:"value"`
			} `json:"distance"`
			Duration struct {
				Text  string `json:"text"`
				Value int    `json:"value"`
			} `json:"duration"`
		} `json:"legs"`
	} `json:"routes"`
}

// Geocode returns the candidate coordinates for a free-text address.
func (c *Client) Geocode(ctx context.Context, address string) ([]models.GeoPoint, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	q := url.Values{}
	q.Set("address", address)
	q.Set("api_key", c.apiKey)

	var resp geocodeResponse
	if err := c.get(ctx, "geocode", "/geocode", q, &resp); err != nil {
		return nil, err
	}

	points := make([]models.GeoPoint, 0, len(resp.Results))
	for _, r := range resp.Results {
		points = append(points, models.GeoPoint{Lat: r.Geometry.Location.Lat, Lng: r.Geometry.Location.Lng})
	}
	return points, nil
}

// Route asks for directions between two points for the given vehicle profile.
func (c *Client) Route(ctx context.Context, origin, destination models.GeoPoint, profile models.VehicleProfile) ([]models.Route, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	q := url.Values{}
	q.Set("origin", formatPoint(origin))
	q.Set("destination", formatPoint(destination))
	q.Set("vehicle", VehicleCode(profile))
	q.Set("api_key", c.apiKey)

	var resp directionsResponse
	if err := c.get(ctx, "directions", "/Direction", q, &resp); err != nil {
		return nil, err
	}

	routes := make([]models.Route, 0, len(resp.Routes))
	for _, r := range resp.Routes {
		route := models.Route{OverviewPolyline: r.OverviewPolyline.Points}
		for _, l := range r.Legs {
			route.Legs = append(route.Legs, models.RouteLeg{
				DistanceMeters:  l.Distance.Value,
				DurationSeconds: l.Duration.Value,
				DurationText:    l.Duration.Text,
			})
		}
		routes = append(routes, route)
	}
	return routes, nil
}

func (c *Client) get(ctx context.Context, provider, path string, q url.Values, out any) (err error) {
	start := time.Now()
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
		}
		metrics.ProviderRequestDuration.WithLabelValues(provider, status).Observe(time.Since(start).Seconds())
	}()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("maps.%s build request: %w", provider, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("maps.%s call: %w", provider, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("maps.%s read body: %w", provider, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("maps.%s: unexpected status %d", provider, resp.StatusCode)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("maps.%s unmarshal: %w", provider, err)
	}
	return nil
}

func formatPoint(p models.GeoPoint) string {
	return strconv.FormatFloat(p.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lng, 'f', -1, 64)
}

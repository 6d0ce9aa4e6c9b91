package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// UnknownLocation is returned when a lookup succeeds but yields no address parts.
const UnknownLocation = "Unknown location"

// ReverseGeocoder resolves coordinates to a human-readable address.
type ReverseGeocoder interface {
	Address(ctx context.Context, lat, lon float64) (string, error)
}

// NominatimGeocoder uses the OpenStreetMap Nominatim reverse API.
type NominatimGeocoder struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

type nominatimResponse struct {
	Error   string `json:"error"`
	Address struct {
		Road    string `json:"road"`
		Suburb  string `json:"suburb"`
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		State   string `json:"state"`
		Country string `json:"country"`
	} `json:"address"`
}

// NewNominatimGeocoder creates a geocoder. Empty arguments fall back to the public endpoint,
// a generic user agent and a 10s timeout.
func NewNominatimGeocoder(baseURL, userAgent string, timeout time.Duration) *NominatimGeocoder {
	if baseURL == "" {
		baseURL = "https://nominatim.openstreetmap.org"
	}
	if userAgent == "" {
		userAgent = "quiet-assistant/1.0"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &NominatimGeocoder{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		client:    &http.Client{Timeout: timeout},
	}
}

// Address returns road, suburb, locality, state and country joined by ", ".
func (g *NominatimGeocoder) Address(ctx context.Context, lat, lon float64) (string, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("zoom", "18")
	q.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, "GET", g.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("nominatim request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("nominatim error %d: %s", resp.StatusCode, string(b))
	}

	var result nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	if result.Error != "" {
		return "", fmt.Errorf("nominatim: %s", result.Error)
	}

	a := result.Address
	var parts []string
	for _, p := range []string{a.Road, a.Suburb, firstNonEmpty(a.City, a.Town, a.Village), a.State, a.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return UnknownLocation, nil
	}
	return strings.Join(parts, ", "), nil
}

// Describe never fails: lookup errors degrade to a coordinate string.
func Describe(ctx context.Context, g ReverseGeocoder, lat, lon float64) string {
	addr, err := g.Address(ctx, lat, lon)
	if err != nil {
		return Coordinates(lat, lon)
	}
	return addr
}

// Coordinates formats a position with six decimal places.
func Coordinates(lat, lon float64) string {
	return fmt.Sprintf("Lat: %.6f, Lng: %.6f", lat, lon)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

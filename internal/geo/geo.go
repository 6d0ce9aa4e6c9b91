// Package geo provides distance math and reverse geocoding for location-triggered modes.
package geo

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/rcliao/quiet-assistant/internal/model"
)

// EarthRadius is the mean Earth radius in meters.
const EarthRadius = 6371e3

// ErrPermissionDenied is returned by a Locator that has no access to location data.
var ErrPermissionDenied = errors.New("location permission not granted")

// Location is a position fix.
type Location struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  *float64  `json:"accuracy,omitempty"`
	Altitude  *float64  `json:"altitude,omitempty"`
	Speed     *float64  `json:"speed,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// SavedLocation is a named place with a trigger radius in meters.
type SavedLocation struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Address   string         `json:"address"`
	Latitude  float64        `json:"latitude"`
	Longitude float64        `json:"longitude"`
	Radius    float64        `json:"radius"`
	ModeType  model.ModeType `json:"modeType,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Locator supplies the device position.
type Locator interface {
	Current(ctx context.Context) (Location, error)
}

// Watch polls l every interval until ctx is done, calling onUpdate with each fix and
// onError (when non-nil) with each failure. It blocks; run it in a goroutine.
func Watch(ctx context.Context, l Locator, interval time.Duration, onUpdate func(Location), onError func(error)) {
	poll := func() {
		loc, err := l.Current(ctx)
		if err != nil {
			if onError != nil && ctx.Err() == nil {
				onError(err)
			}
			return
		}
		onUpdate(loc)
	}

	poll()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			poll()
		}
	}
}

// Distance returns the great-circle distance in meters between two coordinates.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadius * c
}

// WithinRadius reports whether the current position is within radius meters of the target.
func WithinRadius(curLat, curLon, targetLat, targetLon, radius float64) bool {
	return Distance(curLat, curLon, targetLat, targetLon) <= radius
}

// Contains reports whether loc falls inside the saved location's radius.
func (s SavedLocation) Contains(loc Location) bool {
	return WithinRadius(loc.Latitude, loc.Longitude, s.Latitude, s.Longitude, s.Radius)
}

// Matching returns the saved locations that contain loc, in input order.
func Matching(saved []SavedLocation, loc Location) []SavedLocation {
	var out []SavedLocation
	for _, s := range saved {
		if s.Contains(loc) {
			out = append(out, s)
		}
	}
	return out
}

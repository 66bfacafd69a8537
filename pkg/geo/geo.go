package geo

import (
	"context"
	"errors"
	"math"
)

// ErrUnavailable is returned by a Locator that cannot produce coordinates.
var ErrUnavailable = errors.New("location unavailable")

// Point is a GeoJSON-style point. Coordinates keep the order in which they
// were acquired ([lat, lng]); the backend and the navigation links both read
// them in that order.
type Point struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// NewPoint returns a Point for the given latitude and longitude.
func NewPoint(lat, lng float64) Point {
	return Point{Type: "Point", Coordinates: [2]float64{lat, lng}}
}

// Lat returns the first coordinate.
func (p Point) Lat() float64 { return p.Coordinates[0] }

// Lng returns the second coordinate.
func (p Point) Lng() float64 { return p.Coordinates[1] }

// IsZero reports whether the point carries no position.
func (p Point) IsZero() bool {
	return p.Coordinates[0] == 0 && p.Coordinates[1] == 0
}

// Locator is the host's location capability.
type Locator interface {
	Locate(ctx context.Context) (Point, error)
}

// LocatorFunc adapts a function to a Locator.
type LocatorFunc func(ctx context.Context) (Point, error)

func (f LocatorFunc) Locate(ctx context.Context) (Point, error) { return f(ctx) }

// Static returns a Locator that always yields p. A nil p yields ErrUnavailable.
func Static(p *Point) Locator {
	return LocatorFunc(func(context.Context) (Point, error) {
		if p == nil {
			return Point{}, ErrUnavailable
		}
		return *p, nil
	})
}

const earthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance between a and b.
func DistanceKm(a, b Point) float64 {
	lat1 := a.Lat() * math.Pi / 180
	lat2 := b.Lat() * math.Pi / 180
	dLat := (b.Lat() - a.Lat()) * math.Pi / 180
	dLng := (b.Lng() - a.Lng()) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

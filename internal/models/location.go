package models

import "math"

// GeoPoint represents WGS 84 coordinates.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Finite reports whether both coordinates are finite numbers.
func (p GeoPoint) Finite() bool {
	return !math.IsNaN(p.Latitude) && !math.IsInf(p.Latitude, 0) &&
		!math.IsNaN(p.Longitude) && !math.IsInf(p.Longitude, 0)
}

// InRange reports whether the point is finite with latitude in [-90, 90] and
// longitude in [-180, 180].
func (p GeoPoint) InRange() bool {
	return p.Finite() && math.Abs(p.Latitude) <= 90 && math.Abs(p.Longitude) <= 180
}

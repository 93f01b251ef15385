package models

import "math"

// Coordinate bounds (WGS84 degrees).
const (
	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0
)

// ValidLatitude reports whether lat is a finite value within [-90, 90].
func ValidLatitude(lat float64) bool {
	return !math.IsNaN(lat) && lat >= MinLatitude && lat <= MaxLatitude
}

// ValidLongitude reports whether lng is a finite value within [-180, 180].
func ValidLongitude(lng float64) bool {
	return !math.IsNaN(lng) && lng >= MinLongitude && lng <= MaxLongitude
}

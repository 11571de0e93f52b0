// Package hexgeo generates flat-top hexagonal analysis regions from a center
// point and radius, and provides the closed-form area of those regions.
//
// Vertices are placed with an equirectangular small-distance approximation:
// accurate for radii well below ~10 km and increasingly distorted at high
// latitudes or large radii. That approximation is part of the package's
// contract; callers (area cross-checks, map popups, exports) depend on this
// exact formula, so it must not be swapped for geodesic math.
package hexgeo

import (
	"errors"
	"math"
)

// Geometry errors.
var (
	// ErrInvalidRadius indicates a radius that is zero, negative, or not finite.
	ErrInvalidRadius = errors.New("radius must be a positive finite number")

	// ErrPolarSingularity indicates a center latitude at or near a pole, where
	// the longitude offset formula divides by a vanishing cosine.
	ErrPolarSingularity = errors.New("center latitude too close to a pole")

	// ErrInvalidLatitude indicates a latitude outside [-90, 90].
	ErrInvalidLatitude = errors.New("latitude out of range [-90, 90]")

	// ErrInvalidLongitude indicates a longitude outside [-180, 180].
	ErrInvalidLongitude = errors.New("longitude out of range [-180, 180]")
)

const (
	earthRadiusMeters = 6371000

	// polarLatitudeLimit is the largest absolute center latitude accepted by
	// Generate. Beyond it the longitude offset blows up toward the pole.
	polarLatitudeLimit = 90 - 1e-6

	// hexAreaCoefficient is 3*sqrt(3)/2, the area of a regular hexagon with
	// unit circumradius.
	hexAreaCoefficient = 2.598076211353316

	degPerRad = 180 / math.Pi
)

// Point is an immutable geographic coordinate in degrees.
type Point struct {
	Lat float64
	Lon float64
}

// Validate checks that the point is within geographic bounds.
func (p Point) Validate() error {
	if p.Lat < -90 || p.Lat > 90 || math.IsNaN(p.Lat) {
		return ErrInvalidLatitude
	}
	if p.Lon < -180 || p.Lon > 180 || math.IsNaN(p.Lon) {
		return ErrInvalidLongitude
	}
	return nil
}

// Polygon is a closed ring of geographic points. A hexagon polygon holds
// exactly 7 points: 6 distinct vertices followed by a repeat of the first.
type Polygon []Point

// Closed reports whether the first and last points coincide.
func (p Polygon) Closed() bool {
	if len(p) < 2 {
		return false
	}
	return p[0] == p[len(p)-1]
}

// Vertices returns the distinct vertices, excluding the closing point.
func (p Polygon) Vertices() []Point {
	if p.Closed() {
		return p[:len(p)-1]
	}
	return p
}

// Generate returns the flat-top hexagon centered on center with the given
// circumradius in kilometers.
//
// Vertices sit at bearings 60·i − 30 degrees for i in 0..5, so the first
// vertex is at −30° and a flat edge faces north/south. Offsets use a fixed
// spherical Earth radius and the equirectangular approximation:
//
//	dLat = r·sin(θ) / R
//	dLon = r·cos(θ) / (R·cos(lat))
//
// The ring is closed by repeating the first vertex, giving 7 points total.
func Generate(center Point, radiusKm float64) (Polygon, error) {
	if radiusKm <= 0 || math.IsNaN(radiusKm) || math.IsInf(radiusKm, 0) {
		return nil, ErrInvalidRadius
	}
	if err := center.Validate(); err != nil {
		return nil, err
	}
	if math.Abs(center.Lat) > polarLatitudeLimit {
		return nil, ErrPolarSingularity
	}

	radiusMeters := radiusKm * 1000
	cosLat := math.Cos(center.Lat * math.Pi / 180)

	poly := make(Polygon, 0, 7)
	for i := 0; i < 6; i++ {
		bearingDeg := float64(60*i - 30)
		bearingRad := bearingDeg * math.Pi / 180

		latOffset := radiusMeters * math.Sin(bearingRad) / earthRadiusMeters * degPerRad
		lonOffset := radiusMeters * math.Cos(bearingRad) / (earthRadiusMeters * cosLat) * degPerRad

		poly = append(poly, Point{
			Lat: center.Lat + latOffset,
			Lon: center.Lon + lonOffset,
		})
	}
	poly = append(poly, poly[0])

	return poly, nil
}

// AreaSqKm returns the area in square kilometers of a regular hexagon with
// circumradius radiusKm, using the closed form (3√3/2)·r². Every displayed
// area estimate must come from this function so figures agree bit-for-bit.
func AreaSqKm(radiusKm float64) (float64, error) {
	if radiusKm < 0 || math.IsNaN(radiusKm) || math.IsInf(radiusKm, 0) {
		return 0, ErrInvalidRadius
	}
	return hexAreaCoefficient * radiusKm * radiusKm, nil
}

package hexgeo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Ring converts the polygon to an orb.Ring in GeoJSON [lon, lat] order.
func (p Polygon) Ring() orb.Ring {
	ring := make(orb.Ring, 0, len(p))
	for _, pt := range p {
		ring = append(ring, orb.Point{pt.Lon, pt.Lat})
	}
	return ring
}

// Orb converts the polygon to an orb.Polygon with a single outer ring.
func (p Polygon) Orb() orb.Polygon {
	return orb.Polygon{p.Ring()}
}

// Feature generates the hexagon for the given center and radius and wraps it
// in a GeoJSON feature carrying the inputs and the analytic area as
// properties. The geometry is the same ring Generate produces, so rendered
// and exported shapes always match.
func Feature(center Point, radiusKm float64) (*geojson.Feature, error) {
	poly, err := Generate(center, radiusKm)
	if err != nil {
		return nil, err
	}

	area, err := AreaSqKm(radiusKm)
	if err != nil {
		return nil, err
	}

	f := geojson.NewFeature(poly.Orb())
	f.Properties = geojson.Properties{
		"center_lat": center.Lat,
		"center_lon": center.Lon,
		"radius_km":  radiusKm,
		"area_sq_km": area,
	}
	return f, nil
}

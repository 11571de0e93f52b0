package analysis

import (
	"encoding/csv"
	"io"
	"strconv"
)

// ExportField is one row of a flattened result: a key, a formatted value,
// and the unit the value is expressed in. Units are carried explicitly so
// consumers can tell the 0-1 building-density fraction apart from the 0-100
// water percentage without guessing.
type ExportField struct {
	Key   string
	Value string
	Unit  string
}

// Flatten converts a result into ordered key/value rows suitable for
// tabular export. Field order is fixed; breakdown entries are appended in
// lexicographic category order so repeated exports of the same result are
// identical.
func Flatten(result *Result) []ExportField {
	fields := []ExportField{
		{Key: "elevation_min", Value: formatValue(result.Elevation.MinMeters), Unit: "m"},
		{Key: "elevation_mean", Value: formatValue(result.Elevation.MeanMeters), Unit: "m"},
		{Key: "elevation_max", Value: formatValue(result.Elevation.MaxMeters), Unit: "m"},
		{Key: "water_percentage", Value: formatValue(result.Water.Percentage), Unit: "percent"},
		{Key: "water_area_sq_m", Value: formatValue(result.Water.AreaSqM), Unit: "sq_m"},
		{Key: "building_density", Value: formatValue(result.Buildings.Density), Unit: "fraction"},
		{Key: "total_building_area_sq_m", Value: formatValue(result.Buildings.TotalAreaSqM), Unit: "sq_m"},
		{Key: "total_road_length_m", Value: formatValue(result.Roads.TotalLengthM), Unit: "m"},
		{Key: "dominant_landuse", Value: result.LandUse.DominantCategory, Unit: ""},
		{Key: "dominant_landuse_percentage", Value: formatValue(result.LandUse.DominantPercentage), Unit: "percent"},
		{Key: "hexagon_area_sq_km", Value: formatValue(result.HexagonAreaSqKm), Unit: "sq_km"},
	}

	for _, category := range result.LandUse.Breakdown.Categories() {
		fields = append(fields, ExportField{
			Key:   "landuse_" + category,
			Value: formatValue(result.LandUse.Breakdown[category]),
			Unit:  "sq_m",
		})
	}

	return fields
}

// WriteCSV writes the flattened result as delimited text with a header row.
func WriteCSV(w io.Writer, result *Result) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"field", "value", "unit"}); err != nil {
		return err
	}
	for _, field := range Flatten(result) {
		if err := cw.Write([]string{field.Key, field.Value, field.Unit}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

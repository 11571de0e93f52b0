package analysis_test

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexascope/hexascope/internal/analysis"
)

func TestFlatten(t *testing.T) {
	fields := analysis.Flatten(validResult())

	keys := make([]string, len(fields))
	byKey := make(map[string]analysis.ExportField, len(fields))
	for i, f := range fields {
		keys[i] = f.Key
		byKey[f.Key] = f
	}

	// Fixed summary fields followed by breakdown entries in lexicographic order.
	assert.Equal(t, []string{
		"elevation_min",
		"elevation_mean",
		"elevation_max",
		"water_percentage",
		"water_area_sq_m",
		"building_density",
		"total_building_area_sq_m",
		"total_road_length_m",
		"dominant_landuse",
		"dominant_landuse_percentage",
		"hexagon_area_sq_km",
		"landuse_farmland",
		"landuse_forest",
		"landuse_residential",
	}, keys)

	assert.Equal(t, "120", byKey["elevation_min"].Value)
	assert.Equal(t, "m", byKey["elevation_min"].Unit)
	assert.Equal(t, "forest", byKey["dominant_landuse"].Value)
	assert.Equal(t, "percent", byKey["water_percentage"].Unit)
	assert.Equal(t, "fraction", byKey["building_density"].Unit)
	assert.Equal(t, "6000000", byKey["landuse_forest"].Value)
	assert.Equal(t, "sq_m", byKey["landuse_forest"].Unit)
}

func TestFlatten_Deterministic(t *testing.T) {
	result := validResult()
	assert.Equal(t, analysis.Flatten(result), analysis.Flatten(result))
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, analysis.WriteCSV(&buf, validResult()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)

	require.NotEmpty(t, records)
	assert.Equal(t, []string{"field", "value", "unit"}, records[0])
	assert.Len(t, records, 1+len(analysis.Flatten(validResult())))

	for _, record := range records[1:] {
		assert.Len(t, record, 3)
		assert.NotEmpty(t, record[0])
	}
}

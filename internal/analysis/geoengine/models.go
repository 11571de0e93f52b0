package geoengine

// analyzeRequest is the engine's analyze request body.
type analyzeRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	RadiusKm  float64 `json:"radius_km"`
}

// analyzeResponse is the engine's flat analyze response.
type analyzeResponse struct {
	ElevationMin              float64            `json:"elevation_min"`
	ElevationMean             float64            `json:"elevation_mean"`
	ElevationMax              float64            `json:"elevation_max"`
	TotalRoadLengthM          float64            `json:"total_road_length_m"`
	BuildingDensity           float64            `json:"building_density"`
	TotalBuildingAreaSqM      float64            `json:"total_building_area_sq_m"`
	WaterPercentage           float64            `json:"water_percentage"`
	WaterAreaSqM              float64            `json:"water_area_sq_m"`
	DominantLanduse           string             `json:"dominant_landuse"`
	DominantLandusePercentage float64            `json:"dominant_landuse_percentage"`
	LanduseBreakdown          map[string]float64 `json:"landuse_breakdown"`
	HexagonAreaSqKm           float64            `json:"hexagon_area_sq_km"`
}

// healthResponse is the engine's health check response.
type healthResponse struct {
	Status string `json:"status"`
}

// errorResponse is the engine's error body.
type errorResponse struct {
	Error string `json:"error"`
}

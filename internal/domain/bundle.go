package domain

import "time"

// The bundle types below are serialized for the dashboard and must keep
// their field names and array shapes exactly as the production inference
// service emits them.

// SiteInfo is the site descriptor echoed in every bundle.
type SiteInfo struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Location    string     `json:"location"`
	Coordinates [2]float64 `json:"coordinates"` // [lat, lon]
	Description string     `json:"description"`
}

// InfoFor builds the bundle site descriptor from a configured site.
func InfoFor(site Site) SiteInfo {
	return SiteInfo{
		ID:          site.ID,
		Name:        site.Name,
		Location:    site.Location,
		Coordinates: [2]float64{site.Latitude, site.Longitude},
		Description: site.Description,
	}
}

// Coordinates is the per-frame geographic metadata block.
type Coordinates struct {
	Bounds        [4]float64 `json:"bounds"` // [west, east, south, north]
	Center        [2]float64 `json:"center"` // [lat, lon]
	ResolutionDeg float64    `json:"resolution_deg"`
	ResolutionKm  float64    `json:"resolution_km"`
	Projection    string     `json:"projection"`
	RangeKm       float64    `json:"range_km"`
}

// kmPerDegree is the nominal great-circle distance of one degree of latitude.
const kmPerDegree = 111.0

// CoverageFor computes the geographic metadata of a site's 300 km domain.
func CoverageFor(site Site) Coordinates {
	rangeDeg := RangeKm / kmPerDegree
	return Coordinates{
		Bounds: [4]float64{
			site.Longitude - rangeDeg,
			site.Longitude + rangeDeg,
			site.Latitude - rangeDeg,
			site.Latitude + rangeDeg,
		},
		Center:        [2]float64{site.Latitude, site.Longitude},
		ResolutionDeg: CellKm / kmPerDegree,
		ResolutionKm:  CellKm,
		Projection:    "aeqd",
		RangeKm:       RangeKm,
	}
}

// HistoricalFrame is one rendered frame in the historical bundle.
type HistoricalFrame struct {
	Timestamp      string      `json:"timestamp"`
	Data           [][]float64 `json:"data"`
	Coordinates    Coordinates `json:"coordinates"`
	IntensityRange [2]float64  `json:"intensity_range"`
	DataQuality    string      `json:"data_quality"`
}

// TimeRange delimits the historical window.
type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// HistoricalBundle is the fabricated radar history for one site.
type HistoricalBundle struct {
	Success     bool              `json:"success"`
	SiteInfo    SiteInfo          `json:"site_info"`
	Frames      []HistoricalFrame `json:"frames"`
	TotalFrames int               `json:"total_frames"`
	TimeRange   TimeRange         `json:"time_range"`
}

// PredictionBundle is the forecast output for one site. PredictionFrames is
// indexed [lead step][row][col][1]; the innermost single-element slice is a
// wire-format quirk the dashboard depends on.
type PredictionBundle struct {
	Success             bool            `json:"success"`
	SiteInfo            SiteInfo        `json:"site_info"`
	PredictionFrames    [][][][]float64 `json:"prediction_frames"`
	PredictionTimestamp string          `json:"prediction_timestamp"`
}

// PredictionFrame is the internal representation of one forecast step before
// bundle assembly. Confidence is the scalar regime confidence for the whole
// step; Uncertainty and Spread are per-cell.
type PredictionFrame struct {
	LeadMinutes int
	Timestamp   time.Time
	Data        Grid
	Uncertainty Grid
	Spread      Grid
	Confidence  float64
}

// RadarBundle is what the engine returns and memoizes per (site, lookback).
type RadarBundle struct {
	Historical HistoricalBundle
	Prediction PredictionBundle

	// Steps keeps the internal prediction frames alongside the wire bundle
	// so callers can inspect confidences and uncertainty grids.
	Steps []PredictionFrame
}

package types

// POISource tags where a POI record came from.
type POISource string

const (
	POISourceOSM  POISource = "OpenStreetMap"
	POISourceSeed POISource = "Seed"
)

// Coordinate is a WGS84 point.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// POI is a normalized point of interest. ID is source-prefixed
// ("osm:node:123") and unique within a session catalog.
type POI struct {
	ID                   string            `json:"id"`
	Name                 string            `json:"name"`
	Type                 string            `json:"type"`
	Tags                 map[string]string `json:"tags,omitempty"`
	Location             Coordinate        `json:"location"`
	TypicalDurationHours float64           `json:"typical_duration_hours"`
	Confidence           float64           `json:"confidence"`
	Source               POISource         `json:"source"`
}

// POISearchInput parameterizes a candidate search.
type POISearchInput struct {
	City          string   `json:"city"`
	Interests     []string `json:"interests"`
	Pace          Pace     `json:"pace"`
	MaxCandidates int      `json:"max_candidates"`
}

// POISearchResult is the ranked candidate set. FallbackUsed is true when
// the curated seed catalog replaced provider data, with the reason code.
type POISearchResult struct {
	City           string `json:"city"`
	POIs           []POI  `json:"pois"`
	FallbackUsed   bool   `json:"fallback_used"`
	FallbackReason string `json:"fallback_reason,omitempty"`
}

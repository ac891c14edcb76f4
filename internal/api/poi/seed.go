package poi

import "github.com/FACorreiaa/go-voice-travel-planner/internal/types"

// seedPOIs is the curated static fallback catalog used when the
// geographic provider fails or returns nothing usable.
var seedPOIs = []types.POI{
	{
		ID: "osm:node:1", Name: "Amber Fort", Type: "historic",
		Tags:     map[string]string{"tourism": "attraction", "historic": "fort"},
		Location: types.Coordinate{Lat: 26.9389, Lon: 75.6513},
		TypicalDurationHours: 2.5, Confidence: 0.95, Source: types.POISourceSeed,
	},
	{
		ID: "osm:node:2", Name: "City Palace", Type: "historic",
		Tags:     map[string]string{"tourism": "attraction", "historic": "palace"},
		Location: types.Coordinate{Lat: 26.9245, Lon: 75.8231},
		TypicalDurationHours: 1.5, Confidence: 0.92, Source: types.POISourceSeed,
	},
	{
		ID: "osm:node:3", Name: "Jantar Mantar", Type: "historic",
		Tags:     map[string]string{"tourism": "attraction", "historic": "monument"},
		Location: types.Coordinate{Lat: 26.9245, Lon: 75.8261},
		TypicalDurationHours: 1.0, Confidence: 0.88, Source: types.POISourceSeed,
	},
	{
		ID: "osm:node:4", Name: "Hawa Mahal", Type: "historic",
		Tags:     map[string]string{"tourism": "attraction", "historic": "building"},
		Location: types.Coordinate{Lat: 26.9245, Lon: 75.8277},
		TypicalDurationHours: 0.75, Confidence: 0.90, Source: types.POISourceSeed,
	},
	{
		ID: "osm:node:5", Name: "Sardar Market", Type: "market",
		Tags:     map[string]string{"tourism": "attraction", "shop": "market"},
		Location: types.Coordinate{Lat: 26.9245, Lon: 75.8267},
		TypicalDurationHours: 1.5, Confidence: 0.85, Source: types.POISourceSeed,
	},
	{
		ID: "osm:node:6", Name: "Chokhi Dhani", Type: "restaurant",
		Tags:     map[string]string{"amenity": "restaurant", "cuisine": "indian"},
		Location: types.Coordinate{Lat: 26.8667, Lon: 75.7833},
		TypicalDurationHours: 2.0, Confidence: 0.87, Source: types.POISourceSeed,
	},
	{
		ID: "osm:node:7", Name: "Niros Restaurant", Type: "restaurant",
		Tags:     map[string]string{"amenity": "restaurant", "cuisine": "indian;continental"},
		Location: types.Coordinate{Lat: 26.9245, Lon: 75.8231},
		TypicalDurationHours: 1.5, Confidence: 0.84, Source: types.POISourceSeed,
	},
	{
		ID: "osm:node:8", Name: "Albert Hall Museum", Type: "museum",
		Tags:     map[string]string{"tourism": "museum"},
		Location: types.Coordinate{Lat: 26.9234, Lon: 75.8254},
		TypicalDurationHours: 1.5, Confidence: 0.83, Source: types.POISourceSeed,
	},
	{
		ID: "osm:node:9", Name: "Govind Dev Ji Temple", Type: "place_of_worship",
		Tags:     map[string]string{"amenity": "place_of_worship", "religion": "hindu"},
		Location: types.Coordinate{Lat: 26.9234, Lon: 75.8254},
		TypicalDurationHours: 1.0, Confidence: 0.81, Source: types.POISourceSeed,
	},
	{
		ID: "osm:node:10", Name: "Jal Mahal", Type: "historic",
		Tags:     map[string]string{"tourism": "attraction", "historic": "palace"},
		Location: types.Coordinate{Lat: 26.9667, Lon: 75.8000},
		TypicalDurationHours: 0.75, Confidence: 0.79, Source: types.POISourceSeed,
	},
}

// seedCatalog returns a size-capped copy of the fallback list.
func seedCatalog(maxCandidates int) []types.POI {
	n := len(seedPOIs)
	if maxCandidates > 0 && maxCandidates < n {
		n = maxCandidates
	}
	out := make([]types.POI, n)
	copy(out, seedPOIs[:n])
	return out
}

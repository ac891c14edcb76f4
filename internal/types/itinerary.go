package types

// TimeOfDay labels one block of a day. Blocks always appear in
// Morning, Afternoon, Evening order within a day.
type TimeOfDay string

const (
	Morning   TimeOfDay = "Morning"
	Afternoon TimeOfDay = "Afternoon"
	Evening   TimeOfDay = "Evening"
)

// TravelMethod records how a travel estimate was obtained.
type TravelMethod string

const (
	TravelMethodRouted    TravelMethod = "routed"
	TravelMethodHeuristic TravelMethod = "heuristic-bucket"
)

// TravelEstimate is the travel leg from the previous block's POI.
type TravelEstimate struct {
	Mode    string       `json:"mode"`
	Minutes int          `json:"minutes"`
	Method  TravelMethod `json:"method"`
}

// ItineraryBlock is one time-of-day segment. POIID is empty for
// free-time blocks.
type ItineraryBlock struct {
	TimeOfDay      TimeOfDay      `json:"time_of_day"`
	POIID          string         `json:"poi_id,omitempty"`
	Title          string         `json:"title"`
	DurationHours  float64        `json:"duration_hours"`
	TravelFromPrev TravelEstimate `json:"travel_from_prev"`
	Notes          []string       `json:"notes"`
}

// ItineraryDay is one named day of the plan.
type ItineraryDay struct {
	Name              string           `json:"name"`
	Blocks            []ItineraryBlock `json:"blocks"`
	TotalPlannedHours float64          `json:"total_planned_hours"`
}

// ItineraryMeta carries transparency output from the builder.
type ItineraryMeta struct {
	Assumptions      []string `json:"assumptions"`
	UnselectedPOIIDs []string `json:"unselected_poi_ids"`
}

// Itinerary is the full multi-day schedule. A POI id appears in at most
// one block across the whole itinerary.
type Itinerary struct {
	City string         `json:"city"`
	Days []ItineraryDay `json:"days"`
	Meta ItineraryMeta  `json:"meta"`
}

// BuildInput parameterizes itinerary construction.
type BuildInput struct {
	City            string         `json:"city"`
	Days            int            `json:"days"`
	DailyHourLimit  float64        `json:"daily_hour_limit"`
	Pace            Pace           `json:"pace"`
	CandidatePOIIDs []string       `json:"candidate_poi_ids"`
	POICatalog      map[string]POI `json:"poi_catalog"`
	MaxPOIsPerDay   int            `json:"max_pois_per_day"`
}

// BuildResult pairs the itinerary with its transparency metadata.
type BuildResult struct {
	Itinerary        Itinerary `json:"itinerary"`
	UnselectedPOIIDs []string  `json:"unselected_poi_ids"`
	Assumptions      []string  `json:"assumptions"`
}

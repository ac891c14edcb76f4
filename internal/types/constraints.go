package types

import "strings"

// Pace controls how many activity slots a day gets.
type Pace string

const (
	PaceRelaxed Pace = "relaxed"
	PaceNormal  Pace = "normal"
	PacePacked  Pace = "packed"
)

// NormalizePace lowercases and maps the model's "moderate" synonym onto
// normal. The result may still be invalid; callers gate on ValidPace.
func NormalizePace(s string) Pace {
	p := Pace(strings.ToLower(strings.TrimSpace(s)))
	if p == "moderate" {
		p = PaceNormal
	}
	return p
}

// ValidPace reports whether p is one of the fixed pace values.
func ValidPace(p Pace) bool {
	switch p {
	case PaceRelaxed, PaceNormal, PacePacked:
		return true
	}
	return false
}

// Constraints is the fully resolved, geocode-validated input to the
// construction pipeline. City always holds the geocoder's display name.
type Constraints struct {
	City          string   `json:"city"`
	ResolvedCity  string   `json:"resolved_city"`
	Latitude      float64  `json:"latitude"`
	Longitude     float64  `json:"longitude"`
	NumDays       int      `json:"num_days"`
	Pace          Pace     `json:"pace"`
	Interests     []string `json:"interests"`
	MaxDailyHours float64  `json:"max_daily_hours"`
	Notes         []string `json:"notes,omitempty"`
}

// ExtractedConstraints is the partial, unvalidated extraction from one
// utterance, model- or rule-derived. Zero values mean "not stated".
type ExtractedConstraints struct {
	City          string   `json:"city,omitempty"`
	NumDays       int      `json:"num_days,omitempty"`
	Pace          string   `json:"pace,omitempty"`
	Interests     []string `json:"interests,omitempty"`
	MaxDailyHours float64  `json:"max_daily_hours,omitempty"`
}

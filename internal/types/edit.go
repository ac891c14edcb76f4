package types

// EditAction is the fixed enumeration of supported edit operations.
type EditAction string

const (
	ActionSetPace        EditAction = "SET_PACE"
	ActionMakeMoreRelax  EditAction = "MAKE_MORE_RELAXED"
	ActionReduceTravel   EditAction = "REDUCE_TRAVEL"
	ActionSwapToIndoor   EditAction = "SWAP_TO_INDOOR"
	ActionAddFoodPlace   EditAction = "ADD_FOOD_PLACE"
)

// ValidEditAction reports whether a is one of the fixed enumeration.
func ValidEditAction(a EditAction) bool {
	switch a {
	case ActionSetPace, ActionMakeMoreRelax, ActionReduceTravel, ActionSwapToIndoor, ActionAddFoodPlace:
		return true
	}
	return false
}

// EditScope restricts an edit to a day and/or time-of-day block.
// A nil scope or an unset field means "all".
type EditScope struct {
	DayIndex *int   `json:"day_index,omitempty"` // 1-indexed
	Block    string `json:"block,omitempty"`     // "morning"|"afternoon"|"evening"
}

// EditParams carries optional free-form parameters for an edit.
type EditParams struct {
	Pace string `json:"pace,omitempty"`
	Note string `json:"note,omitempty"`
}

// EditCommand is a typed, interpretable edit request.
type EditCommand struct {
	Action EditAction  `json:"action"`
	Scope  *EditScope  `json:"scope,omitempty"`
	Params *EditParams `json:"params,omitempty"`
}

// EditOutcome reports which parts of the itinerary an applied command
// touched. Lists are deduplicated; both are empty for a no-op.
type EditOutcome struct {
	ChangedDays   []string `json:"changed_days"`
	ChangedBlocks []string `json:"changed_blocks"`
}

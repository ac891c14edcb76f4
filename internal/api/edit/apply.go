package edit

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/go-voice-travel-planner/internal/types"
)

const (
	relaxDecrementHours = 0.5
	minBlockHours       = 0.5
	travelNoteThreshold = 20 // minutes
	dayOverheadHours    = 1.5
)

// Apply mutates the session's itinerary according to the command scope.
// Blocks outside the resolved scope are never touched. A day index past
// the itinerary length makes the whole command a no-op.
func (s *ServiceImpl) Apply(ctx context.Context, session *types.Session, cmd types.EditCommand) types.EditOutcome {
	ctx, span := otel.Tracer("EditService").Start(ctx, "Apply")
	defer span.End()
	span.SetAttributes(attribute.String("action", string(cmd.Action)))

	l := s.logger.With(slog.String("method", "Apply"), slog.String("action", string(cmd.Action)))

	outcome := types.EditOutcome{
		ChangedDays:   []string{},
		ChangedBlocks: []string{},
	}

	if cmd.Action == types.ActionSetPace {
		s.applySetPace(session, cmd, &outcome)
		span.SetStatus(codes.Ok, "Edit applied")
		return outcome
	}

	dayIndexes := resolveDayScope(cmd.Scope, len(session.Itinerary.Days))
	if len(dayIndexes) == 0 {
		l.InfoContext(ctx, "Edit scope resolved to no days, command is a no-op")
		span.SetStatus(codes.Ok, "Edit was a no-op")
		return outcome
	}

	for _, di := range dayIndexes {
		day := &session.Itinerary.Days[di]
		changed := false

		switch cmd.Action {
		case types.ActionMakeMoreRelax:
			changed = applyRelax(day, cmd.Scope, &outcome)
		case types.ActionReduceTravel:
			changed = applyReduceTravel(day, cmd.Scope, &outcome)
		case types.ActionSwapToIndoor:
			changed = applySwapToIndoor(day, cmd.Scope, &outcome)
		case types.ActionAddFoodPlace:
			changed = applyAddFoodPlace(day, &outcome)
		}

		if changed {
			day.TotalPlannedHours = recomputeDayTotal(day)
			outcome.ChangedDays = appendUnique(outcome.ChangedDays, day.Name)
		}
	}

	span.SetStatus(codes.Ok, "Edit applied")
	l.InfoContext(ctx, "Edit applied",
		slog.Int("changed_days", len(outcome.ChangedDays)),
		slog.Int("changed_blocks", len(outcome.ChangedBlocks)))
	return outcome
}

// resolveDayScope converts a 1-indexed day reference to 0-indexed
// positions. No reference means every day; an out-of-range reference
// means none.
func resolveDayScope(scope *types.EditScope, numDays int) []int {
	if scope == nil || scope.DayIndex == nil {
		out := make([]int, numDays)
		for i := range out {
			out[i] = i
		}
		return out
	}
	di := *scope.DayIndex - 1
	if di < 0 || di >= numDays {
		return nil
	}
	return []int{di}
}

func blockInScope(block types.ItineraryBlock, scope *types.EditScope) bool {
	if scope == nil || scope.Block == "" {
		return true
	}
	return strings.EqualFold(string(block.TimeOfDay), scope.Block)
}

func applyRelax(day *types.ItineraryDay, scope *types.EditScope, outcome *types.EditOutcome) bool {
	changed := false
	for i := range day.Blocks {
		b := &day.Blocks[i]
		if !blockInScope(*b, scope) {
			continue
		}
		b.DurationHours = math.Max(b.DurationHours-relaxDecrementHours, minBlockHours)
		b.Notes = append(b.Notes, "Trimmed for a more relaxed pace")
		outcome.ChangedBlocks = appendUnique(outcome.ChangedBlocks, blockRef(day, b))
		changed = true
	}
	return changed
}

func applyReduceTravel(day *types.ItineraryDay, scope *types.EditScope, outcome *types.EditOutcome) bool {
	changed := false
	for i := range day.Blocks {
		b := &day.Blocks[i]
		if !blockInScope(*b, scope) {
			continue
		}
		if b.TravelFromPrev.Minutes <= travelNoteThreshold {
			continue
		}
		b.Notes = append(b.Notes, "Long travel leg, consider a closer alternative")
		outcome.ChangedBlocks = appendUnique(outcome.ChangedBlocks, blockRef(day, b))
		changed = true
	}
	return changed
}

func applySwapToIndoor(day *types.ItineraryDay, scope *types.EditScope, outcome *types.EditOutcome) bool {
	changed := false
	for i := range day.Blocks {
		b := &day.Blocks[i]
		if !blockInScope(*b, scope) {
			continue
		}
		b.Notes = append(b.Notes, "Indoor alternative: nearby museum or covered market")
		outcome.ChangedBlocks = appendUnique(outcome.ChangedBlocks, blockRef(day, b))
		changed = true
	}
	return changed
}

// applyAddFoodPlace annotates an existing Evening block or synthesizes
// a placeholder one. Block-level scope filters do not apply here since
// food stops are Evening by construction.
func applyAddFoodPlace(day *types.ItineraryDay, outcome *types.EditOutcome) bool {
	for i := range day.Blocks {
		b := &day.Blocks[i]
		if b.TimeOfDay != types.Evening {
			continue
		}
		b.Notes = append(b.Notes, "Food suggestion: try a well-reviewed local restaurant nearby")
		outcome.ChangedBlocks = appendUnique(outcome.ChangedBlocks, blockRef(day, b))
		return true
	}

	day.Blocks = append(day.Blocks, types.ItineraryBlock{
		TimeOfDay:     types.Evening,
		Title:         "Local food stop",
		DurationHours: 1.5,
		TravelFromPrev: types.TravelEstimate{
			Mode:    "mixed",
			Minutes: 25,
			Method:  types.TravelMethodHeuristic,
		},
		Notes: []string{"Placeholder food stop, pick a nearby restaurant"},
	})
	added := &day.Blocks[len(day.Blocks)-1]
	outcome.ChangedBlocks = appendUnique(outcome.ChangedBlocks, blockRef(day, added))
	return true
}

// applySetPace is itinerary-wide regardless of any scope: pace is a
// session-level constraint.
func (s *ServiceImpl) applySetPace(session *types.Session, cmd types.EditCommand, outcome *types.EditOutcome) {
	if cmd.Params != nil && cmd.Params.Pace != "" {
		if p := types.NormalizePace(cmd.Params.Pace); types.ValidPace(p) {
			session.Constraints.Pace = p
		}
	}
	for i := range session.Itinerary.Days {
		outcome.ChangedDays = appendUnique(outcome.ChangedDays, session.Itinerary.Days[i].Name)
	}
}

func recomputeDayTotal(day *types.ItineraryDay) float64 {
	durations := 0.0
	travel := 0.0
	for _, b := range day.Blocks {
		durations += b.DurationHours
		travel += float64(b.TravelFromPrev.Minutes) / 60
	}
	total := durations + travel + dayOverheadHours
	return math.Round(total*100) / 100
}

func blockRef(day *types.ItineraryDay, block *types.ItineraryBlock) string {
	return fmt.Sprintf("%s %s", day.Name, block.TimeOfDay)
}

func appendUnique(list []string, item string) []string {
	for _, existing := range list {
		if existing == item {
			return list
		}
	}
	return append(list, item)
}

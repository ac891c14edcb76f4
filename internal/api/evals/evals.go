// Package evals scores pipeline output quality. Each evaluation is a
// pure function over session state: feasibility checks day time
// budgets, grounding checks data provenance, edit correctness checks
// that an applied command touched exactly its scope.
package evals

import (
	"fmt"
	"strings"

	"github.com/FACorreiaa/go-voice-travel-planner/internal/types"
)

// A day can run moderately over its stated budget before the plan is
// considered infeasible.
const budgetToleranceHours = 0.5

// minProviderShare is the fraction of assigned POIs that must come
// from the live provider for the plan to count as grounded.
const minProviderShare = 0.5

// Feasibility flags days whose planned hours exceed the daily budget
// beyond tolerance.
func Feasibility(itinerary types.Itinerary, maxDailyHours float64) types.EvalResult {
	result := types.EvalResult{Name: "feasibility", Passed: true, Failures: []types.EvalFailure{}}
	if maxDailyHours <= 0 {
		return result
	}
	for _, day := range itinerary.Days {
		if day.TotalPlannedHours > maxDailyHours+budgetToleranceHours {
			result.Failures = append(result.Failures, types.EvalFailure{
				Check:   "day_hours",
				Message: fmt.Sprintf("%s plans %.1fh against a %.1fh budget", day.Name, day.TotalPlannedHours, maxDailyHours),
			})
		}
	}
	result.Passed = len(result.Failures) == 0
	return result
}

// Grounding verifies that itinerary content traces back to real data:
// every assigned block's POI exists in the catalog, enough of the
// assigned POIs are provider-sourced rather than curated fallback, and
// every tip carries at least one citation.
func Grounding(session *types.Session) types.EvalResult {
	result := types.EvalResult{Name: "grounding", Passed: true, Failures: []types.EvalFailure{}}

	assigned := 0
	providerSourced := 0
	for _, day := range session.Itinerary.Days {
		for _, block := range day.Blocks {
			if block.POIID == "" {
				continue
			}
			assigned++
			poi, ok := session.POICatalog[block.POIID]
			if !ok {
				result.Failures = append(result.Failures, types.EvalFailure{
					Check:   "poi_catalog",
					Message: fmt.Sprintf("%s %s references unknown POI %s", day.Name, block.TimeOfDay, block.POIID),
				})
				continue
			}
			if poi.Source == types.POISourceOSM {
				providerSourced++
			}
		}
	}

	if assigned > 0 {
		share := float64(providerSourced) / float64(assigned)
		if share < minProviderShare {
			result.Failures = append(result.Failures, types.EvalFailure{
				Check:   "source_coverage",
				Message: fmt.Sprintf("only %d of %d assigned POIs are provider-sourced", providerSourced, assigned),
			})
		}
	}

	for _, tip := range session.Tips {
		if len(tip.Citations) == 0 {
			result.Failures = append(result.Failures, types.EvalFailure{
				Check:   "tip_citations",
				Message: fmt.Sprintf("tip %s has no citations", tip.ID),
			})
		}
	}

	result.Passed = len(result.Failures) == 0
	return result
}

// EditCorrectness checks the applied command's reported changes
// against its scope: a day-scoped command may only change that day, an
// out-of-range day must be a no-op, and pace changes are itinerary-wide.
func EditCorrectness(cmd types.EditCommand, outcome types.EditOutcome, numDays int) types.EvalResult {
	result := types.EvalResult{Name: "edit_correctness", Passed: true, Failures: []types.EvalFailure{}}

	if cmd.Action == types.ActionSetPace {
		if len(outcome.ChangedDays) != numDays {
			result.Failures = append(result.Failures, types.EvalFailure{
				Check:   "scope_match",
				Message: fmt.Sprintf("pace change marked %d of %d days", len(outcome.ChangedDays), numDays),
			})
		}
		result.Passed = len(result.Failures) == 0
		return result
	}

	if cmd.Scope != nil && cmd.Scope.DayIndex != nil {
		di := *cmd.Scope.DayIndex
		if di < 1 || di > numDays {
			if len(outcome.ChangedDays) != 0 || len(outcome.ChangedBlocks) != 0 {
				result.Failures = append(result.Failures, types.EvalFailure{
					Check:   "scope_match",
					Message: fmt.Sprintf("out-of-range day %d produced changes", di),
				})
			}
			result.Passed = len(result.Failures) == 0
			return result
		}

		want := fmt.Sprintf("Day %d", di)
		for _, name := range outcome.ChangedDays {
			if name != want {
				result.Failures = append(result.Failures, types.EvalFailure{
					Check:   "scope_match",
					Message: fmt.Sprintf("command scoped to %s but %s changed", want, name),
				})
			}
		}
		for _, ref := range outcome.ChangedBlocks {
			if !strings.HasPrefix(ref, want+" ") {
				result.Failures = append(result.Failures, types.EvalFailure{
					Check:   "scope_match",
					Message: fmt.Sprintf("command scoped to %s but block %q changed", want, ref),
				})
			}
		}
	}

	if cmd.Scope != nil && cmd.Scope.Block != "" {
		for _, ref := range outcome.ChangedBlocks {
			if !strings.EqualFold(blockLabel(ref), cmd.Scope.Block) {
				result.Failures = append(result.Failures, types.EvalFailure{
					Check:   "block_scope_match",
					Message: fmt.Sprintf("command scoped to %s blocks but %q changed", cmd.Scope.Block, ref),
				})
			}
		}
	}

	result.Passed = len(result.Failures) == 0
	return result
}

// blockLabel extracts the time-of-day from a "Day N TimeOfDay" block
// reference.
func blockLabel(ref string) string {
	idx := strings.LastIndex(ref, " ")
	if idx == -1 {
		return ref
	}
	return ref[idx+1:]
}

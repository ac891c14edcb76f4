// Package itinerary assembles day-by-day plans from a ranked POI
// candidate list. Construction is fully deterministic: the same input
// always yields byte-identical output, and it never fails outright,
// degrading to heuristic travel estimates when routing is unavailable.
package itinerary

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/go-voice-travel-planner/internal/api/routing"
	"github.com/FACorreiaa/go-voice-travel-planner/internal/types"
)

const (
	// dayOverheadHours buffers transitions and meals not modeled as blocks.
	dayOverheadHours = 1.5

	defaultBlockHours = 1.5
	eveningFreeHours  = 2.0
	firstGapMinutes   = 15
	laterGapMinutes   = 25
	travelMode        = "mixed"
)

var cultureTypes = map[string]bool{
	"attraction":       true,
	"museum":           true,
	"viewpoint":        true,
	"historic":         true,
	"place_of_worship": true,
}

var foodTypes = map[string]bool{
	"restaurant": true,
	"cafe":       true,
	"fast_food":  true,
}

// Ensure implementation satisfies the interface
var _ Service = (*ServiceImpl)(nil)

// Service builds itineraries from ranked candidates.
type Service interface {
	Build(ctx context.Context, input types.BuildInput) types.BuildResult
}

type ServiceImpl struct {
	logger  *slog.Logger
	routing routing.Service
}

func NewService(routingSvc routing.Service, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:  logger,
		routing: routingSvc,
	}
}

// Build assigns candidates to day/time-block slots. Morning and
// Afternoon slots prefer culture POIs, Evening slots take food POIs or
// stay free. A POI is assigned at most once across the whole itinerary.
func (s *ServiceImpl) Build(ctx context.Context, input types.BuildInput) types.BuildResult {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "Build")
	defer span.End()
	span.SetAttributes(
		attribute.String("city", input.City),
		attribute.Int("days", input.Days),
		attribute.String("pace", string(input.Pace)),
		attribute.Int("candidates", len(input.CandidatePOIIDs)),
	)

	l := s.logger.With(slog.String("method", "Build"), slog.String("city", input.City))

	sorted := rankCandidates(input.CandidatePOIIDs, input.POICatalog)
	culture := filterByType(sorted, input.POICatalog, cultureTypes)
	food := filterByType(sorted, input.POICatalog, foodTypes)

	slots := slotTemplate(input.Pace)

	days := make([]types.ItineraryDay, 0, input.Days)
	used := make(map[string]bool, len(sorted))

	for dayNum := 1; dayNum <= input.Days; dayNum++ {
		var blocks []types.ItineraryBlock
		var prev *types.POI
		travelHours := 0.0

		for slotIdx, timeOfDay := range slots {
			id := pickPOI(timeOfDay, sorted, culture, food, used)

			var poi *types.POI
			if id != "" {
				used[id] = true
				p := input.POICatalog[id]
				poi = &p
			}

			travel := s.estimateTravel(ctx, prev, poi, slotIdx)
			travelHours += float64(travel.Minutes) / 60

			blocks = append(blocks, buildBlock(timeOfDay, id, poi, travel))

			if poi != nil {
				prev = poi
			}
		}

		durations := 0.0
		for _, b := range blocks {
			durations += b.DurationHours
		}
		total := roundHours(durations + travelHours + dayOverheadHours)
		if total > input.DailyHourLimit {
			l.DebugContext(ctx, "Day exceeds hour budget",
				slog.Int("day", dayNum),
				slog.Float64("total", total),
				slog.Float64("budget", input.DailyHourLimit))
		}

		days = append(days, types.ItineraryDay{
			Name:              fmt.Sprintf("Day %d", dayNum),
			Blocks:            blocks,
			TotalPlannedHours: total,
		})
	}

	unselected := make([]string, 0)
	for _, id := range input.CandidatePOIIDs {
		if !used[id] {
			unselected = append(unselected, id)
		}
	}

	assumptions := []string{
		"Travel times use distance bucket heuristics when routing is unavailable",
		fmt.Sprintf("POIs selected based on interests: %s pace", input.Pace),
		fmt.Sprintf("%d day(s) with max %g hours per day", input.Days, input.DailyHourLimit),
	}

	span.SetStatus(codes.Ok, "Itinerary built")
	l.InfoContext(ctx, "Itinerary built",
		slog.Int("days", len(days)),
		slog.Int("unselected", len(unselected)))

	return types.BuildResult{
		Itinerary: types.Itinerary{
			City: input.City,
			Days: days,
			Meta: types.ItineraryMeta{
				Assumptions:      assumptions,
				UnselectedPOIIDs: unselected,
			},
		},
		UnselectedPOIIDs: unselected,
		Assumptions:      assumptions,
	}
}

// rankCandidates re-sorts ids by confidence desc, id asc. The POI
// service already emits this order, but construction must not depend
// on callers preserving it.
func rankCandidates(ids []string, catalog map[string]types.POI) []string {
	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, okA := catalog[sorted[i]]
		b, okB := catalog[sorted[j]]
		if !okA || !okB {
			return sorted[i] < sorted[j]
		}
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		return sorted[i] < sorted[j]
	})
	return sorted
}

func filterByType(ids []string, catalog map[string]types.POI, typeSet map[string]bool) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if poi, ok := catalog[id]; ok && typeSet[poi.Type] {
			out = append(out, id)
		}
	}
	return out
}

// slotTemplate is fixed by pace alone: relaxed days skip the
// Afternoon slot, every other pace gets all three.
func slotTemplate(pace types.Pace) []types.TimeOfDay {
	if pace == types.PaceRelaxed {
		return []types.TimeOfDay{types.Morning, types.Evening}
	}
	return []types.TimeOfDay{types.Morning, types.Afternoon, types.Evening}
}

// pickPOI returns the next unused POI id for a slot, or "" to leave the
// slot free. Evenings never backfill from the non-food pool.
func pickPOI(timeOfDay types.TimeOfDay, sorted, culture, food []string, used map[string]bool) string {
	if timeOfDay == types.Evening {
		return firstUnused(food, used)
	}
	if id := firstUnused(culture, used); id != "" {
		return id
	}
	return firstUnused(sorted, used)
}

func firstUnused(ids []string, used map[string]bool) string {
	for _, id := range ids {
		if !used[id] {
			return id
		}
	}
	return ""
}

// estimateTravel prefers a routed leg between consecutive POIs of the
// same day, falling back to fixed minute buckets. Routing failure never
// blocks construction.
func (s *ServiceImpl) estimateTravel(ctx context.Context, prev, cur *types.POI, slotIdx int) types.TravelEstimate {
	minutes := laterGapMinutes
	if slotIdx == 0 {
		minutes = firstGapMinutes
	}
	est := types.TravelEstimate{
		Mode:    travelMode,
		Minutes: minutes,
		Method:  types.TravelMethodHeuristic,
	}

	if prev == nil || cur == nil || s.routing == nil {
		return est
	}
	routed := s.routing.Route(ctx, prev.Location, cur.Location)
	if routed == nil {
		return est
	}
	return types.TravelEstimate{
		Mode:    travelMode,
		Minutes: routed.DurationMinutes,
		Method:  types.TravelMethodRouted,
	}
}

func buildBlock(timeOfDay types.TimeOfDay, id string, poi *types.POI, travel types.TravelEstimate) types.ItineraryBlock {
	if poi == nil {
		title := fmt.Sprintf("%s activity", timeOfDay)
		duration := defaultBlockHours
		if timeOfDay == types.Evening {
			title = "Free time / Rest"
			duration = eveningFreeHours
		}
		return types.ItineraryBlock{
			TimeOfDay:      timeOfDay,
			Title:          title,
			DurationHours:  duration,
			TravelFromPrev: travel,
			Notes:          []string{"Rest and relaxation"},
		}
	}

	notes := []string{fmt.Sprintf("%s - %s", poi.Name, poi.Type)}
	if category, ok := poi.Tags["cuisine"]; ok && category != "" {
		notes = append(notes, fmt.Sprintf("Category: %s", category))
	}
	return types.ItineraryBlock{
		TimeOfDay:      timeOfDay,
		POIID:          id,
		Title:          poi.Name,
		DurationHours:  poi.TypicalDurationHours,
		TravelFromPrev: travel,
		Notes:          notes,
	}
}

func roundHours(h float64) float64 {
	return math.Round(h*100) / 100
}

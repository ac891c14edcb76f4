// Package poi produces a deduplicated, confidence-ranked candidate list
// for a city, with a curated seed fallback when the geographic provider
// fails or returns nothing usable.
package poi

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-voice-travel-planner/internal/types"
)

const providerConfidence = 0.85

// Ensure implementation satisfies the interface
var _ Service = (*ServiceImpl)(nil)

// Service searches candidate POIs within a bounding box.
type Service interface {
	Search(ctx context.Context, input types.POISearchInput, bbox [4]float64) types.POISearchResult
}

type ServiceImpl struct {
	logger   *slog.Logger
	provider Provider
}

func NewService(provider Provider, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{logger: logger, provider: provider}
}

// Search queries the provider and normalizes, filters, and ranks the
// results. Provider errors and empty result sets degrade to the seed
// catalog with an explicit reason; the search itself never fails.
func (s *ServiceImpl) Search(ctx context.Context, input types.POISearchInput, bbox [4]float64) types.POISearchResult {
	ctx, span := otel.Tracer("POI").Start(ctx, "Search", trace.WithAttributes(
		attribute.String("city", input.City),
		attribute.Int("max_candidates", input.MaxCandidates),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Search"), slog.String("city", input.City))

	elements, err := s.provider.Query(ctx, bbox)
	if err != nil {
		l.WarnContext(ctx, "POI provider failed, using seed fallback", slog.Any("error", err))
		span.RecordError(err)
		return s.fallback(input, fmt.Sprintf("provider error: %v", err))
	}
	if len(elements) == 0 {
		l.WarnContext(ctx, "POI provider returned no elements, using seed fallback")
		return s.fallback(input, "provider returned no elements")
	}

	pois := normalize(elements)
	sortCandidates(pois)
	if input.MaxCandidates > 0 && len(pois) > input.MaxCandidates {
		pois = pois[:input.MaxCandidates]
	}

	if len(pois) == 0 {
		return s.fallback(input, "no usable candidates after filtering")
	}

	// Defensive check against data corruption: every survivor must be
	// distinguishable as provider-sourced.
	allNonProvider := true
	for _, p := range pois {
		if p.Source == types.POISourceOSM {
			allNonProvider = false
			break
		}
	}
	if allNonProvider {
		return s.fallback(input, "sanity check: no provider-sourced POIs found")
	}

	l.InfoContext(ctx, "POI search completed", slog.Int("count", len(pois)))
	span.SetStatus(codes.Ok, "Search completed")
	return types.POISearchResult{City: input.City, POIs: pois}
}

func (s *ServiceImpl) fallback(input types.POISearchInput, reason string) types.POISearchResult {
	return types.POISearchResult{
		City:           input.City,
		POIs:           seedCatalog(input.MaxCandidates),
		FallbackUsed:   true,
		FallbackReason: reason,
	}
}

// normalize maps raw elements onto the POI model, dropping entries
// without coordinates, unnamed entries, and unnamed fast-food stalls.
func normalize(elements []RawElement) []types.POI {
	out := make([]types.POI, 0, len(elements))
	for _, el := range elements {
		lat, lon, ok := coordinates(el)
		if !ok {
			continue
		}

		name := el.Tags["name:en"]
		if name == "" {
			name = el.Tags["name"]
		}
		if strings.TrimSpace(name) == "" || strings.EqualFold(strings.TrimSpace(name), "unnamed") {
			continue
		}

		poiType := DeriveType(el.Tags)
		out = append(out, types.POI{
			ID:                   fmt.Sprintf("osm:%s:%d", el.Type, el.ID),
			Name:                 name,
			Type:                 poiType,
			Tags:                 el.Tags,
			Location:             types.Coordinate{Lat: lat, Lon: lon},
			TypicalDurationHours: EstimateDuration(el.Tags),
			Confidence:           providerConfidence,
			Source:               types.POISourceOSM,
		})
	}
	return dedupeByID(out)
}

func coordinates(el RawElement) (float64, float64, bool) {
	if el.Lat != nil && el.Lon != nil {
		return *el.Lat, *el.Lon, true
	}
	if el.Center != nil {
		return el.Center.Lat, el.Center.Lon, true
	}
	return 0, 0, false
}

func dedupeByID(pois []types.POI) []types.POI {
	seen := make(map[string]struct{}, len(pois))
	out := pois[:0]
	for _, p := range pois {
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out
}

// sortCandidates orders by descending confidence, ties broken by
// ascending id. The ordering is stable and reproducible for identical
// inputs, which the construction engine's determinism depends on.
func sortCandidates(pois []types.POI) {
	sort.Slice(pois, func(i, j int) bool {
		if pois[i].Confidence != pois[j].Confidence {
			return pois[i].Confidence > pois[j].Confidence
		}
		return pois[i].ID < pois[j].ID
	})
}

// DeriveType maps raw classification tags to a coarse POI type with
// fixed precedence: tourism over amenity over historic.
func DeriveType(tags map[string]string) string {
	if tourism := tags["tourism"]; tourism != "" {
		switch {
		case strings.Contains(tourism, "museum"):
			return "museum"
		case strings.Contains(tourism, "viewpoint"):
			return "viewpoint"
		default:
			return "attraction"
		}
	}
	if amenity := tags["amenity"]; amenity != "" {
		switch {
		case strings.Contains(amenity, "restaurant"):
			return "restaurant"
		case strings.Contains(amenity, "cafe"):
			return "cafe"
		case strings.Contains(amenity, "fast_food"):
			return "fast_food"
		case amenity == "place_of_worship":
			return "place_of_worship"
		}
	}
	if tags["historic"] != "" {
		return "historic"
	}
	return "poi"
}

// durationByTag is the fixed visit-duration lookup, in hours.
var durationByTag = []struct {
	key, value string
	hours      float64
}{
	{"tourism", "museum", 1.5},
	{"tourism", "viewpoint", 0.75},
	{"tourism", "attraction", 1.5},
	{"amenity", "restaurant", 1.5},
	{"amenity", "cafe", 1.0},
	{"amenity", "fast_food", 0.75},
	{"amenity", "place_of_worship", 1.0},
}

// EstimateDuration returns the typical visit duration for an element's
// tags, defaulting to 1h (1.5h for anything historic).
func EstimateDuration(tags map[string]string) float64 {
	for _, row := range durationByTag {
		if tags[row.key] == row.value {
			return row.hours
		}
	}
	if tags["historic"] != "" {
		return 1.5
	}
	return 1.0
}

// Package constraints merges model-extracted and deterministic signals
// into one normalized, geocode-validated Constraints object.
package constraints

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/go-voice-travel-planner/internal/api/extract"
	generativeAI "github.com/FACorreiaa/go-voice-travel-planner/internal/api/generative_ai"
	"github.com/FACorreiaa/go-voice-travel-planner/internal/api/geocode"
	"github.com/FACorreiaa/go-voice-travel-planner/internal/types"
)

const (
	defaultMaxDailyHours = 6
	maxInterests         = 5
)

var (
	// ErrMissingCity means no city could be extracted from the utterance.
	ErrMissingCity = errors.New("city could not be extracted from utterance")
	// ErrCityNotFound means the extracted city failed geocode validation.
	// An itinerary is never built for a geographically unresolved city.
	ErrCityNotFound = errors.New("city not found by geocoding")
)

var defaultInterests = []string{"culture", "food"}

// Ensure implementation satisfies the interface
var _ Service = (*ServiceImpl)(nil)

// Service resolves an utterance into fully populated constraints.
type Service interface {
	Resolve(ctx context.Context, utterance string) (*types.Constraints, types.ExtractedConstraints, error)
}

type ServiceImpl struct {
	logger  *slog.Logger
	ai      generativeAI.Generator
	geocode geocode.Service
}

func NewService(ai generativeAI.Generator, geocodeSvc geocode.Service, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{logger: logger, ai: ai, geocode: geocodeSvc}
}

// Resolve runs the deterministic city extractor first (it beats any
// model-extracted city: cheap, auditable, immune to hallucination), then
// merges model output with deterministic fallbacks and fixed defaults,
// and finally gates the result on geocode validation.
func (s *ServiceImpl) Resolve(ctx context.Context, utterance string) (*types.Constraints, types.ExtractedConstraints, error) {
	ctx, span := otel.Tracer("Constraints").Start(ctx, "Resolve")
	defer span.End()

	l := s.logger.With(slog.String("method", "Resolve"))

	extracted := s.extractWithModel(ctx, utterance)

	city := extract.City(utterance)
	if city != "" {
		l.DebugContext(ctx, "Deterministic city extraction takes priority", slog.String("city", city))
	} else {
		city = extracted.City
	}
	if city == "" {
		span.SetStatus(codes.Error, "No city extracted")
		return nil, extracted, ErrMissingCity
	}

	geo, err := s.geocode.Validate(ctx, city)
	if err != nil {
		span.RecordError(err)
		return nil, extracted, fmt.Errorf("geocode validation failed for %q: %w", city, err)
	}
	if geo == nil {
		span.SetStatus(codes.Error, "City failed geocode validation")
		return nil, extracted, fmt.Errorf("%w: %s", ErrCityNotFound, city)
	}

	numDays := extracted.NumDays
	if numDays == 0 {
		numDays = extract.Days(utterance)
	}
	if numDays == 0 {
		numDays = extract.DefaultDays
	}
	numDays = extract.ClampDays(numDays)

	pace := types.NormalizePace(extracted.Pace)
	if extracted.Pace == "" {
		pace = extract.Pace(utterance)
	}

	interests := extracted.Interests
	if len(interests) == 0 {
		interests = extract.Interests(utterance)
	}
	if len(interests) == 0 {
		interests = defaultInterests
	}
	if len(interests) > maxInterests {
		interests = interests[:maxInterests]
	}

	maxDailyHours := extracted.MaxDailyHours
	if maxDailyHours < 1 || maxDailyHours > 12 {
		maxDailyHours = defaultMaxDailyHours
	}

	resolved := &types.Constraints{
		City:          geo.ResolvedCity,
		ResolvedCity:  geo.ResolvedCity,
		Latitude:      geo.Lat,
		Longitude:     geo.Lon,
		NumDays:       numDays,
		Pace:          pace,
		Interests:     interests,
		MaxDailyHours: maxDailyHours,
		Notes:         []string{utterance},
	}

	l.InfoContext(ctx, "Constraints resolved",
		slog.String("city", resolved.City),
		slog.Int("num_days", resolved.NumDays),
		slog.String("pace", string(resolved.Pace)),
	)
	span.SetStatus(codes.Ok, "Constraints resolved")
	return resolved, extracted, nil
}

// extractWithModel asks the model for partial constraints; any failure
// degrades to the deterministic extractors.
func (s *ServiceImpl) extractWithModel(ctx context.Context, utterance string) types.ExtractedConstraints {
	utteranceJSON, _ := json.Marshal(utterance)
	prompt := fmt.Sprintf(`Extract travel constraints.
Return ONLY JSON: {"city": "...", "pace": "relaxed|moderate|packed", "interests": [...], "max_daily_hours": number, "num_days": number}
Omit any field the transcript does not state.
Transcript: %s`, utteranceJSON)

	var extracted types.ExtractedConstraints
	if err := generativeAI.GenerateJSON(ctx, s.ai, prompt, &extracted); err != nil {
		s.logger.WarnContext(ctx, "Model constraint extraction failed, using deterministic extractors",
			slog.Any("error", err))
		return fallbackConstraints(utterance)
	}
	if extracted.Pace != "" && !types.ValidPace(types.NormalizePace(extracted.Pace)) {
		extracted.Pace = ""
	}
	return extracted
}

func fallbackConstraints(utterance string) types.ExtractedConstraints {
	return types.ExtractedConstraints{
		City:      extract.City(utterance),
		NumDays:   extract.Days(utterance),
		Pace:      string(extract.Pace(utterance)),
		Interests: extract.Interests(utterance),
	}
}

// Package weather turns an Open-Meteo forecast into a single packing
// tip. The threshold sentences are fixed so the tip is reproducible
// for a given forecast; any failure yields no tips rather than an
// error.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/go-voice-travel-planner/internal/types"
)

const (
	defaultGeocodeURL  = "https://geocoding-api.open-meteo.com/v1/search"
	defaultForecastURL = "https://api.open-meteo.com/v1/forecast"
	requestTimeout     = 5 * time.Second

	coldBelowC     = 15
	moderateBelowC = 25
	heavyRainPct   = 50
	someRainPct    = 20
)

// Ensure implementation satisfies the interface
var _ Service = (*ServiceImpl)(nil)

// Service produces a forecast-based tip for the trip window. An empty
// slice means the forecast was unavailable; callers treat that as
// "no weather advice", not an error.
type Service interface {
	Tips(ctx context.Context, city string, numDays int) []types.Tip
}

type ServiceImpl struct {
	logger      *slog.Logger
	client      *http.Client
	geocodeURL  string
	forecastURL string
}

func NewService(geocodeURL, forecastURL string, logger *slog.Logger) *ServiceImpl {
	if geocodeURL == "" {
		geocodeURL = defaultGeocodeURL
	}
	if forecastURL == "" {
		forecastURL = defaultForecastURL
	}
	return &ServiceImpl{
		logger:      logger,
		client:      &http.Client{Timeout: requestTimeout},
		geocodeURL:  geocodeURL,
		forecastURL: forecastURL,
	}
}

func (s *ServiceImpl) Tips(ctx context.Context, city string, numDays int) []types.Tip {
	ctx, span := otel.Tracer("WeatherService").Start(ctx, "Tips")
	defer span.End()
	span.SetAttributes(attribute.String("city", city), attribute.Int("days", numDays))

	l := s.logger.With(slog.String("method", "Tips"), slog.String("city", city))

	lat, lon, tz, err := s.lookupCity(ctx, city)
	if err != nil {
		l.WarnContext(ctx, "Weather geocoding failed", slog.Any("error", err))
		span.SetStatus(codes.Ok, "No weather tip")
		return nil
	}

	maxTemps, precip, err := s.fetchForecast(ctx, lat, lon, tz, numDays)
	if err != nil {
		l.WarnContext(ctx, "Forecast fetch failed", slog.Any("error", err))
		span.SetStatus(codes.Ok, "No weather tip")
		return nil
	}

	avgTemp := roundAvg(maxTemps)
	avgPrecip := 0
	if len(precip) > 0 {
		avgPrecip = roundAvg(precip)
	}

	claim := buildClaim(avgTemp, avgPrecip)
	span.SetStatus(codes.Ok, "Weather tip generated")
	return []types.Tip{{
		ID:    "tip_weather_1",
		Claim: claim,
		Citations: []types.Citation{{
			Source:  types.SourceWeather,
			Ref:     "open-meteo",
			Anchor:  "Forecast",
			Snippet: claim,
		}},
		Confidence:      "medium",
		IsGeneralAdvice: false,
	}}
}

func (s *ServiceImpl) lookupCity(ctx context.Context, city string) (lat, lon float64, tz string, err error) {
	params := url.Values{}
	params.Set("name", city)
	params.Set("count", "1")
	params.Set("language", "en")
	params.Set("format", "json")

	var payload struct {
		Results []struct {
			Latitude  *float64 `json:"latitude"`
			Longitude *float64 `json:"longitude"`
			Timezone  string   `json:"timezone"`
		} `json:"results"`
	}
	if err := s.getJSON(ctx, s.geocodeURL+"?"+params.Encode(), &payload); err != nil {
		return 0, 0, "", err
	}
	if len(payload.Results) == 0 {
		return 0, 0, "", fmt.Errorf("no geocoding results for %q", city)
	}
	r := payload.Results[0]
	if r.Latitude == nil || r.Longitude == nil {
		return 0, 0, "", fmt.Errorf("geocoding result missing coordinates")
	}
	return *r.Latitude, *r.Longitude, r.Timezone, nil
}

func (s *ServiceImpl) fetchForecast(ctx context.Context, lat, lon float64, tz string, numDays int) (maxTemps, precip []float64, err error) {
	params := url.Values{}
	params.Set("latitude", fmt.Sprintf("%f", lat))
	params.Set("longitude", fmt.Sprintf("%f", lon))
	if tz != "" {
		params.Set("timezone", tz)
	}
	params.Set("daily", "temperature_2m_max,temperature_2m_min,precipitation_probability_max")
	params.Set("forecast_days", fmt.Sprintf("%d", numDays))

	var payload struct {
		Daily struct {
			TemperatureMax []float64 `json:"temperature_2m_max"`
			PrecipProbMax  []float64 `json:"precipitation_probability_max"`
		} `json:"daily"`
	}
	if err := s.getJSON(ctx, s.forecastURL+"?"+params.Encode(), &payload); err != nil {
		return nil, nil, err
	}
	if len(payload.Daily.TemperatureMax) == 0 {
		return nil, nil, fmt.Errorf("forecast missing temperature data")
	}
	return payload.Daily.TemperatureMax, payload.Daily.PrecipProbMax, nil
}

func (s *ServiceImpl) getJSON(ctx context.Context, fullURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("weather provider returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// buildClaim assembles the temperature sentence plus an optional rain
// sentence from fixed thresholds.
func buildClaim(avgTemp, avgPrecip int) string {
	var parts []string
	switch {
	case avgTemp < coldBelowC:
		parts = append(parts, fmt.Sprintf("Expect cold weather with temperatures around %d°C; bring layers and warm clothing.", avgTemp))
	case avgTemp < moderateBelowC:
		parts = append(parts, fmt.Sprintf("Moderate temperatures around %d°C; comfortable for outdoor activities.", avgTemp))
	default:
		parts = append(parts, fmt.Sprintf("Hot weather with temperatures reaching %d°C; stay hydrated and use sun protection.", avgTemp))
	}

	switch {
	case avgPrecip > heavyRainPct:
		parts = append(parts, fmt.Sprintf("High chance of rain (%d%%); carry an umbrella or waterproof jacket.", avgPrecip))
	case avgPrecip > someRainPct:
		parts = append(parts, fmt.Sprintf("Some rain possible (%d%%); consider packing a light rain cover.", avgPrecip))
	}
	return strings.Join(parts, " ")
}

func roundAvg(values []float64) int {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return int(math.Round(sum / float64(len(values))))
}

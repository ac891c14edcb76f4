// Package geocode resolves and validates city names against Nominatim.
// Results (including misses) are cached in-process by normalized city
// name; the cache lifecycle is owned by the service and the eviction
// policy is pluggable via the cache TTL (never-evict by default).
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultBaseURL = "https://nominatim.openstreetmap.org"
	requestTimeout = 5 * time.Second
	userAgent      = "go-voice-travel-planner/1.0"
)

// Result is a geocode-validated city.
type Result struct {
	ResolvedCity string
	Lat          float64
	Lon          float64
	BoundingBox  [4]float64
}

// Ensure implementation satisfies the interface
var _ Service = (*ServiceImpl)(nil)

// Service validates that a city exists within the configured country
// scope. A (nil, nil) return means "not found", not a transport error.
type Service interface {
	Validate(ctx context.Context, cityName string) (*Result, error)
}

type ServiceImpl struct {
	logger      *slog.Logger
	client      *http.Client
	baseURL     string
	countryCode string
	cache       *cache.Cache
}

// NewService builds a Nominatim-backed geocode service. countryCode
// scopes lookups (e.g. "in"); empty means worldwide.
func NewService(baseURL, countryCode string, logger *slog.Logger) *ServiceImpl {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &ServiceImpl{
		logger:      logger,
		client:      &http.Client{Timeout: requestTimeout},
		baseURL:     strings.TrimRight(baseURL, "/"),
		countryCode: countryCode,
		cache:       cache.New(cache.NoExpiration, cache.NoExpiration),
	}
}

type nominatimResult struct {
	DisplayName string   `json:"display_name"`
	Lat         string   `json:"lat"`
	Lon         string   `json:"lon"`
	BoundingBox []string `json:"boundingbox"`
}

// Validate resolves cityName or reports that it does not exist in scope.
// Lookups and misses are cached for the process lifetime.
func (s *ServiceImpl) Validate(ctx context.Context, cityName string) (*Result, error) {
	ctx, span := otel.Tracer("Geocode").Start(ctx, "Validate", trace.WithAttributes(
		attribute.String("city", cityName),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Validate"), slog.String("city", cityName))

	cityName = strings.TrimSpace(cityName)
	if cityName == "" {
		return nil, nil
	}

	cacheKey := strings.ToLower(cityName)
	if cached, found := s.cache.Get(cacheKey); found {
		span.SetStatus(codes.Ok, "Cache hit")
		if cached == nil {
			return nil, nil
		}
		return cached.(*Result), nil
	}

	q := url.Values{}
	q.Set("format", "json")
	q.Set("q", cityName)
	q.Set("limit", "1")
	if s.countryCode != "" {
		q.Set("countrycodes", s.countryCode)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to build geocode request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Geocode request failed")
		return nil, fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("geocode provider returned HTTP %d", resp.StatusCode)
		span.RecordError(err)
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read geocode response: %w", err)
	}

	var results []nominatimResult
	if err := json.Unmarshal(body, &results); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to parse geocode response: %w", err)
	}

	if len(results) == 0 {
		l.WarnContext(ctx, "City not found in scope")
		s.cache.Set(cacheKey, nil, cache.NoExpiration)
		span.SetStatus(codes.Ok, "City not found")
		return nil, nil
	}

	result, err := toResult(results[0])
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	l.InfoContext(ctx, "City validated",
		slog.String("resolved", result.ResolvedCity),
		slog.Float64("lat", result.Lat),
		slog.Float64("lon", result.Lon),
	)
	s.cache.Set(cacheKey, result, cache.NoExpiration)
	span.SetStatus(codes.Ok, "City validated")
	return result, nil
}

func toResult(raw nominatimResult) (*Result, error) {
	lat, err := strconv.ParseFloat(raw.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude %q: %w", raw.Lat, err)
	}
	lon, err := strconv.ParseFloat(raw.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude %q: %w", raw.Lon, err)
	}

	result := &Result{
		ResolvedCity: strings.TrimSpace(strings.SplitN(raw.DisplayName, ",", 2)[0]),
		Lat:          lat,
		Lon:          lon,
	}
	for i, v := range raw.BoundingBox {
		if i >= 4 {
			break
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid bounding box value %q: %w", v, err)
		}
		result.BoundingBox[i] = f
	}
	return result, nil
}

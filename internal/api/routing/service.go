// Package routing wraps the OSRM public routing API. Failures are
// reported as a nil estimate, never an error the caller must handle:
// itinerary construction degrades to heuristic buckets instead.
package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/FACorreiaa/go-voice-travel-planner/internal/types"
)

const (
	defaultBaseURL = "https://router.project-osrm.org"
	requestTimeout = 5 * time.Second
)

// Estimate is one routed leg between two coordinates.
type Estimate struct {
	DurationMinutes int
	DistanceKm      float64
}

// Ensure implementation satisfies the interface
var _ Service = (*ServiceImpl)(nil)

// Service estimates travel between two points. A nil return means the
// route could not be obtained within the timeout.
type Service interface {
	Route(ctx context.Context, from, to types.Coordinate) *Estimate
}

type ServiceImpl struct {
	logger  *slog.Logger
	client  *http.Client
	baseURL string
}

func NewService(baseURL string, logger *slog.Logger) *ServiceImpl {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &ServiceImpl{
		logger:  logger,
		client:  &http.Client{Timeout: requestTimeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Route looks up a car route. OSRM takes lon,lat order.
func (s *ServiceImpl) Route(ctx context.Context, from, to types.Coordinate) *Estimate {
	l := s.logger.With(slog.String("method", "Route"))

	url := fmt.Sprintf("%s/route/v1/car/%f,%f;%f,%f?overview=false",
		s.baseURL, from.Lon, from.Lat, to.Lon, to.Lat)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		l.WarnContext(ctx, "Failed to build routing request", slog.Any("error", err))
		return nil
	}

	resp, err := s.client.Do(req)
	if err != nil {
		l.WarnContext(ctx, "Routing request failed", slog.Any("error", err))
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		l.WarnContext(ctx, "Routing provider returned non-OK status", slog.Int("status", resp.StatusCode))
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		l.WarnContext(ctx, "Failed to read routing response", slog.Any("error", err))
		return nil
	}

	var payload struct {
		Routes []struct {
			Duration *float64 `json:"duration"` // seconds
			Distance *float64 `json:"distance"` // meters
		} `json:"routes"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		l.WarnContext(ctx, "Failed to parse routing response", slog.Any("error", err))
		return nil
	}
	if len(payload.Routes) == 0 {
		l.WarnContext(ctx, "No routes found")
		return nil
	}
	route := payload.Routes[0]
	if route.Duration == nil || route.Distance == nil {
		l.WarnContext(ctx, "Routing response missing duration or distance")
		return nil
	}

	return &Estimate{
		DurationMinutes: int(math.Round(*route.Duration / 60)),
		DistanceKm:      math.Round(*route.Distance/1000*100) / 100,
	}
}

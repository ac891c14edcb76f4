package poi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultOverpassURL = "https://overpass-api.de/api/interpreter"
	overpassTimeout    = 8 * time.Second
	overpassLimit      = 500
)

// RawElement is one tagged element from the geographic data provider.
// Nodes carry direct coordinates; ways/relations carry a center point.
type RawElement struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    *float64          `json:"lat,omitempty"`
	Lon    *float64          `json:"lon,omitempty"`
	Center *struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"center,omitempty"`
	Tags map[string]string `json:"tags,omitempty"`
}

// Provider queries tagged elements within a bounding box
// (south, north, west, east, Nominatim order).
type Provider interface {
	Query(ctx context.Context, bbox [4]float64) ([]RawElement, error)
}

// OverpassProvider talks to an Overpass API endpoint.
type OverpassProvider struct {
	client  *http.Client
	baseURL string
}

var _ Provider = (*OverpassProvider)(nil)

func NewOverpassProvider(baseURL string) *OverpassProvider {
	if baseURL == "" {
		baseURL = defaultOverpassURL
	}
	return &OverpassProvider{
		client:  &http.Client{Timeout: overpassTimeout},
		baseURL: baseURL,
	}
}

func (p *OverpassProvider) Query(ctx context.Context, bbox [4]float64) ([]RawElement, error) {
	query := buildOverpassQuery(bbox)

	form := url.Values{}
	form.Set("data", query)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build Overpass request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=UTF-8")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Overpass request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("Overpass returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read Overpass response: %w", err)
	}

	var payload struct {
		Elements []RawElement `json:"elements"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse Overpass JSON: %w", err)
	}
	return payload.Elements, nil
}

// buildOverpassQuery requests tourism attractions, eateries and places
// of worship within the box. Overpass wants south,west,north,east.
func buildOverpassQuery(bbox [4]float64) string {
	box := fmt.Sprintf("%f,%f,%f,%f", bbox[0], bbox[2], bbox[1], bbox[3])
	var b strings.Builder
	b.WriteString("[out:json];(")
	for _, kind := range []string{"node", "way", "relation"} {
		fmt.Fprintf(&b, `%s["tourism"~"attraction|museum|viewpoint"](%s);`, kind, box)
		fmt.Fprintf(&b, `%s["amenity"~"restaurant|cafe|fast_food"](%s);`, kind, box)
		fmt.Fprintf(&b, `%s["amenity"="place_of_worship"](%s);`, kind, box)
	}
	fmt.Fprintf(&b, ");out tags center %d;", overpassLimit)
	return b.String()
}

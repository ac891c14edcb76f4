package constraints

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-voice-travel-planner/internal/api/geocode"
	"github.com/FACorreiaa/go-voice-travel-planner/internal/types"
)

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) GenerateResponse(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

type MockGeocode struct {
	mock.Mock
}

func (m *MockGeocode) Validate(ctx context.Context, cityName string) (*geocode.Result, error) {
	args := m.Called(ctx, cityName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*geocode.Result), args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func jaipurGeo() *geocode.Result {
	return &geocode.Result{ResolvedCity: "Jaipur", Lat: 26.9124, Lon: 75.7873}
}

func TestResolve_ModelDownStillResolvesDeterministically(t *testing.T) {
	g := new(MockGenerator)
	g.On("GenerateResponse", mock.Anything, mock.Anything).Return("", errors.New("down"))
	geo := new(MockGeocode)
	geo.On("Validate", mock.Anything, "Jaipur").Return(jaipurGeo(), nil)

	svc := NewService(g, geo, discardLogger())
	resolved, _, err := svc.Resolve(context.Background(), "Plan a trip to Jaipur for 3 days focusing on culture and food")
	require.NoError(t, err)

	assert.Equal(t, "Jaipur", resolved.City)
	assert.Equal(t, 3, resolved.NumDays)
	assert.Subset(t, resolved.Interests, []string{"culture", "food"})
	assert.Equal(t, types.PaceNormal, resolved.Pace)
	assert.InDelta(t, 6.0, resolved.MaxDailyHours, 0.001)
}

func TestResolve_DeterministicCityBeatsModelCity(t *testing.T) {
	g := new(MockGenerator)
	g.On("GenerateResponse", mock.Anything, mock.Anything).
		Return(`{"city":"Hallucinated Town","pace":"moderate","num_days":3}`, nil)
	geo := new(MockGeocode)
	geo.On("Validate", mock.Anything, "Jaipur").Return(jaipurGeo(), nil)

	svc := NewService(g, geo, discardLogger())
	resolved, _, err := svc.Resolve(context.Background(), "trip to Jaipur for 3 days")
	require.NoError(t, err)
	assert.Equal(t, "Jaipur", resolved.City)
	geo.AssertCalled(t, "Validate", mock.Anything, "Jaipur")
}

func TestResolve_ModeratePaceNormalizesToNormal(t *testing.T) {
	g := new(MockGenerator)
	g.On("GenerateResponse", mock.Anything, mock.Anything).
		Return(`{"pace":"moderate","num_days":4}`, nil)
	geo := new(MockGeocode)
	geo.On("Validate", mock.Anything, "Kochi").Return(&geocode.Result{ResolvedCity: "Kochi", Lat: 9.93, Lon: 76.26}, nil)

	svc := NewService(g, geo, discardLogger())
	resolved, _, err := svc.Resolve(context.Background(), "4 days in Kochi")
	require.NoError(t, err)
	assert.Equal(t, types.PaceNormal, resolved.Pace)
	assert.Equal(t, 4, resolved.NumDays)
}

func TestResolve_DayCountAlwaysClamped(t *testing.T) {
	tests := []struct {
		name      string
		modelJSON string
		utterance string
		want      int
	}{
		{"model above max", `{"num_days":9}`, "trip to Jaipur", 5},
		{"utterance above max", `{}`, "10 days in Jaipur", 5},
		{"utterance below min", `{}`, "1 day in Jaipur", 3},
		{"spelled out", `{}`, "two days in Jaipur", 2},
		{"absent defaults", `{}`, "trip to Jaipur", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := new(MockGenerator)
			g.On("GenerateResponse", mock.Anything, mock.Anything).Return(tt.modelJSON, nil)
			geo := new(MockGeocode)
			geo.On("Validate", mock.Anything, "Jaipur").Return(jaipurGeo(), nil)

			svc := NewService(g, geo, discardLogger())
			resolved, _, err := svc.Resolve(context.Background(), tt.utterance)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resolved.NumDays)
		})
	}
}

func TestResolve_MissingCityIsError(t *testing.T) {
	g := new(MockGenerator)
	g.On("GenerateResponse", mock.Anything, mock.Anything).Return(`{}`, nil)
	geo := new(MockGeocode)

	svc := NewService(g, geo, discardLogger())
	_, _, err := svc.Resolve(context.Background(), "make something fun happen")
	assert.ErrorIs(t, err, ErrMissingCity)
}

func TestResolve_UnresolvedCityIsErrorNeverDefaulted(t *testing.T) {
	g := new(MockGenerator)
	g.On("GenerateResponse", mock.Anything, mock.Anything).Return(`{}`, nil)
	geo := new(MockGeocode)
	geo.On("Validate", mock.Anything, "Atlantis").Return(nil, nil)

	svc := NewService(g, geo, discardLogger())
	_, _, err := svc.Resolve(context.Background(), "trip to Atlantis")
	assert.ErrorIs(t, err, ErrCityNotFound)
}

package planner

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-voice-travel-planner/internal/api/constraints"
	"github.com/FACorreiaa/go-voice-travel-planner/internal/api/edit"
	"github.com/FACorreiaa/go-voice-travel-planner/internal/api/explain"
	"github.com/FACorreiaa/go-voice-travel-planner/internal/api/geocode"
	"github.com/FACorreiaa/go-voice-travel-planner/internal/api/itinerary"
	"github.com/FACorreiaa/go-voice-travel-planner/internal/api/session"
	"github.com/FACorreiaa/go-voice-travel-planner/internal/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

type MockIntent struct{ mock.Mock }

func (m *MockIntent) Classify(ctx context.Context, utterance string, hasItinerary bool) types.IntentResult {
	args := m.Called(ctx, utterance, hasItinerary)
	return args.Get(0).(types.IntentResult)
}

func (m *MockIntent) ResolveForEndpoint(ctx context.Context, utterance string, endpoint types.Intent, hasItinerary bool) types.IntentResult {
	args := m.Called(ctx, utterance, endpoint, hasItinerary)
	return args.Get(0).(types.IntentResult)
}

type MockConstraints struct{ mock.Mock }

func (m *MockConstraints) Resolve(ctx context.Context, utterance string) (*types.Constraints, types.ExtractedConstraints, error) {
	args := m.Called(ctx, utterance)
	var c *types.Constraints
	if args.Get(0) != nil {
		c = args.Get(0).(*types.Constraints)
	}
	return c, args.Get(1).(types.ExtractedConstraints), args.Error(2)
}

type MockGeocode struct{ mock.Mock }

func (m *MockGeocode) Validate(ctx context.Context, cityName string) (*geocode.Result, error) {
	args := m.Called(ctx, cityName)
	var r *geocode.Result
	if args.Get(0) != nil {
		r = args.Get(0).(*geocode.Result)
	}
	return r, args.Error(1)
}

type MockPOI struct{ mock.Mock }

func (m *MockPOI) Search(ctx context.Context, input types.POISearchInput, bbox [4]float64) types.POISearchResult {
	args := m.Called(ctx, input, bbox)
	return args.Get(0).(types.POISearchResult)
}

type MockWiki struct{ mock.Mock }

func (m *MockWiki) Tips(ctx context.Context, city string, interests []string) []types.Tip {
	args := m.Called(ctx, city, interests)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]types.Tip)
}

type MockWeather struct{ mock.Mock }

func (m *MockWeather) Tips(ctx context.Context, city string, numDays int) []types.Tip {
	args := m.Called(ctx, city, numDays)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]types.Tip)
}

type MockGenerator struct{ mock.Mock }

func (m *MockGenerator) GenerateResponse(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func jaipurConstraints() *types.Constraints {
	return &types.Constraints{
		City:          "Jaipur",
		ResolvedCity:  "Jaipur",
		Latitude:      26.92,
		Longitude:     75.85,
		NumDays:       3,
		Pace:          types.PaceNormal,
		Interests:     []string{"culture", "food"},
		MaxDailyHours: 6,
	}
}

func jaipurPOIs() types.POISearchResult {
	return types.POISearchResult{
		City: "Jaipur",
		POIs: []types.POI{
			{ID: "osm:node:1", Name: "Amber Fort", Type: "attraction", Confidence: 0.95, TypicalDurationHours: 2.5, Source: types.POISourceOSM},
			{ID: "osm:node:2", Name: "City Palace", Type: "historic", Confidence: 0.93, TypicalDurationHours: 2.0, Source: types.POISourceOSM},
			{ID: "osm:node:3", Name: "Laxmi Mishthan Bhandar", Type: "restaurant", Confidence: 0.85, TypicalDurationHours: 1.0, Source: types.POISourceOSM},
		},
	}
}

func newPlannerForTest(t *testing.T, constraintsSvc constraints.Service) (*ServiceImpl, session.Store) {
	t.Helper()

	intentSvc := new(MockIntent)
	intentSvc.On("ResolveForEndpoint", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(types.IntentResult{Intent: types.IntentPlan, Confidence: 0.9, Rationale: "keyword match"})

	geo := new(MockGeocode)
	geo.On("Validate", mock.Anything, mock.Anything).
		Return(&geocode.Result{ResolvedCity: "Jaipur", Lat: 26.92, Lon: 75.85, BoundingBox: [4]float64{26.8, 27.0, 75.7, 76.0}}, nil)

	poiSvc := new(MockPOI)
	poiSvc.On("Search", mock.Anything, mock.Anything, mock.Anything).Return(jaipurPOIs())

	wikiSvc := new(MockWiki)
	wikiSvc.On("Tips", mock.Anything, mock.Anything, mock.Anything).
		Return([]types.Tip{{ID: "tip_wv_1", Claim: "Agree rickshaw fares up front.", Citations: []types.Citation{{Source: types.SourceWikivoyage, Ref: "Jaipur"}}}})

	weatherSvc := new(MockWeather)
	weatherSvc.On("Tips", mock.Anything, mock.Anything, mock.Anything).
		Return([]types.Tip{{ID: "tip_weather_1", Claim: "Hot weather expected.", Citations: []types.Citation{{Source: types.SourceWeather, Ref: "open-meteo"}}}})

	down := new(MockGenerator)
	down.On("GenerateResponse", mock.Anything, mock.Anything).Return("", errors.New("model unavailable"))

	store := session.NewStore(0, testLogger())
	svc := NewService(Deps{
		Store:       store,
		Intent:      intentSvc,
		Constraints: constraintsSvc,
		Geocode:     geo,
		POI:         poiSvc,
		Itinerary:   itinerary.NewService(nil, testLogger()),
		Edit:        edit.NewService(down, testLogger()),
		Explain:     explain.NewService(down, testLogger()),
		Wiki:        wikiSvc,
		Weather:     weatherSvc,
	}, 10, testLogger())
	return svc, store
}

func happyConstraints() *MockConstraints {
	c := new(MockConstraints)
	c.On("Resolve", mock.Anything, mock.Anything).
		Return(jaipurConstraints(), types.ExtractedConstraints{City: "Jaipur", NumDays: 3}, nil)
	return c
}

func TestPlan_FullPipeline(t *testing.T) {
	svc, _ := newPlannerForTest(t, happyConstraints())

	resp, err := svc.Plan(context.Background(), types.PlanRequest{
		Utterance: "Plan a trip to Jaipur for 3 days focusing on culture and food",
	})

	require.NoError(t, err)
	sess := resp.Session
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, "Jaipur", sess.Constraints.City)
	assert.Equal(t, 3, sess.Constraints.NumDays)
	require.Len(t, sess.Itinerary.Days, 3)
	assert.Len(t, sess.POICatalog, 3)
	assert.Len(t, sess.Tips, 2)

	// Evals computed on plan; edit correctness waits for the first edit.
	assert.NotEmpty(t, sess.Evals.Feasibility.Name)
	assert.True(t, sess.Evals.Grounding.Passed)
	assert.Nil(t, sess.Evals.EditCorrectness)

	// Tool trace records the pipeline stages in order.
	var tools []string
	for _, call := range sess.ToolTrace {
		tools = append(tools, call.ToolName)
	}
	assert.Equal(t, []string{
		"llm_intent_detect",
		"constraint_resolution",
		"poi_search",
		"itinerary_builder",
		"wikivoyage_tips",
		"weather_forecast",
	}, tools)
}

func TestPlan_ReusesExistingSession(t *testing.T) {
	svc, store := newPlannerForTest(t, happyConstraints())

	first, err := svc.Plan(context.Background(), types.PlanRequest{Utterance: "trip to Jaipur for 3 days"})
	require.NoError(t, err)

	second, err := svc.Plan(context.Background(), types.PlanRequest{
		SessionID: first.Session.ID,
		Utterance: "actually make it a relaxed trip to Jaipur",
	})
	require.NoError(t, err)
	assert.Equal(t, first.Session.ID, second.Session.ID)

	stored, ok := store.Get(first.Session.ID)
	require.True(t, ok)
	assert.Same(t, second.Session, stored)
}

func TestPlan_MissingCityPropagates(t *testing.T) {
	c := new(MockConstraints)
	c.On("Resolve", mock.Anything, mock.Anything).
		Return(nil, types.ExtractedConstraints{}, constraints.ErrMissingCity)
	svc, _ := newPlannerForTest(t, c)

	_, err := svc.Plan(context.Background(), types.PlanRequest{Utterance: "plan something fun"})

	assert.ErrorIs(t, err, constraints.ErrMissingCity)
}

func TestEdit_SessionNotFound(t *testing.T) {
	svc, _ := newPlannerForTest(t, happyConstraints())

	_, err := svc.Edit(context.Background(), types.EditRequest{SessionID: "nope", Utterance: "make day 2 more relaxed"})

	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestEdit_AppliesAndEvaluates(t *testing.T) {
	svc, _ := newPlannerForTest(t, happyConstraints())
	planned, err := svc.Plan(context.Background(), types.PlanRequest{Utterance: "trip to Jaipur for 3 days"})
	require.NoError(t, err)

	resp, err := svc.Edit(context.Background(), types.EditRequest{
		SessionID: planned.Session.ID,
		Utterance: "make day 2 more relaxed",
	})

	require.NoError(t, err)
	assert.Equal(t, types.ActionMakeMoreRelax, resp.Command.Action)
	assert.Equal(t, []string{"Day 2"}, resp.Outcome.ChangedDays)
	require.NotNil(t, resp.Session.Evals.EditCorrectness)
	assert.True(t, resp.Session.Evals.EditCorrectness.Passed)
}

func TestExplain_SessionNotFound(t *testing.T) {
	svc, _ := newPlannerForTest(t, happyConstraints())

	_, err := svc.Explain(context.Background(), types.ExplainRequest{SessionID: "nope", Question: "why?"})

	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestExplain_ReturnsAnswerWithEvals(t *testing.T) {
	svc, _ := newPlannerForTest(t, happyConstraints())
	planned, err := svc.Plan(context.Background(), types.PlanRequest{Utterance: "trip to Jaipur for 3 days"})
	require.NoError(t, err)

	resp, err := svc.Explain(context.Background(), types.ExplainRequest{
		SessionID: planned.Session.ID,
		Question:  "why is Amber Fort in the plan?",
	})

	require.NoError(t, err)
	assert.Contains(t, resp.Answer, "Amber Fort")
	assert.Len(t, resp.RelatedEvals, 2)
}

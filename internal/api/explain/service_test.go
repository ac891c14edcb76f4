package explain

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-voice-travel-planner/internal/types"
)

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) GenerateResponse(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func testSession() *types.Session {
	catalog := map[string]types.POI{
		"node-1": {ID: "node-1", Name: "Amber Fort", Type: "attraction", TypicalDurationHours: 2.5, Confidence: 0.95},
		"node-2": {ID: "node-2", Name: "City Palace", Type: "historic", TypicalDurationHours: 2.0, Confidence: 0.93},
		"node-4": {ID: "node-4", Name: "Laxmi Mishthan Bhandar", Type: "restaurant", TypicalDurationHours: 1.0, Confidence: 0.85},
	}
	return &types.Session{
		ID:         "s-1",
		POICatalog: catalog,
		Itinerary: types.Itinerary{
			City: "Jaipur",
			Days: []types.ItineraryDay{{
				Name: "Day 1",
				Blocks: []types.ItineraryBlock{
					{TimeOfDay: types.Morning, POIID: "node-1", Title: "Amber Fort"},
					{TimeOfDay: types.Afternoon, POIID: "node-2", Title: "City Palace"},
					{TimeOfDay: types.Evening, POIID: "node-4", Title: "Laxmi Mishthan Bhandar"},
				},
			}},
		},
	}
}

func TestExplain_POIModeModelAnswerPassesGate(t *testing.T) {
	g := new(MockGenerator)
	g.On("GenerateResponse", mock.Anything, mock.Anything).
		Return(`{"answer":"Amber Fort anchors the morning because forts are best before the heat.","citations":[{"source":"OSM","ref":"node-1","snippet":"Amber Fort - attraction"}]}`, nil).Once()
	svc := NewService(g, testLogger())

	ans := svc.Explain(context.Background(), "why is Amber Fort first?", testSession(), "node-1")

	assert.True(t, ans.POIMode)
	assert.Equal(t, "node-1", ans.TargetPOI)
	assert.Contains(t, ans.Text, "Amber Fort")
	require.Len(t, ans.Citations, 1)
	assert.Equal(t, types.SourceOSM, ans.Citations[0].Source)
	g.AssertExpectations(t)
}

func TestExplain_MentionGateRetriesThenTemplates(t *testing.T) {
	g := new(MockGenerator)
	// Both attempts never name the target POI.
	g.On("GenerateResponse", mock.Anything, mock.Anything).
		Return(`{"answer":"It was selected based on optimization criteria.","citations":[]}`, nil)
	svc := NewService(g, testLogger())

	ans := svc.Explain(context.Background(), "why this one?", testSession(), "node-1")

	// Deterministic template still names the POI.
	assert.Contains(t, ans.Text, "Amber Fort")
	assert.Contains(t, ans.Text, "attraction")
	require.NotEmpty(t, ans.Citations)
	assert.Equal(t, "node-1", ans.Citations[0].Ref)
	g.AssertNumberOfCalls(t, "GenerateResponse", 2)
}

func TestExplain_ModelFailureUsesTemplate(t *testing.T) {
	g := new(MockGenerator)
	g.On("GenerateResponse", mock.Anything, mock.Anything).Return("", errors.New("model unavailable"))
	svc := NewService(g, testLogger())

	ans := svc.Explain(context.Background(), "why City Palace?", testSession(), "")

	assert.True(t, ans.POIMode)
	assert.Contains(t, ans.Text, "City Palace")
}

func TestExplain_NameMatchingSelectsPOIMode(t *testing.T) {
	g := new(MockGenerator)
	g.On("GenerateResponse", mock.Anything, mock.Anything).Return("", errors.New("down"))
	svc := NewService(g, testLogger())

	// Full-name substring match.
	ans := svc.Explain(context.Background(), "tell me about amber fort please", testSession(), "")
	assert.True(t, ans.POIMode)
	assert.Equal(t, "node-1", ans.TargetPOI)

	// Two shared significant words.
	ans = svc.Explain(context.Background(), "why the laxmi bhandar stop?", testSession(), "")
	assert.True(t, ans.POIMode)
	assert.Equal(t, "node-4", ans.TargetPOI)
}

func TestExplain_AmbiguousQuestionGoesItineraryWide(t *testing.T) {
	g := new(MockGenerator)
	g.On("GenerateResponse", mock.Anything, mock.Anything).Return("", errors.New("down"))
	svc := NewService(g, testLogger())

	ans := svc.Explain(context.Background(), "why does the plan look like this?", testSession(), "")

	assert.False(t, ans.POIMode)
	assert.Empty(t, ans.TargetPOI)
	// Template names the top stops.
	assert.Contains(t, ans.Text, "Amber Fort")
	assert.Contains(t, ans.Text, "City Palace")
	assert.NotEmpty(t, ans.Citations)
}

func TestExplain_ItineraryWideGateNeedsTwoMentions(t *testing.T) {
	g := new(MockGenerator)
	g.On("GenerateResponse", mock.Anything, mock.Anything).
		Return(`{"answer":"Amber Fort leads the day and City Palace follows in the afternoon.","citations":[]}`, nil).Once()
	svc := NewService(g, testLogger())

	ans := svc.Explain(context.Background(), "explain the overall shape", testSession(), "")

	assert.False(t, ans.POIMode)
	assert.Contains(t, ans.Text, "Amber Fort")
	g.AssertNumberOfCalls(t, "GenerateResponse", 1)
}

func TestExplain_InvalidCitationSourcesDropped(t *testing.T) {
	g := new(MockGenerator)
	g.On("GenerateResponse", mock.Anything, mock.Anything).
		Return(`{"answer":"Amber Fort is the anchor stop.","citations":[{"source":"WIKIPEDIA","ref":"x"},{"source":"wikivoyage","ref":"Jaipur","snippet":"See section"}]}`, nil).Once()
	svc := NewService(g, testLogger())

	ans := svc.Explain(context.Background(), "why amber fort?", testSession(), "node-1")

	require.Len(t, ans.Citations, 1)
	assert.Equal(t, types.SourceWikivoyage, ans.Citations[0].Source)
}

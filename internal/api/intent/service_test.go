package intent

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/FACorreiaa/go-voice-travel-planner/internal/types"
)

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) GenerateResponse(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestClassify_KeywordPreFilterSkipsModel(t *testing.T) {
	g := new(MockGenerator) // no expectations: model must not be called
	svc := NewService(g, discardLogger())

	tests := []struct {
		name         string
		utterance    string
		hasItinerary bool
		want         types.Intent
	}{
		{"explain keywords", "why did you pick Amber Fort?", true, types.IntentExplain},
		{"edit keywords with itinerary", "swap day 2 for something indoor", true, types.IntentEdit},
		{"plan keywords", "plan a trip to Jaipur for 3 days", false, types.IntentPlan},
		{"explain beats plan vocabulary", "explain the trip plan", true, types.IntentExplain},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := svc.Classify(context.Background(), tt.utterance, tt.hasItinerary)
			assert.Equal(t, tt.want, got.Intent)
			assert.InDelta(t, 0.9, got.Confidence, 0.001)
		})
	}
	g.AssertExpectations(t)
}

func TestClassify_EditKeywordsNeedItinerary(t *testing.T) {
	g := new(MockGenerator)
	svc := NewService(g, discardLogger())

	// "add" alone without an itinerary falls through the EDIT rule; no
	// other keyword family matches either, so the model is consulted.
	g.On("GenerateResponse", mock.Anything, mock.Anything).
		Return(`{"intent":"UNKNOWN","confidence":0.3,"rationale":"ambiguous"}`, nil).Once()

	got := svc.Classify(context.Background(), "add something nice", false)
	assert.Equal(t, types.IntentUnknown, got.Intent)
	g.AssertExpectations(t)
}

func TestClassify_ModelFailureFallsBackToKeywords(t *testing.T) {
	g := new(MockGenerator)
	g.On("GenerateResponse", mock.Anything, mock.Anything).
		Return("", errors.New("upstream down")).Twice() // one retry inside GenerateJSON

	svc := NewService(g, discardLogger())
	got := svc.Classify(context.Background(), "build me something for the weekend", false)
	assert.Equal(t, types.IntentPlan, got.Intent)
	assert.Contains(t, got.Rationale, "fallback")
	g.AssertExpectations(t)
}

func TestClassify_RejectsOutOfEnumIntent(t *testing.T) {
	g := new(MockGenerator)
	// Both attempts return an intent outside the enumeration; validation
	// routes to the fallback path.
	g.On("GenerateResponse", mock.Anything, mock.Anything).
		Return(`{"intent":"BOOK_FLIGHT","confidence":0.9,"rationale":"x"}`, nil)

	svc := NewService(g, discardLogger())
	got := svc.Classify(context.Background(), "gibberish utterance", false)
	assert.Equal(t, types.IntentUnknown, got.Intent)
}

func TestResolveForEndpoint_CoercesUnknown(t *testing.T) {
	g := new(MockGenerator)
	g.On("GenerateResponse", mock.Anything, mock.Anything).
		Return(`{"intent":"UNKNOWN","confidence":0.2,"rationale":"no travel content"}`, nil)

	svc := NewService(g, discardLogger())
	got := svc.ResolveForEndpoint(context.Background(), "hmm not sure", types.IntentPlan, false)
	assert.Equal(t, types.IntentPlan, got.Intent)
	assert.Equal(t, types.IntentUnknown, got.Original)
	assert.Equal(t, types.IntentPlan, got.Resolved)
	assert.InDelta(t, 0.6, got.Confidence, 0.001)
	assert.Contains(t, got.Rationale, "forced fallback")
}

func TestResolveForEndpoint_KeepsDetectedIntent(t *testing.T) {
	g := new(MockGenerator)
	svc := NewService(g, discardLogger())

	got := svc.ResolveForEndpoint(context.Background(), "plan a trip to Kochi", types.IntentPlan, false)
	assert.Equal(t, types.IntentPlan, got.Intent)
	assert.Equal(t, types.IntentPlan, got.Original)
}

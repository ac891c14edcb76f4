package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-voice-travel-planner/app/observability/metrics"
	"github.com/FACorreiaa/go-voice-travel-planner/internal/api/constraints"
	"github.com/FACorreiaa/go-voice-travel-planner/internal/types"
)

type MockPlanner struct{ mock.Mock }

func (m *MockPlanner) Plan(ctx context.Context, req types.PlanRequest) (*types.PlanResponse, error) {
	args := m.Called(ctx, req)
	var resp *types.PlanResponse
	if args.Get(0) != nil {
		resp = args.Get(0).(*types.PlanResponse)
	}
	return resp, args.Error(1)
}

func (m *MockPlanner) Edit(ctx context.Context, req types.EditRequest) (*types.EditResponse, error) {
	args := m.Called(ctx, req)
	var resp *types.EditResponse
	if args.Get(0) != nil {
		resp = args.Get(0).(*types.EditResponse)
	}
	return resp, args.Error(1)
}

func (m *MockPlanner) Explain(ctx context.Context, req types.ExplainRequest) (*types.ExplainResponse, error) {
	args := m.Called(ctx, req)
	var resp *types.ExplainResponse
	if args.Get(0) != nil {
		resp = args.Get(0).(*types.ExplainResponse)
	}
	return resp, args.Error(1)
}

func postJSON(t *testing.T, handler http.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload.Error.Code
}

func TestHandler_Plan_OK(t *testing.T) {
	metrics.InitAppMetrics()
	svc := new(MockPlanner)
	svc.On("Plan", mock.Anything, mock.Anything).
		Return(&types.PlanResponse{Session: &types.Session{ID: "s-1"}}, nil)
	h := NewHandler(svc, testLogger())

	rec := postJSON(t, h.Plan, types.PlanRequest{Utterance: "trip to Jaipur for 3 days"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"s-1"`)
}

func TestHandler_Plan_EmptyUtterance(t *testing.T) {
	metrics.InitAppMetrics()
	h := NewHandler(new(MockPlanner), testLogger())

	rec := postJSON(t, h.Plan, types.PlanRequest{Utterance: "   "})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_REQUEST", errorCode(t, rec))
}

func TestHandler_Plan_MissingCity(t *testing.T) {
	metrics.InitAppMetrics()
	svc := new(MockPlanner)
	svc.On("Plan", mock.Anything, mock.Anything).
		Return(nil, constraints.ErrMissingCity)
	h := NewHandler(svc, testLogger())

	rec := postJSON(t, h.Plan, types.PlanRequest{Utterance: "plan something"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "MISSING_CITY", errorCode(t, rec))
}

func TestHandler_Plan_CityNotFound(t *testing.T) {
	metrics.InitAppMetrics()
	svc := new(MockPlanner)
	svc.On("Plan", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w: Atlantis", constraints.ErrCityNotFound))
	h := NewHandler(svc, testLogger())

	rec := postJSON(t, h.Plan, types.PlanRequest{Utterance: "trip to Atlantis"})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "CITY_NOT_FOUND", errorCode(t, rec))
}

func TestHandler_Edit_SessionNotFound(t *testing.T) {
	metrics.InitAppMetrics()
	svc := new(MockPlanner)
	svc.On("Edit", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w: s-404", ErrSessionNotFound))
	h := NewHandler(svc, testLogger())

	rec := postJSON(t, h.Edit, types.EditRequest{SessionID: "s-404", Utterance: "make day 2 more relaxed"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "SESSION_NOT_FOUND", errorCode(t, rec))
}

func TestHandler_Edit_RequiresSessionID(t *testing.T) {
	metrics.InitAppMetrics()
	h := NewHandler(new(MockPlanner), testLogger())

	rec := postJSON(t, h.Edit, types.EditRequest{Utterance: "make it relaxed"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Explain_OK(t *testing.T) {
	metrics.InitAppMetrics()
	svc := new(MockPlanner)
	svc.On("Explain", mock.Anything, mock.Anything).
		Return(&types.ExplainResponse{Answer: "Amber Fort anchors the morning."}, nil)
	h := NewHandler(svc, testLogger())

	rec := postJSON(t, h.Explain, types.ExplainRequest{SessionID: "s-1", Question: "why amber fort?"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Amber Fort")
}

func TestHandler_Explain_InternalError(t *testing.T) {
	metrics.InitAppMetrics()
	svc := new(MockPlanner)
	svc.On("Explain", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("unexpected failure"))
	h := NewHandler(svc, testLogger())

	rec := postJSON(t, h.Explain, types.ExplainRequest{SessionID: "s-1", Question: "why?"})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_ERROR", errorCode(t, rec))
}

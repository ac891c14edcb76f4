package planner

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-voice-travel-planner/app/observability/metrics"
	"github.com/FACorreiaa/go-voice-travel-planner/internal/api"
	"github.com/FACorreiaa/go-voice-travel-planner/internal/api/constraints"
	"github.com/FACorreiaa/go-voice-travel-planner/internal/types"
)

type Handler struct {
	logger  *slog.Logger
	service Service
}

func NewHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
	}
}

// Plan handles POST /plan.
func (h *Handler) Plan(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PlannerHandler").Start(r.Context(), "Plan")
	defer span.End()
	start := time.Now()

	l := h.logger.With(slog.String("handler", "Plan"))

	var req types.PlanRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Invalid plan request body", slog.Any("error", err))
		span.SetStatus(codes.Error, "Invalid request body")
		api.ErrorResponse(w, r, http.StatusBadRequest, api.CodeInvalidRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Utterance) == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, api.CodeInvalidRequest, "utterance is required")
		return
	}

	resp, err := h.service.Plan(ctx, req)
	if err != nil {
		h.writeError(w, r, l, span, err)
		return
	}

	m := metrics.Get()
	m.PlanRequestsTotal.Add(ctx, 1)
	m.RequestDurationSeconds.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.String("endpoint", "plan")))
	if resp.Session.POIResult.FallbackUsed {
		m.ProviderFallbacksTotal.Add(ctx, 1,
			metric.WithAttributes(attribute.String("provider", "poi")))
	}

	span.SetStatus(codes.Ok, "Plan request served")
	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

// Edit handles POST /edit.
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PlannerHandler").Start(r.Context(), "Edit")
	defer span.End()
	start := time.Now()

	l := h.logger.With(slog.String("handler", "Edit"))

	var req types.EditRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Invalid edit request body", slog.Any("error", err))
		span.SetStatus(codes.Error, "Invalid request body")
		api.ErrorResponse(w, r, http.StatusBadRequest, api.CodeInvalidRequest, err.Error())
		return
	}
	if req.SessionID == "" || strings.TrimSpace(req.Utterance) == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, api.CodeInvalidRequest, "session_id and utterance are required")
		return
	}

	resp, err := h.service.Edit(ctx, req)
	if err != nil {
		h.writeError(w, r, l, span, err)
		return
	}

	m := metrics.Get()
	m.EditRequestsTotal.Add(ctx, 1)
	m.RequestDurationSeconds.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.String("endpoint", "edit")))

	span.SetStatus(codes.Ok, "Edit request served")
	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

// Explain handles POST /explain.
func (h *Handler) Explain(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PlannerHandler").Start(r.Context(), "Explain")
	defer span.End()
	start := time.Now()

	l := h.logger.With(slog.String("handler", "Explain"))

	var req types.ExplainRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Invalid explain request body", slog.Any("error", err))
		span.SetStatus(codes.Error, "Invalid request body")
		api.ErrorResponse(w, r, http.StatusBadRequest, api.CodeInvalidRequest, err.Error())
		return
	}
	if req.SessionID == "" || strings.TrimSpace(req.Question) == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, api.CodeInvalidRequest, "session_id and question are required")
		return
	}

	resp, err := h.service.Explain(ctx, req)
	if err != nil {
		h.writeError(w, r, l, span, err)
		return
	}

	m := metrics.Get()
	m.ExplainRequestsTotal.Add(ctx, 1)
	m.RequestDurationSeconds.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.String("endpoint", "explain")))

	span.SetStatus(codes.Ok, "Explain request served")
	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

// writeError maps pipeline errors to the response taxonomy: bad input
// gets a structured 4xx, everything else is an internal error.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, l *slog.Logger, span trace.Span, err error) {
	ctx := r.Context()
	span.RecordError(err)
	span.SetStatus(codes.Error, "Request failed")
	switch {
	case errors.Is(err, constraints.ErrMissingCity):
		api.ErrorResponse(w, r, http.StatusBadRequest, api.CodeMissingCity, "no city could be identified in the request")
	case errors.Is(err, constraints.ErrCityNotFound):
		api.ErrorResponse(w, r, http.StatusUnprocessableEntity, api.CodeCityNotFound, err.Error())
	case errors.Is(err, ErrSessionNotFound):
		api.ErrorResponse(w, r, http.StatusNotFound, api.CodeSessionNotFound, err.Error())
	default:
		l.ErrorContext(ctx, "Request failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, api.CodeInternalError, "internal server error")
	}
}

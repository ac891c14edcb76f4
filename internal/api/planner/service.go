// Package planner orchestrates the full pipeline behind the three
// endpoints: plan builds a session from an utterance, edit mutates an
// existing itinerary, explain answers questions about it. Stages run
// sequentially because each consumes the previous stage's output; only
// the wiki and weather enrichment calls are independent and run
// concurrently.
package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/go-voice-travel-planner/internal/api/constraints"
	"github.com/FACorreiaa/go-voice-travel-planner/internal/api/edit"
	"github.com/FACorreiaa/go-voice-travel-planner/internal/api/evals"
	"github.com/FACorreiaa/go-voice-travel-planner/internal/api/explain"
	"github.com/FACorreiaa/go-voice-travel-planner/internal/api/geocode"
	"github.com/FACorreiaa/go-voice-travel-planner/internal/api/intent"
	"github.com/FACorreiaa/go-voice-travel-planner/internal/api/itinerary"
	"github.com/FACorreiaa/go-voice-travel-planner/internal/api/poi"
	"github.com/FACorreiaa/go-voice-travel-planner/internal/api/session"
	"github.com/FACorreiaa/go-voice-travel-planner/internal/api/weather"
	"github.com/FACorreiaa/go-voice-travel-planner/internal/api/wiki"
	"github.com/FACorreiaa/go-voice-travel-planner/internal/types"
)

const defaultMaxCandidates = 10

// fallbackBBoxPad widens a point into a search box when the geocoder
// gave no bounding box.
const fallbackBBoxPad = 0.25

// ErrSessionNotFound means the request referenced an unknown or
// expired session id.
var ErrSessionNotFound = errors.New("session not found")

// Ensure implementation satisfies the interface
var _ Service = (*ServiceImpl)(nil)

// Service is the request-level orchestration boundary.
type Service interface {
	Plan(ctx context.Context, req types.PlanRequest) (*types.PlanResponse, error)
	Edit(ctx context.Context, req types.EditRequest) (*types.EditResponse, error)
	Explain(ctx context.Context, req types.ExplainRequest) (*types.ExplainResponse, error)
}

type ServiceImpl struct {
	logger *slog.Logger

	store         session.Store
	intent        intent.Service
	constraints   constraints.Service
	geocode       geocode.Service
	poi           poi.Service
	itinerary     itinerary.Service
	edit          edit.Service
	explain       explain.Service
	wiki          wiki.Service
	weather       weather.Service
	maxCandidates int
}

// Deps bundles the collaborating services for the orchestrator.
type Deps struct {
	Store       session.Store
	Intent      intent.Service
	Constraints constraints.Service
	Geocode     geocode.Service
	POI         poi.Service
	Itinerary   itinerary.Service
	Edit        edit.Service
	Explain     explain.Service
	Wiki        wiki.Service
	Weather     weather.Service
}

func NewService(deps Deps, maxCandidates int, logger *slog.Logger) *ServiceImpl {
	if maxCandidates <= 0 {
		maxCandidates = defaultMaxCandidates
	}
	return &ServiceImpl{
		logger:        logger,
		store:         deps.Store,
		intent:        deps.Intent,
		constraints:   deps.Constraints,
		geocode:       deps.Geocode,
		poi:           deps.POI,
		itinerary:     deps.Itinerary,
		edit:          deps.Edit,
		explain:       deps.Explain,
		wiki:          deps.Wiki,
		weather:       deps.Weather,
		maxCandidates: maxCandidates,
	}
}

// Plan runs the construction pipeline: intent, constraint resolution,
// POI search, itinerary build, then concurrent tips enrichment and
// evaluation. The session is created on first use and refreshed on
// replans.
func (s *ServiceImpl) Plan(ctx context.Context, req types.PlanRequest) (*types.PlanResponse, error) {
	ctx, span := otel.Tracer("PlannerService").Start(ctx, "Plan")
	defer span.End()

	l := s.logger.With(slog.String("method", "Plan"))

	sess, isNew := s.sessionFor(req.SessionID)
	unlock := s.store.Lock(sess.ID)
	defer unlock()
	span.SetAttributes(attribute.String("session_id", sess.ID), attribute.Bool("new_session", isNew))

	hasItinerary := len(sess.Itinerary.Days) > 0
	intentResult := s.intent.ResolveForEndpoint(ctx, req.Utterance, types.IntentPlan, hasItinerary)
	sess.Trace("llm_intent_detect",
		"Detect PLAN intent",
		fmt.Sprintf("Intent: %s, Confidence: %.2f", intentResult.Intent, intentResult.Confidence))

	resolved, extracted, err := s.constraints.Resolve(ctx, req.Utterance)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Constraint resolution failed")
		return nil, err
	}
	sess.Constraints = *resolved
	sess.Trace("constraint_resolution",
		fmt.Sprintf("Resolve constraints from %q", req.Utterance),
		fmt.Sprintf("City: %s, Days: %d, Pace: %s", resolved.City, resolved.NumDays, resolved.Pace))

	bbox := s.searchBBox(ctx, resolved)
	poiResult := s.poi.Search(ctx, types.POISearchInput{
		City:          resolved.City,
		Interests:     resolved.Interests,
		Pace:          resolved.Pace,
		MaxCandidates: s.maxCandidates,
	}, bbox)
	sess.POIResult = poiResult
	sess.POICatalog = make(map[string]types.POI, len(poiResult.POIs))
	candidateIDs := make([]string, 0, len(poiResult.POIs))
	for _, p := range poiResult.POIs {
		sess.POICatalog[p.ID] = p
		candidateIDs = append(candidateIDs, p.ID)
	}
	sess.Trace("poi_search",
		fmt.Sprintf("Search POIs for %s", resolved.City),
		fmt.Sprintf("Found %d candidates, fallback=%t", len(poiResult.POIs), poiResult.FallbackUsed))

	buildResult := s.itinerary.Build(ctx, types.BuildInput{
		City:            resolved.City,
		Days:            resolved.NumDays,
		DailyHourLimit:  resolved.MaxDailyHours,
		Pace:            resolved.Pace,
		CandidatePOIIDs: candidateIDs,
		POICatalog:      sess.POICatalog,
	})
	sess.Itinerary = buildResult.Itinerary
	sess.Trace("itinerary_builder",
		fmt.Sprintf("Build %d-day itinerary", resolved.NumDays),
		fmt.Sprintf("%d days, %d unselected POIs", len(buildResult.Itinerary.Days), len(buildResult.UnselectedPOIIDs)))

	sess.Tips = s.enrichTips(ctx, sess, resolved)

	sess.Evals.Feasibility = evals.Feasibility(sess.Itinerary, resolved.MaxDailyHours)
	sess.Evals.Grounding = evals.Grounding(sess)

	s.store.Save(sess)

	l.InfoContext(ctx, "Plan completed",
		slog.String("session_id", sess.ID),
		slog.String("city", resolved.City),
		slog.Int("days", resolved.NumDays))
	span.SetStatus(codes.Ok, "Plan completed")

	return &types.PlanResponse{Session: sess, Intent: intentResult, LLM: extracted}, nil
}

// Edit applies a revision command to an existing session.
func (s *ServiceImpl) Edit(ctx context.Context, req types.EditRequest) (*types.EditResponse, error) {
	ctx, span := otel.Tracer("PlannerService").Start(ctx, "Edit")
	defer span.End()

	l := s.logger.With(slog.String("method", "Edit"), slog.String("session_id", req.SessionID))

	sess, ok := s.store.Get(req.SessionID)
	if !ok {
		span.SetStatus(codes.Error, "Session not found")
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, req.SessionID)
	}
	unlock := s.store.Lock(sess.ID)
	defer unlock()

	intentResult := s.intent.ResolveForEndpoint(ctx, req.Utterance, types.IntentEdit, true)
	sess.Trace("llm_intent_detect",
		"Detect EDIT intent",
		fmt.Sprintf("Intent: %s, Confidence: %.2f", intentResult.Intent, intentResult.Confidence))

	cmd := s.edit.Interpret(ctx, req.Utterance)
	sess.Trace("llm_extract_edit_command",
		"Extract edit command",
		fmt.Sprintf("Action: %s, Day: %s, Block: %s", cmd.Action, dayRef(cmd.Scope), blockRef(cmd.Scope)))

	outcome := s.edit.Apply(ctx, sess, cmd)
	sess.Trace("edit_apply",
		fmt.Sprintf("Apply %s", cmd.Action),
		fmt.Sprintf("Changed %d days, %d blocks", len(outcome.ChangedDays), len(outcome.ChangedBlocks)))

	editCorrectness := evals.EditCorrectness(cmd, outcome, len(sess.Itinerary.Days))
	sess.Evals.EditCorrectness = &editCorrectness
	sess.Evals.Feasibility = evals.Feasibility(sess.Itinerary, sess.Constraints.MaxDailyHours)

	s.store.Save(sess)

	l.InfoContext(ctx, "Edit applied", slog.String("action", string(cmd.Action)))
	span.SetStatus(codes.Ok, "Edit completed")

	return &types.EditResponse{Session: sess, Command: cmd, Outcome: outcome}, nil
}

// Explain answers a question against a session's plan.
func (s *ServiceImpl) Explain(ctx context.Context, req types.ExplainRequest) (*types.ExplainResponse, error) {
	ctx, span := otel.Tracer("PlannerService").Start(ctx, "Explain")
	defer span.End()

	sess, ok := s.store.Get(req.SessionID)
	if !ok {
		span.SetStatus(codes.Error, "Session not found")
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, req.SessionID)
	}
	unlock := s.store.Lock(sess.ID)
	defer unlock()

	intentResult := s.intent.ResolveForEndpoint(ctx, req.Question, types.IntentExplain, len(sess.Itinerary.Days) > 0)
	sess.Trace("llm_intent_detect",
		"Detect EXPLAIN intent",
		fmt.Sprintf("Intent: %s, Confidence: %.2f", intentResult.Intent, intentResult.Confidence))

	answer := s.explain.Explain(ctx, req.Question, sess, req.POIID)
	sess.Trace("llm_generate_explanation",
		fmt.Sprintf("Generate explanation for: %s", req.Question),
		fmt.Sprintf("POI mode: %t, %d citations", answer.POIMode, len(answer.Citations)))

	s.store.Save(sess)

	span.SetStatus(codes.Ok, "Explanation generated")
	return &types.ExplainResponse{
		Answer:       answer.Text,
		Citations:    answer.Citations,
		RelatedEvals: []types.EvalResult{sess.Evals.Feasibility, sess.Evals.Grounding},
	}, nil
}

func (s *ServiceImpl) sessionFor(id string) (*types.Session, bool) {
	if id != "" {
		if sess, ok := s.store.Get(id); ok {
			return sess, false
		}
	}
	return s.store.New(), true
}

// searchBBox reuses the cached geocode result for the resolved city;
// without a bounding box it pads the city center into one.
func (s *ServiceImpl) searchBBox(ctx context.Context, c *types.Constraints) [4]float64 {
	geo, err := s.geocode.Validate(ctx, c.ResolvedCity)
	if err == nil && geo != nil && geo.BoundingBox != [4]float64{} {
		return geo.BoundingBox
	}
	return [4]float64{
		c.Latitude - fallbackBBoxPad,
		c.Latitude + fallbackBBoxPad,
		c.Longitude - fallbackBBoxPad,
		c.Longitude + fallbackBBoxPad,
	}
}

// enrichTips fetches wiki and weather tips concurrently; neither call
// can fail, so the group only synchronizes completion.
func (s *ServiceImpl) enrichTips(ctx context.Context, sess *types.Session, c *types.Constraints) []types.Tip {
	var wikiTips, weatherTips []types.Tip

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		wikiTips = s.wiki.Tips(gctx, c.ResolvedCity, c.Interests)
		return nil
	})
	g.Go(func() error {
		weatherTips = s.weather.Tips(gctx, c.ResolvedCity, c.NumDays)
		return nil
	})
	_ = g.Wait()

	sess.Trace("wikivoyage_tips",
		fmt.Sprintf("Fetch tips for %s", c.ResolvedCity),
		fmt.Sprintf("%d tips", len(wikiTips)))
	sess.Trace("weather_forecast",
		fmt.Sprintf("Forecast for %s over %d days", c.ResolvedCity, c.NumDays),
		fmt.Sprintf("%d tips", len(weatherTips)))

	return append(wikiTips, weatherTips...)
}

func dayRef(scope *types.EditScope) string {
	if scope == nil || scope.DayIndex == nil {
		return "any"
	}
	return fmt.Sprintf("%d", *scope.DayIndex)
}

func blockRef(scope *types.EditScope) string {
	if scope == nil || scope.Block == "" {
		return "any"
	}
	return scope.Block
}

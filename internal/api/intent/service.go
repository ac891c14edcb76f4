// Package intent decides whether an utterance is a planning, editing,
// explaining, or out-of-scope request. A keyword pre-filter short-circuits
// the model for clearly phrased requests; the model path covers the rest,
// with the keyword tables doubling as the recovery path when the model
// call fails.
package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	generativeAI "github.com/FACorreiaa/go-voice-travel-planner/internal/api/generative_ai"
	"github.com/FACorreiaa/go-voice-travel-planner/internal/types"
)

const coercedConfidence = 0.6

// Ensure implementation satisfies the interface
var _ Service = (*ServiceImpl)(nil)

// Service classifies utterances into the fixed intent enumeration.
type Service interface {
	Classify(ctx context.Context, utterance string, hasItinerary bool) types.IntentResult
	ResolveForEndpoint(ctx context.Context, utterance string, endpoint types.Intent, hasItinerary bool) types.IntentResult
}

type ServiceImpl struct {
	logger *slog.Logger
	ai     generativeAI.Generator
}

func NewService(ai generativeAI.Generator, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{logger: logger, ai: ai}
}

// keywordRule couples one intent with its trigger vocabulary. Rules are
// tried in order: EXPLAIN and EDIT phrasing is more specific and must
// pre-empt the broader PLAN vocabulary.
type keywordRule struct {
	intent types.Intent
	re     *regexp.Regexp
}

var keywordRules = []keywordRule{
	{types.IntentExplain, regexp.MustCompile(`why|explain|how|reason|doable|feasible|what if|rain`)},
	{types.IntentEdit, regexp.MustCompile(`change|swap|make|add|remove|move|replace|more relaxed|reduce travel|stay in hotel`)},
	{types.IntentPlan, regexp.MustCompile(`plan|itinerary|trip|days|travel|vacation|explore`)},
}

// Classify runs the keyword pre-filter first, then the model, then the
// keyword fallback. EDIT keyword matches only apply against an existing
// itinerary; without one the same phrasing usually starts a plan.
func (s *ServiceImpl) Classify(ctx context.Context, utterance string, hasItinerary bool) types.IntentResult {
	ctx, span := otel.Tracer("Intent").Start(ctx, "Classify")
	defer span.End()

	l := s.logger.With(slog.String("method", "Classify"))
	lower := strings.ToLower(utterance)

	for _, rule := range keywordRules {
		if rule.intent == types.IntentEdit && !hasItinerary {
			continue
		}
		if rule.re.MatchString(lower) {
			l.DebugContext(ctx, "Keyword pre-filter matched, skipping model",
				slog.String("intent", string(rule.intent)))
			span.SetStatus(codes.Ok, "Keyword pre-filter match")
			return types.IntentResult{
				Intent:     rule.intent,
				Confidence: 0.9,
				Rationale:  fmt.Sprintf("deterministic keyword match (%s)", strings.ToLower(string(rule.intent))),
			}
		}
	}

	result, err := s.classifyWithModel(ctx, utterance, hasItinerary)
	if err != nil {
		l.WarnContext(ctx, "Model intent classification failed, using fallback", slog.Any("error", err))
		span.RecordError(err)
		return fallbackIntent(lower)
	}
	span.SetStatus(codes.Ok, "Model classification succeeded")
	return result
}

// ResolveForEndpoint classifies and then coerces an UNKNOWN result onto
// the intent the calling endpoint itself implies, so a route that already
// disambiguates intent never fails on ambiguous language.
func (s *ServiceImpl) ResolveForEndpoint(ctx context.Context, utterance string, endpoint types.Intent, hasItinerary bool) types.IntentResult {
	detected := s.Classify(ctx, utterance, hasItinerary)

	if detected.Intent == types.IntentUnknown {
		s.logger.WarnContext(ctx, "Coercing UNKNOWN intent to endpoint intent",
			slog.String("endpoint", string(endpoint)))
		return types.IntentResult{
			Intent:     endpoint,
			Confidence: coercedConfidence,
			Rationale:  fmt.Sprintf("forced fallback to %s due to UNKNOWN detection", endpoint),
			Original:   types.IntentUnknown,
			Resolved:   endpoint,
		}
	}

	detected.Original = detected.Intent
	detected.Resolved = detected.Intent
	return detected
}

func (s *ServiceImpl) classifyWithModel(ctx context.Context, utterance string, hasItinerary bool) (types.IntentResult, error) {
	utteranceJSON, _ := json.Marshal(utterance)
	prompt := fmt.Sprintf(`You are an intent classifier for a travel itinerary assistant.

PLAN = user wants to create/plan/build/show an itinerary or trip
EDIT = user wants to modify/change/swap existing plans
EXPLAIN = user wants to understand WHY something is in the itinerary
UNKNOWN = user asks non-travel questions

The user %s an existing itinerary.
If the user mentions: planning, days, trip, travel, itinerary, or a city name
MUST return intent = PLAN.
Return UNKNOWN only for clearly non-travel content like science/history questions.

Return ONLY JSON: {"intent": "PLAN|EDIT|EXPLAIN|UNKNOWN", "confidence": 0..1, "rationale": "max 100 chars"}
Utterance: %s`, hasOrNot(hasItinerary), utteranceJSON)

	var raw struct {
		Intent     string  `json:"intent"`
		Confidence float64 `json:"confidence"`
		Rationale  string  `json:"rationale"`
	}
	if err := generativeAI.GenerateJSON(ctx, s.ai, prompt, &raw); err != nil {
		return types.IntentResult{}, err
	}

	result := types.IntentResult{
		Intent:     types.Intent(raw.Intent),
		Confidence: raw.Confidence,
		Rationale:  raw.Rationale,
	}
	if err := validate(result); err != nil {
		return types.IntentResult{}, err
	}
	if len(result.Rationale) > 500 {
		result.Rationale = result.Rationale[:497] + "..."
	}
	return result, nil
}

// validate rejects any field outside the allowed schema so malformed
// model output is routed to the fallback, never propagated untyped.
func validate(r types.IntentResult) error {
	if !types.ValidIntent(r.Intent) {
		return fmt.Errorf("intent %q outside allowed enumeration", r.Intent)
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return fmt.Errorf("confidence %f outside [0,1]", r.Confidence)
	}
	if r.Rationale == "" {
		return fmt.Errorf("empty rationale")
	}
	return nil
}

var fallbackRules = []keywordRule{
	{types.IntentPlan, regexp.MustCompile(`plan|create|build|show|itinerary|suggest|trip|travel|days|vacation|explore`)},
	{types.IntentEdit, regexp.MustCompile(`change|swap|add|remove|edit|modify|replace`)},
	{types.IntentExplain, regexp.MustCompile(`why|explain|how|feasible|doable|possible`)},
}

var fallbackConfidence = map[types.Intent]float64{
	types.IntentPlan:    0.8,
	types.IntentEdit:    0.75,
	types.IntentExplain: 0.6,
}

func fallbackIntent(lower string) types.IntentResult {
	for _, rule := range fallbackRules {
		if rule.re.MatchString(lower) {
			return types.IntentResult{
				Intent:     rule.intent,
				Confidence: fallbackConfidence[rule.intent],
				Rationale:  fmt.Sprintf("fallback: keyword matching (%s)", strings.ToLower(string(rule.intent))),
			}
		}
	}
	return types.IntentResult{
		Intent:     types.IntentUnknown,
		Confidence: 0.4,
		Rationale:  "fallback: keyword matching (unknown)",
	}
}

func hasOrNot(has bool) string {
	if has {
		return "HAS"
	}
	return "does NOT have"
}

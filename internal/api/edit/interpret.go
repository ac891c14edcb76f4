// Package edit turns free-form revision requests into typed commands
// and applies them to an existing itinerary. Interpretation and
// application are separate phases so each can be tested on its own.
package edit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/go-voice-travel-planner/internal/api/extract"
	generativeAI "github.com/FACorreiaa/go-voice-travel-planner/internal/api/generative_ai"
	"github.com/FACorreiaa/go-voice-travel-planner/internal/types"
)

// Ensure implementation satisfies the interface
var _ Service = (*ServiceImpl)(nil)

// Service interprets and applies edit commands. Both operations are
// total: interpretation falls back to keyword rules, application is a
// scoped mutation that no-ops on out-of-range targets.
type Service interface {
	Interpret(ctx context.Context, utterance string) types.EditCommand
	Apply(ctx context.Context, session *types.Session, cmd types.EditCommand) types.EditOutcome
}

type ServiceImpl struct {
	logger    *slog.Logger
	generator generativeAI.Generator
}

func NewService(generator generativeAI.Generator, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:    logger,
		generator: generator,
	}
}

var (
	dayDigitRe   = regexp.MustCompile(`day\s*(\d+)`)
	daySpelledRe = regexp.MustCompile(`day\s+(one|two|three|four|five)\b`)
)

var spelledDays = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
}

type actionRule struct {
	pattern *regexp.Regexp
	action  types.EditAction
}

var actionRules = []actionRule{
	{regexp.MustCompile(`relaxed|slow|calm`), types.ActionMakeMoreRelax},
	{regexp.MustCompile(`reduce|shorten|less.*travel`), types.ActionReduceTravel},
	{regexp.MustCompile(`indoor|rain|weather|inside`), types.ActionSwapToIndoor},
	{regexp.MustCompile(`food|eat|restaurant`), types.ActionAddFoodPlace},
	{regexp.MustCompile(`pace|speed|fast`), types.ActionSetPace},
}

// Interpret extracts a typed edit command from the utterance, asking
// the model first and falling back to keyword rules on any failure.
func (s *ServiceImpl) Interpret(ctx context.Context, utterance string) types.EditCommand {
	ctx, span := otel.Tracer("EditService").Start(ctx, "Interpret")
	defer span.End()

	l := s.logger.With(slog.String("method", "Interpret"))

	cmd, err := s.interpretWithModel(ctx, utterance)
	if err != nil {
		l.WarnContext(ctx, "Model edit interpretation failed, using keyword fallback", slog.Any("error", err))
		cmd = fallbackCommand(utterance)
	}

	span.SetAttributes(attribute.String("action", string(cmd.Action)))
	span.SetStatus(codes.Ok, "Edit command interpreted")
	return cmd
}

func (s *ServiceImpl) interpretWithModel(ctx context.Context, utterance string) (types.EditCommand, error) {
	quoted, _ := json.Marshal(utterance)
	prompt := fmt.Sprintf(`Extract edit command.
Return ONLY JSON: {"action": "SET_PACE|MAKE_MORE_RELAXED|REDUCE_TRAVEL|SWAP_TO_INDOOR|ADD_FOOD_PLACE", "scope": {"dayIndex": 1|2|3|4|5, "block": "morning|afternoon|evening"}, "params": {"pace": "", "note": ""}}
Transcript: %s`, quoted)

	var raw struct {
		Action string `json:"action"`
		Scope  *struct {
			DayIndex *int   `json:"dayIndex"`
			Block    string `json:"block"`
		} `json:"scope"`
		Params *struct {
			Pace string `json:"pace"`
			Note string `json:"note"`
		} `json:"params"`
	}
	if err := generativeAI.GenerateJSON(ctx, s.generator, prompt, &raw); err != nil {
		return types.EditCommand{}, err
	}

	action := types.EditAction(strings.ToUpper(strings.TrimSpace(raw.Action)))
	if !types.ValidEditAction(action) {
		return types.EditCommand{}, fmt.Errorf("model returned unknown edit action %q", raw.Action)
	}

	cmd := types.EditCommand{Action: action, Scope: &types.EditScope{}}
	if raw.Scope != nil {
		if raw.Scope.DayIndex != nil && *raw.Scope.DayIndex >= 1 {
			cmd.Scope.DayIndex = raw.Scope.DayIndex
		}
		if b := strings.ToLower(strings.TrimSpace(raw.Scope.Block)); validBlock(b) {
			cmd.Scope.Block = b
		}
	}
	if raw.Params != nil && (raw.Params.Pace != "" || raw.Params.Note != "") {
		cmd.Params = &types.EditParams{Pace: raw.Params.Pace, Note: raw.Params.Note}
	}
	return cmd, nil
}

// fallbackCommand maps keywords to actions in fixed priority order and
// pulls a day reference (digits or spelled one..five) plus a
// time-of-day keyword into the scope.
func fallbackCommand(utterance string) types.EditCommand {
	lower := strings.ToLower(utterance)

	action := types.ActionSetPace
	for _, rule := range actionRules {
		if rule.pattern.MatchString(lower) {
			action = rule.action
			break
		}
	}

	cmd := types.EditCommand{Action: action, Scope: &types.EditScope{}}

	if m := dayDigitRe.FindStringSubmatch(lower); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n >= 1 {
			cmd.Scope.DayIndex = &n
		}
	} else if m := daySpelledRe.FindStringSubmatch(lower); m != nil {
		n := spelledDays[m[1]]
		cmd.Scope.DayIndex = &n
	}

	switch {
	case strings.Contains(lower, "morning"):
		cmd.Scope.Block = "morning"
	case strings.Contains(lower, "afternoon"):
		cmd.Scope.Block = "afternoon"
	case strings.Contains(lower, "evening"):
		cmd.Scope.Block = "evening"
	}

	if action == types.ActionSetPace {
		cmd.Params = &types.EditParams{Pace: string(extract.Pace(utterance))}
	}
	return cmd
}

func validBlock(b string) bool {
	return b == "morning" || b == "afternoon" || b == "evening"
}

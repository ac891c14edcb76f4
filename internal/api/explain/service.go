// Package explain answers "why is this in my plan" questions. It runs
// in one of two modes: POI-specific when the question names a known
// stop, itinerary-wide otherwise. Model answers pass through a mention
// quality gate with one retry; a deterministic template backs both
// modes so the caller always gets a grounded answer.
package explain

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	generativeAI "github.com/FACorreiaa/go-voice-travel-planner/internal/api/generative_ai"
	"github.com/FACorreiaa/go-voice-travel-planner/internal/types"
)

const (
	minSharedWordLen = 4
	minSharedWords   = 2
	topPOIMentions   = 3
)

// Answer is the explanation result.
type Answer struct {
	Text      string
	Citations []types.Citation
	POIMode   bool
	TargetPOI string // id, empty in itinerary-wide mode
}

// Ensure implementation satisfies the interface
var _ Service = (*ServiceImpl)(nil)

// Service generates grounded explanations. It never fails: model
// output that cannot pass the quality gate is replaced by a template
// built from known metadata.
type Service interface {
	Explain(ctx context.Context, question string, session *types.Session, targetPOIID string) Answer
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

func (s *ServiceImpl) Explain(ctx context.Context, question string, session *types.Session, targetPOIID string) Answer {
	ctx, span := otel.Tracer("ExplainService").Start(ctx, "Explain")
	defer span.End()

	l := s.logger.With(slog.String("method", "Explain"), slog.String("session_id", session.ID))

	poi := s.resolveTarget(question, session, targetPOIID)
	span.SetAttributes(attribute.Bool("poi_mode", poi != nil))

	var prompt string
	var required []string
	if poi != nil {
		prompt = poiPrompt(question, *poi, session.Itinerary)
		required = []string{poi.Name}
	} else {
		prompt = itineraryPrompt(question, session)
		required = topPOINames(session, topPOIMentions)
	}

	answer, citations, err := s.generateChecked(ctx, prompt, poi != nil, required)
	if err != nil {
		l.WarnContext(ctx, "Model explanation failed quality gate, using template", slog.Any("error", err))
		answer, citations = templateAnswer(poi, session)
	}

	result := Answer{Text: answer, Citations: citations, POIMode: poi != nil}
	if poi != nil {
		result.TargetPOI = poi.ID
	}
	span.SetStatus(codes.Ok, "Explanation generated")
	return result
}

// resolveTarget picks the POI the question is about: an explicit id
// wins, otherwise name matching against the catalog. A unique best
// match requires a full-name substring or at least two shared
// significant words; anything ambiguous falls back to itinerary-wide.
func (s *ServiceImpl) resolveTarget(question string, session *types.Session, targetPOIID string) *types.POI {
	if targetPOIID != "" {
		if poi, ok := session.POICatalog[targetPOIID]; ok {
			return &poi
		}
	}

	ids := make([]string, 0, len(session.POICatalog))
	for id := range session.POICatalog {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	qLower := strings.ToLower(question)
	qWords := significantWords(qLower)

	bestScore := 0
	bestCount := 0
	var best *types.POI
	for _, id := range ids {
		poi := session.POICatalog[id]
		score := matchScore(qLower, qWords, poi.Name)
		if score == 0 {
			continue
		}
		if score > bestScore {
			bestScore = score
			bestCount = 1
			p := poi
			best = &p
		} else if score == bestScore {
			bestCount++
		}
	}
	if bestCount == 1 {
		return best
	}
	return nil
}

// matchScore is 0 for no match, shared-word count for a word-overlap
// match, and a large constant for a full-name substring match so it
// always outranks overlap matches.
func matchScore(qLower string, qWords map[string]bool, name string) int {
	nameLower := strings.ToLower(name)
	if strings.Contains(qLower, nameLower) {
		return 1000
	}
	shared := 0
	for _, w := range significantWordList(nameLower) {
		if qWords[w] {
			shared++
		}
	}
	if shared >= minSharedWords {
		return shared
	}
	return 0
}

var wordRe = regexp.MustCompile(`[a-z]+`)

func significantWords(text string) map[string]bool {
	out := make(map[string]bool)
	for _, w := range significantWordList(text) {
		out[w] = true
	}
	return out
}

func significantWordList(text string) []string {
	var out []string
	for _, w := range wordRe.FindAllString(text, -1) {
		if len(w) >= minSharedWordLen {
			out = append(out, w)
		}
	}
	return out
}

func poiPrompt(question string, poi types.POI, itinerary types.Itinerary) string {
	day, slot := placement(itinerary, poi.ID)
	quoted, _ := json.Marshal(question)
	return fmt.Sprintf(`Explain why this stop is in the travel itinerary. Use ONLY the facts given.
Facts: name=%q type=%q typical_duration_hours=%g placement=%q slot=%q
Return ONLY JSON: {"answer": "...", "citations": [{"source": "OSM|WIKIVOYAGE|WEATHER", "ref": "...", "snippet": "..."}]}
The answer MUST mention %q by name.
Question: %s`, poi.Name, poi.Type, poi.TypicalDurationHours, day, slot, poi.Name, quoted)
}

func itineraryPrompt(question string, session *types.Session) string {
	var stops []string
	for _, day := range session.Itinerary.Days {
		for _, b := range day.Blocks {
			if b.POIID != "" {
				stops = append(stops, fmt.Sprintf("%s (%s, %s %s)", b.Title, session.POICatalog[b.POIID].Type, day.Name, b.TimeOfDay))
			}
		}
	}
	quoted, _ := json.Marshal(question)
	return fmt.Sprintf(`Explain the shape of this travel itinerary. Use ONLY the facts given.
City: %s
Stops: %s
Return ONLY JSON: {"answer": "...", "citations": [{"source": "OSM|WIKIVOYAGE|WEATHER", "ref": "...", "snippet": "..."}]}
Mention the main stops by name.
Question: %s`, session.Itinerary.City, strings.Join(stops, "; "), quoted)
}

// generateChecked runs the prompt, validates citations, and enforces
// the mention gate: the named POI in POI mode, at least two of the
// given names in itinerary-wide mode. One amplified retry, then error.
func (s *ServiceImpl) generateChecked(ctx context.Context, prompt string, poiMode bool, required []string) (string, []types.Citation, error) {
	answer, citations, err := s.generateOnce(ctx, prompt)
	if err == nil && mentionGate(answer, poiMode, required) {
		return answer, citations, nil
	}

	retry := fmt.Sprintf("Your previous answer did not name the required places. You MUST mention %s by name.\n%s",
		strings.Join(required, ", "), prompt)
	answer, citations, err = s.generateOnce(ctx, retry)
	if err != nil {
		return "", nil, err
	}
	if !mentionGate(answer, poiMode, required) {
		return "", nil, fmt.Errorf("answer failed mention check after retry")
	}
	return answer, citations, nil
}

func (s *ServiceImpl) generateOnce(ctx context.Context, prompt string) (string, []types.Citation, error) {
	var raw struct {
		Answer    string `json:"answer"`
		Citations []struct {
			Source  string `json:"source"`
			Ref     string `json:"ref"`
			Snippet string `json:"snippet"`
		} `json:"citations"`
	}
	if err := generativeAI.GenerateJSON(ctx, s.generator, prompt, &raw); err != nil {
		return "", nil, err
	}
	if strings.TrimSpace(raw.Answer) == "" {
		return "", nil, fmt.Errorf("model returned empty answer")
	}

	citations := make([]types.Citation, 0, len(raw.Citations))
	for _, c := range raw.Citations {
		source := types.CitationSource(strings.ToUpper(strings.TrimSpace(c.Source)))
		switch source {
		case types.SourceOSM, types.SourceWikivoyage, types.SourceWeather:
			citations = append(citations, types.Citation{Source: source, Ref: c.Ref, Snippet: c.Snippet})
		}
	}
	return raw.Answer, citations, nil
}

func mentionGate(answer string, poiMode bool, required []string) bool {
	lower := strings.ToLower(answer)
	if poiMode {
		return len(required) > 0 && strings.Contains(lower, strings.ToLower(required[0]))
	}
	mentioned := 0
	for _, name := range required {
		if strings.Contains(lower, strings.ToLower(name)) {
			mentioned++
		}
	}
	return mentioned >= minSharedWords || mentioned == len(required)
}

// templateAnswer synthesizes a deterministic explanation from known
// metadata. It always satisfies the mention gate by construction.
func templateAnswer(poi *types.POI, session *types.Session) (string, []types.Citation) {
	if poi != nil {
		day, slot := placement(session.Itinerary, poi.ID)
		placed := "it is currently an unassigned candidate"
		if day != "" {
			placed = fmt.Sprintf("it is scheduled on %s in the %s slot", day, slot)
		}
		answer := fmt.Sprintf("%s is a %s stop with a typical visit of about %g hours; %s. It was selected for matching your interests and fitting the daily time budget.",
			poi.Name, poi.Type, poi.TypicalDurationHours, placed)
		return answer, []types.Citation{{
			Source:  types.SourceOSM,
			Ref:     poi.ID,
			Snippet: fmt.Sprintf("%s - %s", poi.Name, poi.Type),
		}}
	}

	names := topPOINames(session, topPOIMentions)
	answer := fmt.Sprintf("The plan for %s orders stops like %s by confidence and interest fit, keeps mornings and afternoons for sights, and reserves evenings for food or rest within your daily time budget.",
		session.Itinerary.City, strings.Join(names, ", "))
	citations := make([]types.Citation, 0, len(names))
	for _, day := range session.Itinerary.Days {
		for _, b := range day.Blocks {
			if b.POIID == "" {
				continue
			}
			citations = append(citations, types.Citation{
				Source:  types.SourceOSM,
				Ref:     b.POIID,
				Snippet: b.Title,
			})
			if len(citations) == topPOIMentions {
				return answer, citations
			}
		}
	}
	return answer, citations
}

// topPOINames lists the first n assigned POI names in itinerary order.
func topPOINames(session *types.Session, n int) []string {
	var names []string
	for _, day := range session.Itinerary.Days {
		for _, b := range day.Blocks {
			if b.POIID == "" {
				continue
			}
			names = append(names, b.Title)
			if len(names) == n {
				return names
			}
		}
	}
	return names
}

func placement(itinerary types.Itinerary, poiID string) (string, types.TimeOfDay) {
	for _, day := range itinerary.Days {
		for _, b := range day.Blocks {
			if b.POIID == poiID {
				return day.Name, b.TimeOfDay
			}
		}
	}
	return "", ""
}

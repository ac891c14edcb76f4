// Package wiki pulls short practical tips from Wikivoyage city pages.
// The page wikitext is split into level-2 sections, cleaned of markup,
// and the first sentence of a few well-known sections becomes a cited
// tip. Any failure degrades to a single general-advice tip.
package wiki

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/go-voice-travel-planner/internal/types"
)

const (
	defaultBaseURL = "https://en.wikivoyage.org/w/api.php"
	requestTimeout = 5 * time.Second

	// Sections shorter than this after cleaning are markup residue.
	minSectionLen = 50
	minClaimLen   = 10
)

// Ensure implementation satisfies the interface
var _ Service = (*ServiceImpl)(nil)

// Service fetches interest-matched travel tips for a city. It never
// fails: errors and empty pages yield a general-advice fallback tip.
type Service interface {
	Tips(ctx context.Context, city string, interests []string) []types.Tip
}

type ServiceImpl struct {
	logger  *slog.Logger
	client  *http.Client
	baseURL string
}

func NewService(baseURL string, logger *slog.Logger) *ServiceImpl {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &ServiceImpl{
		logger:  logger,
		client:  &http.Client{Timeout: requestTimeout},
		baseURL: baseURL,
	}
}

func (s *ServiceImpl) Tips(ctx context.Context, city string, interests []string) []types.Tip {
	ctx, span := otel.Tracer("WikiService").Start(ctx, "Tips")
	defer span.End()
	span.SetAttributes(attribute.String("city", city))

	l := s.logger.With(slog.String("method", "Tips"), slog.String("city", city))

	wikitext, err := s.fetchWikitext(ctx, city)
	if err != nil {
		l.WarnContext(ctx, "Wikivoyage fetch failed, using fallback tip", slog.Any("error", err))
		span.SetStatus(codes.Ok, "Fallback tip used")
		return fallbackTips(city)
	}

	sections := splitSections(wikitext)
	tips := buildTips(city, interests, sections)
	if len(tips) == 0 {
		l.InfoContext(ctx, "No usable Wikivoyage sections, using fallback tip")
		span.SetStatus(codes.Ok, "Fallback tip used")
		return fallbackTips(city)
	}

	span.SetStatus(codes.Ok, "Tips extracted")
	return tips
}

func (s *ServiceImpl) fetchWikitext(ctx context.Context, city string) (string, error) {
	params := url.Values{}
	params.Set("action", "parse")
	params.Set("page", city)
	params.Set("format", "json")
	params.Set("prop", "wikitext")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("wikivoyage returned status %d", resp.StatusCode)
	}

	var payload struct {
		Parse struct {
			Wikitext struct {
				Content string `json:"*"`
			} `json:"wikitext"`
		} `json:"parse"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}
	if payload.Parse.Wikitext.Content == "" {
		return "", fmt.Errorf("no wikitext in response")
	}
	return payload.Parse.Wikitext.Content, nil
}

// buildTips picks sections in fixed priority: getting around is always
// useful, eat only for food interest, see/do/understand for culture.
func buildTips(city string, interests []string, sections map[string]string) []types.Tip {
	var tips []types.Tip
	counter := 1

	add := func(anchor, text, confidence string) {
		claim := firstSentence(text)
		if claim == "" {
			return
		}
		tips = append(tips, types.Tip{
			ID:    fmt.Sprintf("tip_wv_%d", counter),
			Claim: claim,
			Citations: []types.Citation{{
				Source:  types.SourceWikivoyage,
				Ref:     city,
				Anchor:  anchor,
				Snippet: claim,
			}},
			Confidence:      confidence,
			IsGeneralAdvice: false,
		})
		counter++
	}

	if text, ok := sections["get around"]; ok {
		add("Get around", text, "medium")
	}
	if hasInterest(interests, "food") {
		if text, ok := sections["eat"]; ok {
			add("Eat", text, "medium")
		}
	}
	if hasInterest(interests, "culture") {
		for _, name := range []string{"see", "do", "understand"} {
			if text, ok := sections[name]; ok {
				add(strings.ToUpper(name[:1])+name[1:], text, "high")
				break
			}
		}
	}
	return tips
}

func hasInterest(interests []string, want string) bool {
	for _, i := range interests {
		if i == want {
			return true
		}
	}
	return false
}

func fallbackTips(city string) []types.Tip {
	return []types.Tip{{
		ID:    "tip_wv_1",
		Claim: fmt.Sprintf("%s rewards unhurried exploration; check opening hours for major sights before heading out.", city),
		Citations: []types.Citation{{
			Source:  types.SourceWikivoyage,
			Ref:     city,
			Anchor:  "Overview",
			Snippet: "General travel advice",
		}},
		Confidence:      "medium",
		IsGeneralAdvice: true,
	}}
}

var headingRe = regexp.MustCompile(`^(=+)\s*(.+?)\s*=+$`)

// splitSections divides wikitext at level-2 headings. Lower-level
// headings stay inside their parent section's text.
func splitSections(wikitext string) map[string]string {
	sections := make(map[string]string)

	var current string
	var content []string

	flush := func() {
		if current == "" {
			return
		}
		cleaned := cleanMarkup(strings.Join(content, "\n"))
		if len(cleaned) > minSectionLen {
			sections[current] = cleaned
		}
	}

	for _, line := range strings.Split(wikitext, "\n") {
		m := headingRe.FindStringSubmatch(line)
		if m != nil {
			if len(m[1]) == 2 {
				flush()
				current = strings.ToLower(m[2])
				content = nil
			} else if current != "" {
				content = append(content, m[2])
			}
			continue
		}
		if current != "" {
			content = append(content, line)
		}
	}
	flush()
	return sections
}

var (
	commentRe      = regexp.MustCompile(`(?s)<!--.*?-->`)
	templateRe     = regexp.MustCompile(`\{\{[^}]*\}\}`)
	pipedLinkRe    = regexp.MustCompile(`\[\[[^|\]]+\|([^\]]+)\]\]`)
	plainLinkRe    = regexp.MustCompile(`\[\[([^\]]+)\]\]`)
	extLinkTextRe  = regexp.MustCompile(`\[https?://[^\s\]]+\s+([^\]]+)\]`)
	extLinkBareRe  = regexp.MustCompile(`\[https?://[^\]]+\]`)
	boldRe         = regexp.MustCompile(`'''([^']+)'''`)
	italicRe       = regexp.MustCompile(`''([^']+)''`)
	htmlTagRe      = regexp.MustCompile(`<[^>]*>`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
)

var entityReplacer = strings.NewReplacer(
	"&nbsp;", " ",
	"&amp;", "&",
	"&quot;", `"`,
	"&apos;", "'",
	"&lt;", "<",
	"&gt;", ">",
)

func cleanMarkup(text string) string {
	text = commentRe.ReplaceAllString(text, "")
	text = templateRe.ReplaceAllString(text, "")
	text = pipedLinkRe.ReplaceAllString(text, "$1")
	text = plainLinkRe.ReplaceAllString(text, "$1")
	text = extLinkTextRe.ReplaceAllString(text, "$1")
	text = extLinkBareRe.ReplaceAllString(text, "")
	text = boldRe.ReplaceAllString(text, "$1")
	text = italicRe.ReplaceAllString(text, "$1")
	text = htmlTagRe.ReplaceAllString(text, "")
	text = entityReplacer.Replace(text)
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

var sentenceRe = regexp.MustCompile(`[^.!?]*[.!?]`)

// firstSentence pulls the leading sentence, requiring a minimum length
// so markup residue never becomes a tip.
func firstSentence(text string) string {
	m := sentenceRe.FindString(text)
	if m == "" {
		return ""
	}
	sentence := strings.TrimSpace(strings.TrimRight(m, ".!?"))
	if len(sentence) < minClaimLen {
		return ""
	}
	r := []rune(sentence)
	if r[0] >= 'a' && r[0] <= 'z' {
		r[0] = r[0] - 'a' + 'A'
	}
	return string(r) + "."
}

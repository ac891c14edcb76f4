// Package extract holds deterministic, regex/keyword-based extractors over
// raw utterances. They run before any LLM call and serve as the recovery
// path when the model call fails. Extractors never return errors; absence
// of a match yields a zero value.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/FACorreiaa/go-voice-travel-planner/internal/types"
)

const (
	MinDays     = 2
	MaxDays     = 5
	DefaultDays = 3
)

// cityRule is one ordered pattern for city extraction. Rules are tried in
// priority order; the first match wins.
type cityRule struct {
	name string
	re   *regexp.Regexp
}

// Trailing connector words bound the city capture so "to Jaipur for 3 days"
// does not swallow "for 3 days".
var cityRules = []cityRule{
	{"preposition", regexp.MustCompile(`(?i)\b(?:to|in|at)\s+([A-Za-z][A-Za-z\s.'-]*?)(?:\s+(?:for|next|this|focused|focusing|with|on|and)\b|[,.]|$)`)},
	{"trip", regexp.MustCompile(`(?i)\btrip\s+(?:to\s+)?([A-Za-z][A-Za-z\s.'-]*?)(?:\s+(?:for|next|this|focused|focusing|with|on|and)\b|[,.]|$)`)},
	{"bare-to", regexp.MustCompile(`(?i)\bto\s+([A-Za-z]{2,40})\b`)},
}

// City returns the first city-like phrase found in the utterance, trimmed
// and quote-stripped, or "" if no rule matches.
func City(utterance string) string {
	u := strings.TrimSpace(utterance)
	if u == "" {
		return ""
	}
	for _, rule := range cityRules {
		if m := rule.re.FindStringSubmatch(u); len(m) > 1 && m[1] != "" {
			return cleanupCity(m[1])
		}
	}
	return ""
}

func cleanupCity(s string) string {
	s = strings.NewReplacer(`"`, "", "'", "", "`", "").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// paceRule maps a keyword family onto a pace value.
type paceRule struct {
	keywords []string
	pace     types.Pace
}

var paceRules = []paceRule{
	{[]string{"relaxed", "easy"}, types.PaceRelaxed},
	{[]string{"packed", "busy"}, types.PacePacked},
}

// Pace matches the utterance against fixed pace vocabularies. No match is
// a normal-pace default, not an absence.
func Pace(utterance string) types.Pace {
	lower := strings.ToLower(utterance)
	for _, rule := range paceRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.pace
			}
		}
	}
	return types.PaceNormal
}

var (
	numDaysRe = regexp.MustCompile(`(?i)(\d+)\s*day`)
	wordDays  = map[string]int{"one": 1, "two": 2, "three": 3, "four": 4, "five": 5}
	wordDayRe = regexp.MustCompile(`(?i)\b(one|two|three|four|five)\s+days?\b`)
)

// Days extracts an explicit day count ("3 days", "two days"). Values under
// MinDays coerce to DefaultDays, values over MaxDays clamp to MaxDays.
// Returns 0 when the utterance names no day count.
func Days(utterance string) int {
	n := 0
	if m := numDaysRe.FindStringSubmatch(utterance); len(m) > 1 {
		n, _ = strconv.Atoi(m[1])
	} else if m := wordDayRe.FindStringSubmatch(utterance); len(m) > 1 {
		n = wordDays[strings.ToLower(m[1])]
	}
	if n == 0 {
		return 0
	}
	return ClampDays(n)
}

// ClampDays applies the supported day range to any day count.
func ClampDays(n int) int {
	if n < MinDays {
		return DefaultDays
	}
	if n > MaxDays {
		return MaxDays
	}
	return n
}

// interestRule maps a keyword family onto an interest category.
type interestRule struct {
	keywords []string
	category string
}

var interestRules = []interestRule{
	{[]string{"culture", "history", "monument"}, "culture"},
	{[]string{"food", "eat", "restaurant"}, "food"},
}

// Interests returns the matched interest categories in rule order,
// at most one entry per category.
func Interests(utterance string) []string {
	lower := strings.ToLower(utterance)
	var out []string
	for _, rule := range interestRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				out = append(out, rule.category)
				break
			}
		}
	}
	return out
}

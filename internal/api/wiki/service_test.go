package wiki

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

const samplePage = `{{pagebanner}}
'''Jaipur''' is the capital of [[Rajasthan]].

== Understand ==
Jaipur was founded in 1727 by Maharaja Sawai Jai Singh II and is known as the Pink City for its trademark building colour. The old city is laid out on a grid.

== Get around ==
Auto rickshaws are the easiest way to move between the walled city sights, but agree the fare before boarding. Cycle rickshaws work for short hops.

=== By bus ===
Local buses run along the main axes.

== See ==
[[Amber Fort|The Amber Fort]] crowns a hill just north of the city and is the single most visited sight in Jaipur. Arrive early to beat the heat.

== Eat ==
Laal maas and dal baati churma are the signature Rajasthani dishes to seek out in the old city. Street snacks cluster around the bazaars.
`

func wikiServer(t *testing.T, wikitext string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "parse", r.URL.Query().Get("action"))
		assert.Equal(t, "wikitext", r.URL.Query().Get("prop"))
		payload := map[string]any{
			"parse": map[string]any{
				"wikitext": map[string]string{"*": wikitext},
			},
		}
		_ = json.NewEncoder(w).Encode(payload)
	}))
}

func TestTips_InterestMatchedSections(t *testing.T) {
	srv := wikiServer(t, samplePage)
	defer srv.Close()

	svc := NewService(srv.URL, testLogger())
	tips := svc.Tips(context.Background(), "Jaipur", []string{"culture", "food"})

	require.Len(t, tips, 3)

	assert.Equal(t, "Auto rickshaws are the easiest way to move between the walled city sights, but agree the fare before boarding.", tips[0].Claim)
	assert.Equal(t, "Get around", tips[0].Citations[0].Anchor)
	assert.Equal(t, "medium", tips[0].Confidence)

	assert.Contains(t, tips[1].Claim, "Laal maas")
	assert.Equal(t, "Eat", tips[1].Citations[0].Anchor)

	// Culture prefers See over Do/Understand; link markup is stripped.
	assert.Contains(t, tips[2].Claim, "The Amber Fort crowns a hill")
	assert.Equal(t, "See", tips[2].Citations[0].Anchor)
	assert.Equal(t, "high", tips[2].Confidence)

	for _, tip := range tips {
		assert.False(t, tip.IsGeneralAdvice)
		assert.Equal(t, "Jaipur", tip.Citations[0].Ref)
	}
}

func TestTips_NoFoodInterestSkipsEat(t *testing.T) {
	srv := wikiServer(t, samplePage)
	defer srv.Close()

	svc := NewService(srv.URL, testLogger())
	tips := svc.Tips(context.Background(), "Jaipur", []string{"culture"})

	for _, tip := range tips {
		assert.NotEqual(t, "Eat", tip.Citations[0].Anchor)
	}
}

func TestTips_FallbackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	svc := NewService(srv.URL, testLogger())
	tips := svc.Tips(context.Background(), "Jaipur", []string{"culture"})

	require.Len(t, tips, 1)
	assert.True(t, tips[0].IsGeneralAdvice)
	assert.Contains(t, tips[0].Claim, "Jaipur")
}

func TestTips_FallbackOnEmptyPage(t *testing.T) {
	srv := wikiServer(t, "== Stub ==\nShort.")
	defer srv.Close()

	svc := NewService(srv.URL, testLogger())
	tips := svc.Tips(context.Background(), "Jaipur", nil)

	require.Len(t, tips, 1)
	assert.True(t, tips[0].IsGeneralAdvice)
}

func TestSplitSections_LevelTwoBoundariesOnly(t *testing.T) {
	sections := splitSections(samplePage)

	require.Contains(t, sections, "get around")
	// Level-3 subheading text stays inside the parent section.
	assert.Contains(t, sections["get around"], "Local buses run along the main axes")
	assert.NotContains(t, sections, "by bus")
}

func TestCleanMarkup(t *testing.T) {
	in := "{{listing}} The '''Amber Fort''' has [[Amber Fort|great views]] and [https://example.org a site] &amp; more.<!-- note -->"
	out := cleanMarkup(in)
	assert.Equal(t, "The Amber Fort has great views and a site & more.", out)
}

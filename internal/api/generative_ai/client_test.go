package generativeAI

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) GenerateResponse(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"bare object", `{"a":1}`, `{"a":1}`, false},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`, false},
		{"surrounded by prose", `Here you go: {"a":1} hope that helps`, `{"a":1}`, false},
		{"nested braces", `{"a":{"b":2}}`, `{"a":{"b":2}}`, false},
		{"no object", "sorry, I cannot do that", "", true},
		{"reversed braces", "} {", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSONObject(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerateJSON_RetriesOnceOnParseFailure(t *testing.T) {
	g := new(MockGenerator)
	g.On("GenerateResponse", mock.Anything, "prompt").Return("not json at all", nil).Once()
	g.On("GenerateResponse", mock.Anything, mock.MatchedBy(func(p string) bool {
		return p != "prompt" // corrective instruction prepended
	})).Return(`{"value":42}`, nil).Once()

	var out struct {
		Value int `json:"value"`
	}
	err := GenerateJSON(context.Background(), g, "prompt", &out)
	require.NoError(t, err)
	assert.Equal(t, 42, out.Value)
	g.AssertExpectations(t)
}

func TestGenerateJSON_FailsAfterSecondAttempt(t *testing.T) {
	g := new(MockGenerator)
	g.On("GenerateResponse", mock.Anything, mock.Anything).Return("", errors.New("upstream down")).Twice()

	var out map[string]any
	err := GenerateJSON(context.Background(), g, "prompt", &out)
	assert.Error(t, err)
	g.AssertExpectations(t)
}

func TestGenerateJSON_NilGenerator(t *testing.T) {
	var out map[string]any
	err := GenerateJSON(context.Background(), nil, "prompt", &out)
	assert.Error(t, err)
}

package generativeAI

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"
)

const (
	defaultModel   = "gemini-2.0-flash"
	requestTimeout = 5 * time.Second

	// Every structured call shares the same system instruction; output is
	// still brace-extracted because models wrap JSON in prose anyway.
	strictJSONInstruction = "You are a strict JSON generator. Output ONLY valid JSON. No markdown. No prose."
)

// Generator is the minimal model surface the services depend on, so
// tests can substitute a mock.
type Generator interface {
	GenerateResponse(ctx context.Context, prompt string) (string, error)
}

// AIClient wraps the Gemini client with zero-temperature strict-JSON
// defaults for classification and extraction calls.
type AIClient struct {
	client *genai.Client
	model  string
}

var _ Generator = (*AIClient)(nil)

// NewAIClient builds a Gemini-backed client. Returns an error when the
// API key is absent or LLM_DISABLED is set; callers treat a nil client
// as "deterministic fallbacks only".
func NewAIClient(ctx context.Context, model string) (*AIClient, error) {
	if os.Getenv("LLM_DISABLED") == "true" {
		return nil, fmt.Errorf("LLM disabled by environment")
	}
	apiKey := os.Getenv("GOOGLE_GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GOOGLE_GEMINI_API_KEY environment variable is not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	if model == "" {
		model = defaultModel
	}
	if m := os.Getenv("GEMINI_MODEL"); m != "" {
		model = m
	}
	return &AIClient{client: client, model: model}, nil
}

// GenerateResponse sends one prompt with the strict-JSON system
// instruction and zero temperature and returns the raw candidate text.
func (ai *AIClient) GenerateResponse(ctx context.Context, prompt string) (string, error) {
	ctx, span := otel.Tracer("GenerativeAI").Start(ctx, "GenerateResponse", trace.WithAttributes(
		attribute.Int("prompt.length", len(prompt)),
		attribute.String("model", ai.model),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0),
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: strictJSONInstruction}},
		},
	}

	chat, err := ai.client.Chats.Create(ctx, ai.model, config, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create chat")
		return "", fmt.Errorf("failed to create chat: %w", err)
	}

	response, err := chat.SendMessage(ctx, genai.Part{Text: prompt})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to send message")
		return "", err
	}

	txt := response.Text()
	if txt == "" {
		span.SetStatus(codes.Error, "Empty candidate text")
		return "", fmt.Errorf("no valid content in model response")
	}

	span.SetStatus(codes.Ok, "Response generated successfully")
	return txt, nil
}

// ExtractJSONObject locates the first '{' and last '}' in raw model
// output and returns that substring, tolerating surrounding prose and
// markdown fencing.
func ExtractJSONObject(text string) (string, error) {
	first := strings.Index(text, "{")
	last := strings.LastIndex(text, "}")
	if first == -1 || last == -1 || last <= first {
		return "", fmt.Errorf("no JSON object found in model output")
	}
	return text[first : last+1], nil
}

// GenerateJSON runs a prompt and unmarshals the brace-extracted JSON
// into out. On parse failure the call is retried exactly once with a
// corrective instruction prepended; the second failure is returned.
func GenerateJSON(ctx context.Context, g Generator, prompt string, out any) error {
	if g == nil {
		return fmt.Errorf("no model client available")
	}

	err := generateJSONOnce(ctx, g, prompt, out)
	if err == nil {
		return nil
	}

	retryPrompt := "Your previous output was invalid JSON. Output ONLY valid JSON now.\n" + prompt
	if retryErr := generateJSONOnce(ctx, g, retryPrompt, out); retryErr != nil {
		return fmt.Errorf("model JSON output invalid after retry: %w", retryErr)
	}
	return nil
}

func generateJSONOnce(ctx context.Context, g Generator, prompt string, out any) error {
	txt, err := g.GenerateResponse(ctx, prompt)
	if err != nil {
		return err
	}
	jsonStr, err := ExtractJSONObject(txt)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(jsonStr), out); err != nil {
		return fmt.Errorf("failed to parse model JSON: %w", err)
	}
	return nil
}

package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/markdave123-py/scandoc/internal/core"
)

// GeminiLLM answers the label ranking prompt for the "gemini" backend.
// PromptScorer puts the document and the candidate labels in the prompt and
// expects a JSON ranking back, so the scorer always uses JSON().
type GeminiLLM struct {
	client    *genai.Client
	modelName string
	jsonMode  bool
}

func NewGeminiLLM(ctx context.Context, apiKey, modelName string) (*GeminiLLM, error) {
	cl, err := newGenaiClient(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	return &GeminiLLM{client: cl, modelName: modelName}, nil
}

// newGenaiClient falls back to GEMINI_API_KEY when apiKey is empty.
func newGenaiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}
	return genai.NewClient(ctx, option.WithAPIKey(apiKey))
}

// JSON makes every response a single JSON document, generated deterministically.
func (g *GeminiLLM) JSON() *GeminiLLM {
	g.jsonMode = true
	return g
}

func (g *GeminiLLM) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

func (g *GeminiLLM) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	m := g.client.GenerativeModel(g.modelName)
	if systemPrompt != "" {
		m.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(systemPrompt)},
		}
	}
	if g.jsonMode {
		m.ResponseMIMEType = "application/json"
		m.SetTemperature(0)
	}

	resp, err := m.GenerateContent(ctx, genai.Text(userPrompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil
	}

	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String(), nil
}

var _ core.LLMProvider = (*GeminiLLM)(nil)

package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const jsonMIMEType = "application/json"

// GeminiModel は genai SDK を使う TextModel です。
type GeminiModel struct {
	client *genai.Client
	model  string
}

func NewGeminiModel(ctx context.Context, apiKey, model string) (*GeminiModel, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  strings.TrimSpace(apiKey),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiModel{client: client, model: strings.TrimSpace(model)}, nil
}

func (m *GeminiModel) Name() string { return m.model }

func (m *GeminiModel) Complete(ctx context.Context, prompt string, structured bool) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(defaultTemperature),
	}
	if structured {
		cfg.ResponseMIMEType = jsonMIMEType
	}

	resp, err := m.client.Models.GenerateContent(ctx, m.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini %s generate content: %w", m.model, err)
	}
	return resp.Text(), nil
}

package imagegen

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiModel は genai SDK で画像を生成する ImageModel です。
type GeminiModel struct {
	client *genai.Client
	model  string
}

func NewGeminiModel(ctx context.Context, apiKey, model string) (*GeminiModel, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("missing gemini api key for image model")
	}
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

func (m *GeminiModel) Generate(ctx context.Context, prompt string) (Envelope, error) {
	resp, err := m.client.Models.GenerateContent(ctx, m.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini %s generate image: %w", m.model, err)
	}
	return &GeminiEnvelope{resp: resp}, nil
}

// GeminiEnvelope は genai の応答を包むエンベロープです。SDK がデコード済みのバイト列を返します。
type GeminiEnvelope struct {
	resp *genai.GenerateContentResponse
}

func NewGeminiEnvelope(resp *genai.GenerateContentResponse) *GeminiEnvelope {
	return &GeminiEnvelope{resp: resp}
}

func (e *GeminiEnvelope) Candidates() []Candidate {
	if e.resp == nil {
		return nil
	}
	out := make([]Candidate, 0, len(e.resp.Candidates))
	for _, c := range e.resp.Candidates {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

func (e *GeminiEnvelope) Parts(c Candidate) []Part {
	gc, ok := c.(*genai.Candidate)
	if !ok || gc.Content == nil {
		return nil
	}
	out := make([]Part, 0, len(gc.Content.Parts))
	for _, p := range gc.Content.Parts {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

func (e *GeminiEnvelope) InlineImage(p Part) (InlineData, bool) {
	gp, ok := p.(*genai.Part)
	if !ok || gp.InlineData == nil {
		return InlineData{}, false
	}
	return InlineData{MIMEType: gp.InlineData.MIMEType, Data: gp.InlineData.Data}, true
}

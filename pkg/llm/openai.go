package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go"
	ooption "github.com/openai/openai-go/option"
	oresponses "github.com/openai/openai-go/responses"
	oshared "github.com/openai/openai-go/shared"
)

// OpenAIModel は Responses API を使う TextModel です。
type OpenAIModel struct {
	client openai.Client
	model  string
}

func NewOpenAIModel(apiKey, model, baseURL string) *OpenAIModel {
	opts := []ooption.RequestOption{
		ooption.WithAPIKey(strings.TrimSpace(apiKey)),
		// モデル呼び出しは再試行しません。失敗はそのまま呼び出し元へ返します。
		ooption.WithMaxRetries(0),
	}
	if strings.TrimSpace(baseURL) != "" {
		opts = append(opts, ooption.WithBaseURL(strings.TrimSpace(baseURL)))
	}
	return &OpenAIModel{client: openai.NewClient(opts...), model: strings.TrimSpace(model)}
}

func (m *OpenAIModel) Name() string { return m.model }

func (m *OpenAIModel) Complete(ctx context.Context, prompt string, structured bool) (string, error) {
	params := oresponses.ResponseNewParams{
		Model:           oshared.ResponsesModel(m.model),
		MaxOutputTokens: openai.Int(defaultMaxTokens),
		Input:           oresponses.ResponseNewParamsInputUnion{OfString: openai.String(prompt)},
	}
	if structured {
		obj := oshared.NewResponseFormatJSONObjectParam()
		params.Text = oresponses.ResponseTextConfigParam{
			Format: oresponses.ResponseFormatTextConfigUnionParam{OfJSONObject: &obj},
		}
	}

	resp, err := m.client.Responses.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai %s response: %w", m.model, err)
	}
	return resp.OutputText(), nil
}

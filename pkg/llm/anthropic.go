package llm

import (
	"context"
	"fmt"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	aoption "github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicModel は Messages API を使う TextModel です。
// Messages API には JSON モードが無いため、structured はプロンプト側の指示に任せます。
type AnthropicModel struct {
	client anthropic.Client
	model  string
}

func NewAnthropicModel(apiKey, model, baseURL string) *AnthropicModel {
	opts := []aoption.RequestOption{
		aoption.WithAPIKey(strings.TrimSpace(apiKey)),
		// モデル呼び出しは再試行しません。失敗はそのまま呼び出し元へ返します。
		aoption.WithMaxRetries(0),
	}
	if strings.TrimSpace(baseURL) != "" {
		opts = append(opts, aoption.WithBaseURL(strings.TrimSpace(baseURL)))
	}
	return &AnthropicModel{client: anthropic.NewClient(opts...), model: strings.TrimSpace(model)}
}

func (m *AnthropicModel) Name() string { return m.model }

func (m *AnthropicModel) Complete(ctx context.Context, prompt string, _ bool) (string, error) {
	msg, err := m.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(m.model),
		MaxTokens: defaultMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic %s message: %w", m.model, err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(tb.Text)
		}
	}
	return sb.String(), nil
}

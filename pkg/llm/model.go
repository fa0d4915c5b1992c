// Package llm はテキスト生成モデルの共通インターフェースとプロバイダ別の実装を提供します。
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"

	defaultTemperature = float32(0.7)
	defaultMaxTokens   = int64(4096)
)

// TextModel はプロンプトからテキストを生成するモデルです。
// structured が true の場合、モデルには機械可読な JSON 出力を要求しますが、
// 返されたテキストが正しい JSON である保証はありません。
type TextModel interface {
	Complete(ctx context.Context, prompt string, structured bool) (string, error)
	// Name はメタデータに記録するモデル名です。
	Name() string
}

// New は provider に対応する TextModel を構築します。baseURL は OpenAI/Anthropic 互換ゲートウェイ向けです。
func New(ctx context.Context, provider, apiKey, model, baseURL string) (TextModel, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		provider = ProviderGemini
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("missing %s api key", provider)
	}
	if strings.TrimSpace(model) == "" {
		return nil, errors.New("missing text model name")
	}

	switch provider {
	case ProviderGemini:
		return NewGeminiModel(ctx, apiKey, model)
	case ProviderOpenAI:
		return NewOpenAIModel(apiKey, model, baseURL), nil
	case ProviderAnthropic:
		return NewAnthropicModel(apiKey, model, baseURL), nil
	default:
		return nil, fmt.Errorf("unsupported text provider %q", provider)
	}
}

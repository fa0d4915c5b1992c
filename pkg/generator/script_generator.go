package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/llm"
	"github.com/shouni/go-comic-kit/pkg/prompts"
)

var jsonBlockRegex = regexp.MustCompile("(?s)```(?:json)?\\s*(.*\\S)\\s*```")

// ScriptGenerator はテキスト生成モデルから指定数のパネルを持つ台本を得ます。
type ScriptGenerator struct {
	model         llm.TextModel
	promptBuilder prompts.ScriptPromptBuilder
}

// NewScriptGenerator は依存関係を注入して ScriptGenerator を初期化します。
func NewScriptGenerator(model llm.TextModel, pb prompts.ScriptPromptBuilder) (*ScriptGenerator, error) {
	if model == nil {
		return nil, errors.New("text model is required")
	}
	if pb == nil {
		return nil, errors.New("script prompt builder is required")
	}
	return &ScriptGenerator{model: model, promptBuilder: pb}, nil
}

// Generate は文脈テキストから panelCount 件ちょうどのパネルを持つ台本を生成します。
// モデルが不足分しか返さない場合は最後のパネルを複製して補い、欠けたフィールドは既定値で埋めます。
func (g *ScriptGenerator) Generate(ctx context.Context, contextText, topic string, panelCount int) (domain.Script, error) {
	if panelCount < 1 {
		return domain.Script{}, domain.NewValidationError("panel count must be at least 1, got %d", panelCount)
	}

	finalPrompt, err := g.promptBuilder.Build(prompts.ModeScript, prompts.TemplateData{
		Topic:      topic,
		Context:    contextText,
		PanelCount: panelCount,
	})
	if err != nil {
		return domain.Script{}, domain.NewGenerationError(fmt.Errorf("プロンプト生成に失敗: %w", err))
	}

	slog.InfoContext(ctx, "ScriptGenerator: Calling text model", "model", g.model.Name(), "panel_count", panelCount)
	raw, err := g.model.Complete(ctx, finalPrompt, true)
	if err != nil {
		return domain.Script{}, domain.NewGenerationError(err)
	}

	script, err := parseScript(raw)
	if err != nil {
		return domain.Script{}, err
	}
	if len(script.Panels) == 0 {
		return domain.Script{}, domain.NewEmptyScriptError()
	}

	switch got := len(script.Panels); {
	case got < panelCount:
		slog.WarnContext(ctx, "Model returned fewer panels than requested; padding with last panel",
			"got", got, "expected", panelCount)
	case got > panelCount:
		slog.InfoContext(ctx, "Model returned extra panels; truncating", "got", got, "expected", panelCount)
	}
	script.Panels = domain.Panels(script.Panels).PadTo(panelCount)

	return script, nil
}

// parseScript はモデルの応答から台本を取り出します。
// コードフェンスや前後の説明文は取り除き、JSON として解析できなければ GenerationFormatError を返します。
func parseScript(raw string) (domain.Script, error) {
	trimmed := strings.TrimSpace(raw)
	var rawJSON string

	matches := jsonBlockRegex.FindStringSubmatch(trimmed)
	if len(matches) > 1 {
		rawJSON = matches[1]
	} else if span, ok := outermostJSON(trimmed); ok {
		// Fallback 1: Use the outermost JSON object or array.
		rawJSON = span
	} else {
		// Fallback 2: Assume the entire response is JSON.
		rawJSON = trimmed
	}

	var doc any
	if err := json.Unmarshal([]byte(rawJSON), &doc); err != nil {
		return domain.Script{}, domain.NewGenerationFormatError(raw, err)
	}

	var (
		script    domain.Script
		rawPanels any
	)
	switch v := doc.(type) {
	case map[string]any:
		if title, ok := v["title"].(string); ok {
			script.Title = strings.TrimSpace(title)
		}
		rawPanels = v["panels"]
	case []any:
		rawPanels = v
	default:
		return domain.Script{}, domain.NewGenerationFormatError(raw, fmt.Errorf("unexpected top-level JSON type %T", doc))
	}

	items, _ := rawPanels.([]any)
	script.Panels = make([]domain.Panel, 0, len(items))
	for _, item := range items {
		script.Panels = append(script.Panels, panelFrom(item))
	}
	return script, nil
}

// outermostJSON は最初に現れる '{' または '[' から、対応する種類の最後の閉じ括弧までを返します。
// 配列が先に現れる場合は配列全体を、そうでなければオブジェクト全体を切り出します。
func outermostJSON(s string) (string, bool) {
	first := strings.IndexAny(s, "{[")
	if first == -1 {
		return "", false
	}
	closing := "}"
	if s[first] == '[' {
		closing = "]"
	}
	last := strings.LastIndex(s, closing)
	if last <= first {
		return "", false
	}
	return s[first : last+1], true
}

// panelFrom はオブジェクトでない要素や文字列でないフィールドを欠落として扱います。
func panelFrom(item any) domain.Panel {
	var p domain.Panel
	if m, ok := item.(map[string]any); ok {
		p.Description, _ = m["description"].(string)
		p.Dialogue, _ = m["dialogue"].(string)
	}
	return p.Normalized()
}

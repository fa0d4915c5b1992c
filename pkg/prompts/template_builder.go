package prompts

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"text/template"
)

// funcs はテンプレートから使えるヘルパーです。
// quote はトピックに引用符が含まれてもプロンプトの構造が崩れないようにエスケープします。
var funcs = template.FuncMap{
	"quote": strconv.Quote,
	"trim":  strings.TrimSpace,
}

// TextPromptBuilder はモードごとに解析済みのテキスト生成用テンプレートを保持します。
type TextPromptBuilder struct {
	templates map[string]*template.Template
}

// NewTextPromptBuilder は埋め込みテンプレートから TextPromptBuilder を初期化します。
func NewTextPromptBuilder() (*TextPromptBuilder, error) {
	return newTextPromptBuilder(allTemplates)
}

func newTextPromptBuilder(sources map[string]string) (*TextPromptBuilder, error) {
	b := &TextPromptBuilder{templates: make(map[string]*template.Template, len(sources))}
	for mode, src := range sources {
		if strings.TrimSpace(src) == "" {
			return nil, fmt.Errorf("プロンプトテンプレート '%s' が空です", mode)
		}
		tmpl, err := template.New(mode).Funcs(funcs).Option("missingkey=error").Parse(src)
		if err != nil {
			return nil, fmt.Errorf("プロンプト '%s' の解析に失敗: %w", mode, err)
		}
		b.templates[mode] = tmpl
	}
	return b, nil
}

// Modes は利用できるモード名を昇順で返します。
func (b *TextPromptBuilder) Modes() []string {
	modes := make([]string, 0, len(b.templates))
	for m := range b.templates {
		modes = append(modes, m)
	}
	sort.Strings(modes)
	return modes
}

// Build は mode のテンプレートに data を埋め込んだプロンプトを返します。
func (b *TextPromptBuilder) Build(mode string, data TemplateData) (string, error) {
	tmpl, ok := b.templates[mode]
	if !ok {
		return "", fmt.Errorf("不明なモードです: '%s' (利用可能: %s)", mode, strings.Join(b.Modes(), ", "))
	}
	if err := data.validate(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("プロンプトテンプレートの実行に失敗しました: %w", err)
	}
	return buf.String(), nil
}

func (d TemplateData) validate() error {
	if d.PanelCount < 1 {
		return fmt.Errorf("panel count must be positive, got %d", d.PanelCount)
	}
	if strings.TrimSpace(d.Topic) == "" {
		return errors.New("topic is required")
	}
	return nil
}

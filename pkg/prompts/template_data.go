package prompts

import (
	_ "embed"
)

const (
	ModeScript = "script"
)

// TemplateData は台本プロンプトのテンプレートに渡すデータ構造です。
type TemplateData struct {
	Topic      string
	Context    string
	PanelCount int
}

var (
	//go:embed script.md
	ScriptPrompt string
)

// allTemplates はモードとテンプレート文字列を紐づけるマップです。
var allTemplates = map[string]string{
	ModeScript: ScriptPrompt,
}

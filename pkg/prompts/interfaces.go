package prompts

// ScriptPromptBuilder は台本生成プロンプトを構築する契約です。
type ScriptPromptBuilder interface {
	// Build は、指定されたモードとデータに基づいてプロンプト文字列を生成します。
	Build(mode string, data TemplateData) (string, error)
}

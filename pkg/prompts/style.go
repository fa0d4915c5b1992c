package prompts

import "strings"

// DefaultStyleHint はすべてのパネル画像プロンプトの先頭に付ける画風の指定です。
const DefaultStyleHint = "clean comic-book art, bold ink outlines, flat colors, readable composition, square layout, gently stylized, scientific illustration style for NASA content. "

// DefaultArtStyle はメタデータに記録する画風のタグです。
const DefaultArtStyle = "comic-book"

// ImagePrompt は画風の指定とパネルの描写を連結した画像プロンプトを返します。
func ImagePrompt(styleHint, description string) string {
	if styleHint != "" && !strings.HasSuffix(styleHint, " ") {
		styleHint += " "
	}
	return styleHint + description
}

package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextPromptBuilder_Build(t *testing.T) {
	b, err := NewTextPromptBuilder()
	require.NoError(t, err)

	t.Run("パネル数と文脈を埋め込むこと", func(t *testing.T) {
		got, err := b.Build(ModeScript, TemplateData{
			Topic:      "microgravity and plants",
			Context:    "Roots follow light in orbit.",
			PanelCount: 8,
		})
		require.NoError(t, err)
		assert.Contains(t, got, "8-panel comic script")
		assert.Contains(t, got, "exactly 8 objects")
		assert.Contains(t, got, `"microgravity and plants"`)
		assert.Contains(t, got, "Roots follow light in orbit.")
		assert.Contains(t, got, `"panels"`)
	})

	t.Run("トピックの引用符をエスケープすること", func(t *testing.T) {
		got, err := b.Build(ModeScript, TemplateData{Topic: `the "Veggie" garden`, Context: "  ctx  ", PanelCount: 4})
		require.NoError(t, err)
		assert.Contains(t, got, `"the \"Veggie\" garden"`)
		assert.Contains(t, got, "\nctx\n")
	})

	t.Run("不明なモードはエラー", func(t *testing.T) {
		_, err := b.Build("summary", TemplateData{Topic: "x", PanelCount: 1})
		assert.ErrorContains(t, err, ModeScript)
	})

	t.Run("トピックが空ならエラー", func(t *testing.T) {
		_, err := b.Build(ModeScript, TemplateData{PanelCount: 4})
		assert.Error(t, err)
	})

	t.Run("パネル数が0ならエラー", func(t *testing.T) {
		_, err := b.Build(ModeScript, TemplateData{Topic: "x"})
		assert.Error(t, err)
	})
}

func TestImagePrompt(t *testing.T) {
	assert.Equal(t, DefaultStyleHint+"a rover", ImagePrompt(DefaultStyleHint, "a rover"))
	assert.Equal(t, "ink. a rover", ImagePrompt("ink.", "a rover"))
	assert.Equal(t, "a rover", ImagePrompt("", "a rover"))
}

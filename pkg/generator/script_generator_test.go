package generator

import (
	"context"
	"errors"
	"testing"

	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/prompts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScriptGenerator(t *testing.T, m *fakeTextModel) *ScriptGenerator {
	t.Helper()
	pb, err := prompts.NewTextPromptBuilder()
	require.NoError(t, err)
	g, err := NewScriptGenerator(m, pb)
	require.NoError(t, err)
	return g
}

func TestScriptGenerator_Generate(t *testing.T) {
	ctx := context.Background()

	t.Run("要求数ちょうどのパネルを返すこと", func(t *testing.T) {
		m := &fakeTextModel{response: `{"title":"Roots","panels":[
			{"description":"a","dialogue":"1"},{"description":"b","dialogue":"2"},
			{"description":"c","dialogue":"3"},{"description":"d","dialogue":"4"}]}`}
		g := newTestScriptGenerator(t, m)

		s, err := g.Generate(ctx, "context text", "plants", 4)
		require.NoError(t, err)
		assert.Equal(t, "Roots", s.Title)
		require.Len(t, s.Panels, 4)
		assert.Equal(t, "d", s.Panels[3].Description)

		require.Len(t, m.prompts, 1)
		assert.Contains(t, m.prompts[0], "context text")
		assert.Contains(t, m.prompts[0], "exactly 4 objects")
	})

	t.Run("不足分を最後のパネルで補うこと", func(t *testing.T) {
		g := newTestScriptGenerator(t, &fakeTextModel{
			response: `{"panels":[{"description":"a","dialogue":"1"},{"description":"b","dialogue":"2"}]}`,
		})

		s, err := g.Generate(ctx, "ctx", "topic", 5)
		require.NoError(t, err)
		require.Len(t, s.Panels, 5)
		for _, p := range s.Panels[1:] {
			assert.Equal(t, domain.Panel{Description: "b", Dialogue: "2"}, p)
		}
	})

	t.Run("超過分を切り詰めること", func(t *testing.T) {
		g := newTestScriptGenerator(t, &fakeTextModel{
			response: `{"panels":[{"description":"a"},{"description":"b"},{"description":"c"}]}`,
		})

		s, err := g.Generate(ctx, "ctx", "topic", 2)
		require.NoError(t, err)
		assert.Len(t, s.Panels, 2)
	})

	t.Run("欠けたフィールドは既定値で埋めること", func(t *testing.T) {
		g := newTestScriptGenerator(t, &fakeTextModel{
			response: "```json\n{\"panels\":[{\"dialogue\":\" hi \"},{\"description\":42},\"junk\"]}\n```",
		})

		s, err := g.Generate(ctx, "ctx", "topic", 3)
		require.NoError(t, err)
		assert.Equal(t, []domain.Panel{
			{Description: domain.DefaultPanelDescription, Dialogue: "hi"},
			{Description: domain.DefaultPanelDescription},
			{Description: domain.DefaultPanelDescription},
		}, s.Panels)
	})

	t.Run("前後の説明文を無視すること", func(t *testing.T) {
		g := newTestScriptGenerator(t, &fakeTextModel{
			response: `Sure! Here is the script: {"panels":[{"description":"x","dialogue":"y"}]} Enjoy.`,
		})

		s, err := g.Generate(ctx, "ctx", "topic", 1)
		require.NoError(t, err)
		assert.Equal(t, "x", s.Panels[0].Description)
	})

	t.Run("トップレベルの配列をパネル一覧として扱うこと", func(t *testing.T) {
		m := &fakeTextModel{response: `[{"description":"a","dialogue":"1"},{"description":"b","dialogue":"2"}]`}
		g := newTestScriptGenerator(t, m)

		s, err := g.Generate(ctx, "ctx", "topic", 2)
		require.NoError(t, err)
		assert.Empty(t, s.Title)
		assert.Equal(t, []domain.Panel{{Description: "a", Dialogue: "1"}, {Description: "b", Dialogue: "2"}}, s.Panels)
	})

	t.Run("説明文に囲まれた配列も取り出すこと", func(t *testing.T) {
		m := &fakeTextModel{response: `Here you go: [{"description":"only","dialogue":"hi"}] Have fun!`}
		g := newTestScriptGenerator(t, m)

		s, err := g.Generate(ctx, "ctx", "topic", 1)
		require.NoError(t, err)
		assert.Equal(t, []domain.Panel{{Description: "only", Dialogue: "hi"}}, s.Panels)
	})

	t.Run("JSONでない応答はGenerationFormatErrorになること", func(t *testing.T) {
		raw := "I'm sorry, I cannot help with that."
		g := newTestScriptGenerator(t, &fakeTextModel{response: raw})

		s, err := g.Generate(ctx, "ctx", "topic", 4)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrGenerationFormat))
		assert.Empty(t, s.Panels)

		var de *domain.Error
		require.ErrorAs(t, err, &de)
		assert.Equal(t, raw, de.Raw)
	})

	t.Run("空のパネル配列はEmptyScriptErrorになること", func(t *testing.T) {
		for _, resp := range []string{`{"panels":[]}`, `{"title":"x"}`, `{"panels":"none"}`} {
			g := newTestScriptGenerator(t, &fakeTextModel{response: resp})
			_, err := g.Generate(ctx, "ctx", "topic", 4)
			assert.ErrorIs(t, err, domain.ErrEmptyScript, resp)
		}
	})

	t.Run("モデル呼び出しの失敗はGenerationErrorになること", func(t *testing.T) {
		g := newTestScriptGenerator(t, &fakeTextModel{err: errors.New("quota exceeded")})
		_, err := g.Generate(ctx, "ctx", "topic", 4)
		assert.ErrorIs(t, err, domain.ErrGeneration)
		assert.ErrorContains(t, err, "quota exceeded")
	})

	t.Run("パネル数が0ならValidationError", func(t *testing.T) {
		g := newTestScriptGenerator(t, &fakeTextModel{})
		_, err := g.Generate(ctx, "ctx", "topic", 0)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestOutermostJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"オブジェクト", `x {"a":[1]} y`, `{"a":[1]}`, true},
		{"配列", `x [{"a":1},{"b":2}] y`, `[{"a":1},{"b":2}]`, true},
		{"括弧なし", "no json here", "", false},
		{"閉じ括弧なし", `[{"a":1}`, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := outermostJSON(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewScriptGenerator_RequiresDependencies(t *testing.T) {
	_, err := NewScriptGenerator(nil, nil)
	assert.Error(t, err)
}

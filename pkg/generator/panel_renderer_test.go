package generator

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/imagegen"
	"github.com/shouni/go-comic-kit/pkg/prompts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPanelRenderer_Render(t *testing.T) {
	ctx := context.Background()
	data := pngBytes(t, color.RGBA{R: 200, A: 255})

	t.Run("画風の指定を前置して画像を取り出すこと", func(t *testing.T) {
		m := &fakeImageModel{generate: func(string) (imagegen.Envelope, error) { return imageEnvelope(t, data), nil }}
		r, err := NewPanelRenderer(m, RendererConfig{StyleHint: prompts.DefaultStyleHint})
		require.NoError(t, err)

		art, err := r.Render(ctx, domain.Panel{Description: "a plant", Dialogue: "hello"})
		require.NoError(t, err)
		assert.Equal(t, data, art.Data())
		assert.Equal(t, "image/png", art.Image.MimeType)
		assert.Equal(t, "hello", art.Dialogue)
		assert.Equal(t, []string{prompts.DefaultStyleHint + "a plant"}, m.prompts)
	})

	t.Run("テキストだけの応答はNoImageInResponseError", func(t *testing.T) {
		m := &fakeImageModel{generate: func(string) (imagegen.Envelope, error) { return textOnlyEnvelope(t), nil }}
		r, err := NewPanelRenderer(m, RendererConfig{})
		require.NoError(t, err)

		_, err = r.Render(ctx, domain.Panel{Description: "x"})
		assert.ErrorIs(t, err, domain.ErrNoImageInResponse)
	})

	t.Run("base64として壊れたデータは画像とみなさないこと", func(t *testing.T) {
		env, err := imagegen.ParseJSONEnvelope([]byte(`{"candidates":[{"content":{"parts":[{"inlineData":{"mimeType":"image/png","data":"!!!"}}]}}]}`))
		require.NoError(t, err)
		m := &fakeImageModel{generate: func(string) (imagegen.Envelope, error) { return env, nil }}
		r, err := NewPanelRenderer(m, RendererConfig{})
		require.NoError(t, err)

		_, err = r.Render(ctx, domain.Panel{Description: "x"})
		assert.ErrorIs(t, err, domain.ErrNoImageInResponse)
		assert.ErrorContains(t, err, "undecodable")
	})

	t.Run("image以外のMIMEタイプは無視すること", func(t *testing.T) {
		env, err := imagegen.ParseJSONEnvelope([]byte(`{"candidates":[{"content":{"parts":[{"inlineData":{"mimeType":"text/plain","data":"aGk="}}]}}]}`))
		require.NoError(t, err)
		m := &fakeImageModel{generate: func(string) (imagegen.Envelope, error) { return env, nil }}
		r, err := NewPanelRenderer(m, RendererConfig{})
		require.NoError(t, err)

		_, err = r.Render(ctx, domain.Panel{Description: "x"})
		assert.ErrorIs(t, err, domain.ErrNoImageInResponse)
	})

	t.Run("モデル呼び出しの失敗はImageGenerationError", func(t *testing.T) {
		m := &fakeImageModel{generate: func(string) (imagegen.Envelope, error) { return nil, errors.New("503") }}
		r, err := NewPanelRenderer(m, RendererConfig{})
		require.NoError(t, err)

		_, err = r.Render(ctx, domain.Panel{Description: "x"})
		assert.ErrorIs(t, err, domain.ErrImageGeneration)
	})
}

func TestPanelRenderer_RenderAll(t *testing.T) {
	ctx := context.Background()
	panels := []domain.Panel{
		{Description: "p1", Dialogue: "d1"},
		{Description: "p2", Dialogue: "d2"},
		{Description: "p3", Dialogue: "d3"},
		{Description: "p4", Dialogue: "d4"},
	}

	t.Run("並列でも入力順を保つこと", func(t *testing.T) {
		m := &fakeImageModel{generate: func(p string) (imagegen.Envelope, error) {
			return imageEnvelope(t, []byte(p)), nil
		}}
		r, err := NewPanelRenderer(m, RendererConfig{Concurrency: 4})
		require.NoError(t, err)

		arts, err := r.RenderAll(ctx, panels)
		require.NoError(t, err)
		require.Len(t, arts, 4)
		for i, a := range arts {
			assert.Equal(t, fmt.Sprintf("p%d", i+1), string(a.Data()))
			assert.Equal(t, fmt.Sprintf("d%d", i+1), a.Dialogue)
		}
	})

	t.Run("1パネルの失敗でリクエスト全体を中断すること", func(t *testing.T) {
		var calls atomic.Int32
		m := &fakeImageModel{generate: func(p string) (imagegen.Envelope, error) {
			calls.Add(1)
			if strings.HasSuffix(p, "p2") {
				return textOnlyEnvelope(t), nil
			}
			return imageEnvelope(t, pngBytes(t, color.White)), nil
		}}
		r, err := NewPanelRenderer(m, RendererConfig{Concurrency: 1})
		require.NoError(t, err)

		arts, err := r.RenderAll(ctx, panels)
		require.Error(t, err)
		assert.Nil(t, arts)
		assert.ErrorIs(t, err, domain.ErrNoImageInResponse)
		assert.ErrorContains(t, err, "panel 2 generation failed")
		assert.EqualValues(t, 2, calls.Load())
	})
}

package generator

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/shouni/go-comic-kit/pkg/imagegen"
)

type fakeTextModel struct {
	response string
	err      error
	prompts  []string
}

func (m *fakeTextModel) Name() string { return "fake-text" }

func (m *fakeTextModel) Complete(_ context.Context, prompt string, structured bool) (string, error) {
	if !structured {
		return "", fmt.Errorf("structured output was not requested")
	}
	m.prompts = append(m.prompts, prompt)
	return m.response, m.err
}

type fakeImageModel struct {
	mu       sync.Mutex
	generate func(prompt string) (imagegen.Envelope, error)
	prompts  []string
}

func (m *fakeImageModel) Name() string { return "fake-image" }

func (m *fakeImageModel) Generate(_ context.Context, prompt string) (imagegen.Envelope, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	return m.generate(prompt)
}

func pngBytes(t *testing.T, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

func imageEnvelope(t *testing.T, data []byte) imagegen.Envelope {
	t.Helper()
	body := fmt.Sprintf(`{"candidates":[{"content":{"parts":[{"text":"ok"},{"inlineData":{"mimeType":"image/png","data":%q}}]}}]}`,
		base64.StdEncoding.EncodeToString(data))
	env, err := imagegen.ParseJSONEnvelope([]byte(body))
	if err != nil {
		t.Fatalf("envelope: %v", err)
	}
	return env
}

func textOnlyEnvelope(t *testing.T) imagegen.Envelope {
	t.Helper()
	env, err := imagegen.ParseJSONEnvelope([]byte(`{"candidates":[{"content":{"parts":[{"text":"I can't draw that."}]},"finishReason":"SAFETY"}]}`))
	if err != nil {
		t.Fatalf("envelope: %v", err)
	}
	return env
}

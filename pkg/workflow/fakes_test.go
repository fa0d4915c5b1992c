package workflow

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/shouni/go-comic-kit/pkg/asset"
	"github.com/shouni/go-comic-kit/pkg/imagegen"
	"github.com/shouni/go-comic-kit/pkg/publisher"
	"github.com/shouni/go-comic-kit/pkg/retrieval"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu     sync.Mutex
	result retrieval.Result
	err    error
	topics []string
	opts   []retrieval.Options
}

func (b *fakeBackend) Query(_ context.Context, topic string, opts retrieval.Options) (retrieval.Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.topics = append(b.topics, topic)
	b.opts = append(b.opts, opts)
	return b.result, b.err
}

func chunkResult(contents ...string) retrieval.Result {
	chunks := make([]any, 0, len(contents))
	for _, c := range contents {
		chunks = append(chunks, map[string]any{"content": c})
	}
	return map[string]any{"data": map[string]any{"chunks": chunks}}
}

type fakeTextModel struct {
	mu       sync.Mutex
	response string
	err      error
	prompts  []string
}

func (m *fakeTextModel) Name() string { return "fake-text" }

func (m *fakeTextModel) Complete(_ context.Context, prompt string, _ bool) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	return m.response, m.err
}

func (m *fakeTextModel) lastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

type fakeImageModel struct {
	generate func(prompt string) (imagegen.Envelope, error)
}

func (m *fakeImageModel) Name() string { return "fake-image" }

func (m *fakeImageModel) Generate(_ context.Context, prompt string) (imagegen.Envelope, error) {
	return m.generate(prompt)
}

// scriptJSON は n 件のパネルを持つ台本の JSON を返します。
func scriptJSON(t *testing.T, title string, n int) string {
	t.Helper()
	panels := make([]map[string]string, n)
	for i := range panels {
		panels[i] = map[string]string{
			"description": fmt.Sprintf("panel %d: a seedling floating in the ISS", i+1),
			"dialogue":    fmt.Sprintf("line %d", i+1),
		}
	}
	b, err := json.Marshal(map[string]any{"title": title, "panels": panels})
	require.NoError(t, err)
	return string(b)
}

// blankDialogueScriptJSON は全パネルのセリフが空の台本の JSON を返します。
func blankDialogueScriptJSON(t *testing.T, title string, n int) string {
	t.Helper()
	panels := make([]map[string]string, n)
	for i := range panels {
		panels[i] = map[string]string{
			"description": fmt.Sprintf("panel %d: a seedling floating in the ISS", i+1),
			"dialogue":    "",
		}
	}
	b, err := json.Marshal(map[string]any{"title": title, "panels": panels})
	require.NoError(t, err)
	return string(b)
}

// failingComicWriter はページ画像をローカルに書き、代表ページ (comic_<id>.png) の書き込みだけ失敗させます。
type failingComicWriter struct {
	mu        sync.Mutex
	pageCount int
}

func (w *failingComicWriter) Write(ctx context.Context, path string, r io.Reader, contentType string) error {
	if asset.ComicFileRegex.MatchString(filepath.Base(path)) {
		return fmt.Errorf("write %s: disk full", path)
	}
	w.mu.Lock()
	w.pageCount++
	w.mu.Unlock()
	return publisher.LocalWriter{}.Write(ctx, path, r, contentType)
}

func (w *failingComicWriter) pages() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pageCount
}

func pngBytes(t *testing.T, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func imageEnvelope(t *testing.T, data []byte) imagegen.Envelope {
	t.Helper()
	body := fmt.Sprintf(`{"candidates":[{"content":{"parts":[{"inlineData":{"mimeType":"image/png","data":%q}}]}}]}`,
		base64.StdEncoding.EncodeToString(data))
	env, err := imagegen.ParseJSONEnvelope([]byte(body))
	require.NoError(t, err)
	return env
}

func textOnlyEnvelope(t *testing.T) imagegen.Envelope {
	t.Helper()
	env, err := imagegen.ParseJSONEnvelope([]byte(`{"candidates":[{"content":{"parts":[{"text":"Sorry, I cannot draw that."}]},"finishReason":"SAFETY"}]}`))
	require.NoError(t, err)
	return env
}

// pngFiles は dir 以下の全ての PNG ファイルを返します。
func pngFiles(t *testing.T, dir string) []string {
	t.Helper()
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".png") {
			files = append(files, path)
		}
		return nil
	})
	require.NoError(t, err)
	return files
}

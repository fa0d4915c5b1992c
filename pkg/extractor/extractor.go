// Package extractor は検索バックエンドの応答を台本生成用の1つのテキストブロックに正規化します。
package extractor

import (
	"encoding/json"
	"strings"

	"github.com/PaesslerAG/jsonpath"
)

const (
	rawContextPath = "$.raw_context"
	chunkSeparator = "\n\n"
)

// chunkPaths は chunks 配列を探す順序です。LightRAG の /query/data は data 配下に置きます。
var chunkPaths = []string{"$.chunks", "$.data.chunks"}

// Context は抽出結果です。Text が空の場合、呼び出し元がプレースホルダーを用意します。
type Context struct {
	Text string
	// ChunksUsed は Text に含めたチャンク数です。raw_context を採用した場合は 0 です。
	ChunksUsed     int
	FromRawContext bool
}

// Empty は使えるテキストが得られなかったかどうかを返します。
func (c Context) Empty() bool { return c.Text == "" }

// Extract は result から文脈テキストを取り出します。
// 空白以外を含む raw_context があればそれを優先し、無ければ先頭 maxChunks 件のチャンクのうち
// content が空でないものを順に空行で連結します。
// 想定外の形状は失敗させず、空の Context を返します。
func Extract(result any, maxChunks int) Context {
	doc, ok := normalize(result)
	if !ok {
		return Context{}
	}

	if raw, ok := lookupString(doc, rawContextPath); ok {
		if text := strings.TrimSpace(raw); text != "" {
			return Context{Text: text, FromRawContext: true}
		}
	}

	chunks := lookupChunks(doc)
	if maxChunks < 1 {
		maxChunks = 1
	}
	if len(chunks) > maxChunks {
		chunks = chunks[:maxChunks]
	}

	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		m, ok := c.(map[string]any)
		if !ok {
			continue
		}
		content, ok := m["content"].(string)
		if !ok {
			continue
		}
		if content = strings.TrimSpace(content); content != "" {
			parts = append(parts, content)
		}
	}

	return Context{
		Text:       strings.TrimSpace(strings.Join(parts, chunkSeparator)),
		ChunksUsed: len(parts),
	}
}

// normalize は任意の入力を jsonpath が辿れる map/slice の形に揃えます。
func normalize(result any) (any, bool) {
	switch v := result.(type) {
	case nil:
		return nil, false
	case map[string]any:
		return v, true
	case []byte:
		return decode(v)
	case json.RawMessage:
		return decode(v)
	case string:
		return decode([]byte(v))
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, false
		}
		return decode(b)
	}
}

func decode(b []byte) (any, bool) {
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, false
	}
	if _, ok := doc.(map[string]any); !ok {
		return nil, false
	}
	return doc, true
}

func lookupString(doc any, expr string) (string, bool) {
	v, err := jsonpath.Get(expr, doc)
	if err != nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func lookupChunks(doc any) []any {
	for _, expr := range chunkPaths {
		v, err := jsonpath.Get(expr, doc)
		if err != nil {
			continue
		}
		if arr, ok := v.([]any); ok && len(arr) > 0 {
			return arr
		}
	}
	return nil
}

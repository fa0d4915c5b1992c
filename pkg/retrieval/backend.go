package retrieval

import "context"

// Result は検索バックエンドの応答をデコードしたままの値です。
// 形状はバックエンドごとに異なるため、解釈は extractor に任せます。
type Result = any

// Options は検索時のヒントです。対応していない項目は無視されても構いません。
type Options struct {
	TopK           int    `json:"top_k,omitempty"`
	ChunkTopK      int    `json:"chunk_top_k,omitempty"`
	Mode           string `json:"mode,omitempty"`
	ContextOnly    bool   `json:"only_need_context,omitempty"`
	MaxTotalTokens int    `json:"max_total_tokens,omitempty"`
	EnableRerank   bool   `json:"enable_rerank"`
}

const (
	DefaultMode           = "mix"
	DefaultMaxTotalTokens = 2000
)

// NewOptions は maxChunks を top_k と chunk_top_k の両方に適用した既定オプションを返します。
func NewOptions(maxChunks int) Options {
	return Options{
		TopK:           maxChunks,
		ChunkTopK:      maxChunks,
		Mode:           DefaultMode,
		ContextOnly:    true,
		MaxTotalTokens: DefaultMaxTotalTokens,
	}
}

// Backend は知識検索バックエンドの契約です。
type Backend interface {
	Query(ctx context.Context, topic string, opts Options) (Result, error)
}

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shouni/go-comic-kit/pkg/llm"
	"github.com/shouni/go-comic-kit/pkg/prompts"
	"github.com/shouni/go-comic-kit/pkg/workflow"
	"github.com/shouni/go-utils/envutil"
	"github.com/spf13/viper"
)

// デフォルト値の定義なのだ
const (
	DefaultTextProvider     = llm.ProviderGemini
	DefaultRetrievalBackend = BackendLightRAG
	DefaultLightRAGURL      = "http://localhost:9621"
	DefaultKnowledgeDB      = "data/knowledge.db" // ingest コマンドが書き込むローカル知識ベースなのだ
	DefaultCatalogDB        = "data/catalog.db"   // 完成したコミックのメタデータを記録するのだ
	DefaultHTTPTimeout      = 60 * time.Second
)

// 検索バックエンドの種類なのだ。
const (
	BackendLightRAG = "lightrag"
	BackendLocal    = "local"
)

// Config はアプリケーション全体の環境設定（APIキーや接続先）を保持する構造体なのだ。
type Config struct {
	GeminiAPIKey    string
	OpenAIAPIKey    string
	AnthropicAPIKey string

	TextProvider string
	TextModel    string
	TextBaseURL  string
	ImageModel   string

	RetrievalBackend string
	LightRAGURL      string
	LightRAGAPIKey   string
	KnowledgeDB      string

	OutputDir   string
	CatalogDB   string
	StyleHint   string
	HTTPTimeout time.Duration

	Options GenerateOptions
}

// GenerateOptions は CLI フラグから渡される実行時のパラメータなのだ。
type GenerateOptions struct {
	Topic       string // --topic
	Title       string // --title
	Pages       int    // --pages
	MaxChunks   int    // --max-chunks
	NoDialogue  bool   // --no-dialogue
	Concurrency int    // --concurrency
}

// LoadConfig は環境変数から設定を読み込み、構造体を返すのだ！
func LoadConfig() *Config {
	return &Config{
		GeminiAPIKey:     envutil.GetEnv("GEMINI_API_KEY", ""),
		OpenAIAPIKey:     envutil.GetEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey:  envutil.GetEnv("ANTHROPIC_API_KEY", ""),
		TextProvider:     envutil.GetEnv("TEXT_PROVIDER", DefaultTextProvider),
		TextModel:        envutil.GetEnv("TEXT_MODEL", workflow.DefaultTextModel),
		TextBaseURL:      envutil.GetEnv("TEXT_BASE_URL", ""),
		ImageModel:       envutil.GetEnv("IMAGE_MODEL", workflow.DefaultImageModel),
		RetrievalBackend: envutil.GetEnv("RETRIEVAL_BACKEND", DefaultRetrievalBackend),
		LightRAGURL:      envutil.GetEnv("LIGHTRAG_URL", DefaultLightRAGURL),
		LightRAGAPIKey:   envutil.GetEnv("LIGHTRAG_API_KEY", ""),
		KnowledgeDB:      envutil.GetEnv("KNOWLEDGE_DB", DefaultKnowledgeDB),
		OutputDir:        envutil.GetEnv("COMIC_OUTPUT_DIR", workflow.DefaultOutputDir),
		CatalogDB:        envutil.GetEnv("CATALOG_DB", DefaultCatalogDB),
		StyleHint:        envutil.GetEnv("STYLE_HINT", prompts.DefaultStyleHint),
		HTTPTimeout:      DefaultHTTPTimeout,
	}
}

// ApplyOverrides は設定ファイル（viper）に書かれた値で環境変数の値を上書きするのだ。
// 設定ファイルに無いキーは触らないのだよ。
func (c *Config) ApplyOverrides(v *viper.Viper) {
	strs := map[string]*string{
		"gemini_api_key":    &c.GeminiAPIKey,
		"openai_api_key":    &c.OpenAIAPIKey,
		"anthropic_api_key": &c.AnthropicAPIKey,
		"text_provider":     &c.TextProvider,
		"text_model":        &c.TextModel,
		"text_base_url":     &c.TextBaseURL,
		"image_model":       &c.ImageModel,
		"retrieval_backend": &c.RetrievalBackend,
		"lightrag_url":      &c.LightRAGURL,
		"lightrag_api_key":  &c.LightRAGAPIKey,
		"knowledge_db":      &c.KnowledgeDB,
		"output_dir":        &c.OutputDir,
		"catalog_db":        &c.CatalogDB,
		"style_hint":        &c.StyleHint,
	}
	for key, dst := range strs {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	if v.IsSet("http_timeout") {
		c.HTTPTimeout = v.GetDuration("http_timeout")
	}
}

// TextAPIKey は選択されたテキストプロバイダ用の API キーを返すのだ。
func (c *Config) TextAPIKey() string {
	switch strings.ToLower(strings.TrimSpace(c.TextProvider)) {
	case llm.ProviderOpenAI:
		return c.OpenAIAPIKey
	case llm.ProviderAnthropic:
		return c.AnthropicAPIKey
	default:
		return c.GeminiAPIKey
	}
}

// Validate は生成の実行に必要な設定が揃っているかを確認するのだ。
func (c *Config) Validate() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("環境変数 GEMINI_API_KEY が設定されていません。画像生成には必須なのだ")
	}
	if c.TextAPIKey() == "" {
		return fmt.Errorf("テキストプロバイダ %q の API キーが設定されていないのだ", c.TextProvider)
	}
	switch c.RetrievalBackend {
	case BackendLightRAG:
		if strings.TrimSpace(c.LightRAGURL) == "" {
			return fmt.Errorf("LIGHTRAG_URL が空なのだ")
		}
	case BackendLocal:
		if strings.TrimSpace(c.KnowledgeDB) == "" {
			return fmt.Errorf("KNOWLEDGE_DB が空なのだ")
		}
	default:
		return fmt.Errorf("未知の検索バックエンド %q なのだ (lightrag か local を指定してほしいのだ)", c.RetrievalBackend)
	}
	return nil
}

package workflow

import (
	"time"

	"github.com/shouni/go-comic-kit/pkg/composer"
	"github.com/shouni/go-comic-kit/pkg/prompts"
	"github.com/shouni/go-comic-kit/pkg/retrieval"
)

// デフォルト値の定義です。
const (
	DefaultTextModel  = "gemini-2.5-flash"
	DefaultImageModel = "gemini-2.5-flash-image"
	DefaultTitle      = "NASA Comic"
	DefaultOutputDir  = "./comics"

	DefaultPages     = 2
	MaxPages         = 4
	DefaultMaxChunks = 3
	MaxChunksLimit   = 20
	MinTopicLength   = 3

	DefaultPanelConcurrency = 1
)

// Config は Pipeline Orchestrator の動作設定です。
type Config struct {
	// --- Layout ---
	PanelsPerPage int
	PageWidth     int
	PageHeight    int
	FontSize      float64

	// --- Retrieval ---
	RetrievalMode  string
	MaxTotalTokens int

	// --- Generation ---
	StyleHint        string
	ArtStyle         string
	PanelConcurrency int
	RateInterval     time.Duration

	// --- Output ---
	OutputDir    string
	DefaultTitle string
}

// DefaultConfig は 1024x1024 の 2x2 ページを順番に描画する標準設定を返します。
func DefaultConfig() Config {
	return Config{
		PanelsPerPage:    composer.DefaultPanelsPerPage,
		PageWidth:        composer.DefaultPageWidth,
		PageHeight:       composer.DefaultPageHeight,
		FontSize:         composer.DefaultFontSize,
		RetrievalMode:    retrieval.DefaultMode,
		MaxTotalTokens:   retrieval.DefaultMaxTotalTokens,
		StyleHint:        prompts.DefaultStyleHint,
		ArtStyle:         prompts.DefaultArtStyle,
		PanelConcurrency: DefaultPanelConcurrency,
		OutputDir:        DefaultOutputDir,
		DefaultTitle:     DefaultTitle,
	}
}

func (c Config) composerConfig() composer.Config {
	return composer.Config{
		Width:         c.PageWidth,
		Height:        c.PageHeight,
		PanelsPerPage: c.PanelsPerPage,
		FontSize:      c.FontSize,
	}
}

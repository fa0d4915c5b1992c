package workflow

import (
	"context"
	"fmt"

	"github.com/shouni/go-comic-kit/pkg/composer"
	"github.com/shouni/go-comic-kit/pkg/generator"
	"github.com/shouni/go-comic-kit/pkg/imagegen"
	"github.com/shouni/go-comic-kit/pkg/llm"
	"github.com/shouni/go-comic-kit/pkg/prompts"
	"github.com/shouni/go-comic-kit/pkg/publisher"
	"github.com/shouni/go-comic-kit/pkg/retrieval"
	"github.com/shouni/go-comic-kit/pkg/tracker"
)

// ManagerArgs は Manager の構築に必要な依存関係です。
type ManagerArgs struct {
	Config     Config
	Backend    retrieval.Backend
	TextModel  llm.TextModel
	ImageModel imagegen.ImageModel

	// 以下は省略可能です。
	ScriptPrompt prompts.ScriptPromptBuilder
	Writer       publisher.OutputWriter
	Catalog      CatalogWriter
	Tracker      *tracker.Tracker
}

// Manager は各工程を順に実行し、リクエスト単位の成功・失敗を管理します。
// 複数のリクエストから同時に Execute を呼び出せます。
type Manager struct {
	cfg        Config
	backend    retrieval.Backend
	scripts    ScriptGenerator
	renderer   PanelRenderer
	composer   PageComposer
	publisher  *publisher.ComicPublisher
	catalog    CatalogWriter
	tracker    *tracker.Tracker
	textModel  string
	imageModel string
}

// New は、設定と外部コラボレータを基に新しい Manager を初期化します。
func New(_ context.Context, args ManagerArgs) (*Manager, error) {
	if args.Backend == nil {
		return nil, fmt.Errorf("retrieval backend は必須です")
	}
	if args.TextModel == nil {
		return nil, fmt.Errorf("TextModel は必須です")
	}
	if args.ImageModel == nil {
		return nil, fmt.Errorf("ImageModel は必須です")
	}

	cfg := args.Config
	if cfg.DefaultTitle == "" {
		cfg.DefaultTitle = DefaultTitle
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultOutputDir
	}

	sPrompt, err := initializeScriptPrompt(args.ScriptPrompt)
	if err != nil {
		return nil, err
	}
	scripts, err := generator.NewScriptGenerator(args.TextModel, sPrompt)
	if err != nil {
		return nil, err
	}

	renderer, err := generator.NewPanelRenderer(args.ImageModel, generator.RendererConfig{
		StyleHint:    cfg.StyleHint,
		Concurrency:  cfg.PanelConcurrency,
		RateInterval: cfg.RateInterval,
	})
	if err != nil {
		return nil, err
	}

	pageComposer, err := composer.New(cfg.composerConfig())
	if err != nil {
		return nil, fmt.Errorf("ページ合成の初期化に失敗しました: %w", err)
	}

	pub, err := publisher.NewComicPublisher(args.Writer, cfg.OutputDir)
	if err != nil {
		return nil, err
	}

	tr := args.Tracker
	if tr == nil {
		tr = tracker.New(tracker.DefaultExpiration)
	}

	return &Manager{
		cfg:        cfg,
		backend:    args.Backend,
		scripts:    scripts,
		renderer:   renderer,
		composer:   pageComposer,
		publisher:  pub,
		catalog:    args.Catalog,
		tracker:    tr,
		textModel:  args.TextModel.Name(),
		imageModel: args.ImageModel.Name(),
	}, nil
}

// initializeScriptPrompt は ScriptPromptBuilder を初期化します。
// 引数として既存のビルダーが渡された場合はそれを返し、nil の場合は新規作成します。
func initializeScriptPrompt(scriptPrompt prompts.ScriptPromptBuilder) (prompts.ScriptPromptBuilder, error) {
	if scriptPrompt != nil {
		return scriptPrompt, nil
	}

	pb, err := prompts.NewTextPromptBuilder()
	if err != nil {
		return nil, fmt.Errorf("TextPromptBuilder の新規作成に失敗しました: %w", err)
	}

	return pb, nil
}

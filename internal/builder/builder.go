package builder

import (
	"context"
	"fmt"
	"io"

	"github.com/shouni/go-comic-kit/internal/config"
	"github.com/shouni/go-comic-kit/pkg/catalog"
	"github.com/shouni/go-comic-kit/pkg/imagegen"
	"github.com/shouni/go-comic-kit/pkg/llm"
	"github.com/shouni/go-comic-kit/pkg/retrieval"
	"github.com/shouni/go-comic-kit/pkg/workflow"
)

// BuildAppContext は設定を基に Manager とその依存関係をすべて構築します。
// 戻り値の AppContext は使い終わったら Close してください。
func BuildAppContext(ctx context.Context, cfg *config.Config) (*AppContext, error) {
	var closers []io.Closer
	fail := func(err error) (*AppContext, error) {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
		return nil, err
	}

	backend, backendCloser, err := BuildBackend(cfg)
	if err != nil {
		return fail(err)
	}
	if backendCloser != nil {
		closers = append(closers, backendCloser)
	}

	textModel, err := InitializeTextModel(ctx, cfg)
	if err != nil {
		return fail(err)
	}

	imageModel, err := imagegen.NewGeminiModel(ctx, cfg.GeminiAPIKey, cfg.ImageModel)
	if err != nil {
		return fail(fmt.Errorf("画像生成モデルの初期化に失敗しました: %w", err))
	}

	store, err := catalog.Open(cfg.CatalogDB)
	if err != nil {
		return fail(fmt.Errorf("カタログの初期化に失敗しました: %w", err))
	}
	closers = append(closers, store)

	manager, err := workflow.New(ctx, workflow.ManagerArgs{
		Config:     WorkflowConfig(cfg),
		Backend:    backend,
		TextModel:  textModel,
		ImageModel: imageModel,
		Catalog:    store,
	})
	if err != nil {
		return fail(fmt.Errorf("パイプラインの初期化に失敗しました: %w", err))
	}

	return NewAppContext(cfg, manager, store, closers...), nil
}

// WorkflowConfig はアプリケーション設定をパイプラインの設定に変換します。
func WorkflowConfig(cfg *config.Config) workflow.Config {
	wc := workflow.DefaultConfig()
	wc.OutputDir = cfg.OutputDir
	if cfg.StyleHint != "" {
		wc.StyleHint = cfg.StyleHint
	}
	if cfg.Options.Concurrency > 0 {
		wc.PanelConcurrency = cfg.Options.Concurrency
	}
	return wc
}

// BuildBackend は設定に応じた検索バックエンドを構築します。
// ローカル知識ベースの場合は、解放が必要な io.Closer も返します。
func BuildBackend(cfg *config.Config) (retrieval.Backend, io.Closer, error) {
	switch cfg.RetrievalBackend {
	case config.BackendLocal:
		store, err := retrieval.OpenLocalStore(cfg.KnowledgeDB)
		if err != nil {
			return nil, nil, fmt.Errorf("ローカル知識ベースのオープンに失敗しました: %w", err)
		}
		return store, store, nil
	case config.BackendLightRAG, "":
		client, err := retrieval.NewLightRAGClient(cfg.LightRAGURL, cfg.LightRAGAPIKey, cfg.HTTPTimeout)
		if err != nil {
			return nil, nil, fmt.Errorf("LightRAG クライアントの初期化に失敗しました: %w", err)
		}
		return client, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown retrieval backend %q", cfg.RetrievalBackend)
	}
}

// InitializeTextModel は設定されたプロバイダのテキスト生成モデルを初期化します。
func InitializeTextModel(ctx context.Context, cfg *config.Config) (llm.TextModel, error) {
	m, err := llm.New(ctx, cfg.TextProvider, cfg.TextAPIKey(), cfg.TextModel, cfg.TextBaseURL)
	if err != nil {
		return nil, fmt.Errorf("テキスト生成モデルの初期化に失敗しました: %w", err)
	}
	return m, nil
}

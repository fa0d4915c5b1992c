package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/shouni/go-comic-kit/examples"
	"github.com/shouni/go-comic-kit/internal/builder"
	"github.com/shouni/go-comic-kit/internal/config"
	"github.com/shouni/go-comic-kit/pkg/catalog"
	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/retrieval"
	"github.com/shouni/go-comic-kit/pkg/workflow"
)

// Execute は、CLI オプションからリクエストを組み立ててコミック生成を1回実行するのだ。
// 生成そのものの失敗は Response に入り、error は初期化の失敗だけなのだ。
func Execute(ctx context.Context, cfg *config.Config) (workflow.Response, error) {
	if err := cfg.Validate(); err != nil {
		return workflow.Response{}, err
	}

	appCtx, err := builder.BuildAppContext(ctx, cfg)
	if err != nil {
		return workflow.Response{}, err
	}
	defer func() {
		if err := appCtx.Close(); err != nil {
			slog.Warn("リソースの解放に失敗したのだ", "error", err)
		}
	}()

	return appCtx.Manager.Execute(ctx, BuildRequest(cfg.Options)), nil
}

// BuildRequest は CLI オプションをパイプラインのリクエストに変換するのだ。
func BuildRequest(opts config.GenerateOptions) workflow.Request {
	req := workflow.NewRequest(opts.Topic)
	req.Title = opts.Title
	req.Pages = opts.Pages
	req.MaxChunks = opts.MaxChunks
	req.IncludeDialogue = !opts.NoDialogue
	return req
}

// Ingest は YAML コーパス（空なら同梱のサンプル）をローカル知識ベースに取り込むのだ。
func Ingest(ctx context.Context, dbPath, corpusFile string) (int, error) {
	docs, err := loadCorpus(corpusFile)
	if err != nil {
		return 0, err
	}

	store, err := retrieval.OpenLocalStore(dbPath)
	if err != nil {
		return 0, err
	}
	defer store.Close()

	n, err := store.Ingest(ctx, docs)
	if err != nil {
		return 0, fmt.Errorf("コーパスの取り込みに失敗したのだ: %w", err)
	}
	slog.Info("コーパスを取り込んだのだ", "documents", len(docs), "chunks", n, "db", dbPath)
	return n, nil
}

func loadCorpus(path string) ([]retrieval.Document, error) {
	if path == "" {
		return examples.SampleCorpus()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("コーパス '%s' の読み込みに失敗したのだ: %w", path, err)
	}
	docs, err := examples.DecodeCorpus(data)
	if err != nil {
		return nil, fmt.Errorf("コーパス '%s' のデコードに失敗したのだ: %w", path, err)
	}
	return docs, nil
}

// Show はカタログからコミックのメタデータを取得するのだ。
func Show(ctx context.Context, dbPath, comicID string) (domain.ComicArtifact, error) {
	store, err := catalog.Open(dbPath)
	if err != nil {
		return domain.ComicArtifact{}, err
	}
	defer store.Close()

	return store.Get(ctx, comicID)
}

// List はカタログに記録された最近のコミックを返すのだ。
func List(ctx context.Context, dbPath string, limit int) ([]domain.ComicArtifact, error) {
	store, err := catalog.Open(dbPath)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	return store.List(ctx, limit)
}

package builder

import (
	"errors"
	"io"

	"github.com/shouni/go-comic-kit/internal/config"
	"github.com/shouni/go-comic-kit/pkg/catalog"
	"github.com/shouni/go-comic-kit/pkg/workflow"
)

// AppContext は、アプリケーション実行に必要な共通コンテキストを保持する
// これを各コマンドに渡すことで、依存関係の注入を簡素化します。
type AppContext struct {
	Config  *config.Config    // Configは、環境変数と設定ファイルから読み込まれたグローバルな設定です。
	Manager *workflow.Manager // Managerは、検索から合成までを一括で実行するパイプラインです。
	Catalog *catalog.Store    // Catalogは、完成したコミックのメタデータの記録先です。
	closers []io.Closer       // closers は Close で解放するリソースです（SQLite 接続など）。
}

// NewAppContext は AppContext の新しいインスタンスを生成する
func NewAppContext(cfg *config.Config, manager *workflow.Manager, store *catalog.Store, closers ...io.Closer) *AppContext {
	return &AppContext{
		Config:  cfg,
		Manager: manager,
		Catalog: store,
		closers: closers,
	}
}

// Close は保持しているリソースを逆順に解放する
func (a *AppContext) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

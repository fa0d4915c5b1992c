package workflow

import (
	"context"
	"image"

	"github.com/shouni/go-comic-kit/pkg/domain"
)

// ScriptGenerator は文脈テキストから panelCount 件の台本を生成する責務を持ちます。
type ScriptGenerator interface {
	Generate(ctx context.Context, contextText, topic string, panelCount int) (domain.Script, error)
}

// PanelRenderer はパネルを順序を保って描画する責務を持ちます。1 枚でも失敗すれば全体が失敗します。
type PanelRenderer interface {
	RenderAll(ctx context.Context, panels []domain.Panel) ([]domain.PanelArtifact, error)
}

// PageComposer はパネル群から1ページを合成する責務を持ちます。
type PageComposer interface {
	ComposePage(ctx context.Context, panels []domain.PanelArtifact) (*image.RGBA, error)
}

// CatalogWriter は完成した成果物のメタデータを記録する責務を持ちます。
type CatalogWriter interface {
	Save(ctx context.Context, a domain.ComicArtifact) error
}

package domain

import "strings"

// Panels は Panel のスライスに操作を追加する型です。
type Panels []Panel

// PadTo は最後のパネルを複製して長さを n に揃えます。n を超える分は切り詰めます。
// 空のスライスはそのまま返します。
func (ps Panels) PadTo(n int) Panels {
	if len(ps) == 0 || n <= 0 {
		return ps
	}
	if len(ps) >= n {
		return ps[:n]
	}
	out := make(Panels, n)
	copy(out, ps)
	last := ps[len(ps)-1]
	for i := len(ps); i < n; i++ {
		out[i] = last
	}
	return out
}

// Normalized は前後の空白を除去し、欠落した description を既定値で埋めたコピーを返します。
func (p Panel) Normalized() Panel {
	desc := strings.TrimSpace(p.Description)
	if desc == "" {
		desc = DefaultPanelDescription
	}
	return Panel{
		Description: desc,
		Dialogue:    strings.TrimSpace(p.Dialogue),
	}
}

// ChunkArtifacts は成果物を size 件ずつのページ単位に分割します。順序は保持されます。
func ChunkArtifacts(arts []PanelArtifact, size int) [][]PanelArtifact {
	if size <= 0 || len(arts) == 0 {
		return nil
	}
	pages := make([][]PanelArtifact, 0, (len(arts)+size-1)/size)
	for start := 0; start < len(arts); start += size {
		end := min(start+size, len(arts))
		pages = append(pages, arts[start:end])
	}
	return pages
}

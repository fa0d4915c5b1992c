package domain

import (
	"time"

	imagedom "github.com/shouni/gemini-image-kit/pkg/domain"
)

const (
	// DefaultPanelDescription は description が欠落したパネルに与える描写です。
	DefaultPanelDescription = "simple comic panel, abstract shapes"
	// PageMimeType は合成済みページの保存形式です。
	PageMimeType = "image/png"
)

// Script は テキスト生成モデルから返される台本全体の構造です。
type Script struct {
	Title  string  `json:"title"`
	Panels []Panel `json:"panels"`
}

// Panel は1コマ分の描写指示とセリフを保持します。
// 正規化後はどちらのフィールドも欠落しません。
type Panel struct {
	Description string `json:"description"`
	Dialogue    string `json:"dialogue"`
}

// PanelArtifact は描画済みパネルです。生成したリクエストだけが所有します。
type PanelArtifact struct {
	Image    *imagedom.ImageResponse
	Dialogue string
}

// Data は画像バイト列を返します。画像が無い場合は nil です。
func (a PanelArtifact) Data() []byte {
	if a.Image == nil {
		return nil
	}
	return a.Image.Data
}

// ComicArtifact は1回のパイプライン実行で確定した成果物のメタデータです。
// 一度だけ書き出され、その後は変更されません。
type ComicArtifact struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Topic         string    `json:"topic"`
	TotalPanels   int       `json:"total_panels"`
	PageCount     int       `json:"page_count"`
	ArtStyle      string    `json:"art_style"`
	TextModel     string    `json:"text_model"`
	ImageModel    string    `json:"image_model"`
	RetrievalMode string    `json:"retrieval_mode"`
	ChunksUsed    int       `json:"chunks_used"`
	Path          string    `json:"path"`
	MimeType      string    `json:"mime_type"`
	CreatedAt     time.Time `json:"created_at"`
}

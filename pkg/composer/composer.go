// Package composer はパネル画像をグリッド状に並べ、セリフを重ねたページ画像を合成します。
package composer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"math"

	"github.com/shouni/go-comic-kit/pkg/domain"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	_ "golang.org/x/image/webp"
)

const (
	DefaultPageWidth     = 1024
	DefaultPageHeight    = 1024
	DefaultPanelsPerPage = 4
	DefaultFontSize      = 24

	textInset    = 10
	platePadding = 8
	plateRadius  = 10
	// 1 文字あたりの想定幅です。折り返し幅は max(minWrapChars, (タイル幅 - 2*textInset) / charWidthHint) になります。
	charWidthHint = 18
	minWrapChars  = 16

	placeholderCaption = "Image failed to load"
)

var (
	pageBackground        = color.White
	plateColor            = color.White
	textColor             = color.Black
	placeholderBackground = color.RGBA{R: 0xee, G: 0xee, B: 0xee, A: 0xff}
	placeholderTextColor  = color.RGBA{R: 0xff, A: 0xff}
)

// Config はページのレイアウト設定です。
type Config struct {
	Width         int
	Height        int
	PanelsPerPage int
	FontSize      float64
}

// DefaultConfig は 1024x1024 の 2x2 グリッドを返します。
func DefaultConfig() Config {
	return Config{
		Width:         DefaultPageWidth,
		Height:        DefaultPageHeight,
		PanelsPerPage: DefaultPanelsPerPage,
		FontSize:      DefaultFontSize,
	}
}

// Grid は panelsPerPage 枚を並べる列数と行数を返します。4 枚なら 2x2 です。
func Grid(panelsPerPage int) (cols, rows int) {
	if panelsPerPage < 1 {
		return 0, 0
	}
	cols = int(math.Ceil(math.Sqrt(float64(panelsPerPage))))
	rows = (panelsPerPage + cols - 1) / cols
	return cols, rows
}

// Composer はページ画像を合成します。複数のリクエストから同時に使えます。
type Composer struct {
	cfg  Config
	font *sfnt.Font
}

// New は設定を検証して Composer を作成します。
func New(cfg Config) (*Composer, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, domain.NewCompositionError(fmt.Errorf("invalid page size %dx%d", cfg.Width, cfg.Height))
	}
	if cfg.PanelsPerPage < 1 {
		return nil, domain.NewCompositionError(fmt.Errorf("invalid panels per page %d", cfg.PanelsPerPage))
	}
	cols, rows := Grid(cfg.PanelsPerPage)
	if cfg.Width/cols == 0 || cfg.Height/rows == 0 {
		return nil, domain.NewCompositionError(fmt.Errorf("page %dx%d too small for %d panels", cfg.Width, cfg.Height, cfg.PanelsPerPage))
	}
	if cfg.FontSize <= 0 {
		cfg.FontSize = DefaultFontSize
	}

	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		slog.Warn("Failed to parse embedded font; falling back to bitmap font", "error", err)
		f = nil
	}
	return &Composer{cfg: cfg, font: f}, nil
}

// Config は適用中の設定を返します。
func (c *Composer) Config() Config { return c.cfg }

// newFace はページごとに新しいフェイスを作ります。opentype のフェイスは並行利用できないためです。
func (c *Composer) newFace() font.Face {
	if c.font == nil {
		return basicfont.Face7x13
	}
	face, err := opentype.NewFace(c.font, &opentype.FaceOptions{
		Size:    c.cfg.FontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return basicfont.Face7x13
	}
	return face
}

// ComposePage はパネルをグリッドに配置した1ページを合成します。
// 画像が欠けている、または壊れているパネルはプレースホルダーのタイルに置き換えるため、
// 個々のパネルが原因で失敗することはありません。PanelsPerPage を超えるパネルは無視します。
func (c *Composer) ComposePage(ctx context.Context, panels []domain.PanelArtifact) (*image.RGBA, error) {
	cols, rows := Grid(c.cfg.PanelsPerPage)
	tileW, tileH := c.cfg.Width/cols, c.cfg.Height/rows

	page := image.NewRGBA(image.Rect(0, 0, c.cfg.Width, c.cfg.Height))
	draw.Draw(page, page.Bounds(), image.NewUniform(pageBackground), image.Point{}, draw.Src)

	face := c.newFace()
	defer face.Close()

	for i, p := range panels {
		if i >= c.cfg.PanelsPerPage {
			slog.WarnContext(ctx, "Too many panels for page; extra panels ignored",
				"panels", len(panels), "panels_per_page", c.cfg.PanelsPerPage)
			break
		}

		x0 := (i % cols) * tileW
		y0 := (i / cols) * tileH
		rect := image.Rect(x0, y0, x0+tileW, y0+tileH)
		tile := page.SubImage(rect).(*image.RGBA)

		src, err := decodePanel(p.Data())
		if err != nil {
			slog.WarnContext(ctx, "Panel image could not be decoded; using placeholder tile",
				"panel_index", i+1, "error", err)
			src = placeholderTile(tileW, tileH, face)
		}
		draw.CatmullRom.Scale(tile, rect, src, src.Bounds(), draw.Src, nil)

		if p.Dialogue != "" {
			drawDialogue(tile, face, p.Dialogue)
		}
	}

	return page, nil
}

// Encode はページを PNG で書き出します。
func Encode(w io.Writer, page image.Image) error {
	if page == nil {
		return domain.NewCompositionError(errors.New("nil page image"))
	}
	if err := png.Encode(w, page); err != nil {
		return domain.NewCompositionError(fmt.Errorf("png encode: %w", err))
	}
	return nil
}

func decodePanel(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, errors.New("no image bytes")
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if img.Bounds().Empty() {
		return nil, errors.New("empty image bounds")
	}
	return img, nil
}

// placeholderTile は読み込みに失敗したパネルの代わりに描く単色のタイルです。
func placeholderTile(w, h int, face font.Face) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(placeholderBackground), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(placeholderTextColor),
		Face: face,
		Dot:  baseline(image.Pt(textInset, textInset), face),
	}
	d.DrawString(placeholderCaption)
	return img
}

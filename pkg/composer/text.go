package composer

import (
	"image"
	"image/color"
	"strings"
	"unicode/utf8"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// drawDialogue はタイル左上付近に背景プレート付きでセリフを描きます。
// tile の外にはみ出す部分は切り取られます。
func drawDialogue(tile *image.RGBA, face font.Face, text string) {
	bounds := tile.Bounds()
	width := max(minWrapChars, (bounds.Dx()-2*textInset)/charWidthHint)
	lines := wrapText(text, width)
	if len(lines) == 0 {
		return
	}

	origin := bounds.Min.Add(image.Pt(textInset, textInset))
	lineHeight := face.Metrics().Height.Ceil()

	textW := 0
	for _, l := range lines {
		textW = max(textW, font.MeasureString(face, l).Ceil())
	}
	textH := lineHeight * len(lines)

	plate := image.Rect(origin.X, origin.Y, origin.X+textW, origin.Y+textH).Inset(-platePadding)
	fillRoundedRect(tile, plate, plateRadius, plateColor)

	d := &font.Drawer{Dst: tile, Src: image.NewUniform(textColor), Face: face}
	for i, l := range lines {
		d.Dot = baseline(origin.Add(image.Pt(0, i*lineHeight)), face)
		d.DrawString(l)
	}
}

// baseline は行の左上座標 pt から描画の基準点を求めます。
func baseline(pt image.Point, face font.Face) fixed.Point26_6 {
	return fixed.P(pt.X, pt.Y+face.Metrics().Ascent.Ceil())
}

// wrapText は空白で単語に分割し、1 行が width 文字以内になるよう貪欲に折り返します。
// width を超える単語は途中で分割します。既存の改行は段落の区切りとして保ちます。
func wrapText(text string, width int) []string {
	if width < 1 {
		width = 1
	}
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		var cur strings.Builder
		curLen := 0
		flush := func() {
			if curLen > 0 {
				lines = append(lines, cur.String())
				cur.Reset()
				curLen = 0
			}
		}

		for _, word := range strings.Fields(para) {
			for utf8.RuneCountInString(word) > width {
				if curLen > 0 {
					flush()
				}
				r := []rune(word)
				lines = append(lines, string(r[:width]))
				word = string(r[width:])
			}
			n := utf8.RuneCountInString(word)
			if n == 0 {
				continue
			}
			switch {
			case curLen == 0:
				cur.WriteString(word)
				curLen = n
			case curLen+1+n <= width:
				cur.WriteByte(' ')
				cur.WriteString(word)
				curLen += 1 + n
			default:
				flush()
				cur.WriteString(word)
				curLen = n
			}
		}
		flush()
	}
	return lines
}

// fillRoundedRect は角を半径 radius で丸めた矩形を dst に塗ります。dst の範囲外は無視します。
func fillRoundedRect(dst *image.RGBA, r image.Rectangle, radius int, c color.Color) {
	clip := r.Intersect(dst.Bounds())
	if clip.Empty() {
		return
	}
	radius = min(radius, r.Dx()/2, r.Dy()/2)
	if radius <= 0 {
		draw.Draw(dst, clip, image.NewUniform(c), image.Point{}, draw.Src)
		return
	}

	rr := radius * radius
	for y := clip.Min.Y; y < clip.Max.Y; y++ {
		for x := clip.Min.X; x < clip.Max.X; x++ {
			dx, dy := 0, 0
			switch {
			case x < r.Min.X+radius:
				dx = r.Min.X + radius - x
			case x >= r.Max.X-radius:
				dx = x - (r.Max.X - radius - 1)
			}
			switch {
			case y < r.Min.Y+radius:
				dy = r.Min.Y + radius - y
			case y >= r.Max.Y-radius:
				dy = y - (r.Max.Y - radius - 1)
			}
			if dx*dx+dy*dy > rr {
				continue
			}
			dst.Set(x, y, c)
		}
	}
}

// Package imagegen は画像生成モデルと、その応答を SDK に依存せずに辿るためのエンベロープを提供します。
package imagegen

import "context"

// Candidate と Part はエンベロープ実装ごとの不透明な値です。
// 呼び出し側は同じエンベロープのアクセサにそのまま渡します。
type (
	Candidate = any
	Part      = any
)

// InlineData はパートに埋め込まれたデータです。
// Base64 が true の場合、Data は base64 でエンコードされたテキストです。
type InlineData struct {
	MIMEType string
	Data     []byte
	Base64   bool
}

// Envelope は画像生成モデルの応答を candidate / part 構造として公開します。
type Envelope interface {
	Candidates() []Candidate
	Parts(c Candidate) []Part
	// InlineImage は p がインラインデータを持つ場合にそれを返します。
	InlineImage(p Part) (InlineData, bool)
}

// ImageModel はプロンプトから画像を生成するモデルです。
// 応答に画像パートが含まれない場合 (安全性フィルタ等) もエラーにはしません。
type ImageModel interface {
	Generate(ctx context.Context, prompt string) (Envelope, error)
	Name() string
}

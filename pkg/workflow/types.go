package workflow

import (
	"strings"
	"unicode/utf8"

	"github.com/shouni/go-comic-kit/pkg/domain"
)

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Request は1回のコミック生成の入力です。
type Request struct {
	Topic string `json:"topic"`
	// Title が空の場合は台本のタイトル、それも無ければ Config.DefaultTitle を使います。
	Title string `json:"comic_title,omitempty"`
	// MaxChunks は文脈に含めるチャンク数の上限です (1..20、0 は既定値)。
	MaxChunks int `json:"max_num_chunks,omitempty"`
	// Pages は生成するページ数です (1..4、0 は既定値)。
	Pages int `json:"comic_pages,omitempty"`
	// IncludeDialogue が false の場合はセリフを描きません。
	IncludeDialogue bool `json:"include_dialogue"`
}

// NewRequest はセリフ付きの既定のリクエストを返します。
func NewRequest(topic string) Request {
	return Request{Topic: topic, IncludeDialogue: true}
}

// normalize は既定値を補い、範囲外の値を ValidationError にします。
func (r Request) normalize() (Request, error) {
	r.Topic = strings.TrimSpace(r.Topic)
	r.Title = strings.TrimSpace(r.Title)

	if n := utf8.RuneCountInString(r.Topic); n < MinTopicLength {
		return r, domain.NewValidationError("topic must be at least %d characters, got %d", MinTopicLength, n)
	}

	if r.MaxChunks == 0 {
		r.MaxChunks = DefaultMaxChunks
	}
	if r.MaxChunks < 1 || r.MaxChunks > MaxChunksLimit {
		return r, domain.NewValidationError("max_num_chunks must be between 1 and %d, got %d", MaxChunksLimit, r.MaxChunks)
	}

	if r.Pages == 0 {
		r.Pages = DefaultPages
	}
	if r.Pages < 1 || r.Pages > MaxPages {
		return r, domain.NewValidationError("comic_pages must be between 1 and %d, got %d", MaxPages, r.Pages)
	}
	return r, nil
}

// Response は呼び出し元に返す結果です。失敗時も必ず返されます。
type Response struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
	Message   string `json:"message"`
	ComicPath string `json:"comic_path,omitempty"`
	MimeType  string `json:"comic_mime_type,omitempty"`

	// ErrorKind は失敗の種類です (RetrievalError 等)。成功時は空です。
	ErrorKind domain.ErrorKind `json:"error_kind,omitempty"`

	// FailedStage は失敗した工程です。成功時は空です。
	FailedStage domain.Stage `json:"failed_stage,omitempty"`

	// Stages は通過した工程の記録です (DONE または FAILED で終わります)。
	Stages []domain.Stage `json:"stages,omitempty"`

	Metadata Metadata `json:"metadata"`
}

// Succeeded は生成に成功したかどうかを返します。
func (r Response) Succeeded() bool { return r.Status == StatusSuccess }

type Metadata struct {
	ComicID     string         `json:"comic_id,omitempty"`
	Topic       string         `json:"topic"`
	Title       string         `json:"title,omitempty"`
	TotalPanels int            `json:"total_panels"`
	PageCount   int            `json:"page_count"`
	ArtStyle    string         `json:"art_style,omitempty"`
	TextModel   string         `json:"text_model,omitempty"`
	ImageModel  string         `json:"image_model,omitempty"`
	Retrieval   RetrievalStats `json:"retrieval"`
}

type RetrievalStats struct {
	Mode            string `json:"mode"`
	ChunksUsed      int    `json:"chunks_used"`
	FromRawContext  bool   `json:"from_raw_context"`
	UsedPlaceholder bool   `json:"used_placeholder"`
}

// PlaceholderContext は検索結果から文脈が得られなかった場合に使う文脈です。
func PlaceholderContext(topic string) string {
	return "Topic: " + topic + "\n\n" +
		"Please create an educational comic about this topic for a NASA biosciences audience."
}

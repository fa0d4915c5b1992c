package domain

import (
	"errors"
	"fmt"
)

// ErrorKind はパイプラインが呼び出し元へ返す失敗の種類です。
type ErrorKind string

const (
	KindValidation        ErrorKind = "ValidationError"
	KindRetrieval         ErrorKind = "RetrievalError"
	KindGeneration        ErrorKind = "GenerationError"
	KindGenerationFormat  ErrorKind = "GenerationFormatError"
	KindEmptyScript       ErrorKind = "EmptyScriptError"
	KindImageGeneration   ErrorKind = "ImageGenerationError"
	KindNoImageInResponse ErrorKind = "NoImageInResponseError"
	KindComposition       ErrorKind = "CompositionError"
)

var (
	ErrValidation        = errors.New("invalid request")
	ErrRetrieval         = errors.New("retrieval backend failed")
	ErrGeneration        = errors.New("text generation failed")
	ErrGenerationFormat  = errors.New("text model returned unparseable structured output")
	ErrEmptyScript       = errors.New("no panels generated")
	ErrImageGeneration   = errors.New("image generation failed")
	ErrNoImageInResponse = errors.New("no image parts found in response (model may have returned text/safety)")
	ErrComposition       = errors.New("page composition failed")
)

var sentinels = map[ErrorKind]error{
	KindValidation:        ErrValidation,
	KindRetrieval:         ErrRetrieval,
	KindGeneration:        ErrGeneration,
	KindGenerationFormat:  ErrGenerationFormat,
	KindEmptyScript:       ErrEmptyScript,
	KindImageGeneration:   ErrImageGeneration,
	KindNoImageInResponse: ErrNoImageInResponse,
	KindComposition:       ErrComposition,
}

// Cause は利用者向けメッセージに埋め込む失敗箇所の名前を返します。
func (k ErrorKind) Cause() string {
	switch k {
	case KindValidation:
		return "invalid request"
	case KindRetrieval:
		return "retrieval"
	case KindGeneration, KindGenerationFormat, KindEmptyScript:
		return "script generation"
	case KindImageGeneration, KindNoImageInResponse:
		return "image generation"
	case KindComposition:
		return "page composition"
	default:
		return "unknown"
	}
}

// Error はパイプラインの各工程が返す型付きエラーです。
type Error struct {
	Kind ErrorKind
	Msg  string
	// Raw は診断用の生データです（GenerationFormatError ではモデルの応答全文）。
	Raw string
	Err error
}

func (e *Error) Error() string {
	base := e.Msg
	if base == "" {
		base = sentinels[e.Kind].Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", base, e.Err)
	}
	return base
}

func (e *Error) Unwrap() error { return e.Err }

// Is は同じ Kind のセンチネルとの比較を可能にします。
func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Kind]
	return ok && s == target
}

// KindOf は err に含まれる最初の *Error の Kind を返します。見つからなければ空文字です。
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

func NewValidationError(format string, args ...any) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func NewRetrievalError(err error) error {
	return &Error{Kind: KindRetrieval, Msg: "retrieval backend failed", Err: err}
}

func NewGenerationError(err error) error {
	return &Error{Kind: KindGeneration, Msg: "text model call failed", Err: err}
}

// NewGenerationFormatError は解析できなかった応答 raw を保持したエラーを返します。
func NewGenerationFormatError(raw string, err error) error {
	return &Error{
		Kind: KindGenerationFormat,
		Msg:  fmt.Sprintf("model did not return valid JSON (response excerpt: %q)", Truncate(raw, 200)),
		Raw:  raw,
		Err:  err,
	}
}

func NewEmptyScriptError() error {
	return &Error{Kind: KindEmptyScript}
}

func NewImageGenerationError(err error) error {
	return &Error{Kind: KindImageGeneration, Msg: "image model call failed", Err: err}
}

func NewNoImageInResponseError(detail string) error {
	msg := ErrNoImageInResponse.Error()
	if detail != "" {
		msg = detail + ": " + msg
	}
	return &Error{Kind: KindNoImageInResponse, Msg: msg}
}

func NewCompositionError(err error) error {
	return &Error{Kind: KindComposition, Msg: "page composition failed", Err: err}
}

// Truncate は s を最大 maxRunes 文字に切り詰め、省略時は "..." を付けます。
func Truncate(s string, maxRunes int) string {
	r := []rune(s)
	if len(r) <= maxRunes {
		return s
	}
	return string(r[:maxRunes]) + "..."
}

package publisher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shouni/go-comic-kit/pkg/asset"
	"github.com/shouni/go-comic-kit/pkg/composer"
	"github.com/shouni/go-comic-kit/pkg/domain"
)

// ComicPublisher はページ画像の永続化と代表ページの確定を担います。
type ComicPublisher struct {
	writer  OutputWriter
	baseDir string
	now     func() time.Time
}

// NewComicPublisher は baseDir 配下に成果物を書き出す ComicPublisher を作成します。
// writer が nil の場合は LocalWriter を使います。
func NewComicPublisher(writer OutputWriter, baseDir string) (*ComicPublisher, error) {
	if baseDir == "" {
		return nil, errors.New("output directory is required")
	}
	if writer == nil {
		writer = LocalWriter{}
	}
	return &ComicPublisher{writer: writer, baseDir: baseDir, now: time.Now}, nil
}

// Session は1リクエスト分の出力先です。作業ディレクトリはリクエストごとに独立しており、
// プロセス全体の状態 (カレントディレクトリ等) は変更しません。
type Session struct {
	writer    OutputWriter
	dateDir   string
	workDir   string
	pagePaths []string
}

// Begin は requestID 用の作業ディレクトリを日付フォルダ配下に用意します。
func (p *ComicPublisher) Begin(ctx context.Context, requestID string) (*Session, error) {
	if requestID == "" {
		return nil, errors.New("request id is required")
	}
	dateDir, err := asset.DateFolder(p.baseDir, p.now())
	if err != nil {
		return nil, err
	}
	workDir, err := asset.ResolveOutputPath(dateDir, asset.WorkDirName(requestID))
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("作業ディレクトリの作成に失敗しました: %w", err)
	}

	slog.DebugContext(ctx, "Publisher: session started", "work_dir", workDir)
	return &Session{writer: p.writer, dateDir: dateDir, workDir: workDir}, nil
}

// WorkDir は作業ディレクトリのパスを返します。
func (s *Session) WorkDir() string { return s.workDir }

// PagePaths は保存済みのページのパスを順に返します。
func (s *Session) PagePaths() []string {
	return append([]string(nil), s.pagePaths...)
}

// SavePage はページを PNG として作業ディレクトリに保存します。index は 1 始まりです。
func (s *Session) SavePage(ctx context.Context, index int, page image.Image) (string, error) {
	basePath, err := asset.ResolveOutputPath(s.workDir, asset.DefaultPageFileName)
	if err != nil {
		return "", domain.NewCompositionError(err)
	}
	pagePath, err := asset.GenerateIndexedPath(basePath, index)
	if err != nil {
		return "", domain.NewCompositionError(err)
	}

	var buf bytes.Buffer
	if err := composer.Encode(&buf, page); err != nil {
		return "", err
	}
	if err := s.writer.Write(ctx, pagePath, &buf, domain.PageMimeType); err != nil {
		return "", domain.NewCompositionError(fmt.Errorf("ページの保存に失敗しました %s: %w", pagePath, err))
	}

	s.pagePaths = append(s.pagePaths, pagePath)
	return pagePath, nil
}

// Finalize は最初のページを代表ページとして日付フォルダに comic_<id>.png の名前でコピーします。
// 残りのページは Close で作業ディレクトリごと破棄されます。
func (s *Session) Finalize(ctx context.Context, comicID string) (string, error) {
	if len(s.pagePaths) == 0 {
		return "", domain.NewCompositionError(errors.New("no comic pages were generated"))
	}

	data, err := os.ReadFile(s.pagePaths[0])
	if err != nil {
		return "", domain.NewCompositionError(fmt.Errorf("代表ページの読み込みに失敗しました: %w", err))
	}

	name := asset.ComicFileName(comicID)
	if !asset.ComicFileRegex.MatchString(name) {
		return "", domain.NewCompositionError(fmt.Errorf("invalid comic id %q", comicID))
	}
	finalPath, err := asset.ResolveOutputPath(s.dateDir, name)
	if err != nil {
		return "", domain.NewCompositionError(err)
	}
	if err := s.writer.Write(ctx, finalPath, bytes.NewReader(data), domain.PageMimeType); err != nil {
		return "", domain.NewCompositionError(fmt.Errorf("代表ページの保存に失敗しました: %w", err))
	}

	slog.InfoContext(ctx, "Publisher: representative page saved", "path", finalPath, "pages", len(s.pagePaths))
	return filepath.Clean(finalPath), nil
}

// Close は作業ディレクトリを削除します。成功・失敗にかかわらず必ず呼び出してください。
func (s *Session) Close() error {
	if s == nil || s.workDir == "" {
		return nil
	}
	if err := os.RemoveAll(s.workDir); err != nil {
		return fmt.Errorf("作業ディレクトリの削除に失敗しました: %w", err)
	}
	return nil
}

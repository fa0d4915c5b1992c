package asset

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/shouni/go-utils/urlpath"
)

const (
	// DefaultPageFileName はページ画像の共通のベースファイル名です。
	DefaultPageFileName = "comic_page.png"
	// ComicFilePrefix は代表ページのファイル名の接頭辞です。
	ComicFilePrefix = "comic_"
	// ComicFileExt は代表ページの拡張子です。
	ComicFileExt = ".png"
	// WorkDirPrefix はリクエストごとの作業ディレクトリ名の接頭辞です。
	WorkDirPrefix = ".work-"
	// DateFolderLayout は日付フォルダの書式です。
	DateFolderLayout = "2006-01-02"
)

var (
	// pageFileRegex はページ画像 (comic_page_1.png 等) に一致します
	pageFileRegex = createIndexedRegex(DefaultPageFileName)
	// ComicFileRegex は代表ページ (comic_1a2b3c4d.png 等) に一致します
	ComicFileRegex = regexp.MustCompile(`^` + regexp.QuoteMeta(ComicFilePrefix) + `[0-9a-f]{8}` + regexp.QuoteMeta(ComicFileExt) + `$`)
)

// ResolveOutputPath は、ベースとなるディレクトリパスとファイル名から最終的な出力パスを生成します。
func ResolveOutputPath(baseDir, fileName string) (string, error) {
	return urlpath.ResolvePath(baseDir, fileName)
}

// GenerateIndexedPath は、指定されたベースパスの拡張子の前に連番を挿入し、
// 新しいパス文字列を生成します。index は1以上の整数である必要があります。
// 例: "path/to/comic_page.png", 1 -> "path/to/comic_page_1.png"
func GenerateIndexedPath(basePath string, index int) (string, error) {
	return urlpath.GenerateIndexedPath(basePath, index)
}

// DateFolder は baseDir 配下の UTC 日付フォルダのパスを返します。
func DateFolder(baseDir string, now time.Time) (string, error) {
	return ResolveOutputPath(baseDir, now.UTC().Format(DateFolderLayout))
}

// WorkDirName はリクエスト ID から作業ディレクトリ名を作ります。
func WorkDirName(requestID string) string {
	return WorkDirPrefix + requestID
}

// ComicFileName は代表ページのファイル名を返します。id は 8 桁の16進数です。
func ComicFileName(id string) string {
	return ComicFilePrefix + id + ComicFileExt
}

// createIndexedRegex は、ファイル名に基づきインデックス付きファイル用の正規表現を生成します。
// 例: "comic_page.png" -> ^comic_page_\d+\.png$
func createIndexedRegex(fileName string) *regexp.Regexp {
	ext := filepath.Ext(fileName)
	baseName := strings.TrimSuffix(fileName, ext)

	pattern := fmt.Sprintf(`^%s_\d+%s$`, regexp.QuoteMeta(baseName), regexp.QuoteMeta(ext))
	return regexp.MustCompile(pattern)
}

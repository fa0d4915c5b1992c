// Package catalog は完成したコミックのメタデータを SQLite に記録します。
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shouni/go-comic-kit/pkg/domain"
	_ "modernc.org/sqlite"
)

// ErrNotFound は指定した ID のコミックが存在しない場合に返されます。
var ErrNotFound = errors.New("comic not found")

// Store は ComicArtifact の一覧を保持します。レコードは一度書いたら更新しません。
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	p := filepath.Clean(strings.TrimSpace(path))
	if p == "" || p == "." {
		return nil, errors.New("missing catalog db path")
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", p)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS comics (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		topic TEXT NOT NULL,
		total_panels INTEGER NOT NULL,
		page_count INTEGER NOT NULL,
		art_style TEXT NOT NULL DEFAULT '',
		text_model TEXT NOT NULL DEFAULT '',
		image_model TEXT NOT NULL DEFAULT '',
		retrieval_mode TEXT NOT NULL DEFAULT '',
		chunks_used INTEGER NOT NULL DEFAULT 0,
		path TEXT NOT NULL,
		mime_type TEXT NOT NULL,
		created_at_unix_ms INTEGER NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("creating catalog schema: %w", err)
	}
	return nil
}

// Save は成果物を1件記録します。同じ ID の二重登録はエラーです。
func (s *Store) Save(ctx context.Context, a domain.ComicArtifact) error {
	if strings.TrimSpace(a.ID) == "" {
		return errors.New("comic id is required")
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO comics(
		id, title, topic, total_panels, page_count, art_style, text_model, image_model,
		retrieval_mode, chunks_used, path, mime_type, created_at_unix_ms
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Title, a.Topic, a.TotalPanels, a.PageCount, a.ArtStyle, a.TextModel, a.ImageModel,
		a.RetrievalMode, a.ChunksUsed, a.Path, a.MimeType, a.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("saving comic %s: %w", a.ID, err)
	}
	return nil
}

const selectColumns = `SELECT id, title, topic, total_panels, page_count, art_style, text_model, image_model,
	retrieval_mode, chunks_used, path, mime_type, created_at_unix_ms FROM comics`

// Get は ID でコミックを取得します。
func (s *Store) Get(ctx context.Context, id string) (domain.ComicArtifact, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, strings.TrimSpace(id))
	a, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ComicArtifact{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return a, err
}

// List は新しい順に最大 limit 件を返します。
func (s *Store) List(ctx context.Context, limit int) ([]domain.ComicArtifact, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY created_at_unix_ms DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ComicArtifact
	for rows.Next() {
		a, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(sc scanner) (domain.ComicArtifact, error) {
	var (
		a         domain.ComicArtifact
		createdMs int64
	)
	if err := sc.Scan(
		&a.ID, &a.Title, &a.Topic, &a.TotalPanels, &a.PageCount, &a.ArtStyle, &a.TextModel, &a.ImageModel,
		&a.RetrievalMode, &a.ChunksUsed, &a.Path, &a.MimeType, &createdMs,
	); err != nil {
		return domain.ComicArtifact{}, err
	}
	a.CreatedAt = time.UnixMilli(createdMs).UTC()
	return a, nil
}

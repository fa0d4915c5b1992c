package retrieval

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	_ "modernc.org/sqlite"
)

const defaultLocalTopK = 3

// Document は LocalStore に取り込む1文書です。
type Document struct {
	ID      string `yaml:"id" json:"id"`
	Title   string `yaml:"title" json:"title"`
	Content string `yaml:"content" json:"content"`
}

// LocalStore は SQLite FTS5 上に構築したローカルの知識ベースです。
// LightRAG を用意できない環境でも同じ Backend 契約で検索できます。
type LocalStore struct {
	db *sql.DB
}

// OpenLocalStore は path のデータベースを開き、必要ならスキーマを作成します。
func OpenLocalStore(path string) (*LocalStore, error) {
	p := filepath.Clean(strings.TrimSpace(path))
	if p == "" || p == "." {
		return nil, errors.New("missing knowledge db path")
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return nil, fmt.Errorf("creating knowledge db directory: %w", err)
	}

	db, err := sql.Open("sqlite", p)
	if err != nil {
		return nil, fmt.Errorf("opening knowledge db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`CREATE VIRTUAL TABLE IF NOT EXISTS chunks USING fts5(
		doc_id UNINDEXED,
		seq UNINDEXED,
		title,
		content
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating knowledge schema: %w", err)
	}
	return &LocalStore{db: db}, nil
}

func (s *LocalStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ingest は文書を段落単位のチャンクに分割して登録します。
// 同じ ID の文書は置き換えられます。登録したチャンク数を返します。
func (s *LocalStore) Ingest(ctx context.Context, docs []Document) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	total := 0
	for _, doc := range docs {
		id := strings.TrimSpace(doc.ID)
		if id == "" {
			return 0, errors.New("document id is required")
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE doc_id = ?`, id); err != nil {
			return 0, fmt.Errorf("clearing document %s: %w", id, err)
		}
		for i, para := range SplitParagraphs(doc.Content) {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO chunks(doc_id, seq, title, content) VALUES (?, ?, ?, ?)`,
				id, i, strings.TrimSpace(doc.Title), para,
			); err != nil {
				return 0, fmt.Errorf("inserting chunk %d of %s: %w", i, id, err)
			}
			total++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return total, nil
}

// Query はトピックに関連するチャンクを FTS のランク順に返します。
// 応答は LightRAG の /query/data と同じ {"data": {"chunks": [...]}} 形式です。
func (s *LocalStore) Query(ctx context.Context, topic string, opts Options) (Result, error) {
	limit := opts.ChunkTopK
	if limit <= 0 {
		limit = opts.TopK
	}
	if limit <= 0 {
		limit = defaultLocalTopK
	}

	chunks := []any{}
	match := matchExpression(topic)
	if match == "" {
		return wrapChunks(chunks), nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT doc_id, title, content FROM chunks WHERE chunks MATCH ? ORDER BY rank LIMIT ?`,
		match, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying knowledge db: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var docID, title, content string
		if err := rows.Scan(&docID, &title, &content); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		chunks = append(chunks, map[string]any{
			"doc_id":  docID,
			"title":   title,
			"content": content,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return wrapChunks(chunks), nil
}

func wrapChunks(chunks []any) Result {
	return map[string]any{"data": map[string]any{"chunks": chunks}}
}

// SplitParagraphs は空行区切りで本文を分割し、空の段落を除きます。
func SplitParagraphs(content string) []string {
	normalized := strings.ReplaceAll(content, "\r\n", "\n")
	var out []string
	for _, p := range strings.Split(normalized, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// matchExpression は自由文を FTS5 の OR 検索式に変換します。
// 記号は取り除くため、利用者の入力が FTS の構文エラーになることはありません。
func matchExpression(topic string) string {
	fields := strings.FieldsFunc(strings.ToLower(topic), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]struct{}, len(fields))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		terms = append(terms, `"`+f+`"`)
	}
	return strings.Join(terms, " OR ")
}

// Package tracker はリクエストごとのパイプラインの進行状況をメモリ上に記録します。
package tracker

import (
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shouni/go-comic-kit/pkg/domain"
)

const (
	DefaultExpiration = 1 * time.Hour
	CleanupInterval   = 10 * time.Minute
)

// Status はリクエストの進行状況のスナップショットです。
type Status struct {
	RequestID string         `json:"request_id"`
	Topic     string         `json:"topic"`
	Stage     domain.Stage   `json:"stage"`
	History   []domain.Stage `json:"history"`
	Message   string         `json:"message,omitempty"`
	ComicPath string         `json:"comic_path,omitempty"`
	StartedAt time.Time      `json:"started_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Tracker は進行状況を TTL 付きで保持します。成果物そのものは保持しません。
type Tracker struct {
	mu    sync.Mutex
	items *cache.Cache
	now   func() time.Time
}

// New は ttl 経過後に記録を破棄する Tracker を作成します。
func New(ttl time.Duration) *Tracker {
	if ttl <= 0 {
		ttl = DefaultExpiration
	}
	return &Tracker{
		items: cache.New(ttl, CleanupInterval),
		now:   time.Now,
	}
}

// Start は新しいリクエストを RETRIEVING 状態で登録します。
func (t *Tracker) Start(requestID, topic string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.items.SetDefault(requestID, &Status{
		RequestID: requestID,
		Topic:     topic,
		Stage:     domain.StageRetrieving,
		History:   []domain.Stage{domain.StageRetrieving},
		StartedAt: now,
		UpdatedAt: now,
	})
}

// Advance は状態を next に進めます。許されない遷移はエラーです。
func (t *Tracker) Advance(requestID string, next domain.Stage) error {
	return t.update(requestID, next, func(*Status) {})
}

// Fail は状態を FAILED にし、失敗理由を記録します。
func (t *Tracker) Fail(requestID, message string) error {
	return t.update(requestID, domain.StageFailed, func(s *Status) { s.Message = message })
}

// Complete は状態を DONE にし、代表ページのパスを記録します。
func (t *Tracker) Complete(requestID, comicPath string) error {
	return t.update(requestID, domain.StageDone, func(s *Status) { s.ComicPath = comicPath })
}

func (t *Tracker) update(requestID string, next domain.Stage, apply func(*Status)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	v, ok := t.items.Get(requestID)
	if !ok {
		return fmt.Errorf("unknown request %s", requestID)
	}
	s := v.(*Status)
	if !s.Stage.CanTransitionTo(next) {
		return fmt.Errorf("invalid stage transition for %s: %s -> %s", requestID, s.Stage, next)
	}

	s.Stage = next
	s.History = append(s.History, next)
	s.UpdatedAt = t.now()
	apply(s)
	t.items.SetDefault(requestID, s)
	return nil
}

// Get は記録のコピーを返します。
func (t *Tracker) Get(requestID string) (Status, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	v, ok := t.items.Get(requestID)
	if !ok {
		return Status{}, false
	}
	s := *v.(*Status)
	s.History = append([]domain.Stage(nil), s.History...)
	return s, true
}

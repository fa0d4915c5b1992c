package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/extractor"
	"github.com/shouni/go-comic-kit/pkg/retrieval"
)

// run は1リクエスト分の実行状態です。
type run struct {
	m         *Manager
	requestID string
	comicID   string
	req       Request
	logger    *slog.Logger
	meta      Metadata
}

// Execute はトピックからコミックを生成します。
// 工程は RETRIEVING → EXTRACTING → SCRIPTING → RENDERING → COMPOSING → DONE の順に進み、
// いずれかの工程が失敗した時点で残りを中断して失敗の Response を返します。
func (m *Manager) Execute(ctx context.Context, req Request) Response {
	requestID := uuid.New().String()
	logger := slog.With("request_id", requestID)

	normalized, err := req.normalize()
	if err != nil {
		logger.WarnContext(ctx, "Rejected invalid comic request", "error", err)
		return failureResponse(requestID, Metadata{Topic: strings.TrimSpace(req.Topic)}, err)
	}

	r := &run{
		m:         m,
		requestID: requestID,
		comicID:   strings.ReplaceAll(uuid.New().String(), "-", "")[:8],
		req:       normalized,
		logger:    logger,
		meta: Metadata{
			Topic:       normalized.Topic,
			TotalPanels: normalized.Pages * m.cfg.PanelsPerPage,
			PageCount:   normalized.Pages,
			ArtStyle:    m.cfg.ArtStyle,
			TextModel:   m.textModel,
			ImageModel:  m.imageModel,
			Retrieval:   RetrievalStats{Mode: m.cfg.RetrievalMode},
		},
	}

	m.tracker.Start(requestID, normalized.Topic)
	startTime := time.Now()

	path, err := r.execute(ctx)
	if err != nil {
		failedAt := r.currentStage()
		if trErr := m.tracker.Fail(requestID, err.Error()); trErr != nil {
			logger.Debug("Tracker update skipped", "error", trErr)
		}
		logger.ErrorContext(ctx, "Comic generation failed",
			"failed_stage", failedAt, "error_kind", domain.KindOf(err), "error", err,
			"duration", time.Since(startTime).Round(time.Millisecond))

		resp := failureResponse(requestID, r.meta, err)
		resp.FailedStage = failedAt
		resp.Stages = r.history()
		return resp
	}

	if trErr := m.tracker.Complete(requestID, path); trErr != nil {
		logger.Debug("Tracker update skipped", "error", trErr)
	}
	logger.InfoContext(ctx, "Comic generation complete",
		"path", path, "duration", time.Since(startTime).Round(time.Millisecond))

	return Response{
		RequestID: requestID,
		Status:    StatusSuccess,
		Message:   "Comic generated successfully",
		ComicPath: path,
		MimeType:  domain.PageMimeType,
		Stages:    r.history(),
		Metadata:  r.meta,
	}
}

// currentStage はトラッカーに記録された現在の工程を返します。
func (r *run) currentStage() domain.Stage {
	st, ok := r.m.tracker.Get(r.requestID)
	if !ok {
		return ""
	}
	return st.Stage
}

// history はトラッカーに記録された工程の遷移を返します。
func (r *run) history() []domain.Stage {
	st, ok := r.m.tracker.Get(r.requestID)
	if !ok {
		return nil
	}
	return st.History
}

func (r *run) execute(ctx context.Context) (string, error) {
	m := r.m

	// RETRIEVING
	opts := retrieval.NewOptions(r.req.MaxChunks)
	opts.Mode = m.cfg.RetrievalMode
	opts.MaxTotalTokens = m.cfg.MaxTotalTokens
	r.stageLogger(domain.StageRetrieving).InfoContext(ctx, "Querying retrieval backend", "max_chunks", r.req.MaxChunks)
	result, err := m.backend.Query(ctx, r.req.Topic, opts)
	if err != nil {
		return "", domain.NewRetrievalError(err)
	}

	// EXTRACTING
	r.advance(ctx, domain.StageExtracting)
	extracted := extractor.Extract(result, r.req.MaxChunks)
	contextText := extracted.Text
	r.meta.Retrieval.ChunksUsed = extracted.ChunksUsed
	r.meta.Retrieval.FromRawContext = extracted.FromRawContext
	if extracted.Empty() {
		r.stageLogger(domain.StageExtracting).WarnContext(ctx, "Retrieval yielded no usable context; using topic placeholder")
		contextText = PlaceholderContext(r.req.Topic)
		r.meta.Retrieval.UsedPlaceholder = true
	}

	// SCRIPTING
	r.advance(ctx, domain.StageScripting)
	script, err := m.scripts.Generate(ctx, contextText, r.req.Topic, r.meta.TotalPanels)
	if err != nil {
		return "", err
	}
	r.meta.Title = firstNonEmpty(r.req.Title, script.Title, m.cfg.DefaultTitle)
	if !r.req.IncludeDialogue {
		for i := range script.Panels {
			script.Panels[i].Dialogue = ""
		}
	}

	// RENDERING
	r.advance(ctx, domain.StageRendering)
	artifacts, err := m.renderer.RenderAll(ctx, script.Panels)
	if err != nil {
		return "", err
	}

	// COMPOSING
	r.advance(ctx, domain.StageComposing)
	return r.compose(ctx, artifacts)
}

// compose はページを作業ディレクトリに保存し、最初のページを代表として確定します。
// 作業ディレクトリは結果にかかわらず削除されます。
func (r *run) compose(ctx context.Context, artifacts []domain.PanelArtifact) (string, error) {
	m := r.m
	logger := r.stageLogger(domain.StageComposing)

	session, err := m.publisher.Begin(ctx, r.requestID)
	if err != nil {
		return "", domain.NewCompositionError(err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Warn("Failed to remove work directory", "error", err)
		}
	}()

	for i, group := range domain.ChunkArtifacts(artifacts, m.cfg.PanelsPerPage) {
		page, err := m.composer.ComposePage(ctx, group)
		if err != nil {
			return "", err
		}
		pagePath, err := session.SavePage(ctx, i+1, page)
		if err != nil {
			return "", err
		}
		logger.DebugContext(ctx, "Page composed", "page", i+1, "path", pagePath)
	}

	finalPath, err := session.Finalize(ctx, r.comicID)
	if err != nil {
		return "", err
	}
	r.meta.ComicID = r.comicID

	if m.catalog != nil {
		art := domain.ComicArtifact{
			ID:            r.comicID,
			Title:         r.meta.Title,
			Topic:         r.meta.Topic,
			TotalPanels:   r.meta.TotalPanels,
			PageCount:     r.meta.PageCount,
			ArtStyle:      r.meta.ArtStyle,
			TextModel:     r.meta.TextModel,
			ImageModel:    r.meta.ImageModel,
			RetrievalMode: r.meta.Retrieval.Mode,
			ChunksUsed:    r.meta.Retrieval.ChunksUsed,
			Path:          finalPath,
			MimeType:      domain.PageMimeType,
			CreatedAt:     time.Now().UTC(),
		}
		if err := m.catalog.Save(ctx, art); err != nil {
			logger.WarnContext(ctx, "Failed to record comic in catalog", "comic_id", r.comicID, "error", err)
		}
	}
	return finalPath, nil
}

func (r *run) advance(ctx context.Context, next domain.Stage) {
	if err := r.m.tracker.Advance(r.requestID, next); err != nil {
		r.logger.Debug("Tracker update skipped", "error", err)
	}
	r.stageLogger(next).DebugContext(ctx, "Stage started")
}

func (r *run) stageLogger(stage domain.Stage) *slog.Logger {
	return r.logger.With("stage", stage)
}

// failureResponse は err を呼び出し元向けの失敗 Response に変換します。
func failureResponse(requestID string, meta Metadata, err error) Response {
	kind := domain.KindOf(err)
	msg := fmt.Sprintf("Failed to generate comic: %v", err)
	if kind != "" {
		msg = fmt.Sprintf("Failed to generate comic: %s: %v", kind.Cause(), err)
	}
	return Response{
		RequestID: requestID,
		Status:    StatusFailure,
		Message:   msg,
		ErrorKind: kind,
		Metadata:  meta,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

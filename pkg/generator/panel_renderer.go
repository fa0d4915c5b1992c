package generator

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	imagedom "github.com/shouni/gemini-image-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/imagegen"
	"github.com/shouni/go-comic-kit/pkg/prompts"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// RendererConfig はパネル描画の設定です。
type RendererConfig struct {
	StyleHint string
	// Concurrency は同時に描画するパネル数です。1 の場合は順番に描画します。
	Concurrency int
	// RateInterval は画像生成 API 呼び出しの最小間隔です。0 の場合は制限しません。
	RateInterval time.Duration
}

// PanelRenderer はパネルごとに画像生成モデルを呼び出します。
type PanelRenderer struct {
	model       imagegen.ImageModel
	styleHint   string
	concurrency int
	limiter     *rate.Limiter
}

// NewPanelRenderer は PanelRenderer の新しいインスタンスを初期化します。
func NewPanelRenderer(model imagegen.ImageModel, cfg RendererConfig) (*PanelRenderer, error) {
	if model == nil {
		return nil, errors.New("image model is required")
	}

	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	limit := rate.Inf
	if cfg.RateInterval > 0 {
		limit = rate.Every(cfg.RateInterval)
	}

	return &PanelRenderer{
		model:       model,
		styleHint:   cfg.StyleHint,
		concurrency: concurrency,
		limiter:     rate.NewLimiter(limit, 1),
	}, nil
}

// Render は1パネル分の画像を生成します。
// 応答に画像が含まれない場合は NoImageInResponseError を返し、画像を捏造することはありません。
func (r *PanelRenderer) Render(ctx context.Context, panel domain.Panel) (domain.PanelArtifact, error) {
	prompt := prompts.ImagePrompt(r.styleHint, panel.Description)

	env, err := r.model.Generate(ctx, prompt)
	if err != nil {
		return domain.PanelArtifact{}, domain.NewImageGenerationError(err)
	}

	img, err := firstInlineImage(env)
	if err != nil {
		return domain.PanelArtifact{}, err
	}
	if _, ok := imagegen.DetectMIME(img.Data); !ok {
		slog.WarnContext(ctx, "Image payload has no recognised signature; composer will substitute a placeholder",
			"declared_mime_type", img.MimeType, "size", len(img.Data))
	}

	return domain.PanelArtifact{Image: img, Dialogue: panel.Dialogue}, nil
}

// RenderAll はパネル群を描画し、入力と同じ順序で成果物を返します。
// いずれかのパネルが失敗した場合は残りを中断し、最も若い番号のパネルのエラーを返します。
func (r *PanelRenderer) RenderAll(ctx context.Context, panels []domain.Panel) ([]domain.PanelArtifact, error) {
	artifacts := make([]domain.PanelArtifact, len(panels))
	errs := make([]error, len(panels))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(r.concurrency)

	for i, panel := range panels {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			if err := r.limiter.Wait(egCtx); err != nil {
				return err
			}

			logger := slog.With("panel_index", i+1, "total_panels", len(panels))
			logger.Info("Starting panel generation")

			startTime := time.Now()
			art, err := r.Render(egCtx, panel)
			if err != nil {
				errs[i] = fmt.Errorf("panel %d generation failed: %w", i+1, err)
				return errs[i]
			}

			logger.Info("Panel generation completed", "duration", time.Since(startTime).Round(time.Millisecond))
			artifacts[i] = art
			return nil
		})
	}

	waitErr := eg.Wait()
	for _, err := range errs {
		if err != nil && !errors.Is(err, context.Canceled) {
			return nil, err
		}
	}
	if waitErr != nil {
		return nil, waitErr
	}
	return artifacts, nil
}

// firstInlineImage はエンベロープを走査し、MIME タイプが image/ で始まる最初のインラインデータを返します。
func firstInlineImage(env imagegen.Envelope) (*imagedom.ImageResponse, error) {
	if env == nil {
		return nil, domain.NewNoImageInResponseError("empty response")
	}

	skipped := 0
	for _, cand := range env.Candidates() {
		for _, part := range env.Parts(cand) {
			inline, ok := env.InlineImage(part)
			if !ok || !strings.HasPrefix(strings.ToLower(inline.MIMEType), "image/") {
				continue
			}

			data := inline.Data
			if inline.Base64 {
				decoded, err := decodeBase64(data)
				if err != nil {
					skipped++
					continue
				}
				data = decoded
			}
			if len(data) == 0 {
				skipped++
				continue
			}

			return &imagedom.ImageResponse{Data: data, MimeType: inline.MIMEType}, nil
		}
	}

	if skipped > 0 {
		return nil, domain.NewNoImageInResponseError(fmt.Sprintf("%d image part(s) were empty or undecodable", skipped))
	}
	return nil, domain.NewNoImageInResponseError("")
}

func decodeBase64(b []byte) ([]byte, error) {
	s := strings.TrimSpace(string(b))
	if decoded, err := base64.StdEncoding.DecodeString(s); err == nil {
		return decoded, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/shouni/go-comic-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// errGenerationFailed は Response を出力済みで、終了コードだけを 1 にしたいときのエラーなのだ。
var errGenerationFailed = errors.New("comic generation failed")

// generateCmd は、トピックからコミックを1枚生成するのだ。
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "トピックからコミックを生成しますなのだ。",
	Long: `検索、台本生成、パネル画像生成、ページ合成を順に実行するのだ。
結果は JSON で標準出力に書き出し、失敗した場合は終了コード 1 になるのだよ。`,
	RunE: generateCommand,
}

func init() {
	generateCmd.Flags().StringVarP(&opts.Topic, "topic", "t", "", "コミックのトピックなのだ（3文字以上）。")
	generateCmd.Flags().StringVar(&opts.Title, "title", "", "コミックのタイトルなのだ（省略時は台本のタイトル）。")
	generateCmd.Flags().IntVarP(&opts.Pages, "pages", "p", 0, "生成するページ数なのだ（1〜4、既定 2）。")
	generateCmd.Flags().IntVar(&opts.MaxChunks, "max-chunks", 0, "文脈に使うチャンク数の上限なのだ（1〜20、既定 3）。")
	generateCmd.Flags().BoolVar(&opts.NoDialogue, "no-dialogue", false, "セリフを描かないのだ。")
	generateCmd.Flags().IntVar(&opts.Concurrency, "concurrency", 0, "パネル画像を並列に生成する数なのだ（既定 1）。")
	generateCmd.Flags().String("output-dir", "", "コミックの保存先ディレクトリなのだ。")
	_ = generateCmd.MarkFlagRequired("topic")
}

func generateCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg := loadConfig()
	cfg.Options = opts
	if dir, _ := cmd.Flags().GetString("output-dir"); dir != "" {
		cfg.OutputDir = dir
	}

	slog.Info("コミック生成パイプラインを起動するのだ！",
		"topic", opts.Topic,
		"text_provider", cfg.TextProvider,
		"text_model", cfg.TextModel,
		"image_model", cfg.ImageModel,
		"retrieval", cfg.RetrievalBackend,
		"output", cfg.OutputDir)

	resp, err := pipeline.Execute(ctx, cfg)
	if err != nil {
		return fmt.Errorf("パイプラインの初期化中にエラーが発生したのだ: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		return err
	}

	if !resp.Succeeded() {
		return errGenerationFailed
	}
	slog.Info("すべての生成工程が完了したのだ！", "path", resp.ComicPath)
	return nil
}

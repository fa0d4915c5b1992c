package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/shouni/go-comic-kit/internal/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// opts は generate コマンドのフラグの受け皿なのだ。
var opts config.GenerateOptions

// rootCmd は CLI 全体のベースとなるコマンドなのだ。
var rootCmd = &cobra.Command{
	Use:   "comicgen",
	Short: "知識ベースの検索結果から教育用コミックを生成するのだ。",
	Long: `トピックに関する文脈を検索バックエンドから取得し、LLM でパネル台本を書き、
パネルごとに画像を生成して 2x2 のコミックページに合成するのだ。`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		setupLogger(verbose)
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "設定ファイルのパスなのだ (既定: ./comicgen.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "デバッグログを出力するのだ")

	rootCmd.AddCommand(generateCmd, ingestCmd, showCmd)
}

// initConfig は設定ファイルを viper に読み込むのだ。ファイルが無くてもエラーにはしないのだよ。
func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("comicgen")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig は環境変数を読み、設定ファイルの値で上書きした設定を返すのだ。
func loadConfig() *config.Config {
	cfg := config.LoadConfig()
	cfg.ApplyOverrides(viper.GetViper())
	return cfg
}

func setupLogger(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// main.go から呼び出されて、cobra のコマンドライン解析を開始するのだよ。
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

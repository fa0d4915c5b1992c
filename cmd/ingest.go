package cmd

import (
	"fmt"

	"github.com/shouni/go-comic-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// ingestCmd は、YAML のコーパスをローカル知識ベースに取り込むのだ。
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "ローカル知識ベースに文書を取り込みますなのだ。",
	Long: `documents: [{id, title, content}] 形式の YAML を読み、段落ごとに SQLite FTS5 に登録するのだ。
--file を省略すると同梱のサンプルコーパスを取り込むのだよ。
取り込んだ知識ベースは RETRIEVAL_BACKEND=local で検索に使えるのだ。`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		db, _ := cmd.Flags().GetString("db")
		if db == "" {
			db = loadConfig().KnowledgeDB
		}

		n, err := pipeline.Ingest(cmd.Context(), db, file)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Ingested %d chunks into %s\n", n, db)
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringP("file", "f", "", "取り込む YAML コーパスのパスなのだ")
	ingestCmd.Flags().String("db", "", "知識ベースのパスなのだ (既定: KNOWLEDGE_DB)")
}

package cmd

import (
	"encoding/json"

	"github.com/shouni/go-comic-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// showCmd は、カタログに記録されたコミックのメタデータを表示するのだ。
var showCmd = &cobra.Command{
	Use:   "show [comic_id]",
	Short: "生成済みコミックのメタデータを表示しますなのだ。",
	Long:  `comic_id を指定するとその1件を、省略すると最近のコミックの一覧を JSON で出力するのだ。`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db := loadConfig().CatalogDB
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")

		if len(args) == 1 {
			art, err := pipeline.Show(cmd.Context(), db, args[0])
			if err != nil {
				return err
			}
			return enc.Encode(art)
		}

		limit, _ := cmd.Flags().GetInt("limit")
		list, err := pipeline.List(cmd.Context(), db, limit)
		if err != nil {
			return err
		}
		return enc.Encode(list)
	},
}

func init() {
	showCmd.Flags().Int("limit", 20, "一覧表示の最大件数なのだ")
}

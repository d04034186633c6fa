package commands

import (
	"influence-backend/lib/report"
	"influence-backend/lib/util/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var historyLimit *int

func init() {
	historyLimit = historyCmd.Flags().Int("limit", 30, "The amount of days to show.")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history <creator> [--limit <n>]",
	Short: "Prints the score history of a creator.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := loadConfig()
		creator := findCreator(cfg, args[0])

		store, closeStore := openStore(ctx, cfg)
		defer closeStore()

		scores, err := store.History(ctx, creator.Key, *historyLimit)
		if err != nil {
			serviceutil.Fatal("failed to read history", err)
		}

		t := newTable()
		t.SetTitle(creator.Name)
		t.AppendHeader(table.Row{"Date", "Score", "Base", "Reach", "Commercial", "#", "Region #"})
		for _, s := range scores {
			t.AppendRow(table.Row{
				s.Date,
				report.FormatScore(s.Total),
				report.FormatScore(s.Base),
				report.FormatScore(s.Reach),
				report.FormatScore(s.Commercial),
				s.RankGlobal,
				s.RankRegion,
			})
		}
		t.Render()
	},
}

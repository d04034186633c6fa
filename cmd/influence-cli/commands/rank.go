package commands

import (
	"influence-backend/lib/report"
	"influence-backend/lib/util/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	rankDate   *string
	rankRegion *string
)

func init() {
	rankDate = rankCmd.Flags().String("date", "", "The date to rank (YYYY-MM-DD), defaults to the latest.")
	rankRegion = rankCmd.Flags().String("region", "", "Only rank creators of this region.")
	rootCmd.AddCommand(rankCmd)
}

var rankCmd = &cobra.Command{
	Use:   "rank [--date <YYYY-MM-DD>] [--region <region>]",
	Short: "Prints the stored ranking of a date.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := loadConfig()
		store, closeStore := openStore(ctx, cfg)
		defer closeStore()

		scores, err := store.Rankings(ctx, *rankDate, *rankRegion)
		if err != nil {
			serviceutil.Fatal("failed to read rankings", err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"#", "Region #", "Key", "Name", "Region", "Category", "Score", "Date"})
		for _, s := range scores {
			t.AppendRow(table.Row{s.RankGlobal, s.RankRegion, s.Key, s.Name, s.Region, s.Category, report.FormatScore(s.Total), s.Date})
		}
		t.Render()
	},
}

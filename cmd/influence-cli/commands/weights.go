package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(weightsCmd)
}

var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "Prints the platform weights and scoring options in effect.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		t := newTable()
		t.SetTitle(fmt.Sprintf("Platform weights (%s)", cfg.Region()))
		t.AppendHeader(table.Row{"Platform", "Weight", "Engagement", "Region"})
		weights := cfg.Weights()
		for _, platform := range weights.Platforms() {
			w, _ := weights.Lookup(platform)
			t.AppendRow(table.Row{platform, w.Weight, w.Engagement, w.Region})
		}
		t.Render()

		opts := cfg.Options()
		o := newTable()
		o.SetTitle("Scoring")
		o.AppendRows([]table.Row{
			{"base blend", opts.BaseBlend},
			{"engagement blend", opts.EngagementBlend},
			{"reach blend", opts.ReachBlend},
			{"scale constant", opts.ScaleConstant},
			{"reach fraction", opts.ReachFraction},
			{"estimated factor", opts.EstimatedFactor},
			{"include errors", opts.IncludeErrors},
		})
		o.Render()
	},
}

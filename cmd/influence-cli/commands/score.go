package commands

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"slices"

	"influence-backend/lib/influence"
	"influence-backend/lib/report"
	"influence-backend/lib/util/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	scoreComponents *bool
	scoreProvenance *bool
)

func init() {
	scoreComponents = scoreCmd.Flags().Bool("components", false, "Also print the base/reach/commercial split.")
	scoreProvenance = scoreCmd.Flags().Bool("provenance", false, "Also print how much of the score comes from fetched and estimated data.")
	rootCmd.AddCommand(scoreCmd)
}

var scoreCmd = &cobra.Command{
	Use:   "score <samples.json> [--components] [--provenance]",
	Short: "Scores samples offline, the file maps creator -> platform -> sample.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		contents, err := os.ReadFile(args[0])
		if err != nil {
			serviceutil.Fatal("failed to read samples", err)
		}
		var samples map[string]map[string]influence.PlatformSample
		err = json.Unmarshal(contents, &samples)
		if err != nil {
			serviceutil.Fatal("failed to parse samples", err)
		}

		t := newTable()
		header := table.Row{"Creator", "Platform", "Status", "Contribution"}
		if *scoreComponents {
			header = append(header, "Base", "Reach", "Commercial")
		}
		if *scoreProvenance {
			header = append(header, "Fetched", "Estimated", "Errored")
		}
		t.AppendHeader(header)
		for _, creator := range slices.Sorted(maps.Keys(samples)) {
			score := influence.Aggregate(samples[creator], cfg.Weights(), cfg.Options())
			for _, platform := range score.Platforms() {
				c := score.Breakdown[platform]
				t.AppendRow(table.Row{creator, platform, c.Status, report.FormatScore(c.Contribution)})
			}
			row := table.Row{creator, "total", "", report.FormatScore(score.Total)}
			if *scoreComponents {
				components := influence.AggregateComponents(samples[creator], cfg.Weights())
				row = append(row,
					report.FormatScore(components.Base),
					report.FormatScore(components.Reach),
					report.FormatScore(components.Commercial),
				)
			}
			if *scoreProvenance {
				provenance := score.Provenance()
				if !*scoreComponents {
					row = append(row, "", "", "")
				}
				errored := 0
				for _, sample := range samples[creator] {
					if sample.Status == influence.StatusError {
						errored++
					}
				}
				row = append(row,
					report.FormatScore(provenance.Success),
					report.FormatScore(provenance.Estimated),
					errored,
				)
			}
			t.AppendRow(row)
			t.AppendSeparator()
		}
		t.Render()
		fmt.Println()
	},
}

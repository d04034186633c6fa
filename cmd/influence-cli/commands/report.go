package commands

import (
	"fmt"
	"io"
	"os"

	"influence-backend/lib/collector"
	"influence-backend/lib/report"
	"influence-backend/lib/util/serviceutil"

	"github.com/spf13/cobra"
)

var (
	reportDate    *string
	reportFormat  *string
	reportOut     *string
	reportRescore *bool
)

func init() {
	reportDate = reportCmd.Flags().String("date", "", "The date to report on (YYYY-MM-DD), defaults to the latest.")
	reportFormat = reportCmd.Flags().String("format", "text", "The report format, text or json.")
	reportOut = reportCmd.Flags().String("out", "", "A file to write the report to instead of stdout.")
	reportRescore = reportCmd.Flags().Bool("rescore", false, "Score the stored samples again with the current weights.")
	rootCmd.AddCommand(reportCmd)
}

var reportCmd = &cobra.Command{
	Use:   "report [--date <YYYY-MM-DD>] [--format text|json] [--out <file>] [--rescore]",
	Short: "Renders a report of a stored run.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := loadConfig()
		store, closeStore := openStore(ctx, cfg)
		defer closeStore()

		run, err := store.Run(ctx, *reportDate)
		if err != nil {
			serviceutil.Fatal("failed to load run", err)
		}
		if *reportRescore {
			c, err := collector.NewCollector(cfg, nil, newClock(cfg), tel)
			if err != nil {
				serviceutil.Fatal("failed to create collector", err)
			}
			run = c.Rescore(run)
		}
		if run.Region == "" {
			run.Region = cfg.Region()
		}
		r := report.Build(run, cfg.Weights(), cfg.Options())

		var out io.Writer = os.Stdout
		if *reportOut != "" {
			f, err := os.Create(*reportOut)
			if err != nil {
				serviceutil.Fatal("failed to create output file", err)
			}
			defer f.Close()
			out = f
		}

		switch *reportFormat {
		case "text":
			err = r.WriteText(out)
		case "json":
			err = r.WriteJSON(out)
		default:
			err = fmt.Errorf("unknown format %q", *reportFormat)
		}
		if err != nil {
			serviceutil.Fatal("failed to write report", err)
		}
	},
}

package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"influence-backend/lib/collector"
	"influence-backend/lib/report"
	"influence-backend/lib/restyutil"
	"influence-backend/lib/roster"
	"influence-backend/lib/util/serviceutil"

	"github.com/spf13/cobra"
)

var (
	collectOut      *string
	collectCreators *[]string
	collectNoSave   *bool
	collectDumpHttp *string
)

func init() {
	collectOut = collectCmd.Flags().String("out", "", "A directory to write the text and json reports to.")
	collectCreators = collectCmd.Flags().StringSlice("creator", nil, "Only collect these creators (key or name).")
	collectNoSave = collectCmd.Flags().Bool("no-save", false, "Do not write the run to the database.")
	collectDumpHttp = collectCmd.Flags().String("dump-http", "", "A directory to dump every http exchange to.")
	rootCmd.AddCommand(collectCmd)
}

func writeReports(dir string, r report.Report) error {
	err := os.MkdirAll(dir, 0777)
	if err != nil {
		return err
	}
	name := "influence_report_" + strings.ReplaceAll(r.Date, "-", "")

	text, err := os.Create(filepath.Join(dir, name+".txt"))
	if err != nil {
		return err
	}
	defer text.Close()
	err = r.WriteText(text)
	if err != nil {
		return err
	}

	data, err := os.Create(filepath.Join(dir, name+".json"))
	if err != nil {
		return err
	}
	defer data.Close()
	return r.WriteJSON(data)
}

var collectCmd = &cobra.Command{
	Use:   "collect [--out <dir>] [--creator <key>...] [--no-save] [--dump-http <dir>]",
	Short: "Collects every creator on every platform, scores, saves and reports the run.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := loadConfig()

		var dump restyutil.InstrumentOutput
		if *collectDumpHttp != "" {
			out, err := restyutil.NewFilesystemOutput(*collectDumpHttp)
			if err != nil {
				serviceutil.Fatal("failed to prepare http dump directory", err)
			}
			dump = out
		}

		sources, err := collector.DefaultSources(ctx, cfg, dump, tel)
		if err != nil {
			serviceutil.Fatal("failed to create fetchers", err)
		}
		c, err := collector.NewCollector(cfg, sources, newClock(cfg), tel)
		if err != nil {
			serviceutil.Fatal("failed to create collector", err)
		}

		creators := cfg.Creators()
		if len(*collectCreators) > 0 {
			creators = make([]roster.Creator, len(*collectCreators))
			for i, name := range *collectCreators {
				creators[i] = findCreator(cfg, name)
			}
		}

		start := time.Now()
		run, err := c.Collect(ctx, creators)
		if err != nil {
			serviceutil.Fatal("collection interrupted", err)
		}
		slog.Info(
			"collected",
			"creators", len(run.Results),
			"failures", len(run.Failures),
			"seconds", time.Since(start).Seconds(),
		)
		for _, failure := range run.Failures {
			slog.Warn("fetch failed", "err", failure)
		}

		if !*collectNoSave {
			store, closeStore := openStore(ctx, cfg)
			defer closeStore()
			runID, err := store.Save(ctx, run)
			if err != nil {
				serviceutil.Fatal("failed to save run", err)
			}
			slog.Info("saved run", "run_id", runID, "date", run.Date)
		}

		r := report.Build(run, cfg.Weights(), cfg.Options())
		if *collectOut != "" {
			err = writeReports(*collectOut, r)
			if err != nil {
				serviceutil.Fatal("failed to write reports", err)
			}
		}
		err = r.WriteText(os.Stdout)
		if err != nil {
			serviceutil.Fatal("failed to print report", err)
		}
		fmt.Println()
	},
}

package commands

import (
	"log/slog"

	"influence-backend/lib/mailer"
	"influence-backend/lib/report"
	"influence-backend/lib/util/serviceutil"

	"github.com/spf13/cobra"
)

var mailDate *string

func init() {
	mailDate = mailCmd.Flags().String("date", "", "The date to report on (YYYY-MM-DD), defaults to the latest.")
	rootCmd.AddCommand(mailCmd)
}

var mailCmd = &cobra.Command{
	Use:   "mail [--date <YYYY-MM-DD>]",
	Short: "Emails the report of a stored run to the configured recipients.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := loadConfig()
		store, closeStore := openStore(ctx, cfg)
		defer closeStore()

		run, err := store.Run(ctx, *mailDate)
		if err != nil {
			serviceutil.Fatal("failed to load run", err)
		}
		if run.Region == "" {
			run.Region = cfg.Region()
		}

		m := mailer.NewMailer(cfg.Smtp(), tel)
		err = m.SendReport(ctx, report.Build(run, cfg.Weights(), cfg.Options()))
		if err != nil {
			serviceutil.Fatal("failed to send report", err)
		}
		slog.Info("sent report", "date", run.Date, "recipients", len(cfg.Smtp().Recipients))
	},
}

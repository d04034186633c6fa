package main

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"influence-backend/internal/components/chrono"
	"influence-backend/internal/components/telemetry"
	"influence-backend/lib/collector"
	"influence-backend/lib/mailer"
	"influence-backend/lib/report"
	"influence-backend/lib/roster"
	"influence-backend/lib/scorestore"
)

const report_scheduled_run = "influenced.scheduled_run"

// InitCollector schedules a collection on the roster's cron spec. Every run is
// saved and, when smtp is configured, mailed.
func InitCollector(
	ctx context.Context,
	cfg roster.Config,
	clock chrono.API,
	cron chrono.CronAPI,
	store scorestore.Store,
	tel telemetry.API,
	initial bool,
) error {
	sources, err := collector.DefaultSources(ctx, cfg, nil, tel)
	if err != nil {
		return err
	}
	c, err := collector.NewCollector(cfg, sources, clock, tel)
	if err != nil {
		return err
	}
	m := mailer.NewMailer(cfg.Smtp(), tel)

	job := newSingleFlight(func() {
		err := collectAndSave(ctx, cfg, c, store, m)
		if err != nil {
			tel.ReportBroken(report_scheduled_run, err)
		}
	})
	if initial {
		go job()
	}
	return cron.Cron(cfg.Schedule(), job)
}

// newSingleFlight wraps job so that a call made while a previous one is still
// running is skipped.
func newSingleFlight(job func()) func() {
	var running sync.Mutex
	return func() {
		if !running.TryLock() {
			slog.Warn("previous collection still running, skipping")
			return
		}
		defer running.Unlock()
		job()
	}
}

func collectAndSave(ctx context.Context, cfg roster.Config, c collector.Collector, store scorestore.Store, m mailer.Mailer) error {
	start := time.Now()
	run, err := c.Collect(ctx, cfg.Creators())
	if err != nil {
		return err
	}
	if err := run.Err(); err != nil {
		slog.WarnContext(ctx, "collection finished with failures", "failures", len(run.Failures), "err", err)
	}

	runID, err := store.Save(ctx, run)
	if err != nil {
		return err
	}
	slog.InfoContext(
		ctx, "saved scheduled run",
		"run_id", runID,
		"date", run.Date,
		"creators", len(run.Results),
		"seconds", time.Since(start).Seconds(),
	)

	err = m.SendReport(ctx, report.Build(run, cfg.Weights(), cfg.Options()))
	if errors.Is(err, mailer.ErrNotConfigured) || errors.Is(err, mailer.ErrNoRecipients) {
		return nil
	}
	return err
}

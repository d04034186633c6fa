package main

import (
	"context"
	"log/slog"
	"time"

	"influence-backend/lib/telemetry"
)

func InitTelemetry(ctx context.Context, verbose bool) {
	telemetry.InitSlog(verbose)

	if verbose {
		slog.DebugContext(ctx, "verbose logging enabled")
	}

	tel, err := telemetry.SetupFromEnv(ctx, "influenced")
	if err != nil {
		slog.WarnContext(ctx, "telemetry export disabled", "err", err)
		return
	}
	go func() {
		<-ctx.Done()
		tel.Shutdown(context.Background())
	}()
	telemetry.InstrumentPerfStats(ctx, 30*time.Second)
}

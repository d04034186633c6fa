package main

import (
	"context"
	"log/slog"

	"influence-backend/cmd/influence-cli/commands"
	"influence-backend/lib/telemetry"
)

func main() {
	ctx := context.Background()
	tel, err := telemetry.SetupFromEnv(ctx, "influence-cli")
	if err != nil {
		slog.Debug("telemetry disabled", "err", err)
	}
	defer tel.Shutdown(ctx)

	commands.ExecuteContext(ctx)
}

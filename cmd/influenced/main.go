package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"

	"influence-backend/internal/components/chrono"
	"influence-backend/internal/components/telemetry"
	"influence-backend/lib/roster"
	"influence-backend/lib/scorestore"
	"influence-backend/lib/util/serviceutil"
)

func main() {
	configPath := flag.String("config", "roster.json5", "The roster configuration file.")
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	initialCollect := flag.Bool("collect", false, "Trigger a collection immediately on run.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	InitTelemetry(ctx, *verbose)
	tel := telemetry.SlogAPI{}

	cfg, err := roster.Load(*configPath)
	if err != nil {
		serviceutil.Fatal("read config", err)
	}
	clock, err := chrono.NewStandardImpl(cfg.Timezone())
	if err != nil {
		serviceutil.Fatal("load timezone", err)
	}

	database, err := cfg.Database().OpenDB()
	if err != nil {
		serviceutil.Fatal("open database", err)
	}
	defer database.Close()
	store := scorestore.NewStore(database, tel)
	err = store.Migrate(ctx)
	if err != nil {
		serviceutil.Fatal("migrate database", err)
	}

	cron := chrono.NewStandardCron(clock, tel)
	defer cron.Stop(context.Background())
	err = InitCollector(ctx, cfg, clock, cron, store, tel, *initialCollect)
	if err != nil {
		serviceutil.Fatal("init collector", err)
	}

	mux := http.NewServeMux()
	InitRankings(mux, cfg, store)

	slog.InfoContext(ctx, "listening", "port", cfg.Port(), "schedule", cfg.Schedule())
	err = serviceutil.StartHttpServer(ctx, cfg.Port(), mux)
	if err != nil {
		serviceutil.Fatal("http server", err)
	}
}

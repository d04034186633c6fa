package commands

import (
	"context"
	"fmt"
	"os"
	"slices"

	"influence-backend/internal/components/chrono"
	"influence-backend/internal/components/telemetry"
	"influence-backend/lib/report"
	"influence-backend/lib/roster"
	"influence-backend/lib/scorestore"
	libtelemetry "influence-backend/lib/telemetry"
	"influence-backend/lib/textutil"
	"influence-backend/lib/util/serviceutil"

	"github.com/antzucaro/matchr"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	configPath *string
	dbPath     *string
	verbose    *bool
)

func init() {
	configPath = rootCmd.PersistentFlags().String("config", "roster.json5", "The roster configuration file.")
	dbPath = rootCmd.PersistentFlags().String("db", "", "Overrides the database file of the roster.")
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enables debug logging.")
}

var rootCmd = &cobra.Command{
	Use:   "influence-cli",
	Short: "influence-cli collects, scores and ranks creator influence across platforms.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		libtelemetry.InitSlog(*verbose)
	},
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var tel telemetry.API = telemetry.SlogAPI{}

func loadConfig() roster.Config {
	cfg, err := roster.Load(*configPath)
	if err != nil {
		serviceutil.Fatal("failed to load roster", err)
	}
	return cfg
}

func newClock(cfg roster.Config) chrono.API {
	clock, err := chrono.NewStandardImpl(cfg.Timezone())
	if err != nil {
		serviceutil.Fatal("failed to load timezone", err)
	}
	return clock
}

func openStore(ctx context.Context, cfg roster.Config) (scorestore.Store, func()) {
	dbConfig := cfg.Database()
	if *dbPath != "" {
		dbConfig.File = *dbPath
		dbConfig.Url = ""
	}
	database, err := dbConfig.OpenDB()
	if err != nil {
		serviceutil.Fatal("failed to open database", err)
	}
	store := scorestore.NewStore(database, tel)
	err = store.Migrate(ctx)
	if err != nil {
		database.Close()
		serviceutil.Fatal("failed to migrate database", err)
	}
	return store, func() { database.Close() }
}

func newTable() table.Writer {
	t := report.NewTable()
	t.SetOutputMirror(os.Stdout)
	return t
}

// findCreator looks a creator up by key or name, suggesting the closest match
// when nothing matches.
func findCreator(cfg roster.Config, name string) roster.Creator {
	creator, err := cfg.Creator(name)
	if err == nil {
		return creator
	}

	type candidate struct {
		key   string
		score float64
	}
	var candidates []candidate
	normalized := textutil.NormalizeName(name)
	for _, c := range cfg.Creators() {
		score := max(
			matchr.JaroWinkler(normalized, textutil.NormalizeName(c.Key), false),
			matchr.JaroWinkler(normalized, textutil.NormalizeName(c.Name), false),
		)
		candidates = append(candidates, candidate{key: c.Key, score: score})
	}
	slices.SortFunc(candidates, func(a, b candidate) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		}
		return 0
	})
	if len(candidates) > 0 && candidates[0].score >= 0.7 {
		err = fmt.Errorf("%w, did you mean %q?", err, candidates[0].key)
	}
	serviceutil.Fatal("failed to find creator", err)
	return roster.Creator{}
}

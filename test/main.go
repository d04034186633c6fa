package main

import (
	"log/slog"
	"os"

	"influence-backend/internal/components/telemetry"
	libtelemetry "influence-backend/lib/telemetry"
	"influence-backend/lib/util/serviceutil"
	"influence-backend/test/fuzzing"

	"github.com/spf13/cobra"
)

var tel = telemetry.SlogAPI{}

var (
	fuzzPath     fuzzing.Path
	fuzzMinSteps *uint64
	fuzzMaxSteps *uint64
)

var rootCmd = &cobra.Command{
	Use:   "test",
	Short: "the influence backend test runner",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		libtelemetry.InitSlog(true)
	},
}

var fuzzCmd = &cobra.Command{
	Use:   "fuzz",
	Short: "run a fuzzer until it finds a failing path, or replay one with --path",
}

var fuzzRankingCmd = &cobra.Command{
	Use:   "ranking [--path <seed>:<steps>]",
	Short: "fuzz collection, storage and ranking of scores",
	Run: func(cmd *cobra.Command, args []string) {
		f, err := fuzzing.New(tel, fuzzing.RankingProvider{}, *fuzzMinSteps, *fuzzMaxSteps, fuzzPath)
		if err != nil {
			serviceutil.Fatal("create fuzzer", err)
		}
		f.StartFuzzTest(cmd.Context())
	},
}

func init() {
	fuzzCmd.PersistentFlags().VarP(&fuzzPath, "path", "p", "replay a fuzzer with a given fuzzing path")
	fuzzMinSteps = fuzzCmd.PersistentFlags().Uint64("min-steps", 10, "the minimum amount of steps executed on any given fuzz target")
	fuzzMaxSteps = fuzzCmd.PersistentFlags().Uint64("max-steps", 100, "the maximum amount of steps executed on any given fuzz target")

	fuzzCmd.AddCommand(fuzzRankingCmd)
	rootCmd.AddCommand(fuzzCmd)
}

func main() {
	ctx := serviceutil.SignalContext()
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		slog.Error("exec err", "err", err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	devenv "influence-backend/dev/env"
	"influence-backend/internal/components/telemetry"
	configlibsql "influence-backend/lib/configutil/libsql"
	"influence-backend/lib/scorestore"
)

func CreateEmptyDB(ctx context.Context, filename string) error {
	path, err := devenv.ResolvePath("<dev_state>/" + filename)
	if err != nil {
		return err
	}

	_, err = os.Stat(path)
	if err == nil {
		fmt.Println("database already created at", path)
		return nil
	}

	fmt.Println("creating database at", path)
	db, err := configlibsql.Struct{File: path}.OpenDB()
	if err != nil {
		return err
	}
	defer db.Close()
	return scorestore.NewStore(db, telemetry.SlogAPI{}).Migrate(ctx)
}

// CreateRoster copies an example roster into dev/.state pointed at the dev
// database, unless one already exists.
func CreateRoster(example string) error {
	path, err := devenv.ResolvePath("<dev_state>/roster.json5")
	if err != nil {
		return err
	}
	_, err = os.Stat(path)
	if err == nil {
		fmt.Println("roster already created at", path)
		return nil
	}

	contents, err := os.ReadFile(example)
	if err != nil {
		return err
	}
	fmt.Println("creating roster at", path, "from", example)
	return os.WriteFile(path, contents, 0666)
}

func PrintConfigLocations() {
	slog.Info("live platform tests are skipped unless their credentials exist in dev/.state (youtube.json5, bilibili.json5), run `go test -v` to see which files they expect.")
	slog.Info("run the cli against the dev state with `go run ./cmd/influence-cli --config dev/.state/roster.json5 --db dev/.state/influence.db collect`")
}

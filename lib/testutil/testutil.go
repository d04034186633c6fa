package testutil

import (
	"database/sql"
	"fmt"
	"testing"

	devenv "influence-backend/dev/env"
	configlibsql "influence-backend/lib/configutil/libsql"
	"influence-backend/lib/telemetry"
)

type DBParams struct {
	Name string
	// if unspecified, it will use `:memory:`, paths may start with <dev_state>
	DbPath string
}

// SetupDB opens a database for a test and sets up telemetry for it. Both are
// torn down when the test ends, migrating is left to the caller.
func SetupDB(t testing.TB, params DBParams) *sql.DB {
	t.Cleanup(telemetry.SetupForTesting(t, fmt.Sprintf("test:%s", params.Name)))

	dbpath := ":memory:"
	if params.DbPath != "" && params.DbPath != ":memory:" {
		var err error
		dbpath, err = devenv.ResolvePath(params.DbPath)
		if err != nil {
			t.Fatal(err)
		}
	}
	database, err := configlibsql.Struct{File: dbpath}.OpenDB()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

package configlibsql

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "scores.db")
	db, err := Struct{File: path}.OpenDB()
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec("create table t (x integer)")
	require.NoError(t, err)

	_, err = os.Stat(path)
	require.NoError(t, err)

	var mode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	require.Equal(t, "wal", mode)
}

func TestOpenMissing(t *testing.T) {
	_, err := Struct{}.OpenDB()
	require.Error(t, err)
	require.False(t, Struct{File: "x.db"}.Remote())
	require.True(t, Struct{Url: "libsql://example.turso.io"}.Remote())
}

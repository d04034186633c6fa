package configlibsql

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// Struct selects a local sqlite file or a remote libsql database. Url takes precedence.
type Struct struct {
	File      string `json:"file"`
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

func (config Struct) Remote() bool {
	return config.Url != ""
}

func (config Struct) OpenDB() (*sql.DB, error) {
	if config.Url != "" {
		return openRemote(config.Url, config.AuthToken)
	}
	if config.File == "" {
		return nil, fmt.Errorf("open db: neither a file nor a url was specified")
	}
	return openFile(config.File)
}

func openRemote(rawUrl, authToken string) (*sql.DB, error) {
	parsed, err := url.Parse(rawUrl)
	if err != nil {
		return nil, fmt.Errorf("open db: parse url: %w", err)
	}
	if authToken != "" {
		values := parsed.Query()
		values.Set("authToken", authToken)
		parsed.RawQuery = values.Encode()
	}
	db, err := sql.Open("libsql", parsed.String())
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return db, nil
}

func openFile(path string) (*sql.DB, error) {
	if path != ":memory:" {
		err := os.MkdirAll(filepath.Dir(path), 0777)
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// sqlite only supports one writer at a time
	db.SetMaxOpenConns(1)
	if path != ":memory:" {
		_, err = db.Exec("PRAGMA journal_mode=WAL")
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("open db: enable wal: %w", err)
		}
	}
	_, err = db.Exec("PRAGMA foreign_keys=ON")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open db: enable foreign keys: %w", err)
	}
	return db, nil
}

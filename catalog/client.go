package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
	L "upstack/logger"

	_ "modernc.org/sqlite"
)

type DB struct {
	D             *sql.DB
	connectionUri string
}

var ErrDoesNotExist = errors.New("no matching row exists in the catalog")

const DateTimeFormat = "2006-01-02 15:04:05"

const CREATE_CATALOG_TABLE = `CREATE TABLE IF NOT EXISTS catalog (
        digest TEXT PRIMARY KEY,

        name TEXT NOT NULL,
        size INTEGER NOT NULL,

        entity_type TEXT NOT NULL,
        entity_id TEXT NOT NULL,

        uploaded_key TEXT NOT NULL,

        created_at TEXT NOT NULL
);`

func NewDB(dbPath string) (*DB, error) {
	d, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	return &DB{
		D:             d,
		connectionUri: dbPath,
	}, nil
}

func (d *DB) Init(ctx context.Context) error {
	_, err := d.D.ExecContext(ctx, CREATE_CATALOG_TABLE)
	if err != nil {
		return fmt.Errorf("catalog: could not create tables: %w", err)
	}
	return nil
}

func (d *DB) Close(ctx context.Context) error {
	return d.D.Close()
}

func GetDBFilePath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir, err := filepath.Abs(filepath.Join(homeDir, ".upstack-cache"))
	if err != nil {
		return "", err
	}
	err = os.MkdirAll(dir, os.ModePerm)
	if err != nil {
		return "", err
	}
	dbPath := filepath.Join(dir, "catalog.db")
	L.Debug(fmt.Sprintf("Using catalog database at: %s", dbPath))
	return dbPath, nil
}

func ToTimeStr(t time.Time) string {
	return t.Local().Format(DateTimeFormat)
}

func FromTimeStr(ts string) time.Time {
	t, err := time.Parse(DateTimeFormat, ts)
	if err != nil {
		L.Error(fmt.Errorf("couldnt parse time for %s: %w", ts, err))
		return time.Now()
	}
	return t
}

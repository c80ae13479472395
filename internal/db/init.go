// package db opens the sqlite database that holds the relay audit log.
package db

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"embed"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var sqlFiles embed.FS

var (
	db       *sql.DB
	dbErr    error
	dbCreate sync.Once
)

// DefaultPath is where the audit database lives unless audit.path is set.
// Note: xdg.DataHome is ~/Library/Application Support on macOS
func DefaultPath() string {
	return filepath.Join(xdg.DataHome, "stegochat", "stegochat.sqlite")
}

// GetDB opens the database at path once, creating it if needed. Later calls return the same
// handle regardless of path.
func GetDB(path string) *sql.DB {
	dbCreate.Do(func() {
		db, dbErr = Open(path)
		if dbErr != nil {
			log.Fatalf("error getting db: %v", dbErr)
		}
	})
	return db
}

// Open opens the sqlite database at path, creating the file and tables if needed.
func Open(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("error creating db directory: %w", err)
	}

	// Open database (creates file if it doesn't exist)
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening db: %w", err)
	}
	// sqlite allows one writer; the relay records from many goroutines
	conn.SetMaxOpenConns(1)
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("error pinging db: %w", err)
	}

	// Create tables
	schema, _ := sqlFiles.ReadFile("schema.sql")
	if _, err = conn.Exec(string(schema)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("error creating tables: %w", err)
	}
	return conn, nil
}

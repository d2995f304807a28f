package repository

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS entries (
	entry_id TEXT NOT NULL,
	kind TEXT NOT NULL,
	parent_id TEXT NOT NULL,
	title TEXT NOT NULL,
	mime_type TEXT,
	original_filename TEXT,
	filesize TEXT,
	download_url TEXT,
	checksum TEXT,
	created_at TEXT NOT NULL,
	modified_at TEXT NOT NULL,
	PRIMARY KEY (entry_id, kind)
);
CREATE INDEX IF NOT EXISTS idx_entries_parent ON entries(parent_id);
CREATE TABLE IF NOT EXISTS notifications (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	created_at TEXT NOT NULL,
	attributes TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id);
`

// OpenSQLite opens (creating if needed) the local metadata database
func OpenSQLite(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single connection serializes writers
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return db, nil
}

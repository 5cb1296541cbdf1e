package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS history (
    code        TEXT NOT NULL,
    candidate   TEXT NOT NULL,
    count       INTEGER NOT NULL,
    last_used   INTEGER NOT NULL,
    PRIMARY KEY (code, candidate)
);
`

// SQLiteBackend stores one row per record and updates rows in place.
type SQLiteBackend struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string) (*SQLiteBackend, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteBackend{db: db, path: path}, nil
}

func (b *SQLiteBackend) Path() string {
	return b.path
}

func (b *SQLiteBackend) Load() ([]Record, error) {
	rows, err := b.db.Query(`SELECT code, candidate, count, last_used FROM history ORDER BY code, candidate`)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var lastUsed int64
		if err := rows.Scan(&r.Code, &r.Candidate, &r.Count, &lastUsed); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		r.LastUsed = time.Unix(0, lastUsed)
		records = append(records, r)
	}
	return records, rows.Err()
}

const upsertSQL = `
INSERT INTO history (code, candidate, count, last_used) VALUES (?, ?, ?, ?)
ON CONFLICT(code, candidate) DO UPDATE SET count = excluded.count, last_used = excluded.last_used`

func (b *SQLiteBackend) Upsert(r Record) error {
	if _, err := b.db.Exec(upsertSQL, r.Code, r.Candidate, r.Count, r.LastUsed.UnixNano()); err != nil {
		return fmt.Errorf("upsert history: %w", err)
	}
	return nil
}

func (b *SQLiteBackend) Save(records []Record) error {
	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM history`); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	stmt, err := tx.Prepare(upsertSQL)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.Exec(r.Code, r.Candidate, r.Count, r.LastUsed.UnixNano()); err != nil {
			return fmt.Errorf("insert history: %w", err)
		}
	}
	return tx.Commit()
}

func (b *SQLiteBackend) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

package journal

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Hara602/fsSentry/internal/model"
)

var JDB *sql.DB

// InitJournal opens (or creates) the on-disk event journal.
func InitJournal(dbPath string) error {
	var err error
	JDB, err = sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("failed to open journal database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ts DATETIME NOT NULL,
		kind TEXT NOT NULL,
		path TEXT NOT NULL,
		other_path TEXT,
		sub_id TEXT
	);
	CREATE INDEX IF NOT EXISTS events_ts ON events(ts);
	`
	if _, err = JDB.Exec(schema); err != nil {
		return fmt.Errorf("failed to create events table: %w", err)
	}
	return nil
}

// Record persists one delivered event. Journal failures are returned
// to the caller but never block delivery.
func Record(ev model.FileEvent) error {
	if JDB == nil {
		return nil
	}
	_, err := JDB.Exec(
		"INSERT INTO events(ts, kind, path, other_path, sub_id) VALUES (?, ?, ?, ?, ?)",
		ev.TimeStamp.UTC(), ev.Kind.String(), ev.Path, ev.OtherPath, ev.SubID,
	)
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}
	return nil
}

// Entry is one journaled event as read back from the database.
type Entry struct {
	ID        int64
	TimeStamp time.Time
	Kind      string
	Path      string
	OtherPath string
	SubID     string
}

// Recent returns up to limit journal entries, newest first.
func Recent(limit int) ([]Entry, error) {
	if JDB == nil {
		return nil, nil
	}
	rows, err := JDB.Query(
		"SELECT id, ts, kind, path, other_path, sub_id FROM events ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var other, subID sql.NullString
		if err := rows.Scan(&e.ID, &e.TimeStamp, &e.Kind, &e.Path, &other, &subID); err != nil {
			return nil, err
		}
		e.OtherPath = other.String
		e.SubID = subID.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CloseJournal flushes and closes the database.
func CloseJournal() {
	if JDB != nil {
		JDB.Close()
		JDB = nil
	}
}

package activitylog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Event types recorded in the log.
const (
	EventLogin    = "login"
	EventLogout   = "logout"
	EventActivity = "activity"
)

// DefaultGranularity is the collapse window for repeated activity events.
const DefaultGranularity = 300 * time.Second

// Entry is one row of the activity log.
type Entry struct {
	ID        int64
	Email     string
	EventType string
	Created   time.Time
	Updated   time.Time
}

// Store persists activity entries in SQLite.
type Store struct {
	db          *sql.DB
	granularity time.Duration
	now         func() time.Time
}

// Open opens (creating if needed) the SQLite database at path and ensures
// the schema exists.
func Open(path string, granularity time.Duration) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening activity log: %w", err)
	}
	store := NewStore(db, granularity)
	if err := store.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewStore wraps an existing database handle.
func NewStore(db *sql.DB, granularity time.Duration) *Store {
	if granularity <= 0 {
		granularity = DefaultGranularity
	}
	return &Store{db: db, granularity: granularity, now: time.Now}
}

// Migrate creates the log table.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS gc_activity_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email TEXT NOT NULL,
			event_type TEXT NOT NULL,
			created INTEGER NOT NULL,
			updated INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_gc_activity_log_lookup
			ON gc_activity_log (email, event_type, updated);
	`)
	if err != nil {
		return fmt.Errorf("migrating activity log: %w", err)
	}
	return nil
}

// Record logs an event. An activity event from the same email within the
// collapse granularity refreshes the latest row's updated timestamp instead
// of inserting; login and logout events always insert.
func (s *Store) Record(ctx context.Context, email, eventType string) error {
	now := s.now()

	if eventType == EventActivity {
		cutoff := now.Add(-s.granularity)
		res, err := s.db.ExecContext(ctx, `
			UPDATE gc_activity_log SET updated = ?
			WHERE id = (
				SELECT id FROM gc_activity_log
				WHERE email = ? AND event_type = ? AND updated >= ?
				ORDER BY updated DESC LIMIT 1
			)`,
			now.Unix(), email, eventType, cutoff.Unix())
		if err != nil {
			return fmt.Errorf("collapsing activity event: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			return nil
		}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO gc_activity_log (email, event_type, created, updated) VALUES (?, ?, ?, ?)`,
		email, eventType, now.Unix(), now.Unix())
	if err != nil {
		return fmt.Errorf("recording %s event: %w", eventType, err)
	}
	return nil
}

// Prune deletes entries whose created timestamp is older than the cutoff
// and returns how many were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM gc_activity_log WHERE created < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("pruning activity log: %w", err)
	}
	return res.RowsAffected()
}

// Recent returns the newest entries, capped at limit.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, email, event_type, created, updated
		FROM gc_activity_log ORDER BY updated DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing activity log: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var created, updated int64
		if err := rows.Scan(&e.ID, &e.Email, &e.EventType, &created, &updated); err != nil {
			return nil, err
		}
		e.Created = time.Unix(created, 0)
		e.Updated = time.Unix(updated, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

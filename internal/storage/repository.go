package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"recount/internal/core"

	_ "modernc.org/sqlite"
)

// Sync status values of the counter row.
const (
	SyncStatusPending = "pending"
	SyncStatusSynced  = "synced"
	SyncStatusError   = "error"
)

// timeLayout keeps stored timestamps fixed-width so text ordering matches
// chronological ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// CounterState is the persisted counter row.
type CounterState struct {
	Total         int64
	Version       int64
	SyncedVersion int64
	SyncStatus    string
	UpdatedAt     time.Time
}

// NeedsSync reports whether the remote mirror lags the local total.
func (s CounterState) NeedsSync() bool {
	return s.SyncedVersion < s.Version
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single writer keeps version bumps serialized.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("SQLite schema ready", "path", dbPath, "schema_version", version)

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ReadTotal returns the locally persisted running total.
func (r *SQLiteRepository) ReadTotal(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx, `SELECT total FROM counter WHERE id = 1`).Scan(&total)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read total: %w", err)
	}
	return total, nil
}

// WriteTotal overwrites the total, bumps the version and marks the row
// pending. It returns the new version.
func (r *SQLiteRepository) WriteTotal(ctx context.Context, total int64) (int64, error) {
	if total < 0 {
		return 0, fmt.Errorf("invalid total %d", total)
	}
	now := time.Now().UTC().Format(timeLayout)

	var version int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO counter (id, total, version, synced_version, sync_status, updated_at)
		VALUES (1, ?, 1, 0, 'pending', ?)
		ON CONFLICT(id) DO UPDATE SET
			total = excluded.total,
			version = counter.version + 1,
			sync_status = 'pending',
			updated_at = excluded.updated_at
		RETURNING version`, total, now).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("write total: %w", err)
	}

	slog.InfoContext(ctx, "Total saved to SQLite", "total", total, "version", version)
	return version, nil
}

// CounterState returns the full counter row.
func (r *SQLiteRepository) CounterState(ctx context.Context) (CounterState, error) {
	var (
		s         CounterState
		updatedAt string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT total, version, synced_version, sync_status, updated_at
		FROM counter WHERE id = 1`).
		Scan(&s.Total, &s.Version, &s.SyncedVersion, &s.SyncStatus, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return CounterState{SyncStatus: SyncStatusSynced}, nil
	}
	if err != nil {
		return CounterState{}, fmt.Errorf("read counter state: %w", err)
	}
	if t, perr := time.Parse(time.RFC3339Nano, updatedAt); perr == nil {
		s.UpdatedAt = t
	}
	return s, nil
}

// MarkSynced records that the remote mirror holds the total of version.
// Older versions never move synced_version backwards.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, version int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE counter SET
			synced_version = MAX(synced_version, ?),
			sync_status = CASE WHEN MAX(synced_version, ?) >= version THEN 'synced' ELSE 'pending' END
		WHERE id = 1`, version, version)
	if err != nil {
		return fmt.Errorf("mark counter synced: %w", err)
	}

	slog.InfoContext(ctx, "Counter marked as synced", "version", version)
	return nil
}

// MarkSyncError flags the counter row after a failed remote write.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `UPDATE counter SET sync_status = 'error' WHERE id = 1`)
	if err != nil {
		return fmt.Errorf("mark counter sync error: %w", err)
	}

	slog.WarnContext(ctx, "Counter marked with sync error")
	return nil
}

// RecordEvent appends an audit event.
func (r *SQLiteRepository) RecordEvent(ctx context.Context, e core.Event) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO events (name, date) VALUES (?, ?)`,
		e.Name, e.Date.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// ListEvents returns up to limit events, newest first. A non-positive limit
// returns every event.
func (r *SQLiteRepository) ListEvents(ctx context.Context, limit int) ([]core.Event, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT name, date FROM events
		ORDER BY date DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []core.Event
	for rows.Next() {
		var name, date string
		if err := rows.Scan(&name, &date); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		t, err := time.Parse(time.RFC3339Nano, date)
		if err != nil {
			slog.WarnContext(ctx, "Skipping event with invalid date", "name", name, "date", date)
			continue
		}
		events = append(events, core.Event{Name: name, Date: t})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// ListAliases returns the user-defined aliases, sorted by phrase.
func (r *SQLiteRepository) ListAliases(ctx context.Context) ([]core.AliasEntry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT phrase, category FROM aliases ORDER BY phrase`)
	if err != nil {
		return nil, fmt.Errorf("list aliases: %w", err)
	}
	defer rows.Close()

	var out []core.AliasEntry
	for rows.Next() {
		var phrase, category string
		if err := rows.Scan(&phrase, &category); err != nil {
			return nil, fmt.Errorf("scan alias: %w", err)
		}
		c, err := core.ParseCategory(category)
		if err != nil {
			slog.WarnContext(ctx, "Skipping alias with unknown category", "phrase", phrase, "category", category)
			continue
		}
		out = append(out, core.AliasEntry{Phrase: phrase, Category: c})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate aliases: %w", err)
	}
	return out, nil
}

// SaveAlias upserts a user-defined alias.
func (r *SQLiteRepository) SaveAlias(ctx context.Context, a core.AliasEntry) error {
	phrase := core.NormalizePhrase(a.Phrase)
	if phrase == "" {
		return core.ErrEmptyPhrase
	}
	if !a.Category.Valid() {
		return core.ErrUnknownCategory
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO aliases (phrase, category) VALUES (?, ?)
		ON CONFLICT(phrase) DO UPDATE SET category = excluded.category`,
		phrase, a.Category.String())
	if err != nil {
		return fmt.Errorf("save alias %q: %w", phrase, err)
	}
	return nil
}

// DeleteAlias removes a user-defined alias. Missing phrases are not an error.
func (r *SQLiteRepository) DeleteAlias(ctx context.Context, phrase string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM aliases WHERE phrase = ?`, core.NormalizePhrase(phrase))
	if err != nil {
		return fmt.Errorf("delete alias %q: %w", phrase, err)
	}
	return nil
}

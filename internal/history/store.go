// Package history persists the notifications ntfytoast has shown, so a later
// process can find and close them by (app id, group, tag).
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cristianoliveira/ntfytoast/internal/action"
	_ "modernc.org/sqlite"
)

// DefaultGroup is the group every ntfytoast notification is filed under.
const DefaultGroup = "NtfyToast"

const timeLayout = "2006-01-02T15:04:05.000000000Z"

var (
	// ErrEntryNotFound indicates that no entry matches the key.
	ErrEntryNotFound = errors.New("history entry not found")
	// ErrInvalidKey indicates an empty app id or tag.
	ErrInvalidKey = errors.New("invalid history key")
)

// Entry is one shown notification.
type Entry struct {
	AppID    string
	Group    string
	Tag      string
	ServerID uint32
	Title    string
	Body     string
	// Outcome is meaningful only when Resolved is set.
	Outcome   action.Kind
	Resolved  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store is the SQLite-backed history.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// DefaultPath returns the database location under stateDir.
func DefaultPath(stateDir string) string {
	return filepath.Join(stateDir, "history.db")
}

// Open creates or opens the history database at dbPath.
func Open(dbPath string) (*Store, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("history: db path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("history: create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("history: open db: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) init() error {
	if _, err := s.db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return fmt.Errorf("history: set busy timeout: %w", err)
	}
	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("history: create schema: %w", err)
	}
	return nil
}

func validKey(appID, group, tag string) error {
	if strings.TrimSpace(appID) == "" || strings.TrimSpace(group) == "" || strings.TrimSpace(tag) == "" {
		return fmt.Errorf("%w: app_id=%q group=%q tag=%q", ErrInvalidKey, appID, group, tag)
	}
	return nil
}

// Record stores a newly shown notification. Showing the same tag again
// replaces the previous entry and clears its outcome.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.Group == "" {
		e.Group = DefaultGroup
	}
	if err := validKey(e.AppID, e.Group, e.Tag); err != nil {
		return err
	}
	now := s.stamp()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO notifications (app_id, grp, tag, server_id, title, body, outcome, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, NULL, ?, ?)
ON CONFLICT(app_id, grp, tag) DO UPDATE SET
    server_id = excluded.server_id,
    title = excluded.title,
    body = excluded.body,
    outcome = NULL,
    created_at = excluded.created_at,
    updated_at = excluded.updated_at`,
		e.AppID, e.Group, e.Tag, int64(e.ServerID), e.Title, e.Body, now, now)
	if err != nil {
		return fmt.Errorf("history: record %s/%s: %w", e.AppID, e.Tag, err)
	}
	return nil
}

// SetOutcome records how a notification was resolved.
func (s *Store) SetOutcome(ctx context.Context, appID, group, tag string, kind action.Kind) error {
	if err := validKey(appID, group, tag); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET outcome = ?, updated_at = ? WHERE app_id = ? AND grp = ? AND tag = ?`,
		kind.String(), s.stamp(), appID, group, tag)
	if err != nil {
		return fmt.Errorf("history: set outcome: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("history: set outcome: %w: %s/%s", ErrEntryNotFound, appID, tag)
	}
	return nil
}

const selectColumns = `SELECT app_id, grp, tag, server_id, title, body, outcome, created_at, updated_at FROM notifications`

// Find returns the entry for the key.
func (s *Store) Find(ctx context.Context, appID, group, tag string) (Entry, error) {
	if err := validKey(appID, group, tag); err != nil {
		return Entry{}, err
	}
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE app_id = ? AND grp = ? AND tag = ?`, appID, group, tag)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("history: find: %w: %s/%s", ErrEntryNotFound, appID, tag)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("history: find: %w", err)
	}
	return e, nil
}

// Remove deletes the entry for the key and returns it.
func (s *Store) Remove(ctx context.Context, appID, group, tag string) (Entry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Entry{}, fmt.Errorf("history: remove: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := validKey(appID, group, tag); err != nil {
		return Entry{}, err
	}
	e, err := scanEntry(tx.QueryRowContext(ctx, selectColumns+` WHERE app_id = ? AND grp = ? AND tag = ?`, appID, group, tag))
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("history: remove: %w: %s/%s", ErrEntryNotFound, appID, tag)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("history: remove: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM notifications WHERE app_id = ? AND grp = ? AND tag = ?`, appID, group, tag); err != nil {
		return Entry{}, fmt.Errorf("history: remove: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Entry{}, fmt.Errorf("history: remove: %w", err)
	}
	return e, nil
}

// List returns the most recently updated entries first. An empty appID lists
// every application; limit <= 0 means no limit.
func (s *Store) List(ctx context.Context, appID string, limit int) ([]Entry, error) {
	query := selectColumns + ` WHERE (? = '' OR app_id = ?) ORDER BY updated_at DESC, rowid DESC`
	args := []any{appID, appID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("history: list: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("history: list: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: list: %w", err)
	}
	return entries, nil
}

// Trim deletes all but the keep most recently updated entries.
func (s *Store) Trim(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		return 0, fmt.Errorf("history: trim: keep must be > 0, got %d", keep)
	}
	res, err := s.db.ExecContext(ctx, `
DELETE FROM notifications WHERE rowid NOT IN (
    SELECT rowid FROM notifications ORDER BY updated_at DESC, rowid DESC LIMIT ?
)`, keep)
	if err != nil {
		return 0, fmt.Errorf("history: trim: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var (
		e                Entry
		serverID         int64
		outcome          sql.NullString
		created, updated string
	)
	if err := row.Scan(&e.AppID, &e.Group, &e.Tag, &serverID, &e.Title, &e.Body, &outcome, &created, &updated); err != nil {
		return Entry{}, err
	}
	e.ServerID = uint32(serverID)
	if outcome.Valid {
		e.Outcome = action.Parse(outcome.String)
		e.Resolved = true
	}
	e.CreatedAt, _ = time.Parse(timeLayout, created)
	e.UpdatedAt, _ = time.Parse(timeLayout, updated)
	return e, nil
}

func (s *Store) stamp() string {
	return s.now().UTC().Format(timeLayout)
}

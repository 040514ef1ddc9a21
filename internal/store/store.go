package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bestea_pos/internal/pos"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("store: not found")

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS pending_items (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		payload TEXT NOT NULL,
		enqueued_at DATETIME NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_pending_items_kind ON pending_items(kind);`,
	`CREATE TABLE IF NOT EXISTS shift_snapshot (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		open INTEGER NOT NULL,
		session TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);`,
}

// Store is the device-local durable state: the pending write queue plus a
// singleton snapshot of the current shift session. Everything survives
// process restarts; it is the sole owner of its sqlite file.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	// rowid gives FIFO within a kind; concurrent writers are not a concern
	// but sqlite still wants a single connection to avoid SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	for _, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate store: %w", err)
		}
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Enqueue persists one pending item and returns its id. The id is assigned
// here if the payload did not bring one, and stays stable across retries.
// A persistence failure propagates; the caller must know the write was not
// durably queued.
func (s *Store) Enqueue(item pos.QueueItem) (string, error) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.EnqueuedAt.IsZero() {
		item.EnqueuedAt = time.Now().UTC()
	}
	item.Offline = true

	payload, err := json.Marshal(item.Payload)
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO pending_items (id, kind, payload, enqueued_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind,
			payload = excluded.payload
	`, item.ID, string(item.Kind), string(payload), item.EnqueuedAt.UTC())
	if err != nil {
		return "", fmt.Errorf("enqueue %s: %w", item.Kind, err)
	}
	return item.ID, nil
}

// ListPending returns a snapshot of queued items in insertion order,
// optionally filtered by kind. Safe to iterate while a sync pass removes
// items concurrently.
func (s *Store) ListPending(kind pos.QueueKind) ([]pos.QueueItem, error) {
	query := `SELECT id, kind, payload, enqueued_at FROM pending_items ORDER BY rowid ASC`
	args := []any{}
	if kind != "" {
		query = `SELECT id, kind, payload, enqueued_at FROM pending_items WHERE kind = ? ORDER BY rowid ASC`
		args = append(args, string(kind))
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []pos.QueueItem
	for rows.Next() {
		var (
			it         pos.QueueItem
			rawPayload string
			enqueuedAt time.Time
		)
		if err := rows.Scan(&it.ID, &it.Kind, &rawPayload, &enqueuedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(rawPayload), &it.Payload); err != nil {
			return nil, fmt.Errorf("decode payload %s: %w", it.ID, err)
		}
		it.EnqueuedAt = enqueuedAt.UTC()
		it.Offline = true
		items = append(items, it)
	}
	return items, rows.Err()
}

// Remove deletes one item. Removing an absent id is not an error.
func (s *Store) Remove(id string) error {
	_, err := s.db.Exec(`DELETE FROM pending_items WHERE id = ?`, id)
	return err
}

// PendingCount is the total across all kinds, surfaced as sync status.
func (s *Store) PendingCount() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM pending_items`).Scan(&n)
	return n, err
}

// SaveShift upserts the singleton shift snapshot so a restart restores the
// exact session state.
func (s *Store) SaveShift(open bool, session pos.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	openFlag := 0
	if open {
		openFlag = 1
	}
	_, err = s.db.Exec(`
		INSERT INTO shift_snapshot (id, open, session, updated_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			open = excluded.open,
			session = excluded.session,
			updated_at = excluded.updated_at
	`, openFlag, string(data), time.Now().UTC())
	return err
}

// LoadShift restores the persisted snapshot. ErrNotFound when the device
// has never saved one.
func (s *Store) LoadShift() (bool, pos.Session, error) {
	var (
		openFlag int
		raw      string
	)
	err := s.db.QueryRow(`SELECT open, session FROM shift_snapshot WHERE id = 1`).Scan(&openFlag, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, pos.Session{}, ErrNotFound
	}
	if err != nil {
		return false, pos.Session{}, err
	}
	var session pos.Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return false, pos.Session{}, fmt.Errorf("decode session: %w", err)
	}
	return openFlag == 1, session, nil
}

// ClearShift removes the snapshot, used after an explicit close.
func (s *Store) ClearShift() error {
	_, err := s.db.Exec(`DELETE FROM shift_snapshot WHERE id = 1`)
	return err
}

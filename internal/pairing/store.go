// Package pairing controls which chat users may talk to the agent.
// Approval is durable; pairing codes are ephemeral and live only in the
// gate's memory.
package pairing

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure Go SQLite driver, no CGO

	"github.com/valetproj/valet/internal/logging"
	"github.com/valetproj/valet/internal/pairing/migrations"
)

// Record is one approved pairing.
type Record struct {
	Platform   string
	UserID     string
	Display    string
	ApprovedAt time.Time
	ApprovedBy string
}

// Store persists pairing records in SQLite.
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if needed) the pairing database at path and
// applies migrations.
func OpenStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite does not handle concurrent writers well; serialize all access
	// through a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := migrations.Run(db); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	logging.Infof("pairing", "database initialized at %s", path)
	return &Store{db: db}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error { return s.db.Close() }

// Get returns the record for a platform user, or nil when none exists.
func (s *Store) Get(platform, userID string) (*Record, error) {
	row := s.db.QueryRow(
		`SELECT platform, user_id, display, approved_at, approved_by
		   FROM pairings WHERE platform = ? AND user_id = ?`,
		platform, userID)

	var r Record
	err := row.Scan(&r.Platform, &r.UserID, &r.Display, &r.ApprovedAt, &r.ApprovedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query pairing: %w", err)
	}
	return &r, nil
}

// Put inserts or replaces a pairing record.
func (s *Store) Put(r *Record) error {
	_, err := s.db.Exec(
		`INSERT INTO pairings (platform, user_id, display, approved_at, approved_by)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (platform, user_id) DO UPDATE SET
		   display = excluded.display,
		   approved_at = excluded.approved_at,
		   approved_by = excluded.approved_by`,
		r.Platform, r.UserID, r.Display, r.ApprovedAt, r.ApprovedBy)
	if err != nil {
		return fmt.Errorf("store pairing: %w", err)
	}
	return nil
}

// Delete removes a pairing record. Deleting a missing record is not an
// error.
func (s *Store) Delete(platform, userID string) error {
	_, err := s.db.Exec(
		`DELETE FROM pairings WHERE platform = ? AND user_id = ?`,
		platform, userID)
	if err != nil {
		return fmt.Errorf("delete pairing: %w", err)
	}
	return nil
}

// List returns all pairing records ordered by approval time.
func (s *Store) List() ([]Record, error) {
	rows, err := s.db.Query(
		`SELECT platform, user_id, display, approved_at, approved_by
		   FROM pairings ORDER BY approved_at`)
	if err != nil {
		return nil, fmt.Errorf("list pairings: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Platform, &r.UserID, &r.Display, &r.ApprovedAt, &r.ApprovedBy); err != nil {
			return nil, fmt.Errorf("scan pairing: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Package history records an audit trail of generated profiles in a local
// SQLite database. Shared secrets are never stored.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/yllada/vpn-profile/common"
	"github.com/yllada/vpn-profile/vpn"
)

const defaultListLimit = 20

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS builds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		profile_uuid TEXT NOT NULL UNIQUE,
		payload_uuid TEXT NOT NULL,
		ssid TEXT NOT NULL,
		username TEXT NOT NULL,
		remote_address TEXT NOT NULL,
		output_path TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS builds_created_at ON builds(created_at)`,
}

// Entry is one successful build.
type Entry struct {
	ID            int64
	ProfileUUID   string
	PayloadUUID   string
	SSID          string
	Username      string
	RemoteAddress string
	OutputPath    string
	CreatedAt     time.Time
}

// EntryFromProfile extracts the auditable fields of p.
func EntryFromProfile(p *vpn.Profile, outputPath string, at time.Time) Entry {
	e := Entry{
		ProfileUUID: p.PayloadUUID,
		OutputPath:  outputPath,
		CreatedAt:   at.UTC(),
	}
	if v := p.VPN(); v != nil {
		e.PayloadUUID = v.PayloadUUID
		e.Username = v.PPP.AuthName
		e.RemoteAddress = v.PPP.CommRemoteAddress
		if len(v.OnDemandRules) > 0 && len(v.OnDemandRules[0].SSIDMatch) > 0 {
			e.SSID = v.OnDemandRules[0].SSIDMatch[0]
		}
	}
	return e
}

// Store is the build history database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the history database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := common.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, common.NewError(common.ErrHistory, "create history directory", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, common.NewError(common.ErrHistory, "open sqlite store", err)
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, common.NewError(common.ErrHistory, "apply schema", err)
		}
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts e and returns its row ID.
func (s *Store) Record(ctx context.Context, e Entry) (int64, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO builds (profile_uuid, payload_uuid, ssid, username, remote_address, output_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ProfileUUID, e.PayloadUUID, e.SSID, e.Username, e.RemoteAddress, e.OutputPath,
		e.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, common.NewError(common.ErrHistory, "record build", err)
	}
	return res.LastInsertId()
}

// List returns up to limit entries, newest first. A non-positive limit
// means the default of 20.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, profile_uuid, payload_uuid, ssid, username, remote_address, output_path, created_at
		FROM builds
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, common.NewError(common.ErrHistory, "list builds", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			created string
		)
		if err := rows.Scan(&e.ID, &e.ProfileUUID, &e.PayloadUUID, &e.SSID, &e.Username,
			&e.RemoteAddress, &e.OutputPath, &created); err != nil {
			return nil, common.NewError(common.ErrHistory, "scan build", err)
		}
		e.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, common.NewError(common.ErrHistory, fmt.Sprintf("bad timestamp on build %d", e.ID), err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewError(common.ErrHistory, "list builds", err)
	}
	return entries, nil
}

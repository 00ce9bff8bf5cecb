package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/san-kum/transmute/internal/depletion"
	"github.com/san-kum/transmute/internal/isotope"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	created_at TEXT NOT NULL,
	metadata   BLOB NOT NULL
);
CREATE TABLE IF NOT EXISTS composition (
	run_id   TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	time     REAL NOT NULL,
	isotope  INTEGER NOT NULL,
	quantity REAL NOT NULL,
	PRIMARY KEY (run_id, time, isotope)
);
`

// SQLiteStore keeps every run in one database file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates runs.db under dir. ":memory:" opens a
// private in-memory database.
func OpenSQLite(dir string) (*SQLiteStore, error) {
	path := dir
	if dir != ":memory:" {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
		path = filepath.Join(dir, "runs.db")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one connection keeps an in-memory database alive and serialises writers
	db.SetMaxOpenConns(1)
	for _, stmt := range []string{"PRAGMA foreign_keys = ON", "PRAGMA busy_timeout = 5000", schema} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init sqlite: %w", err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) Save(ctx context.Context, out *depletion.Outcome) (id string, retErr error) {
	meta, snaps := newRecord(out)
	payload, err := json.Marshal(meta)
	if err != nil {
		return "", err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, name, created_at, metadata) VALUES (?, ?, ?, ?)`,
		meta.ID, meta.Name, meta.Timestamp.Format(time.RFC3339Nano), payload); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO composition (run_id, time, isotope, quantity) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()
	for _, snap := range snaps {
		for _, iso := range sortedIDs(snap.Composition) {
			if _, err := stmt.ExecContext(ctx, meta.ID, snap.Time, int64(iso), snap.Composition[iso]); err != nil {
				return "", fmt.Errorf("insert composition: %w", err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]RunMetadata, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT metadata FROM runs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	runs := make([]RunMetadata, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		var meta RunMetadata
		if err := json.Unmarshal(payload, &meta); err != nil {
			return nil, fmt.Errorf("decode run: %w", err)
		}
		runs = append(runs, meta)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) Load(ctx context.Context, id string) (*RunMetadata, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT metadata FROM runs WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(payload, &meta); err != nil {
		return nil, fmt.Errorf("decode run: %w", err)
	}
	return &meta, nil
}

func (s *SQLiteStore) LoadComposition(ctx context.Context, id string) ([]Snapshot, error) {
	if _, err := s.Load(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT time, isotope, quantity FROM composition WHERE run_id = ? ORDER BY time, rowid`, id)
	if err != nil {
		return nil, fmt.Errorf("select composition: %w", err)
	}
	defer func() { _ = rows.Close() }()

	snaps := []Snapshot{}
	for rows.Next() {
		var (
			t   float64
			iso int64
			q   float64
		)
		if err := rows.Scan(&t, &iso, &q); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if n := len(snaps); n == 0 || snaps[n-1].Time != t {
			snaps = append(snaps, Snapshot{Time: t, Composition: map[isotope.ID]float64{}})
		}
		snaps[len(snaps)-1].Composition[isotope.ID(iso)] = q
	}
	return snaps, rows.Err()
}

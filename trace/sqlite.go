// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package trace

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/db47h/vsim"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    started_at TEXT NOT NULL,
    finished_at TEXT,
    last_time INTEGER
);

CREATE TABLE IF NOT EXISTS signals (
    id INTEGER PRIMARY KEY,
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    width INTEGER NOT NULL,
    UNIQUE (run_id, name)
);

-- a sample is only stored when the signal value changes
CREATE TABLE IF NOT EXISTS samples (
    signal_id INTEGER NOT NULL REFERENCES signals(id) ON DELETE CASCADE,
    time INTEGER NOT NULL,
    value INTEGER NOT NULL,
    PRIMARY KEY (signal_id, time)
);
`

// SQLite records waveforms in a SQLite database. Each run gets a row in the
// runs table, identified by its run ID. Several runs can share a database.
//
// All samples of a run are written in a single transaction, committed by
// Close.
//
type SQLite struct {
	db    *sql.DB
	tx    *sql.Tx
	ins   *sql.Stmt
	runID string

	names []string
	ids   []int64
	last  []uint64
	t     uint64
	dirty bool

	closed bool
}

// OpenSQLite opens or creates the database file name and starts a new run.
// If runID is empty, a new UUID is generated.
//
func OpenSQLite(name, runID string) (*SQLite, error) {
	if name != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
			return nil, errors.Wrap(err, "create trace directory")
		}
	}
	db, err := sql.Open("sqlite", name+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrap(err, "open trace database")
	}
	db.SetMaxOpenConns(1)

	s, err := newSQLite(context.Background(), db, runID)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func newSQLite(ctx context.Context, db *sql.DB, runID string) (*SQLite, error) {
	if runID == "" {
		runID = uuid.Must(uuid.NewV7()).String()
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, errors.Wrap(err, "init trace schema")
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "begin trace transaction")
	}
	if _, err = tx.ExecContext(ctx, `INSERT INTO runs (id, started_at) VALUES (?, ?)`,
		runID, time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		tx.Rollback()
		return nil, errors.Wrap(err, "insert run "+runID)
	}
	ins, err := tx.PrepareContext(ctx, `INSERT INTO samples (signal_id, time, value) VALUES (?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return nil, errors.Wrap(err, "prepare sample insert")
	}
	return &SQLite{db: db, tx: tx, ins: ins, runID: runID}, nil
}

// RunID returns the ID of the run being recorded.
//
func (s *SQLite) RunID() string { return s.runID }

func (s *SQLite) declare(sigs []vsim.Signal) error {
	for _, sig := range sigs {
		r, err := s.tx.Exec(`INSERT INTO signals (run_id, name, width) VALUES (?, ?, ?)`, s.runID, sig.Name, sig.Width)
		if err != nil {
			return errors.Wrap(err, "insert signal "+sig.Name)
		}
		id, err := r.LastInsertId()
		if err != nil {
			return errors.Wrap(err, "insert signal "+sig.Name)
		}
		s.names = append(s.names, sig.Name)
		s.ids = append(s.ids, id)
		s.last = append(s.last, sig.Value)
	}
	return nil
}

func (s *SQLite) sample(i int, t, v uint64) error {
	if _, err := s.ins.Exec(s.ids[i], int64(t), int64(v)); err != nil {
		return errors.Wrapf(err, "insert sample %s@%d", s.names[i], t)
	}
	return nil
}

// Dump implements vsim.TraceSink.
//
func (s *SQLite) Dump(t uint64, sigs []vsim.Signal) error {
	if s.closed {
		return errors.New("SQLite trace closed")
	}
	if !s.dirty {
		if err := s.declare(sigs); err != nil {
			return err
		}
		for i, sig := range sigs {
			if err := s.sample(i, t, sig.Value); err != nil {
				return err
			}
		}
		s.t, s.dirty = t, true
		return nil
	}

	if t <= s.t {
		return errors.Errorf("trace time %d not after %d", t, s.t)
	}
	if len(sigs) != len(s.names) {
		return errors.Errorf("signal count changed from %d to %d", len(s.names), len(sigs))
	}
	s.t = t
	for i, sig := range sigs {
		if sig.Name != s.names[i] {
			return errors.Errorf("signal %d renamed from %s to %s", i, s.names[i], sig.Name)
		}
		if sig.Value == s.last[i] {
			continue
		}
		s.last[i] = sig.Value
		if err := s.sample(i, t, sig.Value); err != nil {
			return err
		}
	}
	return nil
}

// Close marks the run finished, commits the transaction and closes the
// database. Close is idempotent.
//
func (s *SQLite) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	err := s.finish()
	if cerr := s.db.Close(); err == nil && cerr != nil {
		err = errors.Wrap(cerr, "close trace database")
	}
	return err
}

func (s *SQLite) finish() error {
	s.ins.Close()
	var last interface{}
	if s.dirty {
		last = int64(s.t)
	}
	if _, err := s.tx.Exec(`UPDATE runs SET finished_at = ?, last_time = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano), last, s.runID); err != nil {
		s.tx.Rollback()
		return errors.Wrap(err, "finish run "+s.runID)
	}
	return errors.Wrap(s.tx.Commit(), "commit trace")
}

// Package trace is an optional, write-only audit trail of commit calls,
// recorded to a sqlite3 database for offline replay/debugging of a search
// tree. It is never read back by the kernel itself: a Space's actual state
// never round-trips through it, only (space id, branching id, alternative)
// tuples flow in.
package trace

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// DB is a handle to the commit trace database. The zero value is not usable;
// construct with Open. A nil *DB is valid everywhere a *DB is accepted and
// behaves as "tracing disabled", so Space.Commit can call through it
// unconditionally.
type DB struct {
	sql *sql.DB
}

// Open establishes a connection to the sqlite3 database at path, creating
// the commits table if it does not already exist.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	const schema = `CREATE TABLE IF NOT EXISTS commits (
		seq          INTEGER PRIMARY KEY AUTOINCREMENT,
		space_id     INTEGER NOT NULL,
		branching_id INTEGER NOT NULL,
		alternative  INTEGER NOT NULL
	)`
	if _, err := sqlDB.Exec(schema); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return &DB{sql: sqlDB}, nil
}

// RecordCommit appends one (space, branching, alternative) row. A nil
// receiver is a no-op, so callers can hold a possibly-nil *DB without a
// branch at every call site.
func (d *DB) RecordCommit(spaceID, branchingID uint64, alt int) error {
	if d == nil {
		return nil
	}
	_, err := d.sql.Exec(
		`INSERT INTO commits(space_id, branching_id, alternative) VALUES (?, ?, ?)`,
		spaceID, branchingID, alt,
	)
	return err
}

// Close releases the underlying connection. A nil receiver is a no-op.
func (d *DB) Close() error {
	if d == nil {
		return nil
	}
	return d.sql.Close()
}

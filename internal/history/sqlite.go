package history

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// schema matches §6's history file: a single table of
// (rowid, inp, rtn, tsb, tse, sessionid, info).
const schema = `
CREATE TABLE IF NOT EXISTS history (
	inp       TEXT,
	rtn       INTEGER,
	tsb       REAL,
	tse       REAL,
	sessionid TEXT,
	info      TEXT
);`

// DB is a SQLite-backed handle for loading and appending history.
type DB struct {
	conn *sql.DB
}

// Open opens (creating if necessary) the SQLite history file at path.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("history: create schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

func (db *DB) Close() error { return db.conn.Close() }

// Load reads every row, ordered by rowid, into a Store sized to capacity.
func (db *DB) Load(capacity int) (*Store, error) {
	rows, err := db.conn.Query(`SELECT inp, rtn, tsb, tse, sessionid, info FROM history ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	s := New(capacity)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Line, &e.Status, &e.StartedAt, &e.EndedAt, &e.SessionID, &e.Info); err != nil {
			return nil, err
		}
		s.Add(e)
	}
	// Rows already on disk are not this session's additions.
	s.ResetNewEntries()
	return s, rows.Err()
}

// AppendSession persists every entry added since ResetNewEntries — called
// on shell exit, matching §6's "sessions append on exit."
func (db *DB) AppendSession(s *Store) error {
	n := s.NewEntries()
	if n == 0 {
		return nil
	}
	all := s.All()
	start := len(all) - n
	if start < 0 {
		start = 0
	}
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO history (inp, rtn, tsb, tse, sessionid, info) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()
	for _, e := range all[start:] {
		if _, err := stmt.Exec(e.Line, e.Status, e.StartedAt, e.EndedAt, e.SessionID, e.Info); err != nil {
			tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.ResetNewEntries()
	return nil
}

// Rewrite replaces the file's contents with exactly the entries currently
// in s.
func (db *DB) Rewrite(s *Store) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM history`); err != nil {
		tx.Rollback()
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO history (inp, rtn, tsb, tse, sessionid, info) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()
	for _, e := range s.All() {
		if _, err := stmt.Exec(e.Line, e.Status, e.StartedAt, e.EndedAt, e.SessionID, e.Info); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

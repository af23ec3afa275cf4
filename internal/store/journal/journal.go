// Package journal records delivered reports in SQLite. The aggregation
// pipeline never reads it back.
package journal

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite delivery journal.
type DB struct{ sql *sql.DB }

// Entry is one delivered (posted or scheduled) report.
type Entry struct {
	RunID     string
	Mode      string
	Channel   string
	Kind      string // post or schedule
	Ref       string // message ts or scheduled_message_id
	PostAt    time.Time
	Text      string
	CreatedAt time.Time
}

func Open(path string) (*DB, error) {
	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		// each pooled connection would get its own empty database
		d.SetMaxOpenConns(1)
	}
	if _, err := d.Exec(`PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;`); err != nil {
		_ = d.Close()
		return nil, err
	}
	db := &DB{sql: d}
	if err := db.migrate(); err != nil {
		_ = d.Close()
		return nil, err
	}
	return db, nil
}

func (d *DB) Close() error { return d.sql.Close() }

func (d *DB) migrate() error {
	_, err := d.sql.Exec(`
	CREATE TABLE IF NOT EXISTS deliveries (
	  id INTEGER PRIMARY KEY AUTOINCREMENT,
	  run_id TEXT NOT NULL,
	  mode TEXT NOT NULL,
	  channel TEXT NOT NULL,
	  kind TEXT NOT NULL,
	  ref TEXT,
	  post_at INTEGER,
	  text TEXT,
	  created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_deliveries_created ON deliveries(created_at);
	`)
	return err
}

// Record appends an entry. A zero CreatedAt is stamped with the current time.
func (d *DB) Record(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	var postAt *int64
	if !e.PostAt.IsZero() {
		v := e.PostAt.Unix()
		postAt = &v
	}
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO deliveries(run_id, mode, channel, kind, ref, post_at, text, created_at) VALUES(?,?,?,?,?,?,?,?)`,
		e.RunID, e.Mode, e.Channel, e.Kind, e.Ref, postAt, e.Text, e.CreatedAt.UnixMilli())
	return err
}

// Recent returns up to n entries, newest first.
func (d *DB) Recent(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		n = 20
	}
	rows, err := d.sql.QueryContext(ctx,
		`SELECT run_id, mode, channel, kind, COALESCE(ref, ''), post_at, COALESCE(text, ''), created_at
		 FROM deliveries ORDER BY created_at DESC, id DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		var postAt sql.NullInt64
		var created int64
		if err := rows.Scan(&e.RunID, &e.Mode, &e.Channel, &e.Kind, &e.Ref, &postAt, &e.Text, &created); err != nil {
			return nil, err
		}
		if postAt.Valid {
			e.PostAt = time.Unix(postAt.Int64, 0).UTC()
		}
		e.CreatedAt = time.UnixMilli(created).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

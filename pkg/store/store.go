// Package store logs the received message records to a SQLite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"zeusrx/pkg/message"
)

var ErrNotFound = errors.New("message not found")

const schema = `
	PRAGMA journal_mode = WAL;
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS messages (
		id        TEXT PRIMARY KEY,
		time      BIGINT NOT NULL,
		protocol  TEXT NOT NULL,
		data      TEXT NOT NULL,
		parity    INTEGER NOT NULL,
		repeats   INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS messages_time ON messages (time);
`

// Store is the message log.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database file at path.
//  ":memory:" opens a database which lives as long as the store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", path, err)
	}

	// an in-memory database exists per connection
	db.SetMaxOpenConns(1)

	if _, err = db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema in %q: %w", path, err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert adds record r to the log.
func (s *Store) Insert(ctx context.Context, r message.Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (id, time, protocol, data, parity, repeats) VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID.String(), r.Time.UnixNano(), r.Protocol, r.Data, r.Parity, r.Repeats)
	return err
}

// SetRepeats updates the repeat count of the record with id.
func (s *Store) SetRepeats(ctx context.Context, id uuid.UUID, repeats int) error {
	res, err := s.db.ExecContext(ctx, `UPDATE messages SET repeats = ? WHERE id = ?`, repeats, id.String())
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%v: %w", id, ErrNotFound)
	}
	return nil
}

// Get returns the record with id.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (message.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, time, protocol, data, parity, repeats FROM messages WHERE id = ?`, id.String())

	r, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return r, fmt.Errorf("%v: %w", id, ErrNotFound)
	}
	return r, err
}

// Latest returns the newest limit records, newest first.
func (s *Store) Latest(ctx context.Context, limit int) ([]message.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, time, protocol, data, parity, repeats FROM messages ORDER BY time DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	records := []message.Record{}
	for rows.Next() {
		r, err := scan(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}

	return records, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (message.Record, error) {
	var r message.Record
	var id string
	var ns int64

	if err := row.Scan(&id, &ns, &r.Protocol, &r.Data, &r.Parity, &r.Repeats); err != nil {
		return r, err
	}

	var err error
	if r.ID, err = uuid.Parse(id); err != nil {
		return r, fmt.Errorf("record id %q: %w", id, err)
	}
	if r.Message, err = message.ParseHex(r.Data); err != nil {
		return r, err
	}
	r.Time = time.Unix(0, ns)

	return r, nil
}

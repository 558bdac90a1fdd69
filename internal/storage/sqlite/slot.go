// Package sqlite stores the journal slot in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/mycelian/travelmap/internal/localstate"
)

// Slot is a storage.Slot keyed by a single row in the Slots table.
type Slot struct {
	db  *sql.DB
	key string
}

// NewSlot opens the database at path, applies the schema and binds key.
func NewSlot(path, key string) (*Slot, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	s, err := NewSlotWithDB(db, key)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewSlotWithDB allows wiring with an existing connection (used by tests).
func NewSlotWithDB(db *sql.DB, key string) (*Slot, error) {
	if err := localstate.EnsureSQLiteSchema(db); err != nil {
		return nil, err
	}
	return &Slot{db: db, key: key}, nil
}

// DB exposes the underlying connection.
func (s *Slot) DB() *sql.DB { return s.db }

func (s *Slot) Read(ctx context.Context) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT Value FROM Slots WHERE SlotKey = ?`, s.key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *Slot) Write(ctx context.Context, value string) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO Slots (SlotKey, Value, UpdateTime) VALUES (?,?,?)
        ON CONFLICT(SlotKey) DO UPDATE SET Value = excluded.Value, UpdateTime = excluded.UpdateTime`,
		s.key, value, time.Now().UTC())
	return err
}

func (s *Slot) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Slot) Close() error {
	return s.db.Close()
}

package storage

import (
	"context"
	"sync"
)

// Memory is an in-process Slot. Tests use the fault fields to simulate a
// disabled or full backing store.
type Memory struct {
	mu     sync.Mutex
	value  string
	set    bool
	writes int
	closed bool

	// ReadErr, when set, is returned by Read.
	ReadErr error
	// WriteErr, when set, is returned by Write and nothing is stored.
	WriteErr error
}

// NewMemory returns an empty in-memory slot.
func NewMemory() *Memory { return &Memory{} }

// NewMemoryWith returns a slot pre-populated with value.
func NewMemoryWith(value string) *Memory { return &Memory{value: value, set: true} }

func (m *Memory) Read(ctx context.Context) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", false, ErrSlotClosed
	}
	if m.ReadErr != nil {
		return "", false, m.ReadErr
	}
	return m.value, m.set, nil
}

func (m *Memory) Write(ctx context.Context, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrSlotClosed
	}
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.value = value
	m.set = true
	m.writes++
	return nil
}

func (m *Memory) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrSlotClosed
	}
	return ctx.Err()
}

func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Writes returns the number of successful writes.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// SetFaults replaces the injected errors under the slot's lock.
func (m *Memory) SetFaults(readErr, writeErr error) {
	m.mu.Lock()
	m.ReadErr = readErr
	m.WriteErr = writeErr
	m.mu.Unlock()
}

// Package storage defines the durable slot the journal persists into and its
// adapters. A slot is a single string-valued key, the moral equivalent of a
// browser localStorage entry: read once at startup, overwritten after every
// mutating journal operation.
package storage

import (
	"context"
	"errors"
)

// ErrSlotClosed is returned by adapters used after Close.
var ErrSlotClosed = errors.New("storage: slot closed")

// Slot is the durable key-value slot holding the serialized collection.
type Slot interface {
	// Read returns the stored value. ok is false when nothing was ever written.
	Read(ctx context.Context) (value string, ok bool, err error)
	// Write replaces the stored value. Last writer wins.
	Write(ctx context.Context, value string) error
	// Ping verifies the backing medium is reachable.
	Ping(ctx context.Context) error
	Close() error
}

// Package journal owns the canonical, ordered collection of travel memories.
//
// The Store is the only writer of the collection. It resolves places through a
// Geocoder, encodes uploads through an Encoder, mirrors every mutation into a
// durable storage.Slot and publishes a model.Snapshot to subscribers after each
// change. Selection is session state and is never persisted.
package journal

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	jerrors "github.com/mycelian/travelmap/internal/errors"
	"github.com/mycelian/travelmap/internal/mediacodec"
	"github.com/mycelian/travelmap/internal/model"
	"github.com/mycelian/travelmap/internal/storage"
)

// Geocoder resolves a place name to a coordinate.
type Geocoder interface {
	Resolve(ctx context.Context, place string) (model.Location, error)
}

// Encoder turns uploaded files into media items, one result per file in order.
type Encoder interface {
	EncodeAll(ctx context.Context, files []mediacodec.File) []mediacodec.Result
}

// Store is the journal. Methods are safe for concurrent use.
type Store struct {
	geocoder Geocoder
	encoder  Encoder
	slot     storage.Slot
	validate *validator.Validate
	events   *broadcaster
	log      zerolog.Logger

	now          func() time.Time
	newID        func() string
	placeholders bool
	pick         func(n int) int

	mu       sync.RWMutex
	memories []model.Memory
	index    map[string]int
	selected string
	version  uint64
	// stored records Load could not use; written back untouched
	retained []json.RawMessage
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used for default dates.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDFunc overrides memory id generation. Collisions are retried.
func WithIDFunc(f func() string) Option {
	return func(s *Store) { s.newID = f }
}

// WithPlaceholders attaches sample images to memories created without uploads.
func WithPlaceholders(enabled bool) Option {
	return func(s *Store) { s.placeholders = enabled }
}

// WithLogger sets the store logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) { s.log = log }
}

// New returns an empty Store. Call Load to rehydrate from the slot.
func New(geocoder Geocoder, encoder Encoder, slot storage.Slot, opts ...Option) *Store {
	s := &Store{
		geocoder: geocoder,
		encoder:  encoder,
		slot:     slot,
		validate: newValidator(),
		events:   newBroadcaster(),
		log:      zerolog.Nop(),
		now:      time.Now,
		newID:    func() string { return "memory-" + uuid.NewString() },
		pick:     rand.IntN,
		memories: []model.Memory{},
		index:    make(map[string]int),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// List returns a copy of the collection in insertion order.
func (s *Store) List() []model.Memory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cloneLocked()
}

// Len returns the number of memories.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.memories)
}

// Get returns the memory with id or an UNKNOWN_MEMORY_ID error.
func (s *Store) Get(id string) (model.Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return model.Memory{}, jerrors.Newf(jerrors.KindUnknownMemoryID, "memory %q not found", id)
	}
	return s.memories[i].Clone(), nil
}

// Selected returns the selected memory, if any.
func (s *Store) Selected() (model.Memory, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[s.selected]
	if !ok {
		return model.Memory{}, false
	}
	return s.memories[i].Clone(), true
}

// Search filters the collection by place and description, case-insensitively.
func (s *Store) Search(query string) []model.Memory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Memory, 0, len(s.memories))
	for _, m := range s.memories {
		if m.Matches(query) {
			out = append(out, m.Clone())
		}
	}
	return out
}

// Snapshot returns the current read-only view.
func (s *Store) Snapshot() model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Subscribe returns a channel that first yields the current snapshot and then
// the latest one after every change. Call cancel to stop receiving.
func (s *Store) Subscribe() (<-chan model.Snapshot, func()) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.events.subscribe(s.snapshotLocked())
}

// Close ends every subscription.
func (s *Store) Close() {
	s.events.close()
}

func (s *Store) cloneLocked() []model.Memory {
	out := make([]model.Memory, len(s.memories))
	for i, m := range s.memories {
		out[i] = m.Clone()
	}
	return out
}

func (s *Store) snapshotLocked() model.Snapshot {
	return model.Snapshot{
		Memories:   s.cloneLocked(),
		SelectedID: s.selected,
		Version:    s.version,
	}
}

// commitLocked bumps the version and notifies subscribers. Caller holds s.mu.
func (s *Store) commitLocked() {
	s.version++
	memoriesGauge.Set(float64(len(s.memories)))
	s.events.publish(s.snapshotLocked())
}

func (s *Store) uniqueIDLocked() string {
	for {
		id := s.newID()
		if _, taken := s.index[id]; !taken && id != "" {
			return id
		}
	}
}

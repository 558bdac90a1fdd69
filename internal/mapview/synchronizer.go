package mapview

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	jerrors "github.com/mycelian/travelmap/internal/errors"
	"github.com/mycelian/travelmap/internal/model"
)

// DefaultAckDelay is how long a clicked marker pulses before the selection intent.
const DefaultAckDelay = 300 * time.Millisecond

// Renderer draws markers and moves the camera. Implementations must not call
// back into the Synchronizer from these methods.
type Renderer interface {
	AddMarker(ctx context.Context, m Marker) error
	UpdateMarker(ctx context.Context, m Marker) error
	RemoveMarker(ctx context.Context, id string) error
	SetHighlight(ctx context.Context, id string, on bool) error
	FlyTo(ctx context.Context, move CameraMove) error
	Pulse(ctx context.Context, id string) error
}

// SelectionIntent is the user asking to select a memory from the map.
type SelectionIntent struct {
	MemoryID string
	At       time.Time
}

// Synchronizer keeps a Renderer consistent with journal snapshots.
type Synchronizer struct {
	renderer Renderer
	zoom     int
	ack      time.Duration
	log      zerolog.Logger
	intents  chan SelectionIntent

	mu      sync.Mutex
	markers map[string]Marker
	focus   Focus
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithZoom sets the camera zoom used on selection.
func WithZoom(z int) Option {
	return func(s *Synchronizer) {
		if z > 0 {
			s.zoom = z
		}
	}
}

// WithAckDelay sets the click acknowledgment delay. Zero emits immediately.
func WithAckDelay(d time.Duration) Option {
	return func(s *Synchronizer) {
		if d >= 0 {
			s.ack = d
		}
	}
}

// WithIntentBuffer sets the capacity of the intents channel.
func WithIntentBuffer(n int) Option {
	return func(s *Synchronizer) {
		if n >= 0 {
			s.intents = make(chan SelectionIntent, n)
		}
	}
}

// WithLogger sets the synchronizer logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Synchronizer) { s.log = log }
}

// New returns a Synchronizer with no markers rendered.
func New(r Renderer, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		renderer: r,
		zoom:     DefaultZoom,
		ack:      DefaultAckDelay,
		log:      zerolog.Nop(),
		intents:  make(chan SelectionIntent, 16),
		markers:  make(map[string]Marker),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Intents delivers selection intents produced by Click.
func (s *Synchronizer) Intents() <-chan SelectionIntent { return s.intents }

// Markers returns a copy of the markers currently rendered.
func (s *Synchronizer) Markers() map[string]Marker {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Marker, len(s.markers))
	for k, v := range s.markers {
		out[k] = v
	}
	return out
}

// Apply reconciles the renderer with snap. A failed renderer call leaves the
// marker in its previous state so the next Apply retries it; all failures are
// returned joined.
func (s *Synchronizer) Apply(ctx context.Context, snap model.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan := Reconcile(s.markers, snap.Memories, snap.SelectedID)
	var errs []error
	for _, op := range plan.Ops {
		if err := s.applyLocked(ctx, op); err != nil {
			markerOpsTotal.WithLabelValues(string(op.Kind), "error").Inc()
			s.log.Warn().Err(err).Str("op", string(op.Kind)).Str("memory_id", op.Marker.ID).Msg("marker op failed")
			errs = append(errs, fmt.Errorf("%s %s: %w", op.Kind, op.Marker.ID, err))
			continue
		}
		markerOpsTotal.WithLabelValues(string(op.Kind), "ok").Inc()
	}

	move, focus := FollowCamera(s.focus, snap.Memories, snap.SelectedID, s.zoom)
	if move != nil {
		if err := s.renderer.FlyTo(ctx, *move); err != nil {
			errs = append(errs, fmt.Errorf("fly to %s: %w", move.MemoryID, err))
		} else {
			s.focus = focus
		}
	} else {
		s.focus = focus
	}

	if len(plan.Ops) > 0 || move != nil {
		s.log.Debug().Uint64("version", snap.Version).Int("ops", len(plan.Ops)).Bool("camera", move != nil).Msg("map reconciled")
	}
	return errors.Join(errs...)
}

func (s *Synchronizer) applyLocked(ctx context.Context, op Op) error {
	id := op.Marker.ID
	switch op.Kind {
	case OpAdd:
		if err := s.renderer.AddMarker(ctx, op.Marker); err != nil {
			return err
		}
		s.markers[id] = op.Marker
	case OpUpdate:
		if err := s.renderer.UpdateMarker(ctx, op.Marker); err != nil {
			return err
		}
		s.markers[id] = op.Marker
	case OpRemove:
		if err := s.renderer.RemoveMarker(ctx, id); err != nil {
			return err
		}
		delete(s.markers, id)
	case OpHighlight, OpUnhighlight:
		cur, ok := s.markers[id]
		if !ok {
			// add failed earlier in this plan; nothing to highlight yet
			return fmt.Errorf("marker %s not rendered", id)
		}
		on := op.Kind == OpHighlight
		if on {
			if other := s.highlightedOtherThanLocked(id); other != "" {
				// an unhighlight failed; the next Apply retries both
				return fmt.Errorf("marker %s still highlighted", other)
			}
		}
		if err := s.renderer.SetHighlight(ctx, id, on); err != nil {
			return err
		}
		cur.Highlighted = on
		s.markers[id] = cur
	default:
		return fmt.Errorf("unknown op %q", op.Kind)
	}
	return nil
}

func (s *Synchronizer) highlightedOtherThanLocked(id string) string {
	for other, m := range s.markers {
		if other != id && m.Highlighted {
			return other
		}
	}
	return ""
}

// Click acknowledges a marker click with a pulse, waits the acknowledgment
// delay and then emits a SelectionIntent. Unknown markers are rejected.
func (s *Synchronizer) Click(ctx context.Context, id string) error {
	s.mu.Lock()
	_, ok := s.markers[id]
	s.mu.Unlock()
	if !ok {
		return jerrors.Newf(jerrors.KindUnknownMemoryID, "no marker for %q", id)
	}

	if err := s.renderer.Pulse(ctx, id); err != nil {
		s.log.Debug().Err(err).Str("memory_id", id).Msg("marker pulse failed")
	}
	if s.ack > 0 {
		t := time.NewTimer(s.ack)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	intent := SelectionIntent{MemoryID: id, At: time.Now()}
	select {
	case s.intents <- intent:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run applies snapshots until ctx is done or snaps is closed.
func (s *Synchronizer) Run(ctx context.Context, snaps <-chan model.Snapshot) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case snap, ok := <-snaps:
			if !ok {
				return nil
			}
			if err := s.Apply(ctx, snap); err != nil {
				s.log.Warn().Err(err).Uint64("version", snap.Version).Msg("map partially reconciled")
			}
		}
	}
}

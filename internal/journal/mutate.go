package journal

import (
	"context"
	"strings"

	jerrors "github.com/mycelian/travelmap/internal/errors"
	"github.com/mycelian/travelmap/internal/mediacodec"
	"github.com/mycelian/travelmap/internal/model"
)

// CreateRequest is the input of Create. Date defaults to today when blank.
type CreateRequest struct {
	Place       string            `validate:"required,max=200"`
	Description string            `validate:"max=5000"`
	Date        string            `validate:"omitempty,datetime=2006-01-02"`
	Files       []mediacodec.File `validate:"-"`
}

// MediaFailure reports one file that could not be attached.
type MediaFailure struct {
	File string
	Err  error
}

// Result is the outcome of a successful mutation. The memory is committed even
// when PersistErr is set; only the durable copy is behind.
type Result struct {
	Memory        model.Memory
	MediaFailures []MediaFailure
	PersistErr    error
}

// Create geocodes the place, encodes the files and appends a new memory, which
// becomes the selection. Geocoding failures leave the collection untouched.
func (s *Store) Create(ctx context.Context, req CreateRequest) (Result, error) {
	req.Place = strings.TrimSpace(req.Place)
	req.Date = strings.TrimSpace(req.Date)
	if err := s.validate.Struct(req); err != nil {
		return Result{}, invalidInput(err)
	}
	if req.Date == "" {
		req.Date = s.now().Format(model.DateLayout)
	}

	loc, err := s.geocoder.Resolve(ctx, req.Place)
	if err != nil {
		if jerrors.KindOf(err) == "" {
			err = jerrors.Wrap(jerrors.KindLookupUnavailable, "geocode "+req.Place, err)
		}
		s.log.Info().Err(err).Str("place", req.Place).Msg("memory not created")
		return Result{}, err
	}

	items, failures := s.encode(ctx, req.Files)
	if len(req.Files) == 0 && s.placeholders {
		items = s.placeholderMedia()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m := model.Memory{
		ID:          s.uniqueIDLocked(),
		Place:       req.Place,
		Description: req.Description,
		Date:        req.Date,
		Location:    loc,
		Media:       items,
	}
	if len(items) > 0 {
		m.Thumbnail = items[0].URL
	}
	s.memories = append(s.memories, m)
	s.index[m.ID] = len(s.memories) - 1
	s.selected = m.ID

	persistErr := s.persistLocked(ctx)
	s.commitLocked()

	s.log.Debug().Str("memory_id", m.ID).Str("place", m.Place).Int("media", len(items)).
		Int("media_failures", len(failures)).Msg("memory created")
	return Result{Memory: m.Clone(), MediaFailures: failures, PersistErr: persistErr}, nil
}

// AddMedia appends encoded files to an existing memory. The thumbnail is only
// backfilled when the memory had none.
func (s *Store) AddMedia(ctx context.Context, id string, files []mediacodec.File) (Result, error) {
	if _, err := s.Get(id); err != nil {
		return Result{}, err
	}

	items, failures := s.encode(ctx, files)

	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return Result{}, jerrors.Newf(jerrors.KindUnknownMemoryID, "memory %q not found", id)
	}
	if len(items) == 0 {
		return Result{Memory: s.memories[i].Clone(), MediaFailures: failures}, nil
	}

	m := s.memories[i].Clone()
	m.Media = append(m.Media, items...)
	if m.Thumbnail == "" {
		m.Thumbnail = m.Media[0].URL
	}
	s.memories[i] = m

	persistErr := s.persistLocked(ctx)
	s.commitLocked()

	s.log.Debug().Str("memory_id", id).Int("added", len(items)).Int("media_failures", len(failures)).Msg("media added")
	return Result{Memory: m.Clone(), MediaFailures: failures, PersistErr: persistErr}, nil
}

// Select points the selection at id. An empty id clears it. An unknown id is
// rejected and the selection is left as it was.
func (s *Store) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != "" {
		if _, ok := s.index[id]; !ok {
			return jerrors.Newf(jerrors.KindUnknownMemoryID, "memory %q not found", id)
		}
	}
	if s.selected == id {
		return nil
	}
	s.selected = id
	s.commitLocked()
	return nil
}

func (s *Store) encode(ctx context.Context, files []mediacodec.File) ([]model.MediaItem, []MediaFailure) {
	if len(files) == 0 {
		return []model.MediaItem{}, nil
	}
	results := s.encoder.EncodeAll(ctx, files)
	items := make([]model.MediaItem, 0, len(results))
	var failures []MediaFailure
	for i, r := range results {
		if r.Err != nil {
			name := ""
			if i < len(files) {
				name = files[i].Name
			}
			s.log.Warn().Err(r.Err).Str("file", name).Msg("media file skipped")
			failures = append(failures, MediaFailure{File: name, Err: r.Err})
			continue
		}
		items = append(items, r.Item)
	}
	return items, failures
}

package journal

import (
	"context"
	"encoding/json"
	"strings"

	jerrors "github.com/mycelian/travelmap/internal/errors"
	"github.com/mycelian/travelmap/internal/model"
)

// Persist writes the whole collection to the slot. Last writer wins.
func (s *Store) Persist(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.persistLocked(ctx)
}

func (s *Store) persistLocked(ctx context.Context) error {
	var (
		raw []byte
		err error
	)
	if len(s.retained) == 0 {
		raw, err = json.Marshal(s.memories)
	} else {
		records := make([]any, 0, len(s.memories)+len(s.retained))
		for _, m := range s.memories {
			records = append(records, m)
		}
		for _, r := range s.retained {
			records = append(records, r)
		}
		raw, err = json.Marshal(records)
	}
	if err != nil {
		persistFailuresTotal.Inc()
		return jerrors.Wrap(jerrors.KindStorageUnavailable, "encode journal", err)
	}
	if err := s.slot.Write(ctx, string(raw)); err != nil {
		persistFailuresTotal.Inc()
		s.log.Warn().Err(err).Int("memories", len(s.memories)).Msg("journal not persisted; continuing in memory")
		return jerrors.Wrap(jerrors.KindStorageUnavailable, "write journal", err)
	}
	return nil
}

// storedMemory is the on-slot record shape. Pointers and nil slices tell a
// missing field apart from an empty one so older records can be upgraded.
type storedMemory struct {
	ID          string            `json:"id"`
	Place       string            `json:"place"`
	Description string            `json:"description"`
	Date        string            `json:"date"`
	Location    *model.Location   `json:"location"`
	Media       []model.MediaItem `json:"media"`
	Thumbnail   string            `json:"thumbnail"`
}

// Load replaces the collection with the slot contents and clears the selection.
//
// Each stored record is decoded on its own. Records written by older versions
// are upgraded in memory: missing media becomes an empty list, a missing or
// dangling thumbnail is rederived from the first media item, and a missing or
// repeated id is replaced with a fresh one. When anything was upgraded the
// result is written back.
//
// Records that cannot be used (undecodable, or without a location) are left
// out of the collection but kept verbatim in every later write.
//
// A read failure or a value that is not a JSON array leaves an empty
// collection and returns STORAGE_UNAVAILABLE; the journal keeps working in memory.
func (s *Store) Load(ctx context.Context) error {
	raw, found, readErr := s.slot.Read(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.memories = []model.Memory{}
	s.index = make(map[string]int)
	s.retained = nil
	s.selected = ""

	var loadErr error
	switch {
	case readErr != nil:
		loadErr = jerrors.Wrap(jerrors.KindStorageUnavailable, "read journal", readErr)
	case !found || strings.TrimSpace(raw) == "":
	default:
		var records []json.RawMessage
		if err := json.Unmarshal([]byte(raw), &records); err != nil {
			loadErr = jerrors.Wrap(jerrors.KindStorageUnavailable, "decode journal", err)
			break
		}
		upgradedAny := false
		for i, rec := range records {
			m, ok, upgraded := s.migrate(i, rec)
			if !ok {
				droppedRecordsTotal.Inc()
				s.retained = append(s.retained, rec)
				continue
			}
			upgradedAny = upgradedAny || upgraded
			s.memories = append(s.memories, m)
			s.index[m.ID] = len(s.memories) - 1
		}
		if upgradedAny {
			if err := s.persistLocked(ctx); err != nil {
				s.log.Warn().Err(err).Msg("upgraded journal not written back")
			}
		}
	}

	if loadErr != nil {
		s.log.Error().Stack().Err(loadErr).Msg("journal load failed; starting empty")
	} else {
		s.log.Info().Int("memories", len(s.memories)).Int("unusable", len(s.retained)).Msg("journal loaded")
	}
	s.commitLocked()
	return loadErr
}

// migrate decodes and upgrades the stored record at position i. ok is false
// when the record cannot be used; upgraded reports whether any field changed.
func (s *Store) migrate(i int, raw json.RawMessage) (m model.Memory, ok, upgraded bool) {
	var rec storedMemory
	if err := json.Unmarshal(raw, &rec); err != nil {
		s.log.Warn().Err(err).Int("record", i).Msg("stored memory not decodable; kept as is")
		return model.Memory{}, false, false
	}
	if rec.Location == nil {
		s.log.Warn().Int("record", i).Str("memory_id", rec.ID).Msg("stored memory without location; kept as is")
		return model.Memory{}, false, false
	}

	m = model.Memory{
		ID:          strings.TrimSpace(rec.ID),
		Place:       rec.Place,
		Description: rec.Description,
		Date:        rec.Date,
		Location:    *rec.Location,
		Media:       rec.Media,
		Thumbnail:   rec.Thumbnail,
	}
	if _, dup := s.index[m.ID]; dup || m.ID == "" {
		m.ID = s.uniqueIDLocked()
		s.log.Warn().Int("record", i).Str("stored_id", rec.ID).Str("memory_id", m.ID).Msg("stored memory given a fresh id")
		upgraded = true
	}
	if m.Media == nil {
		m.Media = []model.MediaItem{}
		upgraded = true
	}
	for j, it := range m.Media {
		if it.Kind == "" {
			m.Media[j].Kind = kindFromURL(it.URL)
			upgraded = true
		}
	}
	if m.Thumbnail == "" || !m.HasMediaURL(m.Thumbnail) {
		want := ""
		if len(m.Media) > 0 {
			want = m.Media[0].URL
		}
		if want != m.Thumbnail {
			m.Thumbnail = want
			upgraded = true
		}
	}
	return m, true, upgraded
}

func kindFromURL(url string) model.MediaKind {
	if strings.HasPrefix(url, "data:video/") {
		return model.MediaVideo
	}
	return model.MediaImage
}

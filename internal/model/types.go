package model

import (
	"strings"
	"time"
)

// DateLayout is the ISO 8601 calendar date layout used for Memory.Date.
const DateLayout = "2006-01-02"

// MediaKind classifies a media item.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// Location is a resolved coordinate.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// MediaItem is one photo or video attached to a Memory. Immutable once created.
type MediaItem struct {
	ID           string    `json:"id"`
	Kind         MediaKind `json:"type"`
	URL          string    `json:"url"`
	ThumbnailURL string    `json:"thumbnail,omitempty"`
}

// Memory is a single recorded travel event.
type Memory struct {
	ID          string      `json:"id"`
	Place       string      `json:"place"`
	Description string      `json:"description"`
	Date        string      `json:"date"`
	Location    Location    `json:"location"`
	Media       []MediaItem `json:"media"`
	Thumbnail   string      `json:"thumbnail,omitempty"`
}

// Clone returns a deep copy so callers never share the media slice with the store.
func (m Memory) Clone() Memory {
	out := m
	out.Media = append([]MediaItem(nil), m.Media...)
	if out.Media == nil {
		out.Media = []MediaItem{}
	}
	return out
}

// HasMediaURL reports whether url is reachable through the memory's media list.
func (m Memory) HasMediaURL(url string) bool {
	for _, it := range m.Media {
		if it.URL == url {
			return true
		}
	}
	return false
}

// DisplayThumbnail is the URL a list or marker should show for this memory.
func (m Memory) DisplayThumbnail() string {
	if m.Thumbnail != "" {
		return m.Thumbnail
	}
	if len(m.Media) > 0 {
		return m.Media[0].URL
	}
	return ""
}

// Matches is the client-side search predicate over place and description.
func (m Memory) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(m.Place), q) ||
		strings.Contains(strings.ToLower(m.Description), q)
}

// FormatDate renders an ISO date as "1 May 2024". Unparseable input is returned as is.
func FormatDate(date string) string {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return date
	}
	return t.Format("2 January 2006")
}

// Snapshot is a read-only view of the journal published after each mutation.
type Snapshot struct {
	Memories   []Memory
	SelectedID string
	Version    uint64
}

package journal

import (
	"github.com/google/uuid"

	"github.com/mycelian/travelmap/internal/model"
)

var sampleImages = []string{
	"https://images.unsplash.com/photo-1516483638261-f4dbaf036963?ixlib=rb-4.0.3&auto=format&fit=crop&w=1200&q=80",
	"https://images.unsplash.com/photo-1523906834658-6e24ef2386f9?ixlib=rb-4.0.3&auto=format&fit=crop&w=1200&q=80",
	"https://images.unsplash.com/photo-1515542622106-78bda8ba0e5b?ixlib=rb-4.0.3&auto=format&fit=crop&w=1200&q=80",
	"https://images.unsplash.com/photo-1533105079780-92b9be482077?ixlib=rb-4.0.3&auto=format&fit=crop&w=1200&q=80",
	"https://images.unsplash.com/photo-1534445538923-ab7e9c01d85c?ixlib=rb-4.0.3&auto=format&fit=crop&w=1200&q=80",
}

// placeholderMedia returns one to four sample images for demo installs.
func (s *Store) placeholderMedia() []model.MediaItem {
	n := s.pick(4) + 1
	out := make([]model.MediaItem, n)
	for i := range out {
		out[i] = model.MediaItem{
			ID:   "media-" + uuid.NewString(),
			Kind: model.MediaImage,
			URL:  sampleImages[s.pick(len(sampleImages))],
		}
	}
	return out
}

package mediacodec

import (
	"strings"

	"github.com/mycelian/travelmap/internal/model"
)

// accepted is the upload filter: common image and video formats only.
var accepted = map[string]struct{}{
	"image/jpeg":      {},
	"image/png":       {},
	"image/gif":       {},
	"image/webp":      {},
	"video/mp4":       {},
	"video/quicktime": {},
	"video/x-msvideo": {},
}

// normalizeMIME lower-cases a MIME type and drops any parameters.
func normalizeMIME(m string) string {
	m, _, _ = strings.Cut(m, ";")
	return strings.ToLower(strings.TrimSpace(m))
}

// Accepts reports whether the upload surface should take a file of this type.
func Accepts(mimeType string) bool {
	_, ok := accepted[normalizeMIME(mimeType)]
	return ok
}

// Classify maps a MIME type to a media kind. Anything that is not an image is a video.
func Classify(mimeType string) model.MediaKind {
	if strings.HasPrefix(normalizeMIME(mimeType), "image/") {
		return model.MediaImage
	}
	return model.MediaVideo
}

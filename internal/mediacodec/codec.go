// Package mediacodec turns uploaded files into self-contained media items.
//
// Every item URL is a base64 data URL so a memory renders after a restart
// without fetching anything. Images also get a small JPEG preview.
package mediacodec

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "golang.org/x/image/webp"

	jerrors "github.com/mycelian/travelmap/internal/errors"
	"github.com/mycelian/travelmap/internal/model"
)

const (
	defaultMaxBytes      = 25 << 20
	defaultThumbnailSize = 200
	thumbnailQuality     = 80
)

// Codec encodes files into media items. It is safe for concurrent use.
type Codec struct {
	maxBytes  int64
	thumbSize int
	newID     func() string
	log       zerolog.Logger
}

// Option configures a Codec.
type Option func(*Codec)

// WithMaxBytes caps the size of a single file.
func WithMaxBytes(n int64) Option {
	return func(c *Codec) {
		if n > 0 {
			c.maxBytes = n
		}
	}
}

// WithThumbnailSize sets the bounding square of image previews. Zero disables them.
func WithThumbnailSize(px int) Option {
	return func(c *Codec) { c.thumbSize = px }
}

// WithIDFunc overrides media id generation.
func WithIDFunc(f func() string) Option {
	return func(c *Codec) { c.newID = f }
}

// WithLogger sets the codec logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Codec) { c.log = log }
}

// New returns a Codec.
func New(opts ...Option) *Codec {
	c := &Codec{
		maxBytes:  defaultMaxBytes,
		thumbSize: defaultThumbnailSize,
		newID:     func() string { return "media-" + uuid.NewString() },
		log:       zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Result is the outcome for one file of a batch.
type Result struct {
	Item model.MediaItem
	Err  error
}

// Encode reads f and returns its media item. Any failure is a MediaReadFailure.
func (c *Codec) Encode(ctx context.Context, f File) (model.MediaItem, error) {
	item, err := c.encode(ctx, f)
	kind := string(Classify(f.MIMEType))
	if err != nil {
		filesTotal.WithLabelValues(kind, "failure").Inc()
		return model.MediaItem{}, err
	}
	filesTotal.WithLabelValues(string(item.Kind), "ok").Inc()
	return item, nil
}

func (c *Codec) encode(ctx context.Context, f File) (model.MediaItem, error) {
	if err := ctx.Err(); err != nil {
		return model.MediaItem{}, jerrors.Wrap(jerrors.KindMediaReadFailure, fmt.Sprintf("encode %q cancelled", f.Name), err)
	}
	if f.Open == nil {
		return model.MediaItem{}, jerrors.Newf(jerrors.KindMediaReadFailure, "file %q has no content", f.Name)
	}
	rc, err := f.Open()
	if err != nil {
		return model.MediaItem{}, jerrors.Wrap(jerrors.KindMediaReadFailure, fmt.Sprintf("open %q", f.Name), err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, c.maxBytes+1))
	if err != nil {
		return model.MediaItem{}, jerrors.Wrap(jerrors.KindMediaReadFailure, fmt.Sprintf("read %q", f.Name), err)
	}
	if int64(len(data)) > c.maxBytes {
		return model.MediaItem{}, jerrors.Newf(jerrors.KindMediaReadFailure, "file %q exceeds %d bytes", f.Name, c.maxBytes)
	}
	if len(data) == 0 {
		return model.MediaItem{}, jerrors.Newf(jerrors.KindMediaReadFailure, "file %q is empty", f.Name)
	}

	mt := normalizeMIME(f.MIMEType)
	if mt == "" {
		mt = normalizeMIME(mimetype.Detect(data).String())
	}

	item := model.MediaItem{
		ID:   c.newID(),
		Kind: Classify(mt),
		URL:  dataURL(mt, data),
	}
	if item.Kind == model.MediaImage && c.thumbSize > 0 {
		thumb, err := c.thumbnail(data)
		if err != nil {
			c.log.Debug().Err(err).Str("file", f.Name).Msg("thumbnail skipped")
		} else {
			item.ThumbnailURL = thumb
		}
	}
	return item, nil
}

func (c *Codec) thumbnail(data []byte) (string, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", err
	}
	small := imaging.Fit(img, c.thumbSize, c.thumbSize, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, small, imaging.JPEG, imaging.JPEGQuality(thumbnailQuality)); err != nil {
		return "", err
	}
	return dataURL("image/jpeg", buf.Bytes()), nil
}

// EncodeAll encodes every file concurrently and returns results in input order.
// A failing file never affects its siblings.
func (c *Codec) EncodeAll(ctx context.Context, files []File) []Result {
	out := make([]Result, len(files))
	var wg sync.WaitGroup
	for i, f := range files {
		wg.Add(1)
		go func(i int, f File) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					out[i] = Result{Err: jerrors.Newf(jerrors.KindMediaReadFailure, "encode %q panicked: %v", f.Name, r)}
				}
			}()
			item, err := c.Encode(ctx, f)
			out[i] = Result{Item: item, Err: err}
		}(i, f)
	}
	wg.Wait()
	return out
}

func dataURL(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

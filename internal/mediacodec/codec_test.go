package mediacodec

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jerrors "github.com/mycelian/travelmap/internal/errors"
	"github.com/mycelian/travelmap/internal/model"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestEncode_ImageProducesDataURLAndThumbnail(t *testing.T) {
	data := pngBytes(t, 64, 32)
	c := New(WithThumbnailSize(16), WithIDFunc(func() string { return "media-x" }))

	item, err := c.Encode(context.Background(), FromBytes("a.png", "image/png", data))
	require.NoError(t, err)
	assert.Equal(t, "media-x", item.ID)
	assert.Equal(t, model.MediaImage, item.Kind)

	prefix := "data:image/png;base64,"
	require.True(t, strings.HasPrefix(item.URL, prefix))
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(item.URL, prefix))
	require.NoError(t, err)
	assert.Equal(t, data, decoded)

	assert.True(t, strings.HasPrefix(item.ThumbnailURL, "data:image/jpeg;base64,"))
}

func TestEncode_VideoHasNoThumbnail(t *testing.T) {
	item, err := New().Encode(context.Background(), FromBytes("clip.mp4", "video/mp4", []byte("not really a video")))
	require.NoError(t, err)
	assert.Equal(t, model.MediaVideo, item.Kind)
	assert.True(t, strings.HasPrefix(item.URL, "data:video/mp4;base64,"))
	assert.Empty(t, item.ThumbnailURL)
}

func TestEncode_UndecodableImageKeepsItem(t *testing.T) {
	item, err := New().Encode(context.Background(), FromBytes("bad.jpg", "image/jpeg", []byte("garbage")))
	require.NoError(t, err)
	assert.Equal(t, model.MediaImage, item.Kind)
	assert.Empty(t, item.ThumbnailURL)
}

func TestEncode_SniffsMissingMIME(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photo")
	require.NoError(t, os.WriteFile(path, pngBytes(t, 4, 4), 0o600))

	item, err := New().Encode(context.Background(), FromPath(path, ""))
	require.NoError(t, err)
	assert.Equal(t, model.MediaImage, item.Kind)
	assert.True(t, strings.HasPrefix(item.URL, "data:image/png;base64,"))
}

func TestEncode_Failures(t *testing.T) {
	c := New(WithMaxBytes(8))
	ctx := context.Background()

	_, err := c.Encode(ctx, FromBytes("big.png", "image/png", make([]byte, 9)))
	assert.True(t, jerrors.Is(err, jerrors.KindMediaReadFailure))

	_, err = c.Encode(ctx, FromBytes("empty.png", "image/png", nil))
	assert.True(t, jerrors.Is(err, jerrors.KindMediaReadFailure))

	_, err = c.Encode(ctx, FromPath(filepath.Join(t.TempDir(), "missing.png"), "image/png"))
	assert.True(t, jerrors.Is(err, jerrors.KindMediaReadFailure))
}

func TestEncodeAll_PreservesOrderAndIsolatesFailures(t *testing.T) {
	slow := File{
		Name:     "slow.mp4",
		MIMEType: "video/mp4",
		Open: func() (io.ReadCloser, error) {
			time.Sleep(20 * time.Millisecond)
			return io.NopCloser(strings.NewReader("slow")), nil
		},
	}
	broken := File{
		Name:     "broken.png",
		MIMEType: "image/png",
		Open:     func() (io.ReadCloser, error) { return nil, errors.New("permission denied") },
	}
	panicky := File{
		Name:     "panic.png",
		MIMEType: "image/png",
		Open:     func() (io.ReadCloser, error) { panic("reader exploded") },
	}
	fast := FromBytes("fast.mp4", "video/mp4", []byte("fast"))

	res := New().EncodeAll(context.Background(), []File{slow, broken, fast, panicky})
	require.Len(t, res, 4)

	require.NoError(t, res[0].Err)
	assert.Equal(t, "data:video/mp4;base64,"+base64.StdEncoding.EncodeToString([]byte("slow")), res[0].Item.URL)
	assert.True(t, jerrors.Is(res[1].Err, jerrors.KindMediaReadFailure))
	require.NoError(t, res[2].Err)
	assert.Equal(t, "data:video/mp4;base64,"+base64.StdEncoding.EncodeToString([]byte("fast")), res[2].Item.URL)
	assert.True(t, jerrors.Is(res[3].Err, jerrors.KindMediaReadFailure))
}

func TestEncodeAll_CancelledContextFailsEveryFile(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := New().EncodeAll(ctx, []File{FromBytes("a.mp4", "video/mp4", []byte("a"))})
	require.Len(t, res, 1)
	assert.True(t, jerrors.Is(res[0].Err, jerrors.KindMediaReadFailure))
}

func TestEncodeAll_Empty(t *testing.T) {
	assert.Empty(t, New().EncodeAll(context.Background(), nil))
}

func TestAcceptsAndClassify(t *testing.T) {
	for _, m := range []string{"image/jpeg", "image/png", "IMAGE/GIF", "video/mp4", "video/quicktime", "video/x-msvideo; codecs=x"} {
		assert.True(t, Accepts(m), m)
	}
	for _, m := range []string{"", "text/plain", "application/pdf", "image/svg+xml"} {
		assert.False(t, Accepts(m), m)
	}
	assert.Equal(t, model.MediaImage, Classify("image/gif"))
	assert.Equal(t, model.MediaVideo, Classify("video/mp4"))
	assert.Equal(t, model.MediaVideo, Classify("application/octet-stream"))
}

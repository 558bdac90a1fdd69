package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mycelian/travelmap/internal/api"
	jerrors "github.com/mycelian/travelmap/internal/errors"
	"github.com/mycelian/travelmap/internal/journal"
	"github.com/mycelian/travelmap/internal/mediacodec"
	"github.com/mycelian/travelmap/internal/model"
	"github.com/mycelian/travelmap/internal/storage"
)

type romeOnly struct{}

func (romeOnly) Resolve(_ context.Context, place string) (model.Location, error) {
	if place == "Rome" {
		return model.Location{Lat: 41.9, Lng: 12.5}, nil
	}
	return model.Location{}, jerrors.Newf(jerrors.KindPlaceNotFound, "no match for %q", place)
}

func newService(t *testing.T) (*journal.Store, string) {
	t.Helper()
	store := journal.New(romeOnly{}, mediacodec.New(mediacodec.WithThumbnailSize(0)), storage.NewMemory())
	t.Cleanup(store.Close)
	srv := httptest.NewServer(api.NewRouter(api.RouterDeps{Store: store, Log: zerolog.Nop()}))
	t.Cleanup(srv.Close)
	return store, srv.URL
}

func TestRunAdd_WithFileThenList(t *testing.T) {
	store, url := newService(t)
	c := newClient(url)

	path := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(path, []byte("\x00\x00\x00\x18ftypmp42\x00\x00\x00\x00mp42isom"), 0o600))

	var out bytes.Buffer
	require.NoError(t, runAdd(c, "Rome", "gelato", "2024-05-01", []string{path}, &out))
	assert.Contains(t, out.String(), "Rome (1 May 2024)")

	require.Equal(t, 1, store.Len())
	m := store.List()[0]
	require.Len(t, m.Media, 1)
	assert.Equal(t, model.MediaVideo, m.Media[0].Kind)

	out.Reset()
	require.NoError(t, runList(c, "GELATO", &out))
	assert.Contains(t, out.String(), m.ID)

	out.Reset()
	require.NoError(t, runList(c, "paris", &out))
	assert.Equal(t, "no memories\n", out.String())
}

func TestRunAdd_ReportsKind(t *testing.T) {
	_, url := newService(t)
	err := runAdd(newClient(url), "Atlantis", "", "", nil, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), string(jerrors.KindPlaceNotFound))
}

func TestRunAdd_MissingFile(t *testing.T) {
	_, url := newService(t)
	err := runAdd(newClient(url), "Rome", "", "", []string{"/does/not/exist.png"}, &bytes.Buffer{})
	require.Error(t, err)
}

func TestRunShowSelectAndAddMedia(t *testing.T) {
	store, url := newService(t)
	c := newClient(url)
	res, err := store.Create(context.Background(), journal.CreateRequest{Place: "Rome"})
	require.NoError(t, err)
	id := res.Memory.ID

	var out bytes.Buffer
	require.NoError(t, runShow(c, id, &out))
	assert.Contains(t, out.String(), "41.90000, 12.50000")

	out.Reset()
	require.NoError(t, runSelect(c, "", &out))
	assert.Equal(t, "selection cleared\n", out.String())
	_, selected := store.Selected()
	assert.False(t, selected)

	out.Reset()
	require.NoError(t, runSelect(c, id, &out))
	assert.Equal(t, "selected "+id+"\n", out.String())

	assert.Error(t, runSelect(c, "ghost", &out))
	assert.Error(t, runShow(c, "ghost", &out))

	path := filepath.Join(t.TempDir(), "pic.gif")
	require.NoError(t, os.WriteFile(path, []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;"), 0o600))
	out.Reset()
	require.NoError(t, runAddMedia(c, id, []string{path}, &out))
	got, err := store.Get(id)
	require.NoError(t, err)
	require.Len(t, got.Media, 1)
	assert.Equal(t, got.Media[0].URL, got.Thumbnail)
}

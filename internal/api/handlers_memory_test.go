package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jerrors "github.com/mycelian/travelmap/internal/errors"
	"github.com/mycelian/travelmap/internal/journal"
	"github.com/mycelian/travelmap/internal/mediacodec"
	"github.com/mycelian/travelmap/internal/model"
	"github.com/mycelian/travelmap/internal/storage"
)

type stubGeocoder struct {
	places map[string]model.Location
	err    error
}

func (g stubGeocoder) Resolve(_ context.Context, place string) (model.Location, error) {
	if g.err != nil {
		return model.Location{}, g.err
	}
	if loc, ok := g.places[place]; ok {
		return loc, nil
	}
	return model.Location{}, jerrors.Newf(jerrors.KindPlaceNotFound, "no match for %q", place)
}

type stubStatus struct{}

func (stubStatus) Busy() bool           { return true }
func (stubStatus) BreakerState() string { return "closed" }

type testServer struct {
	store  *journal.Store
	slot   *storage.Memory
	router http.Handler
}

func newTestServer(t *testing.T, geo journal.Geocoder) testServer {
	t.Helper()
	slot := storage.NewMemory()
	store := journal.New(geo, mediacodec.New(mediacodec.WithThumbnailSize(0)), slot,
		journal.WithClock(func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }))
	t.Cleanup(store.Close)
	router := NewRouter(RouterDeps{
		Store:      store,
		Geocoder:   stubStatus{},
		Hub:        NewMapHub(zerolog.Nop()),
		Healthy:    func() bool { return true },
		Components: func() map[string]bool { return map[string]bool{"storage": true} },
		Log:        zerolog.Nop(),
	})
	return testServer{store: store, slot: slot, router: router}
}

func defaultGeocoder() stubGeocoder {
	return stubGeocoder{places: map[string]model.Location{"Rome": {Lat: 41.9, Lng: 12.5}}}
}

type part struct {
	name        string
	contentType string
	data        []byte
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func multipartRequest(t *testing.T, method, target string, fields map[string]string, files ...part) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="files"; filename="`+f.name+`"`)
		h.Set("Content-Type", f.contentType)
		w, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = w.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), out), rr.Body.String())
}

func TestCreateMemory_WithUploads(t *testing.T) {
	ts := newTestServer(t, defaultGeocoder())
	req := multipartRequest(t, http.MethodPost, "/api/memories",
		map[string]string{"place": "Rome", "description": "Colosseum", "date": "2024-04-30"},
		part{name: "a.png", contentType: "image/png", data: pngBytes(t)},
		part{name: "b.png", contentType: "application/octet-stream", data: pngBytes(t)},
		part{name: "notes.txt", contentType: "text/plain", data: []byte("hello")},
	)
	rr := httptest.NewRecorder()
	ts.router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp struct {
		Memory struct {
			ID            string            `json:"id"`
			Place         string            `json:"place"`
			Date          string            `json:"date"`
			FormattedDate string            `json:"formattedDate"`
			Location      model.Location    `json:"location"`
			Media         []model.MediaItem `json:"media"`
			Thumbnail     string            `json:"thumbnail"`
		} `json:"memory"`
		MediaFailures []mediaFailureView `json:"mediaFailures"`
		Warning       string             `json:"warning"`
	}
	decode(t, rr, &resp)
	assert.Equal(t, "Rome", resp.Memory.Place)
	assert.Equal(t, "30 April 2024", resp.Memory.FormattedDate)
	assert.Equal(t, model.Location{Lat: 41.9, Lng: 12.5}, resp.Memory.Location)
	require.Len(t, resp.Memory.Media, 2, "text upload is filtered out")
	assert.True(t, strings.HasPrefix(resp.Memory.Media[1].URL, "data:image/png;base64,"))
	assert.Equal(t, resp.Memory.Media[0].URL, resp.Memory.Thumbnail)
	assert.Empty(t, resp.MediaFailures)
	assert.Empty(t, resp.Warning)

	sel, ok := ts.store.Selected()
	require.True(t, ok)
	assert.Equal(t, resp.Memory.ID, sel.ID)
	assert.Equal(t, 1, ts.slot.Writes())
}

func TestCreateMemory_Errors(t *testing.T) {
	cases := []struct {
		name   string
		geo    stubGeocoder
		place  string
		status int
		kind   jerrors.Kind
	}{
		{"blank place", defaultGeocoder(), "  ", http.StatusBadRequest, jerrors.KindInvalid},
		{"unknown place", defaultGeocoder(), "Atlantis", http.StatusNotFound, jerrors.KindPlaceNotFound},
		{"geocoder down", stubGeocoder{err: jerrors.New(jerrors.KindLookupUnavailable, "timeout")}, "Rome", http.StatusServiceUnavailable, jerrors.KindLookupUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := newTestServer(t, tc.geo)
			rr := httptest.NewRecorder()
			ts.router.ServeHTTP(rr, multipartRequest(t, http.MethodPost, "/api/memories", map[string]string{"place": tc.place}))
			assert.Equal(t, tc.status, rr.Code)

			var resp map[string]any
			decode(t, rr, &resp)
			assert.Equal(t, string(tc.kind), resp["kind"])
			assert.Equal(t, 0, ts.store.Len())
		})
	}
}

func TestCreateMemory_PersistFailureIsWarning(t *testing.T) {
	ts := newTestServer(t, defaultGeocoder())
	ts.slot.SetFaults(nil, assert.AnError)

	rr := httptest.NewRecorder()
	ts.router.ServeHTTP(rr, multipartRequest(t, http.MethodPost, "/api/memories", map[string]string{"place": "Rome"}))
	require.Equal(t, http.StatusCreated, rr.Code)

	var resp mutationResponse
	decode(t, rr, &resp)
	assert.Contains(t, resp.Warning, "session only")
	assert.Equal(t, 1, ts.store.Len())
}

func TestListAndGetMemory(t *testing.T) {
	ts := newTestServer(t, defaultGeocoder())
	res, err := ts.store.Create(context.Background(), journal.CreateRequest{Place: "Rome", Description: "pasta"})
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	ts.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/memories?q=PASTA", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var list struct {
		Memories []memoryView `json:"memories"`
		Total    int          `json:"total"`
	}
	decode(t, rr, &list)
	assert.Equal(t, 1, list.Total)

	rr = httptest.NewRecorder()
	ts.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/memories?q=paris", nil))
	decode(t, rr, &list)
	assert.Equal(t, 0, list.Total)
	assert.NotNil(t, list.Memories)

	rr = httptest.NewRecorder()
	ts.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/memories/"+res.Memory.ID, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var got memoryView
	decode(t, rr, &got)
	assert.Equal(t, "1 May 2024", got.FormattedDate)

	rr = httptest.NewRecorder()
	ts.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/memories/missing", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAddMedia(t *testing.T) {
	ts := newTestServer(t, defaultGeocoder())
	res, err := ts.store.Create(context.Background(), journal.CreateRequest{Place: "Rome"})
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	ts.router.ServeHTTP(rr, multipartRequest(t, http.MethodPost, "/api/memories/"+res.Memory.ID+"/media", nil,
		part{name: "a.png", contentType: "image/png", data: pngBytes(t)}))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	got, err := ts.store.Get(res.Memory.ID)
	require.NoError(t, err)
	require.Len(t, got.Media, 1)
	assert.Equal(t, got.Media[0].URL, got.Thumbnail)

	rr = httptest.NewRecorder()
	ts.router.ServeHTTP(rr, multipartRequest(t, http.MethodPost, "/api/memories/nope/media", nil,
		part{name: "a.png", contentType: "image/png", data: pngBytes(t)}))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSelection(t *testing.T) {
	ts := newTestServer(t, defaultGeocoder())
	res, err := ts.store.Create(context.Background(), journal.CreateRequest{Place: "Rome"})
	require.NoError(t, err)

	put := func(body string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		ts.router.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/api/selection", strings.NewReader(body)))
		return rr
	}

	rr := put(`{"memoryId": null}`)
	require.Equal(t, http.StatusOK, rr.Code)
	var sel selectionResponse
	decode(t, rr, &sel)
	assert.Empty(t, sel.MemoryID)

	rr = put(`{"memoryId": "` + res.Memory.ID + `"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	decode(t, rr, &sel)
	assert.Equal(t, res.Memory.ID, sel.MemoryID)
	require.NotNil(t, sel.Memory)

	assert.Equal(t, http.StatusNotFound, put(`{"memoryId": "ghost"}`).Code)
	assert.Equal(t, http.StatusBadRequest, put(`{`).Code)

	rr = httptest.NewRecorder()
	ts.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/selection", nil))
	decode(t, rr, &sel)
	assert.Equal(t, res.Memory.ID, sel.MemoryID, "failed select keeps the previous selection")
}

func TestHealthAndGeocoderStatus(t *testing.T) {
	ts := newTestServer(t, defaultGeocoder())

	rr := httptest.NewRecorder()
	ts.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var health map[string]any
	decode(t, rr, &health)
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, map[string]any{"storage": true}, health["components"])

	rr = httptest.NewRecorder()
	ts.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/geocoder/status", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var status map[string]any
	decode(t, rr, &status)
	assert.Equal(t, true, status["busy"])
	assert.Equal(t, "closed", status["breaker"])
}

func TestHealthHandler_NilHealthyIsUnhealthy(t *testing.T) {
	h := NewHealthHandler(nil, nil, nil, nil)
	rr := httptest.NewRecorder()
	h.CheckHealth(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"unhealthy"`)

	rr = httptest.NewRecorder()
	h.GeocoderState(rr, httptest.NewRequest(http.MethodGet, "/api/geocoder/status", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

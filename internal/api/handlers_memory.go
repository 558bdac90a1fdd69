package api

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	respond "github.com/mycelian/travelmap/internal/api/respond"
	jerrors "github.com/mycelian/travelmap/internal/errors"
	"github.com/mycelian/travelmap/internal/journal"
	"github.com/mycelian/travelmap/internal/mediacodec"
	"github.com/mycelian/travelmap/internal/model"
)

const multipartMemory = 32 << 20

// MemoryHandler serves the journal over HTTP.
type MemoryHandler struct {
	store *journal.Store
	log   zerolog.Logger
}

func NewMemoryHandler(store *journal.Store, log zerolog.Logger) *MemoryHandler {
	return &MemoryHandler{store: store, log: log}
}

// memoryView is a Memory plus what list and detail views display.
type memoryView struct {
	model.Memory
	FormattedDate    string `json:"formattedDate"`
	DisplayThumbnail string `json:"displayThumbnail,omitempty"`
}

func viewOf(m model.Memory) memoryView {
	return memoryView{Memory: m, FormattedDate: model.FormatDate(m.Date), DisplayThumbnail: m.DisplayThumbnail()}
}

type mediaFailureView struct {
	File  string `json:"file"`
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

type mutationResponse struct {
	Memory        memoryView         `json:"memory"`
	MediaFailures []mediaFailureView `json:"mediaFailures"`
	Warning       string             `json:"warning,omitempty"`
}

func responseOf(res journal.Result) mutationResponse {
	out := mutationResponse{Memory: viewOf(res.Memory), MediaFailures: []mediaFailureView{}}
	for _, f := range res.MediaFailures {
		out.MediaFailures = append(out.MediaFailures, mediaFailureView{
			File:  f.File,
			Kind:  string(jerrors.KindOf(f.Err)),
			Error: f.Err.Error(),
		})
	}
	if res.PersistErr != nil {
		out.Warning = "memory saved for this session only: " + res.PersistErr.Error()
	}
	return out
}

// CreateMemory POST /api/memories (multipart: place, description, date, files)
func (h *MemoryHandler) CreateMemory(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil && err != http.ErrNotMultipart {
		respond.WriteBadRequest(w, "Invalid multipart form")
		return
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	req := journal.CreateRequest{
		Place:       r.FormValue("place"),
		Description: r.FormValue("description"),
		Date:        r.FormValue("date"),
		Files:       h.uploads(r),
	}
	res, err := h.store.Create(r.Context(), req)
	if err != nil {
		respond.WriteKindError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, responseOf(res))
}

// AddMedia POST /api/memories/{memoryId}/media (multipart: files)
func (h *MemoryHandler) AddMedia(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		respond.WriteBadRequest(w, "Invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	res, err := h.store.AddMedia(r.Context(), mux.Vars(r)["memoryId"], h.uploads(r))
	if err != nil {
		respond.WriteKindError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, responseOf(res))
}

// ListMemories GET /api/memories?q=
func (h *MemoryHandler) ListMemories(w http.ResponseWriter, r *http.Request) {
	memories := h.store.Search(r.URL.Query().Get("q"))
	out := make([]memoryView, len(memories))
	for i, m := range memories {
		out[i] = viewOf(m)
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"memories": out, "total": len(out)})
}

// GetMemory GET /api/memories/{memoryId}
func (h *MemoryHandler) GetMemory(w http.ResponseWriter, r *http.Request) {
	m, err := h.store.Get(mux.Vars(r)["memoryId"])
	if err != nil {
		respond.WriteKindError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, viewOf(m))
}

type selectionRequest struct {
	MemoryID *string `json:"memoryId"`
}

type selectionResponse struct {
	MemoryID string      `json:"memoryId"`
	Memory   *memoryView `json:"memory,omitempty"`
}

// GetSelection GET /api/selection
func (h *MemoryHandler) GetSelection(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, http.StatusOK, h.selection())
}

// PutSelection PUT /api/selection {"memoryId": "..." | null}
func (h *MemoryHandler) PutSelection(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	id := ""
	if req.MemoryID != nil {
		id = strings.TrimSpace(*req.MemoryID)
	}
	if err := h.store.Select(id); err != nil {
		respond.WriteKindError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, h.selection())
}

func (h *MemoryHandler) selection() selectionResponse {
	m, ok := h.store.Selected()
	if !ok {
		return selectionResponse{}
	}
	v := viewOf(m)
	return selectionResponse{MemoryID: m.ID, Memory: &v}
}

// uploads converts the "files" parts into codec inputs. Parts whose type is
// outside the upload filter are dropped without error.
func (h *MemoryHandler) uploads(r *http.Request) []mediacodec.File {
	if r.MultipartForm == nil {
		return nil
	}
	var files []mediacodec.File
	for _, fh := range r.MultipartForm.File["files"] {
		mt := declaredType(fh)
		if mt == "" {
			mt = sniff(fh)
		}
		if !mediacodec.Accepts(mt) {
			h.log.Debug().Str("file", fh.Filename).Str("mime", mt).Msg("upload filtered")
			continue
		}
		files = append(files, mediacodec.File{
			Name:     fh.Filename,
			MIMEType: mt,
			Open: func() (io.ReadCloser, error) {
				return fh.Open()
			},
		})
	}
	return files
}

func declaredType(fh *multipart.FileHeader) string {
	mt := fh.Header.Get("Content-Type")
	if mt == "application/octet-stream" {
		return ""
	}
	return mt
}

func sniff(fh *multipart.FileHeader) string {
	f, err := fh.Open()
	if err != nil {
		return ""
	}
	defer f.Close()
	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return ""
	}
	return mt.String()
}

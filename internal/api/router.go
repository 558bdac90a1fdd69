package api

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/mycelian/travelmap/internal/api/recovery"
	"github.com/mycelian/travelmap/internal/journal"
)

// RouterDeps are the components the HTTP surface exposes.
type RouterDeps struct {
	Store      *journal.Store
	Geocoder   GeocoderStatus
	Hub        *MapHub
	Healthy    func() bool
	Components func() map[string]bool
	Log        zerolog.Logger
}

// NewRouter wires HTTP routes to handlers.
func NewRouter(d RouterDeps) *mux.Router {
	root := mux.NewRouter()
	root.Use(recovery.New(d.Log))

	memory := NewMemoryHandler(d.Store, d.Log)
	root.HandleFunc("/api/memories", memory.CreateMemory).Methods("POST")
	root.HandleFunc("/api/memories", memory.ListMemories).Methods("GET")
	root.HandleFunc("/api/memories/{memoryId}", memory.GetMemory).Methods("GET")
	root.HandleFunc("/api/memories/{memoryId}/media", memory.AddMedia).Methods("POST")
	root.HandleFunc("/api/selection", memory.GetSelection).Methods("GET")
	root.HandleFunc("/api/selection", memory.PutSelection).Methods("PUT")

	health := NewHealthHandler(d.Healthy, d.Components, d.Geocoder, d.Hub)
	root.HandleFunc("/api/health", health.CheckHealth).Methods("GET")
	root.HandleFunc("/api/geocoder/status", health.GeocoderState).Methods("GET")
	root.Handle("/metrics", promhttp.Handler()).Methods("GET")

	if d.Hub != nil {
		root.HandleFunc("/api/map/ws", d.Hub.ServeWS).Methods("GET")
	}
	return root
}

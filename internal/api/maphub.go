package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/mycelian/travelmap/internal/mapview"
)

// Map events pushed to browsers, and the one they send back.
const (
	EventMarkersSync     = "markers.sync"
	EventMarkerAdd       = "marker.add"
	EventMarkerUpdate    = "marker.update"
	EventMarkerRemove    = "marker.remove"
	EventMarkerHighlight = "marker.highlight"
	EventMarkerPulse     = "marker.pulse"
	EventCameraFly       = "camera.fly"
	EventPong            = "pong"

	MessageMarkerClick = "marker.click"
	MessagePing        = "ping"
)

const (
	wsSendBuffer   = 64
	wsWriteTimeout = 10 * time.Second
	wsPongWait     = 60 * time.Second
	wsPingEvery    = 30 * time.Second
)

// MapEnvelope wraps every websocket message.
type MapEnvelope struct {
	Type        string              `json:"type"`
	ID          string              `json:"id,omitempty"`
	Marker      *mapview.Marker     `json:"marker,omitempty"`
	Markers     []mapview.Marker    `json:"markers,omitempty"`
	Highlighted *bool               `json:"highlighted,omitempty"`
	Camera      *mapview.CameraMove `json:"camera,omitempty"`
	Timestamp   int64               `json:"timestamp"`
}

// Clicker receives marker clicks from connected maps.
type Clicker interface {
	Click(ctx context.Context, id string) error
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// MapHub is a mapview.Renderer that mirrors marker state to websocket clients.
// It keeps its own copy of what it rendered so late joiners get a full sync.
type MapHub struct {
	upgrader websocket.Upgrader
	log      zerolog.Logger

	mu      sync.RWMutex
	clients map[*wsClient]struct{}
	markers map[string]mapview.Marker
	camera  *mapview.CameraMove
	clicker Clicker
}

// NewMapHub creates an empty hub. Origins are not checked; the service binds locally.
func NewMapHub(log zerolog.Logger) *MapHub {
	return &MapHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log:     log,
		clients: make(map[*wsClient]struct{}),
		markers: make(map[string]mapview.Marker),
	}
}

// Attach sets the receiver of marker clicks.
func (h *MapHub) Attach(c Clicker) {
	h.mu.Lock()
	h.clicker = c
	h.mu.Unlock()
}

// Clients returns the number of connected maps.
func (h *MapHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *MapHub) AddMarker(_ context.Context, m mapview.Marker) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.markers[m.ID] = m
	h.broadcastLocked(MapEnvelope{Type: EventMarkerAdd, ID: m.ID, Marker: &m})
	return nil
}

func (h *MapHub) UpdateMarker(_ context.Context, m mapview.Marker) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.markers[m.ID] = m
	h.broadcastLocked(MapEnvelope{Type: EventMarkerUpdate, ID: m.ID, Marker: &m})
	return nil
}

func (h *MapHub) RemoveMarker(_ context.Context, id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.markers, id)
	h.broadcastLocked(MapEnvelope{Type: EventMarkerRemove, ID: id})
	return nil
}

func (h *MapHub) SetHighlight(_ context.Context, id string, on bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m, ok := h.markers[id]; ok {
		m.Highlighted = on
		h.markers[id] = m
	}
	h.broadcastLocked(MapEnvelope{Type: EventMarkerHighlight, ID: id, Highlighted: &on})
	return nil
}

func (h *MapHub) FlyTo(_ context.Context, move mapview.CameraMove) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.camera = &move
	h.broadcastLocked(MapEnvelope{Type: EventCameraFly, ID: move.MemoryID, Camera: &move})
	return nil
}

func (h *MapHub) Pulse(_ context.Context, id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcastLocked(MapEnvelope{Type: EventMarkerPulse, ID: id})
	return nil
}

func (h *MapHub) broadcastLocked(env MapEnvelope) {
	env.Timestamp = time.Now().UnixMilli()
	msg, err := json.Marshal(env)
	if err != nil {
		h.log.Error().Err(err).Str("type", env.Type).Msg("map event not encoded")
		return
	}
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			// slow reader; it resyncs on reconnect
			delete(h.clients, c)
			close(c.send)
		}
	}
}

func (h *MapHub) syncLocked() MapEnvelope {
	markers := make([]mapview.Marker, 0, len(h.markers))
	for _, m := range h.markers {
		markers = append(markers, m)
	}
	sort.Slice(markers, func(i, j int) bool { return markers[i].ID < markers[j].ID })
	return MapEnvelope{Type: EventMarkersSync, Markers: markers, Camera: h.camera, Timestamp: time.Now().UnixMilli()}
}

// ServeWS handles GET /api/map/ws.
func (h *MapHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	c := &wsClient{conn: conn, send: make(chan []byte, wsSendBuffer)}

	h.mu.Lock()
	hello, err := json.Marshal(h.syncLocked())
	if err == nil {
		c.send <- hello
	}
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Debug().Int("clients", n).Msg("map client connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go h.writePump(c)
	h.readPump(ctx, c)
}

func (h *MapHub) unregister(c *wsClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

type inbound struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

func (h *MapHub) readPump(ctx context.Context, c *wsClient) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug().Err(err).Msg("map client read failed")
			}
			return
		}
		var msg inbound
		if err := json.Unmarshal(raw, &msg); err != nil {
			h.log.Debug().Err(err).Msg("invalid map message")
			continue
		}
		switch msg.Type {
		case MessageMarkerClick:
			h.mu.RLock()
			clicker := h.clicker
			h.mu.RUnlock()
			if clicker == nil || msg.ID == "" {
				continue
			}
			go func(id string) {
				if err := clicker.Click(ctx, id); err != nil {
					h.log.Debug().Err(err).Str("memory_id", id).Msg("marker click ignored")
				}
			}(msg.ID)
		case MessagePing:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				pong, _ := json.Marshal(MapEnvelope{Type: EventPong, Timestamp: time.Now().UnixMilli()})
				select {
				case c.send <- pong:
				default:
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *MapHub) writePump(c *wsClient) {
	ticker := time.NewTicker(wsPingEvery)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

package mapview

import "github.com/mycelian/travelmap/internal/model"

// DefaultZoom is the zoom level the camera flies to on selection.
const DefaultZoom = 10

// Focus is what the camera last centred on. The zero value means nothing.
type Focus struct {
	MemoryID string
	Target   model.Location
}

// CameraMove instructs the renderer to fly to Target.
type CameraMove struct {
	MemoryID string         `json:"memoryId"`
	Target   model.Location `json:"target"`
	Zoom     int            `json:"zoom"`
}

// FollowCamera decides whether the camera must move for the current selection.
// It returns a move only when the focused memory or its coordinate changed, so
// repeating the call with the same inputs never moves the camera twice.
// Clearing the selection leaves the camera where it is and resets the focus.
func FollowCamera(last Focus, memories []model.Memory, selectedID string, zoom int) (*CameraMove, Focus) {
	if selectedID == "" {
		return nil, Focus{}
	}
	for _, m := range memories {
		if m.ID != selectedID {
			continue
		}
		next := Focus{MemoryID: m.ID, Target: m.Location}
		if next == last {
			return nil, last
		}
		if zoom <= 0 {
			zoom = DefaultZoom
		}
		return &CameraMove{MemoryID: m.ID, Target: m.Location, Zoom: zoom}, next
	}
	return nil, Focus{}
}

// Package mapview projects the journal onto map markers and a camera.
//
// Reconcile and FollowCamera are pure: they diff a desired state computed
// from (memories, selection) against the markers currently rendered. The
// Synchronizer applies the result to a Renderer and turns marker clicks into
// selection intents. Nothing here writes to the journal.
package mapview

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mycelian/travelmap/internal/model"
)

// Marker is the rendered representation of one memory.
type Marker struct {
	ID          string         `json:"id"`
	Position    model.Location `json:"position"`
	Label       string         `json:"label"`
	Thumbnail   string         `json:"thumbnail,omitempty"`
	Highlighted bool           `json:"highlighted"`
}

// sameContent reports whether a and b render identically apart from highlight.
func (m Marker) sameContent(o Marker) bool {
	return m.Position == o.Position && m.Label == o.Label && m.Thumbnail == o.Thumbnail
}

// OpKind names a renderer operation.
type OpKind string

const (
	OpAdd         OpKind = "add"
	OpUpdate      OpKind = "update"
	OpRemove      OpKind = "remove"
	OpHighlight   OpKind = "highlight"
	OpUnhighlight OpKind = "unhighlight"
)

// Op is one step of a plan. Remove and (un)highlight only use Marker.ID.
type Op struct {
	Kind   OpKind
	Marker Marker
}

// Plan is the ordered list of operations that turns the current marker set
// into Desired.
type Plan struct {
	Ops     []Op
	Desired map[string]Marker
}

// Empty reports whether applying the plan would change nothing.
func (p Plan) Empty() bool { return len(p.Ops) == 0 }

// MarkerLabel is the upper-cased first letter of the place, or "?" when blank.
func MarkerLabel(place string) string {
	place = strings.TrimSpace(place)
	r, _ := utf8.DecodeRuneInString(place)
	if r == utf8.RuneError {
		return "?"
	}
	return string(unicode.ToUpper(r))
}

// MarkerFor builds the marker for m.
func MarkerFor(m model.Memory, highlighted bool) Marker {
	return Marker{
		ID:          m.ID,
		Position:    m.Location,
		Label:       MarkerLabel(m.Place),
		Thumbnail:   m.DisplayThumbnail(),
		Highlighted: highlighted,
	}
}

// Reconcile diffs current against the markers memories call for.
//
// Operations come in a fixed order: unhighlight markers about to be removed,
// remove (by id), add (collection order, never highlighted on arrival),
// content updates, unhighlight, then highlight. At most one marker ends up
// highlighted, and only one that is rendered. Reconciling Desired against the
// same inputs yields an empty plan.
func Reconcile(current map[string]Marker, memories []model.Memory, selectedID string) Plan {
	desired := make(map[string]Marker, len(memories))
	order := make([]string, 0, len(memories))
	for _, m := range memories {
		if m.ID == "" {
			continue
		}
		if _, dup := desired[m.ID]; dup {
			continue
		}
		desired[m.ID] = MarkerFor(m, m.ID == selectedID)
		order = append(order, m.ID)
	}

	var gone []string
	for id := range current {
		if _, ok := desired[id]; !ok {
			gone = append(gone, id)
		}
	}
	sort.Strings(gone)

	var ops []Op
	for _, id := range gone {
		if current[id].Highlighted {
			ops = append(ops, Op{Kind: OpUnhighlight, Marker: Marker{ID: id}})
		}
	}
	for _, id := range gone {
		ops = append(ops, Op{Kind: OpRemove, Marker: Marker{ID: id}})
	}

	for _, id := range order {
		if _, ok := current[id]; !ok {
			m := desired[id]
			m.Highlighted = false
			ops = append(ops, Op{Kind: OpAdd, Marker: m})
		}
	}
	for _, id := range order {
		cur, ok := current[id]
		if ok && !cur.sameContent(desired[id]) {
			m := desired[id]
			m.Highlighted = cur.Highlighted
			ops = append(ops, Op{Kind: OpUpdate, Marker: m})
		}
	}
	for _, id := range order {
		if cur, ok := current[id]; ok && cur.Highlighted && !desired[id].Highlighted {
			ops = append(ops, Op{Kind: OpUnhighlight, Marker: Marker{ID: id}})
		}
	}
	for _, id := range order {
		want := desired[id]
		if !want.Highlighted {
			continue
		}
		if cur, ok := current[id]; !ok || !cur.Highlighted {
			ops = append(ops, Op{Kind: OpHighlight, Marker: want})
		}
	}

	return Plan{Ops: ops, Desired: desired}
}

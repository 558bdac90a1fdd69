package mapview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mycelian/travelmap/internal/model"
)

func TestFollowCamera(t *testing.T) {
	memories := []model.Memory{mem("a", "Rome", 41.9, 12.5), mem("b", "Oslo", 59.9, 10.7)}

	move, focus := FollowCamera(Focus{}, memories, "a", 10)
	require.NotNil(t, move)
	assert.Equal(t, CameraMove{MemoryID: "a", Target: model.Location{Lat: 41.9, Lng: 12.5}, Zoom: 10}, *move)

	again, same := FollowCamera(focus, memories, "a", 10)
	assert.Nil(t, again, "no redundant camera movement")
	assert.Equal(t, focus, same)

	memories[0].Location = model.Location{Lat: 42, Lng: 12.5}
	relocated, _ := FollowCamera(focus, memories, "a", 10)
	require.NotNil(t, relocated)
	assert.Equal(t, 42.0, relocated.Target.Lat)

	none, cleared := FollowCamera(focus, memories, "", 10)
	assert.Nil(t, none)
	assert.Equal(t, Focus{}, cleared)

	reselect, _ := FollowCamera(cleared, memories, "a", 0)
	require.NotNil(t, reselect)
	assert.Equal(t, DefaultZoom, reselect.Zoom)

	ghost, _ := FollowCamera(focus, memories, "ghost", 10)
	assert.Nil(t, ghost)
}

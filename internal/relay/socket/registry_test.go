package socket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetrelay.io/fleetrelay/internal/relay/core"
)

func addConn(r *Registry, id string) *Conn {
	conn := newConn(id, nil)
	r.Add(conn)
	return conn
}

func TestJoinReportsSensorOccupancyEdges(t *testing.T) {
	r := NewRegistry()
	addConn(r, "s1")
	addConn(r, "s2")

	joined, left, ok := r.Join("s1", "V1", core.RoleSensor)
	require.True(t, ok)
	assert.Nil(t, left)
	assert.Equal(t, "V1-sensor", joined.Room)
	assert.Equal(t, 1, joined.SensorTransition)

	// A second sensor for the same vehicle is not a 0->1 edge.
	joined, _, ok = r.Join("s2", "V1", core.RoleSensor)
	require.True(t, ok)
	assert.Equal(t, 0, joined.SensorTransition)

	// First sensor out leaves one behind; no edge.
	gone := r.Leave("s1", "V1", core.RoleSensor)
	require.NotNil(t, gone)
	assert.Equal(t, 0, gone.SensorTransition)

	// Last sensor out is the 1->0 edge.
	gone = r.Leave("s2", "V1", core.RoleSensor)
	require.NotNil(t, gone)
	assert.Equal(t, -1, gone.SensorTransition)
}

func TestClientJoinHasNoSensorTransition(t *testing.T) {
	r := NewRegistry()
	addConn(r, "c1")

	joined, _, ok := r.Join("c1", "V1", core.RoleClient)
	require.True(t, ok)
	assert.Equal(t, "V1-client", joined.Room)
	assert.Equal(t, 0, joined.SensorTransition)
}

func TestRejoinSameRoomIsIdempotent(t *testing.T) {
	r := NewRegistry()
	addConn(r, "s1")

	_, _, ok := r.Join("s1", "V1", core.RoleSensor)
	require.True(t, ok)

	joined, left, ok := r.Join("s1", "V1", core.RoleSensor)
	require.True(t, ok)
	assert.Nil(t, left)
	assert.Equal(t, 0, joined.SensorTransition)
	assert.Len(t, r.Members("V1-sensor"), 1)
}

func TestJoinReplacesPriorMembership(t *testing.T) {
	r := NewRegistry()
	addConn(r, "s1")

	_, _, ok := r.Join("s1", "V1", core.RoleSensor)
	require.True(t, ok)

	joined, left, ok := r.Join("s1", "V2", core.RoleSensor)
	require.True(t, ok)
	require.NotNil(t, left)
	assert.Equal(t, "V1-sensor", left.Room)
	assert.Equal(t, -1, left.SensorTransition)
	assert.Equal(t, "V2-sensor", joined.Room)
	assert.Equal(t, 1, joined.SensorTransition)

	assert.Empty(t, r.Members("V1-sensor"))
	assert.Len(t, r.Members("V2-sensor"), 1)
}

func TestLeaveMismatchedMembershipIsNoop(t *testing.T) {
	r := NewRegistry()
	addConn(r, "s1")

	_, _, ok := r.Join("s1", "V1", core.RoleSensor)
	require.True(t, ok)

	assert.Nil(t, r.Leave("s1", "V2", core.RoleSensor))
	assert.Nil(t, r.Leave("s1", "V1", core.RoleClient))
	assert.Len(t, r.Members("V1-sensor"), 1)
}

func TestDisconnectIsIdempotent(t *testing.T) {
	r := NewRegistry()
	addConn(r, "s1")

	_, _, ok := r.Join("s1", "V1", core.RoleSensor)
	require.True(t, ok)

	gone := r.Disconnect("s1")
	require.NotNil(t, gone)
	assert.Equal(t, -1, gone.SensorTransition)

	assert.Nil(t, r.Disconnect("s1"))
}

func TestJoinUnknownConnectionFails(t *testing.T) {
	r := NewRegistry()

	_, _, ok := r.Join("ghost", "V1", core.RoleClient)
	assert.False(t, ok)
}

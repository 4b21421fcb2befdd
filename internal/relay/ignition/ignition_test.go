package ignition

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetrelay.io/fleetrelay/internal/relay/core"
	"fleetrelay.io/fleetrelay/internal/relay/core/model"
)

type storeRecorder struct {
	calls []bool
	err   error
}

func (s *storeRecorder) SetIgnition(_ context.Context, id string, on bool) (model.VehicleResponse, error) {
	if s.err != nil {
		return model.VehicleResponse{}, s.err
	}
	s.calls = append(s.calls, on)
	return model.VehicleResponse{ID: id, IsIgnitionOn: on}, nil
}

type dispatchRecorder struct {
	rooms    []string
	events   []string
	payloads []any
}

func (d *dispatchRecorder) ToAll(event string, data any) {}

func (d *dispatchRecorder) ToRoom(room, event string, data any) {
	d.rooms = append(d.rooms, room)
	d.events = append(d.events, event)
	d.payloads = append(d.payloads, data)
}

func (d *dispatchRecorder) ToConnection(connID, event string, data any) {}

func TestConnectPersistsThenBroadcasts(t *testing.T) {
	store := &storeRecorder{}
	dispatch := &dispatchRecorder{}
	ign := New(store, dispatch)

	ign.SensorConnected(context.Background(), "V1")

	assert.Equal(t, []bool{true}, store.calls)
	require.Len(t, dispatch.events, 1)
	assert.Equal(t, core.EventIgnitionUpdated, dispatch.events[0])
	assert.Equal(t, "V1-client", dispatch.rooms[0])

	payload, ok := dispatch.payloads[0].(core.IgnitionPayload)
	require.True(t, ok)
	assert.Equal(t, "V1", payload.VehicleID)
	assert.True(t, payload.IsIgnitionOn)
	assert.False(t, payload.Timestamp.IsZero())
}

func TestDisconnectTurnsOff(t *testing.T) {
	store := &storeRecorder{}
	dispatch := &dispatchRecorder{}
	ign := New(store, dispatch)
	ctx := context.Background()

	ign.SensorConnected(ctx, "V1")
	ign.SensorDisconnected(ctx, "V1")

	assert.Equal(t, []bool{true, false}, store.calls)
	require.Len(t, dispatch.events, 2)

	payload, ok := dispatch.payloads[1].(core.IgnitionPayload)
	require.True(t, ok)
	assert.False(t, payload.IsIgnitionOn)
}

func TestPersistFailureSuppressesBroadcast(t *testing.T) {
	store := &storeRecorder{err: errors.New("db down")}
	dispatch := &dispatchRecorder{}
	ign := New(store, dispatch)
	ctx := context.Background()

	ign.SensorConnected(ctx, "V1")

	assert.Empty(t, store.calls)
	assert.Empty(t, dispatch.events)

	// The transition was canceled, so a later retry starts from off and
	// can still succeed.
	store.err = nil
	ign.SensorConnected(ctx, "V1")
	assert.Equal(t, []bool{true}, store.calls)
	assert.Len(t, dispatch.events, 1)
}

func TestDuplicateEdgesAreNoops(t *testing.T) {
	store := &storeRecorder{}
	dispatch := &dispatchRecorder{}
	ign := New(store, dispatch)
	ctx := context.Background()

	// Off vehicles stay off on a disconnect; on vehicles stay on for a
	// repeated connect. Neither touches the store.
	ign.SensorDisconnected(ctx, "V1")
	assert.Empty(t, store.calls)

	ign.SensorConnected(ctx, "V1")
	ign.SensorConnected(ctx, "V1")
	assert.Equal(t, []bool{true}, store.calls)
	assert.Len(t, dispatch.events, 1)
}

func TestVehiclesAreIndependent(t *testing.T) {
	store := &storeRecorder{}
	dispatch := &dispatchRecorder{}
	ign := New(store, dispatch)
	ctx := context.Background()

	ign.SensorConnected(ctx, "V1")
	ign.SensorConnected(ctx, "V2")
	ign.SensorDisconnected(ctx, "V1")

	assert.Equal(t, []bool{true, true, false}, store.calls)
	assert.Equal(t, []string{"V1-client", "V2-client", "V1-client"}, dispatch.rooms)
}

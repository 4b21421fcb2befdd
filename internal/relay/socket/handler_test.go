package socket

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetrelay.io/fleetrelay/internal/relay/core"
)

type ignitionRecorder struct {
	connected    []string
	disconnected []string
}

func (r *ignitionRecorder) SensorConnected(_ context.Context, vehicleID string) {
	r.connected = append(r.connected, vehicleID)
}

func (r *ignitionRecorder) SensorDisconnected(_ context.Context, vehicleID string) {
	r.disconnected = append(r.disconnected, vehicleID)
}

type reportRecorder struct {
	vehicleIDs []string
	speeds     []float64
}

func (r *reportRecorder) Report(_ context.Context, vehicleID string, speedKm float64) {
	r.vehicleIDs = append(r.vehicleIDs, vehicleID)
	r.speeds = append(r.speeds, speedKm)
}

func newTestHandler() (*Handler, *Registry, *ignitionRecorder, *reportRecorder) {
	registry := NewRegistry()
	ignition := &ignitionRecorder{}
	reports := &reportRecorder{}
	handler := NewHandler(registry, NewHub(registry), ignition, reports, nil)
	return handler, registry, ignition, reports
}

func frame(t *testing.T, event string, data any) []byte {
	t.Helper()
	msg, err := encodeEvent(event, data)
	require.NoError(t, err)
	return msg
}

func TestJoinBroadcastsAndFiresIgnition(t *testing.T) {
	handler, registry, ignition, _ := newTestHandler()
	ctx := context.Background()

	sensor := addConn(registry, "s1")
	handler.handleMessage(ctx, sensor, frame(t, "join", joinPayload{Room: "V1", Type: "sensor"}))

	assert.Equal(t, []string{"V1"}, ignition.connected)

	// The joiner itself receives user_joined.
	got := drainEvents(t, sensor)
	require.Len(t, got, 1)
	assert.Equal(t, core.EventUserJoined, got[0].Event)

	var payload core.PresencePayload
	require.NoError(t, json.Unmarshal(got[0].Data, &payload))
	assert.Equal(t, "s1", payload.UserID)
	assert.Equal(t, "V1-sensor", payload.Room)
	assert.Equal(t, "sensor", payload.Type)
}

func TestSecondSensorDoesNotRefireIgnition(t *testing.T) {
	handler, registry, ignition, _ := newTestHandler()
	ctx := context.Background()

	s1 := addConn(registry, "s1")
	s2 := addConn(registry, "s2")
	handler.handleMessage(ctx, s1, frame(t, "join", joinPayload{Room: "V1", Type: "sensor"}))
	handler.handleMessage(ctx, s2, frame(t, "join", joinPayload{Room: "V1", Type: "sensor"}))

	assert.Equal(t, []string{"V1"}, ignition.connected)

	// First sensor leaving keeps ignition on; the last one turns it off.
	handler.handleMessage(ctx, s1, frame(t, "leave", joinPayload{Room: "V1", Type: "sensor"}))
	assert.Empty(t, ignition.disconnected)

	handler.handleMessage(ctx, s2, frame(t, "leave", joinPayload{Room: "V1", Type: "sensor"}))
	assert.Equal(t, []string{"V1"}, ignition.disconnected)
}

func TestLeaveNotifiesRemainingMembers(t *testing.T) {
	handler, registry, _, _ := newTestHandler()
	ctx := context.Background()

	c1 := addConn(registry, "c1")
	c2 := addConn(registry, "c2")
	handler.handleMessage(ctx, c1, frame(t, "join", joinPayload{Room: "V1", Type: "client"}))
	handler.handleMessage(ctx, c2, frame(t, "join", joinPayload{Room: "V1", Type: "client"}))
	drainEvents(t, c1)
	drainEvents(t, c2)

	handler.handleMessage(ctx, c1, frame(t, "leave", joinPayload{Room: "V1", Type: "client"}))

	// The leaver is out of the room before the broadcast.
	assert.Empty(t, drainEvents(t, c1))
	got := drainEvents(t, c2)
	require.Len(t, got, 1)
	assert.Equal(t, core.EventUserLeft, got[0].Event)
}

func TestDisconnectAppliesLeaveSideEffects(t *testing.T) {
	handler, registry, ignition, _ := newTestHandler()
	ctx := context.Background()

	sensor := addConn(registry, "s1")
	client := addConn(registry, "c1")
	handler.handleMessage(ctx, sensor, frame(t, "join", joinPayload{Room: "V1", Type: "sensor"}))
	handler.handleMessage(ctx, client, frame(t, "join", joinPayload{Room: "V1", Type: "client"}))

	handler.emitLeft(ctx, registry.Disconnect("s1"))

	assert.Equal(t, []string{"V1"}, ignition.disconnected)
}

func TestTelemetryReportRoutesToReporter(t *testing.T) {
	handler, registry, _, reports := newTestHandler()

	sensor := addConn(registry, "s1")
	handler.handleMessage(context.Background(), sensor,
		frame(t, "reportVehicleTelemetry", telemetryReport{VehicleID: "V1", SpeedKm: 42}))

	assert.Equal(t, []string{"V1"}, reports.vehicleIDs)
	assert.Equal(t, []float64{42}, reports.speeds)
}

func TestMalformedFramesAnsweredWithError(t *testing.T) {
	handler, registry, ignition, reports := newTestHandler()
	ctx := context.Background()

	conn := addConn(registry, "c1")

	for _, msg := range [][]byte{
		[]byte(`not json`),
		[]byte(`{"event":"join","data":{"room":"","type":"client"}}`),
		[]byte(`{"event":"join","data":{"room":"V1","type":"admin"}}`),
		[]byte(`{"event":"reportVehicleTelemetry","data":{"vehicleId":"V1","speedKm":"fast"}}`),
		[]byte(`{"event":"selfDestruct","data":{}}`),
	} {
		handler.handleMessage(ctx, conn, msg)

		got := drainEvents(t, conn)
		require.Len(t, got, 1, "frame %s", msg)
		assert.Equal(t, core.EventError, got[0].Event)
	}

	assert.Empty(t, ignition.connected)
	assert.Empty(t, reports.vehicleIDs)
}

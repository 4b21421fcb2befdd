package telemetry

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetrelay.io/fleetrelay/internal/relay/core"
	"fleetrelay.io/fleetrelay/internal/relay/core/model"
	"fleetrelay.io/fleetrelay/internal/relay/store"
)

type vehicleFake struct {
	ignitionOn bool
	speeds     map[string]float64
	setErr     error
	getErr     error
}

func newVehicleFake() *vehicleFake {
	return &vehicleFake{speeds: make(map[string]float64)}
}

func (f *vehicleFake) SetSpeed(_ context.Context, id string, speedKm float64) (model.VehicleResponse, error) {
	if f.setErr != nil {
		return model.VehicleResponse{}, f.setErr
	}
	f.speeds[id] = speedKm
	return model.VehicleResponse{ID: id, SpeedKm: speedKm}, nil
}

func (f *vehicleFake) GetByID(_ context.Context, id string) (model.VehicleResponse, error) {
	if f.getErr != nil {
		return model.VehicleResponse{}, f.getErr
	}
	return model.VehicleResponse{ID: id, SpeedKm: f.speeds[id], IsIgnitionOn: f.ignitionOn}, nil
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

func TestValidReportPersistsAndBroadcasts(t *testing.T) {
	vehicles := newVehicleFake()
	vehicles.ignitionOn = true
	dispatch := &dispatchRecorder{}
	ing := New(vehicles, dispatch)

	ing.Report(context.Background(), "V1", 42)

	assert.Equal(t, 42.0, vehicles.speeds["V1"])
	require.Len(t, dispatch.events, 1)
	assert.Equal(t, core.EventTelemetryUpdated, dispatch.events[0])
	assert.Equal(t, "V1-client", dispatch.rooms[0])

	payload, ok := dispatch.payloads[0].(core.TelemetryPayload)
	require.True(t, ok)
	assert.Equal(t, "V1", payload.VehicleID)
	assert.Equal(t, 42.0, payload.SpeedKm)
	assert.True(t, payload.IsIgnitionOn)
	assert.False(t, payload.Timestamp.IsZero())
}

func TestInvalidReportsAreDropped(t *testing.T) {
	tests := []struct {
		name      string
		vehicleID string
		speedKm   float64
	}{
		{"empty vehicle id", "", 10},
		{"nan speed", "V1", math.NaN()},
		{"positive infinity", "V1", math.Inf(1)},
		{"negative infinity", "V1", math.Inf(-1)},
		{"negative speed", "V1", -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vehicles := newVehicleFake()
			dispatch := &dispatchRecorder{}
			ing := New(vehicles, dispatch)

			ing.Report(context.Background(), tt.vehicleID, tt.speedKm)

			assert.Empty(t, vehicles.speeds)
			assert.Empty(t, dispatch.events)
		})
	}
}

func TestUnknownVehicleSuppressesBroadcast(t *testing.T) {
	vehicles := newVehicleFake()
	vehicles.setErr = store.ErrNotFound
	dispatch := &dispatchRecorder{}
	ing := New(vehicles, dispatch)

	ing.Report(context.Background(), "ghost", 10)

	assert.Empty(t, dispatch.events)
}

func TestPersistErrorSuppressesBroadcast(t *testing.T) {
	vehicles := newVehicleFake()
	vehicles.setErr = errors.New("db down")
	dispatch := &dispatchRecorder{}
	ing := New(vehicles, dispatch)

	ing.Report(context.Background(), "V1", 10)

	assert.Empty(t, dispatch.events)
}

func TestReadBackErrorSuppressesBroadcast(t *testing.T) {
	vehicles := newVehicleFake()
	vehicles.getErr = errors.New("db down")
	dispatch := &dispatchRecorder{}
	ing := New(vehicles, dispatch)

	ing.Report(context.Background(), "V1", 10)

	// The write landed, but an unconfirmed ignition flag is never paired
	// with the new speed.
	assert.Equal(t, 10.0, vehicles.speeds["V1"])
	assert.Empty(t, dispatch.events)
}

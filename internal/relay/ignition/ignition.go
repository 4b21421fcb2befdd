// Package ignition derives each vehicle's persisted ignition state from
// sensor-room occupancy edges reported by the connection registry.
package ignition

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/looplab/fsm"

	"fleetrelay.io/fleetrelay/internal/pkg/metrics"
	"fleetrelay.io/fleetrelay/internal/relay/core"
	"fleetrelay.io/fleetrelay/internal/relay/core/model"
	"fleetrelay.io/fleetrelay/pkg/log"
)

const (
	StateOff = "off"
	StateOn  = "on"

	// EventSensorConnected fires on a vehicle's first live sensor.
	EventSensorConnected = "sensor_connected"
	// EventSensorDisconnected fires when a vehicle's last sensor is gone.
	EventSensorDisconnected = "sensor_disconnected"
)

// VehicleStore persists the derived ignition flag. A write failure
// cancels the transition; the unconfirmed state is never broadcast.
type VehicleStore interface {
	SetIgnition(ctx context.Context, id string, on bool) (model.VehicleResponse, error)
}

// Ignition owns one state machine per observed vehicle. Machines are
// created lazily in the off state; every vehicle without a live sensor
// is off by definition.
type Ignition struct {
	vehicles VehicleStore
	dispatch core.Dispatcher
	logger   log.Logger

	mu       sync.Mutex
	machines map[string]*fsm.FSM
}

// New creates the ignition state machine collection.
func New(vehicles VehicleStore, dispatch core.Dispatcher) *Ignition {
	return &Ignition{
		vehicles: vehicles,
		dispatch: dispatch,
		logger:   log.WithName("ignition"),
		machines: make(map[string]*fsm.FSM),
	}
}

// SensorConnected transitions the vehicle to on.
func (i *Ignition) SensorConnected(ctx context.Context, vehicleID string) {
	i.fire(ctx, vehicleID, EventSensorConnected)
}

// SensorDisconnected transitions the vehicle to off.
func (i *Ignition) SensorDisconnected(ctx context.Context, vehicleID string) {
	i.fire(ctx, vehicleID, EventSensorDisconnected)
}

func (i *Ignition) fire(ctx context.Context, vehicleID, event string) {
	machine := i.machineFor(vehicleID)

	err := machine.Event(ctx, event, vehicleID)
	if err == nil {
		return
	}

	var invalid fsm.InvalidEventError
	var same fsm.NoTransitionError
	var canceled fsm.CanceledError
	switch {
	case errors.As(err, &invalid), errors.As(err, &same):
		i.logger.Debug("Ignition already in target state", "vehicle", vehicleID, "event", event)
	case errors.As(err, &canceled):
		i.logger.Warn("Ignition transition canceled, state not persisted",
			"vehicle", vehicleID, "event", event, "err", canceled.Err)
	default:
		i.logger.Error(err, "Ignition transition failed", "vehicle", vehicleID, "event", event)
	}
}

func (i *Ignition) machineFor(vehicleID string) *fsm.FSM {
	i.mu.Lock()
	defer i.mu.Unlock()

	if machine, ok := i.machines[vehicleID]; ok {
		return machine
	}

	events := fsm.Events{
		{Name: EventSensorConnected, Src: []string{StateOff}, Dst: StateOn},
		{Name: EventSensorDisconnected, Src: []string{StateOn}, Dst: StateOff},
	}

	callbacks := fsm.Callbacks{
		// Guards: persist the new state first; a failed write cancels
		// the transition so no unconfirmed state leaks to clients.
		"before_" + EventSensorConnected:    i.persist(true),
		"before_" + EventSensorDisconnected: i.persist(false),

		// Side effects: notify the vehicle's observers.
		"enter_" + StateOn:  i.broadcast(true),
		"enter_" + StateOff: i.broadcast(false),
	}

	machine := fsm.NewFSM(StateOff, events, callbacks)
	i.machines[vehicleID] = machine
	return machine
}

func (i *Ignition) persist(on bool) fsm.Callback {
	return func(ctx context.Context, e *fsm.Event) {
		vehicleID := e.Args[0].(string)

		if _, err := i.vehicles.SetIgnition(ctx, vehicleID, on); err != nil {
			e.Cancel(err)
			return
		}

		state := StateOff
		if on {
			state = StateOn
		}
		metrics.IgnitionTransitions.WithLabelValues(state).Inc()
	}
}

func (i *Ignition) broadcast(on bool) fsm.Callback {
	return func(ctx context.Context, e *fsm.Event) {
		vehicleID := e.Args[0].(string)

		i.dispatch.ToRoom(core.ClientRoom(vehicleID), core.EventIgnitionUpdated, core.IgnitionPayload{
			VehicleID:    vehicleID,
			IsIgnitionOn: on,
			Timestamp:    time.Now().UTC(),
		})
	}
}

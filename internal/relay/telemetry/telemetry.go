// Package telemetry ingests speed reports from sensor connections and
// fans the accepted readings out to each vehicle's observers.
package telemetry

import (
	"context"
	"errors"
	"math"
	"time"

	"fleetrelay.io/fleetrelay/internal/pkg/metrics"
	"fleetrelay.io/fleetrelay/internal/relay/core"
	"fleetrelay.io/fleetrelay/internal/relay/core/model"
	"fleetrelay.io/fleetrelay/internal/relay/store"
	"fleetrelay.io/fleetrelay/pkg/log"
)

// VehicleStore is the persistence surface ingestion needs: one partial
// update for the speed and one fresh read for the ignition flag.
type VehicleStore interface {
	SetSpeed(ctx context.Context, id string, speedKm float64) (model.VehicleResponse, error)
	GetByID(ctx context.Context, id string) (model.VehicleResponse, error)
}

// Ingestor validates, persists and broadcasts telemetry reports.
type Ingestor struct {
	vehicles VehicleStore
	dispatch core.Dispatcher
	logger   log.Logger
}

// New creates the telemetry ingestor.
func New(vehicles VehicleStore, dispatch core.Dispatcher) *Ingestor {
	return &Ingestor{
		vehicles: vehicles,
		dispatch: dispatch,
		logger:   log.WithName("telemetry"),
	}
}

// Report processes one telemetry report. The protocol has no
// acknowledgement channel, so every failure is logged and contained
// here; the sender's connection is never torn down.
func (i *Ingestor) Report(ctx context.Context, vehicleID string, speedKm float64) {
	if vehicleID == "" {
		i.drop("invalid", vehicleID, speedKm, "vehicle id is empty")
		return
	}
	if math.IsNaN(speedKm) || math.IsInf(speedKm, 0) || speedKm < 0 {
		i.drop("invalid", vehicleID, speedKm, "speed is not a finite non-negative number")
		return
	}

	if _, err := i.vehicles.SetSpeed(ctx, vehicleID, speedKm); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			i.drop("not_found", vehicleID, speedKm, "unknown vehicle")
		} else {
			metrics.TelemetryReports.WithLabelValues("error").Inc()
			i.logger.Error(err, "Failed to persist telemetry", "vehicle", vehicleID)
		}
		return
	}

	// Fresh ignition read so the broadcast never pairs a new speed with
	// a stale ignition flag.
	vehicle, err := i.vehicles.GetByID(ctx, vehicleID)
	if err != nil {
		metrics.TelemetryReports.WithLabelValues("error").Inc()
		i.logger.Error(err, "Failed to read back vehicle state", "vehicle", vehicleID)
		return
	}

	i.dispatch.ToRoom(core.ClientRoom(vehicleID), core.EventTelemetryUpdated, core.TelemetryPayload{
		VehicleID:    vehicleID,
		SpeedKm:      speedKm,
		IsIgnitionOn: vehicle.IsIgnitionOn,
		Timestamp:    time.Now().UTC(),
	})
	metrics.TelemetryReports.WithLabelValues("accepted").Inc()
}

func (i *Ingestor) drop(outcome, vehicleID string, speedKm float64, reason string) {
	metrics.TelemetryReports.WithLabelValues(outcome).Inc()
	i.logger.Warn("Dropped telemetry report",
		"vehicle", vehicleID, "speedKm", speedKm, "reason", reason)
}

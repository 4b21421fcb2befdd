package socket

import (
	"encoding/json"
	"fmt"
)

// Client-to-server event names.
const (
	eventJoin            = "join"
	eventLeave           = "leave"
	eventReportTelemetry = "reportVehicleTelemetry"
)

// Envelope is the wire frame carried in both directions: an event name
// and an event-specific payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// joinPayload is shared by join and leave. Room carries the vehicle id;
// the full room name is derived from it and the connection type.
type joinPayload struct {
	Room string `json:"room"`
	Type string `json:"type"`
}

// telemetryReport is the inbound reportVehicleTelemetry payload.
type telemetryReport struct {
	VehicleID string  `json:"vehicleId"`
	SpeedKm   float64 `json:"speedKm"`
}

// encodeEvent serializes an outbound frame.
func encodeEvent(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", event, err)
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}

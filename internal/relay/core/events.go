package core

import (
	"fmt"
	"time"
)

// Connection roles. A sensor is a vehicle-mounted telemetry source, a
// client is an observer subscribed to a vehicle's updates.
const (
	RoleSensor = "sensor"
	RoleClient = "client"
)

// Server-to-client event names.
const (
	EventUserJoined       = "user_joined"
	EventUserLeft         = "user_left"
	EventTelemetryUpdated = "vehicleTelemetryUpdated"
	EventIgnitionUpdated  = "vehicleIgnitionUpdated"
	EventError            = "error"
)

// Room returns the broadcast group name for a vehicle and role.
func Room(vehicleID, role string) string {
	return fmt.Sprintf("%s-%s", vehicleID, role)
}

// SensorRoom returns the room holding a vehicle's sensor connections.
func SensorRoom(vehicleID string) string {
	return Room(vehicleID, RoleSensor)
}

// ClientRoom returns the room holding a vehicle's observer connections.
func ClientRoom(vehicleID string) string {
	return Room(vehicleID, RoleClient)
}

// PresencePayload is carried by user_joined and user_left events.
type PresencePayload struct {
	UserID string `json:"userId"`
	Room   string `json:"room"`
	Type   string `json:"type"`
}

// TelemetryPayload is carried by vehicleTelemetryUpdated events.
type TelemetryPayload struct {
	VehicleID    string    `json:"vehicleId"`
	SpeedKm      float64   `json:"speedKm"`
	IsIgnitionOn bool      `json:"isIgnitionOn"`
	Timestamp    time.Time `json:"timestamp"`
}

// IgnitionPayload is carried by vehicleIgnitionUpdated events.
type IgnitionPayload struct {
	VehicleID    string    `json:"vehicleId"`
	IsIgnitionOn bool      `json:"isIgnitionOn"`
	Timestamp    time.Time `json:"timestamp"`
}

// ErrorPayload is carried by error events sent back to a single connection.
type ErrorPayload struct {
	Message string `json:"message"`
}

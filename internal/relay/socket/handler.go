package socket

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"fleetrelay.io/fleetrelay/internal/relay/core"
	"fleetrelay.io/fleetrelay/pkg/log"
)

// IgnitionDriver receives sensor-room occupancy edges and derives the
// persisted ignition state from them.
type IgnitionDriver interface {
	SensorConnected(ctx context.Context, vehicleID string)
	SensorDisconnected(ctx context.Context, vehicleID string)
}

// TelemetryReporter ingests telemetry reports. Failures are contained
// inside the reporter; the protocol has no acknowledgement channel.
type TelemetryReporter interface {
	Report(ctx context.Context, vehicleID string, speedKm float64)
}

// Handler upgrades websocket connections and routes their frames into
// the registry, the ignition state machine and telemetry ingestion.
type Handler struct {
	registry  *Registry
	hub       core.Dispatcher
	ignition  IgnitionDriver
	telemetry TelemetryReporter

	upgrader websocket.Upgrader
	logger   log.Logger
}

// NewHandler creates the websocket endpoint handler. allowedOrigins
// lists the origins accepted for upgrades; empty falls back to
// same-origin checking.
func NewHandler(registry *Registry, hub core.Dispatcher, ignition IgnitionDriver, telemetry TelemetryReporter, allowedOrigins []string) *Handler {
	h := &Handler{
		registry:  registry,
		hub:       hub,
		ignition:  ignition,
		telemetry: telemetry,
		logger:    log.WithName("socket"),
	}

	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	if len(allowedOrigins) > 0 {
		allowed := make(map[string]struct{}, len(allowedOrigins))
		for _, origin := range allowedOrigins {
			allowed[origin] = struct{}{}
		}
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				// Non-browser peers (vehicle sensors) send no origin.
				return true
			}
			_, ok := allowed[origin]
			return ok
		}
	}

	return h
}

// ServeHTTP accepts one websocket connection and serves it until the
// peer goes away.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade rejected", "remote", r.RemoteAddr, "err", err)
		return
	}

	conn := newConn(uuid.NewString(), ws)
	h.registry.Add(conn)
	h.logger.Debug("Connection opened", "conn", conn.ID(), "remote", r.RemoteAddr)

	// The request context dies with the HTTP handler; membership side
	// effects must outlive it.
	ctx := context.WithoutCancel(r.Context())

	go conn.writePump()
	conn.readPump(func(c *Conn, msg []byte) {
		h.handleMessage(ctx, c, msg)
	})

	h.emitLeft(ctx, h.registry.Disconnect(conn.ID()))
	h.logger.Debug("Connection closed", "conn", conn.ID())
}

// handleMessage routes one inbound frame. Malformed frames are answered
// with an error event and dropped; they never tear the connection down.
func (h *Handler) handleMessage(ctx context.Context, conn *Conn, msg []byte) {
	var envelope Envelope
	if err := json.Unmarshal(msg, &envelope); err != nil {
		h.rejectFrame(conn, "malformed event envelope")
		return
	}

	switch envelope.Event {
	case eventJoin:
		h.handleJoin(ctx, conn, envelope.Data)
	case eventLeave:
		h.handleLeave(ctx, conn, envelope.Data)
	case eventReportTelemetry:
		h.handleReport(ctx, conn, envelope.Data)
	default:
		h.rejectFrame(conn, "unknown event: "+envelope.Event)
	}
}

func (h *Handler) handleJoin(ctx context.Context, conn *Conn, data json.RawMessage) {
	payload, ok := h.parseMembership(conn, data)
	if !ok {
		return
	}

	joined, left, ok := h.registry.Join(conn.ID(), payload.Room, payload.Type)
	if !ok {
		return
	}

	// A replaced membership leaves its old room first.
	h.emitLeft(ctx, left)

	h.hub.ToRoom(joined.Room, core.EventUserJoined, core.PresencePayload{
		UserID: joined.ConnID,
		Room:   joined.Room,
		Type:   joined.Role,
	})

	if joined.SensorTransition > 0 {
		h.ignition.SensorConnected(ctx, joined.VehicleID)
	}
}

func (h *Handler) handleLeave(ctx context.Context, conn *Conn, data json.RawMessage) {
	payload, ok := h.parseMembership(conn, data)
	if !ok {
		return
	}

	h.emitLeft(ctx, h.registry.Leave(conn.ID(), payload.Room, payload.Type))
}

func (h *Handler) handleReport(ctx context.Context, conn *Conn, data json.RawMessage) {
	var report telemetryReport
	if err := json.Unmarshal(data, &report); err != nil {
		h.rejectFrame(conn, "malformed telemetry report")
		return
	}

	h.telemetry.Report(ctx, report.VehicleID, report.SpeedKm)
}

func (h *Handler) parseMembership(conn *Conn, data json.RawMessage) (joinPayload, bool) {
	var payload joinPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		h.rejectFrame(conn, "malformed membership payload")
		return joinPayload{}, false
	}
	if payload.Room == "" {
		h.rejectFrame(conn, "room is required")
		return joinPayload{}, false
	}
	if payload.Type != core.RoleSensor && payload.Type != core.RoleClient {
		h.rejectFrame(conn, "type must be sensor or client")
		return joinPayload{}, false
	}
	return payload, true
}

func (h *Handler) emitLeft(ctx context.Context, left *Change) {
	if left == nil {
		return
	}

	h.hub.ToRoom(left.Room, core.EventUserLeft, core.PresencePayload{
		UserID: left.ConnID,
		Room:   left.Room,
		Type:   left.Role,
	})

	if left.SensorTransition < 0 {
		h.ignition.SensorDisconnected(ctx, left.VehicleID)
	}
}

func (h *Handler) rejectFrame(conn *Conn, message string) {
	h.logger.Debug("Dropped malformed frame", "conn", conn.ID(), "reason", message)
	h.hub.ToConnection(conn.ID(), core.EventError, core.ErrorPayload{Message: message})
}

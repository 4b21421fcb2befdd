package socket

import (
	"fleetrelay.io/fleetrelay/internal/pkg/metrics"
	"fleetrelay.io/fleetrelay/internal/relay/core"
	"fleetrelay.io/fleetrelay/pkg/log"
)

var _ core.Dispatcher = (*Hub)(nil)

// Hub fans events out over the connection registry. Dispatch is fire
// and forget: a slow or closed connection drops the frame.
type Hub struct {
	registry *Registry
	logger   log.Logger
}

// NewHub creates a dispatcher bound to the registry.
func NewHub(registry *Registry) *Hub {
	return &Hub{
		registry: registry,
		logger:   log.WithName("hub"),
	}
}

// ToAll sends the event to every live connection.
func (h *Hub) ToAll(event string, data any) {
	if !h.ready(event) {
		return
	}
	h.dispatch(h.registry.All(), event, data)
}

// ToRoom sends the event to every member of the named room.
func (h *Hub) ToRoom(room, event string, data any) {
	if !h.ready(event) {
		return
	}
	h.dispatch(h.registry.Members(room), event, data)
}

// ToConnection sends the event to a single connection.
func (h *Hub) ToConnection(connID, event string, data any) {
	if !h.ready(event) {
		return
	}

	conn, ok := h.registry.Connection(connID)
	if !ok {
		return
	}
	h.dispatch([]*Conn{conn}, event, data)
}

// ready guards against dispatch before the transport exists. A nil hub
// or registry logs and drops, never panics.
func (h *Hub) ready(event string) bool {
	if h == nil || h.registry == nil {
		log.Error(nil, "Dispatch transport not initialized, dropping event", "event", event)
		return false
	}
	return true
}

func (h *Hub) dispatch(targets []*Conn, event string, data any) {
	msg, err := encodeEvent(event, data)
	if err != nil {
		h.logger.Error(err, "Failed to encode outbound event", "event", event)
		return
	}

	for _, conn := range targets {
		if !conn.enqueue(msg) {
			h.logger.Debug("Dropped event for slow or closed connection",
				"event", event, "conn", conn.ID())
		}
	}

	metrics.EventsDispatched.WithLabelValues(event).Inc()
}

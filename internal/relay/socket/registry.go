package socket

import (
	"sync"

	"fleetrelay.io/fleetrelay/internal/pkg/metrics"
	"fleetrelay.io/fleetrelay/internal/relay/core"
)

// membership records the single room a connection currently belongs to.
type membership struct {
	vehicleID string
	role      string
}

func (m membership) room() string {
	return core.Room(m.vehicleID, m.role)
}

// Change describes one completed membership mutation. SensorTransition
// reports a sensor-room occupancy edge: +1 when the first sensor joined,
// -1 when the last sensor left, 0 otherwise. The ignition state machine
// fires only on those edges, so a second sensor for the same vehicle
// neither re-fires ON nor, on leaving, falsely fires OFF.
type Change struct {
	ConnID           string
	VehicleID        string
	Role             string
	Room             string
	SensorTransition int
}

// Registry tracks live connections and their room memberships. Room
// state is in-memory only; a restart rebuilds it from fresh connections.
type Registry struct {
	mu          sync.RWMutex
	conns       map[string]*Conn
	rooms       map[string]map[string]*Conn
	memberships map[string]membership
}

// NewRegistry creates an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{
		conns:       make(map[string]*Conn),
		rooms:       make(map[string]map[string]*Conn),
		memberships: make(map[string]membership),
	}
}

// Add registers a freshly accepted connection. It belongs to no room
// until it joins one.
func (r *Registry) Add(conn *Conn) {
	r.mu.Lock()
	r.conns[conn.ID()] = conn
	r.mu.Unlock()

	metrics.ActiveConnections.Inc()
}

// Join places the connection in the (vehicleID, role) room. A prior
// membership in another room is replaced; the returned left Change is
// non-nil in that case so the caller can emit its side effects.
func (r *Registry) Join(connID, vehicleID, role string) (joined Change, left *Change, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, exists := r.conns[connID]
	if !exists {
		return Change{}, nil, false
	}

	if prior, has := r.memberships[connID]; has {
		if prior.vehicleID == vehicleID && prior.role == role {
			// Re-joining the same room is idempotent.
			return r.changeLocked(connID, prior, 0), nil, true
		}
		l := r.removeLocked(connID, prior)
		left = &l
	}

	m := membership{vehicleID: vehicleID, role: role}
	room := m.room()
	if r.rooms[room] == nil {
		r.rooms[room] = make(map[string]*Conn)
	}

	wasEmpty := len(r.rooms[room]) == 0
	r.rooms[room][connID] = conn
	r.memberships[connID] = m

	transition := 0
	if role == core.RoleSensor && wasEmpty {
		transition = 1
	}

	return r.changeLocked(connID, m, transition), left, true
}

// Leave removes the connection from the (vehicleID, role) room. A leave
// that does not match the connection's current membership is a no-op.
func (r *Registry) Leave(connID, vehicleID, role string) *Change {
	r.mu.Lock()
	defer r.mu.Unlock()

	prior, has := r.memberships[connID]
	if !has || prior.vehicleID != vehicleID || prior.role != role {
		return nil
	}

	left := r.removeLocked(connID, prior)
	return &left
}

// Disconnect removes the connection entirely, applying leave semantics
// for its membership. Disconnecting an unknown connection is a no-op.
func (r *Registry) Disconnect(connID string) *Change {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.conns[connID]; !exists {
		return nil
	}
	delete(r.conns, connID)
	metrics.ActiveConnections.Dec()

	prior, has := r.memberships[connID]
	if !has {
		return nil
	}

	left := r.removeLocked(connID, prior)
	return &left
}

// Members returns a snapshot of the room's connections. Sends happen
// outside the registry lock.
func (r *Registry) Members(room string) []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.rooms[room]
	out := make([]*Conn, 0, len(members))
	for _, conn := range members {
		out = append(out, conn)
	}
	return out
}

// All returns a snapshot of every live connection.
func (r *Registry) All() []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Conn, 0, len(r.conns))
	for _, conn := range r.conns {
		out = append(out, conn)
	}
	return out
}

// Connection looks up a live connection by id.
func (r *Registry) Connection(connID string) (*Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.conns[connID]
	return conn, ok
}

func (r *Registry) removeLocked(connID string, m membership) Change {
	room := m.room()
	delete(r.rooms[room], connID)
	delete(r.memberships, connID)

	transition := 0
	if m.role == core.RoleSensor && len(r.rooms[room]) == 0 {
		transition = -1
	}
	if len(r.rooms[room]) == 0 {
		delete(r.rooms, room)
	}

	return r.changeLocked(connID, m, transition)
}

func (r *Registry) changeLocked(connID string, m membership, transition int) Change {
	return Change{
		ConnID:           connID,
		VehicleID:        m.vehicleID,
		Role:             m.role,
		Room:             m.room(),
		SensorTransition: transition,
	}
}

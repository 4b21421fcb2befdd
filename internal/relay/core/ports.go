package core

// Dispatcher fans events out to connected peers. Every method is fire
// and forget: delivery is best-effort and implementations must never
// block the caller on a slow receiver.
type Dispatcher interface {
	// ToAll sends the event to every live connection.
	ToAll(event string, data any)

	// ToRoom sends the event to every member of the named room.
	ToRoom(room, event string, data any)

	// ToConnection sends the event to a single connection by id.
	ToConnection(connID, event string, data any)
}

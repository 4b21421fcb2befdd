package socket

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetrelay.io/fleetrelay/internal/relay/core"
)

func drainEvents(t *testing.T, c *Conn) []Envelope {
	t.Helper()

	var out []Envelope
	for {
		select {
		case msg := <-c.send:
			var e Envelope
			require.NoError(t, json.Unmarshal(msg, &e))
			out = append(out, e)
		default:
			return out
		}
	}
}

func eventNames(envelopes []Envelope) []string {
	names := make([]string, 0, len(envelopes))
	for _, e := range envelopes {
		names = append(names, e.Event)
	}
	return names
}

func TestToRoomReachesMembersOnly(t *testing.T) {
	r := NewRegistry()
	inRoom := addConn(r, "c1")
	outside := addConn(r, "c2")
	hub := NewHub(r)

	_, _, ok := r.Join("c1", "V1", core.RoleClient)
	require.True(t, ok)
	_, _, ok = r.Join("c2", "V2", core.RoleClient)
	require.True(t, ok)
	drainEvents(t, inRoom)
	drainEvents(t, outside)

	hub.ToRoom("V1-client", core.EventIgnitionUpdated, core.IgnitionPayload{
		VehicleID:    "V1",
		IsIgnitionOn: true,
	})

	got := drainEvents(t, inRoom)
	require.Len(t, got, 1)
	assert.Equal(t, core.EventIgnitionUpdated, got[0].Event)

	var payload core.IgnitionPayload
	require.NoError(t, json.Unmarshal(got[0].Data, &payload))
	assert.Equal(t, "V1", payload.VehicleID)
	assert.True(t, payload.IsIgnitionOn)

	assert.Empty(t, drainEvents(t, outside))
}

func TestToAllReachesEveryConnection(t *testing.T) {
	r := NewRegistry()
	c1 := addConn(r, "c1")
	c2 := addConn(r, "c2")
	hub := NewHub(r)

	hub.ToAll(core.EventError, core.ErrorPayload{Message: "shutting down"})

	assert.Len(t, drainEvents(t, c1), 1)
	assert.Len(t, drainEvents(t, c2), 1)
}

func TestToConnectionUnknownIDIsNoop(t *testing.T) {
	hub := NewHub(NewRegistry())

	assert.NotPanics(t, func() {
		hub.ToConnection("ghost", core.EventError, core.ErrorPayload{Message: "x"})
	})
}

func TestNilTransportIsLoggedNoop(t *testing.T) {
	var hub *Hub

	assert.NotPanics(t, func() {
		hub.ToAll(core.EventError, nil)
		hub.ToRoom("V1-client", core.EventError, nil)
		hub.ToConnection("c1", core.EventError, nil)
	})
}

func TestFullBufferDropsFrame(t *testing.T) {
	r := NewRegistry()
	conn := addConn(r, "c1")
	hub := NewHub(r)

	for i := 0; i < sendBufferSize+10; i++ {
		hub.ToConnection("c1", core.EventError, core.ErrorPayload{Message: "x"})
	}

	// The dispatcher never blocked and the buffer holds at most its cap.
	assert.Len(t, drainEvents(t, conn), sendBufferSize)
}

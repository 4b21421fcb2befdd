// Package bridge ingests telemetry published over MQTT. It feeds the
// same ingestion path as the websocket protocol but carries no
// connection lifecycle, so it never drives the ignition state machine.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"fleetrelay.io/fleetrelay/pkg/log"
	"fleetrelay.io/fleetrelay/pkg/mqtt"
)

// Reporter is the ingestion surface the bridge feeds.
type Reporter interface {
	Report(ctx context.Context, vehicleID string, speedKm float64)
}

// report is the expected MQTT payload.
type report struct {
	VehicleID string  `json:"vehicleId"`
	SpeedKm   float64 `json:"speedKm"`
}

// Bridge subscribes to per-vehicle telemetry topics and forwards the
// payloads into ingestion.
type Bridge struct {
	client    mqtt.Client
	telemetry Reporter
	topicRoot string
	logger    log.Logger
}

// New creates an MQTT ingress bridge. Topics follow
// "{topicRoot}/{vehicleId}/telemetry".
func New(client mqtt.Client, telemetry Reporter, topicRoot string) *Bridge {
	return &Bridge{
		client:    client,
		telemetry: telemetry,
		topicRoot: strings.TrimSuffix(topicRoot, "/"),
		logger:    log.WithName("bridge"),
	}
}

// Run connects to the broker and serves telemetry until ctx is done.
func (b *Bridge) Run(ctx context.Context) error {
	if err := b.client.Start(ctx); err != nil {
		return fmt.Errorf("failed to start mqtt client: %w", err)
	}
	defer b.client.Disconnect(context.Background())

	if err := b.client.AwaitConnection(ctx); err != nil {
		return fmt.Errorf("failed to connect to mqtt broker: %w", err)
	}

	filter := b.topicRoot + "/+/telemetry"
	if err := b.client.Subscribe(ctx, filter, 1, b.handle); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", filter, err)
	}
	b.logger.Info("Telemetry ingress subscribed", "filter", filter)

	<-ctx.Done()
	return nil
}

// handle processes one telemetry message. Malformed payloads are logged
// and dropped; MQTT offers no per-message reply channel either.
func (b *Bridge) handle(ctx context.Context, topic string, payload []byte) {
	topicVehicle := b.vehicleFromTopic(topic)

	var r report
	if err := json.Unmarshal(payload, &r); err != nil {
		b.logger.Warn("Dropped undecodable telemetry message", "topic", topic, "err", err)
		return
	}

	// The topic segment is authoritative. A payload publishing under
	// another vehicle's topic is suspicious and worth surfacing.
	if topicVehicle != "" && r.VehicleID != "" && r.VehicleID != topicVehicle {
		b.logger.Warn("Telemetry payload vehicle id differs from topic, using topic",
			"topic", topic, "payloadVehicle", r.VehicleID)
	}
	vehicleID := topicVehicle
	if vehicleID == "" {
		vehicleID = r.VehicleID
	}

	b.telemetry.Report(ctx, vehicleID, r.SpeedKm)
}

// vehicleFromTopic extracts the vehicle id from
// "{topicRoot}/{vehicleId}/telemetry".
func (b *Bridge) vehicleFromTopic(topic string) string {
	rest, ok := strings.CutPrefix(topic, b.topicRoot+"/")
	if !ok {
		return ""
	}
	vehicleID, ok := strings.CutSuffix(rest, "/telemetry")
	if !ok || strings.Contains(vehicleID, "/") {
		return ""
	}
	return vehicleID
}

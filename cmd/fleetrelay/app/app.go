// Package app builds the fleetrelay command.
package app

import (
	"context"
	"os/signal"
	"syscall"

	"fleetrelay.io/fleetrelay/cmd/fleetrelay/app/options"
	"fleetrelay.io/fleetrelay/internal/relay"
	"fleetrelay.io/fleetrelay/pkg/app"
	"fleetrelay.io/fleetrelay/pkg/log"
)

const description = `fleetrelay ingests periodic telemetry from vehicle-mounted sensors,
derives per-vehicle ignition state from sensor connection lifecycle,
persists the latest readings and fans updates out to subscribed
observers over websockets. It also serves the vehicle and maintenance
REST APIs backed by the same cached data access layer.`

// NewApp creates the fleetrelay application.
func NewApp() *app.App {
	opts := options.NewRelayOptions()

	return app.NewApp("fleetrelay", "Real-time vehicle telemetry relay",
		app.WithDescription(description),
		app.WithOptions(opts),
		app.WithRunFunc(run(opts)),
	)
}

func run(opts *options.RelayOptions) app.RunFunc {
	return func() error {
		log.Init(opts.Log)

		server, err := relay.NewRelayServer(opts.Config())
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return server.Run(ctx)
	}
}

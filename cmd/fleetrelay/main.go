package main

import (
	_ "go.uber.org/automaxprocs"

	"fleetrelay.io/fleetrelay/cmd/fleetrelay/app"
)

func main() {
	app.NewApp().Run()
}

package relay

import (
	"fleetrelay.io/fleetrelay/pkg/options"
)

// Config aggregates everything the relay server needs to run. It is
// assembled by the command layer from the validated option groups.
type Config struct {
	HTTP  *options.HttpOptions
	Mysql *options.MysqlOptions
	Redis *options.RedisOptions
	Mqtt  *options.MqttOptions
	S3    *options.S3Options
}

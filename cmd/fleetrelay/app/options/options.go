// Package options aggregates the flag groups of the fleetrelay command.
package options

import (
	"errors"

	"github.com/spf13/pflag"

	"fleetrelay.io/fleetrelay/internal/relay"
	"fleetrelay.io/fleetrelay/pkg/app"
	"fleetrelay.io/fleetrelay/pkg/log"
	genericoptions "fleetrelay.io/fleetrelay/pkg/options"
)

var _ app.CliOptions = (*RelayOptions)(nil)

// RelayOptions composes every option group the relay server consumes.
type RelayOptions struct {
	Http  *genericoptions.HttpOptions  `json:"http" mapstructure:"http"`
	Mysql *genericoptions.MysqlOptions `json:"mysql" mapstructure:"mysql"`
	Redis *genericoptions.RedisOptions `json:"redis" mapstructure:"redis"`
	Mqtt  *genericoptions.MqttOptions  `json:"mqtt" mapstructure:"mqtt"`
	S3    *genericoptions.S3Options    `json:"s3" mapstructure:"s3"`
	Log   *log.Options                 `json:"log" mapstructure:"log"`
}

// NewRelayOptions creates the default option set.
func NewRelayOptions() *RelayOptions {
	return &RelayOptions{
		Http:  genericoptions.NewHttpOptions(),
		Mysql: genericoptions.NewMysqlOptions(),
		Redis: genericoptions.NewRedisOptions(),
		Mqtt:  genericoptions.NewMqttOptions(),
		S3:    genericoptions.NewS3Options(),
		Log:   log.NewOptions(),
	}
}

// AddFlags binds every option group to the command's flag set.
func (o *RelayOptions) AddFlags(fs *pflag.FlagSet) {
	o.Http.AddFlags(fs)
	o.Mysql.AddFlags(fs)
	o.Redis.AddFlags(fs)
	o.Mqtt.AddFlags(fs)
	o.S3.AddFlags(fs)
	o.Log.AddFlags(fs)
}

// Complete fills in derived option values after parsing.
func (o *RelayOptions) Complete() error {
	return nil
}

// Validate checks all option groups and joins their failures.
func (o *RelayOptions) Validate() error {
	var errs []error
	errs = append(errs, o.Http.Validate()...)
	errs = append(errs, o.Mysql.Validate()...)
	errs = append(errs, o.Redis.Validate()...)
	errs = append(errs, o.Mqtt.Validate()...)
	errs = append(errs, o.S3.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return errors.Join(errs...)
}

// Config assembles the server configuration from the validated options.
func (o *RelayOptions) Config() *relay.Config {
	return &relay.Config{
		HTTP:  o.Http,
		Mysql: o.Mysql,
		Redis: o.Redis,
		Mqtt:  o.Mqtt,
		S3:    o.S3,
	}
}

package options

import (
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*RedisOptions)(nil)

// RedisOptions contains configuration for the cache backend.
type RedisOptions struct {
	Addr     string `json:"addr" mapstructure:"addr"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database int    `json:"database" mapstructure:"database"`

	// Prefix namespaces every cache key written by this deployment.
	Prefix string `json:"prefix" mapstructure:"prefix"`

	// DefaultTTL applies to cache entries that do not override it.
	DefaultTTL time.Duration `json:"default-ttl" mapstructure:"default-ttl"`

	DialTimeout time.Duration `json:"dial-timeout" mapstructure:"dial-timeout"`
}

// NewRedisOptions creates a RedisOptions object with default parameters.
func NewRedisOptions() *RedisOptions {
	return &RedisOptions{
		Addr:        "127.0.0.1:6379",
		Prefix:      "fleetrelay",
		DefaultTTL:  24 * time.Hour,
		DialTimeout: 5 * time.Second,
	}
}

// Validate is used to parse and validate the parameters entered by the user at
// the command line when the program starts.
func (o *RedisOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errs := []error{}

	if err := ValidateAddress(o.Addr); err != nil {
		errs = append(errs, err)
	}

	return errs
}

// AddFlags adds flags for the cache backend to the specified FlagSet.
func (o *RedisOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Addr, "redis.addr", o.Addr, "Redis service host:port.")
	fs.StringVar(&o.Username, "redis.username", o.Username, "Username for Redis authentication.")
	fs.StringVar(&o.Password, "redis.password", o.Password, "Password for Redis authentication.")
	fs.IntVar(&o.Database, "redis.database", o.Database, "Redis logical database index.")
	fs.StringVar(&o.Prefix, "redis.prefix", o.Prefix, "Prefix applied to every cache key.")
	fs.DurationVar(&o.DefaultTTL, "redis.default-ttl", o.DefaultTTL, "Default time-to-live for cache entries.")
	fs.DurationVar(&o.DialTimeout, "redis.dial-timeout", o.DialTimeout, "Timeout for establishing the Redis connection.")
}

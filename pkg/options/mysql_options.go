package options

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*MysqlOptions)(nil)

// MysqlOptions contains configuration for the relational backing store.
type MysqlOptions struct {
	Host     string `json:"host" mapstructure:"host"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`

	MaxIdleConnections    int           `json:"max-idle-connections" mapstructure:"max-idle-connections"`
	MaxOpenConnections    int           `json:"max-open-connections" mapstructure:"max-open-connections"`
	MaxConnectionLifetime time.Duration `json:"max-connection-lifetime" mapstructure:"max-connection-lifetime"`
}

// NewMysqlOptions creates a MysqlOptions object with default parameters.
func NewMysqlOptions() *MysqlOptions {
	return &MysqlOptions{
		Host:                  "127.0.0.1:3306",
		Username:              "fleetrelay",
		Password:              "fleetrelay",
		Database:              "fleetrelay",
		MaxIdleConnections:    10,
		MaxOpenConnections:    100,
		MaxConnectionLifetime: time.Hour,
	}
}

// DSN assembles the MySQL data source name.
func (o *MysqlOptions) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		o.Username, o.Password, o.Host, o.Database)
}

// Validate is used to parse and validate the parameters entered by the user at
// the command line when the program starts.
func (o *MysqlOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errs := []error{}

	if o.Database == "" {
		errs = append(errs, errors.New("mysql database name is required"))
	}
	if err := ValidateAddress(o.Host); err != nil {
		errs = append(errs, err)
	}

	return errs
}

// AddFlags adds flags for the MySQL store to the specified FlagSet.
func (o *MysqlOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Host, "mysql.host", o.Host, "MySQL service host:port.")
	fs.StringVar(&o.Username, "mysql.username", o.Username, "Username for MySQL authentication.")
	fs.StringVar(&o.Password, "mysql.password", o.Password, "Password for MySQL authentication.")
	fs.StringVar(&o.Database, "mysql.database", o.Database, "Database name the relay persists to.")
	fs.IntVar(&o.MaxIdleConnections, "mysql.max-idle-connections", o.MaxIdleConnections, "Maximum idle connections in the pool.")
	fs.IntVar(&o.MaxOpenConnections, "mysql.max-open-connections", o.MaxOpenConnections, "Maximum open connections to the database.")
	fs.DurationVar(&o.MaxConnectionLifetime, "mysql.max-connection-lifetime", o.MaxConnectionLifetime, "Maximum lifetime of a pooled connection.")
}

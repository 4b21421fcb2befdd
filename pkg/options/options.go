package options

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/pflag"
)

// IOptions is implemented by every per-concern option struct so the
// application layer can compose, validate and flag-bind them uniformly.
type IOptions interface {
	// Validate checks the option values entered by the user.
	Validate() []error

	// AddFlags binds the options to the given flag set.
	AddFlags(fs *pflag.FlagSet)
}

// ValidateAddress verifies that addr is a valid "host:port" listen address.
func ValidateAddress(addr string) error {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("%q is not a valid listen address: %w", addr, err)
	}

	if host != "" && net.ParseIP(host) == nil {
		// Allow hostnames; reject only obviously broken values.
		if _, err := net.LookupPort("tcp", portStr); err != nil {
			return fmt.Errorf("%q is not a valid listen address", addr)
		}
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port < 0 || port > 65535 {
		return fmt.Errorf("%q is not a valid port", portStr)
	}

	return nil
}

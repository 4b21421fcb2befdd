package app

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"fleetrelay.io/fleetrelay/pkg/log"
)

// RunFunc is the application's startup callback.
type RunFunc func() error

// CliOptions abstracts the option aggregate a command binds, completes and
// validates before running.
type CliOptions interface {
	// AddFlags binds all option flags to the command's flag set.
	AddFlags(fs *pflag.FlagSet)

	// Complete fills in derived option values after flag/config parsing.
	Complete() error

	// Validate checks the final option values.
	Validate() error
}

// App is a cobra-backed command line application with viper-managed
// configuration (flags > env > config file > defaults).
type App struct {
	name        string
	short       string
	description string
	options     CliOptions
	runFunc     RunFunc

	cmd *cobra.Command
}

// Option configures an App.
type Option func(*App)

// WithDescription sets the long command description.
func WithDescription(desc string) Option {
	return func(a *App) {
		a.description = desc
	}
}

// WithOptions attaches the option aggregate to the command.
func WithOptions(opts CliOptions) Option {
	return func(a *App) {
		a.options = opts
	}
}

// WithRunFunc sets the application startup callback.
func WithRunFunc(run RunFunc) Option {
	return func(a *App) {
		a.runFunc = run
	}
}

// NewApp creates an application with the given name, short description and
// options.
func NewApp(name string, short string, opts ...Option) *App {
	a := &App{
		name:  name,
		short: short,
	}
	for _, o := range opts {
		o(a)
	}
	a.buildCommand()
	return a
}

func (a *App) buildCommand() {
	cmd := &cobra.Command{
		Use:           a.name,
		Short:         a.short,
		Long:          a.description,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd)
		},
	}

	var configFile string
	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to the configuration file.")

	if a.options != nil {
		a.options.AddFlags(cmd.Flags())
	}

	a.cmd = cmd
}

func (a *App) run(cmd *cobra.Command) error {
	if err := a.loadConfig(cmd); err != nil {
		return err
	}

	if a.options != nil {
		if err := a.options.Complete(); err != nil {
			return fmt.Errorf("failed to complete options: %w", err)
		}
		if err := a.options.Validate(); err != nil {
			return err
		}
	}

	if a.runFunc != nil {
		return a.runFunc()
	}

	return nil
}

// loadConfig wires viper: an explicit --config file or well-known search
// paths, FLEETRELAY_* environment variables, then re-applies the merged
// settings onto any flag the user did not set explicitly.
func (a *App) loadConfig(cmd *cobra.Command) error {
	v := viper.New()

	configFile, _ := cmd.PersistentFlags().GetString("config")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(a.name)
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/" + a.name)
	}

	v.SetEnvPrefix(strings.ReplaceAll(strings.ToUpper(a.name), "-", "_"))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
		// No config file anywhere on the search path: flags and env only.
	} else {
		log.Info("Loaded configuration file", "file", v.ConfigFileUsed())
		v.OnConfigChange(func(e fsnotify.Event) {
			// Options are captured at startup; a changed file takes effect
			// on the next restart. Logged so operators notice the drift.
			log.Warn("Configuration file changed on disk, restart to apply", "file", e.Name)
		})
		v.WatchConfig()
	}

	// Propagate merged settings back onto unset flags so the option
	// structs see the final values.
	var flagErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if !f.Changed && v.IsSet(f.Name) {
			if err := f.Value.Set(fmt.Sprintf("%v", v.Get(f.Name))); err != nil && flagErr == nil {
				flagErr = fmt.Errorf("invalid value for %s: %w", f.Name, err)
			}
		}
	})

	return flagErr
}

// Run executes the application command.
func (a *App) Run() {
	if err := a.cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Command exposes the underlying cobra command, mainly for tests.
func (a *App) Command() *cobra.Command {
	return a.cmd
}

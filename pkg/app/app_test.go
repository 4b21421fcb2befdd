package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOptions struct {
	Level     string
	completed bool
	validated bool
}

func (o *fakeOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Level, "log.level", "info", "")
}

func (o *fakeOptions) Complete() error { o.completed = true; return nil }
func (o *fakeOptions) Validate() error { o.validated = true; return nil }

func TestAppRunsWithFlags(t *testing.T) {
	opts := &fakeOptions{}
	ran := false

	a := NewApp("fleetrelay-test", "test app",
		WithOptions(opts),
		WithRunFunc(func() error { ran = true; return nil }),
	)

	a.Command().SetArgs([]string{"--log.level=debug"})
	require.NoError(t, a.Command().Execute())

	assert.True(t, ran)
	assert.True(t, opts.completed)
	assert.True(t, opts.validated)
	assert.Equal(t, "debug", opts.Level)
}

func TestAppReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "relay.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("log.level: warn\n"), 0o600))

	opts := &fakeOptions{}
	a := NewApp("fleetrelay-test", "test app",
		WithOptions(opts),
		WithRunFunc(func() error { return nil }),
	)

	a.Command().SetArgs([]string{"--config=" + cfgPath})
	require.NoError(t, a.Command().Execute())

	assert.Equal(t, "warn", opts.Level)
}

func TestExplicitFlagBeatsConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "relay.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("log.level: warn\n"), 0o600))

	opts := &fakeOptions{}
	a := NewApp("fleetrelay-test", "test app",
		WithOptions(opts),
		WithRunFunc(func() error { return nil }),
	)

	a.Command().SetArgs([]string{"--config=" + cfgPath, "--log.level=error"})
	require.NoError(t, a.Command().Execute())

	assert.Equal(t, "error", opts.Level)
}

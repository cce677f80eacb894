package env

import (
	"errors"
	"flag"
	"testing"
	"time"

	envparse "github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/debugport/pkg/console"
)

func TestDefaultConfig(t *testing.T) {
	conf := NewConfig()
	require.False(t, Default() == conf)
	assert.NotEmpty(t, conf.DeviceID)
	assert.Equal(t, console.DefaultLimits(), conf.ConsoleLimits())
	assert.Equal(t, conf.RxBufferSize, conf.UARTOptions().RxBufferSize)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("DEBUGPORT_LINK", "serial:///dev/ttyACM0?baud=9600")
	t.Setenv("DEBUGPORT_POLL_INTERVAL", "5ms")
	t.Setenv("DEBUGPORT_MAX_INPUT", "80")
	t.Setenv("DEBUGPORT_BANNER", "false")

	conf := NewConfig()
	require.NoError(t, envparse.Parse(conf))
	assert.Equal(t, "serial:///dev/ttyACM0?baud=9600", conf.Link)
	assert.Equal(t, 5*time.Millisecond, conf.PollInterval)
	assert.Equal(t, 80, conf.ConsoleLimits().Input)
	assert.False(t, conf.Banner)
	assert.Equal(t, Default().Prompt, conf.Prompt)
}

func TestFlagsOverride(t *testing.T) {
	conf := NewConfig()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	SetupFlagSet(fs, conf)
	require.NoError(t, fs.Parse([]string{
		"-link", "mqtt://broker:1883/debugport/",
		"-device-id", "bench-1",
		"-max-argument", "8",
	}))
	assert.Equal(t, "mqtt://broker:1883/debugport/", conf.Link)
	assert.Equal(t, "bench-1", conf.DeviceID)
	assert.Equal(t, 8, conf.ConsoleLimits().Argument)
	assert.NotEqual(t, "bench-1", Default().DeviceID)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(*Config)
		valid  bool
	}{
		{"default", func(*Config) {}, true},
		{"no link", func(c *Config) { c.Link = "" }, false},
		{"no device", func(c *Config) { c.DeviceID = "" }, false},
		{"zero interval", func(c *Config) { c.PollInterval = 0 }, false},
		{"zero rx buffer", func(c *Config) { c.RxBufferSize = 0 }, false},
		{"negative timeout", func(c *Config) { c.WriteTimeout = -time.Second }, false},
		{"zero input", func(c *Config) { c.MaxInput = 0 }, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			conf := NewConfig()
			tc.modify(conf)
			err := conf.Validate()
			if tc.valid {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
		})
	}
}

func TestDeviceID(t *testing.T) {
	id := DeviceID()
	assert.NotEmpty(t, id)
	assert.Equal(t, id, DeviceID())
}

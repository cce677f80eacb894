package env

import (
	"errors"
	"flag"
	"fmt"
	"time"

	envparse "github.com/caarlos0/env/v11"

	"github.com/robotalks/debugport/pkg/console"
	"github.com/robotalks/debugport/pkg/uart"
)

// ErrInvalidConfig indicates a configuration value is out of range.
var ErrInvalidConfig = errors.New("invalid config")

// Config provides common options to set up a debug port.
type Config struct {
	// Link specifies the URL of the link, e.g.
	// serial:///dev/ttyUSB0?baud=115200 or mqtt://host:1883/debugport/
	Link     string `env:"DEBUGPORT_LINK"`
	DeviceID string `env:"DEBUGPORT_DEVICE_ID"`
	Prompt   string `env:"DEBUGPORT_PROMPT"`
	Banner   bool   `env:"DEBUGPORT_BANNER"`

	PollInterval time.Duration `env:"DEBUGPORT_POLL_INTERVAL"`
	RxBufferSize int           `env:"DEBUGPORT_RX_BUFFER_SIZE"`
	TxBufferSize int           `env:"DEBUGPORT_TX_BUFFER_SIZE"`
	WriteTimeout time.Duration `env:"DEBUGPORT_WRITE_TIMEOUT"`
	RetryDelay   time.Duration `env:"DEBUGPORT_RETRY_DELAY"`

	MaxInput    int `env:"DEBUGPORT_MAX_INPUT"`
	MaxArgument int `env:"DEBUGPORT_MAX_ARGUMENT"`
}

var (
	defaultConfig = Config{
		Link:         "stdio:",
		Prompt:       console.DefaultPrompt,
		Banner:       true,
		PollInterval: 20 * time.Millisecond,
		RxBufferSize: uart.DefaultRxBufferSize,
		TxBufferSize: uart.DefaultTxBufferSize,
		WriteTimeout: uart.DefaultWriteTimeout,
		RetryDelay:   uart.DefaultRetryDelay,
		MaxInput:     console.DefaultLimits().Input,
		MaxArgument:  console.DefaultLimits().Argument,
	}
	envErr error
)

func init() {
	envErr = envparse.Parse(&defaultConfig)
	if defaultConfig.DeviceID == "" {
		defaultConfig.DeviceID = DeviceID()
	}
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	SetupFlagSet(flag.CommandLine, &defaultConfig)
}

// SetupFlagSet binds the fields of conf to flags in fs.
func SetupFlagSet(fs *flag.FlagSet, conf *Config) {
	fs.StringVar(&conf.Link, "link", conf.Link, "Link URL: serial://, mqtt://, ws://, wss:// or stdio:.")
	fs.StringVar(&conf.DeviceID, "device-id", conf.DeviceID, "Device ID used in MQTT topics.")
	fs.StringVar(&conf.Prompt, "prompt", conf.Prompt, "Console prompt.")
	fs.BoolVar(&conf.Banner, "banner", conf.Banner, "Print banner on start.")
	fs.DurationVar(&conf.PollInterval, "poll-interval", conf.PollInterval, "Console poll interval.")
	fs.IntVar(&conf.RxBufferSize, "rx-buffer", conf.RxBufferSize, "Receive ring size in bytes.")
	fs.IntVar(&conf.TxBufferSize, "tx-buffer", conf.TxBufferSize, "Transmit buffer size in bytes.")
	fs.DurationVar(&conf.WriteTimeout, "write-timeout", conf.WriteTimeout, "Max wait for a transmit to complete.")
	fs.DurationVar(&conf.RetryDelay, "retry-delay", conf.RetryDelay, "Pause after a link error.")
	fs.IntVar(&conf.MaxInput, "max-input", conf.MaxInput, "Max length of an input line.")
	fs.IntVar(&conf.MaxArgument, "max-argument", conf.MaxArgument, "Max length of a command argument.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Validate checks the config, including errors parsing the environment.
func (c *Config) Validate() error {
	if envErr != nil {
		return fmt.Errorf("%w: environment: %v", ErrInvalidConfig, envErr)
	}
	switch {
	case c.Link == "":
		return fmt.Errorf("%w: link must be specified", ErrInvalidConfig)
	case c.DeviceID == "":
		return fmt.Errorf("%w: device id must be specified", ErrInvalidConfig)
	case c.PollInterval <= 0:
		return fmt.Errorf("%w: poll interval %v", ErrInvalidConfig, c.PollInterval)
	case c.RxBufferSize <= 0 || c.TxBufferSize <= 0:
		return fmt.Errorf("%w: buffer size rx=%d tx=%d", ErrInvalidConfig, c.RxBufferSize, c.TxBufferSize)
	case c.WriteTimeout < 0 || c.RetryDelay < 0:
		return fmt.Errorf("%w: negative timeout", ErrInvalidConfig)
	case c.MaxInput <= 0 || c.MaxArgument <= 0:
		return fmt.Errorf("%w: console limits input=%d argument=%d", ErrInvalidConfig, c.MaxInput, c.MaxArgument)
	}
	return nil
}

// ConsoleLimits returns the console limits.
func (c *Config) ConsoleLimits() console.Limits {
	limits := console.DefaultLimits()
	limits.Input, limits.Argument = c.MaxInput, c.MaxArgument
	return limits
}

// UARTOptions returns the transport options.
func (c *Config) UARTOptions() uart.Options {
	return uart.Options{
		RxBufferSize: c.RxBufferSize,
		TxBufferSize: c.TxBufferSize,
		WriteTimeout: c.WriteTimeout,
	}
}

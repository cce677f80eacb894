// Package serial opens serial ports as links.
package serial

import (
	"fmt"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/tarm/serial"
)

// Defaults of URL query parameters.
const (
	DefaultBaud        = 115200
	DefaultReadTimeout = 20 * time.Millisecond
)

// Port is a serial port link.
// A read timing out returns (0, nil) instead of io.EOF.
type Port struct {
	port *serial.Port
	name string
}

// ConfigFromURL creates the port config from
// serial:///dev/ttyUSB0?baud=115200&timeout=20ms or serial://COM3.
func ConfigFromURL(u *url.URL) (*serial.Config, error) {
	name := u.Host + u.Path
	if u.Opaque != "" {
		name = u.Opaque
	}
	if name == "" {
		return nil, fmt.Errorf("missing serial device")
	}
	conf := &serial.Config{Name: name, Baud: DefaultBaud, ReadTimeout: DefaultReadTimeout}
	query := u.Query()
	if val := query.Get("baud"); val != "" {
		baud, err := strconv.Atoi(val)
		if err != nil || baud <= 0 {
			return nil, fmt.Errorf("invalid baud %q", val)
		}
		conf.Baud = baud
	}
	if val := query.Get("timeout"); val != "" {
		timeout, err := time.ParseDuration(val)
		if err != nil || timeout < 0 {
			return nil, fmt.Errorf("invalid timeout %q", val)
		}
		conf.ReadTimeout = timeout
	}
	return conf, nil
}

// Open opens the serial port described by u.
func Open(u *url.URL) (*Port, error) {
	conf, err := ConfigFromURL(u)
	if err != nil {
		return nil, err
	}
	port, err := serial.OpenPort(conf)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", conf.Name, err)
	}
	return &Port{port: port, name: conf.Name}, nil
}

// Name returns the device name.
func (p *Port) Name() string {
	return p.name
}

// Read implements io.Reader.
func (p *Port) Read(b []byte) (int, error) {
	n, err := p.port.Read(b)
	if err == io.EOF {
		err = nil
	}
	return n, err
}

// Write implements io.Writer.
func (p *Port) Write(b []byte) (int, error) {
	return p.port.Write(b)
}

// Close implements io.Closer.
func (p *Port) Close() error {
	return p.port.Close()
}

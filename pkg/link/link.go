// Package link opens the full-duplex byte stream a debug port runs over.
package link

import (
	"io"
	"net/url"
	"strings"

	"github.com/robotalks/debugport/pkg/link/mqtt"
	"github.com/robotalks/debugport/pkg/link/serial"
	"github.com/robotalks/debugport/pkg/link/websocket"
	"github.com/robotalks/debugport/pkg/uart"
)

// Option customizes a link opened by Open.
type Option func(*options)

type options struct {
	onInterrupt func()
}

// WithInterrupt sets the function called on Ctrl-C from a stdio link.
func WithInterrupt(fn func()) Option {
	return func(o *options) { o.onInterrupt = fn }
}

// Open opens the link specified by rawURL:
//
//	serial:///dev/ttyUSB0?baud=115200&timeout=20ms
//	mqtt://host:1883/prefix/device?role=device|operator
//	ws://host/path, wss://host/path
//	stdio:
func Open(rawURL string, opts ...Option) (io.ReadWriteCloser, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &LinkError{URL: rawURL, Err: err}
	}
	var rw io.ReadWriteCloser
	switch u.Scheme {
	case "serial":
		rw, err = serial.Open(u)
	case "mqtt", "mqtts":
		rw, err = mqtt.Dial(u)
	case "ws", "wss":
		rw, err = websocket.Dial(u)
	case "stdio":
		var s *Stdio
		if s, err = OpenStdio(); err == nil {
			s.OnInterrupt = o.onInterrupt
			rw = s
		}
	default:
		err = ErrUnknownScheme
	}
	if err != nil {
		return nil, &LinkError{URL: rawURL, Err: err}
	}
	return rw, nil
}

// Opener returns an Opener which opens rawURL every time.
func Opener(rawURL string, opts ...Option) uart.Opener {
	return func() (io.ReadWriteCloser, error) {
		return Open(rawURL, opts...)
	}
}

// WithDevice appends device to an MQTT link URL whose path ends with "/".
// Other URLs are returned unchanged.
func WithDevice(rawURL, device string) string {
	u, err := url.Parse(rawURL)
	if err != nil || device == "" {
		return rawURL
	}
	if u.Scheme != "mqtt" && u.Scheme != "mqtts" {
		return rawURL
	}
	if u.Path == "" {
		u.Path = "/"
	}
	if !strings.HasSuffix(u.Path, "/") {
		return rawURL
	}
	u.Path += device
	return u.String()
}

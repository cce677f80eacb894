// Package websocket carries the console byte stream over websocket
// binary messages.
package websocket

import (
	"net/url"

	"golang.org/x/net/websocket"
)

// Conn is a byte stream over a websocket connection.
// Each Write is sent as one message.
type Conn struct {
	ws      *websocket.Conn
	pending []byte
}

// New wraps websocket.Conn.
func New(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws}
}

// Dial connects to a ws:// or wss:// URL.
// The origin defaults to the http(s) URL of the same host.
func Dial(u *url.URL) (*Conn, error) {
	origin := url.URL{Scheme: "http", Host: u.Host}
	if u.Scheme == "wss" {
		origin.Scheme = "https"
	}
	if val := u.Query().Get("origin"); val != "" {
		parsed, err := url.Parse(val)
		if err != nil {
			return nil, err
		}
		origin = *parsed
	}
	conf, err := websocket.NewConfig(u.String(), origin.String())
	if err != nil {
		return nil, err
	}
	ws, err := websocket.DialConfig(conf)
	if err != nil {
		return nil, err
	}
	return New(ws), nil
}

// Handler creates a websocket.Handler serving each connection as a Conn.
func Handler(serve func(*Conn)) websocket.Handler {
	return func(ws *websocket.Conn) {
		serve(New(ws))
	}
}

// Read implements io.Reader.
func (c *Conn) Read(p []byte) (int, error) {
	for len(c.pending) == 0 {
		var msg []byte
		if err := websocket.Message.Receive(c.ws, &msg); err != nil {
			return 0, err
		}
		c.pending = msg
	}
	n := copy(p, c.pending)
	c.pending = c.pending[n:]
	return n, nil
}

// Write implements io.Writer.
func (c *Conn) Write(p []byte) (int, error) {
	if err := websocket.Message.Send(c.ws, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close implements io.Closer.
func (c *Conn) Close() error {
	return c.ws.Close()
}

package websocket

import (
	"io"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialAndEcho(t *testing.T) {
	server := httptest.NewServer(Handler(func(c *Conn) {
		io.Copy(c, c)
	}))
	defer server.Close()

	u, err := url.Parse(strings.Replace(server.URL, "http://", "ws://", 1) + "/console")
	require.NoError(t, err)
	conn, err := Dial(u)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("LED\r"))
	require.NoError(t, err)
	_, err = conn.Write([]byte("Toggle TP9\r"))
	require.NoError(t, err)

	// reads smaller than a message keep the remainder.
	buf := make([]byte, 3)
	var got []byte
	for len(got) < 15 {
		n, err := conn.Read(buf)
		require.NoError(t, err)
		got = append(got, buf[:n]...)
	}
	assert.Equal(t, "LED\rToggle TP9\r", string(got))
}

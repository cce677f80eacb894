package link

import (
	"bytes"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenUnknownScheme(t *testing.T) {
	_, err := Open("carrier-pigeon://coop/1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownScheme))
	var linkErr *LinkError
	require.True(t, errors.As(err, &linkErr))
	assert.Equal(t, "carrier-pigeon://coop/1", linkErr.URL)

	_, err = Open("mqtt://broker:1883/debugport/")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnknownScheme))

	_, err = Open("serial:")
	assert.Error(t, err)
}

func TestOpenerDefersOpen(t *testing.T) {
	open := Opener("nope://")
	_, err := open()
	assert.True(t, errors.Is(err, ErrUnknownScheme))
}

func TestWithDevice(t *testing.T) {
	testCases := []struct {
		url, expect string
	}{
		{"mqtt://broker:1883/debugport/", "mqtt://broker:1883/debugport/bench-1"},
		{"mqtt://broker:1883", "mqtt://broker:1883/bench-1"},
		{"mqtt://broker:1883/debugport/dev-9?role=operator", "mqtt://broker:1883/debugport/dev-9?role=operator"},
		{"serial:///dev/ttyUSB0", "serial:///dev/ttyUSB0"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expect, WithDevice(tc.url, "bench-1"), tc.url)
	}
}

func TestStdioTranslate(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	var out bytes.Buffer
	interrupted := 0
	s := &Stdio{In: r, Out: &out, OnInterrupt: func() { interrupted++ }}

	_, err = w.Write([]byte{'L', 'E', 'X', 0x7f, Interrupt, 'D', '\r'})
	require.NoError(t, err)
	w.Close()

	got, err := io.ReadAll(s)
	require.NoError(t, err)
	assert.Equal(t, "LEX\bD\r", string(got))
	assert.Equal(t, 1, interrupted)

	_, err = s.Write([]byte("ok"))
	require.NoError(t, err)
	assert.Equal(t, "ok", out.String())
	assert.NoError(t, s.Close())
}

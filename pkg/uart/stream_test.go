package uart

import (
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receiveUntil(t *testing.T, u *UART, size int) string {
	buf := make([]byte, size)
	var got []byte
	deadline := time.Now().Add(time.Second)
	for len(got) < size && time.Now().Before(deadline) {
		if n := u.Receive(buf); n > 0 {
			got = append(got, buf[:n]...)
			continue
		}
		time.Sleep(time.Millisecond)
	}
	return string(got)
}

func TestStreamEngine(t *testing.T) {
	local, remote := net.Pipe()
	defer remote.Close()
	engine := NewStreamEngine(func() (io.ReadWriteCloser, error) { return local, nil })
	u, err := New(engine, Options{RxBufferSize: 16})
	require.NoError(t, err)
	require.NoError(t, u.Enable())
	defer u.Disable()

	_, err = remote.Write([]byte("Toggle TP9\r"))
	require.NoError(t, err)
	assert.Equal(t, "Toggle TP9\r", receiveUntil(t, u, 11))

	// wraps the 16-byte ring.
	_, err = remote.Write([]byte("MSC Off\r"))
	require.NoError(t, err)
	assert.Equal(t, "MSC Off\r", receiveUntil(t, u, 8))

	go u.Write([]byte("TP9 was toggled to high \r\n"))
	out := make([]byte, 26)
	_, err = io.ReadFull(remote, out)
	require.NoError(t, err)
	assert.Equal(t, "TP9 was toggled to high \r\n", string(out))
}

func TestStreamEngineOpenFailure(t *testing.T) {
	openErr := errors.New("no such port")
	engine := NewStreamEngine(func() (io.ReadWriteCloser, error) { return nil, openErr })
	u, err := New(engine, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, openErr, u.Enable())
	assert.False(t, u.Enabled())

	assert.Equal(t, ErrNoOpener, (&StreamEngine{}).Init(u))
	assert.Equal(t, ErrNotInitialized, engine.StartReceive(make([]byte, 4)))
	assert.Equal(t, ErrNotInitialized, engine.StartTransmit([]byte("x")))
}

// flakyLink fails its first read.
type flakyLink struct {
	io.ReadWriter
	once   sync.Once
	closed chan struct{}
}

func (l *flakyLink) Read(p []byte) (int, error) {
	var err error
	l.once.Do(func() { err = errors.New("framing error") })
	if err != nil {
		return 0, err
	}
	return l.ReadWriter.Read(p)
}

func (l *flakyLink) Close() error {
	close(l.closed)
	return l.ReadWriter.(io.Closer).Close()
}

type recordingEvents struct {
	*UART
	lock sync.Mutex
	errs []error
}

func (e *recordingEvents) TransferError(err error) {
	e.lock.Lock()
	e.errs = append(e.errs, err)
	e.lock.Unlock()
	e.UART.TransferError(err)
}

func (e *recordingEvents) count() int {
	e.lock.Lock()
	defer e.lock.Unlock()
	return len(e.errs)
}

func TestStreamEngineRecovers(t *testing.T) {
	local, remote := net.Pipe()
	defer remote.Close()
	link := &flakyLink{ReadWriter: local, closed: make(chan struct{})}
	engine := NewStreamEngine(func() (io.ReadWriteCloser, error) { return link, nil })
	engine.RetryDelay = time.Millisecond
	u, err := New(engine, Options{RxBufferSize: 16})
	require.NoError(t, err)

	// route notifications through a recorder while keeping UART semantics.
	ev := &recordingEvents{UART: u}
	u.enabled.Store(true)
	require.NoError(t, engine.Init(ev))
	require.NoError(t, engine.StartReceive(u.rx))

	_, err = remote.Write([]byte("LED\r"))
	require.NoError(t, err)
	assert.Equal(t, "LED\r", receiveUntil(t, u, 4))
	assert.Equal(t, 1, ev.count())
	assert.Equal(t, RxBusy, engine.RxState())

	require.NoError(t, engine.DeInit())
	select {
	case <-link.closed:
	case <-time.After(time.Second):
		t.Fatal("link not closed")
	}
}

func TestStreamEngineRetryBackoff(t *testing.T) {
	engine := NewStreamEngine(nil)
	engine.RetryDelay = 100 * time.Millisecond
	engine.MaxRetryDelay = time.Second

	var delays []time.Duration
	delay := time.Duration(0)
	for i := 0; i < 6; i++ {
		delay = engine.nextRetryDelay(delay)
		delays = append(delays, delay)
	}
	assert.Equal(t, []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
		time.Second,
		time.Second,
	}, delays)
	assert.Equal(t, engine.RetryDelay, engine.nextRetryDelay(0))
}

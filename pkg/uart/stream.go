package uart

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
)

// Opener opens the link used by StreamEngine.
type Opener func() (io.ReadWriteCloser, error)

// Pauses of StreamEngine after read errors.
const (
	DefaultRetryDelay    = 100 * time.Millisecond
	DefaultMaxRetryDelay = 5 * time.Second
)

// StreamEngine is an Engine copying between an io.ReadWriteCloser and
// memory. A pump goroutine reads the link into the receive ring, and
// each transmit is written by its own goroutine.
//
// A failed read is reported with TransferError and retried on the same
// link after RetryDelay, doubling up to MaxRetryDelay while reads keep
// failing. The link is never reopened, so a link which is gone for good
// (unplugged serial port, closed stdin) keeps reporting errors at
// MaxRetryDelay until DeInit.
type StreamEngine struct {
	Open          Opener
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration

	lock      sync.Mutex
	events    Events
	link      io.ReadWriteCloser
	done      chan struct{}
	state     RxState
	ring      []byte
	head      int
	remaining atomic.Int64
}

// NewStreamEngine creates a StreamEngine.
func NewStreamEngine(open Opener) *StreamEngine {
	return &StreamEngine{
		Open:          open,
		RetryDelay:    DefaultRetryDelay,
		MaxRetryDelay: DefaultMaxRetryDelay,
	}
}

// Init implements Engine.
func (e *StreamEngine) Init(ev Events) error {
	if e.Open == nil {
		return ErrNoOpener
	}
	link, err := e.Open()
	if err != nil {
		return err
	}
	e.lock.Lock()
	defer e.lock.Unlock()
	if e.link != nil {
		e.link.Close()
		close(e.done)
	}
	e.events, e.link, e.done = ev, link, make(chan struct{})
	e.state = RxReady
	go e.pump(link, ev, e.done)
	return nil
}

// DeInit implements Engine.
func (e *StreamEngine) DeInit() error {
	e.lock.Lock()
	link, done := e.link, e.done
	e.link, e.done, e.events = nil, nil, nil
	e.state, e.ring = RxReset, nil
	e.lock.Unlock()
	if link == nil {
		return nil
	}
	close(done)
	return link.Close()
}

// StartReceive implements Engine.
func (e *StreamEngine) StartReceive(buf []byte) error {
	e.lock.Lock()
	defer e.lock.Unlock()
	if e.link == nil {
		return ErrNotInitialized
	}
	e.ring, e.head = buf, 0
	e.remaining.Store(int64(len(buf)))
	e.state = RxBusy
	return nil
}

// StopReceive implements Engine.
func (e *StreamEngine) StopReceive() error {
	e.lock.Lock()
	defer e.lock.Unlock()
	if e.link == nil {
		return ErrNotInitialized
	}
	e.ring, e.head = nil, 0
	e.state = RxReady
	return nil
}

// Remaining implements Engine.
func (e *StreamEngine) Remaining() int {
	return int(e.remaining.Load())
}

// RxState implements Engine.
func (e *StreamEngine) RxState() RxState {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.state
}

// StartTransmit implements Engine.
func (e *StreamEngine) StartTransmit(p []byte) error {
	e.lock.Lock()
	link, ev := e.link, e.events
	e.lock.Unlock()
	if link == nil {
		return ErrNotInitialized
	}
	data := append([]byte(nil), p...)
	go func() {
		if _, err := link.Write(data); err != nil {
			ev.TransferError(fmt.Errorf("transmit: %w", err))
			return
		}
		glog.V(2).Infof("uart: sent %q", data)
		ev.TxComplete()
	}()
	return nil
}

func (e *StreamEngine) pump(link io.Reader, ev Events, done <-chan struct{}) {
	buf := make([]byte, 64)
	var delay time.Duration
	for {
		n, err := link.Read(buf)
		select {
		case <-done:
			return
		default:
		}
		if n > 0 {
			e.fill(buf[:n])
		}
		if err == nil {
			delay = 0
			continue
		}
		e.lock.Lock()
		e.state = RxError
		e.lock.Unlock()
		ev.TransferError(fmt.Errorf("receive: %w", err))
		delay = e.nextRetryDelay(delay)
		select {
		case <-done:
			return
		case <-time.After(delay):
		}
	}
}

// nextRetryDelay returns the pause after a read error which followed
// a pause of delay, 0 if the previous read succeeded.
func (e *StreamEngine) nextRetryDelay(delay time.Duration) time.Duration {
	if delay <= 0 {
		return e.RetryDelay
	}
	delay *= 2
	if e.MaxRetryDelay > 0 && delay > e.MaxRetryDelay {
		delay = e.MaxRetryDelay
	}
	return delay
}

// fill writes p into the ring circularly.
// Unread bytes are overwritten when the consumer falls a lap behind.
func (e *StreamEngine) fill(p []byte) {
	e.lock.Lock()
	defer e.lock.Unlock()
	if e.state != RxBusy || len(e.ring) == 0 {
		glog.V(2).Infof("uart: dropped %d bytes in state %s", len(p), e.state)
		return
	}
	for _, b := range p {
		e.ring[e.head] = b
		e.head = (e.head + 1) % len(e.ring)
	}
	e.remaining.Store(int64(len(e.ring) - e.head))
	glog.V(2).Infof("uart: received %q", p)
}

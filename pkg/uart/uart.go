package uart

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/debugport/pkg/framework"
)

// RxState is the state of reception reported by Engine.
type RxState int

// Reception states.
const (
	RxReset RxState = iota
	RxReady
	RxBusy
	RxError
)

// String implements fmt.Stringer.
func (s RxState) String() string {
	switch s {
	case RxReset:
		return "reset"
	case RxReady:
		return "ready"
	case RxBusy:
		return "busy"
	case RxError:
		return "error"
	}
	return "unknown"
}

// Events receives notifications from Engine.
// They may be called from any goroutine.
type Events interface {
	TxComplete()
	TransferError(err error)
}

// Engine copies bytes between the link and memory in the background.
type Engine interface {
	// Init prepares the engine. ev receives notifications until DeInit.
	Init(ev Events) error
	DeInit() error
	// StartReceive fills buf circularly until StopReceive.
	StartReceive(buf []byte) error
	StopReceive() error
	// Remaining is the number of bytes left in buf before the write
	// position wraps around.
	Remaining() int
	RxState() RxState
	// StartTransmit sends p asynchronously and reports with TxComplete
	// or TransferError. p must not be modified before that.
	StartTransmit(p []byte) error
}

// Options configures a UART.
type Options struct {
	RxBufferSize int
	TxBufferSize int
	// WriteTimeout bounds how long Write waits for a transmit to complete.
	// Zero waits forever.
	WriteTimeout time.Duration
}

// Default sizes.
const (
	DefaultRxBufferSize = 256
	DefaultTxBufferSize = 256
	DefaultWriteTimeout = time.Second
)

// DefaultOptions returns the default options.
func DefaultOptions() Options {
	return Options{
		RxBufferSize: DefaultRxBufferSize,
		TxBufferSize: DefaultTxBufferSize,
		WriteTimeout: DefaultWriteTimeout,
	}
}

// UART owns the receive ring and the transmit staging buffer.
// Receive and Transmit are called from a single consumer goroutine while
// Events are delivered from the engine.
type UART struct {
	engine Engine
	opts   Options

	rx []byte
	tx []byte
	// cursor holds the reception epoch in the high word and the tail
	// in the low word. Every restart of reception bumps the epoch.
	cursor atomic.Uint64
	busy   atomic.Bool

	enabled atomic.Bool
	lock    sync.Mutex
	txDone  chan struct{}
}

// New creates a UART. It is disabled until Enable.
func New(engine Engine, opts Options) (*UART, error) {
	if engine == nil {
		return nil, ErrNilEngine
	}
	defaults := DefaultOptions()
	if opts.RxBufferSize <= 0 {
		opts.RxBufferSize = defaults.RxBufferSize
	}
	if opts.TxBufferSize <= 0 {
		opts.TxBufferSize = defaults.TxBufferSize
	}
	if opts.WriteTimeout < 0 {
		opts.WriteTimeout = defaults.WriteTimeout
	}
	return &UART{
		engine: engine,
		opts:   opts,
		rx:     make([]byte, opts.RxBufferSize),
		tx:     make([]byte, opts.TxBufferSize),
		txDone: make(chan struct{}, 1),
	}, nil
}

// Options returns the options in effect.
func (u *UART) Options() Options {
	return u.opts
}

// Enabled indicates the UART is enabled.
func (u *UART) Enabled() bool {
	return u.enabled.Load()
}

// Enable initializes the engine and starts reception.
func (u *UART) Enable() error {
	u.lock.Lock()
	defer u.lock.Unlock()
	if u.enabled.Load() {
		return nil
	}
	if err := u.engine.Init(u); err != nil {
		return err
	}
	u.restartCursor()
	u.busy.Store(false)
	if err := u.engine.StartReceive(u.rx); err != nil {
		u.engine.DeInit()
		return err
	}
	u.enabled.Store(true)
	glog.V(2).Info("uart: enabled")
	return nil
}

// Disable stops reception and tears down the engine.
func (u *UART) Disable() error {
	u.lock.Lock()
	defer u.lock.Unlock()
	if !u.enabled.Load() {
		return nil
	}
	u.enabled.Store(false)
	errs := &fx.AggregatedError{}
	errs.Add(u.engine.StopReceive(), u.engine.DeInit())
	u.busy.Store(false)
	u.signalTxDone()
	glog.V(2).Info("uart: disabled")
	return errs.Aggregate()
}

// Receive copies newly received bytes into dst and returns the count.
// It never blocks. Bytes copied across a restart of reception are
// dropped and 0 is returned.
func (u *UART) Receive(dst []byte) int {
	cursor := u.cursor.Load()
	if !u.enabled.Load() || u.engine.RxState() != RxBusy {
		return 0
	}
	size := len(u.rx)
	head := (size - u.engine.Remaining()) % size
	if head < 0 {
		head += size
	}
	epoch, tail := uint32(cursor>>32), int(uint32(cursor))
	n := (head - tail + size) % size
	if n > len(dst) {
		n = len(dst)
	}
	if n == 0 {
		return 0
	}
	if c := copy(dst[:n], u.rx[tail:]); c < n {
		copy(dst[c:n], u.rx)
	}
	if !u.cursor.CompareAndSwap(cursor, packCursor(epoch, uint32((tail+n)%size))) {
		return 0
	}
	return n
}

func packCursor(epoch, tail uint32) uint64 {
	return uint64(epoch)<<32 | uint64(tail)
}

// restartCursor rewinds the tail to 0 in a new epoch.
func (u *UART) restartCursor() {
	for {
		cursor := u.cursor.Load()
		if u.cursor.CompareAndSwap(cursor, packCursor(uint32(cursor>>32)+1, 0)) {
			return
		}
	}
}

func (u *UART) tail() int {
	return int(uint32(u.cursor.Load()))
}

// Transmit starts sending p and returns the number of bytes accepted,
// up to the transmit buffer size. It returns 0 while the previous
// transmit is in flight.
func (u *UART) Transmit(p []byte) int {
	n, _ := u.transmit(p)
	return n
}

// transmit is Transmit reporting why nothing was accepted. A nil error
// with 0 bytes means the previous transmit is still in flight.
func (u *UART) transmit(p []byte) (int, error) {
	if !u.enabled.Load() {
		return 0, ErrDisabled
	}
	if len(p) == 0 || !u.busy.CompareAndSwap(false, true) {
		return 0, nil
	}
	n := copy(u.tx, p)
	if err := u.engine.StartTransmit(u.tx[:n]); err != nil {
		glog.Warningf("uart: transmit rejected: %v", err)
		u.busy.Store(false)
		return 0, err
	}
	return n, nil
}

// TransmitString is Transmit for a string.
func (u *UART) TransmitString(s string) int {
	return u.Transmit([]byte(s))
}

// Busy indicates a transmit is in flight.
func (u *UART) Busy() bool {
	return u.busy.Load()
}

// TxComplete implements Events.
func (u *UART) TxComplete() {
	u.busy.Store(false)
	u.signalTxDone()
}

// TransferError implements Events.
func (u *UART) TransferError(err error) {
	glog.Warningf("uart: transfer error: %v, restart reception", err)
	u.restartCursor()
	u.busy.Store(false)
	u.signalTxDone()
	if !u.enabled.Load() {
		return
	}
	if err := u.engine.StopReceive(); err != nil {
		glog.Errorf("uart: stop reception: %v", err)
	}
	if err := u.engine.StartReceive(u.rx); err != nil {
		glog.Errorf("uart: restart reception: %v", err)
	}
	// a Receive which read the cursor while the engine restarted
	// must not commit.
	u.restartCursor()
}

// Write implements io.Writer. It transmits p in chunks and waits for
// completion between chunks. An engine rejecting a chunk fails Write
// at once.
func (u *UART) Write(p []byte) (int, error) {
	var timeout <-chan time.Time
	if u.opts.WriteTimeout > 0 {
		timer := time.NewTimer(u.opts.WriteTimeout)
		defer timer.Stop()
		timeout = timer.C
	}
	written := 0
	for written < len(p) {
		n, err := u.transmit(p[written:])
		if err != nil {
			return written, err
		}
		if n > 0 {
			written += n
			continue
		}
		select {
		case <-u.txDone:
		case <-timeout:
			return written, ErrWriteTimeout
		}
	}
	return written, nil
}

func (u *UART) signalTxDone() {
	select {
	case u.txDone <- struct{}{}:
	default:
	}
}

package uart

import "errors"

var (
	// ErrNilEngine indicates New is called without an Engine.
	ErrNilEngine = errors.New("nil engine")
	// ErrDisabled indicates the UART is not enabled.
	ErrDisabled = errors.New("uart disabled")
	// ErrWriteTimeout indicates Write gave up waiting for transmit completion.
	ErrWriteTimeout = errors.New("write timeout")
	// ErrNotInitialized indicates the engine is used before Init.
	ErrNotInitialized = errors.New("engine not initialized")
	// ErrNoOpener indicates StreamEngine has no Opener.
	ErrNoOpener = errors.New("no opener")
)

package link

import (
	"errors"
	"fmt"
)

// ErrUnknownScheme indicates the link URL scheme is not supported.
var ErrUnknownScheme = errors.New("unknown link scheme")

// LinkError reports a link which fails to open.
type LinkError struct {
	URL string
	Err error
}

// Error implements error.
func (e *LinkError) Error() string {
	return fmt.Sprintf("link %q: %v", e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *LinkError) Unwrap() error {
	return e.Err
}

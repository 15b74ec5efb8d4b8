package hwcodec

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure is returned at its call site and can be
// matched with errors.Is.
var (
	// ErrUnsupportedFormat means the pixel format, dimensions or alignment
	// cannot be represented. Not retryable.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrBackendUnavailable means a backend could not be opened for a context.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrTransientFeed means one Feed or Flush failed but the session is
	// still usable.
	ErrTransientFeed = errors.New("transient feed failure")

	// ErrSessionTerminated means the backend reported an unrecoverable fault
	// and the session has been closed.
	ErrSessionTerminated = errors.New("session terminated")

	// ErrSessionClosed means an operation was attempted after the session
	// was drained or closed.
	ErrSessionClosed = errors.New("session closed")

	// ErrNotSupported means the backend does not implement an optional
	// capability such as dynamic bitrate.
	ErrNotSupported = errors.New("not supported by backend")
)

// BackendError is returned by backend adapters. Fatal marks the handle as
// unrecoverable; the session closes it and refuses further calls.
type BackendError struct {
	Backend string
	Op      string
	Err     error
	Fatal   bool
}

func (e *BackendError) Error() string {
	kind := ""
	if e.Fatal {
		kind = " (fatal)"
	}
	return fmt.Sprintf("%s: %s%s: %v", e.Backend, e.Op, kind, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// IsFatal reports whether err carries a fatal BackendError.
func IsFatal(err error) bool {
	var be *BackendError
	return errors.As(err, &be) && be.Fatal
}

package framer

import "github.com/pkg/errors"

// ErrUnexpectedSyn is returned by NextSymbol when a SYN byte appears
// where a logical data symbol was expected. The framer has already
// latched the SYN as pending: the next call to NextRawSymbol returns
// it without touching the wire.
var ErrUnexpectedSyn = errors.New("framer: unexpected SYN mid-telegram")

// ErrTimeout is returned when no byte arrives within AutoSynTimeout
// while a telegram is in progress. It is not fatal: the caller
// resynchronizes by calling WaitSignal again.
var ErrTimeout = errors.New("framer: timed out waiting for a symbol")

// IoError wraps a failure from the underlying Port. It is always
// fatal to the current connection: the caller must close and reopen
// the port.
type IoError struct {
	cause error
}

// NewIoError wraps cause as an IoError.
func NewIoError(cause error) *IoError {
	return &IoError{cause: errors.WithStack(cause)}
}

func (e *IoError) Error() string {
	return "framer: io error: " + e.cause.Error()
}

// Unwrap allows errors.Is/errors.As to see through to the cause.
func (e *IoError) Unwrap() error {
	return e.cause
}

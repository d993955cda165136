package framer

import "time"

// AutoSynTimeout is the maximum gap allowed between two symbols inside
// a telegram before the frame is considered broken. It is also the
// idle gap a healthy bus leaves between telegrams, which is why it is
// safe to block each raw read on it.
const AutoSynTimeout = 51 * time.Millisecond

// Port is the byte-level transport the Framer is built on. It is the
// narrow interface the framer actually needs from a serial
// connection; serialport.Port satisfies it, and tests satisfy it with
// an in-memory fake.
type Port interface {
	// Read blocks until one byte is available or the device errors.
	Read() (byte, error)

	// ReadTimeout blocks until one byte is available or timeout
	// elapses. ok is false on timeout; err is non-nil only on a
	// device-level failure.
	ReadTimeout(timeout time.Duration) (b byte, ok bool, err error)

	// Write sends exactly one byte.
	Write(b byte) error
}

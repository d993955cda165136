// Package framer decodes a raw eBUS byte stream into logical symbols:
// it detects SYN boundaries, folds ESC-escaped pairs back into their
// literal values, maintains the running CRC-8, and keeps a bounded
// diagnostic history of the symbols seen in the current telegram.
package framer

import (
	"time"

	"github.com/go-ebus/ebusd/crc8"
	"github.com/go-ebus/ebusd/symbol"
)

// Framer turns a byte-level Port into a stream of logical symbols.
// It is not safe for concurrent use: the arbitration loop is its only
// caller, and the bus is strictly serial.
type Framer struct {
	port Port

	crc        byte
	history    history
	synPending bool
}

// New wraps port in a Framer.
func New(port Port) *Framer {
	return &Framer{port: port}
}

// WaitSignal blocks until a SYN byte is observed, silently consuming
// and discarding every other byte. With timeout == 0 it blocks
// indefinitely and only returns false if the port errors; otherwise it
// gives up and returns false once timeout has elapsed without a SYN.
func (f *Framer) WaitSignal(timeout time.Duration) (bool, error) {
	if timeout == 0 {
		for {
			b, err := f.port.Read()
			if err != nil {
				return false, NewIoError(err)
			}
			if b == symbol.SYN {
				return true, nil
			}
		}
	}

	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false, nil
		}
		b, ok, err := f.port.ReadTimeout(remaining)
		if err != nil {
			return false, NewIoError(err)
		}
		if !ok {
			return false, nil
		}
		if b == symbol.SYN {
			return true, nil
		}
	}
}

// NextRawSymbol returns the next on-wire byte, updating the CRC with
// it. If a SYN was latched pending by a prior NextSymbol call, it is
// returned here without touching the wire, and the flag is cleared —
// in that case the CRC is not updated, matching the fact that no byte
// was actually read from the port.
func (f *Framer) NextRawSymbol() (symbol.Symbol, error) {
	if f.synPending {
		f.synPending = false
		return symbol.SYN, nil
	}

	b, ok, err := f.port.ReadTimeout(AutoSynTimeout)
	if err != nil {
		return 0, NewIoError(err)
	}
	if !ok {
		return 0, ErrTimeout
	}
	f.crc = crc8.Update(f.crc, b)
	return b, nil
}

// NextRawSymbolOrNone behaves like NextRawSymbol, but treats the
// auto-SYN timeout as "nothing arrived yet" instead of a frame error:
// ok is false and err is nil in that case. It's for the SYN-boundary
// scan between telegrams, where a gap longer than AutoSynTimeout is
// normal bus idle, not a broken frame — unlike a timeout while a
// telegram is actually in progress, which NextRawSymbol still escalates
// to ErrTimeout for NextSymbol's callers.
func (f *Framer) NextRawSymbolOrNone() (b symbol.Symbol, ok bool, err error) {
	if f.synPending {
		f.synPending = false
		return symbol.SYN, true, nil
	}

	b, ok, err = f.port.ReadTimeout(AutoSynTimeout)
	if err != nil {
		return 0, false, NewIoError(err)
	}
	if !ok {
		return 0, false, nil
	}
	f.crc = crc8.Update(f.crc, b)
	return b, true, nil
}

// NextSymbol reads the next logical symbol: it performs escape
// folding (ESC, b2 -> ESC+b2) and raises ErrUnexpectedSyn if a bare
// SYN appears where a data symbol was expected, latching it for the
// next NextRawSymbol call. Successfully read symbols are appended to
// the diagnostic history; a symbol that triggers ErrUnexpectedSyn is
// not.
func (f *Framer) NextSymbol() (symbol.Symbol, error) {
	b, err := f.NextRawSymbol()
	if err != nil {
		return 0, err
	}

	if b == symbol.ESC {
		b2, err := f.NextRawSymbol()
		if err != nil {
			return 0, err
		}
		if b2 == symbol.SYN {
			f.synPending = true
			return 0, ErrUnexpectedSyn
		}
		logical := symbol.ESC + b2
		f.history.push(logical)
		return logical, nil
	}

	if b == symbol.SYN {
		f.synPending = true
		return 0, ErrUnexpectedSyn
	}

	f.history.push(b)
	return b, nil
}

// WriteSymbol writes b and blocks on the one-byte echo every eBUS
// transmitter sees. The CRC is updated with the byte actually read
// back, not the byte written, so a caller can detect a collision by
// comparing the echo to what it sent.
func (f *Framer) WriteSymbol(b symbol.Symbol) (echo symbol.Symbol, err error) {
	if err := f.port.Write(b); err != nil {
		return 0, NewIoError(err)
	}
	echo, err = f.port.Read()
	if err != nil {
		return 0, NewIoError(err)
	}
	f.crc = crc8.Update(f.crc, echo)
	return echo, nil
}

// ResetCRC reseeds the running CRC. With no seed the value is zero
// (used for reply legs and the write path); with one, it is folded
// once through the seed (used on the read path, seeded with the
// telegram's source address).
func (f *Framer) ResetCRC(seed ...byte) {
	f.crc = crc8.Seed(seed...)
}

// GetCRC returns the current running CRC value.
func (f *Framer) GetCRC() byte {
	return f.crc
}

// ResetHistory empties the diagnostic history, optionally seeding it
// with a single symbol (the telegram's source address, at the start
// of a read).
func (f *Framer) ResetHistory(seed ...byte) {
	f.history.reset()
	if len(seed) > 0 {
		f.history.push(seed[0])
	}
}

// DrainHistory returns the retained symbols in FIFO order (at most 64)
// and empties the buffer.
func (f *Framer) DrainHistory() []symbol.Symbol {
	return f.history.drain()
}

// Package serialport implements framer.Port over a real serial line:
// it opens a github.com/tarm/serial port behind a
// github.com/cenkalti/backoff retry loop. Unlike a bounded exponential
// backoff abandoned after a few seconds, this port retries forever on
// a constant interval: a field bus with nothing connected yet is an
// expected boot state, not a failure.
package serialport

import (
	"io"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/tarm/serial"
)

// pollInterval is the tarm/serial per-Read deadline: short enough
// that ReadTimeout can honor its own, variable deadline by polling in
// a loop, since the underlying driver only supports one fixed timeout
// set at open time.
const pollInterval = 10 * time.Millisecond

// RetryInterval is the spacing between open attempts while the device
// node doesn't exist yet or is busy.
const RetryInterval = 1 * time.Second

// Port is a framer.Port backed by a real serial line.
type Port struct {
	conn io.ReadWriteCloser
}

// Open opens device at the protocol's fixed 2400 baud, 8N1, retrying
// on a constant interval until it succeeds — there is no bound on the
// number of attempts, matching a daemon that should come up before its
// hardware does and wait patiently.
func Open(device string) (*Port, error) {
	cfg := &serial.Config{
		Name:        device,
		Baud:        2400,
		Size:        8,
		Parity:      serial.ParityNone,
		StopBits:    serial.Stop1,
		ReadTimeout: pollInterval,
	}

	var conn *serial.Port
	op := func() error {
		c, err := serial.OpenPort(cfg)
		if err != nil {
			return err
		}
		conn = c
		return nil
	}
	if err := backoff.Retry(op, backoff.NewConstantBackOff(RetryInterval)); err != nil {
		return nil, err
	}
	return &Port{conn: conn}, nil
}

// Close releases the underlying serial line.
func (p *Port) Close() error {
	return p.conn.Close()
}

// Read blocks indefinitely for the next byte. ReadTimeout with a zero
// duration never gives up, so Read is just that case named.
func (p *Port) Read() (byte, error) {
	b, _, err := p.ReadTimeout(0)
	return b, err
}

// ReadTimeout waits up to timeout for the next byte. With timeout==0
// it waits indefinitely. It polls the serial driver's fixed-interval
// read because tarm/serial fixes its timeout at open time.
func (p *Port) ReadTimeout(timeout time.Duration) (byte, bool, error) {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}

	buf := make([]byte, 1)
	for {
		n, err := p.conn.Read(buf)
		if err != nil {
			return 0, false, err
		}
		if n > 0 {
			return buf[0], true, nil
		}
		if timeout > 0 && !time.Now().Before(deadline) {
			return 0, false, nil
		}
	}
}

// Write sends a single byte.
func (p *Port) Write(b byte) error {
	_, err := p.conn.Write([]byte{b})
	return err
}

// Package arbitration drives a framer.Framer and the telegram codec
// in the single-threaded, cooperative loop that is eBUS arbitration:
// wait for bus signal, watch SYN boundaries for a chance to send a
// queued telegram, and read whatever telegram shows up next.
package arbitration

import (
	"errors"
	"time"

	"github.com/go-ebus/ebusd/framer"
	"github.com/go-ebus/ebusd/symbol"
	"github.com/go-ebus/ebusd/telegram"
)

// SignalTimeout is how long Loop waits for a SYN before declaring the
// bus signal lost.
const SignalTimeout = 1000 * time.Millisecond

// Loop runs the arbitration loop until fr reports a fatal I/O error,
// which it returns. Non-fatal conditions (auto-SYN timeout, an
// unexpected SYN mid-telegram) are logged and absorbed; the loop
// resyncs and keeps running.
//
// signalTimeout overrides SignalTimeout when positive; callers that
// don't need a custom value can pass 0.
func Loop(fr *framer.Framer, queue *SendQueue, listener Listener, log Logger, signalTimeout time.Duration) error {
	if signalTimeout <= 0 {
		signalTimeout = SignalTimeout
	}

	hasSignal := false
	synced := false

	for {
		if !synced {
			for {
				ok, err := fr.WaitSignal(signalTimeout)
				if err != nil {
					return err
				}
				if ok {
					break
				}
				if hasSignal {
					hasSignal = false
					listener.OnSignal(false)
				}
				log.Printf("waiting for bus signal")
			}
			if !hasSignal {
				hasSignal = true
				listener.OnSignal(true)
			}
			synced = true
		}

		err := runSynced(fr, queue, listener, log)
		switch {
		case errors.Is(err, framer.ErrTimeout):
			log.Printf("auto-SYN timeout, resyncing: %v", err)
			fr.DrainHistory()
			synced = false
		case errors.Is(err, framer.ErrUnexpectedSyn):
			log.Printf("unexpected SYN, resuming: %v", err)
			fr.DrainHistory()
		default:
			return err
		}
	}
}

// runSynced runs the inner per-telegram loop until a non-fatal
// condition interrupts it (returned to Loop for resync handling) or a
// fatal I/O error occurs (returned all the way out).
func runSynced(fr *framer.Framer, queue *SendQueue, listener Listener, log Logger) error {
	backoff := 0

	for {
		source := symbol.Symbol(symbol.SYN)
		for source == symbol.SYN {
			raw, ok, err := fr.NextRawSymbolOrNone()
			if err != nil {
				return err
			}

			if backoff > 0 {
				backoff--
			}
			if !ok {
				// idle gap longer than the auto-SYN timeout: normal on a
				// healthy bus between telegrams, keep scanning.
				continue
			}
			source = raw

			if backoff == 0 && source == symbol.SYN && queue.Len() > 0 {
				pending := queue.head()
				newBackoff, done, err := telegram.TrySend(fr, pending)
				if err != nil {
					return err
				}
				backoff = newBackoff
				if done {
					queue.pop()
					listener.OnTelegram(pending)
				}
			}
		}

		if !symbol.IsMaster(source) {
			log.Printf("ignoring non-master byte 0x%02x at a SYN boundary", source)
			continue
		}

		t, err := telegram.Read(fr, source)
		if t != nil {
			listener.OnTelegram(t)
		}
		if err != nil {
			return err
		}
	}
}

package arbitration

import "github.com/go-ebus/ebusd/telegram"

// Listener receives telegrams and signal-state transitions from a
// running Loop. Both methods are called synchronously from the loop's
// goroutine, in strict on-wire order; an implementation that needs to
// hand work to another goroutine must do its own queuing.
type Listener interface {
	// OnTelegram is called for every telegram the loop finishes
	// reading or sending, including ones whose CRC is wrong, and for
	// the partial telegram returned alongside a mid-ack ErrUnexpectedSyn.
	OnTelegram(t *telegram.Telegram)

	// OnSignal is edge-triggered: called once when the bus signal is
	// acquired and once when it is lost, never on every poll.
	OnSignal(hasSignal bool)
}

// Logger is the minimal structured-logging surface the loop needs.
// logx.Logger satisfies it.
type Logger interface {
	Printf(format string, args ...interface{})
}

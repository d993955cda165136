package framer

import "github.com/go-ebus/ebusd/symbol"

// historyCapacity is the maximum number of logical symbols retained
// for diagnostic dumps. Purely informational: it is drained on a
// framing error and otherwise never observed.
const historyCapacity = 64

// history is a fixed-capacity FIFO ring buffer of logical symbols,
// implemented with a head offset and a count (the "count" variant):
// the buffer is empty when count is zero, and pushing at capacity
// evicts the oldest entry by advancing first.
type history struct {
	buf   [historyCapacity]symbol.Symbol
	first int
	count int
}

func (h *history) reset() {
	h.first = 0
	h.count = 0
}

func (h *history) push(s symbol.Symbol) {
	h.buf[(h.first+h.count)%historyCapacity] = s
	if h.count < historyCapacity {
		h.count++
	} else {
		h.first = (h.first + 1) % historyCapacity
	}
}

// drain returns the retained symbols in FIFO order and empties the
// buffer.
func (h *history) drain() []symbol.Symbol {
	if h.count == 0 {
		return nil
	}
	out := make([]symbol.Symbol, 0, historyCapacity)
	for i := 0; i < h.count; i++ {
		out = append(out, h.buf[(h.first+i)%historyCapacity])
	}
	h.reset()
	return out
}

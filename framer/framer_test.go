package framer_test

import (
	"errors"
	"testing"
	"time"

	"github.com/go-ebus/ebusd/framer"
	"github.com/go-ebus/ebusd/symbol"
)

func TestWaitSignalFindsSyn(t *testing.T) {
	port := &fakePort{reads: []byte{0x10, 0x20, symbol.SYN, 0x30}}
	fr := framer.New(port)
	ok, err := fr.WaitSignal(time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("WaitSignal returned false, want true")
	}
}

func TestWaitSignalTimesOutNonFatally(t *testing.T) {
	port := &fakePort{reads: []byte{0x10, 0x20}}
	fr := framer.New(port)
	ok, err := fr.WaitSignal(5 * time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("WaitSignal returned true, want false on starvation")
	}
}

// TestEscapeRoundTrip verifies property 1 and scenario S4: a wire byte
// sequence ESC,0x00 folds to the literal ESC value, and ESC,0x01
// folds to the literal SYN value; no other bytes are touched.
func TestEscapeRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		wire []byte
		want symbol.Symbol
	}{
		{"literal ESC", []byte{symbol.ESC, 0x00}, symbol.ESC},
		{"literal SYN", []byte{symbol.ESC, 0x01}, symbol.SYN},
		{"ordinary byte", []byte{0x42}, 0x42},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			port := &fakePort{reads: c.wire}
			fr := framer.New(port)
			got, err := fr.NextSymbol()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != c.want {
				t.Errorf("NextSymbol() = 0x%02x, want 0x%02x", got, c.want)
			}
		})
	}
}

// TestSynInterruption verifies property 4 and scenario S6: a SYN
// injected where a data symbol is expected aborts with
// ErrUnexpectedSyn, retains the prefix in history, and the next raw
// read returns the pending SYN without consuming a wire byte.
func TestSynInterruption(t *testing.T) {
	port := &fakePort{reads: []byte{0x30, 0x05, 0x03, 0x01, symbol.SYN, 0x99}}
	fr := framer.New(port)
	fr.ResetHistory(0x10)

	for i := 0; i < 4; i++ {
		if _, err := fr.NextSymbol(); err != nil {
			t.Fatalf("symbol %d: unexpected error: %v", i, err)
		}
	}

	_, err := fr.NextSymbol()
	if !errors.Is(err, framer.ErrUnexpectedSyn) {
		t.Fatalf("NextSymbol() error = %v, want ErrUnexpectedSyn", err)
	}

	hist := fr.DrainHistory()
	want := []symbol.Symbol{0x10, 0x30, 0x05, 0x03, 0x01}
	if len(hist) != len(want) {
		t.Fatalf("history = %v, want %v", hist, want)
	}
	for i := range want {
		if hist[i] != want[i] {
			t.Fatalf("history = %v, want %v", hist, want)
		}
	}

	// the next raw read must return the pending SYN without consuming
	// the next wire byte (0x99 stays unread)
	raw, err := fr.NextRawSymbol()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raw != symbol.SYN {
		t.Fatalf("NextRawSymbol() = 0x%02x, want SYN", raw)
	}
	if port.readPos != 5 {
		t.Fatalf("port consumed %d bytes, want 5 (pending SYN must not touch the wire)", port.readPos)
	}
}

// TestHistoryBound verifies property 5: at most 64 symbols are
// retained regardless of how many are pushed.
func TestHistoryBound(t *testing.T) {
	reads := make([]byte, 100)
	for i := range reads {
		reads[i] = byte(i + 1) // avoid SYN/ESC values
	}
	port := &fakePort{reads: reads}
	fr := framer.New(port)
	for i := 0; i < 100; i++ {
		if _, err := fr.NextSymbol(); err != nil {
			t.Fatalf("symbol %d: unexpected error: %v", i, err)
		}
	}
	hist := fr.DrainHistory()
	if len(hist) != 64 {
		t.Fatalf("history length = %d, want 64", len(hist))
	}
	// the oldest 36 symbols (1..36) should have been evicted; the
	// retained window is the last 64 pushed (37..100, i.e. byte values
	// 37..100, since reads[i] = i+1)
	if hist[0] != 37 {
		t.Errorf("history[0] = %d, want 37 (oldest retained)", hist[0])
	}
	if hist[63] != 100 {
		t.Errorf("history[63] = %d, want 100 (newest)", hist[63])
	}
}

func TestWriteSymbolReturnsEcho(t *testing.T) {
	port := &fakePort{reads: []byte{0x03}} // clean echo, no collision
	fr := framer.New(port)
	echo, err := fr.WriteSymbol(0x03)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if echo != 0x03 {
		t.Errorf("echo = 0x%02x, want 0x03", echo)
	}
	if len(port.writes) != 1 || port.writes[0] != 0x03 {
		t.Errorf("writes = %v, want [0x03]", port.writes)
	}
}

func TestWriteSymbolDetectsCollision(t *testing.T) {
	port := &fakePort{reads: []byte{0x01}} // echo != what we sent
	fr := framer.New(port)
	echo, err := fr.WriteSymbol(0x03)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if echo != 0x01 {
		t.Errorf("echo = 0x%02x, want 0x01", echo)
	}
}

func TestResetCRCSeeded(t *testing.T) {
	port := &fakePort{}
	fr := framer.New(port)
	fr.ResetCRC(0x03)
	if fr.GetCRC() == 0 {
		t.Error("GetCRC() = 0 after seeded reset, want non-zero fold of the seed")
	}
	fr.ResetCRC()
	if fr.GetCRC() != 0 {
		t.Errorf("GetCRC() = 0x%02x after unseeded reset, want 0", fr.GetCRC())
	}
}

func TestNextRawSymbolTimeout(t *testing.T) {
	port := &fakePort{timedOut: true}
	fr := framer.New(port)
	_, err := fr.NextRawSymbol()
	if !errors.Is(err, framer.ErrTimeout) {
		t.Fatalf("error = %v, want ErrTimeout", err)
	}
}

func TestNextRawSymbolIoError(t *testing.T) {
	port := &fakePort{readErr: errors.New("device unplugged")}
	fr := framer.New(port)
	_, err := fr.NextRawSymbol()
	var ioErr *framer.IoError
	if !errors.As(err, &ioErr) {
		t.Fatalf("error = %v, want *framer.IoError", err)
	}
}

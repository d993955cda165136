package decode_test

import (
	"math"
	"testing"

	"github.com/go-ebus/ebusd/decode"
	"github.com/go-ebus/ebusd/symbol"
)

func TestU8AndI8(t *testing.T) {
	data := []symbol.Symbol{0xFE}
	u, ok := decode.U8(data, 0)
	if !ok || u != 0xFE {
		t.Fatalf("U8 = %d,%v, want 254,true", u, ok)
	}
	s, ok := decode.I8(data, 0)
	if !ok || s != -2 {
		t.Fatalf("I8 = %d,%v, want -2,true", s, ok)
	}
}

func TestU16LittleEndian(t *testing.T) {
	data := []symbol.Symbol{0x34, 0x12}
	v, ok := decode.U16(data, 0)
	if !ok || v != 0x1234 {
		t.Fatalf("U16 = 0x%04x,%v, want 0x1234,true", v, ok)
	}
}

func TestBCDRoundTrip(t *testing.T) {
	for v := uint8(0); v <= 99; v++ {
		raw := decode.EncodeBCD(v)
		data := []symbol.Symbol{raw}
		got, ok := decode.BCD(data, 0)
		if !ok || got != v {
			t.Fatalf("BCD(EncodeBCD(%d)) = %d,%v, want %d,true", v, got, ok, v)
		}
	}
}

func TestDATA1c(t *testing.T) {
	data := []symbol.Symbol{0x29} // 41 -> 20.5
	got, ok := decode.DATA1c(data, 0)
	if !ok || math.Abs(got-20.5) > 1e-9 {
		t.Fatalf("DATA1c = %v,%v, want 20.5,true", got, ok)
	}
}

func TestDATA2c(t *testing.T) {
	data := []symbol.Symbol{0x60, 0x01} // little-endian 0x0160 = 352 -> 22.0
	got, ok := decode.DATA2c(data, 0)
	if !ok || math.Abs(got-22.0) > 1e-9 {
		t.Fatalf("DATA2c = %v,%v, want 22.0,true", got, ok)
	}
}

func TestDATA2bSigned(t *testing.T) {
	data := []symbol.Symbol{0x00, 0xFF} // little-endian 0xFF00 == -256 -> -1.0
	got, ok := decode.DATA2b(data, 0)
	if !ok || math.Abs(got-(-1.0)) > 1e-9 {
		t.Fatalf("DATA2b = %v,%v, want -1.0,true", got, ok)
	}
}

func TestOutOfRangeOffsetReportsNotOK(t *testing.T) {
	data := []symbol.Symbol{0x01}
	if _, ok := decode.U16(data, 0); ok {
		t.Error("U16 with insufficient data reported ok=true")
	}
	if _, ok := decode.U8(data, 5); ok {
		t.Error("U8 with out-of-range offset reported ok=true")
	}
}

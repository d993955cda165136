// Package decode converts a telegram's raw data symbols into the
// physical quantities the eBUS protocol's payload encodings describe.
// Each function is a pure conversion over a data slice and the offset
// to start reading at; none of them depend on the core protocol
// packages, matching the "payload decoders are out of scope" split of
// responsibility.
package decode

import "github.com/go-ebus/ebusd/symbol"

// U8 reads an unsigned 8-bit value at offset.
func U8(data []symbol.Symbol, offset int) (uint8, bool) {
	if offset >= len(data) {
		return 0, false
	}
	return data[offset], true
}

// I8 reads a signed 8-bit value at offset.
func I8(data []symbol.Symbol, offset int) (int8, bool) {
	b, ok := U8(data, offset)
	return int8(b), ok
}

// U16 reads an unsigned little-endian 16-bit value starting at offset
// (low byte first, matching the wire order every multi-byte eBUS
// value uses).
func U16(data []symbol.Symbol, offset int) (uint16, bool) {
	if offset+1 >= len(data) {
		return 0, false
	}
	lo := uint16(data[offset])
	hi := uint16(data[offset+1])
	return hi<<8 | lo, true
}

// I16 reads a signed little-endian 16-bit value starting at offset.
func I16(data []symbol.Symbol, offset int) (int16, bool) {
	v, ok := U16(data, offset)
	return int16(v), ok
}

// BCD decodes a single packed-BCD byte at offset into its decimal
// value: the high nibble is the tens digit, the low nibble the ones
// digit.
func BCD(data []symbol.Symbol, offset int) (uint8, bool) {
	b, ok := U8(data, offset)
	if !ok {
		return 0, false
	}
	return (b>>4)*10 + b%16, true
}

// EncodeBCD is the inverse of BCD, for building outbound telegrams.
func EncodeBCD(value uint8) symbol.Symbol {
	return 16*((value/10)%10) + value%10
}

// DATA1c decodes an unsigned 8-bit raw value as a fixed-point quantity
// with a resolution of 1/2 (e.g. half-degree temperature steps).
func DATA1c(data []symbol.Symbol, offset int) (float64, bool) {
	b, ok := U8(data, offset)
	if !ok {
		return 0, false
	}
	return float64(b) / 2, true
}

// DATA2b decodes a signed little-endian 16-bit raw value as a
// fixed-point quantity with a resolution of 1/256.
func DATA2b(data []symbol.Symbol, offset int) (float64, bool) {
	v, ok := I16(data, offset)
	if !ok {
		return 0, false
	}
	return float64(v) / 256, true
}

// DATA2c decodes a signed little-endian 16-bit raw value as a
// fixed-point quantity with a resolution of 1/16 (the common eBUS
// temperature encoding).
func DATA2c(data []symbol.Symbol, offset int) (float64, bool) {
	v, ok := I16(data, offset)
	if !ok {
		return 0, false
	}
	return float64(v) / 16, true
}

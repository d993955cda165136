// Package symbol defines the primitive values of the eBUS wire protocol:
// the logical byte type, the reserved control symbols, address
// predicates, and the acknowledgement tri-state.
package symbol

import "math/bits"

// Symbol is a single logical eBUS byte, after escape-folding.
type Symbol = byte

// Address is a Symbol used in the source or destination position of a
// telegram.
type Address = byte

// Reserved control symbols. SYN marks telegram boundaries, ESC escapes
// a literal SYN or ESC inside a telegram body, ACK/NACK terminate a
// transaction, and BROADCAST is the destination of a broadcast
// telegram.
const (
	SYN       Symbol = 0xAA
	ESC       Symbol = 0xA9
	ACK       Symbol = 0x00
	NACK      Symbol = 0xFF
	BROADCAST Symbol = 0xFE
)

// IsMaster reports whether a is a valid master address: both nibbles,
// incremented by one, are powers of two. There are exactly 25 master
// addresses (5 valid nibble values, squared).
func IsMaster(a Address) bool {
	lo := a & 0x0F
	hi := (a >> 4) & 0x0F
	return bits.OnesCount8(lo+1) == 1 && bits.OnesCount8(hi+1) == 1
}

// IsBroadcast reports whether a is the broadcast address.
func IsBroadcast(a Address) bool {
	return a == BROADCAST
}

// IsSlave reports whether a is neither a master nor the broadcast
// address. IsMaster, IsBroadcast, and IsSlave are pairwise disjoint
// and partition the full address space.
func IsSlave(a Address) bool {
	return !IsBroadcast(a) && !IsMaster(a)
}

// Ack is the tri-state acknowledgement observed (or not) at the end
// of a telegram leg.
type Ack int

const (
	// AckNone is the default: no ack is expected (broadcasts) or none
	// was observed.
	AckNone Ack = iota
	AckACK
	AckNACK
)

// String implements fmt.Stringer.
func (a Ack) String() string {
	switch a {
	case AckACK:
		return "ACK"
	case AckNACK:
		return "NACK"
	default:
		return "NONE"
	}
}

// FromWire maps a wire byte to its Ack value. Any byte other than the
// literal ACK or NACK symbols maps to AckNone.
func FromWire(b Symbol) Ack {
	switch b {
	case ACK:
		return AckACK
	case NACK:
		return AckNACK
	default:
		return AckNone
	}
}

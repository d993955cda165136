// Package telegram builds a Telegram from a stream of logical symbols
// read through a framer.Framer, and serializes one back to the wire.
// It implements the master/slave/broadcast read and write legs of the
// eBUS protocol, including the ACK/NACK and master-slave reply cycle.
package telegram

import "github.com/go-ebus/ebusd/symbol"

// Reply holds the slave's reply leg of a master-slave telegram. It is
// only present on a Telegram whose destination is a slave address and
// whose Ack is ACK.
type Reply struct {
	Data  []symbol.Symbol
	CRCOK bool
}

// Telegram is the central value of the protocol: one logical eBUS
// message, whether master-to-master, master-to-slave (with reply), or
// a broadcast. It is immutable once handed to a listener.
type Telegram struct {
	Source, Destination symbol.Address
	Primary, Secondary  byte
	Data                []symbol.Symbol
	CRCOK               bool
	Ack                 symbol.Ack

	// Reply is non-nil only for a master-slave telegram whose Ack is
	// ACK. MasterAck is the acknowledgement the master gave the
	// slave's reply (recorded on the read path, emitted on the write
	// path — see DESIGN.md on the read/write asymmetry).
	Reply     *Reply
	MasterAck symbol.Ack
}

// Command returns the (primary, secondary) command pair as a single
// comparable key, convenient for decoder table lookups.
func (t *Telegram) Command() [2]byte {
	return [2]byte{t.Primary, t.Secondary}
}

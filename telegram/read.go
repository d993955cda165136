package telegram

import (
	"errors"

	"github.com/go-ebus/ebusd/framer"
	"github.com/go-ebus/ebusd/symbol"
)

// Read builds a Telegram starting from a source address already
// consumed off the wire (the arbitration loop reads it to decide the
// byte is a master address before calling Read).
//
// On most errors the telegram is abandoned and (nil, err) is
// returned. The one exception, per the protocol's own design: if the
// framer reports ErrUnexpectedSyn while reading the ack byte, the
// telegram read so far is returned alongside the error with Ack left
// at AckNone, so the caller may choose to deliver the partial
// telegram before resynchronizing on the propagated SYN.
func Read(fr *framer.Framer, source symbol.Address) (*Telegram, error) {
	fr.ResetCRC(source)
	fr.ResetHistory(source)

	destination, err := fr.NextSymbol()
	if err != nil {
		return nil, err
	}
	primary, err := fr.NextSymbol()
	if err != nil {
		return nil, err
	}
	secondary, err := fr.NextSymbol()
	if err != nil {
		return nil, err
	}
	n, err := fr.NextSymbol()
	if err != nil {
		return nil, err
	}

	data := make([]symbol.Symbol, 0, n)
	for i := 0; i < int(n); i++ {
		b, err := fr.NextSymbol()
		if err != nil {
			return nil, err
		}
		data = append(data, b)
	}

	crcExpected := fr.GetCRC()
	crcWire, err := fr.NextSymbol()
	if err != nil {
		return nil, err
	}

	t := &Telegram{
		Source:      source,
		Destination: destination,
		Primary:     primary,
		Secondary:   secondary,
		Data:        data,
		CRCOK:       crcExpected == crcWire,
		Ack:         symbol.AckNone,
	}

	if symbol.IsBroadcast(destination) {
		return t, nil
	}

	ackByte, err := fr.NextSymbol()
	if err != nil {
		if errors.Is(err, framer.ErrUnexpectedSyn) {
			// partial delivery: the ack byte never arrived, a SYN did.
			return t, err
		}
		return nil, err
	}
	t.Ack = symbol.FromWire(ackByte)

	if symbol.IsSlave(destination) && t.Ack == symbol.AckACK {
		reply, err := readReply(fr)
		if err != nil {
			return nil, err
		}
		t.Reply = reply

		// listening to somebody else's conversation: the master's ack of
		// the reply is already on the wire, written by that master.
		ackByte, err := fr.NextSymbol()
		if err != nil {
			return nil, err
		}
		t.MasterAck = symbol.FromWire(ackByte)
	}

	return t, nil
}

// readReply reads the slave's reply leg: the data length, data symbols
// and CRC. Shared by the read path (above) and the write path's
// receive-reply step (see write.go); what happens to the ack of the
// reply differs between the two and is handled by each caller.
func readReply(fr *framer.Framer) (*Reply, error) {
	fr.ResetCRC()

	m, err := fr.NextSymbol()
	if err != nil {
		return nil, err
	}

	data := make([]symbol.Symbol, 0, m)
	for i := 0; i < int(m); i++ {
		b, err := fr.NextSymbol()
		if err != nil {
			return nil, err
		}
		data = append(data, b)
	}

	crcExpected := fr.GetCRC()
	crcWire, err := fr.NextSymbol()
	if err != nil {
		return nil, err
	}
	return &Reply{Data: data, CRCOK: crcExpected == crcWire}, nil
}

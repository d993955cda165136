package telegram

import (
	"github.com/go-ebus/ebusd/framer"
	"github.com/go-ebus/ebusd/symbol"
)

// TrySend attempts to transmit t, the telegram at the head of the
// send queue. It implements the collision-detection write leg of the
// protocol:
//
//   - if the echo of the first byte (the source address) doesn't
//     match what was sent, a collision occurred. backoff is 1 SYN
//     boundary if the echoed address shares t's priority class
//     (low nibble), else 2; done is false and t stays queued.
//   - otherwise the rest of the telegram is written, the destination's
//     ack (and, for a slave destination, its reply) is read, and done
//     reports whether the transmission is complete and should be
//     popped from the queue. A non-ACK response drops the telegram
//     (done=true) without a retry promise, per the protocol: the
//     caller decides whether to requeue.
//
// Outbound bytes are not escaped here even though the framer does
// unescape on read; this asymmetry is deliberate and recorded in
// DESIGN.md rather than hidden.
func TrySend(fr *framer.Framer, t *Telegram) (backoff int, done bool, err error) {
	fr.ResetCRC()

	echo, err := fr.WriteSymbol(t.Source)
	if err != nil {
		return 0, false, err
	}
	if echo != t.Source {
		if echo&0x0F == t.Source&0x0F {
			return 1, false, nil
		}
		return 2, false, nil
	}

	for _, b := range []symbol.Symbol{t.Destination, t.Primary, t.Secondary, byte(len(t.Data))} {
		if _, err := fr.WriteSymbol(b); err != nil {
			return 0, false, err
		}
	}
	for _, b := range t.Data {
		if _, err := fr.WriteSymbol(b); err != nil {
			return 0, false, err
		}
	}
	if _, err := fr.WriteSymbol(fr.GetCRC()); err != nil {
		return 0, false, err
	}
	t.CRCOK = true

	if symbol.IsBroadcast(t.Destination) {
		return 0, true, nil
	}

	ackByte, err := fr.NextSymbol()
	if err != nil {
		return 0, false, err
	}
	t.Ack = symbol.FromWire(ackByte)
	if t.Ack != symbol.AckACK {
		return 0, true, nil // drop: no retry promise at this layer
	}

	if !symbol.IsSlave(t.Destination) {
		return 0, true, nil
	}

	reply, err := readReply(fr)
	if err != nil {
		return 0, false, err
	}
	t.Reply = reply

	replyAck := symbol.Symbol(symbol.NACK)
	if reply.CRCOK {
		replyAck = symbol.ACK
	}
	if _, err := fr.WriteSymbol(replyAck); err != nil {
		return 0, false, err
	}
	t.MasterAck = symbol.FromWire(replyAck)

	return 0, reply.CRCOK, nil
}

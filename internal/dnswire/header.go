package dnswire

import (
	"encoding/binary"
	"fmt"
)

// Header is the fixed 12-byte DNS message header.
type Header struct {
	ID      uint16
	Flags   uint16
	QDCount uint16
	ANCount uint16
	NSCount uint16
	ARCount uint16
}

// ParseHeader reads the 12-byte header at the start of msg.
func ParseHeader(msg []byte) (Header, error) {
	if len(msg) < HeaderSize {
		return Header{}, fmt.Errorf("%w: message shorter than header (%d bytes)", ErrMalformed, len(msg))
	}
	return Header{
		ID:      binary.BigEndian.Uint16(msg[0:2]),
		Flags:   binary.BigEndian.Uint16(msg[2:4]),
		QDCount: binary.BigEndian.Uint16(msg[4:6]),
		ANCount: binary.BigEndian.Uint16(msg[6:8]),
		NSCount: binary.BigEndian.Uint16(msg[8:10]),
		ARCount: binary.BigEndian.Uint16(msg[10:12]),
	}, nil
}

// Marshal encodes the header into its 12-byte wire form.
func (h Header) Marshal() []byte {
	out := make([]byte, HeaderSize)
	binary.BigEndian.PutUint16(out[0:2], h.ID)
	binary.BigEndian.PutUint16(out[2:4], h.Flags)
	binary.BigEndian.PutUint16(out[4:6], h.QDCount)
	binary.BigEndian.PutUint16(out[6:8], h.ANCount)
	binary.BigEndian.PutUint16(out[8:10], h.NSCount)
	binary.BigEndian.PutUint16(out[10:12], h.ARCount)
	return out
}

// RCode extracts the response code from the flags word.
func (h Header) RCode() RCode {
	return RCode(h.Flags & RCodeMask)
}

// SetTransactionID rewrites the ID field of a raw wire message in place,
// returning msg unchanged if it already carries id. Used both to rewrite
// a client's transaction ID to the relay's upstream_id before forwarding,
// and to restore the client's original ID before relaying an upstream
// answer back.
func SetTransactionID(msg []byte, id uint16) []byte {
	if len(msg) < 2 {
		return msg
	}
	if binary.BigEndian.Uint16(msg[0:2]) == id {
		return msg
	}
	binary.BigEndian.PutUint16(msg[0:2], id)
	return msg
}

// TransactionID reads the ID field of a raw wire message without a full parse.
func TransactionID(msg []byte) (uint16, error) {
	if len(msg) < 2 {
		return 0, fmt.Errorf("%w: message shorter than transaction id", ErrMalformed)
	}
	return binary.BigEndian.Uint16(msg[0:2]), nil
}

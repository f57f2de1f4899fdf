package dnswire

import (
	"encoding/binary"
	"fmt"
)

// Question is the single question this relay ever parses; QDCOUNT != 1 is
// rejected before a Question is even built (see ParseQuery).
type Question struct {
	Name  string
	Type  RecordType
	Class RecordClass
}

// ParseQuestion reads one question starting at *off, normalizing the name
// to lowercase so every downstream lookup (host table, cache, blocklist)
// can compare names with a plain string equality.
func ParseQuestion(msg []byte, off *int) (Question, error) {
	name, err := DecodeName(msg, off)
	if err != nil {
		return Question{}, err
	}
	if *off+4 > len(msg) {
		return Question{}, fmt.Errorf("%w: truncated question section", ErrMalformed)
	}
	qtype := binary.BigEndian.Uint16(msg[*off : *off+2])
	qclass := binary.BigEndian.Uint16(msg[*off+2 : *off+4])
	*off += 4
	return Question{
		Name:  NormalizeName(name),
		Type:  RecordType(qtype),
		Class: RecordClass(qclass),
	}, nil
}

package dnswire

import (
	"encoding/binary"
	"fmt"
	"net"
	"net/netip"
)

// Query is a parsed, single-question client request. QuestionEnd is the
// byte offset immediately following the question section (name + QTYPE +
// QCLASS) in the original message — it is what a timeout or SERVFAIL
// response needs in order to reuse the original question bytes unchanged.
type Query struct {
	Header      Header
	Question    Question
	QuestionEnd int
	// Raw is the original datagram, retained so the dispatcher can
	// rewrite its transaction id and forward it upstream byte-for-byte
	// rather than re-encoding the question.
	Raw []byte
}

// ParseQuery validates and parses a client datagram down to its single
// question. Per spec this relay only ever answers single-question
// messages; anything else (QDCOUNT != 1, a response masquerading as a
// query, a message shorter than the fixed header) is rejected and the
// datagram is dropped by the caller.
func ParseQuery(msg []byte) (Query, error) {
	hdr, err := ParseHeader(msg)
	if err != nil {
		return Query{}, err
	}
	if hdr.Flags&FlagQR != 0 {
		return Query{}, fmt.Errorf("%w: message is a response, not a query", ErrMalformed)
	}
	if hdr.QDCount != 1 {
		return Query{}, fmt.Errorf("%w: expected exactly one question, got %d", ErrMalformed, hdr.QDCount)
	}

	off := HeaderSize
	q, err := ParseQuestion(msg, &off)
	if err != nil {
		return Query{}, err
	}
	return Query{Header: hdr, Question: q, QuestionEnd: off, Raw: msg}, nil
}

// responseFlags builds the flags word for every answer this relay
// produces: QR, RD and RA set, giving the fixed 0x8180 word for NOERROR
// (0x8180 | rcode otherwise), regardless of the request's own flags.
func responseFlags(rcode RCode) uint16 {
	flags := uint16(FlagQR | FlagRD | FlagRA)
	flags |= uint16(rcode) & RCodeMask
	return flags
}

// questionBytes returns the question section exactly as it appeared in
// the client's original datagram — per spec, a response copies the
// request header then the question section verbatim, which means the
// question's name keeps its original casing rather than the lowercased
// form ParseQuestion normalized req.Question.Name to for table/cache
// lookups.
func questionBytes(req Query) []byte {
	return req.Raw[HeaderSize:req.QuestionEnd]
}

// BuildErrorResponse builds a response carrying no answers and the given
// rcode, echoing the request's ID and question.
func BuildErrorResponse(req Query, rcode RCode) ([]byte, error) {
	qbytes := questionBytes(req)
	hdr := Header{
		ID:      req.Header.ID,
		Flags:   responseFlags(rcode),
		QDCount: 1,
	}
	out := make([]byte, 0, HeaderSize+len(qbytes))
	out = append(out, hdr.Marshal()...)
	out = append(out, qbytes...)
	return out, nil
}

// BuildAnswer builds a NOERROR response with a single A or AAAA answer
// record pointing back at the question via the fixed 0xC00C compression
// pointer (the question always starts at byte 12, right after the header).
func BuildAnswer(req Query, rrType RecordType, ip net.IP, ttl uint32) ([]byte, error) {
	qbytes := questionBytes(req)

	rdata, err := ipRData(rrType, ip)
	if err != nil {
		return nil, err
	}

	hdr := Header{
		ID:      req.Header.ID,
		Flags:   responseFlags(RCodeNoError),
		QDCount: 1,
		ANCount: 1,
	}

	out := make([]byte, 0, HeaderSize+len(qbytes)+12+len(rdata))
	out = append(out, hdr.Marshal()...)
	out = append(out, qbytes...)

	out = append(out, 0xC0, 0x0C) // name: pointer to question at offset 12
	var rr [10]byte
	binary.BigEndian.PutUint16(rr[0:2], uint16(rrType))
	binary.BigEndian.PutUint16(rr[2:4], uint16(ClassIN))
	binary.BigEndian.PutUint32(rr[4:8], ttl)
	binary.BigEndian.PutUint16(rr[8:10], uint16(len(rdata)))
	out = append(out, rr[:]...)
	out = append(out, rdata...)
	return out, nil
}

func ipRData(rrType RecordType, ip net.IP) ([]byte, error) {
	switch rrType {
	case TypeA:
		v4 := ip.To4()
		if v4 == nil {
			return nil, fmt.Errorf("%w: address %s is not IPv4", ErrMalformed, ip)
		}
		return []byte(v4), nil
	case TypeAAAA:
		v6 := ip.To16()
		if v6 == nil || ip.To4() != nil {
			return nil, fmt.Errorf("%w: address %s is not IPv6", ErrMalformed, ip)
		}
		return []byte(v6), nil
	default:
		return nil, fmt.Errorf("%w: unsupported record type %d", ErrMalformed, rrType)
	}
}

// Answer is the first answer record extracted from an upstream response,
// the only piece of an upstream reply the cache ever needs.
type Answer struct {
	Type RecordType
	TTL  uint32
	IP   netip.Addr
}

// ExtractFirstAnswer walks an upstream response's question section (to
// find where the answer section begins) and decodes the first answer
// record's TYPE, CLASS, TTL and RDATA. It returns ok=false — never an
// error — for anything that keeps this from being a cacheable A/AAAA
// answer (no answers, class mismatch, unexpected rdlength): the response
// is still relayed to the client unchanged, it simply isn't cached.
func ExtractFirstAnswer(msg []byte, qtype RecordType) (Answer, bool) {
	hdr, err := ParseHeader(msg)
	if err != nil || hdr.ANCount == 0 {
		return Answer{}, false
	}

	off := HeaderSize
	for i := 0; i < int(hdr.QDCount); i++ {
		if _, err := DecodeName(msg, &off); err != nil {
			return Answer{}, false
		}
		off += 4 // QTYPE + QCLASS
		if off > len(msg) {
			return Answer{}, false
		}
	}

	if _, err := DecodeName(msg, &off); err != nil {
		return Answer{}, false
	}
	if off+10 > len(msg) {
		return Answer{}, false
	}
	rrType := RecordType(binary.BigEndian.Uint16(msg[off : off+2]))
	rrClass := RecordClass(binary.BigEndian.Uint16(msg[off+2 : off+4]))
	ttl := binary.BigEndian.Uint32(msg[off+4 : off+8])
	rdlen := int(binary.BigEndian.Uint16(msg[off+8 : off+10]))
	off += 10
	if off+rdlen > len(msg) {
		return Answer{}, false
	}
	rdata := msg[off : off+rdlen]

	if rrClass != ClassIN || rrType != qtype {
		return Answer{}, false
	}

	var addr netip.Addr
	switch rrType {
	case TypeA:
		if rdlen != 4 {
			return Answer{}, false
		}
		addr = netip.AddrFrom4([4]byte(rdata))
	case TypeAAAA:
		if rdlen != 16 {
			return Answer{}, false
		}
		addr = netip.AddrFrom16([16]byte(rdata))
	default:
		return Answer{}, false
	}

	return Answer{Type: rrType, TTL: ttl, IP: addr}, true
}

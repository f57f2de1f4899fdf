package dnswire

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func buildQuery(t *testing.T, id uint16, name string, qtype RecordType) []byte {
	t.Helper()
	nameBytes, err := EncodeName(name)
	require.NoError(t, err)

	hdr := Header{ID: id, Flags: FlagRD, QDCount: 1}
	msg := hdr.Marshal()
	msg = append(msg, nameBytes...)
	msg = append(msg, byte(qtype>>8), byte(qtype))
	msg = append(msg, 0x00, 0x01) // QCLASS IN
	return msg
}

func TestParseQueryRoundTrip(t *testing.T) {
	msg := buildQuery(t, 0x1234, "example.com", TypeA)
	q, err := ParseQuery(msg)
	require.NoError(t, err)
	require.Equal(t, uint16(0x1234), q.Header.ID)
	require.Equal(t, "example.com", q.Question.Name)
	require.Equal(t, TypeA, q.Question.Type)
	require.Equal(t, ClassIN, q.Question.Class)
	require.Equal(t, len(msg), q.QuestionEnd)
}

func TestParseQueryNormalizesCase(t *testing.T) {
	msg := buildQuery(t, 1, "ExAmple.COM", TypeA)
	q, err := ParseQuery(msg)
	require.NoError(t, err)
	require.Equal(t, "example.com", q.Question.Name)
}

func TestParseQueryRejectsMultiQuestion(t *testing.T) {
	msg := buildQuery(t, 1, "a.com", TypeA)
	msg[5] = 2 // QDCOUNT = 2
	_, err := ParseQuery(msg)
	require.ErrorIs(t, err, ErrMalformed)
}

func TestParseQueryRejectsResponse(t *testing.T) {
	msg := buildQuery(t, 1, "a.com", TypeA)
	msg[2] |= 0x80 // set QR
	_, err := ParseQuery(msg)
	require.ErrorIs(t, err, ErrMalformed)
}

func TestParseQueryRejectsShort(t *testing.T) {
	_, err := ParseQuery([]byte{0, 1, 2})
	require.ErrorIs(t, err, ErrMalformed)
}

func TestDecodeNameCompressionPointer(t *testing.T) {
	// Message: [question name at 12][pointer back to it at some later offset]
	msg := buildQuery(t, 1, "example.com", TypeA)
	ptrOff := len(msg)
	msg = append(msg, 0xC0, 0x0C)

	off := ptrOff
	name, err := DecodeName(msg, &off)
	require.NoError(t, err)
	require.Equal(t, "example.com", name)
	require.Equal(t, ptrOff+2, off, "pointer site should only advance 2 bytes")
}

func TestDecodeNameDetectsLoop(t *testing.T) {
	msg := []byte{0xC0, 0x00} // pointer to itself
	off := 0
	_, err := DecodeName(msg, &off)
	require.ErrorIs(t, err, ErrMalformed)
}

func TestBuildAnswerAndExtract(t *testing.T) {
	msg := buildQuery(t, 0xBEEF, "example.com", TypeA)
	q, err := ParseQuery(msg)
	require.NoError(t, err)

	resp, err := BuildAnswer(q, TypeA, net.ParseIP("93.184.216.34"), 300)
	require.NoError(t, err)

	hdr, err := ParseHeader(resp)
	require.NoError(t, err)
	require.Equal(t, uint16(0xBEEF), hdr.ID)
	require.Equal(t, RCodeNoError, hdr.RCode())
	require.Equal(t, uint16(1), hdr.ANCount)
	require.Equal(t, uint16(0x8180), hdr.Flags, "NOERROR answers must carry the literal QR+RD+RA flags word")

	ans, ok := ExtractFirstAnswer(resp, TypeA)
	require.True(t, ok)
	require.Equal(t, uint32(300), ans.TTL)
	require.Equal(t, "93.184.216.34", ans.IP.String())
}

func TestBuildAnswerPreservesOriginalQuestionCasing(t *testing.T) {
	msg := buildQuery(t, 0x42, "ExAmple.COM", TypeA)
	q, err := ParseQuery(msg)
	require.NoError(t, err)
	require.Equal(t, "example.com", q.Question.Name, "lookups use the normalized name")

	resp, err := BuildAnswer(q, TypeA, net.ParseIP("1.2.3.4"), 60)
	require.NoError(t, err)

	off := HeaderSize
	name, err := DecodeName(resp, &off)
	require.NoError(t, err)
	require.Equal(t, "ExAmple.COM", name, "the wire response must echo the question verbatim, not the lowercased lookup key")
}

func TestBuildErrorResponsePreservesOriginalQuestionCasing(t *testing.T) {
	msg := buildQuery(t, 0x43, "BLOCKED.Example", TypeA)
	q, err := ParseQuery(msg)
	require.NoError(t, err)

	resp, err := BuildErrorResponse(q, RCodeNXDomain)
	require.NoError(t, err)

	off := HeaderSize
	name, err := DecodeName(resp, &off)
	require.NoError(t, err)
	require.Equal(t, "BLOCKED.Example", name, "error responses must echo the question verbatim, not the lowercased lookup key")
}

func TestBuildErrorResponse(t *testing.T) {
	msg := buildQuery(t, 7, "blocked.example", TypeA)
	q, err := ParseQuery(msg)
	require.NoError(t, err)

	resp, err := BuildErrorResponse(q, RCodeNXDomain)
	require.NoError(t, err)

	hdr, err := ParseHeader(resp)
	require.NoError(t, err)
	require.Equal(t, RCodeNXDomain, hdr.RCode())
	require.Equal(t, uint16(0), hdr.ANCount)
	require.Equal(t, uint16(0x8183), hdr.Flags, "NXDOMAIN responses must carry 0x8180 | rcode")
}

func TestBuildAnswerFlagsAreFixedRegardlessOfRequestFlags(t *testing.T) {
	msg := buildQuery(t, 9, "example.com", TypeA)
	msg[2] &^= byte(FlagRD >> 8) // clear RD on the request
	q, err := ParseQuery(msg)
	require.NoError(t, err)

	resp, err := BuildAnswer(q, TypeA, net.ParseIP("1.2.3.4"), 60)
	require.NoError(t, err)

	hdr, err := ParseHeader(resp)
	require.NoError(t, err)
	require.Equal(t, uint16(0x8180), hdr.Flags, "response flags must not depend on the request's own flags")
}

func TestExtractFirstAnswerRejectsTypeMismatch(t *testing.T) {
	msg := buildQuery(t, 1, "example.com", TypeAAAA)
	q, err := ParseQuery(msg)
	require.NoError(t, err)

	resp, err := BuildAnswer(q, TypeA, net.ParseIP("1.2.3.4"), 60)
	require.NoError(t, err)

	_, ok := ExtractFirstAnswer(resp, TypeAAAA)
	require.False(t, ok)
}

func TestSetTransactionID(t *testing.T) {
	msg := buildQuery(t, 1, "a.com", TypeA)
	out := SetTransactionID(msg, 42)
	id, err := TransactionID(out)
	require.NoError(t, err)
	require.Equal(t, uint16(42), id)
}

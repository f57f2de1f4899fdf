package dnswire

import (
	"encoding/binary"
	"fmt"
	"strings"
)

const maxCompressionDepth = 20

// NormalizeName lowercases a name and strips a trailing dot, matching the
// relay's case-insensitive host table and cache key lookups (RFC 4343).
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSuffix(name, "."))
}

// EncodeName encodes domain to wire format without compression: a sequence
// of length-prefixed labels terminated by a zero-length label. This relay
// never needs to emit a compressed name of its own — every name it writes
// is either the fixed question-pointer (0xC00C) or copied byte-for-byte
// from the request it is answering.
func EncodeName(domain string) ([]byte, error) {
	domain = trimDot(domain)
	if domain == "" {
		return []byte{0}, nil
	}

	out := make([]byte, 0, len(domain)+2)
	labelStart := 0
	for i := 0; i <= len(domain); i++ {
		if i == len(domain) || domain[i] == '.' {
			if i == labelStart {
				return nil, fmt.Errorf("%w: empty label in domain name %q", ErrMalformed, domain)
			}
			label := domain[labelStart:i]
			if len(label) > 63 {
				return nil, fmt.Errorf("%w: label too long (%d > 63): %q", ErrMalformed, len(label), label)
			}
			out = append(out, byte(len(label)))
			out = append(out, label...)
			labelStart = i + 1
		}
	}
	out = append(out, 0)
	if len(out) > 255 {
		return nil, fmt.Errorf("%w: encoded name too long (%d > 255)", ErrMalformed, len(out))
	}
	return out, nil
}

// DecodeName decodes a possibly-compressed name starting at *off, advancing
// *off past the name as it appears at the original site — including past a
// two-byte compression pointer, regardless of how much further decoding the
// pointer target required.
func DecodeName(msg []byte, off *int) (string, error) {
	return decodeName(msg, off, 0, map[int]struct{}{})
}

func decodeName(msg []byte, off *int, depth int, visited map[int]struct{}) (string, error) {
	if depth > maxCompressionDepth {
		return "", fmt.Errorf("%w: too many compression pointer indirections", ErrMalformed)
	}
	if *off < 0 || *off >= len(msg) {
		return "", fmt.Errorf("%w: unexpected EOF decoding name", ErrMalformed)
	}

	labels := make([]string, 0, 6)
	for {
		if *off >= len(msg) {
			return "", fmt.Errorf("%w: unexpected EOF decoding name", ErrMalformed)
		}
		labelLen := msg[*off]
		*off++

		if labelLen == 0 {
			break
		}

		if isCompressionPointer(labelLen) {
			rest, err := followPointer(msg, off, labelLen, depth, visited)
			if err != nil {
				return "", err
			}
			if rest != "" {
				labels = append(labels, rest)
			}
			break
		}

		if hasReservedBits(labelLen) {
			return "", fmt.Errorf("%w: reserved label length bits set", ErrMalformed)
		}

		label, err := readLabel(msg, off, int(labelLen))
		if err != nil {
			return "", err
		}
		labels = append(labels, label)
	}

	return joinLabels(labels), nil
}

func isCompressionPointer(b byte) bool { return b&0xC0 == 0xC0 }
func hasReservedBits(b byte) bool      { return b&0xC0 != 0 }

// followPointer resolves a 14-bit compression pointer: the low 6 bits of
// the first length byte combined with the following byte give the offset
// from the start of the message (RFC 1035 §4.1.4).
func followPointer(msg []byte, off *int, firstByte byte, depth int, visited map[int]struct{}) (string, error) {
	if *off >= len(msg) {
		return "", fmt.Errorf("%w: unexpected EOF decoding compression pointer", ErrMalformed)
	}
	ptr := int(binary.BigEndian.Uint16([]byte{firstByte & 0x3F, msg[*off]}))
	*off++

	if ptr >= len(msg) {
		return "", fmt.Errorf("%w: compression pointer out of bounds", ErrMalformed)
	}
	if _, seen := visited[ptr]; seen {
		return "", fmt.Errorf("%w: compression pointer loop detected", ErrMalformed)
	}
	visited[ptr] = struct{}{}

	ptrOff := ptr
	return decodeName(msg, &ptrOff, depth+1, visited)
}

func readLabel(msg []byte, off *int, length int) (string, error) {
	if *off+length > len(msg) {
		return "", fmt.Errorf("%w: unexpected EOF reading label", ErrMalformed)
	}
	label := msg[*off : *off+length]
	*off += length
	return string(label), nil
}

func trimDot(s string) string {
	for len(s) > 0 && s[len(s)-1] == '.' {
		s = s[:len(s)-1]
	}
	return s
}

func joinLabels(labels []string) string {
	if len(labels) == 0 {
		return ""
	}
	if len(labels) == 1 {
		return labels[0]
	}
	size := len(labels) - 1
	for _, l := range labels {
		size += len(l)
	}
	var b strings.Builder
	b.Grow(size)
	b.WriteString(labels[0])
	for _, l := range labels[1:] {
		b.WriteByte('.')
		b.WriteString(l)
	}
	return b.String()
}

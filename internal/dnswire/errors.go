// Package dnswire implements the subset of RFC 1035 wire format the relay
// needs: message headers, a single question, A/AAAA answer records, and
// name compression (decode only — this relay never needs to compress a
// name it encodes, since every name it ever writes is either copied
// verbatim from the request or referenced via the fixed 0xC00C pointer
// back to the question).
package dnswire

import "errors"

// ErrMalformed is the sentinel wrapped by every wire-parsing error. Callers
// can test for it with errors.Is; the relay treats any malformed datagram
// the same way regardless of which specific check failed: drop it.
var ErrMalformed = errors.New("dns wire error")

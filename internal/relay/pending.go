package relay

import (
	"net"
	"time"

	"github.com/foxdns/foxdns/internal/dnswire"
)

// PendingForward is a query forwarded upstream and not yet answered: the
// state needed to restore the client's original transaction ID, resend
// the response to the right client address, re-derive the cache key from
// the answer, and synthesize a SERVFAIL if the upstream never replies.
type PendingForward struct {
	ClientAddr *net.UDPAddr
	ClientID   uint16
	Query      dnswire.Query
	Domain     string
	QType      dnswire.RecordType
	Deadline   time.Time
}

// PendingTable correlates upstream_id -> PendingForward. It is owned
// exclusively by the dispatcher goroutine and never locked.
type PendingTable struct {
	entries map[uint16]PendingForward
	nextID  uint16
}

// NewPendingTable creates an empty correlation table.
func NewPendingTable() *PendingTable {
	return &PendingTable{entries: make(map[uint16]PendingForward)}
}

// Allocate reserves the next upstream transaction ID and records fwd under
// it. The counter advances monotonically modulo 2^16 and skips 0 so that
// 0 never collides with a legitimately allocated ID.
func (t *PendingTable) Allocate(fwd PendingForward) uint16 {
	id := t.nextAvailableID()
	t.entries[id] = fwd
	return id
}

func (t *PendingTable) nextAvailableID() uint16 {
	for {
		t.nextID++
		if t.nextID == 0 {
			t.nextID = 1
		}
		if _, taken := t.entries[t.nextID]; !taken {
			return t.nextID
		}
	}
}

// Take removes and returns the forward recorded under id, if any.
func (t *PendingTable) Take(id uint16) (PendingForward, bool) {
	fwd, ok := t.entries[id]
	if ok {
		delete(t.entries, id)
	}
	return fwd, ok
}

// Expired returns the ids of every entry whose deadline is at or before
// now, without removing them — the caller removes each after handling its
// timeout so a single pass can both synthesize the SERVFAIL and drop the
// entry.
func (t *PendingTable) Expired(now time.Time) []uint16 {
	var ids []uint16
	for id, fwd := range t.entries {
		if !now.Before(fwd.Deadline) {
			ids = append(ids, id)
		}
	}
	return ids
}

// Remove deletes id unconditionally.
func (t *PendingTable) Remove(id uint16) {
	delete(t.entries, id)
}

// Len reports the number of in-flight forwards.
func (t *PendingTable) Len() int {
	return len(t.entries)
}

package relay

import "sync/atomic"

// Stats holds the dispatcher's running counters. Fields are accessed with
// atomics solely so the admin API (running on its own goroutines) can read
// them without coordinating with the dispatcher goroutine that increments
// them; the increments themselves still only ever happen on the dispatcher.
type Stats struct {
	QueriesTotal   atomic.Uint64
	HostAnswered   atomic.Uint64
	CacheAnswered  atomic.Uint64
	Forwarded      atomic.Uint64
	TimedOut       atomic.Uint64
	Blocked        atomic.Uint64
	NotImplemented atomic.Uint64
	Malformed      atomic.Uint64
	RateLimited    atomic.Uint64
}

// Snapshot is a point-in-time copy of Stats for serialization.
type Snapshot struct {
	QueriesTotal   uint64 `json:"queries_total"`
	HostAnswered   uint64 `json:"host_answered"`
	CacheAnswered  uint64 `json:"cache_answered"`
	Forwarded      uint64 `json:"forwarded"`
	TimedOut       uint64 `json:"timed_out"`
	Blocked        uint64 `json:"blocked"`
	NotImplemented uint64 `json:"not_implemented"`
	Malformed      uint64 `json:"malformed"`
	RateLimited    uint64 `json:"rate_limited"`
	CacheSize      int    `json:"cache_size"`
	PendingCount   int    `json:"pending_count"`
}

// Snapshot copies the current counters.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		QueriesTotal:   s.QueriesTotal.Load(),
		HostAnswered:   s.HostAnswered.Load(),
		CacheAnswered:  s.CacheAnswered.Load(),
		Forwarded:      s.Forwarded.Load(),
		TimedOut:       s.TimedOut.Load(),
		Blocked:        s.Blocked.Load(),
		NotImplemented: s.NotImplemented.Load(),
		Malformed:      s.Malformed.Load(),
		RateLimited:    s.RateLimited.Load(),
	}
}

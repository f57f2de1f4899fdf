// Package relay implements the single-threaded dispatcher that ties the
// wire codec, host table, cache, and pending-forwards table together into
// the relay's request/response state machine.
package relay

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/foxdns/foxdns/internal/cache"
	"github.com/foxdns/foxdns/internal/filtering"
	"github.com/foxdns/foxdns/internal/hosttable"
)

// DefaultForwardTimeout is how long the dispatcher waits for an upstream
// reply before synthesizing a SERVFAIL and dropping the correlation entry.
const DefaultForwardTimeout = time.Second

// DefaultTickInterval is how often the dispatcher wakes up to check the
// pending-forwards table and, at DefaultCacheSweepInterval's coarser
// cadence, the cache, when no datagram has arrived.
const DefaultTickInterval = 100 * time.Millisecond

// DefaultCacheSweepInterval is the minimum time between cache sweeps: the
// pending-forwards timeout sweep runs on every tick, but the cache sweep
// runs at this coarser cadence since lazy expiry on Get already keeps
// stale entries from being served between sweeps.
const DefaultCacheSweepInterval = 60 * time.Second

// AuditFunc receives one record per query the dispatcher answers from the
// blocklist, the host table or the cache, relays from upstream, or times
// out. Malformed, rate-limited and NOTIMPL queries produce no record. It is
// optional observability plumbing (see internal/store);
// a nil AuditFunc disables it entirely with no effect on query answering.
type AuditFunc func(QueryEvent)

// QueryEvent describes how one query was resolved, for the audit log and
// for debug-level tracing.
type QueryEvent struct {
	Domain   string
	QType    uint16
	Outcome  string // "host", "cache", "forwarded", "blocked", "timeout"
	IP       string
	Latency  time.Duration
	ClientIP string
}

// SnapshotFunc receives a periodic counters/cache/pending snapshot, taken
// at the same cadence as the cache sweep. Like AuditFunc, it is optional
// observability plumbing (see internal/store); a nil SnapshotFunc disables
// it entirely with no effect on query answering.
type SnapshotFunc func(StatsSnapshot)

// StatsSnapshot is one periodic point-in-time view of the dispatcher's
// counters, for the audit store's stats_snapshot table.
type StatsSnapshot struct {
	QueriesTotal uint64
	CacheHits    uint64
	CacheSize    int
	PendingCount int
	Uptime       time.Duration
}

// Dispatcher owns every piece of mutable relay state and is the only
// goroutine that ever touches it: the host table (read-only after load),
// the cache, the pending-forwards table, and the rate limiter. Two
// lightweight receiver goroutines, one per socket, only move bytes onto a
// channel; all decision-making happens here.
type Dispatcher struct {
	Logger *slog.Logger

	ClientConn   *net.UDPConn
	UpstreamConn *net.UDPConn
	UpstreamAddr *net.UDPAddr

	Hosts     *hosttable.Table
	Blocklist *filtering.Blocklist
	Cache     *cache.Cache
	Pending   *PendingTable
	// Limiter rate-limits by exact client IP; PrefixLimiter additionally
	// limits by the client's /24 (IPv4) or /64 (IPv6) prefix, catching a
	// subnet of misbehaving clients that Limiter alone wouldn't (each one
	// individually under its own per-IP quota). Either may be nil to
	// disable that tier.
	Limiter       *TokenBucket
	PrefixLimiter *TokenBucket
	Stats         *Stats

	ForwardTimeout     time.Duration
	TickInterval       time.Duration
	CacheSweepInterval time.Duration

	InstanceID string
	Audit      AuditFunc
	Snapshot   SnapshotFunc

	queryCounter   uint64
	lastCacheSweep time.Time
	startedAt      time.Time
}

type rawPacket struct {
	data []byte
	addr *net.UDPAddr
}

// Run drives the dispatcher loop until ctx is canceled. It starts the
// client and upstream receiver goroutines, then multiplexes their output
// with a periodic tick that expires stale forwards and sweeps the cache —
// the Go-native equivalent of the single-threaded poll loop this design is
// modeled on, with every byte of shared state touched from this one
// goroutine only.
func (d *Dispatcher) Run(ctx context.Context) error {
	if d.ForwardTimeout == 0 {
		d.ForwardTimeout = DefaultForwardTimeout
	}
	if d.TickInterval == 0 {
		d.TickInterval = DefaultTickInterval
	}
	if d.CacheSweepInterval == 0 {
		d.CacheSweepInterval = DefaultCacheSweepInterval
	}

	d.startedAt = time.Now()

	clientPackets := make(chan rawPacket, 256)
	upstreamPackets := make(chan rawPacket, 256)

	go d.receiveLoop(ctx, d.ClientConn, clientPackets)
	go d.receiveLoop(ctx, d.UpstreamConn, upstreamPackets)

	ticker := time.NewTicker(d.TickInterval)
	defer ticker.Stop()

	d.Logger.Info("dispatcher started",
		"instance_id", d.InstanceID,
		"upstream", d.UpstreamAddr.String(),
		"tick_interval", d.TickInterval,
		"forward_timeout", d.ForwardTimeout,
	)

	for {
		select {
		case <-ctx.Done():
			d.Logger.Info("dispatcher stopping")
			return ctx.Err()
		case pkt := <-clientPackets:
			d.onClientPacket(pkt)
		case pkt := <-upstreamPackets:
			d.onUpstreamPacket(pkt)
		case now := <-ticker.C:
			d.onTick(now)
		}
	}
}

func (d *Dispatcher) receiveLoop(ctx context.Context, conn *net.UDPConn, out chan<- rawPacket) {
	buf := make([]byte, 65535)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_ = conn.SetReadDeadline(time.Now().Add(d.TickInterval))
		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			d.Logger.Debug("udp read error", "error", err)
			continue
		}

		data := make([]byte, n)
		copy(data, buf[:n])

		select {
		case out <- rawPacket{data: data, addr: addr}:
		case <-ctx.Done():
			return
		}
	}
}

func (d *Dispatcher) onTick(now time.Time) {
	d.expirePending(now)
	if now.Sub(d.lastCacheSweep) >= d.CacheSweepInterval {
		d.Cache.Sweep(now)
		d.lastCacheSweep = now
		d.recordSnapshot(now)
	}
}

// recordSnapshot reports a point-in-time view of the dispatcher's counters
// to Snapshot, at the same coarse cadence as the cache sweep, so the audit
// store's stats_snapshot table gets a row without adding a second ticker.
func (d *Dispatcher) recordSnapshot(now time.Time) {
	if d.Snapshot == nil {
		return
	}
	cacheStats := d.Cache.Stats()
	d.Snapshot(StatsSnapshot{
		QueriesTotal: d.Stats.QueriesTotal.Load(),
		CacheHits:    cacheStats.Hits,
		CacheSize:    cacheStats.Size,
		PendingCount: d.Pending.Len(),
		Uptime:       now.Sub(d.startedAt),
	})
}

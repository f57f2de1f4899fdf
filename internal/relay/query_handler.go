package relay

import (
	"net"
	"net/netip"
	"time"

	"github.com/foxdns/foxdns/internal/cache"
	"github.com/foxdns/foxdns/internal/dnswire"
	"github.com/foxdns/foxdns/internal/hosttable"
)

// onClientPacket implements the client-query half of the relay's decision
// tree: malformed datagrams are dropped, unsupported types get NOTIMPL,
// blocklisted or sentinel-mapped names get NXDOMAIN, host-table and cache
// hits are answered directly, and everything else is forwarded upstream
// under a freshly allocated correlation id.
func (d *Dispatcher) onClientPacket(pkt rawPacket) {
	start := time.Now()
	d.Stats.QueriesTotal.Add(1)

	query, err := dnswire.ParseQuery(pkt.data)
	if err != nil {
		d.Stats.Malformed.Add(1)
		d.Logger.Debug("dropping malformed client query", "error", err, "client", pkt.addr)
		return
	}

	d.queryCounter++
	domain := query.Question.Name
	d.Logger.Info("client query",
		"seq", d.queryCounter,
		"domain", domain,
		"qtype", query.Question.Type,
		"client", pkt.addr,
	)

	if d.rateLimited(pkt.addr, start) {
		d.Stats.RateLimited.Add(1)
		d.Logger.Debug("rate limited", "client", pkt.addr, "domain", domain)
		return
	}

	if query.Question.Class != dnswire.ClassIN {
		d.respondNotImp(query, pkt.addr)
		return
	}
	if query.Question.Type != dnswire.TypeA && query.Question.Type != dnswire.TypeAAAA {
		d.respondNotImp(query, pkt.addr)
		return
	}

	if d.Blocklist.Blocked(domain) {
		d.Stats.Blocked.Add(1)
		d.respondError(query, pkt.addr, dnswire.RCodeNXDomain)
		d.emit(domain, query.Question.Type, "blocked", "", start, pkt.addr)
		return
	}

	if rec, ok := d.Hosts.Lookup(domain); ok {
		d.answerFromHostTable(query, rec, pkt.addr, domain, start)
		return
	}

	if entry, ok := d.Cache.Get(cache.Key{Domain: domain, QType: uint16(query.Question.Type)}, start); ok {
		d.Stats.CacheAnswered.Add(1)
		resp, err := dnswire.BuildAnswer(query, query.Question.Type, net.IP(entry.IP.AsSlice()), entry.TTL)
		if err != nil {
			d.Logger.Debug("failed to build cached answer, falling back to SERVFAIL", "error", err, "domain", domain)
			d.respondError(query, pkt.addr, dnswire.RCodeServFail)
			return
		}
		d.send(d.ClientConn, pkt.addr, resp)
		d.emit(domain, query.Question.Type, "cache", entry.IP.String(), start, pkt.addr)
		return
	}

	d.forward(query, pkt.addr, start)
}

func (d *Dispatcher) answerFromHostTable(query dnswire.Query, rec hosttable.Record, clientAddr *net.UDPAddr, domain string, start time.Time) {
	if rec.Blocked {
		d.Stats.Blocked.Add(1)
		d.respondError(query, clientAddr, dnswire.RCodeNXDomain)
		d.emit(domain, query.Question.Type, "blocked", "", start, clientAddr)
		return
	}

	wantV4 := query.Question.Type == dnswire.TypeA
	haveV4 := rec.Addr.Is4()

	if wantV4 != haveV4 {
		// Host table has a record for this name, just not of the
		// requested type: answer NOERROR with no answers rather than
		// NXDOMAIN, since the name does exist.
		d.respondError(query, clientAddr, dnswire.RCodeNoError)
		d.emit(domain, query.Question.Type, "host", "", start, clientAddr)
		return
	}

	resp, err := dnswire.BuildAnswer(query, query.Question.Type, net.IP(rec.Addr.AsSlice()), hostTableTTL)
	if err != nil {
		d.Logger.Debug("failed to build host-table answer, falling back to SERVFAIL", "error", err, "domain", domain)
		d.respondError(query, clientAddr, dnswire.RCodeServFail)
		return
	}

	d.Stats.HostAnswered.Add(1)
	d.send(d.ClientConn, clientAddr, resp)
	d.emit(domain, query.Question.Type, "host", rec.Addr.String(), start, clientAddr)
}

// hostTableTTL is the fixed TTL used for every host-table answer, matching
// the static, never-expiring nature of entries loaded from the host file.
const hostTableTTL = 300

func (d *Dispatcher) respondNotImp(query dnswire.Query, clientAddr *net.UDPAddr) {
	d.Stats.NotImplemented.Add(1)
	d.respondError(query, clientAddr, dnswire.RCodeNotImp)
}

func (d *Dispatcher) respondError(query dnswire.Query, clientAddr *net.UDPAddr, rcode dnswire.RCode) {
	resp, err := dnswire.BuildErrorResponse(query, rcode)
	if err != nil {
		d.Logger.Debug("failed to build error response", "error", err, "rcode", rcode)
		return
	}
	d.send(d.ClientConn, clientAddr, resp)
}

// forward allocates a correlation id, records a PendingForward, rewrites
// the query's transaction id, and sends it to the upstream resolver.
func (d *Dispatcher) forward(query dnswire.Query, clientAddr *net.UDPAddr, start time.Time) {
	upstreamID := d.Pending.Allocate(PendingForward{
		ClientAddr: clientAddr,
		ClientID:   query.Header.ID,
		Query:      query,
		Domain:     query.Question.Name,
		QType:      query.Question.Type,
		Deadline:   start.Add(d.ForwardTimeout),
	})

	outbound := make([]byte, len(query.Raw))
	copy(outbound, query.Raw)
	outbound = dnswire.SetTransactionID(outbound, upstreamID)

	d.Stats.Forwarded.Add(1)
	d.send(d.UpstreamConn, d.UpstreamAddr, outbound)
}

// onUpstreamPacket implements the upstream-response half of the decision
// tree: an id that doesn't match a pending forward is dropped silently (it
// may belong to a forward this relay already timed out); a match is cached
// (when it decodes as a usable A/AAAA answer) and relayed to the original
// client with its original transaction id restored.
func (d *Dispatcher) onUpstreamPacket(pkt rawPacket) {
	id, err := dnswire.TransactionID(pkt.data)
	if err != nil {
		return
	}

	fwd, ok := d.Pending.Take(id)
	if !ok {
		d.Logger.Debug("dropping unmatched upstream response", "upstream_id", id)
		return
	}

	resolvedIP := ""
	if ans, ok := dnswire.ExtractFirstAnswer(pkt.data, fwd.QType); ok {
		d.Cache.Set(cache.Key{Domain: fwd.Domain, QType: uint16(fwd.QType)}, cache.Entry{
			IP:         ans.IP,
			TTL:        ans.TTL,
			InsertedAt: time.Now(),
		})
		resolvedIP = ans.IP.String()
	}

	restored := dnswire.SetTransactionID(pkt.data, fwd.ClientID)
	d.send(d.ClientConn, fwd.ClientAddr, restored)
	d.emit(fwd.Domain, fwd.QType, "forwarded", resolvedIP, fwd.Deadline.Add(-d.ForwardTimeout), fwd.ClientAddr)
}

// expirePending synthesizes a SERVFAIL for every forward whose deadline
// has passed and the upstream never answered.
func (d *Dispatcher) expirePending(now time.Time) {
	for _, id := range d.Pending.Expired(now) {
		fwd, ok := d.Pending.Take(id)
		if !ok {
			continue
		}
		d.Stats.TimedOut.Add(1)
		d.respondError(fwd.Query, fwd.ClientAddr, dnswire.RCodeServFail)
		d.emit(fwd.Domain, fwd.QType, "timeout", "", now.Add(-d.ForwardTimeout), fwd.ClientAddr)
	}
}

// rateLimited checks the exact-IP bucket first (cheaper to exhaust, so it
// should trip first in the common case) and only falls through to the
// coarser prefix bucket when the IP bucket still has room, so a single
// well-behaved client never gets penalized for a noisy neighbor sharing
// its /24 or /64 unless its own prefix is genuinely saturated.
func (d *Dispatcher) rateLimited(addr *net.UDPAddr, now time.Time) bool {
	if d.Limiter != nil && !d.Limiter.Allow(addr.IP.String(), now) {
		return true
	}
	if d.PrefixLimiter == nil {
		return false
	}
	ip, ok := netip.AddrFromSlice(addr.IP)
	if !ok {
		return false
	}
	return !d.PrefixLimiter.Allow(PrefixKey(ip.Unmap()), now)
}

func (d *Dispatcher) send(conn *net.UDPConn, addr *net.UDPAddr, data []byte) {
	if _, err := conn.WriteToUDP(data, addr); err != nil {
		// Per the error-handling design, a send failure is logged and
		// otherwise ignored: there is nothing a UDP relay can usefully
		// retry here, and the client's own retransmission covers it.
		d.Logger.Debug("udp write error", "error", err, "addr", addr)
	}
}

func (d *Dispatcher) emit(domain string, qtype dnswire.RecordType, outcome, ip string, start time.Time, clientAddr *net.UDPAddr) {
	if d.Audit == nil {
		return
	}
	d.Audit(QueryEvent{
		Domain:   domain,
		QType:    uint16(qtype),
		Outcome:  outcome,
		IP:       ip,
		Latency:  time.Since(start),
		ClientIP: clientAddr.IP.String(),
	})
}

package relay

import (
	"net/netip"
	"time"
)

// TokenBucket is a simple per-key token bucket. Unlike the multi-socket
// server this is adapted from, the dispatcher that owns a TokenBucket runs
// on a single goroutine, so no mutex is needed here.
type TokenBucket struct {
	Rate  float64 // tokens added per second
	Burst float64 // bucket capacity

	tokens     map[string]float64
	lastRefill map[string]time.Time

	maxEntries      int
	cleanupInterval time.Duration
	lastCleanup     time.Time
}

// NewTokenBucket creates a limiter allowing rate queries/sec per key with
// burst capacity burst, forgetting idle keys after cleanupInterval so the
// maps don't grow without bound across a long-running process.
func NewTokenBucket(rate, burst float64, maxEntries int, cleanupInterval time.Duration) *TokenBucket {
	return &TokenBucket{
		Rate:            rate,
		Burst:           burst,
		tokens:          make(map[string]float64),
		lastRefill:      make(map[string]time.Time),
		maxEntries:      maxEntries,
		cleanupInterval: cleanupInterval,
	}
}

// Allow reports whether a query from key (e.g. a client IP string) should
// proceed, consuming one token if so.
func (b *TokenBucket) Allow(key string, now time.Time) bool {
	last, ok := b.lastRefill[key]
	if !ok {
		last = now
		b.tokens[key] = b.Burst
	}

	elapsed := now.Sub(last).Seconds()
	tokens := b.tokens[key] + elapsed*b.Rate
	if tokens > b.Burst {
		tokens = b.Burst
	}

	allowed := tokens >= 1
	if allowed {
		tokens--
	}

	b.tokens[key] = tokens
	b.lastRefill[key] = now

	b.maybeCleanup(now)
	return allowed
}

func (b *TokenBucket) maybeCleanup(now time.Time) {
	if b.cleanupInterval <= 0 {
		return
	}
	if b.maxEntries > 0 && len(b.tokens) < b.maxEntries && now.Sub(b.lastCleanup) < b.cleanupInterval {
		return
	}
	b.lastCleanup = now
	for key, last := range b.lastRefill {
		if now.Sub(last) > b.cleanupInterval {
			delete(b.tokens, key)
			delete(b.lastRefill, key)
		}
	}
}

// PrefixKey returns the /24 (IPv4) or /64 (IPv6) prefix of addr as a
// string, used to rate limit by subnet in addition to exact client IP.
func PrefixKey(addr netip.Addr) string {
	if addr.Is4() {
		p, err := addr.Prefix(24)
		if err != nil {
			return addr.String()
		}
		return p.String()
	}
	p, err := addr.Prefix(64)
	if err != nil {
		return addr.String()
	}
	return p.String()
}

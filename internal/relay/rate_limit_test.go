package relay

import (
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTokenBucketAllowsBurstThenThrottles(t *testing.T) {
	b := NewTokenBucket(1, 3, 16, time.Minute)
	now := time.Now()

	require.True(t, b.Allow("1.2.3.4", now))
	require.True(t, b.Allow("1.2.3.4", now))
	require.True(t, b.Allow("1.2.3.4", now))
	require.False(t, b.Allow("1.2.3.4", now))

	now = now.Add(time.Second)
	require.True(t, b.Allow("1.2.3.4", now))
}

func TestTokenBucketTracksKeysIndependently(t *testing.T) {
	b := NewTokenBucket(1, 1, 16, time.Minute)
	now := time.Now()

	require.True(t, b.Allow("1.2.3.4", now))
	require.False(t, b.Allow("1.2.3.4", now))
	require.True(t, b.Allow("5.6.7.8", now))
}

func TestTokenBucketCleanupForgetsIdleKeys(t *testing.T) {
	b := NewTokenBucket(1, 1, 1, time.Second)
	now := time.Now()

	require.True(t, b.Allow("1.2.3.4", now))
	require.Len(t, b.tokens, 1)

	later := now.Add(2 * time.Second)
	require.True(t, b.Allow("5.6.7.8", later))
	require.Len(t, b.tokens, 1)
	require.Contains(t, b.tokens, "5.6.7.8")
}

func TestPrefixKeyIPv4UsesSlash24(t *testing.T) {
	addr := netip.MustParseAddr("203.0.113.9")
	require.Equal(t, "203.0.113.0/24", PrefixKey(addr))

	other := netip.MustParseAddr("203.0.113.250")
	require.Equal(t, PrefixKey(addr), PrefixKey(other))
}

func TestPrefixKeyIPv6UsesSlash64(t *testing.T) {
	addr := netip.MustParseAddr("2001:db8::1")
	require.Equal(t, "2001:db8::/64", PrefixKey(addr))

	other := netip.MustParseAddr("2001:db8::ffff")
	require.Equal(t, PrefixKey(addr), PrefixKey(other))
}

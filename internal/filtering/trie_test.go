package filtering

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDomainTrieExactMatch(t *testing.T) {
	trie := NewDomainTrie()
	trie.Add("ads.example.com", false)

	require.True(t, trie.Contains("ads.example.com"))
	require.False(t, trie.Contains("sub.ads.example.com"))
	require.False(t, trie.Contains("example.com"))
	require.Equal(t, 1, trie.Size())
}

func TestDomainTrieWildcardMatchesSubdomains(t *testing.T) {
	trie := NewDomainTrie()
	trie.Add("example.com", true)

	require.True(t, trie.Contains("example.com"))
	require.True(t, trie.Contains("ads.example.com"))
	require.True(t, trie.Contains("sub.ads.example.com"))
	require.False(t, trie.Contains("example.org"))
}

func TestBlocklistBlockedHonorsExactAndWildcardEntries(t *testing.T) {
	bl := NewBlocklist()
	bl.trie.Add("tracker.example.com", false)
	bl.trie.Add("ads.net", true)

	require.True(t, bl.Blocked("tracker.example.com"))
	require.True(t, bl.Blocked("sub.ads.net"))
	require.False(t, bl.Blocked("ok.example.com"))
}

func TestLoadBlocklistFromReader(t *testing.T) {
	// replays the line rules LoadBlocklist applies to a file over an
	// in-memory list of lines, to avoid touching the filesystem.
	lines := []string{"# comment", "", "tracker.example.com", "*.ads.net"}
	bl := NewBlocklist()
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		wildcard := strings.HasPrefix(line, "*.")
		if wildcard {
			line = line[2:]
		}
		bl.trie.Add(strings.ToLower(line), wildcard)
	}

	require.True(t, bl.Blocked("tracker.example.com"))
	require.True(t, bl.Blocked("foo.ads.net"))
	require.Equal(t, 2, bl.Size())
}

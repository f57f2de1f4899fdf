// Package hosttable loads the static domain -> IP table the relay answers
// from before ever consulting the cache or the upstream resolver.
package hosttable

import (
	"bufio"
	"fmt"
	"io"
	"net/netip"
	"os"
	"strings"
)

// Record is one parsed line of the host file: a domain mapped to either an
// IPv4 or IPv6 address, or to the 0.0.0.0 blocklist sentinel.
type Record struct {
	Domain string
	Addr   netip.Addr
	// Blocked is true for the 0.0.0.0 sentinel entries, which the
	// dispatcher answers with NXDOMAIN rather than a synthesized A
	// record.
	Blocked bool
}

// Table is a frozen, case-insensitive domain -> Record map built once at
// startup. It is read-only after Load returns, so the dispatcher goroutine
// can consult it without synchronization.
type Table struct {
	records map[string]Record
}

var blockedSentinel = netip.MustParseAddr("0.0.0.0")

// Load reads a host file in "IP DOMAIN" format, one mapping per line.
// Blank lines, lines starting with '#', and lines that don't parse as
// exactly two whitespace-separated fields with a valid IP are silently
// skipped, matching the original relay's tolerant line loader.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open host table %s: %w", path, err)
	}
	defer f.Close()
	return loadFrom(f)
}

func loadFrom(r io.Reader) (*Table, error) {
	t := &Table{records: make(map[string]Record)}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		ipStr, domain := fields[0], fields[1]

		addr, err := netip.ParseAddr(ipStr)
		if err != nil {
			continue
		}

		domain = strings.ToLower(strings.TrimSuffix(domain, "."))
		t.records[domain] = Record{
			Domain:  domain,
			Addr:    addr,
			Blocked: addr == blockedSentinel,
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read host table: %w", err)
	}
	return t, nil
}

// Lookup returns the record for domain (already lowercased by the caller's
// normalized question name), and whether one exists.
func (t *Table) Lookup(domain string) (Record, bool) {
	rec, ok := t.records[domain]
	return rec, ok
}

// Len reports how many domains are loaded.
func (t *Table) Len() int {
	return len(t.records)
}

// All returns every loaded record, for the admin API's listing endpoint.
func (t *Table) All() []Record {
	out := make([]Record, 0, len(t.records))
	for _, rec := range t.records {
		out = append(out, rec)
	}
	return out
}

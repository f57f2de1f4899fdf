package store

import "fmt"

// AuditRecord is one query outcome.
type AuditRecord struct {
	ObservedAt int64
	Domain     string
	QType      uint16
	Outcome    string
	ResolvedIP string
	ClientIP   string
	LatencyMS  int64
}

// RecordQuery inserts one audit row.
func (db *DB) RecordQuery(r AuditRecord) error {
	_, err := db.conn.Exec(
		`INSERT INTO query_audit (observed_at, domain, qtype, outcome, resolved_ip, client_ip, latency_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ObservedAt, r.Domain, r.QType, r.Outcome, r.ResolvedIP, r.ClientIP, r.LatencyMS,
	)
	if err != nil {
		return fmt.Errorf("insert query audit row: %w", err)
	}
	return nil
}

// StatsSnapshot is one periodic counter snapshot.
type StatsSnapshot struct {
	ObservedAt    int64
	QueriesTotal  uint64
	CacheHits     uint64
	CacheSize     int
	PendingCount  int
	UptimeSeconds int64
}

// RecordSnapshot inserts one stats snapshot row.
func (db *DB) RecordSnapshot(s StatsSnapshot) error {
	_, err := db.conn.Exec(
		`INSERT INTO stats_snapshot (observed_at, queries_total, cache_hits, cache_size, pending_count, uptime_seconds)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		s.ObservedAt, s.QueriesTotal, s.CacheHits, s.CacheSize, s.PendingCount, s.UptimeSeconds,
	)
	if err != nil {
		return fmt.Errorf("insert stats snapshot row: %w", err)
	}
	return nil
}

// RecentQueries returns the most recent limit audit rows, newest first.
func (db *DB) RecentQueries(limit int) ([]AuditRecord, error) {
	rows, err := db.conn.Query(
		`SELECT observed_at, domain, qtype, outcome, resolved_ip, client_ip, latency_ms
		 FROM query_audit ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent audit rows: %w", err)
	}
	defer rows.Close()

	var out []AuditRecord
	for rows.Next() {
		var r AuditRecord
		if err := rows.Scan(&r.ObservedAt, &r.Domain, &r.QType, &r.Outcome, &r.ResolvedIP, &r.ClientIP, &r.LatencyMS); err != nil {
			return nil, fmt.Errorf("scan audit row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

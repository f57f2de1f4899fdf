package models

import "time"

// CPUStats contains system CPU statistics.
type CPUStats struct {
	NumCPU      int     `json:"num_cpu"`
	UsedPercent float64 `json:"used_percent"`
	IdlePercent float64 `json:"idle_percent"`
}

// MemoryStats contains system memory statistics.
type MemoryStats struct {
	TotalMB     float64 `json:"total_mb"`
	FreeMB      float64 `json:"free_mb"`
	UsedMB      float64 `json:"used_mb"`
	UsedPercent float64 `json:"used_percent"`
}

// ServerStatsResponse contains server runtime statistics.
type ServerStatsResponse struct {
	Uptime        string           `json:"uptime"`
	UptimeSeconds int64            `json:"uptime_seconds"`
	StartTime     time.Time        `json:"start_time"`
	CPU           CPUStats         `json:"cpu"`
	Memory        MemoryStats      `json:"memory"`
	DNS           DNSStatsResponse `json:"dns"`
}

// DNSStatsResponse contains the dispatcher's query outcome counters plus
// the current size of its in-memory tables.
type DNSStatsResponse struct {
	QueriesTotal   uint64             `json:"queries_total"`
	HostAnswered   uint64             `json:"host_answered"`
	CacheAnswered  uint64             `json:"cache_answered"`
	Forwarded      uint64             `json:"forwarded"`
	TimedOut       uint64             `json:"timed_out"`
	Blocked        uint64             `json:"blocked"`
	NotImplemented uint64             `json:"not_implemented"`
	Malformed      uint64             `json:"malformed"`
	RateLimited    uint64             `json:"rate_limited"`
	PendingCount   int                `json:"pending_count"`
	HostTableSize  int                `json:"host_table_size"`
	BlocklistSize  int                `json:"blocklist_size"`
	Cache          CacheStatsResponse `json:"cache"`
}

// CacheStatsResponse mirrors cache.Stats: the hit/miss/expiry/eviction
// counters spec.md's §4.C cache design requires, plus the derived hit
// rate (hits / (hits+misses), 0 when nothing has been looked up yet).
type CacheStatsResponse struct {
	Size    int     `json:"size"`
	MaxSize int     `json:"max_size"`
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	Expired uint64  `json:"expired"`
	Evicted uint64  `json:"evicted"`
	HitRate float64 `json:"hit_rate"`
}

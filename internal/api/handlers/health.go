package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/foxdns/foxdns/internal/api/models"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Health godoc
// @Summary Health check
// @Description Returns server health status
// @Tags system
// @Produce json
// @Success 200 {object} models.StatusResponse
// @Router /healthz [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, models.StatusResponse{Status: "ok"})
}

// Stats godoc
// @Summary Server statistics
// @Description Returns runtime statistics including system CPU usage, memory usage, and relay counters
// @Tags system
// @Produce json
// @Success 200 {object} models.ServerStatsResponse
// @Router /stats [get]
func (h *Handler) Stats(c *gin.Context) {
	uptime := time.Since(h.startTime)

	memStats := models.MemoryStats{}
	if vmStat, err := mem.VirtualMemory(); err == nil {
		memStats.TotalMB = float64(vmStat.Total) / 1024 / 1024
		memStats.FreeMB = float64(vmStat.Available) / 1024 / 1024
		memStats.UsedMB = float64(vmStat.Used) / 1024 / 1024
		memStats.UsedPercent = vmStat.UsedPercent
	}

	cpuStats := models.CPUStats{
		NumCPU: runtime.NumCPU(),
	}
	if cpuPercent, err := cpu.Percent(200*time.Millisecond, false); err == nil && len(cpuPercent) > 0 {
		cpuStats.UsedPercent = cpuPercent[0]
		cpuStats.IdlePercent = 100.0 - cpuPercent[0]
	}

	resp := models.ServerStatsResponse{
		Uptime:        uptime.Round(time.Second).String(),
		UptimeSeconds: int64(uptime.Seconds()),
		StartTime:     h.startTime,
		CPU:           cpuStats,
		Memory:        memStats,
		DNS:           h.dnsStats(),
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) dnsStats() models.DNSStatsResponse {
	if h.dispatcher == nil {
		return models.DNSStatsResponse{}
	}

	snap := h.dispatcher.Stats.Snapshot()
	resp := models.DNSStatsResponse{
		QueriesTotal:   snap.QueriesTotal,
		HostAnswered:   snap.HostAnswered,
		CacheAnswered:  snap.CacheAnswered,
		Forwarded:      snap.Forwarded,
		TimedOut:       snap.TimedOut,
		Blocked:        snap.Blocked,
		NotImplemented: snap.NotImplemented,
		Malformed:      snap.Malformed,
		RateLimited:    snap.RateLimited,
	}
	if h.dispatcher.Cache != nil {
		cacheStats := h.dispatcher.Cache.Stats()
		resp.Cache = models.CacheStatsResponse{
			Size:    cacheStats.Size,
			MaxSize: cacheStats.MaxSize,
			Hits:    cacheStats.Hits,
			Misses:  cacheStats.Misses,
			Expired: cacheStats.Expired,
			Evicted: cacheStats.Evicted,
			HitRate: cacheStats.HitRate,
		}
	}
	if h.dispatcher.Pending != nil {
		resp.PendingCount = h.dispatcher.Pending.Len()
	}
	if h.dispatcher.Hosts != nil {
		resp.HostTableSize = h.dispatcher.Hosts.Len()
	}
	if h.dispatcher.Blocklist != nil {
		resp.BlocklistSize = h.dispatcher.Blocklist.Size()
	}
	return resp
}

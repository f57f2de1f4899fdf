package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/foxdns/foxdns/internal/api/models"
)

// Hosts godoc
// @Summary List host table entries
// @Description Returns every domain loaded from the static host table
// @Tags hosts
// @Produce json
// @Success 200 {array} models.HostRecord
// @Router /hosts [get]
func (h *Handler) Hosts(c *gin.Context) {
	if h.dispatcher == nil || h.dispatcher.Hosts == nil {
		c.JSON(http.StatusOK, []models.HostRecord{})
		return
	}

	records := h.dispatcher.Hosts.All()
	out := make([]models.HostRecord, 0, len(records))
	for _, rec := range records {
		out = append(out, models.HostRecord{
			Domain:  rec.Domain,
			Addr:    rec.Addr.String(),
			Blocked: rec.Blocked,
		})
	}
	c.JSON(http.StatusOK, out)
}

package handlers_test

import (
	"github.com/gin-gonic/gin"
	"github.com/foxdns/foxdns/internal/api/handlers"
)

func setupTestRouter(h *handlers.Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	r.GET("/healthz", h.Health)
	r.GET("/stats", h.Stats)
	r.GET("/hosts", h.Hosts)

	return r
}

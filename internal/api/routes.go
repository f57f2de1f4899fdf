package api

import (
	"github.com/gin-gonic/gin"
	"github.com/foxdns/foxdns/internal/api/handlers"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/foxdns/foxdns/internal/api/docs" // swagger docs
)

// RegisterRoutes wires the admin API's read-only endpoint set. Routes live
// at the root, not under a versioned group: this is a small fixed surface,
// never a DNS data path dependency.
func RegisterRoutes(r *gin.Engine, h *handlers.Handler) {
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/healthz", h.Health)
	r.GET("/stats", h.Stats)
	r.GET("/hosts", h.Hosts)
}

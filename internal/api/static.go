package api

import (
	"embed"

	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"
)

// embeddedStatus is a tiny status page served at "/", separate from the
// JSON endpoints under /healthz, /stats and /hosts.
//
//go:embed static/index.html
var embeddedStatus embed.FS

func mountStatic(r *gin.Engine) {
	fs, err := static.EmbedFolder(embeddedStatus, "static")
	if err != nil {
		panic("api: failed to load embedded static assets: " + err.Error())
	}
	r.Use(static.Serve("/", fs))
}

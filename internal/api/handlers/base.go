// Package handlers implements the REST API endpoint handlers for the relay's
// admin interface.
//
// @title FoxDNS Admin API
// @version 1.0
// @description Read-only status and diagnostics API for a running relay instance.
//
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
//
// @host localhost:8080
// @BasePath /
package handlers

import (
	"log/slog"
	"time"

	"github.com/foxdns/foxdns/internal/relay"
	"github.com/foxdns/foxdns/internal/store"
)

// Handler contains dependencies for API handlers. It never touches the
// dispatcher's mutable state directly except through the Stats snapshot
// and the read-only Hosts/Blocklist tables, none of which require
// synchronization with the dispatcher goroutine.
type Handler struct {
	logger     *slog.Logger
	startTime  time.Time
	dispatcher *relay.Dispatcher
	store      *store.DB
}

// New creates a new Handler. store may be nil when the audit log is
// disabled.
func New(logger *slog.Logger, dispatcher *relay.Dispatcher, db *store.DB) *Handler {
	return &Handler{
		logger:     logger,
		startTime:  time.Now(),
		dispatcher: dispatcher,
		store:      db,
	}
}

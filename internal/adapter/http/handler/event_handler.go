package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/iho/erpledger/internal/infrastructure/websocket"
)

// EventHandler streams a company's ledger events over a websocket.
type EventHandler struct {
	hub    *websocket.Hub
	logger zerolog.Logger
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(hub *websocket.Hub, logger zerolog.Logger) *EventHandler {
	return &EventHandler{hub: hub, logger: logger}
}

// Stream upgrades the connection for ?company_id=.
func (h *EventHandler) Stream(w http.ResponseWriter, r *http.Request) {
	companyID := r.URL.Query().Get("company_id")
	if companyID == "" {
		writeError(w, http.StatusBadRequest, "missing company ID", "")
		return
	}

	websocket.ServeWS(w, r, h.hub, companyID, h.logger)
}

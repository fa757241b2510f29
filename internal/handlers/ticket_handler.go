package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mailticket/internal/models"
	"github.com/ternarybob/mailticket/internal/services/ticket"
)

// TicketHandler handles ticket draft and creation requests
type TicketHandler struct {
	tickets *ticket.Service
	logger  arbor.ILogger
}

func NewTicketHandler(ticketService *ticket.Service, logger arbor.ILogger) *TicketHandler {
	return &TicketHandler{
		tickets: ticketService,
		logger:  logger,
	}
}

// DraftHandler handles POST /api/tickets/draft with an ExtractedEmail body
func (h *TicketHandler) DraftHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var email models.ExtractedEmail
	if !DecodeJSON(w, r, &email) {
		return
	}

	draft, err := h.tickets.Draft(r.Context(), email)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, draft)
}

// CreateHandler handles POST /api/tickets
func (h *TicketHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req models.TicketRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	issue, err := h.tickets.Submit(r.Context(), req)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusCreated, issue)
}

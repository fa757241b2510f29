package handlers

import (
	"context"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mailticket/internal/models"
	"github.com/ternarybob/mailticket/internal/services/browser"
	"github.com/ternarybob/mailticket/internal/services/extractor"
	"github.com/ternarybob/mailticket/internal/services/status"
	"github.com/ternarybob/mailticket/internal/services/ticket"
)

// PageCapturer reads the open webmail tab of a running browser
type PageCapturer interface {
	Capture(ctx context.Context, match string) (*browser.Page, error)
}

// ExtractRequest is the page the browser extension sends
type ExtractRequest struct {
	URL  string `json:"url"`
	HTML string `json:"html"`
}

// ExtractResponse carries the extracted email and, on success, a ticket draft built from it
type ExtractResponse struct {
	Email models.ExtractedEmail `json:"email"`
	Draft *models.TicketRequest `json:"draft,omitempty"`
}

// ExtractHandler handles email extraction requests
type ExtractHandler struct {
	extractor *extractor.Service
	tickets   *ticket.Service
	browser   PageCapturer
	status    *status.Service
	logger    arbor.ILogger
}

// NewExtractHandler creates a new ExtractHandler. capturer may be nil when no browser is configured.
func NewExtractHandler(extractorService *extractor.Service, ticketService *ticket.Service, capturer PageCapturer, statusService *status.Service, logger arbor.ILogger) *ExtractHandler {
	return &ExtractHandler{
		extractor: extractorService,
		tickets:   ticketService,
		browser:   capturer,
		status:    statusService,
		logger:    logger,
	}
}

// ExtractPageHandler handles POST /api/extract
func (h *ExtractHandler) ExtractPageHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req ExtractRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	h.run(w, r, func() (models.ExtractedEmail, error) {
		return h.extractor.Extract(req.URL, req.HTML), nil
	})
}

// ExtractMessageHandler handles POST /api/extract/message with a raw RFC 822 body
func (h *ExtractHandler) ExtractMessageHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	h.run(w, r, func() (models.ExtractedEmail, error) {
		return h.extractor.ExtractMessage(body), nil
	})
}

// ExtractBrowserHandler handles POST /api/extract/browser, capturing the open tab itself
func (h *ExtractHandler) ExtractBrowserHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}
	if h.browser == nil {
		WriteError(w, http.StatusServiceUnavailable, "Browser capture is not configured")
		return
	}

	match := r.URL.Query().Get("match")
	h.run(w, r, func() (models.ExtractedEmail, error) {
		page, err := h.browser.Capture(r.Context(), match)
		if err != nil {
			return models.ExtractedEmail{}, err
		}
		return h.extractor.Extract(page.URL, page.HTML), nil
	})
}

// run executes one extraction under the at-most-one guard and writes the result.
// The guard covers the whole of extract, including any page capture.
func (h *ExtractHandler) run(w http.ResponseWriter, r *http.Request, extract func() (models.ExtractedEmail, error)) {
	if !h.status.Begin(status.OpExtract) {
		WriteError(w, http.StatusConflict, "An extraction is already in progress")
		return
	}
	email, err := extract()
	h.status.End(status.OpExtract)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Browser capture failed")
		WriteError(w, http.StatusBadGateway, err.Error())
		return
	}

	resp := ExtractResponse{Email: email}
	if !email.Success {
		WriteJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}

	draft, err := h.tickets.Draft(r.Context(), email)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to build ticket draft")
	} else {
		resp.Draft = draft
	}

	WriteJSON(w, http.StatusOK, resp)
}

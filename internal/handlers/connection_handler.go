package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mailticket/internal/interfaces"
	"github.com/ternarybob/mailticket/internal/services/jira"
)

// ConnectionHandler tests the tracker credentials
type ConnectionHandler struct {
	client interfaces.JiraClient
	logger arbor.ILogger
}

func NewConnectionHandler(client interfaces.JiraClient, logger arbor.ILogger) *ConnectionHandler {
	return &ConnectionHandler{
		client: client,
		logger: logger,
	}
}

// TestHandler handles POST /api/connection/test
func (h *ConnectionHandler) TestHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	user, err := h.client.Myself(r.Context())
	if err != nil {
		h.logger.Warn().Err(err).Msg("Connection test failed")
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"success": false,
			"error":   jira.UserMessage(err),
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"displayName": user.DisplayName,
		"message":     "Connection successful! Logged in as " + user.DisplayName,
	})
}

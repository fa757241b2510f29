package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mailticket/internal/interfaces"
)

// SettingsHandler exposes the small persisted settings (e.g. the last used project)
type SettingsHandler struct {
	kv     interfaces.KeyValueStorage
	logger arbor.ILogger
}

func NewSettingsHandler(kv interfaces.KeyValueStorage, logger arbor.ILogger) *SettingsHandler {
	return &SettingsHandler{
		kv:     kv,
		logger: logger,
	}
}

// ListHandler handles GET /api/settings
func (h *SettingsHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	pairs, err := h.kv.List(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list settings")
		WriteError(w, http.StatusInternalServerError, "Failed to list settings")
		return
	}
	if pairs == nil {
		pairs = []interfaces.KeyValuePair{}
	}
	WriteJSON(w, http.StatusOK, pairs)
}

// DeleteHandler handles DELETE /api/settings/{key}
func (h *SettingsHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/api/settings/")
	if key == "" {
		WriteError(w, http.StatusBadRequest, "Key is required")
		return
	}

	if err := h.kv.Delete(r.Context(), key); err != nil {
		if errors.Is(err, interfaces.ErrKeyNotFound) {
			WriteError(w, http.StatusNotFound, "Setting not found")
			return
		}
		h.logger.Error().Err(err).Str("key", key).Msg("Failed to delete setting")
		WriteError(w, http.StatusInternalServerError, "Failed to delete setting")
		return
	}
	WriteSuccess(w, "Setting deleted")
}

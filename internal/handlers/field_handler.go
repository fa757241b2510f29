package handlers

import (
	"net/http"
	"strconv"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mailticket/internal/models"
	"github.com/ternarybob/mailticket/internal/services/fields"
)

// FieldHandler manages configured custom fields and the field explorer
type FieldHandler struct {
	fields *fields.Service
	logger arbor.ILogger
}

func NewFieldHandler(fieldService *fields.Service, logger arbor.ILogger) *FieldHandler {
	return &FieldHandler{
		fields: fieldService,
		logger: logger,
	}
}

// ListHandler handles GET /api/fields
func (h *FieldHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	list, err := h.fields.List(r.Context())
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, list)
}

// SaveHandler handles POST /api/fields (manual entry) and PUT /api/fields/{id} (edit)
func (h *FieldHandler) SaveHandler(w http.ResponseWriter, r *http.Request) {
	var d models.FieldDescriptor
	if !DecodeJSON(w, r, &d) {
		return
	}
	if id := PathID(r, "/api/fields/"); r.Method == "PUT" && id != "" {
		d.ID = id
	}

	if err := h.fields.Save(r.Context(), &d); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	saved, err := h.fields.Get(r.Context(), d.ID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, saved)
}

// GetHandler handles GET /api/fields/{id}
func (h *FieldHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	field, err := h.fields.Get(r.Context(), PathID(r, "/api/fields/"))
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, field)
}

// DeleteHandler handles DELETE /api/fields/{id}
func (h *FieldHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.fields.Remove(r.Context(), PathID(r, "/api/fields/")); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteSuccess(w, "Field removed")
}

// DiscoverHandler handles GET /api/fields/discover?q=<term>&refresh=true
func (h *FieldHandler) DiscoverHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))
	result, err := h.fields.Discover(r.Context(), refresh)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	result.Fields = fields.Search(result.Fields, r.URL.Query().Get("q"))
	if result.Fields == nil {
		result.Fields = []models.DiscoveredField{}
	}
	WriteJSON(w, http.StatusOK, result)
}

// AddDiscoveredHandler handles POST /api/fields/discover/{id}
func (h *FieldHandler) AddDiscoveredHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	id := PathID(r, "/api/fields/discover/")
	discovered, err := h.fields.Lookup(r.Context(), id)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	d, added, err := h.fields.Add(r.Context(), *discovered)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	code := http.StatusCreated
	if !added {
		code = http.StatusOK
	}
	WriteJSON(w, code, map[string]interface{}{
		"added": added,
		"field": fields.ConfiguredField{FieldDescriptor: *d, Widget: fields.InferWidget(*d)},
	})
}

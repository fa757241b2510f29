// -----------------------------------------------------------------------
// Last Modified: Wednesday, 14th October 2026 10:20:00 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package server

import (
	"net/http"
	"strings"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Extraction (browser extension sends url + html)
	mux.HandleFunc("/api/extract", s.app.ExtractHandler.ExtractPageHandler)            // POST
	mux.HandleFunc("/api/extract/message", s.app.ExtractHandler.ExtractMessageHandler) // POST raw RFC 822
	mux.HandleFunc("/api/extract/browser", s.app.ExtractHandler.ExtractBrowserHandler) // POST, capture via DevTools

	// API routes - Tickets
	mux.HandleFunc("/api/tickets", s.app.TicketHandler.CreateHandler)      // POST
	mux.HandleFunc("/api/tickets/draft", s.app.TicketHandler.DraftHandler) // POST

	// API routes - Configured fields and field explorer
	mux.HandleFunc("/api/fields", s.handleFieldsRoute)
	mux.HandleFunc("/api/fields/", s.handleFieldRoutes)

	// API routes - Connection and settings
	mux.HandleFunc("/api/connection/test", s.app.ConnectionHandler.TestHandler) // POST
	mux.HandleFunc("/api/settings", s.app.SettingsHandler.ListHandler)          // GET
	mux.HandleFunc("/api/settings/", s.handleSettingRoutes)                     // DELETE /{key}
	mux.HandleFunc("/api/status", s.app.StatusHandler.GetStatusHandler)         // GET

	return mux
}

// handleFieldsRoute routes GET (list) and POST (manual add) on /api/fields
func (s *Server) handleFieldsRoute(w http.ResponseWriter, r *http.Request) {
	RouteResourceCollection(w, r, s.app.FieldHandler.ListHandler, s.app.FieldHandler.SaveHandler)
}

// handleFieldRoutes routes /api/fields/discover[/{id}] and /api/fields/{id}
func (s *Server) handleFieldRoutes(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/fields/")

	switch {
	case path == "discover":
		s.app.FieldHandler.DiscoverHandler(w, r)
	case strings.HasPrefix(path, "discover/"):
		s.app.FieldHandler.AddDiscoveredHandler(w, r)
	case path == "":
		http.Error(w, "Field id is required", http.StatusBadRequest)
	default:
		RouteResourceItem(w, r, s.app.FieldHandler.GetHandler, s.app.FieldHandler.SaveHandler, s.app.FieldHandler.DeleteHandler)
	}
}

func (s *Server) handleSettingRoutes(w http.ResponseWriter, r *http.Request) {
	RouteByMethod(w, r, MethodRouter{"DELETE": s.app.SettingsHandler.DeleteHandler})
}

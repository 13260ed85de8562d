package server

import (
	"net/http"
	"strings"
)

// handleIsinMappings handles GET and POST /api/isin-mappings.
func (s *Server) handleIsinMappings(w http.ResponseWriter, r *http.Request) {
	userID := s.requireUser(w, r)
	if userID == "" {
		return
	}
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		mappings, err := s.app.IsinService.List(ctx, userID)
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, mappings)
	case http.MethodPost:
		var req struct {
			ISIN   string `json:"isin"`
			Symbol string `json:"symbol"`
			Name   string `json:"name"`
		}
		if !DecodeJSON(w, r, &req) {
			return
		}
		mapping, err := s.app.IsinService.Create(ctx, userID, req.ISIN, req.Symbol, req.Name)
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusCreated, mapping)
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

// routeIsinMappings dispatches /api/isin-mappings/{id}. GET treats the
// parameter as an ISIN lookup; PUT and DELETE address the mapping row.
func (s *Server) routeIsinMappings(w http.ResponseWriter, r *http.Request) {
	userID := s.requireUser(w, r)
	if userID == "" {
		return
	}
	ctx := r.Context()

	param := strings.TrimPrefix(r.URL.Path, "/api/isin-mappings/")
	if param == "" || strings.Contains(param, "/") {
		WriteError(w, http.StatusNotFound, "Not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		mapping, err := s.app.IsinService.Get(ctx, userID, param)
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, mapping)
	case http.MethodPut, http.MethodPatch:
		var req struct {
			Symbol *string `json:"symbol"`
			Name   *string `json:"name"`
		}
		if !DecodeJSON(w, r, &req) {
			return
		}
		mapping, err := s.app.IsinService.Update(ctx, userID, param, req.Symbol, req.Name)
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, mapping)
	case http.MethodDelete:
		if err := s.app.IsinService.Delete(ctx, userID, param); err != nil {
			WriteServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPut, http.MethodPatch, http.MethodDelete)
	}
}

// handleIsinResync handles POST /api/isin-mappings/resync, pushing resolved
// mappings onto the user's holdings.
func (s *Server) handleIsinResync(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	userID := s.requireUser(w, r)
	if userID == "" {
		return
	}

	updated, err := s.app.IsinService.ResyncHoldings(r.Context(), userID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":           "resynced",
		"holdings_updated": updated,
	})
}

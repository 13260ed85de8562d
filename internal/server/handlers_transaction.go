package server

import (
	"net/http"
	"strings"
)

// handleTransactionByID handles DELETE /api/transactions/{id}. Deleting a
// transaction reverses its effect on the holding's share counters.
func (s *Server) handleTransactionByID(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodDelete) {
		return
	}
	userID := s.requireUser(w, r)
	if userID == "" {
		return
	}

	transactionID := strings.TrimPrefix(r.URL.Path, "/api/transactions/")
	if transactionID == "" || strings.Contains(transactionID, "/") {
		WriteError(w, http.StatusNotFound, "transaction id required")
		return
	}

	holding, err := s.app.TradingService.DeleteTransaction(r.Context(), userID, transactionID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "deleted",
		"holding": holding,
	})
}

// handleUserTimeline handles GET /api/timeline, the merged cumulative-gain
// series across all the user's depots.
func (s *Server) handleUserTimeline(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	userID := s.requireUser(w, r)
	if userID == "" {
		return
	}

	points, err := s.app.StatsService.UserTimeline(r.Context(), userID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, points)
}

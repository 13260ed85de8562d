package server

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/depotd/depotd/internal/models"
)

// handleDepots handles GET and POST /api/depots.
func (s *Server) handleDepots(w http.ResponseWriter, r *http.Request) {
	userID := s.requireUser(w, r)
	if userID == "" {
		return
	}

	switch r.Method {
	case http.MethodGet:
		depots, err := s.app.DepotService.ListDepots(r.Context(), userID)
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, depots)
	case http.MethodPost:
		var req struct {
			Name        string          `json:"name"`
			CashBalance decimal.Decimal `json:"cash_balance"`
		}
		if !DecodeJSON(w, r, &req) {
			return
		}
		depot, err := s.app.DepotService.CreateDepot(r.Context(), userID, req.Name, req.CashBalance)
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusCreated, depot)
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

// handleDepotByID handles GET, PUT, DELETE /api/depots/{id}.
func (s *Server) handleDepotByID(w http.ResponseWriter, r *http.Request, depotID string) {
	userID := s.requireUser(w, r)
	if userID == "" {
		return
	}
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		depot, err := s.app.DepotService.GetDepot(ctx, userID, depotID)
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, depot)
	case http.MethodPut, http.MethodPatch:
		var req struct {
			Name        *string          `json:"name"`
			CashBalance *decimal.Decimal `json:"cash_balance"`
		}
		if !DecodeJSON(w, r, &req) {
			return
		}
		depot, err := s.app.DepotService.UpdateDepot(ctx, userID, depotID, req.Name, req.CashBalance)
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, depot)
	case http.MethodDelete:
		if err := s.app.DepotService.DeleteDepot(ctx, userID, depotID); err != nil {
			WriteServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPut, http.MethodPatch, http.MethodDelete)
	}
}

// handleDepotClear handles DELETE /api/depots/{id}/clear.
func (s *Server) handleDepotClear(w http.ResponseWriter, r *http.Request, depotID string) {
	if !RequireMethod(w, r, http.MethodDelete) {
		return
	}
	userID := s.requireUser(w, r)
	if userID == "" {
		return
	}

	removed, err := s.app.DepotService.ClearDepot(r.Context(), userID, depotID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":           "cleared",
		"holdings_removed": removed,
	})
}

// handleDepotStats handles GET /api/depots/{id}/stats.
func (s *Server) handleDepotStats(w http.ResponseWriter, r *http.Request, depotID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	userID := s.requireUser(w, r)
	if userID == "" {
		return
	}

	stats, err := s.app.StatsService.DepotStats(r.Context(), userID, depotID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}

// handleDepotTimeline handles GET /api/depots/{id}/timeline.
func (s *Server) handleDepotTimeline(w http.ResponseWriter, r *http.Request, depotID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	userID := s.requireUser(w, r)
	if userID == "" {
		return
	}

	points, err := s.app.StatsService.DepotTimeline(r.Context(), userID, depotID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, points)
}

// handleDepotHistory handles GET /api/depots/{id}/history.
func (s *Server) handleDepotHistory(w http.ResponseWriter, r *http.Request, depotID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	userID := s.requireUser(w, r)
	if userID == "" {
		return
	}

	entries, err := s.app.StatsService.DepotHistory(r.Context(), userID, depotID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, entries)
}

// handleDepotHoldings handles GET /api/depots/{id}/holdings.
func (s *Server) handleDepotHoldings(w http.ResponseWriter, r *http.Request, depotID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	userID := s.requireUser(w, r)
	if userID == "" {
		return
	}

	holdings, err := s.app.DepotService.ListHoldings(r.Context(), userID, depotID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, holdings)
}

// handleDepotImport handles POST /api/depots/{id}/import.
func (s *Server) handleDepotImport(w http.ResponseWriter, r *http.Request, depotID string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	userID := s.requireUser(w, r)
	if userID == "" {
		return
	}

	var req struct {
		Mode models.ImportMode  `json:"mode"`
		Rows []models.BrokerRow `json:"rows"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.Mode == "" {
		req.Mode = models.ImportModeReplace
	}

	result, err := s.app.ImportService.ImportBrokerTransactions(r.Context(), userID, depotID, req.Rows, req.Mode)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// handleDepotRefreshPrices handles POST /api/depots/{id}/refresh-prices.
func (s *Server) handleDepotRefreshPrices(w http.ResponseWriter, r *http.Request, depotID string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	userID := s.requireUser(w, r)
	if userID == "" {
		return
	}

	holdings, err := s.app.TradingService.RefreshDepotPrices(r.Context(), userID, depotID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, holdings)
}

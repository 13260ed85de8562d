package server

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/depotd/depotd/internal/interfaces"
)

// handleDepotBuy handles POST /api/depots/{id}/buy.
func (s *Server) handleDepotBuy(w http.ResponseWriter, r *http.Request, depotID string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	userID := s.requireUser(w, r)
	if userID == "" {
		return
	}

	var req struct {
		Symbol    string          `json:"symbol"`
		Name      string          `json:"name"`
		Category  string          `json:"category"`
		Shares    decimal.Decimal `json:"shares"`
		Price     decimal.Decimal `json:"price"`
		Timestamp time.Time       `json:"timestamp"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	holding, transaction, err := s.app.TradingService.Buy(r.Context(), userID, interfaces.BuyOrder{
		DepotID:   depotID,
		Symbol:    req.Symbol,
		Name:      req.Name,
		Category:  req.Category,
		Shares:    req.Shares,
		Price:     req.Price,
		Timestamp: req.Timestamp,
	})
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"holding":     holding,
		"transaction": transaction,
	})
}

// handleHoldingSell handles POST /api/holdings/{id}/sell.
func (s *Server) handleHoldingSell(w http.ResponseWriter, r *http.Request, holdingID string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	userID := s.requireUser(w, r)
	if userID == "" {
		return
	}

	var req struct {
		Shares    decimal.Decimal `json:"shares"`
		Price     decimal.Decimal `json:"price"`
		Timestamp time.Time       `json:"timestamp"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	result, err := s.app.TradingService.Sell(r.Context(), userID, interfaces.SellOrder{
		HoldingID: holdingID,
		Shares:    req.Shares,
		Price:     req.Price,
		Timestamp: req.Timestamp,
	})
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, result)
}

// handleHoldingsList handles GET /api/holdings: every holding across the
// user's depots.
func (s *Server) handleHoldingsList(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	userID := s.requireUser(w, r)
	if userID == "" {
		return
	}

	holdings, err := s.app.DepotService.ListAllHoldings(r.Context(), userID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, holdings)
}

// handleHoldingByID handles GET and DELETE /api/holdings/{id}.
func (s *Server) handleHoldingByID(w http.ResponseWriter, r *http.Request, holdingID string) {
	userID := s.requireUser(w, r)
	if userID == "" {
		return
	}
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		holding, err := s.app.DepotService.GetHolding(ctx, userID, holdingID)
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, holding)
	case http.MethodDelete:
		if err := s.app.DepotService.DeleteHolding(ctx, userID, holdingID); err != nil {
			WriteServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodDelete)
	}
}

// handleHoldingTransactions handles GET /api/holdings/{id}/transactions.
func (s *Server) handleHoldingTransactions(w http.ResponseWriter, r *http.Request, holdingID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	userID := s.requireUser(w, r)
	if userID == "" {
		return
	}

	txs, err := s.app.DepotService.ListTransactions(r.Context(), userID, holdingID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, txs)
}

// handleHoldingRebuild handles POST /api/holdings/{id}/rebuild.
func (s *Server) handleHoldingRebuild(w http.ResponseWriter, r *http.Request, holdingID string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	userID := s.requireUser(w, r)
	if userID == "" {
		return
	}

	holding, err := s.app.TradingService.RebuildHolding(r.Context(), userID, holdingID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, holding)
}

// handleHoldingRefreshPrice handles POST /api/holdings/{id}/refresh-price.
func (s *Server) handleHoldingRefreshPrice(w http.ResponseWriter, r *http.Request, holdingID string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	userID := s.requireUser(w, r)
	if userID == "" {
		return
	}

	holding, err := s.app.TradingService.RefreshPrice(r.Context(), userID, holdingID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, holding)
}

package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/depotd/depotd/internal/common"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)

	// Auth
	mux.HandleFunc("/api/auth/register", s.handleAuthRegister)
	mux.HandleFunc("/api/auth/login", s.handleAuthLogin)
	mux.HandleFunc("/api/auth/profile", s.handleAuthProfile)

	// Depots
	mux.HandleFunc("/api/depots/", s.routeDepots)
	mux.HandleFunc("/api/depots", s.handleDepots)

	// Holdings
	mux.HandleFunc("/api/holdings/", s.routeHoldings)
	mux.HandleFunc("/api/holdings", s.handleHoldingsList)

	// Transactions
	mux.HandleFunc("/api/transactions/", s.handleTransactionByID)

	// Cross-depot performance timeline
	mux.HandleFunc("/api/timeline", s.handleUserTimeline)

	// ISIN mappings
	mux.HandleFunc("/api/isin-mappings/resync", s.handleIsinResync)
	mux.HandleFunc("/api/isin-mappings/", s.routeIsinMappings)
	mux.HandleFunc("/api/isin-mappings", s.handleIsinMappings)
}

// routeDepots dispatches /api/depots/{id} and its subresources.
func (s *Server) routeDepots(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/depots/")
	parts := strings.SplitN(rest, "/", 2)
	depotID := parts[0]
	if depotID == "" {
		WriteError(w, http.StatusNotFound, "depot id required")
		return
	}

	sub := ""
	if len(parts) == 2 {
		sub = parts[1]
	}

	switch sub {
	case "":
		s.handleDepotByID(w, r, depotID)
	case "stats":
		s.handleDepotStats(w, r, depotID)
	case "timeline":
		s.handleDepotTimeline(w, r, depotID)
	case "history":
		s.handleDepotHistory(w, r, depotID)
	case "holdings":
		s.handleDepotHoldings(w, r, depotID)
	case "clear":
		s.handleDepotClear(w, r, depotID)
	case "buy":
		s.handleDepotBuy(w, r, depotID)
	case "import":
		s.handleDepotImport(w, r, depotID)
	case "refresh-prices":
		s.handleDepotRefreshPrices(w, r, depotID)
	default:
		WriteError(w, http.StatusNotFound, "Not found")
	}
}

// routeHoldings dispatches /api/holdings/{id} and its subresources.
func (s *Server) routeHoldings(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/holdings/")
	parts := strings.SplitN(rest, "/", 2)
	holdingID := parts[0]
	if holdingID == "" {
		WriteError(w, http.StatusNotFound, "holding id required")
		return
	}

	sub := ""
	if len(parts) == 2 {
		sub = parts[1]
	}

	switch sub {
	case "":
		s.handleHoldingByID(w, r, holdingID)
	case "transactions":
		s.handleHoldingTransactions(w, r, holdingID)
	case "sell":
		s.handleHoldingSell(w, r, holdingID)
	case "rebuild":
		s.handleHoldingRebuild(w, r, holdingID)
	case "refresh-price":
		s.handleHoldingRefreshPrice(w, r, holdingID)
	default:
		WriteError(w, http.StatusNotFound, "Not found")
	}
}

// handleHealth handles GET /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": common.GetVersion(),
		"uptime":  time.Since(s.app.StartupTime).Round(time.Second).String(),
	})
}

// handleVersion handles GET /api/version.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"paper-trader-go/internal/ledger"
	"paper-trader-go/internal/models"
	"paper-trader-go/internal/watch"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// tradeStatus maps ledger errors onto HTTP status codes.
func tradeStatus(err error) int {
	switch {
	case errors.Is(err, ledger.ErrInvalidQuantity),
		errors.Is(err, ledger.ErrInvalidSymbol),
		errors.Is(err, ledger.ErrInvalidSide),
		errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, ledger.ErrInsufficientShares):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrPriceUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type signupRequest struct {
	Username string `json:"username"`
}

// signupHandler creates a new account with the configured starting balance
// and returns it together with a bearer token.
func (s *Server) signupHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Username) == "" {
		writeError(w, http.StatusBadRequest, "Username required")
		return
	}

	acct := &models.Account{
		ID:       uuid.NewString(),
		Username: strings.TrimSpace(req.Username),
		Balance:  s.cfg.Trading.StartingBalance,
	}
	if err := s.store.CreateAccount(r.Context(), acct); err != nil {
		s.logger.Error("Failed to create account", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":       acct.ID,
		"username": acct.Username,
		"balance":  acct.Balance,
		"token":    s.auth.Issue(acct.ID),
	})
}

type tradeRequest struct {
	Symbol   string  `json:"symbol"`
	Quantity float64 `json:"quantity"`
}

func (s *Server) buyHandler(w http.ResponseWriter, r *http.Request, accountID string) {
	s.tradeHandler(w, r, accountID, models.SideBuy)
}

func (s *Server) sellHandler(w http.ResponseWriter, r *http.Request, accountID string) {
	s.tradeHandler(w, r, accountID, models.SideSell)
}

func (s *Server) tradeHandler(w http.ResponseWriter, r *http.Request, accountID string, side models.Side) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req tradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Symbol & quantity required")
		return
	}

	newBalance, err := s.executor.ExecuteTrade(r.Context(), accountID, req.Symbol, req.Quantity, side)
	if err != nil {
		writeError(w, tradeStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]float64{"newBalance": newBalance})
}

func (s *Server) portfolioHandler(w http.ResponseWriter, r *http.Request, accountID string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	holdings, err := s.executor.Portfolio(r.Context(), accountID)
	if err != nil {
		s.logger.Error("Failed to compute portfolio", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to compute portfolio")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"portfolio": holdings})
}

func (s *Server) transactionsHandler(w http.ResponseWriter, r *http.Request, accountID string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	// Most recent first
	txs, err := s.store.ListTransactions(r.Context(), accountID, ledger.ListOptions{Descending: true})
	if err != nil {
		s.logger.Error("Failed to list transactions", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"transactions": txs})
}

func (s *Server) profileHandler(w http.ResponseWriter, r *http.Request, accountID string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	acct, err := s.store.GetAccount(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		s.logger.Error("Failed to load account", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to load account")
		return
	}

	writeJSON(w, http.StatusOK, acct)
}

func (s *Server) quotesHandler(w http.ResponseWriter, r *http.Request, accountID string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var symbols []string
	for _, sym := range strings.Split(r.URL.Query().Get("symbols"), ",") {
		if sym = strings.TrimSpace(sym); sym != "" {
			symbols = append(symbols, sym)
		}
	}
	if len(symbols) == 0 {
		writeError(w, http.StatusBadRequest, "Missing symbols query param")
		return
	}

	result, err := s.quotes.GetQuotes(r.Context(), symbols)
	if err != nil {
		s.logger.Error("Failed to fetch quotes", zap.Error(err))
		writeError(w, http.StatusBadGateway, "Failed to fetch quotes")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type watchRequest struct {
	Category string `json:"category"`
	Type     string `json:"type"`
	Symbol   string `json:"symbol"`
}

func (s *Server) watchHandler(w http.ResponseWriter, r *http.Request, accountID string) {
	switch r.Method {
	case http.MethodGet:
		list, err := s.watch.Get(r.Context(), accountID, r.URL.Query().Get("category"))
		if err != nil {
			s.watchError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)

	case http.MethodPost:
		var req watchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Type != "remove" {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		list, err := s.watch.Remove(r.Context(), accountID, req.Category, req.Symbol)
		if err != nil {
			s.watchError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) watchError(w http.ResponseWriter, err error) {
	if errors.Is(err, watch.ErrInvalidCategory) {
		writeError(w, http.StatusBadRequest, "Invalid category")
		return
	}
	s.logger.Error("Watchlist operation failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "Watchlist operation failed")
}

func (s *Server) newsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	articles, err := s.news.Headlines(r.Context())
	if err != nil {
		s.logger.Error("Failed to fetch news", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to fetch news")
		return
	}

	writeJSON(w, http.StatusOK, articles)
}

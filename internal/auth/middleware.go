package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// AccountHandler is an http handler that additionally receives the
// authenticated account id.
type AccountHandler func(w http.ResponseWriter, r *http.Request, accountID string)

// Require wraps a handler with bearer-token authentication. Requests without
// a valid token are answered with 401 and never reach the handler.
func (m *Manager) Require(logger *zap.Logger, next AccountHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			unauthorized(w, "Missing or invalid Authorization header")
			return
		}

		accountID, err := m.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			logger.Debug("Token verification failed", zap.Error(err))
			if errors.Is(err, ErrExpiredToken) {
				unauthorized(w, "Token expired")
			} else {
				unauthorized(w, "Invalid token")
			}
			return
		}

		next(w, r, accountID)
	}
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

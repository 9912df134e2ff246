package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidToken indicates a malformed or tampered token.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken indicates a token past its expiry.
	ErrExpiredToken = errors.New("token expired")
)

// Manager issues and verifies bearer tokens of the form
// "accountID.expiryUnix.signature", signed with HMAC-SHA256.
type Manager struct {
	secret []byte
	ttl    time.Duration
}

// NewManager creates a token manager with the given signing secret and
// token lifetime.
func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{secret: []byte(secret), ttl: ttl}
}

// sign creates a HMAC-SHA256 signature for the payload.
func (m *Manager) sign(data string) string {
	h := hmac.New(sha256.New, m.secret)
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

// Issue creates a signed token for the account.
func (m *Manager) Issue(accountID string) string {
	expiry := time.Now().Add(m.ttl).Unix()
	payload := fmt.Sprintf("%s.%d", accountID, expiry)
	return payload + "." + m.sign(payload)
}

// Verify checks the token signature and expiry and returns the account id.
func (m *Manager) Verify(token string) (string, error) {
	// Account ids contain no dots, so split from the right.
	lastDot := strings.LastIndex(token, ".")
	if lastDot < 0 {
		return "", ErrInvalidToken
	}
	payload, signature := token[:lastDot], token[lastDot+1:]

	if !hmac.Equal([]byte(m.sign(payload)), []byte(signature)) {
		return "", ErrInvalidToken
	}

	parts := strings.Split(payload, ".")
	if len(parts) != 2 || parts[0] == "" {
		return "", ErrInvalidToken
	}
	expiry, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "", ErrInvalidToken
	}
	if time.Now().Unix() > expiry {
		return "", ErrExpiredToken
	}
	return parts[0], nil
}

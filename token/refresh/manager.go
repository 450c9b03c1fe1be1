package refresh

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/jrsteele09/nebula-bridge/internal/config"
	"github.com/jrsteele09/nebula-bridge/internal/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Manager handles refresh token creation, validation, and revocation
type Manager struct {
	repo   Repo
	config config.OAuthConfig
}

// NewManager creates a new refresh token manager
func NewManager(repo Repo, cfg config.OAuthConfig) *Manager {
	return &Manager{
		repo:   repo,
		config: cfg,
	}
}

// Create generates a new refresh token and stores it. A user holds one
// refresh token at a time; the previous one is returned so its issued
// tokens can be revoked.
func (m *Manager) Create(clientID, userID, scope string) (string, *StoredRefreshToken, error) {
	var previous *StoredRefreshToken
	if existingToken, err := m.repo.GetByUserID(userID); err == nil && existingToken != nil {
		if err := m.repo.Delete(existingToken.Token); err != nil {
			return "", nil, fmt.Errorf("failed to delete existing refresh token: %w", err)
		}
		previous = existingToken
	}

	tokenBytes := make([]byte, m.config.GetRefreshTokenLength())
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}

	tokenStr := hex.EncodeToString(tokenBytes)
	if err := m.repo.Upsert(&StoredRefreshToken{
		Token:        tokenStr,
		UserID:       userID,
		ClientID:     clientID,
		Scope:        scope,
		Iat:          NowTimeFunc(),
		IssuedTokens: make(map[string]time.Time),
	}); err != nil {
		return "", nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return tokenStr, previous, nil
}

// Validate returns the stored token if it exists, belongs to clientID and has not expired.
func (m *Manager) Validate(token, clientID string) (*StoredRefreshToken, error) {
	rt, err := m.repo.Get(token)
	if err != nil {
		return nil, errors.ErrInvalidRefreshToken
	}
	if rt.ClientID != clientID {
		return nil, errors.ErrInvalidRefreshToken
	}
	if m.IsExpired(rt) {
		_ = m.repo.Delete(token)
		return nil, errors.ErrRefreshTokenExpired
	}
	return rt, nil
}

// TrackIssued records a token minted under a refresh token.
func (m *Manager) TrackIssued(token, jti string, exp time.Time) error {
	return m.repo.AddIssuedToken(token, jti, exp)
}

// Get retrieves a refresh token from storage
func (m *Manager) Get(token string) (*StoredRefreshToken, error) {
	return m.repo.Get(token)
}

// Delete removes a refresh token from storage
func (m *Manager) Delete(token string) error {
	return m.repo.Delete(token)
}

// IsExpired checks a refresh token against the configured lifetime
func (m *Manager) IsExpired(rt *StoredRefreshToken) bool {
	return NowTimeFunc().Sub(rt.Iat) > m.config.GetDefaultRefreshTokenExpiry()
}

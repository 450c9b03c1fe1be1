package auth

import (
	"context"
	"errors"

	autherrors "github.com/jrsteele09/nebula-bridge/internal/errors"
	"github.com/rs/zerolog/log"
)

// TokenProvider hands out the bearer token for echo API calls.
type TokenProvider struct {
	provider Provider
}

func NewTokenProvider(provider Provider) *TokenProvider {
	return &TokenProvider{provider: provider}
}

// GetToken returns the session's ID token, refreshed if it had expired, or
// "" when there is no usable session. It never fails; "" means sign in again.
func (t *TokenProvider) GetToken(ctx context.Context) string {
	if t == nil || t.provider == nil {
		return ""
	}

	session, err := t.provider.FetchSession(ctx)
	if err != nil {
		if errors.Is(err, autherrors.ErrNoSession) {
			log.Debug().Err(err).Msg("no session for bearer token")
		} else {
			log.Err(err).Msg("failed to fetch session token")
		}
		return ""
	}
	return session.Tokens.IDToken
}

package refresh_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/nebula-bridge/internal/config"
	"github.com/jrsteele09/nebula-bridge/internal/errors"
	"github.com/jrsteele09/nebula-bridge/token/refresh"
	refreshrepofake "github.com/jrsteele09/nebula-bridge/token/refresh/repofake"
	"github.com/stretchr/testify/require"
)

func TestCreateReplacesPreviousToken(t *testing.T) {
	m := refresh.NewManager(refreshrepofake.NewFakeRefreshTokenRepo(), config.OAuth{})

	first, previous, err := m.Create("client-1", "user-1", "openid")
	require.NoError(t, err)
	require.Nil(t, previous)
	require.Len(t, first, 64)

	require.NoError(t, m.TrackIssued(first, "jti-1", time.Now().Add(time.Hour)))

	second, previous, err := m.Create("client-1", "user-1", "openid")
	require.NoError(t, err)
	require.NotEqual(t, first, second)
	require.NotNil(t, previous)
	require.Contains(t, previous.IssuedTokens, "jti-1")

	_, err = m.Validate(first, "client-1")
	require.ErrorIs(t, err, errors.ErrInvalidRefreshToken)

	rt, err := m.Validate(second, "client-1")
	require.NoError(t, err)
	require.Equal(t, "user-1", rt.UserID)
}

func TestValidate(t *testing.T) {
	m := refresh.NewManager(refreshrepofake.NewFakeRefreshTokenRepo(), config.OAuth{})

	tok, _, err := m.Create("client-1", "user-1", "openid")
	require.NoError(t, err)

	_, err = m.Validate(tok, "client-2")
	require.ErrorIs(t, err, errors.ErrInvalidRefreshToken)

	refresh.NowTimeFunc = func() time.Time { return time.Now().Add(31 * 24 * time.Hour) }
	defer func() { refresh.NowTimeFunc = time.Now }()

	_, err = m.Validate(tok, "client-1")
	require.ErrorIs(t, err, errors.ErrRefreshTokenExpired)

	_, err = m.Get(tok)
	require.Error(t, err)
}

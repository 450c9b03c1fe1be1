// Package testpool runs the NebulaBridge server with a local user pool on
// an httptest server, for tests that need a real pool to talk to.
package testpool

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	fakeclientrepo "github.com/jrsteele09/nebula-bridge/clients/fakerepo"
	"github.com/jrsteele09/nebula-bridge/internal/config"
	refreshrepofake "github.com/jrsteele09/nebula-bridge/token/refresh/repofake"
	"github.com/jrsteele09/nebula-bridge/server"
	"github.com/jrsteele09/nebula-bridge/userpool"
	fakeuserrepo "github.com/jrsteele09/nebula-bridge/users/repofake"
	"github.com/stretchr/testify/require"
)

const (
	PoolID   = "us-east-1_localpool"
	ClientID = "nebula-test-client"
)

// Pool is a running server plus the repos behind it.
type Pool struct {
	URL    string
	Repos  userpool.Repos
	Server *server.Server
}

// Start serves a pool with auth enabled. Sign-ups need a confirmation code
// unless autoConfirm is set.
func Start(t *testing.T, autoConfirm bool) *Pool {
	t.Helper()

	var handler http.Handler = http.NotFoundHandler()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(ts.Close)

	t.Setenv("ENV", "TEST")
	t.Setenv("BASE_URL", ts.URL)
	t.Setenv("ISSUER_URL", "")
	t.Setenv("SIGNING_KEY_FILE", "")
	t.Setenv("LOCAL_POOL", "true")
	t.Setenv("USER_POOL_ID", PoolID)
	t.Setenv("USER_POOL_CLIENT_ID", ClientID)
	if autoConfirm {
		t.Setenv("AUTO_CONFIRM", "true")
	} else {
		t.Setenv("AUTO_CONFIRM", "false")
	}

	repos := userpool.Repos{
		Users:         fakeuserrepo.NewFakeUserRepo(),
		Clients:       fakeclientrepo.NewFakeClientRepo(),
		RefreshTokens: refreshrepofake.NewFakeRefreshTokenRepo(),
	}

	srv, err := server.New(context.Background(), config.New(), repos)
	require.NoError(t, err)
	handler = srv

	return &Pool{URL: ts.URL, Repos: repos, Server: srv}
}

// ClientConfig points a nebula client at the pool.
func (p *Pool) ClientConfig() config.ClientConfig {
	return config.ClientConfig{
		APIBaseURL:       p.URL,
		Region:           "us-east-1",
		UserPoolID:       PoolID,
		UserPoolClientID: ClientID,
		CognitoDomain:    p.URL,
		IssuerURL:        p.URL,
	}
}

// ConfirmationCode returns the pending sign-up code for email.
func (p *Pool) ConfirmationCode(t *testing.T, email string) string {
	t.Helper()
	user, err := p.Repos.Users.GetByEmail(email)
	require.NoError(t, err)
	return user.ConfirmationCode
}

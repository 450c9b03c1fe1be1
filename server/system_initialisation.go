package server

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jrsteele09/nebula-bridge/clients"
	"github.com/jrsteele09/nebula-bridge/token/keys"
	"github.com/jrsteele09/nebula-bridge/userpool"
	"github.com/rs/zerolog/log"
)

// InitialiseSystem starts the local pool (when enabled), registers the
// configured app client with it and picks the verifier guarding the API.
func (s *Server) InitialiseSystem(ctx context.Context) error {
	if s.config.GetLocalPoolEnabled() {
		if err := s.initialiseLocalPool(); err != nil {
			return fmt.Errorf("[Server InitialiseSystem] failed to start local pool: %w", err)
		}
	}

	if s.verifier == nil && s.config.AuthEnabled() {
		if s.pool != nil {
			s.verifier = poolVerifier{pool: s.pool, clientID: s.config.GetUserPoolClientID()}
		} else {
			s.verifier = NewOIDCVerifier(ctx, s.config.GetIssuerURL(), s.config.GetUserPoolClientID())
		}
	}

	s.logConfiguration()
	return nil
}

func (s *Server) initialiseLocalPool() error {
	keyPair, err := keys.LoadOrCreateKeyPair(uuid.NewSHA1(uuid.NameSpaceURL, []byte(s.config.GetIssuerURL())).String(), s.config.GetSigningKeyFile())
	if err != nil {
		return err
	}

	pool, err := userpool.New(
		s.repos,
		s.config,
		s.config.GetIssuerURL(),
		keys.NewKeyPairSigner(keyPair),
		userpool.WithAutoConfirm(s.config.GetAutoConfirm()),
	)
	if err != nil {
		return err
	}
	s.pool = pool

	if clientID := s.config.GetUserPoolClientID(); clientID != "" {
		if _, err := s.createAppClient(clientID); err != nil {
			return err
		}
	}
	return nil
}

// createAppClient registers the public app client the nebula client signs in through
func (s *Server) createAppClient(clientID string) (*clients.Client, error) {
	if existing, err := s.repos.Clients.Get(clientID); err == nil && existing != nil {
		log.Info().Str("client", clientID).Msg("app client already exists")
		return existing, nil
	}

	appClient := &clients.Client{
		ID:          clientID,
		Type:        clients.ClientTypePublic,
		Description: s.config.GetAppName() + " client",
		RedirectURIs: []string{
			s.config.GetRedirectSignIn(),
			s.config.GetRedirectSignOut(),
		},
		Scopes: clients.DefaultScopes,
	}

	if err := s.repos.Clients.Upsert(appClient); err != nil {
		return nil, fmt.Errorf("[server createAppClient] failed to create app client: %w", err)
	}
	return appClient, nil
}

func (s *Server) logConfiguration() {
	event := log.Info().
		Str("env", s.env).
		Str("baseURL", s.config.GetBaseURL()).
		Bool("authEnabled", s.verifier != nil).
		Bool("localPool", s.pool != nil)

	if s.config.AuthEnabled() {
		event = event.
			Str("userPoolId", s.config.GetUserPoolID()).
			Str("userPoolClientId", s.config.GetUserPoolClientID()).
			Str("issuer", s.config.GetIssuerURL())
	}
	event.Msg("system configuration")

	if s.pool != nil {
		log.Info().Msgf("discovery endpoint: %s%s", s.pool.Issuer(), userpool.PathDiscovery)
	}
	if s.verifier == nil {
		log.Warn().Msg("USER_POOL_ID or USER_POOL_CLIENT_ID not set, the echo API is open")
	}
}

package server

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/nebula-bridge/userpool"
)

// poolVerifier checks tokens minted by the local pool.
type poolVerifier struct {
	pool     *userpool.Service
	clientID string
}

func (v poolVerifier) Verify(_ context.Context, rawToken string) (*Principal, error) {
	claims, err := v.pool.VerifyIDToken(rawToken, v.clientID)
	if err != nil {
		return nil, err
	}
	return &Principal{
		Subject:  claims.Subject,
		Email:    claims.Email,
		Username: claims.CognitoUsername,
	}, nil
}

// OIDCVerifier checks ID tokens from a managed pool against its published keys.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier fetches keys lazily from {issuer}/.well-known/jwks.json.
func NewOIDCVerifier(ctx context.Context, issuer, clientID string) *OIDCVerifier {
	keySet := oidc.NewRemoteKeySet(ctx, issuer+userpool.PathJWKS)
	return &OIDCVerifier{
		verifier: oidc.NewVerifier(issuer, keySet, &oidc.Config{ClientID: clientID}),
	}
}

type idTokenClaims struct {
	Email           string `json:"email"`
	CognitoUsername string `json:"cognito:username"`
	TokenUse        string `json:"token_use"`
}

func (v *OIDCVerifier) Verify(ctx context.Context, rawToken string) (*Principal, error) {
	idToken, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, fmt.Errorf("OIDCVerifier.Verify: %w", err)
	}

	var claims idTokenClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("OIDCVerifier.Verify claims: %w", err)
	}
	if claims.TokenUse != "" && claims.TokenUse != "id" {
		return nil, fmt.Errorf("OIDCVerifier.Verify: token_use %q is not an ID token", claims.TokenUse)
	}

	return &Principal{
		Subject:  idToken.Subject,
		Email:    claims.Email,
		Username: claims.CognitoUsername,
	}, nil
}

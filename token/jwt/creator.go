package jwt

import (
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/nebula-bridge/internal/config"
	"github.com/jrsteele09/nebula-bridge/token/keys"
	"github.com/jrsteele09/nebula-bridge/users"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Token uses, carried in the token_use claim.
const (
	TokenUseID     = "id"
	TokenUseAccess = "access"
)

// Claims are the pool's token claims. ID tokens carry the identity claims,
// access tokens carry client_id, username and scope.
type Claims struct {
	jwtlib.RegisteredClaims
	TokenUse        string `json:"token_use"`
	Email           string `json:"email,omitempty"`
	EmailVerified   bool   `json:"email_verified,omitempty"`
	CognitoUsername string `json:"cognito:username,omitempty"`
	ClientID        string `json:"client_id,omitempty"`
	Username        string `json:"username,omitempty"`
	Scope           string `json:"scope,omitempty"`
}

// IssuedToken is a signed token plus the bookkeeping needed to revoke it.
type IssuedToken struct {
	Token     string
	JTI       string
	ExpiresAt time.Time
}

// Creator handles JWT token creation (ID tokens and access tokens)
type Creator struct {
	config config.OAuthConfig
	issuer string
	signer keys.Signer
}

// NewCreator creates a new JWT creator
func NewCreator(cfg config.OAuthConfig, issuer string, signer keys.Signer) *Creator {
	return &Creator{
		config: cfg,
		issuer: issuer,
		signer: signer,
	}
}

// CreateIDToken creates an OpenID Connect ID token whose audience is the app client.
func (c *Creator) CreateIDToken(user *users.User, clientID string) (IssuedToken, error) {
	claims := c.registered(user.ID, c.config.GetDefaultIDTokenExpiry())
	claims.Audience = jwtlib.ClaimStrings{clientID}

	return c.sign(&Claims{
		RegisteredClaims: claims,
		TokenUse:         TokenUseID,
		Email:            user.Email,
		EmailVerified:    user.Verified,
		CognitoUsername:  user.Username,
	})
}

// CreateAccessToken creates an OAuth2 access token for the granted scope
func (c *Creator) CreateAccessToken(user *users.User, clientID, scope string) (IssuedToken, error) {
	return c.sign(&Claims{
		RegisteredClaims: c.registered(user.ID, c.config.GetDefaultAccessTokenExpiry()),
		TokenUse:         TokenUseAccess,
		ClientID:         clientID,
		Username:         user.Username,
		Scope:            scope,
	})
}

func (c *Creator) registered(subject string, expiry time.Duration) jwtlib.RegisteredClaims {
	now := NowTimeFunc()
	return jwtlib.RegisteredClaims{
		Issuer:    c.issuer,
		Subject:   subject,
		IssuedAt:  jwtlib.NewNumericDate(now),
		ExpiresAt: jwtlib.NewNumericDate(now.Add(expiry)),
		ID:        uuid.New().String(),
	}
}

func (c *Creator) sign(claims *Claims) (IssuedToken, error) {
	signedToken, err := c.signer.Sign(claims)
	if err != nil {
		return IssuedToken{}, fmt.Errorf("failed to sign JWT token: %w", err)
	}
	return IssuedToken{
		Token:     signedToken,
		JTI:       claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

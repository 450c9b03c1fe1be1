package jwt

import (
	"errors"
	"fmt"
	"strings"

	jwtlib "github.com/golang-jwt/jwt/v5"
	autherrors "github.com/jrsteele09/nebula-bridge/internal/errors"
	"github.com/jrsteele09/nebula-bridge/token/keys"
)

// RevokedChecker is an interface for checking if a token has been revoked
type RevokedChecker interface {
	IsRevoked(jti string) bool
}

// Verifier validates tokens issued by the local pool.
type Verifier struct {
	issuer         string
	signer         keys.Signer
	revokedChecker RevokedChecker
}

// NewVerifier creates a verifier for tokens signed by signer under issuer.
// revokedChecker may be nil.
func NewVerifier(issuer string, signer keys.Signer, revokedChecker RevokedChecker) *Verifier {
	return &Verifier{
		issuer:         issuer,
		signer:         signer,
		revokedChecker: revokedChecker,
	}
}

// VerifyIDToken validates an ID token minted for clientID.
func (v *Verifier) VerifyIDToken(rawToken, clientID string) (*Claims, error) {
	return v.verify(rawToken, TokenUseID, jwtlib.WithAudience(clientID))
}

// VerifyAccessToken validates an access token.
func (v *Verifier) VerifyAccessToken(rawToken string) (*Claims, error) {
	return v.verify(rawToken, TokenUseAccess)
}

func (v *Verifier) verify(rawToken, tokenUse string, opts ...jwtlib.ParserOption) (*Claims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, autherrors.ErrInvalidToken
	}

	opts = append(opts,
		jwtlib.WithIssuer(v.issuer),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithIssuedAt(),
		jwtlib.WithTimeFunc(NowTimeFunc),
		jwtlib.WithValidMethods([]string{keys.RS256}),
	)

	claims := &Claims{}
	_, err := jwtlib.ParseWithClaims(rawToken, claims, v.signer.GetVerificationKey, opts...)
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return nil, autherrors.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", autherrors.ErrInvalidToken, err)
	}

	if claims.TokenUse != tokenUse {
		return nil, fmt.Errorf("%w: expected %s token, got %q", autherrors.ErrInvalidToken, tokenUse, claims.TokenUse)
	}

	if v.revokedChecker != nil && v.revokedChecker.IsRevoked(claims.ID) {
		return nil, autherrors.ErrTokenRevoked
	}

	return claims, nil
}

package refresh

import (
	"time"
)

// StoredRefreshToken represents the server-side storage of refresh token metadata.
// The client only receives the Token field (a random string). All other fields are
// server-side metadata used for validation and token refresh operations.
type StoredRefreshToken struct {
	Token    string    // The actual random token string (sent to client)
	UserID   string    // Server-side metadata
	ClientID string    // Server-side metadata
	Scope    string    // Server-side metadata (original scope for token refresh)
	Iat      time.Time // Server-side metadata (issued at time)

	// IssuedTokens maps the jti of every ID/access token minted under this
	// refresh token to its expiry, so sign-out can revoke them.
	IssuedTokens map[string]time.Time
}

// Repo manages server-side storage of refresh token metadata keyed by the token string.
type Repo interface {
	Upsert(refreshToken *StoredRefreshToken) error
	Delete(token string) error
	Get(token string) (*StoredRefreshToken, error)
	GetByUserID(userID string) (*StoredRefreshToken, error)
	AddIssuedToken(token, jti string, exp time.Time) error
}

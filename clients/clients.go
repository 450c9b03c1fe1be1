package clients

import (
	"crypto/subtle"
	"slices"
	"strings"

	"github.com/jrsteele09/nebula-bridge/internal/errors"
)

type ClientType string

const (
	ClientTypeConfidential ClientType = "confidential" // Can keep secrets (server-side apps)
	ClientTypePublic       ClientType = "public"       // Cannot keep secrets (the nebula client)
)

// DefaultScopes are the scopes granted to the pool's app client.
var DefaultScopes = []string{"openid", "email", "profile"}

// Client is an app client registered with the identity pool.
type Client struct {
	ID           string     `json:"id"`
	Type         ClientType `json:"type"` // public or confidential
	Description  string     `json:"description"`
	Secret       string     `json:"secret,omitempty"`
	RedirectURIs []string   `json:"redirectURIs"`
	Scopes       []string   `json:"scopes"` // Allowed scopes for this client
}

// IsPublic returns true if the client is a public client
func (c *Client) IsPublic() bool {
	return c.Type == ClientTypePublic
}

// HasScope checks if the client has permission for a specific scope
func (c *Client) HasScope(scope string) bool {
	return slices.Contains(c.Scopes, scope)
}

// ValidateScopes checks if all requested scopes are allowed for this client
func (c *Client) ValidateScopes(requestedScopes string) error {
	for _, scope := range strings.Fields(requestedScopes) {
		if !c.HasScope(scope) {
			return errors.Wrapf(errors.ErrInvalidScope, "scope %q", scope)
		}
	}
	return nil
}

// GrantedScopes returns the requested scopes, or every allowed scope when none are requested.
func (c *Client) GrantedScopes(requestedScopes string) string {
	if strings.TrimSpace(requestedScopes) == "" {
		return strings.Join(c.Scopes, " ")
	}
	return strings.Join(strings.Fields(requestedScopes), " ")
}

// ValidateRedirectURI checks the URI is one of the registered sign-in or sign-out URIs.
func (c *Client) ValidateRedirectURI(uri string) error {
	if !slices.Contains(c.RedirectURIs, uri) {
		return errors.ErrInvalidRedirectURI
	}
	return nil
}

// Authenticate checks the secret of a confidential client. Public clients have no secret to check.
func (c *Client) Authenticate(secret string) error {
	if c.IsPublic() {
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(c.Secret), []byte(secret)) != 1 {
		return errors.ErrInvalidClient
	}
	return nil
}

package config

import (
	"os"
	"path/filepath"
	"strings"
)

// Client configuration keys. They are read from the environment first and
// then from the .env file.
const (
	ClientAPIURLVar          = "NEBULA_API_URL"
	ClientRegionVar          = "NEBULA_REGION"
	ClientUserPoolIDVar      = "NEBULA_USER_POOL_ID"
	ClientUserPoolClientVar  = "NEBULA_USER_POOL_CLIENT_ID"
	ClientCognitoDomainVar   = "NEBULA_COGNITO_DOMAIN"
	ClientRedirectSignInVar  = "NEBULA_REDIRECT_SIGN_IN"
	ClientRedirectSignOutVar = "NEBULA_REDIRECT_SIGN_OUT"
	ClientIssuerURLVar       = "NEBULA_ISSUER_URL"
	ClientSessionFileVar     = "NEBULA_SESSION_FILE"

	defaultAPIURL = "http://localhost:8080"
	defaultRegion = "us-east-1"
)

// ClientConfig is everything the nebula client needs to reach the echo API
// and the identity pool.
type ClientConfig struct {
	APIBaseURL       string
	Region           string
	UserPoolID       string
	UserPoolClientID string
	CognitoDomain    string
	RedirectSignIn   string
	RedirectSignOut  string
	IssuerURL        string
	SessionFile      string
}

// LoadClientConfig builds the client configuration from the environment,
// falling back to values in envFile (if it exists) and then to defaults.
func LoadClientConfig(envFile string) (ClientConfig, error) {
	fileVars := map[string]string{}
	if envFile != "" {
		vars, err := LoadEnvFile(envFile)
		if err != nil && !os.IsNotExist(err) {
			return ClientConfig{}, err
		}
		if vars != nil {
			fileVars = vars
		}
	}

	lookup := func(key, defaultValue string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		if v := fileVars[key]; v != "" {
			return v
		}
		return defaultValue
	}

	return ClientConfig{
		APIBaseURL:       lookup(ClientAPIURLVar, defaultAPIURL),
		Region:           lookup(ClientRegionVar, defaultRegion),
		UserPoolID:       lookup(ClientUserPoolIDVar, ""),
		UserPoolClientID: lookup(ClientUserPoolClientVar, ""),
		CognitoDomain:    lookup(ClientCognitoDomainVar, ""),
		RedirectSignIn:   lookup(ClientRedirectSignInVar, ""),
		RedirectSignOut:  lookup(ClientRedirectSignOutVar, ""),
		IssuerURL:        lookup(ClientIssuerURLVar, ""),
		SessionFile:      lookup(ClientSessionFileVar, defaultSessionFile()),
	}, nil
}

// AuthEnabled is false when either the pool id or the client id is missing.
// The client then talks to the echo API without credentials.
func (c ClientConfig) AuthEnabled() bool {
	return c.UserPoolID != "" && c.UserPoolClientID != ""
}

// AuthBaseURL is the root of the pool's hosted endpoints. A bare domain
// prefix expands to the managed hosted-UI domain; anything with a scheme is
// used as is.
func (c ClientConfig) AuthBaseURL() string {
	domain := strings.TrimSuffix(c.CognitoDomain, "/")
	if domain == "" {
		return strings.TrimSuffix(c.Issuer(), "/")
	}
	if strings.Contains(domain, "://") {
		return domain
	}
	return "https://" + domain + ".auth." + c.Region + ".amazoncognito.com"
}

// Issuer is the OIDC issuer whose ID tokens the client accepts.
func (c ClientConfig) Issuer() string {
	if c.IssuerURL != "" {
		return strings.TrimSuffix(c.IssuerURL, "/")
	}
	return ManagedIssuerURL(c.Region, c.UserPoolID)
}

// Values returns the configuration keyed by its environment variable names.
func (c ClientConfig) Values() map[string]string {
	return map[string]string{
		ClientAPIURLVar:          c.APIBaseURL,
		ClientRegionVar:          c.Region,
		ClientUserPoolIDVar:      c.UserPoolID,
		ClientUserPoolClientVar:  c.UserPoolClientID,
		ClientCognitoDomainVar:   c.CognitoDomain,
		ClientRedirectSignInVar:  c.RedirectSignIn,
		ClientRedirectSignOutVar: c.RedirectSignOut,
		ClientIssuerURLVar:       c.IssuerURL,
	}
}

// StateDir is ~/.nebulabridge, or the working directory when there is no home.
func StateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".nebulabridge"
	}
	return filepath.Join(home, ".nebulabridge")
}

func defaultSessionFile() string {
	return filepath.Join(StateDir(), "session.json")
}

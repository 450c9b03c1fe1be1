package config

import "fmt"

const (
	regionEnvVar          = "AWS_REGION"
	userPoolIDEnvVar      = "USER_POOL_ID"
	userPoolClientEnvVar  = "USER_POOL_CLIENT_ID"
	redirectSignInEnvVar  = "REDIRECT_SIGN_IN"
	redirectSignOutEnvVar = "REDIRECT_SIGN_OUT"
	localPoolEnvVar       = "LOCAL_POOL"
	autoConfirmEnvVar     = "AUTO_CONFIRM"
	issuerEnvVar          = "ISSUER_URL"
)

// Pool describes the identity pool that protects the echo API. When
// LOCAL_POOL is on (the default) the server hosts the pool itself.
type Pool struct{}

var _ PoolConfig = Pool{}

func (Pool) GetRegion() string {
	return GetEnv(regionEnvVar, "us-east-1")
}

func (Pool) GetUserPoolID() string {
	return GetEnv(userPoolIDEnvVar, "")
}

func (Pool) GetUserPoolClientID() string {
	return GetEnv(userPoolClientEnvVar, "")
}

func (Pool) GetRedirectSignIn() string {
	return GetEnv(redirectSignInEnvVar, "http://localhost:3000/")
}

func (Pool) GetRedirectSignOut() string {
	return GetEnv(redirectSignOutEnvVar, "http://localhost:3000/")
}

func (Pool) GetLocalPoolEnabled() bool {
	return getBool(localPoolEnvVar, true)
}

// GetAutoConfirm skips the confirmation code step on sign-up.
func (Pool) GetAutoConfirm() bool {
	return getBool(autoConfirmEnvVar, false)
}

// GetIssuerURL returns the token issuer the API trusts. The local pool
// issues as the server's base URL, a managed pool as its regional endpoint.
func (p Pool) GetIssuerURL() string {
	if issuer := GetEnv(issuerEnvVar, ""); issuer != "" {
		return issuer
	}
	if p.GetLocalPoolEnabled() {
		return EnvVars{}.GetBaseURL()
	}
	return ManagedIssuerURL(p.GetRegion(), p.GetUserPoolID())
}

// AuthEnabled reports whether the API requires bearer tokens. Without a pool
// id and client id the echo endpoint is open.
func (p Pool) AuthEnabled() bool {
	return p.GetUserPoolID() != "" && p.GetUserPoolClientID() != ""
}

// ManagedIssuerURL is the issuer of a managed (Cognito) user pool.
func ManagedIssuerURL(region, poolID string) string {
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", region, poolID)
}

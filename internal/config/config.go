package config

import "time"

type Config interface {
	EnvConfig
	CorsConfig
	OAuthConfig
	PoolConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetBaseURL() string
	GetSigningKeyFile() string
	GetEnv() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type OAuthConfig interface {
	GetConfirmationCodeLength() int
	GetConfirmationCodeExpiry() time.Duration
	GetMaxConfirmationAttempts() int
	GetRefreshTokenLength() int
	GetDefaultAccessTokenExpiry() time.Duration
	GetDefaultIDTokenExpiry() time.Duration
	GetDefaultRefreshTokenExpiry() time.Duration
}

type PoolConfig interface {
	GetRegion() string
	GetUserPoolID() string
	GetUserPoolClientID() string
	GetRedirectSignIn() string
	GetRedirectSignOut() string
	GetLocalPoolEnabled() bool
	GetAutoConfirm() bool
	GetIssuerURL() string
	AuthEnabled() bool
}

type mainConfig struct {
	EnvVars
	Cors
	OAuth
	Pool
}

func New() Config {
	return mainConfig{}
}

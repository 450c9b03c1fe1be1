package config

import "time"

type OAuth struct{}

var _ OAuthConfig = OAuth{}

func (OAuth) GetConfirmationCodeLength() int {
	return 6
}

func (OAuth) GetConfirmationCodeExpiry() time.Duration {
	return 24 * time.Hour
}

func (OAuth) GetMaxConfirmationAttempts() int {
	return 5
}

func (OAuth) GetRefreshTokenLength() int {
	return 32 // 32 bytes = 256 bits
}

func (OAuth) GetDefaultAccessTokenExpiry() time.Duration {
	return 1 * time.Hour
}

func (OAuth) GetDefaultIDTokenExpiry() time.Duration {
	return 1 * time.Hour
}

func (OAuth) GetDefaultRefreshTokenExpiry() time.Duration {
	return 30 * 24 * time.Hour // 30 days
}

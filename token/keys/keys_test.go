package keys_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/nebula-bridge/token/keys"
	"github.com/stretchr/testify/require"
)

func TestLoadOrCreateKeyPairPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "signing.pem")

	first, err := keys.LoadOrCreateKeyPair("kid-1", path)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	second, err := keys.LoadOrCreateKeyPair("kid-1", path)
	require.NoError(t, err)
	require.True(t, first.PublicKey.Equal(second.PublicKey))
}

func TestSignerRoundTrip(t *testing.T) {
	kp, err := keys.GenerateRSAKeyPair("kid-1")
	require.NoError(t, err)
	signer := keys.NewKeyPairSigner(kp)

	signed, err := signer.Sign(jwt.MapClaims{"sub": "user-1"})
	require.NoError(t, err)

	parsed, err := jwt.Parse(signed, signer.GetVerificationKey)
	require.NoError(t, err)
	require.Equal(t, "kid-1", parsed.Header["kid"])

	sub, err := parsed.Claims.GetSubject()
	require.NoError(t, err)
	require.Equal(t, "user-1", sub)

	jwks := signer.GetJWKS()
	require.Len(t, jwks.Keys, 1)
	require.Equal(t, "RSA", jwks.Keys[0].Kty)
	require.Equal(t, "AQAB", jwks.Keys[0].E)
}

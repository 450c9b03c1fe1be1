package userpool_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/nebula-bridge/clients"
	fakeclientrepo "github.com/jrsteele09/nebula-bridge/clients/fakerepo"
	"github.com/jrsteele09/nebula-bridge/internal/config"
	"github.com/jrsteele09/nebula-bridge/internal/errors"
	"github.com/jrsteele09/nebula-bridge/token/keys"
	refreshrepofake "github.com/jrsteele09/nebula-bridge/token/refresh/repofake"
	"github.com/jrsteele09/nebula-bridge/userpool"
	"github.com/jrsteele09/nebula-bridge/users"
	fakeuserrepo "github.com/jrsteele09/nebula-bridge/users/repofake"
	"github.com/stretchr/testify/require"
)

const (
	issuer           = "http://localhost:8080"
	testClientID     = "client-1"
	testUserEmail    = "ada@example.com"
	testUserPassword = "Passw0rd!"
)

// testFixture holds all test dependencies
type testFixture struct {
	userRepo users.UserRepo
	service  *userpool.Service
	now      time.Time
}

func setupTestFixture(t *testing.T, options ...userpool.Option) *testFixture {
	t.Helper()

	ur := fakeuserrepo.NewFakeUserRepo()
	cr := fakeclientrepo.NewFakeClientRepo()
	require.NoError(t, cr.Upsert(&clients.Client{
		ID:     testClientID,
		Type:   clients.ClientTypePublic,
		Scopes: clients.DefaultScopes,
	}))

	kp, err := keys.GenerateRSAKeyPair("kid-1")
	require.NoError(t, err)

	f := &testFixture{userRepo: ur, now: time.Now()}
	options = append([]userpool.Option{userpool.WithNowTime(func() time.Time { return f.now })}, options...)

	f.service, err = userpool.New(userpool.Repos{
		Users:         ur,
		Clients:       cr,
		RefreshTokens: refreshrepofake.NewFakeRefreshTokenRepo(),
	}, config.OAuth{}, issuer, keys.NewKeyPairSigner(kp), options...)
	require.NoError(t, err)
	return f
}

func (f *testFixture) confirmationCode(t *testing.T) string {
	t.Helper()
	user, err := f.userRepo.GetByEmail(testUserEmail)
	require.NoError(t, err)
	return user.ConfirmationCode
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := userpool.New(userpool.Repos{}, config.OAuth{}, issuer, nil)
	require.Error(t, err)
}

func TestSignUpRequiresConfirmation(t *testing.T) {
	f := setupTestFixture(t)

	out, err := f.service.SignUp(testClientID, testUserEmail, testUserPassword, testUserEmail)
	require.NoError(t, err)
	require.False(t, out.UserConfirmed)
	require.NotEmpty(t, out.UserSub)
	require.Equal(t, "a***@example.com", out.CodeDeliveryDestination)

	code := f.confirmationCode(t)
	require.Len(t, code, 6)

	_, err = f.service.InitiateAuth(testClientID, testUserEmail, testUserPassword, "")
	require.ErrorIs(t, err, errors.ErrUserNotConfirmed)

	require.NoError(t, f.service.ConfirmSignUp(testClientID, testUserEmail, code))

	result, err := f.service.InitiateAuth(testClientID, testUserEmail, testUserPassword, "")
	require.NoError(t, err)
	require.NotEmpty(t, result.IDToken)
	require.NotEmpty(t, result.AccessToken)
	require.NotEmpty(t, result.RefreshToken)
	require.Equal(t, "openid email profile", result.Scope)

	claims, err := f.service.VerifyIDToken(result.IDToken, testClientID)
	require.NoError(t, err)
	require.Equal(t, testUserEmail, claims.Email)
	require.Equal(t, out.UserSub, claims.Subject)
}

func TestSignUpAutoConfirm(t *testing.T) {
	f := setupTestFixture(t, userpool.WithAutoConfirm(true))

	out, err := f.service.SignUp(testClientID, testUserEmail, testUserPassword, "")
	require.NoError(t, err)
	require.True(t, out.UserConfirmed)
	require.Empty(t, out.CodeDeliveryDestination)

	_, err = f.service.InitiateAuth(testClientID, testUserEmail, testUserPassword, "openid")
	require.NoError(t, err)
}

func TestSignUpRejections(t *testing.T) {
	f := setupTestFixture(t, userpool.WithAutoConfirm(true))

	_, err := f.service.SignUp("unknown", testUserEmail, testUserPassword, testUserEmail)
	require.ErrorIs(t, err, errors.ErrInvalidClient)

	_, err = f.service.SignUp(testClientID, testUserEmail, "weak", testUserEmail)
	require.ErrorIs(t, err, errors.ErrInvalidPassword)

	_, err = f.service.SignUp(testClientID, testUserEmail, testUserPassword, testUserEmail)
	require.NoError(t, err)

	_, err = f.service.SignUp(testClientID, "ADA@example.com", testUserPassword, "")
	require.ErrorIs(t, err, errors.ErrUsernameExists)
}

func TestConfirmSignUpFailures(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.SignUp(testClientID, testUserEmail, testUserPassword, testUserEmail)
	require.NoError(t, err)
	code := f.confirmationCode(t)

	for range 5 {
		err = f.service.ConfirmSignUp(testClientID, testUserEmail, "not-it")
		require.ErrorIs(t, err, errors.ErrInvalidCode)
	}
	err = f.service.ConfirmSignUp(testClientID, testUserEmail, code)
	require.ErrorIs(t, err, errors.ErrLimitExceeded)
}

func TestConfirmSignUpExpiredCode(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.SignUp(testClientID, testUserEmail, testUserPassword, testUserEmail)
	require.NoError(t, err)
	code := f.confirmationCode(t)

	f.now = f.now.Add(25 * time.Hour)
	err = f.service.ConfirmSignUp(testClientID, testUserEmail, code)
	require.ErrorIs(t, err, errors.ErrCodeExpired)
}

func TestInitiateAuthBadCredentials(t *testing.T) {
	f := setupTestFixture(t, userpool.WithAutoConfirm(true))

	_, err := f.service.SignUp(testClientID, testUserEmail, testUserPassword, testUserEmail)
	require.NoError(t, err)

	_, err = f.service.InitiateAuth(testClientID, testUserEmail, "Wrong-passw0rd", "")
	require.ErrorIs(t, err, errors.ErrInvalidCredentials)

	_, err = f.service.InitiateAuth(testClientID, "nobody@example.com", testUserPassword, "")
	require.ErrorIs(t, err, errors.ErrInvalidCredentials)

	_, err = f.service.InitiateAuth(testClientID, testUserEmail, testUserPassword, "openid admin")
	require.ErrorIs(t, err, errors.ErrInvalidScope)
}

func TestRefreshAndRevoke(t *testing.T) {
	f := setupTestFixture(t, userpool.WithAutoConfirm(true))

	_, err := f.service.SignUp(testClientID, testUserEmail, testUserPassword, testUserEmail)
	require.NoError(t, err)

	signedIn, err := f.service.InitiateAuth(testClientID, testUserEmail, testUserPassword, "")
	require.NoError(t, err)

	refreshed, err := f.service.Refresh(testClientID, signedIn.RefreshToken)
	require.NoError(t, err)
	require.Empty(t, refreshed.RefreshToken)

	info, err := f.service.UserInfo(refreshed.AccessToken)
	require.NoError(t, err)
	require.Equal(t, testUserEmail, info.Email)
	require.True(t, info.EmailVerified)

	require.NoError(t, f.service.Revoke(testClientID, signedIn.RefreshToken))

	_, err = f.service.VerifyIDToken(signedIn.IDToken, testClientID)
	require.ErrorIs(t, err, errors.ErrTokenRevoked)
	_, err = f.service.VerifyIDToken(refreshed.IDToken, testClientID)
	require.ErrorIs(t, err, errors.ErrTokenRevoked)
	_, err = f.service.UserInfo(refreshed.AccessToken)
	require.ErrorIs(t, err, errors.ErrTokenRevoked)

	_, err = f.service.Refresh(testClientID, signedIn.RefreshToken)
	require.ErrorIs(t, err, errors.ErrInvalidRefreshToken)

	user, err := f.userRepo.GetByEmail(testUserEmail)
	require.NoError(t, err)
	require.False(t, user.LoggedIn)

	// revoking twice is not an error
	require.NoError(t, f.service.Revoke(testClientID, signedIn.RefreshToken))
}

func TestSecondSignInRevokesFirstSession(t *testing.T) {
	f := setupTestFixture(t, userpool.WithAutoConfirm(true))

	_, err := f.service.SignUp(testClientID, testUserEmail, testUserPassword, testUserEmail)
	require.NoError(t, err)

	first, err := f.service.InitiateAuth(testClientID, testUserEmail, testUserPassword, "")
	require.NoError(t, err)
	second, err := f.service.InitiateAuth(testClientID, testUserEmail, testUserPassword, "")
	require.NoError(t, err)

	_, err = f.service.VerifyIDToken(first.IDToken, testClientID)
	require.ErrorIs(t, err, errors.ErrTokenRevoked)
	_, err = f.service.VerifyIDToken(second.IDToken, testClientID)
	require.NoError(t, err)
}

func TestDiscovery(t *testing.T) {
	f := setupTestFixture(t)

	doc := f.service.Discovery()
	require.Equal(t, issuer, doc.Issuer)
	require.Equal(t, issuer+"/oauth2/token", doc.TokenEndpoint)
	require.Equal(t, issuer+"/.well-known/jwks.json", doc.JWKSURI)
	require.Len(t, f.service.JWKS().Keys, 1)
}

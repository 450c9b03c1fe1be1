package userpool

import (
	"context"
	"crypto/rand"
	"math/big"
	"strings"
	"time"

	"github.com/jrsteele09/nebula-bridge/clients"
	"github.com/jrsteele09/nebula-bridge/internal/config"
	autherrors "github.com/jrsteele09/nebula-bridge/internal/errors"
	"github.com/jrsteele09/nebula-bridge/token"
	"github.com/jrsteele09/nebula-bridge/token/jwt"
	"github.com/jrsteele09/nebula-bridge/token/keys"
	"github.com/jrsteele09/nebula-bridge/token/refresh"
	"github.com/jrsteele09/nebula-bridge/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Repos holds all repository dependencies for the Service
type Repos struct {
	Users         users.UserRepo // Repository for pool users
	Clients       clients.Repo   // Repository for app clients
	RefreshTokens refresh.Repo   // Repository for refresh token metadata
}

// Service is a local user pool: sign-up with confirmation codes, password
// sign-in, refresh, revocation and token verification.
type Service struct {
	repos       Repos
	config      config.OAuthConfig
	issuer      string
	signer      keys.Signer
	creator     *jwt.Creator
	verifier    *jwt.Verifier
	refresh     *refresh.Manager
	revoked     token.RevokedTokenCache
	policy      users.PasswordPolicy
	autoConfirm bool
	nowTime     func() time.Time // nowTime function (injectable for testing)
}

// Option defines a function type to modify the Service instance.
type Option func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// WithAutoConfirm confirms new users at sign-up, skipping the code step.
func WithAutoConfirm(autoConfirm bool) Option {
	return func(s *Service) {
		s.autoConfirm = autoConfirm
	}
}

// WithPasswordPolicy replaces users.DefaultPasswordPolicy.
func WithPasswordPolicy(policy users.PasswordPolicy) Option {
	return func(s *Service) {
		s.policy = policy
	}
}

// WithRevokedTokenCache replaces the in-memory revocation cache.
func WithRevokedTokenCache(cache token.RevokedTokenCache) Option {
	return func(s *Service) {
		s.revoked = cache
	}
}

// New initializes a pool that issues tokens as issuer, signed by signer.
func New(repos Repos, cfg config.OAuthConfig, issuer string, signer keys.Signer, options ...Option) (*Service, error) {
	if repos.Users == nil {
		return nil, errors.New("[userpool.New] Users repo is required")
	}
	if repos.Clients == nil {
		return nil, errors.New("[userpool.New] Clients repo is required")
	}
	if repos.RefreshTokens == nil {
		return nil, errors.New("[userpool.New] RefreshTokens repo is required")
	}
	if signer == nil {
		return nil, errors.New("[userpool.New] signer is required")
	}
	if issuer == "" {
		return nil, errors.New("[userpool.New] issuer is required")
	}

	s := &Service{
		repos:   repos,
		config:  cfg,
		issuer:  strings.TrimSuffix(issuer, "/"),
		signer:  signer,
		refresh: refresh.NewManager(repos.RefreshTokens, cfg),
		policy:  users.DefaultPasswordPolicy,
		nowTime: time.Now,
	}

	for _, opt := range options {
		opt(s)
	}

	if s.revoked == nil {
		s.revoked = token.NewInMemoryRevokedTokenCache(s.nowTime)
	}
	s.creator = jwt.NewCreator(cfg, s.issuer, signer)
	s.verifier = jwt.NewVerifier(s.issuer, signer, s.revoked)

	return s, nil
}

// Issuer is the iss claim of every token the pool mints.
func (s *Service) Issuer() string {
	return s.issuer
}

// AuthenticateClient checks the app client exists and, for confidential clients, its secret.
func (s *Service) AuthenticateClient(clientID, clientSecret string) (*clients.Client, error) {
	client, err := s.repos.Clients.Get(clientID)
	if err != nil {
		return nil, errors.Wrap(autherrors.ErrInvalidClient, clientID)
	}
	if err := client.Authenticate(clientSecret); err != nil {
		return nil, errors.Wrap(err, clientID)
	}
	return client, nil
}

// SignUp registers a new user. Unless auto-confirm is on the user must
// confirm with the code delivered to their email before signing in.
func (s *Service) SignUp(clientID, username, password, email string) (*SignUpOutput, error) {
	if _, err := s.AuthenticateClient(clientID, ""); err != nil {
		return nil, errors.Wrap(err, "[SignUp]")
	}

	email = users.NormaliseEmail(email)
	if email == "" {
		email = users.NormaliseEmail(username)
	}
	if email == "" || password == "" {
		return nil, errors.Wrap(autherrors.ErrInvalidInput, "[SignUp] username and password are required")
	}

	if existing, err := s.repos.Users.GetByEmail(email); err == nil && existing != nil {
		return nil, errors.Wrap(autherrors.ErrUsernameExists, "[SignUp]")
	}

	if err := s.policy.Validate(password); err != nil {
		return nil, errors.Wrap(autherrors.ErrInvalidPassword, err.Error())
	}

	passwordHash, err := users.HashPassword(password)
	if err != nil {
		return nil, errors.Wrap(err, "[SignUp] failed to hash password")
	}

	if username == "" {
		username = email
	}

	now := s.nowTime()
	user := &users.User{
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		DateJoined:   now,
		Verified:     s.autoConfirm,
	}

	if !s.autoConfirm {
		code, err := generateCode(s.config.GetConfirmationCodeLength())
		if err != nil {
			return nil, errors.Wrap(err, "[SignUp] failed to generate confirmation code")
		}
		user.ConfirmationCode = code
		user.ConfirmationExpiry = now.Add(s.config.GetConfirmationCodeExpiry())
	}

	if err := s.repos.Users.Upsert(user); err != nil {
		return nil, errors.Wrap(err, "[SignUp] failed to store user")
	}

	output := &SignUpOutput{
		UserConfirmed: user.Verified,
		UserSub:       user.ID,
	}
	if !user.Verified {
		output.CodeDeliveryDestination = maskEmail(email)
		// There is no mail delivery; the log is the delivery channel.
		log.Info().Str("email", email).Str("code", user.ConfirmationCode).Msg("sign-up confirmation code")
	}
	return output, nil
}

// ConfirmSignUp verifies the confirmation code issued at sign-up.
func (s *Service) ConfirmSignUp(clientID, username, code string) error {
	if _, err := s.AuthenticateClient(clientID, ""); err != nil {
		return errors.Wrap(err, "[ConfirmSignUp]")
	}

	user, err := s.repos.Users.GetByEmail(username)
	if err != nil {
		return errors.Wrap(autherrors.ErrUserNotFound, "[ConfirmSignUp]")
	}
	if user.Verified {
		return nil
	}

	if user.ConfirmationAttempts >= s.config.GetMaxConfirmationAttempts() {
		return errors.Wrap(autherrors.ErrLimitExceeded, "[ConfirmSignUp]")
	}
	if s.nowTime().After(user.ConfirmationExpiry) {
		return errors.Wrap(autherrors.ErrCodeExpired, "[ConfirmSignUp]")
	}
	if strings.TrimSpace(code) != user.ConfirmationCode {
		user.ConfirmationAttempts++
		if err := s.repos.Users.Upsert(user); err != nil {
			return errors.Wrap(err, "[ConfirmSignUp] failed to record attempt")
		}
		return errors.Wrap(autherrors.ErrInvalidCode, "[ConfirmSignUp]")
	}

	user.Verified = true
	user.ConfirmationCode = ""
	user.ConfirmationAttempts = 0
	if err := s.repos.Users.Upsert(user); err != nil {
		return errors.Wrap(err, "[ConfirmSignUp] failed to store user")
	}
	return nil
}

// InitiateAuth signs a user in with their password and issues a token set.
func (s *Service) InitiateAuth(clientID, username, password, scope string) (*AuthenticationResult, error) {
	client, err := s.AuthenticateClient(clientID, "")
	if err != nil {
		return nil, errors.Wrap(err, "[InitiateAuth]")
	}
	if err := client.ValidateScopes(scope); err != nil {
		return nil, errors.Wrap(err, "[InitiateAuth]")
	}

	user, err := s.repos.Users.GetByEmail(username)
	if err != nil || !user.CheckPassword(password) {
		return nil, autherrors.ErrInvalidCredentials
	}
	if user.Blocked {
		return nil, autherrors.ErrUserBlocked
	}
	if !user.Verified {
		return nil, autherrors.ErrUserNotConfirmed
	}

	grantedScope := client.GrantedScopes(scope)
	refreshToken, previous, err := s.refresh.Create(client.ID, user.ID, grantedScope)
	if err != nil {
		return nil, errors.Wrap(err, "[InitiateAuth] failed to create refresh token")
	}
	if previous != nil {
		s.revokeIssued(previous)
	}

	result, err := s.issueTokens(user, client.ID, grantedScope, refreshToken)
	if err != nil {
		return nil, errors.Wrap(err, "[InitiateAuth]")
	}
	result.RefreshToken = refreshToken

	user.LastLogin = s.nowTime()
	user.LoggedIn = true
	if err := s.repos.Users.Upsert(user); err != nil {
		return nil, errors.Wrap(err, "[InitiateAuth] failed to update user")
	}
	return result, nil
}

// Refresh issues a new ID and access token. The refresh token is not rotated.
func (s *Service) Refresh(clientID, refreshToken string) (*AuthenticationResult, error) {
	if _, err := s.AuthenticateClient(clientID, ""); err != nil {
		return nil, errors.Wrap(err, "[Refresh]")
	}

	rt, err := s.refresh.Validate(refreshToken, clientID)
	if err != nil {
		return nil, errors.Wrap(err, "[Refresh]")
	}

	user, err := s.repos.Users.GetByID(rt.UserID)
	if err != nil {
		return nil, errors.Wrap(autherrors.ErrInvalidRefreshToken, "[Refresh] user no longer exists")
	}
	if user.Blocked {
		return nil, autherrors.ErrUserBlocked
	}

	return s.issueTokens(user, clientID, rt.Scope, refreshToken)
}

// Revoke ends the session behind a refresh token: the refresh token is
// deleted and every token issued under it is revoked. Unknown tokens are
// ignored.
func (s *Service) Revoke(clientID, refreshToken string) error {
	if _, err := s.AuthenticateClient(clientID, ""); err != nil {
		return errors.Wrap(err, "[Revoke]")
	}

	rt, err := s.refresh.Get(refreshToken)
	if err != nil {
		return nil
	}
	if rt.ClientID != clientID {
		return errors.Wrap(autherrors.ErrInvalidClient, "[Revoke] token was issued to another client")
	}

	s.revokeIssued(rt)
	if err := s.refresh.Delete(refreshToken); err != nil {
		return errors.Wrap(err, "[Revoke] failed to delete refresh token")
	}

	if user, err := s.repos.Users.GetByID(rt.UserID); err == nil {
		if err := s.repos.Users.SetLoggedIn(user.Email, false); err != nil {
			log.Err(err).Str("user", user.ID).Msg("failed to mark user logged out")
		}
	}
	return nil
}

// UserInfo returns the claims of the user an access token was issued to.
func (s *Service) UserInfo(accessToken string) (*UserInfo, error) {
	claims, err := s.verifier.VerifyAccessToken(accessToken)
	if err != nil {
		return nil, errors.Wrap(err, "[UserInfo]")
	}

	user, err := s.repos.Users.GetByID(claims.Subject)
	if err != nil {
		return nil, errors.Wrap(autherrors.ErrInvalidToken, "[UserInfo] unknown subject")
	}

	return &UserInfo{
		Sub:           user.ID,
		Email:         user.Email,
		EmailVerified: user.Verified,
		Username:      user.Username,
	}, nil
}

// VerifyIDToken validates an ID token minted for clientID.
func (s *Service) VerifyIDToken(rawToken, clientID string) (*jwt.Claims, error) {
	return s.verifier.VerifyIDToken(rawToken, clientID)
}

// JWKS returns the public signing keys.
func (s *Service) JWKS() keys.JWKS {
	return s.signer.GetJWKS()
}

// RunRevocationCleanup drops expired entries from the revocation cache every
// interval until ctx is done.
func (s *Service) RunRevocationCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.revoked.Cleanup(); n > 0 {
				log.Debug().Int("removed", n).Msg("revoked token cache cleaned")
			}
		}
	}
}

func (s *Service) issueTokens(user *users.User, clientID, scope, refreshToken string) (*AuthenticationResult, error) {
	idToken, err := s.creator.CreateIDToken(user, clientID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create ID token")
	}
	accessToken, err := s.creator.CreateAccessToken(user, clientID, scope)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create access token")
	}

	for _, issued := range []jwt.IssuedToken{idToken, accessToken} {
		if err := s.refresh.TrackIssued(refreshToken, issued.JTI, issued.ExpiresAt); err != nil {
			return nil, errors.Wrap(err, "failed to track issued token")
		}
	}

	return &AuthenticationResult{
		IDToken:     idToken.Token,
		AccessToken: accessToken.Token,
		TokenType:   TokenTypeBearer,
		ExpiresIn:   int(s.config.GetDefaultAccessTokenExpiry().Seconds()),
		Scope:       scope,
	}, nil
}

func (s *Service) revokeIssued(rt *refresh.StoredRefreshToken) {
	for jti, exp := range rt.IssuedTokens {
		if err := s.revoked.Add(jti, exp); err != nil {
			log.Err(err).Str("jti", jti).Msg("failed to revoke token")
		}
	}
}

func generateCode(length int) (string, error) {
	var sb strings.Builder
	for range length {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		sb.WriteByte(byte('0' + n.Int64()))
	}
	return sb.String(), nil
}

// maskEmail renders a@example.com as a***@example.com.
func maskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" {
		return email
	}
	return local[:1] + "***@" + domain
}

// Package identity is the client side of the user pool: password sign-in,
// sign-up, confirmation, sign-out and a cached, self-refreshing session.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/nebula-bridge/internal/config"
	autherrors "github.com/jrsteele09/nebula-bridge/internal/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// Scopes requested at sign-in and in hosted UI URLs.
var Scopes = []string{"email", "profile", oidc.ScopeOpenID}

// Client is an immutable handle on one pool app client.
type Client struct {
	cfg        config.ClientConfig
	authBase   string
	oauth      *oauth2.Config
	httpClient *http.Client
	store      SessionStore
	now        func() time.Time

	verifierLock sync.Mutex
	verifier     *oidc.IDTokenVerifier
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithSessionStore(store SessionStore) Option {
	return func(c *Client) {
		c.store = store
	}
}

// WithNowTime sets the clock ID tokens are checked against (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(c *Client) {
		c.now = nowFunc
	}
}

// New configures a client for the pool described by cfg. It fails with
// ErrAuthDisabled when the pool id or client id is missing.
func New(cfg config.ClientConfig, options ...Option) (*Client, error) {
	if !cfg.AuthEnabled() {
		return nil, autherrors.ErrAuthDisabled
	}

	authBase := cfg.AuthBaseURL()
	c := &Client{
		cfg:      cfg,
		authBase: authBase,
		oauth: &oauth2.Config{
			ClientID: cfg.UserPoolClientID,
			Endpoint: oauth2.Endpoint{
				AuthURL:   authBase + "/oauth2/authorize",
				TokenURL:  authBase + "/oauth2/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
			RedirectURL: cfg.RedirectSignIn,
			Scopes:      Scopes,
		},
		httpClient: &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
	}

	for _, opt := range options {
		opt(c)
	}

	if c.store == nil {
		if cfg.SessionFile != "" {
			c.store = NewFileStore(cfg.SessionFile)
		} else {
			c.store = NewMemoryStore()
		}
	}
	return c, nil
}

// SignIn exchanges a username and password for a session. An unconfirmed
// account is not an error: the output carries NextStepConfirmSignUp.
func (c *Client) SignIn(ctx context.Context, username, password string) (*SignInOutput, error) {
	tok, err := c.oauth.PasswordCredentialsToken(c.oauthContext(ctx), username, password)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			sentinel := autherrors.FromCode(re.ErrorCode)
			if errors.Is(sentinel, autherrors.ErrUserNotConfirmed) {
				return &SignInOutput{IsSignedIn: false, NextStep: NextStepConfirmSignUp}, nil
			}
			if re.ErrorCode != "" {
				return nil, fmt.Errorf("identity.SignIn: %w", sentinel)
			}
		}
		return nil, fmt.Errorf("identity.SignIn: %w", err)
	}

	tokens := tokensFrom(tok)
	identity, err := c.verify(ctx, tokens.IDToken)
	if err != nil {
		return nil, fmt.Errorf("identity.SignIn: %w", err)
	}
	if err := c.store.Save(tokens); err != nil {
		return nil, fmt.Errorf("identity.SignIn: %w", err)
	}

	return &SignInOutput{IsSignedIn: true, NextStep: NextStepDone, Identity: identity}, nil
}

type signUpResponse struct {
	UserConfirmed           bool   `json:"userConfirmed"`
	UserSub                 string `json:"userSub"`
	CodeDeliveryDestination string `json:"codeDeliveryDestination"`
}

// SignUp registers a user. When the pool requires confirmation the output
// has NextStepConfirmSignUp and IsSignUpComplete false.
func (c *Client) SignUp(ctx context.Context, username, password, email string) (*SignUpOutput, error) {
	body := map[string]string{
		"clientId": c.cfg.UserPoolClientID,
		"username": username,
		"password": password,
		"email":    email,
	}

	var resp signUpResponse
	if err := c.postJSON(ctx, "/signup", body, &resp); err != nil {
		return nil, fmt.Errorf("identity.SignUp: %w", err)
	}

	out := &SignUpOutput{
		IsSignUpComplete:        resp.UserConfirmed,
		UserID:                  resp.UserSub,
		NextStep:                NextStepDone,
		CodeDeliveryDestination: resp.CodeDeliveryDestination,
	}
	if !resp.UserConfirmed {
		out.NextStep = NextStepConfirmSignUp
	}
	return out, nil
}

// ConfirmSignUp completes a registration with the emailed code.
func (c *Client) ConfirmSignUp(ctx context.Context, username, code string) (*SignUpOutput, error) {
	body := map[string]string{
		"clientId": c.cfg.UserPoolClientID,
		"username": username,
		"code":     code,
	}
	if err := c.postJSON(ctx, "/confirm-signup", body, nil); err != nil {
		return nil, fmt.Errorf("identity.ConfirmSignUp: %w", err)
	}
	return &SignUpOutput{IsSignUpComplete: true, NextStep: NextStepDone}, nil
}

// SignOut revokes the refresh token and always clears the cached session.
// Only a transport failure is reported.
func (c *Client) SignOut(ctx context.Context) error {
	tokens, loadErr := c.store.Load()
	defer func() {
		if err := c.store.Clear(); err != nil {
			log.Err(err).Msg("failed to clear cached session")
		}
	}()

	if loadErr != nil || tokens == nil || tokens.RefreshToken == "" {
		return nil
	}

	form := url.Values{}
	form.Set("token", tokens.RefreshToken)
	form.Set("client_id", c.cfg.UserPoolClientID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authBase+"/oauth2/revoke", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("identity.SignOut: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("identity.SignOut: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode >= 400 {
		log.Warn().Int("status", resp.StatusCode).Msg("token revocation rejected")
	}
	return nil
}

// CurrentUser returns the identity of the cached session.
func (c *Client) CurrentUser(ctx context.Context) (*Identity, error) {
	session, err := c.FetchSession(ctx)
	if err != nil {
		return nil, err
	}
	return &session.Identity, nil
}

// FetchSession returns the cached session, refreshing its tokens when they
// have expired. ErrNoSession means the user has to sign in.
func (c *Client) FetchSession(ctx context.Context) (*Session, error) {
	cached, err := c.store.Load()
	if err != nil {
		return nil, fmt.Errorf("identity.FetchSession: %w", err)
	}
	if cached == nil || cached.IDToken == "" {
		return nil, autherrors.ErrNoSession
	}

	tok, err := c.oauth.TokenSource(c.oauthContext(ctx), cached.oauth2Token()).Token()
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) || cached.RefreshToken == "" {
			if clearErr := c.store.Clear(); clearErr != nil {
				log.Err(clearErr).Msg("failed to clear rejected session")
			}
			return nil, fmt.Errorf("identity.FetchSession: %w: %v", autherrors.ErrNoSession, err)
		}
		return nil, fmt.Errorf("identity.FetchSession: %w", err)
	}

	tokens := cached
	if tok.AccessToken != cached.AccessToken {
		tokens = tokensFrom(tok)
		if err := c.store.Save(tokens); err != nil {
			return nil, fmt.Errorf("identity.FetchSession: %w", err)
		}
		log.Debug().Time("expiry", tokens.Expiry).Msg("session refreshed")
	}

	identity, err := c.verify(ctx, tokens.IDToken)
	if err != nil {
		return nil, fmt.Errorf("identity.FetchSession: %w", err)
	}
	return &Session{Identity: *identity, Tokens: *tokens}, nil
}

// HostedUISignInURL is the hosted UI's authorization code URL for state.
func (c *Client) HostedUISignInURL(state string) string {
	return c.oauth.AuthCodeURL(state)
}

// HostedUISignOutURL is the hosted UI's logout URL.
func (c *Client) HostedUISignOutURL() string {
	params := url.Values{}
	params.Set("client_id", c.cfg.UserPoolClientID)
	params.Set("logout_uri", c.cfg.RedirectSignOut)
	return c.authBase + "/logout?" + params.Encode()
}

type idTokenClaims struct {
	Email           string `json:"email"`
	CognitoUsername string `json:"cognito:username"`
}

func (c *Client) verify(ctx context.Context, rawIDToken string) (*Identity, error) {
	if rawIDToken == "" {
		return nil, fmt.Errorf("%w: no id_token in response", autherrors.ErrInvalidToken)
	}

	verifier, err := c.idTokenVerifier(ctx)
	if err != nil {
		return nil, err
	}

	idToken, err := verifier.Verify(oidc.ClientContext(ctx, c.httpClient), rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", autherrors.ErrInvalidToken, err)
	}

	var claims idTokenClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: %v", autherrors.ErrInvalidToken, err)
	}

	username := claims.CognitoUsername
	if username == "" {
		username = claims.Email
	}
	return &Identity{UserID: idToken.Subject, Username: username, Email: claims.Email}, nil
}

// idTokenVerifier discovers the issuer once; failures are retried on the next call.
func (c *Client) idTokenVerifier(ctx context.Context) (*oidc.IDTokenVerifier, error) {
	c.verifierLock.Lock()
	defer c.verifierLock.Unlock()

	if c.verifier != nil {
		return c.verifier, nil
	}

	provider, err := oidc.NewProvider(oidc.ClientContext(ctx, c.httpClient), c.cfg.Issuer())
	if err != nil {
		return nil, fmt.Errorf("oidc discovery: %w", err)
	}
	c.verifier = provider.Verifier(&oidc.Config{ClientID: c.cfg.UserPoolClientID, Now: c.now})
	return c.verifier, nil
}

func (c *Client) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

type poolError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authBase+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var pe poolError
		if json.Unmarshal(respBody, &pe) == nil && pe.Error != "" {
			sentinel := autherrors.FromCode(pe.Error)
			if pe.ErrorDescription != "" && pe.ErrorDescription != sentinel.Error() {
				return fmt.Errorf("%w: %s", sentinel, pe.ErrorDescription)
			}
			return sentinel
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func tokensFrom(tok *oauth2.Token) *Tokens {
	idToken, _ := tok.Extra("id_token").(string)
	return &Tokens{
		IDToken:      idToken,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Expiry:       tok.Expiry,
	}
}

func (t *Tokens) oauth2Token() *oauth2.Token {
	return (&oauth2.Token{
		AccessToken:  t.AccessToken,
		TokenType:    t.TokenType,
		RefreshToken: t.RefreshToken,
		Expiry:       t.Expiry,
	}).WithExtra(map[string]any{"id_token": t.IDToken})
}

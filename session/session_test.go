package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/jrsteele09/nebula-bridge/auth"
	"github.com/jrsteele09/nebula-bridge/echoclient"
	"github.com/jrsteele09/nebula-bridge/identity"
	autherrors "github.com/jrsteele09/nebula-bridge/internal/errors"
	"github.com/stretchr/testify/require"
)

var ada = identity.Identity{UserID: "u-1", Username: "ada@example.com", Email: "ada@example.com"}

type fakeGateway struct {
	signIn      auth.Result
	signUp      auth.Result
	signOut     auth.Result
	currentUser auth.Result

	signInCalls  int
	signUpCalls  int
	signOutCalls int
}

func (g *fakeGateway) SignIn(context.Context, string, string) auth.Result {
	g.signInCalls++
	return g.signIn
}

func (g *fakeGateway) SignUp(context.Context, string, string, string) auth.Result {
	g.signUpCalls++
	return g.signUp
}

func (g *fakeGateway) SignOut(context.Context) auth.Result {
	g.signOutCalls++
	return g.signOut
}

func (g *fakeGateway) GetCurrentUser(context.Context) auth.Result {
	return g.currentUser
}

type fakeEcho struct {
	err       error
	fetches   []string
	sends     []string
	sendToken []string
}

func (e *fakeEcho) FetchMessage(_ context.Context, token string) (string, error) {
	e.fetches = append(e.fetches, token)
	if e.err != nil {
		return "", e.err
	}
	return "hello", nil
}

func (e *fakeEcho) SendText(_ context.Context, text, token string) (string, error) {
	e.sends = append(e.sends, text)
	e.sendToken = append(e.sendToken, token)
	if e.err != nil {
		return "", e.err
	}
	return "NebulaBridge received your message: " + text, nil
}

type staticTokens string

func (s staticTokens) GetToken(context.Context) string { return string(s) }

func newController(gw *fakeGateway, echo *fakeEcho, token string) *Controller {
	return NewController(true, Runtime{Gateway: gw, Echo: echo, Tokens: staticTokens(token)})
}

func TestSignInAuthenticatesAndFetchesOnce(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{
		currentUser: auth.Result{Err: autherrors.ErrNoSession},
		signIn:      auth.Result{Success: true, Identity: &ada, NextStep: identity.NextStepDone},
	}
	echo := &fakeEcho{}
	c := newController(gw, echo, "id-token")

	m := c.Start(ctx)
	require.True(t, m.SignInFormVisible())
	require.Empty(t, echo.fetches)

	m = c.Dispatch(ctx, SignInSubmitted{Credentials: Credentials{Email: "ada@example.com", Password: "Passw0rd!"}})
	require.IsType(t, Authenticated{}, m.State)
	require.Equal(t, "Signed in as: ada@example.com", m.StatusLine())
	require.Equal(t, []string{"id-token"}, echo.fetches)
	require.Equal(t, "hello", m.Message)
	require.False(t, m.Loading)
	require.False(t, m.Busy)
}

func TestRestoredSessionSkipsSignIn(t *testing.T) {
	gw := &fakeGateway{currentUser: auth.Result{Success: true, Identity: &ada}}
	echo := &fakeEcho{}

	m := newController(gw, echo, "id-token").Start(context.Background())
	require.True(t, m.EchoFormVisible())
	require.Len(t, echo.fetches, 1)
	require.Zero(t, gw.signInCalls)
}

func TestPasswordMismatchNeverCallsGateway(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{currentUser: auth.Result{Err: autherrors.ErrNoSession}}
	c := newController(gw, &fakeEcho{}, "")
	c.Start(ctx)
	c.Dispatch(ctx, ToggleRegister{})

	for _, creds := range []Credentials{
		{Email: "ada@example.com", Password: "Passw0rd!", ConfirmPassword: "Passw0rd?"},
		{Email: "ada@example.com", Password: "", ConfirmPassword: "x"},
	} {
		m := c.Dispatch(ctx, SignUpSubmitted{Credentials: creds})
		require.Equal(t, MsgPasswordMismatch, m.Error)
		require.True(t, m.Registering())
	}
	require.Zero(t, gw.signUpCalls)
}

func TestSignUpOutcomes(t *testing.T) {
	creds := Credentials{Email: "ada@example.com", Password: "Passw0rd!", ConfirmPassword: "Passw0rd!"}

	tests := []struct {
		name        string
		result      auth.Result
		registering bool
		notice      string
		err         string
	}{
		{
			name:   "immediate",
			result: auth.Result{Success: true, Identity: &ada, NextStep: identity.NextStepDone},
			notice: MsgRegistered,
		},
		{
			name:   "confirmation required",
			result: auth.Result{Identity: &ada, NextStep: identity.NextStepConfirmSignUp},
			notice: MsgRegisteredConfirm,
		},
		{
			name:        "failure",
			result:      auth.Result{Err: autherrors.ErrUsernameExists},
			registering: true,
			err:         autherrors.ErrUsernameExists.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			gw := &fakeGateway{currentUser: auth.Result{Err: autherrors.ErrNoSession}, signUp: tt.result}
			c := newController(gw, &fakeEcho{}, "")
			c.Start(ctx)
			c.Dispatch(ctx, ToggleRegister{})

			m := c.Dispatch(ctx, SignUpSubmitted{Credentials: creds})
			require.Equal(t, 1, gw.signUpCalls)
			require.Equal(t, tt.registering, m.Registering())
			require.Equal(t, !tt.registering, m.SignInFormVisible())
			require.Equal(t, tt.notice, m.Notice)
			require.Equal(t, tt.err, m.Error)
			require.False(t, m.Busy)
		})
	}
}

func TestSignInFailures(t *testing.T) {
	ctx := context.Background()

	gw := &fakeGateway{currentUser: auth.Result{Err: autherrors.ErrNoSession}, signIn: auth.Result{Err: autherrors.ErrInvalidCredentials}}
	c := newController(gw, &fakeEcho{}, "")
	c.Start(ctx)

	m := c.Dispatch(ctx, SignInSubmitted{Credentials: Credentials{Email: "", Password: "x"}})
	require.Equal(t, MsgMissingCredentials, m.Error)
	require.Zero(t, gw.signInCalls)

	m = c.Dispatch(ctx, SignInSubmitted{Credentials: Credentials{Email: "ada@example.com", Password: "nope"}})
	require.Equal(t, "incorrect username or password", m.Error)
	require.True(t, m.SignInFormVisible())

	gw.signIn = auth.Result{NextStep: identity.NextStepConfirmSignUp}
	m = c.Dispatch(ctx, SignInSubmitted{Credentials: Credentials{Email: "ada@example.com", Password: "Passw0rd!"}})
	require.Equal(t, MsgConfirmAccount, m.Error)
	require.True(t, m.SignInFormVisible())
}

func TestSignOutAlwaysReturnsToAnonymous(t *testing.T) {
	for _, result := range []auth.Result{{Success: true}, {Err: errors.New("connection refused")}} {
		ctx := context.Background()
		gw := &fakeGateway{currentUser: auth.Result{Success: true, Identity: &ada}, signOut: result}
		c := newController(gw, &fakeEcho{}, "id-token")
		c.Start(ctx)
		c.Dispatch(ctx, InputChanged{Text: "draft"})

		m := c.Dispatch(ctx, SignOutRequested{})
		require.Equal(t, 1, gw.signOutCalls)
		require.IsType(t, Anonymous{}, m.State)
		require.True(t, m.SignInFormVisible())
		require.Empty(t, m.Message)
		require.Empty(t, m.Input)
		require.False(t, m.Busy)
	}
}

func TestSendTextFailureKeepsInput(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{currentUser: auth.Result{Success: true, Identity: &ada}}
	echo := &fakeEcho{}
	c := newController(gw, echo, "id-token")
	c.Start(ctx)

	echo.err = &echoclient.StatusError{StatusCode: http.StatusInternalServerError}
	c.Dispatch(ctx, InputChanged{Text: "retry me"})
	m := c.Dispatch(ctx, TextSubmitted{})

	require.Equal(t, MsgSendFailed, m.Error)
	require.False(t, m.Loading)
	require.Equal(t, "retry me", m.Input)
	require.IsType(t, Authenticated{}, m.State)

	echo.err = nil
	m = c.Dispatch(ctx, TextSubmitted{})
	require.Empty(t, m.Error)
	require.Equal(t, "NebulaBridge received your message: retry me", m.Message)
	require.Equal(t, []string{"retry me", "retry me"}, echo.sends)
}

func TestMissingTokenAbortsSubmit(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{currentUser: auth.Result{Success: true, Identity: &ada}}
	echo := &fakeEcho{}
	c := newController(gw, echo, "")

	m := c.Start(ctx)
	require.Equal(t, MsgAuthRequired, m.Error)
	require.True(t, m.SignInFormVisible())
	require.Empty(t, echo.fetches)
	require.False(t, m.Loading)
}

func TestLoadingGuardsSecondSubmit(t *testing.T) {
	m := Model{State: Authenticated{Identity: ada}, AuthEnabled: true, Input: "x"}

	m, effects := Transition(m, TextSubmitted{})
	require.True(t, m.Loading)
	require.Equal(t, []Effect{SendText{Text: "x", WithToken: true}}, effects)

	m, effects = Transition(m, TextSubmitted{})
	require.True(t, m.Loading)
	require.Empty(t, effects)

	m, _ = Transition(m, TextSent{Message: "done"})
	require.False(t, m.Loading)
	require.Equal(t, "done", m.Message)
}

func TestToggleIsPure(t *testing.T) {
	m := NewModel(true)
	m, effects := Transition(m, ToggleRegister{})
	require.True(t, m.Registering())
	require.Empty(t, effects)

	m, effects = Transition(m, ToggleRegister{})
	require.True(t, m.SignInFormVisible())
	require.Empty(t, effects)

	disabled, _ := Transition(NewModel(false), ToggleRegister{})
	require.IsType(t, Anonymous{}, disabled.State)
}

type seenRequest struct {
	method string
	auth   string
}

func newEchoServer(t *testing.T) (*echoclient.Client, func() []seenRequest) {
	t.Helper()
	var (
		lock sync.Mutex
		seen []seenRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lock.Lock()
		seen = append(seen, seenRequest{method: r.Method, auth: r.Header.Get("Authorization")})
		lock.Unlock()
		json.NewEncoder(w).Encode(map[string]string{"message": "hello"}) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)

	return echoclient.New(srv.URL), func() []seenRequest {
		lock.Lock()
		defer lock.Unlock()
		return append([]seenRequest(nil), seen...)
	}
}

func TestAuthDisabledShowsEchoFormWithoutAuthorization(t *testing.T) {
	client, seen := newEchoServer(t)
	c := NewController(false, Runtime{Echo: client})

	m := c.Start(context.Background())
	require.True(t, m.EchoFormVisible())
	require.False(t, m.SignInFormVisible())
	require.Equal(t, "hello", m.Message)

	got := seen()
	require.Equal(t, []seenRequest{{method: http.MethodGet}}, got)
}

func TestSignInIssuesOneBearerGet(t *testing.T) {
	client, seen := newEchoServer(t)
	gw := &fakeGateway{
		currentUser: auth.Result{Err: autherrors.ErrNoSession},
		signIn:      auth.Result{Success: true, Identity: &ada},
	}
	c := NewController(true, Runtime{Gateway: gw, Echo: client, Tokens: staticTokens("id-token")})

	m := c.Start(context.Background())
	require.True(t, m.SignInFormVisible())
	require.Empty(t, seen())

	m = c.Dispatch(context.Background(), SignInSubmitted{Credentials: Credentials{Email: "ada@example.com", Password: "Passw0rd!"}})
	require.Equal(t, "Signed in as: ada@example.com", m.StatusLine())
	require.Equal(t, []seenRequest{{method: http.MethodGet, auth: "Bearer id-token"}}, seen())
}

func TestSignOutWaitsForOutstandingSend(t *testing.T) {
	m := Model{State: Authenticated{Identity: ada}, AuthEnabled: true, Input: "secret"}

	m, effects := Transition(m, TextSubmitted{})
	require.Equal(t, []Effect{SendText{Text: "secret", WithToken: true}}, effects)

	m, effects = Transition(m, SignOutRequested{})
	require.Empty(t, effects)
	require.False(t, m.Busy)
	require.IsType(t, Authenticated{}, m.State)

	m, _ = Transition(m, TextSent{Message: "NebulaBridge received your message: secret"})
	require.False(t, m.Loading)

	_, effects = Transition(m, SignOutRequested{})
	require.Equal(t, []Effect{SignOut{}}, effects)
}

func TestEchoOutcomeFromEndedSessionIsDropped(t *testing.T) {
	m := Model{State: Authenticated{Identity: ada}, AuthEnabled: true, Busy: true}
	m, _ = Transition(m, SignOutCompleted{Result: auth.Result{Success: true}})
	require.Equal(t, 1, m.Epoch)

	m, _ = Transition(m, TextSent{Message: "NebulaBridge received your message: secret", Epoch: 0})
	require.Empty(t, m.Message)
	require.True(t, m.SignInFormVisible())

	grace := identity.Identity{UserID: "u-2", Username: "grace@example.com", Email: "grace@example.com"}
	m, effects := Transition(m, SignInCompleted{Result: auth.Result{Success: true, Identity: &grace}})
	require.Equal(t, []Effect{FetchMessage{WithToken: true, Epoch: 1}}, effects)
	require.True(t, m.Loading)

	m, _ = Transition(m, TextSent{Message: "late", Epoch: 0})
	require.True(t, m.Loading)
	require.Empty(t, m.Message)

	m, effects = Transition(m, TextSubmitted{})
	require.Empty(t, effects)

	m, _ = Transition(m, MessageFetched{Message: "hello", Epoch: 1})
	require.False(t, m.Loading)
	require.Equal(t, "hello", m.Message)
}

func TestMissingTokenEndsEpoch(t *testing.T) {
	m := Model{State: Authenticated{Identity: ada}, AuthEnabled: true, Input: "x"}
	m, _ = Transition(m, TextSubmitted{})

	m, _ = Transition(m, TokenMissing{Epoch: 0})
	require.Equal(t, 1, m.Epoch)
	require.Equal(t, MsgAuthRequired, m.Error)

	m, _ = Transition(m, TextSent{Message: "late", Epoch: 0})
	require.Empty(t, m.Message)
}

func TestSignInSuccessWithoutIdentityFails(t *testing.T) {
	m := Model{State: Anonymous{}, AuthEnabled: true, Busy: true}

	m, effects := Transition(m, SignInCompleted{Result: auth.Result{Success: true}})
	require.Empty(t, effects)
	require.Equal(t, MsgSignInFailed, m.Error)
	require.True(t, m.SignInFormVisible())
	require.False(t, m.Busy)
}

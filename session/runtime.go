package session

import (
	"context"
	"fmt"

	"github.com/jrsteele09/nebula-bridge/auth"
	"github.com/rs/zerolog/log"
)

// Gateway is the identity side of the runtime; *auth.Gateway implements it.
type Gateway interface {
	SignIn(ctx context.Context, username, password string) auth.Result
	SignUp(ctx context.Context, username, password, email string) auth.Result
	SignOut(ctx context.Context) auth.Result
	GetCurrentUser(ctx context.Context) auth.Result
}

// EchoAPI is the echo side of the runtime; *echoclient.Client implements it.
type EchoAPI interface {
	FetchMessage(ctx context.Context, token string) (string, error)
	SendText(ctx context.Context, text, token string) (string, error)
}

// TokenSource yields the bearer token, "" when there is none.
type TokenSource interface {
	GetToken(ctx context.Context) string
}

var _ Gateway = (*auth.Gateway)(nil)

// Runtime carries out effects. Gateway and Tokens may be nil when auth is
// disabled.
type Runtime struct {
	Gateway Gateway
	Echo    EchoAPI
	Tokens  TokenSource
}

// Run performs one effect and reports its outcome as an event.
func (r Runtime) Run(ctx context.Context, eff Effect) Event {
	switch eff := eff.(type) {
	case RestoreSession:
		if r.Gateway == nil {
			return SessionRestored{}
		}
		return SessionRestored{Result: r.Gateway.GetCurrentUser(ctx)}

	case SignIn:
		return SignInCompleted{Result: r.Gateway.SignIn(ctx, eff.Email, eff.Password)}

	case SignUp:
		// The email doubles as the username.
		return SignUpCompleted{Result: r.Gateway.SignUp(ctx, eff.Email, eff.Password, eff.Email)}

	case SignOut:
		if r.Gateway == nil {
			return SignOutCompleted{Result: auth.Result{Success: true}}
		}
		return SignOutCompleted{Result: r.Gateway.SignOut(ctx)}

	case FetchMessage:
		token, ok := r.token(ctx, eff.WithToken)
		if !ok {
			return TokenMissing{Epoch: eff.Epoch}
		}
		msg, err := r.Echo.FetchMessage(ctx, token)
		if err != nil {
			log.Err(err).Msg("error fetching initial data")
		}
		return MessageFetched{Message: msg, Err: err, Epoch: eff.Epoch}

	case SendText:
		token, ok := r.token(ctx, eff.WithToken)
		if !ok {
			return TokenMissing{Epoch: eff.Epoch}
		}
		msg, err := r.Echo.SendText(ctx, eff.Text, token)
		if err != nil {
			log.Err(err).Msg("error sending data")
		}
		return TextSent{Message: msg, Err: err, Epoch: eff.Epoch}
	}

	panic(fmt.Sprintf("session: unknown effect %T", eff))
}

func (r Runtime) token(ctx context.Context, required bool) (string, bool) {
	if !required {
		return "", true
	}
	if r.Tokens == nil {
		return "", false
	}
	token := r.Tokens.GetToken(ctx)
	return token, token != ""
}

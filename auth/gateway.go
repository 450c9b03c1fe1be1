// Package auth wraps the identity client in the envelope the session
// controller consumes: every operation returns a Result instead of an error.
package auth

import (
	"context"
	"errors"

	"github.com/jrsteele09/nebula-bridge/identity"
	autherrors "github.com/jrsteele09/nebula-bridge/internal/errors"
	"github.com/rs/zerolog/log"
)

// Provider is the identity SDK surface the gateway and token provider use.
type Provider interface {
	SignIn(ctx context.Context, username, password string) (*identity.SignInOutput, error)
	SignUp(ctx context.Context, username, password, email string) (*identity.SignUpOutput, error)
	ConfirmSignUp(ctx context.Context, username, code string) (*identity.SignUpOutput, error)
	SignOut(ctx context.Context) error
	CurrentUser(ctx context.Context) (*identity.Identity, error)
	FetchSession(ctx context.Context) (*identity.Session, error)
}

var _ Provider = (*identity.Client)(nil)

// Result is the outcome of a gateway call. On success Identity is set (when
// the operation yields one); on failure Err is set, unless the provider asks
// for a further step, which NextStep names.
type Result struct {
	Success  bool
	Identity *identity.Identity
	Err      error
	NextStep identity.NextStep
}

// Gateway is the session controller's view of the identity provider.
type Gateway struct {
	provider Provider
}

func NewGateway(provider Provider) *Gateway {
	return &Gateway{provider: provider}
}

func (g *Gateway) SignIn(ctx context.Context, username, password string) Result {
	out, err := g.provider.SignIn(ctx, username, password)
	if err != nil {
		log.Err(err).Str("username", username).Msg("sign-in failed")
		return Result{Err: err}
	}
	if !out.IsSignedIn {
		log.Info().Str("username", username).Str("nextStep", string(out.NextStep)).Msg("sign-in needs a further step")
		return Result{NextStep: out.NextStep}
	}
	return Result{Success: true, Identity: out.Identity, NextStep: identity.NextStepDone}
}

// SignUp reports Success only when the account is usable straight away. A
// pending confirmation is not a failure: Err is nil and NextStep is
// CONFIRM_SIGN_UP.
func (g *Gateway) SignUp(ctx context.Context, username, password, email string) Result {
	out, err := g.provider.SignUp(ctx, username, password, email)
	if err != nil {
		log.Err(err).Str("username", username).Msg("sign-up failed")
		return Result{Err: err}
	}
	return Result{
		Success:  out.IsSignUpComplete,
		Identity: &identity.Identity{UserID: out.UserID, Username: username, Email: email},
		NextStep: out.NextStep,
	}
}

func (g *Gateway) ConfirmSignUp(ctx context.Context, username, code string) Result {
	out, err := g.provider.ConfirmSignUp(ctx, username, code)
	if err != nil {
		log.Err(err).Str("username", username).Msg("sign-up confirmation failed")
		return Result{Err: err}
	}
	return Result{Success: out.IsSignUpComplete, NextStep: out.NextStep}
}

// SignOut always leaves the local session cleared; Err only reports that the
// provider could not be reached.
func (g *Gateway) SignOut(ctx context.Context) Result {
	if err := g.provider.SignOut(ctx); err != nil {
		log.Err(err).Msg("sign-out failed")
		return Result{Err: err}
	}
	return Result{Success: true}
}

// GetCurrentUser restores a cached session. A failed Result means the user
// has to sign in.
func (g *Gateway) GetCurrentUser(ctx context.Context) Result {
	user, err := g.provider.CurrentUser(ctx)
	if err != nil {
		if errors.Is(err, autherrors.ErrNoSession) {
			log.Debug().Err(err).Msg("no cached session")
		} else {
			log.Err(err).Msg("failed to restore session")
		}
		return Result{Err: err}
	}
	return Result{Success: true, Identity: user}
}

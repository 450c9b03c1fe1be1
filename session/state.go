// Package session is the client's session controller: a pure state machine
// over Anonymous, Registering and Authenticated, plus the runtime that
// carries out its effects.
package session

import "github.com/jrsteele09/nebula-bridge/identity"

// State is one of Anonymous, Registering or Authenticated.
type State interface {
	isState()
}

// Anonymous shows the sign-in form (or the echo form when auth is disabled).
type Anonymous struct{}

// Registering shows the sign-up form.
type Registering struct{}

// Authenticated shows the echo form for a signed-in user.
type Authenticated struct {
	Identity identity.Identity
}

func (Anonymous) isState()     {}
func (Registering) isState()   {}
func (Authenticated) isState() {}

// User-facing messages.
const (
	MsgPasswordMismatch   = "Passwords do not match"
	MsgMissingCredentials = "Email and password are required"
	MsgRegistered         = "Registration successful! Please sign in."
	MsgRegisteredConfirm  = "Registration successful! Please check your email for a confirmation code, then sign in."
	MsgSignInFailed       = "Sign in failed. Please try again."
	MsgConfirmAccount     = "Please confirm your account with the code from your email, then sign in."
	MsgAuthRequired       = "Authentication required. Please sign in again."
	MsgFetchFailed        = "Failed to fetch data from the backend. Please try again later."
	MsgSendFailed         = "Failed to send data to the backend. Please try again later."
	MsgSignedOut          = "You have been signed out."
	MsgSignOutUnreachable = "Signed out locally; the identity provider could not be reached."
)

// Credentials are the sign-in/sign-up form fields. They are never persisted.
type Credentials struct {
	Email           string
	Password        string
	ConfirmPassword string
}

// Model is the whole client session. It only changes through Transition.
type Model struct {
	State       State
	AuthEnabled bool

	// Loading is set while an echo call is outstanding; a second call is not
	// started until it clears.
	Loading bool
	// Busy is set while an identity call is outstanding.
	Busy bool
	// Epoch advances whenever the session is torn down. Echo outcomes tagged
	// with an older epoch are dropped.
	Epoch int

	Message string
	Error   string
	Notice  string
	Input   string
}

// NewModel is the initial, anonymous session.
func NewModel(authEnabled bool) Model {
	return Model{State: Anonymous{}, AuthEnabled: authEnabled}
}

// Identity is the signed-in user, if any.
func (m Model) Identity() (identity.Identity, bool) {
	a, ok := m.State.(Authenticated)
	return a.Identity, ok
}

// EchoFormVisible reports whether the echo form is shown. Without auth it
// always is.
func (m Model) EchoFormVisible() bool {
	if !m.AuthEnabled {
		return true
	}
	_, ok := m.State.(Authenticated)
	return ok
}

// SignInFormVisible reports whether the sign-in form is shown.
func (m Model) SignInFormVisible() bool {
	_, ok := m.State.(Anonymous)
	return m.AuthEnabled && ok
}

// Registering reports whether the sign-up form is shown.
func (m Model) Registering() bool {
	_, ok := m.State.(Registering)
	return ok
}

// StatusLine is "Signed in as: <email>" for an authenticated session.
func (m Model) StatusLine() string {
	if id, ok := m.Identity(); ok {
		return SignedInAs(id)
	}
	return ""
}

// SignedInAs names the user, by email when the token carried one.
func SignedInAs(id identity.Identity) string {
	name := id.Email
	if name == "" {
		name = id.Username
	}
	return "Signed in as: " + name
}

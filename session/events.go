package session

import "github.com/jrsteele09/nebula-bridge/auth"

// Event is an input to Transition: a user action or an effect's outcome.
type Event interface {
	isEvent()
}

// User actions
type (
	Started          struct{}
	ToggleRegister   struct{}
	InputChanged     struct{ Text string }
	SignInSubmitted  struct{ Credentials Credentials }
	SignUpSubmitted  struct{ Credentials Credentials }
	SignOutRequested struct{}
	TextSubmitted    struct{}
)

// Effect outcomes
type (
	SessionRestored  struct{ Result auth.Result }
	SignInCompleted  struct{ Result auth.Result }
	SignUpCompleted  struct{ Result auth.Result }
	SignOutCompleted struct{ Result auth.Result }
	MessageFetched   struct {
		Message string
		Err     error
		Epoch   int
	}
	TextSent struct {
		Message string
		Err     error
		Epoch   int
	}
	// TokenMissing means an echo call was aborted because no bearer token
	// could be obtained.
	TokenMissing struct{ Epoch int }
)

func (Started) isEvent()          {}
func (ToggleRegister) isEvent()   {}
func (InputChanged) isEvent()     {}
func (SignInSubmitted) isEvent()  {}
func (SignUpSubmitted) isEvent()  {}
func (SignOutRequested) isEvent() {}
func (TextSubmitted) isEvent()    {}
func (SessionRestored) isEvent()  {}
func (SignInCompleted) isEvent()  {}
func (SignUpCompleted) isEvent()  {}
func (SignOutCompleted) isEvent() {}
func (MessageFetched) isEvent()   {}
func (TextSent) isEvent()         {}
func (TokenMissing) isEvent()     {}

// Effect is work Transition asks the runtime to do.
type Effect interface {
	isEffect()
}

type (
	RestoreSession struct{}
	SignIn         struct{ Email, Password string }
	SignUp         struct{ Email, Password string }
	SignOut        struct{}
	// FetchMessage and SendText carry WithToken when the API needs a bearer
	// token, and the epoch of the session that asked for them.
	FetchMessage struct {
		WithToken bool
		Epoch     int
	}
	SendText struct {
		Text      string
		WithToken bool
		Epoch     int
	}
)

func (RestoreSession) isEffect() {}
func (SignIn) isEffect()         {}
func (SignUp) isEffect()         {}
func (SignOut) isEffect()        {}
func (FetchMessage) isEffect()   {}
func (SendText) isEffect()       {}

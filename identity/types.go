package identity

import "time"

// NextStep tells the caller what the pool needs before the flow is complete.
type NextStep string

const (
	NextStepDone          NextStep = "DONE"
	NextStepConfirmSignUp NextStep = "CONFIRM_SIGN_UP"
)

// Identity is the signed-in user as described by their ID token.
type Identity struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Tokens is the cached token set of a session.
type Tokens struct {
	IDToken      string    `json:"idToken"`
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	TokenType    string    `json:"tokenType,omitempty"`
	Expiry       time.Time `json:"expiry"`
}

// Session is a verified identity and the tokens that prove it.
type Session struct {
	Identity Identity
	Tokens   Tokens
}

type SignInOutput struct {
	IsSignedIn bool
	NextStep   NextStep
	Identity   *Identity
}

type SignUpOutput struct {
	IsSignUpComplete        bool
	UserID                  string
	NextStep                NextStep
	CodeDeliveryDestination string
}

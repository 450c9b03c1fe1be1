package session

import (
	"strings"

	"github.com/jrsteele09/nebula-bridge/identity"
)

// Transition is the session state machine. It never performs I/O: it returns
// the next model and the effects to run, whose outcomes come back as events.
func Transition(m Model, ev Event) (Model, []Effect) {
	switch ev := ev.(type) {
	case Started:
		if !m.AuthEnabled {
			return startFetch(m, false)
		}
		m.Busy = true
		return m, []Effect{RestoreSession{}}

	case SessionRestored:
		m.Busy = false
		if !ev.Result.Success || ev.Result.Identity == nil {
			return m, nil
		}
		return signedIn(m, *ev.Result.Identity)

	case ToggleRegister:
		if !m.AuthEnabled || m.Busy {
			return m, nil
		}
		switch m.State.(type) {
		case Anonymous:
			m.State = Registering{}
		case Registering:
			m.State = Anonymous{}
		default:
			return m, nil
		}
		m.Error, m.Notice = "", ""
		return m, nil

	case InputChanged:
		m.Input = ev.Text
		return m, nil

	case SignInSubmitted:
		if _, ok := m.State.(Anonymous); !ok || !m.AuthEnabled || m.Busy {
			return m, nil
		}
		email := strings.TrimSpace(ev.Credentials.Email)
		if email == "" || ev.Credentials.Password == "" {
			m.Error = MsgMissingCredentials
			return m, nil
		}
		m.Busy = true
		m.Error, m.Notice = "", ""
		return m, []Effect{SignIn{Email: email, Password: ev.Credentials.Password}}

	case SignInCompleted:
		m.Busy = false
		switch {
		case ev.Result.Success && ev.Result.Identity != nil:
			return signedIn(m, *ev.Result.Identity)
		case ev.Result.Err != nil:
			m.Error = ev.Result.Err.Error()
		case ev.Result.NextStep == identity.NextStepConfirmSignUp:
			m.Error = MsgConfirmAccount
		default:
			m.Error = MsgSignInFailed
		}
		return m, nil

	case SignUpSubmitted:
		if _, ok := m.State.(Registering); !ok || m.Busy {
			return m, nil
		}
		email := strings.TrimSpace(ev.Credentials.Email)
		if ev.Credentials.Password != ev.Credentials.ConfirmPassword {
			m.Error = MsgPasswordMismatch
			return m, nil
		}
		if email == "" || ev.Credentials.Password == "" {
			m.Error = MsgMissingCredentials
			return m, nil
		}
		m.Busy = true
		m.Error, m.Notice = "", ""
		return m, []Effect{SignUp{Email: email, Password: ev.Credentials.Password}}

	case SignUpCompleted:
		m.Busy = false
		switch {
		case ev.Result.Success:
			m.State = Anonymous{}
			m.Notice = MsgRegistered
		case ev.Result.NextStep == identity.NextStepConfirmSignUp && ev.Result.Err == nil:
			m.State = Anonymous{}
			m.Notice = MsgRegisteredConfirm
		case ev.Result.Err != nil:
			m.Error = ev.Result.Err.Error()
		}
		return m, nil

	case SignOutRequested:
		if _, ok := m.State.(Authenticated); !ok || m.Busy || m.Loading {
			return m, nil
		}
		m.Busy = true
		return m, []Effect{SignOut{}}

	case SignOutCompleted:
		epoch := m.Epoch + 1
		m = NewModel(m.AuthEnabled)
		m.Epoch = epoch
		m.Notice = MsgSignedOut
		if ev.Result.Err != nil {
			m.Notice = MsgSignOutUnreachable
		}
		return m, nil

	case TextSubmitted:
		if !m.EchoFormVisible() || m.Loading {
			return m, nil
		}
		m.Loading = true
		m.Error = ""
		return m, []Effect{SendText{Text: m.Input, WithToken: m.AuthEnabled, Epoch: m.Epoch}}

	case MessageFetched:
		if ev.Epoch != m.Epoch {
			return m, nil
		}
		m.Loading = false
		if ev.Err != nil {
			m.Error = MsgFetchFailed
			return m, nil
		}
		m.Message = ev.Message
		return m, nil

	case TextSent:
		if ev.Epoch != m.Epoch {
			return m, nil
		}
		m.Loading = false
		if ev.Err != nil {
			m.Error = MsgSendFailed
			return m, nil
		}
		m.Error = ""
		m.Message = ev.Message
		return m, nil

	case TokenMissing:
		if ev.Epoch != m.Epoch {
			return m, nil
		}
		m.Epoch++
		m.Loading = false
		m.Busy = false
		m.State = Anonymous{}
		m.Message = ""
		m.Error = MsgAuthRequired
		return m, nil
	}
	return m, nil
}

func signedIn(m Model, id identity.Identity) (Model, []Effect) {
	m.State = Authenticated{Identity: id}
	m.Error, m.Notice = "", ""
	return startFetch(m, m.AuthEnabled)
}

func startFetch(m Model, withToken bool) (Model, []Effect) {
	m.Loading = true
	return m, []Effect{FetchMessage{WithToken: withToken, Epoch: m.Epoch}}
}

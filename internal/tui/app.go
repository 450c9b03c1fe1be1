// Package tui is the NebulaBridge terminal form. It renders a session.Model
// and runs the session's effects as bubbletea commands.
package tui

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jrsteele09/nebula-bridge/session"
)

type field int

const (
	fieldEmail field = iota
	fieldPassword
	fieldConfirm
)

// eventMsg feeds a session event (usually an effect's outcome) back into Update.
type eventMsg struct {
	event session.Event
}

type copyResultMsg struct {
	err error
}

// App is the root Bubbletea model.
type App struct {
	ctx     context.Context
	runtime session.Runtime
	model   session.Model

	email    string
	password string
	confirm  string
	focus    field

	status string
	width  int
}

// NewApp creates the terminal form. Effects run under ctx.
func NewApp(ctx context.Context, authEnabled bool, runtime session.Runtime) App {
	return App{
		ctx:     ctx,
		runtime: runtime,
		model:   session.NewModel(authEnabled),
	}
}

// Model is the current session.
func (a App) Model() session.Model {
	return a.model
}

func (a App) Init() tea.Cmd {
	return func() tea.Msg {
		return eventMsg{event: session.Started{}}
	}
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		return a, nil

	case eventMsg:
		return a.dispatch(msg.event)

	case copyResultMsg:
		if msg.err != nil {
			a.status = "copy failed: " + msg.err.Error()
		} else {
			a.status = "copied!"
		}
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}
	return a, nil
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a.status = ""

	switch msg.String() {
	case "ctrl+c", "esc":
		return a, tea.Quit
	case "ctrl+r":
		return a.dispatch(session.ToggleRegister{})
	case "ctrl+o":
		return a.dispatch(session.SignOutRequested{})
	case "ctrl+y":
		if a.model.Message == "" {
			return a, nil
		}
		text := a.model.Message
		return a, func() tea.Msg {
			return copyResultMsg{err: clipboard.WriteAll(text)}
		}
	case "tab", "down":
		a.focus = (a.focus + 1) % a.fieldCount()
		return a, nil
	case "shift+tab", "up":
		a.focus = (a.focus + a.fieldCount() - 1) % a.fieldCount()
		return a, nil
	case "enter":
		return a.submit()
	}

	if a.model.EchoFormVisible() {
		return a.dispatch(session.InputChanged{Text: editField(a.model.Input, msg)})
	}
	switch a.focus {
	case fieldEmail:
		a.email = editField(a.email, msg)
	case fieldPassword:
		a.password = editField(a.password, msg)
	case fieldConfirm:
		a.confirm = editField(a.confirm, msg)
	}
	return a, nil
}

func (a App) submit() (tea.Model, tea.Cmd) {
	creds := session.Credentials{Email: a.email, Password: a.password, ConfirmPassword: a.confirm}
	switch {
	case a.model.EchoFormVisible():
		return a.dispatch(session.TextSubmitted{})
	case a.model.Registering():
		return a.dispatch(session.SignUpSubmitted{Credentials: creds})
	case a.model.SignInFormVisible():
		return a.dispatch(session.SignInSubmitted{Credentials: creds})
	}
	return a, nil
}

// dispatch runs the state machine and turns its effects into commands.
func (a App) dispatch(ev session.Event) (tea.Model, tea.Cmd) {
	before := a.model.State
	var effects []session.Effect
	a.model, effects = session.Transition(a.model, ev)

	if reflect.TypeOf(before) != reflect.TypeOf(a.model.State) {
		a.password, a.confirm = "", ""
		a.focus = fieldEmail
	}

	cmds := make([]tea.Cmd, 0, len(effects))
	for _, eff := range effects {
		cmds = append(cmds, a.run(eff))
	}
	switch len(cmds) {
	case 0:
		return a, nil
	case 1:
		return a, cmds[0]
	}
	return a, tea.Batch(cmds...)
}

func (a App) run(eff session.Effect) tea.Cmd {
	ctx, runtime := a.ctx, a.runtime
	return func() tea.Msg {
		return eventMsg{event: runtime.Run(ctx, eff)}
	}
}

func (a App) fieldCount() field {
	switch {
	case a.model.EchoFormVisible():
		return 1
	case a.model.Registering():
		return 3
	}
	return 2
}

func (a App) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("NebulaBridge"))
	b.WriteString("\n")
	b.WriteString(subtitleStyle.Render("Terminal Frontend + Echo Backend"))
	b.WriteString("\n\n")

	if line := a.model.StatusLine(); line != "" {
		b.WriteString(statusStyle.Render(line))
		b.WriteString("\n\n")
	}

	switch {
	case a.model.EchoFormVisible():
		b.WriteString(a.renderField("Text", a.model.Input, "Enter text to send to Lambda", true))
		b.WriteString("\n")
		if a.model.Loading {
			b.WriteString(subtitleStyle.Render("Sending..."))
			b.WriteString("\n")
		}
	case a.model.Registering():
		b.WriteString(subtitleStyle.Render("Create Account"))
		b.WriteString("\n")
		b.WriteString(a.renderField("Email:", a.email, "you@example.com", a.focus == fieldEmail))
		b.WriteString(a.renderField("Password:", mask(a.password), "", a.focus == fieldPassword))
		b.WriteString(a.renderField("Confirm Password:", mask(a.confirm), "", a.focus == fieldConfirm))
	case a.model.SignInFormVisible():
		b.WriteString(subtitleStyle.Render("Sign In"))
		b.WriteString("\n")
		b.WriteString(a.renderField("Email:", a.email, "you@example.com", a.focus == fieldEmail))
		b.WriteString(a.renderField("Password:", mask(a.password), "", a.focus == fieldPassword))
	}
	if a.model.Busy {
		b.WriteString(subtitleStyle.Render("Working..."))
		b.WriteString("\n")
	}

	if a.model.Notice != "" {
		b.WriteString("\n")
		b.WriteString(noticeStyle.Render(a.model.Notice))
		b.WriteString("\n")
	}

	switch {
	case a.model.Error != "":
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("Error:"))
		b.WriteString("\n")
		b.WriteString(a.model.Error)
		b.WriteString("\n")
	case a.model.Message != "":
		b.WriteString("\n")
		b.WriteString(messageBoxStyle.Render("Response from Lambda:\n" + a.model.Message))
		b.WriteString("\n")
	}

	if a.status != "" {
		b.WriteString(subtitleStyle.Render(a.status))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(a.renderHelp())
	return b.String()
}

func (a App) renderField(label, value, placeholder string, focused bool) string {
	ls := labelStyle
	cursor := ""
	if focused {
		ls = focusedLabelStyle
		cursor = "█"
	}
	shown := fieldStyle.Render(value + cursor)
	if value == "" && placeholder != "" {
		shown = cursor + placeholderStyle.Render(placeholder)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, ls.Render(label), shown) + "\n"
}

func (a App) renderHelp() string {
	keys := [][2]string{{"enter", "submit"}}
	switch {
	case a.model.EchoFormVisible():
		keys = append(keys, [2]string{"ctrl+y", "copy"})
		if a.model.AuthEnabled {
			keys = append(keys, [2]string{"ctrl+o", "sign out"})
		}
	case a.model.Registering():
		keys = append(keys, [2]string{"tab", "next field"}, [2]string{"ctrl+r", "have an account? sign in"})
	case a.model.SignInFormVisible():
		keys = append(keys, [2]string{"tab", "next field"}, [2]string{"ctrl+r", "need an account? register"})
	}
	keys = append(keys, [2]string{"esc", "quit"})

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s %s", helpKeyStyle.Render(k[0]), helpLabelStyle.Render(k[1])))
	}
	return strings.Join(parts, "  ")
}

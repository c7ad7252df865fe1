package login

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/SEP490-G11/Project-Round/internal/api"
	"github.com/SEP490-G11/Project-Round/internal/theme"
)

// LoggedInMsg is dispatched when a login or registration flow completes
// and the session store holds a fresh credential.
type LoggedInMsg struct{}

// FlowErrMsg carries a user-facing error from any auth flow; the form
// stays interactive.
type FlowErrMsg struct {
	Err error
}

// DoneMsg is dispatched when the password-change flow finishes for an
// already-authenticated user and the caller should restore its view.
type DoneMsg struct{}

// flow identifies which auth flow the view currently runs.
type flow int

const (
	flowLogin flow = iota
	flowRegister
	flowRegisterOTP
	flowForgotEmail
	flowForgotOTP
	flowForgotReset
	flowChangePassword
)

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	email    string
	password string
	fullName string
	otp      string

	currentPassword string
	newPassword     string
	confirmPassword string
}

// Model drives the authentication forms: login, registration with OTP,
// password reset with OTP, and the authenticated password change.
type Model struct {
	auth    *api.AuthAPI
	form    *huh.Form
	fb      *formBindings
	flow    flow
	notice  string
	errText string
	width   int
	height  int
}

// New creates the login view starting at the login form.
func New(auth *api.AuthAPI, width, height int) Model {
	m := Model{
		auth:   auth,
		fb:     &formBindings{},
		flow:   flowLogin,
		width:  width,
		height: height,
	}
	m.form = m.buildForm()
	return m
}

// Init starts the active form.
func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

// StartChangePassword switches the view to the authenticated
// password-change flow.
func (m *Model) StartChangePassword() tea.Cmd {
	m.switchFlow(flowChangePassword)
	return m.form.Init()
}

// switchFlow resets bindings as needed and rebuilds the form.
func (m *Model) switchFlow(f flow) {
	m.flow = f
	m.errText = ""
	m.fb.otp = ""
	m.fb.password = ""
	m.fb.currentPassword = ""
	m.fb.newPassword = ""
	m.fb.confirmPassword = ""
	m.form = m.buildForm()
}

// buildForm assembles the huh form for the active flow.
func (m *Model) buildForm() *huh.Form {
	switch m.flow {
	case flowRegister:
		return huh.NewForm(huh.NewGroup(
			huh.NewInput().Title("Email").Value(&m.fb.email),
			huh.NewInput().Title("Full name").Value(&m.fb.fullName),
			huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&m.fb.password),
		)).WithWidth(m.width - 4)

	case flowRegisterOTP, flowForgotOTP:
		return huh.NewForm(huh.NewGroup(
			huh.NewInput().Title("6-digit code from your email").Value(&m.fb.otp),
		)).WithWidth(m.width - 4)

	case flowForgotEmail:
		return huh.NewForm(huh.NewGroup(
			huh.NewInput().Title("Email").Value(&m.fb.email),
		)).WithWidth(m.width - 4)

	case flowForgotReset:
		return huh.NewForm(huh.NewGroup(
			huh.NewInput().Title("New password").EchoMode(huh.EchoModePassword).Value(&m.fb.newPassword),
			huh.NewInput().Title("Confirm new password").EchoMode(huh.EchoModePassword).Value(&m.fb.confirmPassword),
		)).WithWidth(m.width - 4)

	case flowChangePassword:
		return huh.NewForm(huh.NewGroup(
			huh.NewInput().Title("Current password").EchoMode(huh.EchoModePassword).Value(&m.fb.currentPassword),
			huh.NewInput().Title("New password").EchoMode(huh.EchoModePassword).Value(&m.fb.newPassword),
			huh.NewInput().Title("Confirm new password").EchoMode(huh.EchoModePassword).Value(&m.fb.confirmPassword),
		)).WithWidth(m.width - 4)

	default: // flowLogin
		return huh.NewForm(huh.NewGroup(
			huh.NewInput().Title("Email").Value(&m.fb.email),
			huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&m.fb.password),
		)).WithWidth(m.width - 4)
	}
}

// Update handles messages for the auth view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case FlowErrMsg:
		m.errText = api.UserMessage(msg.Err)
		return m, nil

	case tea.KeyMsg:
		// Flow shortcuts only make sense while no form field is mid-entry
		// on the login screen.
		if m.flow == flowLogin {
			switch msg.String() {
			case "ctrl+r":
				m.switchFlow(flowRegister)
				return m, m.form.Init()
			case "ctrl+f":
				m.switchFlow(flowForgotEmail)
				return m, m.form.Init()
			}
		}
		if msg.String() == "esc" && m.flow != flowLogin {
			if m.flow == flowChangePassword {
				return m, func() tea.Msg { return DoneMsg{} }
			}
			m.switchFlow(flowLogin)
			return m, m.form.Init()
		}
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m.submit()
	}

	return m, cmd
}

// submit issues the request for the completed form and advances the flow.
func (m Model) submit() (Model, tea.Cmd) {
	fb := *m.fb
	authAPI := m.auth

	switch m.flow {
	case flowLogin:
		m.switchFlow(flowLogin)
		return m, tea.Batch(m.form.Init(), func() tea.Msg {
			_, err := authAPI.Login(context.Background(), fb.email, fb.password)
			if err != nil {
				return FlowErrMsg{Err: err}
			}
			return LoggedInMsg{}
		})

	case flowRegister:
		m.switchFlow(flowRegisterOTP)
		m.notice = "Code sent to " + fb.email
		return m, tea.Batch(m.form.Init(), func() tea.Msg {
			err := authAPI.RegisterRequestOTP(context.Background(), fb.email, fb.password, fb.fullName)
			if err != nil {
				return FlowErrMsg{Err: err}
			}
			return nil
		})

	case flowRegisterOTP:
		m.switchFlow(flowLogin)
		return m, tea.Batch(m.form.Init(), func() tea.Msg {
			resp, err := authAPI.RegisterVerifyOTP(context.Background(), fb.otp)
			if err != nil {
				return FlowErrMsg{Err: err}
			}
			if resp.AccessToken != "" {
				return LoggedInMsg{}
			}
			return nil
		})

	case flowForgotEmail:
		m.switchFlow(flowForgotOTP)
		m.notice = "Reset code sent to " + fb.email
		return m, tea.Batch(m.form.Init(), func() tea.Msg {
			if err := authAPI.ForgotRequestOTP(context.Background(), fb.email); err != nil {
				return FlowErrMsg{Err: err}
			}
			return nil
		})

	case flowForgotOTP:
		m.switchFlow(flowForgotReset)
		return m, tea.Batch(m.form.Init(), func() tea.Msg {
			if err := authAPI.ForgotVerifyOTP(context.Background(), fb.otp); err != nil {
				return FlowErrMsg{Err: err}
			}
			return nil
		})

	case flowForgotReset:
		m.switchFlow(flowLogin)
		m.notice = "Password reset, log in with your new password"
		return m, tea.Batch(m.form.Init(), func() tea.Msg {
			err := authAPI.ForgotResetPassword(
				context.Background(), fb.newPassword, fb.confirmPassword,
			)
			if err != nil {
				return FlowErrMsg{Err: err}
			}
			return nil
		})

	case flowChangePassword:
		m.switchFlow(flowChangePassword)
		return m, tea.Batch(m.form.Init(), func() tea.Msg {
			err := authAPI.ChangePassword(
				context.Background(), fb.currentPassword, fb.newPassword, fb.confirmPassword,
			)
			if err != nil {
				return FlowErrMsg{Err: err}
			}
			return DoneMsg{}
		})
	}

	return m, nil
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// View renders the active form with its title and any transient notice.
func (m Model) View() string {
	title := map[flow]string{
		flowLogin:          "Log in",
		flowRegister:       "Create account",
		flowRegisterOTP:    "Verify your email",
		flowForgotEmail:    "Reset password",
		flowForgotOTP:      "Verify reset code",
		flowForgotReset:    "Choose a new password",
		flowChangePassword: "Change password",
	}[m.flow]

	header := lipgloss.NewStyle().Bold(true).Render(title)
	out := header + "\n\n" + m.form.View()

	if m.notice != "" {
		out += "\n" + theme.NoticeStyle.Render(m.notice)
	}
	if m.errText != "" {
		out += "\n" + theme.ErrorStyle.Render(m.errText)
	}
	if m.flow == flowLogin {
		out += "\n" + theme.HelpStyle.Render("ctrl+r register · ctrl+f forgot password")
	} else {
		out += "\n" + theme.HelpStyle.Render("esc back to login")
	}
	return out
}

package view

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/tripwise/internal/auth"
	"github.com/MrJamesThe3rd/tripwise/internal/validation"
)

type loginFields struct {
	identifier string
	password   string
	remember   bool
}

type LoginModel struct {
	CommonModel
	authService *auth.Service

	form    *huh.Form
	fields  *loginFields
	err     error
	loading bool
}

func NewLoginModel(svc *auth.Service) LoginModel {
	m := LoginModel{authService: svc, fields: &loginFields{}}
	m.form = m.buildForm()

	return m
}

func (m LoginModel) Title() string { return "Login" }

func (m LoginModel) ShortHelp() string { return "Esc: back | Enter: next field" }

func (m LoginModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m LoginModel) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("identifier").
				Title("Email or username").
				Value(&m.fields.identifier).
				Validate(check(validation.Required)),

			huh.NewInput().
				Key("password").
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fields.password).
				Validate(check(validation.Required)),

			huh.NewConfirm().
				Key("remember").
				Title("Remember me?").
				Affirmative("Yes").
				Negative("No").
				Value(&m.fields.remember),
		),
	).WithWidth(45).WithShowHelp(false)
}

type loginResultMsg struct {
	user *auth.User
	err  error
}

func (m LoginModel) loginCmd() tea.Cmd {
	f := *m.fields

	return func() tea.Msg {
		ctx, cancel := StoreCtx()
		defer cancel()

		user, err := m.authService.Login(ctx, f.identifier, f.password, f.remember)

		return loginResultMsg{user: user, err: err}
	}
}

func (m LoginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loginResultMsg:
		m.loading = false

		if msg.err != nil {
			m.err = msg.err
			m.fields.password = ""
			m.form = m.buildForm()

			return m, m.form.Init()
		}

		user := msg.user

		return m, func() tea.Msg { return LoggedInMsg{User: user} }

	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m, Back
		}
	}

	if m.loading {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.loading = true

	return m, m.loginCmd()
}

func (m LoginModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Signing in...")
	}

	content := lipgloss.NewStyle().Bold(true).Render("Sign in") + "\n\n" + m.form.View()

	if m.err != nil {
		content += "\n" + errorStyle.Render(fmt.Sprintf("Error: %v", m.err))
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

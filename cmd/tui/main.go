package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/tripwise/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/tripwise/internal/app"
	"github.com/MrJamesThe3rd/tripwise/internal/auth"
	"github.com/MrJamesThe3rd/tripwise/internal/config"
)

const logFile = "tripwise-tui.log"

type model struct {
	app  *app.App
	user *auth.User

	currentView View
	status      string

	loginView        view.LoginModel
	wizardView       view.WizardModel
	policiesView     view.PoliciesModel
	transactionsView view.TransactionsModel
	exportView       view.ExportModel
}

type View int

const (
	ViewMenu         View = 0
	ViewLogin        View = 1
	ViewWizard       View = 2
	ViewPolicies     View = 3
	ViewTransactions View = 4
	ViewExport       View = 5
)

func initialModel(a *app.App) model {
	m := model{app: a, currentView: ViewMenu}

	ctx, cancel := view.StoreCtx()
	defer cancel()

	user, ok, err := a.Auth.CurrentUser(ctx)
	if err != nil {
		slog.Error("failed to restore session", "error", err)
	}

	if ok {
		m.user = user
	}

	return m
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.currentView == ViewMenu {
			return m.updateMenu(msg)
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	case view.LoggedInMsg:
		m.user = msg.User
		m.status = fmt.Sprintf("Signed in as %s.", msg.User.Username)
		m.currentView = ViewMenu

		return m, nil
	case view.EditPolicyMsg:
		m.currentView = ViewWizard
		m.wizardView = view.NewWizardModel(m.app.Wizard, m.app.Calculator).Editing(msg.ID)

		return m, m.wizardView.Init()
	}

	switch m.currentView {
	case ViewLogin:
		var newModel tea.Model
		newModel, cmd = m.loginView.Update(msg)
		m.loginView = newModel.(view.LoginModel)
	case ViewWizard:
		var newModel tea.Model
		newModel, cmd = m.wizardView.Update(msg)
		m.wizardView = newModel.(view.WizardModel)
	case ViewPolicies:
		var newModel tea.Model
		newModel, cmd = m.policiesView.Update(msg)
		m.policiesView = newModel.(view.PoliciesModel)
	case ViewTransactions:
		var newModel tea.Model
		newModel, cmd = m.transactionsView.Update(msg)
		m.transactionsView = newModel.(view.TransactionsModel)
	case ViewExport:
		var newModel tea.Model
		newModel, cmd = m.exportView.Update(msg)
		m.exportView = newModel.(view.ExportModel)
	}

	return m, cmd
}

func (m model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "1":
		if m.user != nil {
			return m.logout(), nil
		}

		m.currentView = ViewLogin
		m.loginView = view.NewLoginModel(m.app.Auth)

		return m, m.loginView.Init()
	case "2", "3", "4", "5":
		if m.user == nil {
			m.status = "Please sign in first."
			return m, nil
		}
	}

	switch msg.String() {
	case "2":
		m.currentView = ViewWizard
		m.wizardView = view.NewWizardModel(m.app.Wizard, m.app.Calculator)

		return m, m.wizardView.Init()
	case "3":
		m.currentView = ViewPolicies
		m.policiesView = view.NewPoliciesModel(m.app.Policies, m.app.Calculator)

		return m, m.policiesView.Init()
	case "4":
		m.currentView = ViewTransactions
		m.transactionsView = view.NewTransactionsModel(m.app.Transactions)

		return m, m.transactionsView.Init()
	case "5":
		m.currentView = ViewExport
		m.exportView = view.NewExportModel(m.app.Export)

		return m, m.exportView.Init()
	}

	return m, nil
}

func (m model) logout() model {
	ctx, cancel := view.StoreCtx()
	defer cancel()

	if err := m.app.Auth.Logout(ctx); err != nil {
		m.status = fmt.Sprintf("Error signing out: %v", err)
		return m
	}

	m.app.Wizard.Suspend()
	m.user = nil
	m.status = "Signed out."

	return m
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return m.menuView()
	case ViewLogin:
		return m.loginView.View()
	case ViewWizard:
		return m.wizardView.View()
	case ViewPolicies:
		return m.policiesView.View()
	case ViewTransactions:
		return m.transactionsView.View()
	case ViewExport:
		return m.exportView.View()
	}

	return "Unknown View"
}

func (m model) menuView() string {
	who := "Not signed in"
	session := "1. Login"

	if m.user != nil {
		who = fmt.Sprintf("Signed in as %s <%s>", m.user.Username, m.user.Email)
		session = "1. Logout"
	}

	header := lipgloss.NewStyle().Bold(true).Render("Tripwise Travel Insurance") + "\n" +
		lipgloss.NewStyle().Faint(true).Render(who)

	menu := header + "\n\n" +
		session + "\n" +
		"2. New / Resume Application\n" +
		"3. Policies\n" +
		"4. Transaction Log\n" +
		"5. Export Policies\n\n" +
		"q. Quit"

	if m.status != "" {
		menu += "\n\n" + lipgloss.NewStyle().Faint(true).Render(m.status)
	}

	return lipgloss.NewStyle().Padding(2).Render(menu)
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	a, err := app.New(context.Background(), cfg)
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	f, err := tea.LogToFile(logFile, "tui")
	if err != nil {
		slog.Error("failed to open log file", "error", err)
		os.Exit(1)
	}
	defer f.Close()

	slog.SetDefault(slog.New(slog.NewTextHandler(f, nil)))

	p := tea.NewProgram(initialModel(a), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}

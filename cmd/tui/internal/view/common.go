package view

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/MrJamesThe3rd/tripwise/internal/auth"
)

type CommonModel struct {
	Width  int
	Height int
}

type BackMsg struct{}

func Back() tea.Msg {
	return BackMsg{}
}

// LoggedInMsg is emitted by the login screen after a successful login.
type LoggedInMsg struct {
	User *auth.User
}

// EditPolicyMsg asks the shell to open the wizard on an existing policy.
type EditPolicyMsg struct {
	ID string
}

package view

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/tripwise/internal/export"
	"github.com/MrJamesThe3rd/tripwise/internal/policy"
	"github.com/MrJamesThe3rd/tripwise/internal/premium"
)

type policiesState int

const (
	policiesStateBrowse policiesState = iota
	policiesStateContract
	policiesStateConfirmCancel
)

var statusFilters = []*policy.Status{
	nil,
	new(policy.StatusActive),
	new(policy.StatusCancelled),
	new(policy.StatusExpired),
}

type PoliciesModel struct {
	CommonModel
	policyService *policy.Service
	calc          *premium.Calculator

	state    policiesState
	table    table.Model
	contract viewport.Model
	form     *huh.Form
	confirm  *bool
	policies []*policy.Policy

	statusFilterIdx int

	loading bool
	err     error
	status  string
}

func NewPoliciesModel(svc *policy.Service, calc *premium.Calculator) PoliciesModel {
	columns := []table.Column{
		{Title: "Policy", Width: 13},
		{Title: "Created", Width: 17},
		{Title: "Insured", Width: 22},
		{Title: "Zone", Width: 6},
		{Title: "Trip", Width: 23},
		{Title: "Premium", Width: 14},
		{Title: "Status", Width: 10},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return PoliciesModel{
		policyService: svc,
		calc:          calc,
		table:         t,
		contract:      viewport.New(80, 20),
		loading:       true,
	}
}

func (m PoliciesModel) Title() string { return "Policies" }

func (m PoliciesModel) ShortHelp() string {
	switch m.state {
	case policiesStateContract:
		return "Esc: back to list | ↑/↓: scroll"
	case policiesStateConfirmCancel:
		return "Esc: keep policy"
	}

	return "Esc: back | Enter: contract | e: edit | c: cancel | s: status filter | r: refresh"
}

func (m PoliciesModel) Init() tea.Cmd {
	return m.loadPoliciesCmd()
}

func (m PoliciesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadPoliciesMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.err = nil
		m.policies = msg.policies
		m.refreshTable()

		if len(m.policies) == 0 {
			m.status = "No policies yet."
		}

		return m, nil

	case cancelResultMsg:
		m.state = policiesStateBrowse
		m.form = nil
		m.table.Focus()

		if msg.err != nil {
			m.status = fmt.Sprintf("Error cancelling: %v", msg.err)
			return m, nil
		}

		m.status = fmt.Sprintf("Policy %s cancelled.", msg.id)

		return m, m.loadPoliciesCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		m.contract.Width = msg.Width - 4
		m.contract.Height = msg.Height - 6

		return m, nil
	}

	switch m.state {
	case policiesStateBrowse:
		return m.updateBrowse(msg)
	case policiesStateContract:
		return m.updateContract(msg)
	case policiesStateConfirmCancel:
		return m.updateConfirm(msg)
	}

	return m, nil
}

func (m PoliciesModel) selected() *policy.Policy {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.policies) {
		return nil
	}

	return m.policies[idx]
}

func (m PoliciesModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadPoliciesCmd()
		case "s":
			m.statusFilterIdx = (m.statusFilterIdx + 1) % len(statusFilters)
			m.loading = true

			return m, m.loadPoliciesCmd()
		case "enter":
			p := m.selected()
			if p == nil {
				return m, nil
			}

			m.contract.SetContent(export.Contract(p, m.calc))
			m.contract.GotoTop()
			m.state = policiesStateContract

			return m, nil
		case "e":
			p := m.selected()
			if p == nil {
				return m, nil
			}

			if p.Status != policy.StatusActive {
				m.status = "Only active policies can be edited."
				return m, nil
			}

			id := p.ID

			return m, func() tea.Msg { return EditPolicyMsg{ID: id} }
		case "c":
			return m.enterConfirm()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m PoliciesModel) updateContract(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = policiesStateBrowse
		return m, nil
	}

	var cmd tea.Cmd
	m.contract, cmd = m.contract.Update(msg)

	return m, cmd
}

func (m PoliciesModel) enterConfirm() (tea.Model, tea.Cmd) {
	p := m.selected()
	if p == nil {
		return m, nil
	}

	if p.Status != policy.StatusActive {
		m.status = "Only active policies can be cancelled."
		return m, nil
	}

	m.confirm = new(false)
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Cancel policy %s?", p.ID)).
				Description("A cancelled policy can no longer be edited.").
				Affirmative("Cancel policy").
				Negative("Keep").
				Value(m.confirm),
		),
	).WithWidth(50).WithShowHelp(false)

	m.state = policiesStateConfirmCancel
	m.table.Blur()

	return m, m.form.Init()
}

func (m PoliciesModel) updateConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = policiesStateBrowse
		m.form = nil
		m.table.Focus()

		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	if !*m.confirm {
		m.state = policiesStateBrowse
		m.form = nil
		m.table.Focus()

		return m, nil
	}

	return m, m.cancelCmd()
}

func (m PoliciesModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading policies...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	if m.state == policiesStateContract {
		return lipgloss.NewStyle().Padding(1).Render(
			m.contract.View() + "\n" + faintStyle.Render(m.ShortHelp()),
		)
	}

	statusLabels := []string{"All", "Active", "Cancelled", "Expired"}

	header := fmt.Sprintf("Filter: [s] Status: %s", activeStyle(statusLabels[m.statusFilterIdx]))

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
		faintStyle.Render(m.ShortHelp()),
	)

	if m.state == policiesStateConfirmCancel && m.form != nil {
		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(54).
			Render(m.form.View())

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = faintStyle.Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func activeStyle(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Render(s)
}

func (m *PoliciesModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.policies))
	for _, p := range m.policies {
		q, ok := p.Quote(m.calc)

		rows = append(rows, table.Row{
			p.ID,
			FormatTime(p.CreatedAt),
			p.PersonalInfo.FullName(),
			string(p.TripInfo.Destination),
			p.TripInfo.DepartureDate + ".." + p.TripInfo.ReturnDate,
			FormatQuote(q, ok),
			string(p.Status),
		})
	}

	m.table.SetRows(rows)
}

// Messages

type loadPoliciesMsg struct {
	policies []*policy.Policy
	err      error
}

func (m PoliciesModel) loadPoliciesCmd() tea.Cmd {
	filter := policy.ListFilter{Status: statusFilters[m.statusFilterIdx]}

	return func() tea.Msg {
		ctx, cancel := StoreCtx()
		defer cancel()

		policies, err := m.policyService.List(ctx, filter)

		return loadPoliciesMsg{policies: policies, err: err}
	}
}

type cancelResultMsg struct {
	id  string
	err error
}

func (m PoliciesModel) cancelCmd() tea.Cmd {
	p := m.selected()
	if p == nil {
		return nil
	}

	id := p.ID

	return func() tea.Msg {
		ctx, cancel := StoreCtx()
		defer cancel()

		_, err := m.policyService.Cancel(ctx, id)

		return cancelResultMsg{id: id, err: err}
	}
}

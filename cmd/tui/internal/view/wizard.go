package view

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/tripwise/internal/policy"
	"github.com/MrJamesThe3rd/tripwise/internal/premium"
	"github.com/MrJamesThe3rd/tripwise/internal/validation"
	"github.com/MrJamesThe3rd/tripwise/internal/wizard"
)

// Add-on and consent keys bound to the multi-selects.
const (
	addonAccident     = "accident"
	addonBaggage      = "baggage"
	addonLiability    = "liability"
	addonCancellation = "cancellation"
	addonAssistance   = "assistance"
	addonCar          = "car"
	addonPets         = "pets"
	addonCovid        = "covid"

	consentGDPR         = "gdpr"
	consentTerms        = "terms"
	consentIPID         = "ipid"
	consentTruthfulness = "truthfulness"
	consentRemote       = "remote"
)

// wizardFields holds the form bindings for every step. It lives behind a
// pointer so huh keeps writing to the same values across model copies.
type wizardFields struct {
	email, phone string

	firstName, lastName, idType, personalID, birthDate, nationality, address string

	destination, departure, ret, tripType, adults, children string

	purpose, sports, sportsType string

	medicalLimit string
	addons       []string

	chronic, treatment, pregnancy, pregnancyWeek string

	payment, billing, docPath string
	consents                  []string
}

func fieldsFrom(d wizard.Draft) *wizardFields {
	info, trip, cov, health := d.PersonalInfo, d.TripInfo, d.Coverage, d.HealthInfo

	f := &wizardFields{
		email:        info.Email,
		phone:        info.Phone,
		firstName:    info.FirstName,
		lastName:     info.LastName,
		idType:       info.IDType,
		personalID:   info.PersonalID,
		birthDate:    info.BirthDate,
		nationality:  info.Nationality,
		address:      info.Address,
		destination:  string(trip.Destination),
		departure:    trip.DepartureDate,
		ret:          trip.ReturnDate,
		tripType:     trip.TripType,
		adults:       strconv.Itoa(trip.Adults),
		children:     strconv.Itoa(trip.Children),
		purpose:      d.TripType.Purpose,
		sports:       d.TripType.SportsActivities,
		sportsType:   d.TripType.SportsType,
		medicalLimit: string(cov.MedicalLimit),
		chronic:      health.ChronicIllness,
		treatment:    health.RecentTreatment,
		pregnancy:    health.Pregnancy,
		payment:      d.Payment.Method,
		billing:      d.Payment.BillingAddress,
	}

	if health.PregnancyWeek > 0 {
		f.pregnancyWeek = strconv.Itoa(health.PregnancyWeek)
	}

	for key, on := range map[string]bool{
		addonAccident:     cov.AccidentInsurance,
		addonBaggage:      cov.BaggageInsurance,
		addonLiability:    cov.LiabilityInsurance,
		addonCancellation: cov.TripCancellation,
		addonAssistance:   cov.AssistanceServices,
		addonCar:          cov.CarAssistance,
		addonPets:         cov.Pets,
		addonCovid:        cov.Covid,
	} {
		if on {
			f.addons = append(f.addons, key)
		}
	}

	return f
}

func (f *wizardFields) trip() wizard.Trip {
	return wizard.Trip{
		Destination:   premium.Zone(f.destination),
		DepartureDate: strings.TrimSpace(f.departure),
		ReturnDate:    strings.TrimSpace(f.ret),
		TripType:      f.tripType,
		Adults:        atoi(f.adults),
		Children:      atoi(f.children),
	}
}

func (f *wizardFields) checkout() wizard.Checkout {
	return wizard.Checkout{
		Payment: policy.Payment{Method: f.payment, BillingAddress: f.billing},
		Consents: policy.Consents{
			GDPR:         slices.Contains(f.consents, consentGDPR),
			Terms:        slices.Contains(f.consents, consentTerms),
			IPID:         slices.Contains(f.consents, consentIPID),
			Truthfulness: slices.Contains(f.consents, consentTruthfulness),
			Remote:       slices.Contains(f.consents, consentRemote),
		},
	}
}

// input converts the bindings of one step into its wizard input.
func (f *wizardFields) input(step wizard.Step) wizard.Input {
	switch step {
	case wizard.StepContact:
		return wizard.Contact{Email: f.email, Phone: f.phone}
	case wizard.StepPersonal:
		return wizard.Personal{
			FirstName:   f.firstName,
			LastName:    f.lastName,
			IDType:      f.idType,
			PersonalID:  f.personalID,
			BirthDate:   strings.TrimSpace(f.birthDate),
			Nationality: f.nationality,
			Address:     f.address,
		}
	case wizard.StepTrip:
		return f.trip()
	case wizard.StepTripType:
		return wizard.Activities{Purpose: f.purpose, SportsActivities: f.sports, SportsType: f.sportsType}
	case wizard.StepCoverage:
		return wizard.Coverage{
			MedicalLimit:       premium.Tier(f.medicalLimit),
			AccidentInsurance:  slices.Contains(f.addons, addonAccident),
			BaggageInsurance:   slices.Contains(f.addons, addonBaggage),
			LiabilityInsurance: slices.Contains(f.addons, addonLiability),
			TripCancellation:   slices.Contains(f.addons, addonCancellation),
			AssistanceServices: slices.Contains(f.addons, addonAssistance),
			CarAssistance:      slices.Contains(f.addons, addonCar),
			Pets:               slices.Contains(f.addons, addonPets),
			Covid:              slices.Contains(f.addons, addonCovid),
		}
	case wizard.StepHealth:
		return wizard.Health{
			ChronicIllness:  f.chronic,
			RecentTreatment: f.treatment,
			Pregnancy:       f.pregnancy,
			PregnancyWeek:   atoi(f.pregnancyWeek),
		}
	case wizard.StepCheckout:
		return f.checkout()
	}

	return nil
}

func yesNoOptions() []huh.Option[string] {
	return huh.NewOptions(policy.No, policy.Yes)
}

func buildStepForm(step wizard.Step, f *wizardFields, hasDocument bool) *huh.Form {
	var fields []huh.Field

	switch step {
	case wizard.StepContact:
		fields = []huh.Field{
			huh.NewInput().Title("Email").Value(&f.email).Validate(check(validation.Email)),
			huh.NewInput().Title("Phone").Placeholder("+420 123 456 789").Value(&f.phone).Validate(check(validation.Phone)),
		}
	case wizard.StepPersonal:
		fields = []huh.Field{
			huh.NewInput().Title("First name").Value(&f.firstName),
			huh.NewInput().Title("Last name").Value(&f.lastName),
			huh.NewSelect[string]().Title("Identification").Options(
				huh.NewOption("Czech personal ID", validation.IDTypeCzech),
				huh.NewOption("Date of birth", validation.IDTypeBirthDate),
			).Value(&f.idType),
			huh.NewInput().Title("Personal ID").Placeholder("123456/7890").Value(&f.personalID),
			huh.NewInput().Title("Date of birth").Placeholder("YYYY-MM-DD").Value(&f.birthDate),
			huh.NewInput().Title("Nationality").Value(&f.nationality),
			huh.NewInput().Title("Address").Value(&f.address),
		}
	case wizard.StepTrip:
		zones := make([]huh.Option[string], 0, len(premium.Zones))
		for _, z := range premium.Zones {
			zones = append(zones, huh.NewOption(string(z), string(z)))
		}

		fields = []huh.Field{
			huh.NewSelect[string]().Title("Destination").Options(zones...).Value(&f.destination),
			huh.NewInput().Title("Departure").Placeholder("YYYY-MM-DD").Value(&f.departure).Validate(check(validation.Date)),
			huh.NewInput().Title("Return").Placeholder("YYYY-MM-DD").Value(&f.ret).Validate(check(validation.Date)),
			huh.NewSelect[string]().Title("Trip type").
				Options(huh.NewOptions(policy.TripOneTime, policy.TripRepeated)...).Value(&f.tripType),
			huh.NewInput().Title("Adults").Value(&f.adults).Validate(checkCount),
			huh.NewInput().Title("Children").Value(&f.children).Validate(checkCount),
		}
	case wizard.StepTripType:
		fields = []huh.Field{
			huh.NewSelect[string]().Title("Purpose").Options(huh.NewOptions(
				policy.PurposeRecreational, policy.PurposeBusiness, policy.PurposeStudy, policy.PurposeSports)...).
				Value(&f.purpose),
			huh.NewSelect[string]().Title("Sports activities").Options(yesNoOptions()...).Value(&f.sports),
			huh.NewSelect[string]().Title("Sports type").Options(huh.NewOptions(
				policy.SportsRecreational, policy.SportsRisky, policy.SportsExtreme)...).
				Value(&f.sportsType),
		}
	case wizard.StepCoverage:
		tiers := make([]huh.Option[string], 0, len(premium.Tiers))
		for _, t := range premium.Tiers {
			tiers = append(tiers, huh.NewOption(string(t), string(t)))
		}

		fields = []huh.Field{
			huh.NewSelect[string]().Title("Medical expense limit").Options(tiers...).Value(&f.medicalLimit),
			huh.NewMultiSelect[string]().Title("Add-ons").Options(
				huh.NewOption("Accident insurance", addonAccident),
				huh.NewOption("Baggage insurance", addonBaggage),
				huh.NewOption("Liability insurance", addonLiability),
				huh.NewOption("Trip cancellation", addonCancellation),
				huh.NewOption("Assistance services", addonAssistance),
				huh.NewOption("Car assistance", addonCar),
				huh.NewOption("Pets", addonPets),
				huh.NewOption("COVID-19", addonCovid),
			).Value(&f.addons),
		}
	case wizard.StepHealth:
		fields = []huh.Field{
			huh.NewSelect[string]().Title("Chronic illness").Options(yesNoOptions()...).Value(&f.chronic),
			huh.NewSelect[string]().Title("Treatment in the last 12 months").Options(yesNoOptions()...).Value(&f.treatment),
			huh.NewSelect[string]().Title("Pregnancy").Options(yesNoOptions()...).Value(&f.pregnancy),
			huh.NewInput().Title("Pregnancy week").Description("Only when pregnant").
				Value(&f.pregnancyWeek).Validate(checkCount),
		}
	case wizard.StepCheckout:
		docHint := "JPG, at most 2MB"
		if hasDocument {
			docHint = "Leave empty to keep the attached document"
		}

		fields = []huh.Field{
			huh.NewSelect[string]().Title("Payment method").Options(
				huh.NewOption("Card", policy.PaymentCard),
				huh.NewOption("Bank transfer", policy.PaymentTransfer),
				huh.NewOption("Apple Pay", policy.PaymentApple),
				huh.NewOption("Google Pay", policy.PaymentGoogle),
			).Value(&f.payment),
			huh.NewInput().Title("Billing address").Value(&f.billing),
			huh.NewInput().Title("ID document path").Description(docHint).Value(&f.docPath),
			huh.NewMultiSelect[string]().Title("Consents").Options(
				huh.NewOption("Personal data processing (GDPR)", consentGDPR),
				huh.NewOption("Terms and conditions", consentTerms),
				huh.NewOption("Product information (IPID) received", consentIPID),
				huh.NewOption("Information is truthful", consentTruthfulness),
				huh.NewOption("Remote contract conclusion", consentRemote),
			).Value(&f.consents),
		}
	}

	return huh.NewForm(huh.NewGroup(fields...)).WithWidth(60).WithShowHelp(false)
}

// WizardController is the part of the wizard controller the screen drives.
type WizardController interface {
	Start(ctx context.Context) (wizard.State, error)
	Edit(ctx context.Context, policyID string) (wizard.State, error)
	Next(ctx context.Context, in wizard.Input) (wizard.State, error)
	Previous(ctx context.Context, in wizard.Input) (wizard.State, error)
	AttachDocument(ctx context.Context, name, mediaType string, data []byte) (wizard.State, error)
	Submit(ctx context.Context, in wizard.Checkout) (*policy.Policy, error)
	Abandon(ctx context.Context) error
}

type WizardModel struct {
	CommonModel
	ctrl     WizardController
	calc     *premium.Calculator
	editID   string
	progress progress.Model

	state   wizard.State
	fields  *wizardFields
	form    *huh.Form
	ready   bool
	blocked bool
	issued  *policy.Policy
	errs    validation.Errors
	err     error
}

func NewWizardModel(ctrl WizardController, calc *premium.Calculator) WizardModel {
	return WizardModel{
		ctrl:     ctrl,
		calc:     calc,
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		fields:   &wizardFields{},
	}
}

// Editing opens the wizard on an existing policy instead of resuming.
func (m WizardModel) Editing(policyID string) WizardModel {
	m.editID = policyID
	return m
}

func (m WizardModel) Title() string { return "Application" }

func (m WizardModel) ShortHelp() string {
	return "Esc: save & back | Ctrl+P: previous step | Ctrl+X: discard application"
}

type wizardStateMsg struct {
	state wizard.State
	err   error
}

type wizardSubmittedMsg struct {
	policy *policy.Policy
	err    error
}

func (m WizardModel) Init() tea.Cmd {
	editID := m.editID

	return func() tea.Msg {
		ctx, cancel := StoreCtx()
		defer cancel()

		if editID != "" {
			s, err := m.ctrl.Edit(ctx, editID)
			return wizardStateMsg{state: s, err: err}
		}

		s, err := m.ctrl.Start(ctx)

		return wizardStateMsg{state: s, err: err}
	}
}

func (m WizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case wizardStateMsg:
		return m.applyState(msg)

	case wizardSubmittedMsg:
		if msg.err != nil {
			return m.showError(msg.err)
		}

		m.issued = msg.policy

		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "ctrl+p":
			if m.ready && m.issued == nil {
				return m, m.previousCmd()
			}
		case "ctrl+x":
			if m.ready && m.issued == nil {
				return m, m.abandonCmd()
			}
		case "enter":
			if m.issued != nil || m.blocked {
				return m, Back
			}
		}
	}

	if !m.ready || m.issued != nil || m.form == nil {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	if m.state.Step == wizard.StepCheckout {
		return m, m.submitCmd()
	}

	return m, m.nextCmd()
}

func (m WizardModel) applyState(msg wizardStateMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if errors.Is(msg.err, wizard.ErrUnauthenticated) {
			m.blocked = true
			return m, nil
		}

		return m.showError(msg.err)
	}

	m.state = msg.state
	m.ready = true
	m.errs = nil
	m.err = nil

	m.fields = fieldsFrom(m.state.Draft)
	m.form = buildStepForm(m.state.Step, m.fields, m.state.Draft.IDDocument != nil)

	return m, m.form.Init()
}

// showError keeps the typed values and reopens the current step's form.
func (m WizardModel) showError(err error) (tea.Model, tea.Cmd) {
	m.errs = nil
	m.err = nil

	if errs, ok := wizard.FieldErrors(err); ok {
		m.errs = errs
	} else {
		m.err = err
	}

	if !m.ready {
		return m, nil
	}

	m.form = buildStepForm(m.state.Step, m.fields, m.state.Draft.IDDocument != nil)

	return m, m.form.Init()
}

func (m WizardModel) nextCmd() tea.Cmd {
	in := m.fields.input(m.state.Step)

	return func() tea.Msg {
		ctx, cancel := StoreCtx()
		defer cancel()

		s, err := m.ctrl.Next(ctx, in)

		return wizardStateMsg{state: s, err: err}
	}
}

func (m WizardModel) previousCmd() tea.Cmd {
	in := m.fields.input(m.state.Step)

	return func() tea.Msg {
		ctx, cancel := StoreCtx()
		defer cancel()

		s, err := m.ctrl.Previous(ctx, in)

		return wizardStateMsg{state: s, err: err}
	}
}

func (m WizardModel) abandonCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := StoreCtx()
		defer cancel()

		if err := m.ctrl.Abandon(ctx); err != nil {
			return wizardStateMsg{err: err}
		}

		s, err := m.ctrl.Start(ctx)

		return wizardStateMsg{state: s, err: err}
	}
}

func (m WizardModel) submitCmd() tea.Cmd {
	in := m.fields.checkout()
	path := strings.TrimSpace(m.fields.docPath)

	return func() tea.Msg {
		ctx, cancel := StoreCtx()
		defer cancel()

		if path != "" {
			data, err := os.ReadFile(path)
			if err != nil {
				return wizardSubmittedMsg{err: fmt.Errorf("reading document: %w", err)}
			}

			mediaType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
			if _, err := m.ctrl.AttachDocument(ctx, filepath.Base(path), mediaType, data); err != nil {
				return wizardSubmittedMsg{err: err}
			}
		}

		p, err := m.ctrl.Submit(ctx, in)

		return wizardSubmittedMsg{policy: p, err: err}
	}
}

// liveQuote prices the draft with the values currently typed into the
// trip and coverage steps.
func (m WizardModel) liveQuote() string {
	app := m.state.Draft.Application()

	switch m.state.Step {
	case wizard.StepTrip:
		app.TripInfo = policy.TripInfo(m.fields.trip())
	case wizard.StepCoverage:
		app.Coverage.MedicalLimit = premium.Tier(m.fields.medicalLimit)
	}

	q, ok := app.Quote(m.calc)

	return FormatQuote(q, ok)
}

func (m WizardModel) View() string {
	pad := lipgloss.NewStyle().Padding(1)

	switch {
	case m.blocked:
		return pad.Render(errorStyle.Render("Please log in to start an application.") +
			"\n\n" + faintStyle.Render("Enter/Esc: back"))
	case m.issued != nil:
		q, ok := m.issued.Quote(m.calc)

		return pad.Render(lipgloss.JoinVertical(lipgloss.Left,
			successStyle.Render("Policy issued!"),
			"",
			fmt.Sprintf("Policy ID: %s", m.issued.ID),
			fmt.Sprintf("Premium:   %s", FormatQuote(q, ok)),
			"",
			faintStyle.Render("Enter/Esc: back to menu"),
		))
	case !m.ready:
		if m.err != nil {
			return pad.Render(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		}

		return pad.Render("Loading application...")
	}

	step := m.state.Step
	title := fmt.Sprintf("Step %d of %d: %s", step, wizard.LastStep, step)

	if m.state.Draft.EditingID != "" {
		title += faintStyle.Render("  (editing " + m.state.Draft.EditingID + ")")
	}

	header := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Bold(true).Render(title),
		m.progress.ViewAs(float64(step)/float64(wizard.LastStep)),
		"Estimated premium: "+lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Render(m.liveQuote()),
	)

	parts := []string{header, ""}

	if step == wizard.StepCheckout && m.state.Draft.IDDocument != nil {
		parts = append(parts, faintStyle.Render("Attached: "+m.state.Draft.IDDocument.Name), "")
	}

	parts = append(parts, m.form.View())

	if len(m.errs) > 0 {
		parts = append(parts, "", errorStyle.Render(describeErrors(m.errs)))
	}

	if m.err != nil {
		parts = append(parts, "", errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	parts = append(parts, "", faintStyle.Render(m.ShortHelp()))

	return pad.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

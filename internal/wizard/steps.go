package wizard

import (
	"strings"

	"github.com/MrJamesThe3rd/tripwise/internal/policy"
	"github.com/MrJamesThe3rd/tripwise/internal/premium"
	"github.com/MrJamesThe3rd/tripwise/internal/validation"
)

// Step is a wizard page, numbered from 1.
type Step int

const (
	StepContact Step = iota + 1
	StepPersonal
	StepTrip
	StepTripType
	StepCoverage
	StepHealth
	StepCheckout
)

const (
	FirstStep = StepContact
	LastStep  = StepCheckout
)

var stepNames = map[Step]string{
	StepContact:  "Contact",
	StepPersonal: "Personal",
	StepTrip:     "Trip",
	StepTripType: "Trip type",
	StepCoverage: "Coverage",
	StepHealth:   "Health",
	StepCheckout: "Payment",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}

	return "Unknown"
}

func (s Step) Valid() bool {
	return s >= FirstStep && s <= LastStep
}

// Input is the data collected on one step. Each step has exactly one
// input type; the sequencer rejects an input offered on the wrong step.
type Input interface {
	Step() Step
	validate(d Draft) validation.Errors
	merge(d *Draft)
}

// Contact is step 1.
type Contact struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func (Contact) Step() Step { return StepContact }

func (c Contact) validate(Draft) validation.Errors {
	var errs validation.Errors

	errs.Add("email", validation.Email(strings.TrimSpace(c.Email)))
	errs.Add("phone", validation.Phone(strings.TrimSpace(c.Phone)))

	return errs
}

func (c Contact) merge(d *Draft) {
	d.PersonalInfo.Email = strings.TrimSpace(c.Email)
	d.PersonalInfo.Phone = strings.TrimSpace(c.Phone)
}

// Personal is step 2. Only the identification selected by IDType is kept.
type Personal struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	IDType      string `json:"idType"`
	PersonalID  string `json:"personalId"`
	BirthDate   string `json:"birthDate"`
	Nationality string `json:"nationality"`
	Address     string `json:"address"`
}

func (Personal) Step() Step { return StepPersonal }

func (p Personal) validate(Draft) validation.Errors {
	return validation.Identification(p.IDType, strings.TrimSpace(p.PersonalID), p.BirthDate)
}

func (p Personal) merge(d *Draft) {
	info := &d.PersonalInfo

	info.FirstName = strings.TrimSpace(p.FirstName)
	info.LastName = strings.TrimSpace(p.LastName)
	info.IDType = p.IDType
	info.PersonalID = strings.TrimSpace(p.PersonalID)
	info.BirthDate = p.BirthDate
	info.Nationality = strings.TrimSpace(p.Nationality)
	info.Address = strings.TrimSpace(p.Address)

	switch p.IDType {
	case validation.IDTypeCzech:
		info.BirthDate = ""
	case validation.IDTypeBirthDate:
		info.PersonalID = ""
	}
}

// Trip is step 3.
type Trip policy.TripInfo

func (Trip) Step() Step { return StepTrip }

func (t Trip) validate(Draft) validation.Errors {
	var errs validation.Errors

	errs.Add("destination", validation.Destination(string(t.Destination), zoneNames()))
	errs.Merge(validation.TripDates(t.DepartureDate, t.ReturnDate))
	errs.Add("tripType", validation.Choice(t.filled().TripType, policy.TripOneTime, policy.TripRepeated))
	errs.Merge(validation.Party(t.Adults, t.Children))

	return errs
}

func (t Trip) merge(d *Draft) {
	d.TripInfo = policy.TripInfo(t.filled())
}

func (t Trip) filled() Trip {
	if t.TripType == "" {
		t.TripType = policy.TripOneTime
	}

	return t
}

// Activities is step 4.
type Activities policy.TripType

func (Activities) Step() Step { return StepTripType }

func (a Activities) validate(Draft) validation.Errors {
	var errs validation.Errors

	a = a.filled()

	errs.Add("purpose", validation.Choice(a.Purpose,
		policy.PurposeRecreational, policy.PurposeBusiness, policy.PurposeStudy, policy.PurposeSports))
	errs.Add("sportsActivities", validation.Choice(a.SportsActivities, policy.Yes, policy.No))

	if a.SportsActivities == policy.Yes {
		errs.Add("sportsType", validation.Choice(a.SportsType,
			policy.SportsRecreational, policy.SportsRisky, policy.SportsExtreme))
	}

	return errs
}

func (a Activities) merge(d *Draft) {
	d.TripType = policy.TripType(a.filled())
}

func (a Activities) filled() Activities {
	if a.Purpose == "" {
		a.Purpose = policy.PurposeRecreational
	}

	if a.SportsActivities == "" {
		a.SportsActivities = policy.No
	}

	if a.SportsType == "" {
		a.SportsType = policy.SportsRecreational
	}

	return a
}

// Coverage is step 5.
type Coverage policy.Coverage

func (Coverage) Step() Step { return StepCoverage }

func (c Coverage) validate(Draft) validation.Errors {
	var errs validation.Errors

	errs.Add("medicalLimit", validation.MedicalLimit(string(c.MedicalLimit), tierNames()))

	return errs
}

func (c Coverage) merge(d *Draft) {
	d.Coverage = policy.Coverage(c)
}

// Health is step 6.
type Health policy.HealthInfo

func (Health) Step() Step { return StepHealth }

func (h Health) validate(Draft) validation.Errors {
	var errs validation.Errors

	h = h.filled()

	errs.Add("chronicIllness", validation.Choice(h.ChronicIllness, policy.Yes, policy.No))
	errs.Add("recentTreatment", validation.Choice(h.RecentTreatment, policy.Yes, policy.No))
	errs.Add("pregnancy", validation.Choice(h.Pregnancy, policy.Yes, policy.No))
	errs.Add("pregnancyWeek", validation.PregnancyWeek(h.Pregnancy == policy.Yes, h.PregnancyWeek))

	return errs
}

func (h Health) merge(d *Draft) {
	d.HealthInfo = policy.HealthInfo(h.filled())
}

func (h Health) filled() Health {
	for _, answer := range []*string{&h.ChronicIllness, &h.RecentTreatment, &h.Pregnancy} {
		if *answer == "" {
			*answer = policy.No
		}
	}

	if h.Pregnancy != policy.Yes {
		h.PregnancyWeek = 0
	}

	return h
}

// Checkout is step 7. The ID document is attached separately and checked
// from the draft.
type Checkout struct {
	Payment  policy.Payment  `json:"payment"`
	Consents policy.Consents `json:"consents"`
}

func (Checkout) Step() Step { return StepCheckout }

func (c Checkout) validate(d Draft) validation.Errors {
	var errs validation.Errors

	errs.Add("paymentMethod", validation.Choice(c.Payment.Method,
		policy.PaymentCard, policy.PaymentTransfer, policy.PaymentApple, policy.PaymentGoogle))

	doc := d.IDDocument
	if doc == nil {
		errs.Add("idDocument", validation.Document(false, 0, ""))
	} else {
		errs.Add("idDocument", validation.Document(true, doc.Size, doc.MediaType))
	}

	errs.Merge(validation.Consents(validation.ConsentSet{
		GDPR:         c.Consents.GDPR,
		Terms:        c.Consents.Terms,
		IPID:         c.Consents.IPID,
		Truthfulness: c.Consents.Truthfulness,
		Remote:       c.Consents.Remote,
	}))

	return errs
}

func (c Checkout) merge(d *Draft) {
	d.Payment = policy.Payment{
		Method:         c.Payment.Method,
		BillingAddress: strings.TrimSpace(c.Payment.BillingAddress),
	}
	d.Consents = c.Consents
}

func zoneNames() []string {
	names := make([]string, len(premium.Zones))
	for i, z := range premium.Zones {
		names[i] = string(z)
	}

	return names
}

func tierNames() []string {
	names := make([]string, len(premium.Tiers))
	for i, t := range premium.Tiers {
		names[i] = string(t)
	}

	return names
}

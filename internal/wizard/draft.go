package wizard

import (
	"github.com/MrJamesThe3rd/tripwise/internal/policy"
	"github.com/MrJamesThe3rd/tripwise/internal/premium"
	"github.com/MrJamesThe3rd/tripwise/internal/validation"
)

// Draft accumulates step inputs until submission. EditingID is set when
// the draft re-edits an existing policy.
type Draft struct {
	EditingID    string              `json:"editingId,omitempty"`
	PersonalInfo policy.PersonalInfo `json:"personalInfo"`
	TripInfo     policy.TripInfo     `json:"tripInfo"`
	TripType     policy.TripType     `json:"tripType"`
	Coverage     policy.Coverage     `json:"coverage"`
	HealthInfo   policy.HealthInfo   `json:"healthInfo"`
	Payment      policy.Payment      `json:"payment"`
	Consents     policy.Consents     `json:"consents"`
	IDDocument   *policy.DocumentRef `json:"idDocument,omitempty"`
}

// NewDraft returns an empty draft carrying the form defaults.
func NewDraft() Draft {
	return Draft{
		PersonalInfo: policy.PersonalInfo{IDType: validation.IDTypeCzech},
		TripInfo: policy.TripInfo{
			TripType: policy.TripOneTime,
			Adults:   1,
		},
		TripType: policy.TripType{
			Purpose:          policy.PurposeRecreational,
			SportsActivities: policy.No,
			SportsType:       policy.SportsRecreational,
		},
		HealthInfo: policy.HealthInfo{
			ChronicIllness:  policy.No,
			RecentTreatment: policy.No,
			Pregnancy:       policy.No,
		},
	}
}

// FromPolicy flattens a stored policy back into an editable draft.
func FromPolicy(p *policy.Policy) Draft {
	d := fromApplication(p.Application())
	d.EditingID = p.ID

	if p.IDDocument != nil {
		ref := *p.IDDocument
		d.IDDocument = &ref
	}

	return d
}

func fromApplication(a policy.Application) Draft {
	return Draft{
		PersonalInfo: a.PersonalInfo,
		TripInfo:     a.TripInfo,
		TripType:     a.TripType,
		Coverage:     a.Coverage,
		HealthInfo:   a.HealthInfo,
		Payment:      a.Payment,
		Consents:     a.Consents,
		IDDocument:   a.IDDocument,
	}
}

// Application is the data handed to the assembler on submit.
func (d Draft) Application() policy.Application {
	return policy.Application{
		PersonalInfo: d.PersonalInfo,
		TripInfo:     d.TripInfo,
		TripType:     d.TripType,
		Coverage:     d.Coverage,
		HealthInfo:   d.HealthInfo,
		Payment:      d.Payment,
		Consents:     d.Consents,
		IDDocument:   d.IDDocument,
	}
}

// Input rebuilds the input for a step from what the draft holds.
func (d Draft) Input(step Step) Input {
	info := d.PersonalInfo

	switch step {
	case StepContact:
		return Contact{Email: info.Email, Phone: info.Phone}
	case StepPersonal:
		return Personal{
			FirstName:   info.FirstName,
			LastName:    info.LastName,
			IDType:      info.IDType,
			PersonalID:  info.PersonalID,
			BirthDate:   info.BirthDate,
			Nationality: info.Nationality,
			Address:     info.Address,
		}
	case StepTrip:
		return Trip(d.TripInfo)
	case StepTripType:
		return Activities(d.TripType)
	case StepCoverage:
		return Coverage(d.Coverage)
	case StepHealth:
		return Health(d.HealthInfo)
	case StepCheckout:
		return Checkout{Payment: d.Payment, Consents: d.Consents}
	}

	return nil
}

// Quote prices the draft; false while trip or coverage data is missing.
func (d Draft) Quote(calc *premium.Calculator) (premium.Quote, bool) {
	return d.Application().Quote(calc)
}

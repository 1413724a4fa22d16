package policy

import (
	"errors"
	"time"

	"github.com/MrJamesThe3rd/tripwise/internal/premium"
)

var (
	ErrNotFound   = errors.New("policy not found")
	ErrIncomplete = errors.New("policy requires contact email and phone")
	ErrCancelled  = errors.New("policy is cancelled")
)

// Status is the lifecycle state of a policy.
type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

type PersonalInfo struct {
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	IDType      string `json:"idType,omitempty"`
	PersonalID  string `json:"personalId,omitempty"`
	BirthDate   string `json:"birthDate,omitempty"`
	Nationality string `json:"nationality,omitempty"`
	Address     string `json:"address,omitempty"`
}

// FullName joins first and last name, skipping blanks.
func (p PersonalInfo) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	}

	return p.FirstName + " " + p.LastName
}

// Trip recurrence.
const (
	TripOneTime  = "one-time"
	TripRepeated = "repeated"
)

type TripInfo struct {
	Destination   premium.Zone `json:"destination"`
	DepartureDate string       `json:"departureDate"`
	ReturnDate    string       `json:"returnDate"`
	TripType      string       `json:"tripType,omitempty"`
	Adults        int          `json:"adults"`
	Children      int          `json:"children"`
}

// QuoteRequest converts the trip into calculator input. Unparseable dates
// are passed as zero values so the quote reports unavailable.
func (t TripInfo) QuoteRequest(tier premium.Tier) premium.Request {
	dep, _ := time.Parse(time.DateOnly, t.DepartureDate)
	ret, _ := time.Parse(time.DateOnly, t.ReturnDate)

	return premium.Request{
		Zone:      t.Destination,
		Departure: dep,
		Return:    ret,
		Adults:    t.Adults,
		Children:  t.Children,
		Tier:      tier,
	}
}

// Trip purposes and sports risk classes.
const (
	PurposeRecreational = "recreational"
	PurposeBusiness     = "business"
	PurposeStudy        = "study"
	PurposeSports       = "sports"

	SportsRecreational = "recreational"
	SportsRisky        = "risky"
	SportsExtreme      = "extreme"
)

// Yes/no answers as collected by the forms.
const (
	Yes = "yes"
	No  = "no"
)

type TripType struct {
	Purpose          string `json:"purpose"`
	SportsActivities string `json:"sportsActivities"`
	SportsType       string `json:"sportsType,omitempty"`
}

type Coverage struct {
	MedicalLimit       premium.Tier `json:"medicalLimit"`
	AccidentInsurance  bool         `json:"accidentInsurance"`
	BaggageInsurance   bool         `json:"baggageInsurance"`
	LiabilityInsurance bool         `json:"liabilityInsurance"`
	TripCancellation   bool         `json:"tripCancellation"`
	AssistanceServices bool         `json:"assistanceServices"`
	CarAssistance      bool         `json:"carAssistance"`
	Pets               bool         `json:"pets"`
	Covid              bool         `json:"covid"`
}

type HealthInfo struct {
	ChronicIllness  string `json:"chronicIllness"`
	RecentTreatment string `json:"recentTreatment"`
	Pregnancy       string `json:"pregnancy"`
	PregnancyWeek   int    `json:"pregnancyWeek,omitempty"`
}

// Payment methods.
const (
	PaymentCard     = "card"
	PaymentTransfer = "transfer"
	PaymentApple    = "apple"
	PaymentGoogle   = "google"
)

type Payment struct {
	Method         string `json:"paymentMethod"`
	BillingAddress string `json:"billingAddress,omitempty"`
}

type Consents struct {
	GDPR         bool      `json:"gdpr"`
	Terms        bool      `json:"terms"`
	IPID         bool      `json:"ipid"`
	Truthfulness bool      `json:"truthfulness"`
	Remote       bool      `json:"remote"`
	Timestamp    time.Time `json:"timestamp"`
}

// DocumentRef points at an uploaded ID document blob.
type DocumentRef struct {
	Key        string    `json:"key"`
	Name       string    `json:"name,omitempty"`
	MediaType  string    `json:"mediaType"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Application is the full set of customer data a policy is issued from.
type Application struct {
	PersonalInfo PersonalInfo `json:"personalInfo"`
	TripInfo     TripInfo     `json:"tripInfo"`
	TripType     TripType     `json:"tripType"`
	Coverage     Coverage     `json:"coverage"`
	HealthInfo   HealthInfo   `json:"healthInfo"`
	Payment      Payment      `json:"payment"`
	Consents     Consents     `json:"consents"`
	IDDocument   *DocumentRef `json:"idDocument,omitempty"`
}

// Quote prices the application's trip and medical limit.
func (a Application) Quote(calc *premium.Calculator) (premium.Quote, bool) {
	return calc.Quote(a.TripInfo.QuoteRequest(a.Coverage.MedicalLimit))
}

// Policy is a finalized insurance record. The application groups are
// stored alongside the record fields rather than nested.
type Policy struct {
	ID           string       `json:"id"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
	Status       Status       `json:"status"`
	CancelledAt  *time.Time   `json:"cancelledAt,omitempty"`
	PersonalInfo PersonalInfo `json:"personalInfo"`
	TripInfo     TripInfo     `json:"tripInfo"`
	TripType     TripType     `json:"tripType"`
	Coverage     Coverage     `json:"coverage"`
	HealthInfo   HealthInfo   `json:"healthInfo"`
	Payment      Payment      `json:"payment"`
	Consents     Consents     `json:"consents"`
	IDDocument   *DocumentRef `json:"idDocument,omitempty"`
}

// Application returns the customer data the policy was issued from.
func (p *Policy) Application() Application {
	return Application{
		PersonalInfo: p.PersonalInfo,
		TripInfo:     p.TripInfo,
		TripType:     p.TripType,
		Coverage:     p.Coverage,
		HealthInfo:   p.HealthInfo,
		Payment:      p.Payment,
		Consents:     p.Consents,
		IDDocument:   p.IDDocument,
	}
}

func (p *Policy) setApplication(a Application) {
	p.PersonalInfo = a.PersonalInfo
	p.TripInfo = a.TripInfo
	p.TripType = a.TripType
	p.Coverage = a.Coverage
	p.HealthInfo = a.HealthInfo
	p.Payment = a.Payment
	p.Consents = a.Consents
	p.IDDocument = a.IDDocument
}

// Quote prices the policy's trip and medical limit.
func (p *Policy) Quote(calc *premium.Calculator) (premium.Quote, bool) {
	return p.Application().Quote(calc)
}

// Patch is a partial update; nil groups are left untouched. Status is not
// patchable: cancellation and expiry have their own operations.
type Patch struct {
	PersonalInfo *PersonalInfo `json:"personalInfo,omitempty"`
	TripInfo     *TripInfo     `json:"tripInfo,omitempty"`
	TripType     *TripType     `json:"tripType,omitempty"`
	Coverage     *Coverage     `json:"coverage,omitempty"`
	HealthInfo   *HealthInfo   `json:"healthInfo,omitempty"`
	Payment      *Payment      `json:"payment,omitempty"`
}

func (p Patch) apply(dst *Policy) {
	if p.PersonalInfo != nil {
		dst.PersonalInfo = *p.PersonalInfo
	}

	if p.TripInfo != nil {
		dst.TripInfo = *p.TripInfo
	}

	if p.TripType != nil {
		dst.TripType = *p.TripType
	}

	if p.Coverage != nil {
		dst.Coverage = *p.Coverage
	}

	if p.HealthInfo != nil {
		dst.HealthInfo = *p.HealthInfo
	}

	if p.Payment != nil {
		dst.Payment = *p.Payment
	}
}

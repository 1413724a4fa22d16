package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// MaxDocumentSize is the largest accepted ID document upload.
const MaxDocumentSize = 2 * 1024 * 1024

// DocumentMediaType is the only accepted ID document media type.
const DocumentMediaType = "image/jpeg"

// DateLayout is the wire format for calendar dates.
const DateLayout = time.DateOnly

// ID type selectors.
const (
	IDTypeCzech     = "czechId"
	IDTypeBirthDate = "birthDate"
)

var (
	phonePattern   = regexp.MustCompile(`^\+[0-9]{1,3} [0-9]{3} [0-9]{3} [0-9]{3}$`)
	czechIDPattern = regexp.MustCompile(`^[0-9]{6}/[0-9]{4}$`)
)

var defaultValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("czechid", func(fl validator.FieldLevel) bool {
		return czechIDPattern.MatchString(fl.Field().String())
	})

	return v
}

const dateTag = "datetime=" + DateLayout

// reasonFor maps a validator failure to a Reason. Missing values always
// report ReasonRequired; any other tag reports invalid.
func reasonFor(fe validator.FieldError, invalid Reason) Reason {
	switch fe.Tag() {
	case "notblank", "required", "required_if":
		return ReasonRequired
	}

	return invalid
}

func firstError(err error) (validator.FieldError, bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return nil, false
	}

	return verrs[0], true
}

// checkVar validates a single value against a tag.
func checkVar(value any, tag string, invalid Reason) Reason {
	err := defaultValidator.Var(value, tag)
	if err == nil {
		return Valid
	}

	fe, ok := firstError(err)
	if !ok {
		return invalid
	}

	return reasonFor(fe, invalid)
}

// checkStruct validates a record and reports every failing field. invalid
// maps a field name to the reason used for failures other than a missing
// value.
func checkStruct(record any, prefix string, invalid map[string]Reason) Errors {
	err := defaultValidator.Struct(record)
	if err == nil {
		return nil
	}

	// Only InvalidValidationError escapes As, and records are always structs.
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	errs := make(Errors, 0, len(verrs))
	for _, fe := range verrs {
		reason := ReasonInvalidChoice
		if r, ok := invalid[fe.Field()]; ok {
			reason = r
		}

		errs.Add(prefix+fe.Field(), reasonFor(fe, reason))
	}

	return errs
}

func oneOf(allowed []string) string {
	return "notblank,oneof=" + strings.Join(allowed, " ")
}

// Required fails on blank values.
func Required(s string) Reason {
	return checkVar(s, "notblank", ReasonRequired)
}

// Email checks the local@domain.tld shape.
func Email(s string) Reason {
	return checkVar(s, "notblank,email", ReasonInvalidEmail)
}

// Phone accepts "+CCC 123 456 789" with single spaces and nothing else.
func Phone(s string) Reason {
	return checkVar(s, "notblank,phone", ReasonInvalidPhone)
}

// CzechID accepts six digits, a slash and four digits.
func CzechID(s string) Reason {
	return checkVar(s, "notblank,czechid", ReasonInvalidCzechID)
}

// Date requires a YYYY-MM-DD value.
func Date(s string) Reason {
	return checkVar(s, "notblank,"+dateTag, ReasonInvalidDate)
}

type identification struct {
	IDType     string `json:"idType" validate:"notblank,oneof=czechId birthDate"`
	PersonalID string `json:"personalId" validate:"required_if=IDType czechId"`
	BirthDate  string `json:"birthDate" validate:"required_if=IDType birthDate"`
}

// Identification validates whichever identification scheme idType selects.
// The other scheme's value is ignored.
func Identification(idType, personalID, birthDate string) Errors {
	errs := checkStruct(identification{
		IDType:     idType,
		PersonalID: personalID,
		BirthDate:  birthDate,
	}, "", map[string]Reason{"idType": ReasonInvalidIDType})
	if len(errs) > 0 {
		return errs
	}

	switch idType {
	case IDTypeCzech:
		errs.Add("personalId", CzechID(personalID))
	case IDTypeBirthDate:
		errs.Add("birthDate", Date(birthDate))
	}

	return errs
}

// Destination requires one of the priced zones.
func Destination(zone string, zones []string) Reason {
	return checkVar(zone, oneOf(zones), ReasonUnknownZone)
}

type tripDates struct {
	Departure time.Time `json:"departureDate"`
	Return    time.Time `json:"returnDate" validate:"gtfield=Departure"`
}

// TripDates requires both dates and a return strictly after departure.
func TripDates(departure, ret string) Errors {
	var errs Errors

	errs.Add("departureDate", Date(departure))
	errs.Add("returnDate", Date(ret))

	if len(errs) > 0 {
		return errs
	}

	dep, _ := time.Parse(DateLayout, departure)
	back, _ := time.Parse(DateLayout, ret)

	return checkStruct(tripDates{Departure: dep, Return: back}, "", map[string]Reason{
		"returnDate": ReasonReturnNotAfter,
	})
}

type party struct {
	Adults   int `json:"adults" validate:"min=1"`
	Children int `json:"children" validate:"gte=0"`
}

// Party requires at least one adult and no negative child count.
func Party(adults, children int) Errors {
	return checkStruct(party{Adults: adults, Children: children}, "", map[string]Reason{
		"adults":   ReasonAdultsMin,
		"children": ReasonChildrenMin,
	})
}

// MedicalLimit requires one of the offered tiers.
func MedicalLimit(tier string, tiers []string) Reason {
	return checkVar(tier, oneOf(tiers), ReasonUnknownTier)
}

// Choice requires value to be one of allowed.
func Choice(value string, allowed ...string) Reason {
	return checkVar(value, oneOf(allowed), ReasonInvalidChoice)
}

// PregnancyWeek requires a week in 1..42 when pregnant.
func PregnancyWeek(pregnant bool, week int) Reason {
	if !pregnant {
		return Valid
	}

	return checkVar(week, "min=1,max=42", ReasonPregnancyWeek)
}

type document struct {
	Present   bool   `json:"present" validate:"required"`
	Size      int64  `json:"size" validate:"max=2097152"`
	MediaType string `json:"mediaType" validate:"eq=image/jpeg"`
}

// Document checks an uploaded ID document. A document of exactly
// MaxDocumentSize bytes is accepted and the media type must match exactly.
func Document(present bool, size int64, mediaType string) Reason {
	errs := checkStruct(document{Present: present, Size: size, MediaType: mediaType}, "", map[string]Reason{
		"size":      ReasonDocumentTooLarge,
		"mediaType": ReasonDocumentMediaType,
	})

	switch {
	case len(errs) == 0:
		return Valid
	case errs.Has("present"):
		return ReasonDocumentMissing
	}

	return errs[0].Reason
}

// ConsentSet is the five mandatory declarations collected at checkout.
type ConsentSet struct {
	GDPR         bool `json:"gdpr" validate:"required"`
	Terms        bool `json:"terms" validate:"required"`
	IPID         bool `json:"ipid" validate:"required"`
	Truthfulness bool `json:"truthfulness" validate:"required"`
	Remote       bool `json:"remote" validate:"required"`
}

// Consents requires every declaration to be given.
func Consents(c ConsentSet) Errors {
	errs := checkStruct(c, "consents.", nil)
	for i := range errs {
		errs[i].Reason = ReasonConsentRequired
	}

	return errs
}

package export

import (
	"fmt"
	"strings"

	"github.com/MrJamesThe3rd/tripwise/internal/policy"
	"github.com/MrJamesThe3rd/tripwise/internal/premium"
)

const timestampLayout = "2006-01-02 15:04 MST"

func yesNo(b bool) string {
	if b {
		return "Yes"
	}

	return "No"
}

// Contract renders the plain-text insurance contract for a policy.
func Contract(p *policy.Policy, calc *premium.Calculator) string {
	var sb strings.Builder

	line := func(label, value string) {
		fmt.Fprintf(&sb, "%-26s %s\n", label+":", value)
	}

	section := func(title string) {
		fmt.Fprintf(&sb, "\n%s\n%s\n", title, strings.Repeat("-", len(title)))
	}

	sb.WriteString("INSURANCE CONTRACT\n")

	section("Policy Information")
	line("Policy ID", p.ID)
	line("Status", string(p.Status))
	line("Created", p.CreatedAt.Format(timestampLayout))

	if p.CancelledAt != nil {
		line("Cancelled", p.CancelledAt.Format(timestampLayout))
	}

	premiumText := "-"
	if q, ok := p.Quote(calc); ok {
		premiumText = q.String()
	}

	line("Premium", premiumText)

	info := p.PersonalInfo

	section("Insured Person")
	line("Name", info.FullName())
	line("Email", info.Email)
	line("Phone", info.Phone)

	if info.Address != "" {
		line("Address", info.Address)
	}

	trip := p.TripInfo

	section("Trip Details")
	line("Destination", string(trip.Destination))
	line("Departure", trip.DepartureDate)
	line("Return", trip.ReturnDate)
	line("Adults", fmt.Sprint(trip.Adults))

	if trip.Children > 0 {
		line("Children", fmt.Sprint(trip.Children))
	}

	cov := p.Coverage

	section("Coverage")
	line("Medical Limit", string(cov.MedicalLimit))
	line("Accident Insurance", yesNo(cov.AccidentInsurance))
	line("Baggage Insurance", yesNo(cov.BaggageInsurance))
	line("Liability Insurance", yesNo(cov.LiabilityInsurance))
	line("Trip Cancellation", yesNo(cov.TripCancellation))

	c := p.Consents

	section("Consents")
	line("GDPR Consent", yesNo(c.GDPR))
	line("Terms Accepted", yesNo(c.Terms))
	line("IPID Received", yesNo(c.IPID))
	line("Truthfulness Declaration", yesNo(c.Truthfulness))
	line("Remote Agreement", yesNo(c.Remote))
	line("Consented on", c.Timestamp.Format(timestampLayout))

	return sb.String()
}

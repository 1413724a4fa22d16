package premium

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

const day = 24 * time.Hour

// Request carries the trip and coverage inputs a quote is computed from.
// Zero values mean the input has not been provided yet.
type Request struct {
	Zone      Zone
	Departure time.Time
	Return    time.Time
	Adults    int
	Children  int
	Tier      Tier
}

// Quote is an ephemeral premium estimate.
type Quote struct {
	Amount   decimal.Decimal
	Currency currency.Unit
	Days     int
}

// String renders the quote as "507.00 CZK".
func (q Quote) String() string {
	return q.Amount.StringFixed(2) + " " + q.Currency.String()
}

// Calculator prices trips against a rate table. It holds no state besides the table.
type Calculator struct {
	table *Table
}

func NewCalculator(table *Table) *Calculator {
	return &Calculator{table: table}
}

// Table exposes the rate table backing the calculator.
func (c *Calculator) Table() *Table {
	return c.table
}

// Quote prices the request. The boolean is false when the quote is
// unavailable: a required input is missing, the zone is not priced or the
// trip is not at least one day long.
func (c *Calculator) Quote(req Request) (Quote, bool) {
	if req.Zone == "" || req.Tier == "" || req.Departure.IsZero() || req.Return.IsZero() {
		return Quote{}, false
	}

	rate, ok := c.table.Rate(req.Zone)
	if !ok {
		return Quote{}, false
	}

	days := tripDays(req.Departure, req.Return)
	if days <= 0 {
		return Quote{}, false
	}

	adults := req.Adults
	if adults < 1 {
		adults = 1
	}

	children := max(req.Children, 0)

	base := rate.Adult.Mul(decimal.NewFromInt(int64(adults))).
		Add(rate.Child.Mul(decimal.NewFromInt(int64(children))))

	amount := base.
		Mul(decimal.NewFromInt(int64(days))).
		Mul(c.table.Multiplier(req.Tier)).
		Round(2)

	return Quote{Amount: amount, Currency: rate.Currency, Days: days}, true
}

// tripDays counts started days between departure and return.
func tripDays(departure, ret time.Time) int {
	return int(math.Ceil(float64(ret.Sub(departure)) / float64(day)))
}

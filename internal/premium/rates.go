package premium

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"gopkg.in/yaml.v3"
)

// Zone is the destination category that drives rates and currency.
type Zone string

const (
	ZoneCZ    Zone = "CZ"
	ZoneEU    Zone = "EU"
	ZoneWorld Zone = "WORLD"
)

// Tier is the medical expense coverage limit chosen by the customer.
type Tier string

const (
	Tier50k  Tier = "50000"
	Tier100k Tier = "100000"
	Tier200k Tier = "200000"
)

// Zones lists the supported destinations in display order.
var Zones = []Zone{ZoneCZ, ZoneEU, ZoneWorld}

// Tiers lists the supported medical limits in display order.
var Tiers = []Tier{Tier50k, Tier100k, Tier200k}

// Rate holds the per-person daily price for a zone.
type Rate struct {
	Adult    decimal.Decimal
	Child    decimal.Decimal
	Currency currency.Unit
}

// Table is a static lookup of zone rates and medical limit multipliers.
type Table struct {
	rates       map[Zone]Rate
	multipliers map[Tier]decimal.Decimal
}

// DefaultTable returns the demo rates.
func DefaultTable() *Table {
	return &Table{
		rates: map[Zone]Rate{
			ZoneCZ:    {Adult: decimal.NewFromInt(50), Child: decimal.NewFromInt(30), Currency: currency.MustParseISO("CZK")},
			ZoneEU:    {Adult: decimal.NewFromInt(2), Child: decimal.RequireFromString("1.5"), Currency: currency.MustParseISO("EUR")},
			ZoneWorld: {Adult: decimal.NewFromInt(3), Child: decimal.NewFromInt(2), Currency: currency.MustParseISO("USD")},
		},
		multipliers: map[Tier]decimal.Decimal{
			Tier50k:  decimal.NewFromInt(1),
			Tier100k: decimal.RequireFromString("1.3"),
			Tier200k: decimal.RequireFromString("1.6"),
		},
	}
}

// Rate returns the rate for a zone. The second value is false for unknown zones.
func (t *Table) Rate(zone Zone) (Rate, bool) {
	r, ok := t.rates[zone]
	return r, ok
}

// Multiplier returns the price factor for a medical limit. Unknown tiers
// price at 1.0.
func (t *Table) Multiplier(tier Tier) decimal.Decimal {
	if m, ok := t.multipliers[tier]; ok {
		return m
	}

	return decimal.NewFromInt(1)
}

// HasZone reports whether the zone is priced by the table.
func (t *Table) HasZone(zone Zone) bool {
	_, ok := t.rates[zone]
	return ok
}

// HasTier reports whether the tier has an explicit multiplier.
func (t *Table) HasTier(tier Tier) bool {
	_, ok := t.multipliers[tier]
	return ok
}

type rateFile struct {
	Zones map[string]struct {
		Adult    string `yaml:"adult"`
		Child    string `yaml:"child"`
		Currency string `yaml:"currency"`
	} `yaml:"zones"`
	Multipliers map[string]string `yaml:"multipliers"`
}

// LoadTable reads rate overrides from a YAML file on top of the defaults.
//
//	zones:
//	  EU: {adult: "2.5", child: "1.5", currency: EUR}
//	multipliers:
//	  "200000": "1.7"
func LoadTable(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rates file: %w", err)
	}

	return ParseTable(raw)
}

// ParseTable applies YAML rate overrides to the default table.
func ParseTable(raw []byte) (*Table, error) {
	var f rateFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parsing rates: %w", err)
	}

	t := DefaultTable()

	for name, z := range f.Zones {
		adult, err := decimal.NewFromString(z.Adult)
		if err != nil {
			return nil, fmt.Errorf("zone %s adult rate: %w", name, err)
		}

		child, err := decimal.NewFromString(z.Child)
		if err != nil {
			return nil, fmt.Errorf("zone %s child rate: %w", name, err)
		}

		unit, err := currency.ParseISO(z.Currency)
		if err != nil {
			return nil, fmt.Errorf("zone %s currency: %w", name, err)
		}

		if adult.IsNegative() || child.IsNegative() {
			return nil, fmt.Errorf("zone %s: rates must not be negative", name)
		}

		t.rates[Zone(name)] = Rate{Adult: adult, Child: child, Currency: unit}
	}

	for tier, v := range f.Multipliers {
		m, err := decimal.NewFromString(v)
		if err != nil {
			return nil, fmt.Errorf("multiplier %s: %w", tier, err)
		}

		t.multipliers[Tier(tier)] = m
	}

	return t, nil
}

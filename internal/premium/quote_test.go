package premium_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/tripwise/internal/premium"
)

func date(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}

	return t
}

func TestTable_Multiplier(t *testing.T) {
	table := premium.DefaultTable()

	allowed := []string{"1", "1.3", "1.6"}

	for _, tier := range premium.Tiers {
		assert.Contains(t, allowed, table.Multiplier(tier).String(), "tier %s", tier)
	}

	assert.True(t, table.Multiplier("75000").Equal(decimal.NewFromInt(1)))
	assert.True(t, table.Multiplier("").Equal(decimal.NewFromInt(1)))
}

func TestTable_Rate(t *testing.T) {
	table := premium.DefaultTable()

	r, ok := table.Rate(premium.ZoneEU)
	require.True(t, ok)
	assert.Equal(t, "2", r.Adult.String())
	assert.Equal(t, "1.5", r.Child.String())
	assert.Equal(t, "EUR", r.Currency.String())

	_, ok = table.Rate("MARS")
	assert.False(t, ok)
}

func TestCalculator_Quote(t *testing.T) {
	type args struct {
		req premium.Request
	}

	type testCase struct {
		name         string
		args         args
		wantOK       bool
		wantAmount   string
		wantCurrency string
		wantDays     int
	}

	tests := []testCase{
		{
			name: "CZ three days two adults one child",
			args: args{req: premium.Request{
				Zone: premium.ZoneCZ, Departure: date("2025-06-01"), Return: date("2025-06-04"),
				Adults: 2, Children: 1, Tier: premium.Tier100k,
			}},
			wantOK:       true,
			wantAmount:   "507.00",
			wantCurrency: "CZK",
			wantDays:     3,
		},
		{
			name: "EU child rate keeps fraction",
			args: args{req: premium.Request{
				Zone: premium.ZoneEU, Departure: date("2025-07-01"), Return: date("2025-07-08"),
				Adults: 1, Children: 1, Tier: premium.Tier200k,
			}},
			wantOK:       true,
			wantAmount:   "39.20",
			wantCurrency: "EUR",
			wantDays:     7,
		},
		{
			name: "WORLD unknown tier prices at base",
			args: args{req: premium.Request{
				Zone: premium.ZoneWorld, Departure: date("2025-01-10"), Return: date("2025-01-11"),
				Adults: 2, Tier: "999",
			}},
			wantOK:       true,
			wantAmount:   "6.00",
			wantCurrency: "USD",
			wantDays:     1,
		},
		{
			name: "EU one day with fractional child rate",
			args: args{req: premium.Request{
				Zone: premium.ZoneEU, Departure: date("2025-07-01"), Return: date("2025-07-02"),
				Adults: 1, Children: 1, Tier: premium.Tier100k,
			}},
			wantOK:       true,
			wantAmount:   "4.55",
			wantCurrency: "EUR",
			wantDays:     1,
		},
		{
			name: "same day is unavailable",
			args: args{req: premium.Request{
				Zone: premium.ZoneCZ, Departure: date("2025-06-01"), Return: date("2025-06-01"),
				Adults: 1, Tier: premium.Tier50k,
			}},
		},
		{
			name: "return before departure is unavailable",
			args: args{req: premium.Request{
				Zone: premium.ZoneCZ, Departure: date("2025-06-05"), Return: date("2025-06-01"),
				Adults: 1, Tier: premium.Tier50k,
			}},
		},
		{
			name: "missing zone",
			args: args{req: premium.Request{
				Departure: date("2025-06-01"), Return: date("2025-06-04"), Adults: 1, Tier: premium.Tier50k,
			}},
		},
		{
			name: "missing tier",
			args: args{req: premium.Request{
				Zone: premium.ZoneCZ, Departure: date("2025-06-01"), Return: date("2025-06-04"), Adults: 1,
			}},
		},
		{
			name: "missing return date",
			args: args{req: premium.Request{
				Zone: premium.ZoneCZ, Departure: date("2025-06-01"), Adults: 1, Tier: premium.Tier50k,
			}},
		},
		{
			name: "unknown zone",
			args: args{req: premium.Request{
				Zone: "MARS", Departure: date("2025-06-01"), Return: date("2025-06-04"), Adults: 1, Tier: premium.Tier50k,
			}},
		},
	}

	calc := premium.NewCalculator(premium.DefaultTable())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := calc.Quote(tt.args.req)

			if !tt.wantOK {
				assert.False(t, ok)
				assert.Equal(t, premium.Quote{}, got)

				return
			}

			require.True(t, ok)
			assert.Equal(t, tt.wantAmount, got.Amount.StringFixed(2))
			assert.Equal(t, tt.wantCurrency, got.Currency.String())
			assert.Equal(t, tt.wantDays, got.Days)
		})
	}
}

func TestCalculator_QuoteIsDeterministic(t *testing.T) {
	calc := premium.NewCalculator(premium.DefaultTable())
	req := premium.Request{
		Zone: premium.ZoneCZ, Departure: date("2025-06-01"), Return: date("2025-06-04"),
		Adults: 2, Children: 1, Tier: premium.Tier100k,
	}

	first, _ := calc.Quote(req)
	second, _ := calc.Quote(req)

	assert.Equal(t, first.String(), second.String())
	assert.Equal(t, "507.00 CZK", first.String())
}

func TestParseTable(t *testing.T) {
	raw := []byte(`
zones:
  EU:
    adult: "2.5"
    child: "1"
    currency: EUR
  UK:
    adult: "4"
    child: "2"
    currency: GBP
multipliers:
  "200000": "1.7"
`)

	table, err := premium.ParseTable(raw)
	require.NoError(t, err)

	eu, ok := table.Rate(premium.ZoneEU)
	require.True(t, ok)
	assert.Equal(t, "2.5", eu.Adult.String())

	uk, ok := table.Rate("UK")
	require.True(t, ok)
	assert.Equal(t, "GBP", uk.Currency.String())

	assert.Equal(t, "1.7", table.Multiplier(premium.Tier200k).String())
	assert.Equal(t, "1.3", table.Multiplier(premium.Tier100k).String())

	_, err = premium.ParseTable([]byte("zones:\n  EU: {adult: abc, child: 1, currency: EUR}\n"))
	assert.Error(t, err)
}

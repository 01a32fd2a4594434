package types

import "github.com/shopspring/decimal"

// Currency represents a currency code
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
)

// String returns the string representation
func (c Currency) String() string {
	return string(c)
}

// Symbol returns the display symbol, or the code followed by a space
func (c Currency) Symbol() string {
	switch c {
	case CurrencyUSD, "":
		return "$"
	case CurrencyEUR:
		return "€"
	case CurrencyGBP:
		return "£"
	default:
		return string(c) + " "
	}
}

// FormatPrice renders an amount the way plan prices are shown: whole
// amounts without decimals ("$6"), others with two ("$5.50").
func FormatPrice(amount decimal.Decimal, currency Currency) string {
	if amount.Equal(amount.Truncate(0)) {
		return currency.Symbol() + amount.StringFixed(0)
	}
	return currency.Symbol() + amount.StringFixed(2)
}

// Prices holds the display prices of a plan
type Prices struct {
	// Monthly is the per-month display price, e.g. "$6"
	Monthly string `json:"monthly"`

	// MonthlyAmount is the numeric per-month price when known
	MonthlyAmount decimal.NullDecimal `json:"monthly_amount,omitempty"`
}

// Plan is a catalog entry for one purchasable SKU
type Plan struct {
	// Code is the plan code, e.g. "pro-annual"
	Code PlanCode `json:"code"`

	// Name is an optional display name
	Name string `json:"name,omitempty"`

	// Prices are the display prices
	Prices Prices `json:"prices"`

	// Currency is the price currency
	Currency Currency `json:"currency"`
}

// BilledAmount is what one billing period costs: the monthly amount times
// the months in the cycle. ok is false when the amount is unknown.
func (p Plan) BilledAmount(cycle BillingCycle) (amount decimal.Decimal, ok bool) {
	if !p.Prices.MonthlyAmount.Valid {
		return decimal.Zero, false
	}
	return p.Prices.MonthlyAmount.Decimal.Mul(decimal.NewFromInt(int64(cycle.Months()))), true
}

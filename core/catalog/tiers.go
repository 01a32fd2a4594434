package catalog

import (
	"github.com/shopspring/decimal"

	"plan-picker/core/types"
)

// Tier describes how a product tier is presented in the picker
type Tier struct {
	Code          types.TierCode `json:"code" yaml:"code"`
	Name          string         `json:"name" yaml:"name"`
	PriceSuffix   string         `json:"price_suffix,omitempty" yaml:"price_suffix,omitempty"`
	License       string         `json:"license,omitempty" yaml:"license,omitempty"`
	LicenseDetail string         `json:"license_detail,omitempty" yaml:"license_detail,omitempty"`
	Features      []string       `json:"features,omitempty" yaml:"features,omitempty"`
	Highlighted   bool           `json:"highlighted,omitempty" yaml:"highlighted,omitempty"`

	// ContactURL replaces the purchase action with a "get in touch" link
	ContactURL string `json:"contact_url,omitempty" yaml:"contact_url,omitempty"`

	// CallToAction is the purchase button label
	CallToAction string `json:"call_to_action,omitempty" yaml:"call_to_action,omitempty"`
}

// Suffix returns the price suffix, defaulting to "/ month"
func (t Tier) Suffix() string {
	if t.PriceSuffix == "" {
		return "/ month"
	}
	return t.PriceSuffix
}

// Action returns the call-to-action label
func (t Tier) Action() string {
	switch {
	case t.CallToAction != "":
		return t.CallToAction
	case t.ContactURL != "":
		return "Get in touch"
	default:
		return "Get " + t.Name + " Now"
	}
}

// Purchasable reports whether the picker offers a direct purchase
func (t Tier) Purchasable() bool {
	return t.ContactURL == ""
}

// Offering is everything a picker displays: the tiers in order and the
// catalog their prices come from.
type Offering struct {
	Tiers    []Tier
	Plans    *PlanCatalog
	TermsURL string
}

// Tier returns the tier with a code
func (o *Offering) Tier(code types.TierCode) (Tier, bool) {
	for _, t := range o.Tiers {
		if t.Code == code {
			return t, true
		}
	}
	return Tier{}, false
}

// WithTermsURL returns a copy pointing at another terms of service page.
// An empty url returns o unchanged.
func (o *Offering) WithTermsURL(url string) *Offering {
	if url == "" {
		return o
	}
	c := *o
	c.TermsURL = url
	return &c
}

// Built-in tiers
const (
	TierPro  types.TierCode = "pro"
	TierTeam types.TierCode = "team"
)

// Links shown by the built-in offering
const (
	DefaultContactURL = "https://httptoolkit.tech/contact"
	DefaultTermsURL   = "https://httptoolkit.tech/terms-of-service"
)

// DefaultTiers returns the Professional and Team tiers
func DefaultTiers() []Tier {
	return []Tier{
		{
			Code:          TierPro,
			Name:          "Professional",
			PriceSuffix:   "/ month",
			License:       "Personal user account",
			LicenseDetail: "Licensed for a specific individual.",
			Highlighted:   true,
			CallToAction:  "Get Pro Now",
			Features: []string{
				"In-depth debugging tools, including performance analysis",
				"Validation & documentation for well-known APIs",
				"Automated mocking & rewriting",
				"Import/export of mock rules and collected traffic",
				"Advanced customization",
				"Support ongoing development!",
			},
		},
		{
			Code:          TierTeam,
			Name:          "Team",
			PriceSuffix:   "/ user / month",
			License:       "Team account",
			LicenseDetail: "One team license, linked to many individuals, who can be added and removed.",
			ContactURL:    DefaultContactURL,
			Features: []string{
				"All Professional features",
				"Centralized billing for your team",
				"Licensed to your team, rather than individuals",
				"Add or remove team members whenever you need to",
			},
		},
	}
}

// DefaultPlans returns monthly and annual plans for the default tiers
func DefaultPlans() *PlanCatalog {
	prices := map[types.PlanCode]string{
		types.NewPlanCode(TierPro, types.CycleMonthly):  "14",
		types.NewPlanCode(TierPro, types.CycleAnnual):   "12",
		types.NewPlanCode(TierTeam, types.CycleMonthly): "22",
		types.NewPlanCode(TierTeam, types.CycleAnnual):  "20",
	}

	plans := make(map[types.PlanCode]types.Plan, len(prices))
	for code, amount := range prices {
		d := decimal.RequireFromString(amount)
		plans[code] = types.Plan{
			Code:     code,
			Currency: types.CurrencyUSD,
			Prices: types.Prices{
				Monthly:       types.FormatPrice(d, types.CurrencyUSD),
				MonthlyAmount: decimal.NewNullDecimal(d),
			},
		}
	}

	c, err := NewPlanCatalog(plans)
	if err != nil {
		panic("CATALOG INVALID: built-in plans: " + err.Error())
	}
	return c
}

// DefaultOffering returns the built-in offering
func DefaultOffering() *Offering {
	return &Offering{
		Tiers:    DefaultTiers(),
		Plans:    DefaultPlans(),
		TermsURL: DefaultTermsURL,
	}
}

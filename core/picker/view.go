package picker

import (
	"plan-picker/core/catalog"
	"plan-picker/core/types"
)

// View is everything a renderer needs for one frame of the picker
type View struct {
	Cycle         types.BillingCycle `json:"cycle"`
	Email         string             `json:"email,omitempty"`
	AccountAction string             `json:"account_action"`
	AccountLabel  string             `json:"account_label"`
	Tiers         []TierView         `json:"tiers"`
	Outcome       *Outcome           `json:"outcome,omitempty"`
}

// TierView is one tier priced against the current cycle
type TierView struct {
	Tier         catalog.Tier   `json:"tier"`
	PlanCode     types.PlanCode `json:"plan_code"`
	MonthlyPrice string         `json:"monthly_price"`

	// Caveat reads "plus tax, paid monthly" or "plus tax, paid annually"
	Caveat string `json:"caveat"`

	// Billed is the amount charged per billing period, when known
	Billed string `json:"billed,omitempty"`
}

// View prices each tier on the current cycle. It panics if the catalog lacks
// a plan for any listed tier.
func (s *PlanSelector) View(tiers []catalog.Tier) View {
	action := s.AccountAction()
	v := View{
		Cycle:         s.cycle,
		Email:         s.host.Email,
		AccountAction: action.String(),
		AccountLabel:  action.Label(),
		Tiers:         make([]TierView, 0, len(tiers)),
	}

	for _, tier := range tiers {
		code := s.PlanCodeFor(tier.Code)
		plan := s.plans.MustGet(code)
		tv := TierView{
			Tier:         tier,
			PlanCode:     code,
			MonthlyPrice: plan.Prices.Monthly,
			Caveat:       "plus tax, paid " + s.cycle.Adverb(),
		}
		if amount, ok := plan.BilledAmount(s.cycle); ok && s.cycle == types.CycleAnnual {
			tv.Billed = types.FormatPrice(amount, plan.Currency) + " / year"
		}
		v.Tiers = append(v.Tiers, tv)
	}

	if outcome, ok := s.Outcome(); ok {
		v.Outcome = &outcome
	}
	return v
}

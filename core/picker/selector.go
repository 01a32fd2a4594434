// Package picker - Plan selection state machine
// A PlanSelector holds the billing cycle of one picker session, derives
// cycle-qualified plan codes and prices, and reports exactly one terminal
// decision to its host.
//
// A PlanSelector is not safe for concurrent use. Hosts that share one across
// goroutines must serialize access themselves.
package picker

import (
	"plan-picker/core/catalog"
	"plan-picker/core/types"
	"plan-picker/internal/errors"
)

// Host is what the embedding application supplies
type Host struct {
	// Email of the signed-in account. Empty offers log in instead of log out.
	Email string

	// OnPlanPicked receives the chosen plan code, or types.NoPlan on cancel
	OnPlanPicked func(code types.PlanCode)

	// LogIn and LogOut are forwarded without arguments
	LogIn  func()
	LogOut func()
}

// Option configures a PlanSelector
type Option func(*PlanSelector)

// WithCycleObserver is notified after every billing cycle change
func WithCycleObserver(fn func(types.BillingCycle)) Option {
	return func(s *PlanSelector) {
		s.onCycle = fn
	}
}

// WithOutcomeObserver is notified once, after the host callback for the
// terminal decision has run
func WithOutcomeObserver(fn func(Outcome)) Option {
	return func(s *PlanSelector) {
		s.onOutcome = fn
	}
}

// PlanSelector is the picker state machine
type PlanSelector struct {
	plans *catalog.PlanCatalog
	host  Host
	cycle types.BillingCycle

	decided bool
	outcome Outcome

	onCycle   func(types.BillingCycle)
	onOutcome func(Outcome)
}

// New creates a picker starting on monthly billing
func New(plans *catalog.PlanCatalog, host Host, opts ...Option) (*PlanSelector, error) {
	switch {
	case plans == nil:
		return nil, errors.Config("picker requires a plan catalog")
	case host.OnPlanPicked == nil:
		return nil, errors.Config("picker requires an OnPlanPicked callback")
	case host.LogIn == nil:
		return nil, errors.Config("picker requires a LogIn callback")
	case host.LogOut == nil:
		return nil, errors.Config("picker requires a LogOut callback")
	}

	s := &PlanSelector{
		plans: plans,
		host:  host,
		cycle: types.CycleMonthly,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Cycle returns the current billing cycle
func (s *PlanSelector) Cycle() types.BillingCycle {
	return s.cycle
}

// Email returns the signed-in email, if any
func (s *PlanSelector) Email() string {
	return s.host.Email
}

// Plans returns the catalog the picker reads
func (s *PlanSelector) Plans() *catalog.PlanCatalog {
	return s.plans
}

// ToggleCycle flips between monthly and annual billing
func (s *PlanSelector) ToggleCycle() {
	s.cycle = s.cycle.Toggle()
	if s.onCycle != nil {
		s.onCycle(s.cycle)
	}
}

// PlanCodeFor derives the plan code for a tier on the current cycle
func (s *PlanSelector) PlanCodeFor(tier types.TierCode) types.PlanCode {
	return types.NewPlanCode(tier, s.cycle)
}

// PlanFor returns the catalog plan for a tier on the current cycle
func (s *PlanSelector) PlanFor(tier types.TierCode) (types.Plan, error) {
	plan, err := s.plans.Lookup(s.PlanCodeFor(tier))
	if err != nil {
		if e, ok := errors.As(err); ok {
			e.WithContext("tier", string(tier)).WithContext("cycle", string(s.cycle))
		}
		return types.Plan{}, err
	}
	return plan, nil
}

// MonthlyPriceFor returns the monthly display price for a tier on the
// current cycle, or a catalog error if the catalog lacks that plan
func (s *PlanSelector) MonthlyPriceFor(tier types.TierCode) (string, error) {
	plan, err := s.PlanFor(tier)
	if err != nil {
		return "", err
	}
	return plan.Prices.Monthly, nil
}

// MustMonthlyPriceFor is MonthlyPriceFor for render paths: an incomplete
// catalog panics rather than showing a made-up price.
func (s *PlanSelector) MustMonthlyPriceFor(tier types.TierCode) string {
	return s.plans.MustGet(s.PlanCodeFor(tier)).Prices.Monthly
}

// AccountAction returns the account button to offer
func (s *PlanSelector) AccountAction() AccountAction {
	if s.host.Email != "" {
		return ActionLogOut
	}
	return ActionLogIn
}

// Decided reports whether a terminal decision has been delivered
func (s *PlanSelector) Decided() bool {
	return s.decided
}

// Outcome returns the terminal decision, if any
func (s *PlanSelector) Outcome() (Outcome, bool) {
	return s.outcome, s.decided
}

// ChoosePlan reports the tier's plan on the current cycle to the host.
// A plan missing from the catalog is rejected without consuming the decision.
func (s *PlanSelector) ChoosePlan(tier types.TierCode) error {
	if err := s.checkUndecided(); err != nil {
		return err
	}
	plan, err := s.PlanFor(tier)
	if err != nil {
		return err
	}
	s.decide(Outcome{Kind: PlanChosen, PlanCode: plan.Code}, func() {
		s.host.OnPlanPicked(plan.Code)
	})
	return nil
}

// Cancel reports that no plan was chosen
func (s *PlanSelector) Cancel() error {
	if err := s.checkUndecided(); err != nil {
		return err
	}
	s.decide(Outcome{Kind: Cancelled}, func() {
		s.host.OnPlanPicked(types.NoPlan)
	})
	return nil
}

// RequestLogIn forwards to the host's LogIn
func (s *PlanSelector) RequestLogIn() error {
	if err := s.checkUndecided(); err != nil {
		return err
	}
	s.decide(Outcome{Kind: LogInRequested}, s.host.LogIn)
	return nil
}

// RequestLogOut forwards to the host's LogOut
func (s *PlanSelector) RequestLogOut() error {
	if err := s.checkUndecided(); err != nil {
		return err
	}
	s.decide(Outcome{Kind: LogOutRequested}, s.host.LogOut)
	return nil
}

// RequestAccountAction runs whichever account action is offered
func (s *PlanSelector) RequestAccountAction() error {
	if s.AccountAction() == ActionLogOut {
		return s.RequestLogOut()
	}
	return s.RequestLogIn()
}

func (s *PlanSelector) checkUndecided() error {
	if s.decided {
		return errors.State("picker already reported " + s.outcome.String()).
			WithContext("outcome", s.outcome.String())
	}
	return nil
}

// decide marks the session decided before calling out, so a host callback
// that re-enters the picker cannot produce a second decision.
func (s *PlanSelector) decide(outcome Outcome, deliver func()) {
	s.decided = true
	s.outcome = outcome
	deliver()
	if s.onOutcome != nil {
		s.onOutcome(outcome)
	}
}

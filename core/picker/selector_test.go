package picker

import (
	"strings"
	"testing"

	"plan-picker/core/catalog"
	"plan-picker/core/types"
	"plan-picker/internal/errors"
)

// recorder counts every host callback
type recorder struct {
	picked  []types.PlanCode
	logIns  int
	logOuts int
}

func (r *recorder) host(email string) Host {
	return Host{
		Email:        email,
		OnPlanPicked: func(code types.PlanCode) { r.picked = append(r.picked, code) },
		LogIn:        func() { r.logIns++ },
		LogOut:       func() { r.logOuts++ },
	}
}

func (r *recorder) terminalCalls() int {
	return len(r.picked) + r.logIns + r.logOuts
}

func mustCatalog(t *testing.T, prices map[string]string) *catalog.PlanCatalog {
	t.Helper()
	plans := make(map[types.PlanCode]types.Plan, len(prices))
	for code, monthly := range prices {
		plans[types.PlanCode(code)] = types.Plan{Prices: types.Prices{Monthly: monthly}}
	}
	c, err := catalog.NewPlanCatalog(plans)
	if err != nil {
		t.Fatalf("NewPlanCatalog failed: %v", err)
	}
	return c
}

func fullCatalog(t *testing.T) *catalog.PlanCatalog {
	return mustCatalog(t, map[string]string{
		"pro-monthly":  "$6",
		"pro-annual":   "$5",
		"team-monthly": "$9",
		"team-annual":  "$8",
	})
}

func newSelector(t *testing.T, plans *catalog.PlanCatalog, rec *recorder, email string, opts ...Option) *PlanSelector {
	t.Helper()
	s, err := New(plans, rec.host(email), opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s
}

func TestNewRequiresCatalogAndCallbacks(t *testing.T) {
	rec := &recorder{}
	plans := fullCatalog(t)

	tests := []struct {
		name  string
		plans *catalog.PlanCatalog
		host  func() Host
	}{
		{"no catalog", nil, func() Host { return rec.host("") }},
		{"no OnPlanPicked", plans, func() Host { h := rec.host(""); h.OnPlanPicked = nil; return h }},
		{"no LogIn", plans, func() Host { h := rec.host(""); h.LogIn = nil; return h }},
		{"no LogOut", plans, func() Host { h := rec.host(""); h.LogOut = nil; return h }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.plans, tt.host())
			if !errors.IsType(err, errors.TypeConfig) {
				t.Errorf("Expected config error, got %v", err)
			}
		})
	}
}

func TestInitialCycleIsMonthly(t *testing.T) {
	s := newSelector(t, fullCatalog(t), &recorder{}, "")
	if s.Cycle() != types.CycleMonthly {
		t.Errorf("Expected monthly, got %s", s.Cycle())
	}
}

// TestToggleInvolution proves two toggles restore the starting cycle
func TestToggleInvolution(t *testing.T) {
	rec := &recorder{}
	s := newSelector(t, fullCatalog(t), rec, "")

	for i, start := range []types.BillingCycle{types.CycleMonthly, types.CycleAnnual} {
		if s.Cycle() != start {
			s.ToggleCycle()
		}
		s.ToggleCycle()
		if s.Cycle() == start {
			t.Errorf("case %d: single toggle left cycle at %s", i, start)
		}
		s.ToggleCycle()
		if s.Cycle() != start {
			t.Errorf("case %d: double toggle gave %s, want %s", i, s.Cycle(), start)
		}
	}

	if rec.terminalCalls() != 0 || s.Decided() {
		t.Error("Toggling must never produce a terminal outcome")
	}
}

func TestToggleNotifiesObserver(t *testing.T) {
	var seen []types.BillingCycle
	s := newSelector(t, fullCatalog(t), &recorder{}, "",
		WithCycleObserver(func(c types.BillingCycle) { seen = append(seen, c) }))

	s.ToggleCycle()
	s.ToggleCycle()

	if len(seen) != 2 || seen[0] != types.CycleAnnual || seen[1] != types.CycleMonthly {
		t.Errorf("Unexpected notifications: %v", seen)
	}
}

// TestPlanCodeDerivationIsDeterministic proves derivation is pure and cycle-specific
func TestPlanCodeDerivationIsDeterministic(t *testing.T) {
	s := newSelector(t, fullCatalog(t), &recorder{}, "")

	for _, tier := range []types.TierCode{"pro", "team"} {
		monthly := s.PlanCodeFor(tier)
		if again := s.PlanCodeFor(tier); again != monthly {
			t.Errorf("%s: repeated derivation gave %s then %s", tier, monthly, again)
		}
		s.ToggleCycle()
		annual := s.PlanCodeFor(tier)
		s.ToggleCycle()

		if monthly == annual {
			t.Errorf("%s: monthly and annual codes are equal (%s)", tier, monthly)
		}
		if monthly != types.PlanCode(string(tier)+"-monthly") || annual != types.PlanCode(string(tier)+"-annual") {
			t.Errorf("%s: unexpected codes %s / %s", tier, monthly, annual)
		}
	}
}

// TestMonthlyPriceFollowsCycle checks catalog lookup correctness
func TestMonthlyPriceFollowsCycle(t *testing.T) {
	plans := mustCatalog(t, map[string]string{
		"pro-monthly": "$6",
		"pro-annual":  "$5",
	})
	s := newSelector(t, plans, &recorder{}, "")

	price, err := s.MonthlyPriceFor("pro")
	if err != nil || price != "$6" {
		t.Errorf("monthly: got %q (%v), want $6", price, err)
	}
	if got := s.MustMonthlyPriceFor("pro"); got != "$6" {
		t.Errorf("monthly (must): got %q, want $6", got)
	}

	s.ToggleCycle()

	price, err = s.MonthlyPriceFor("pro")
	if err != nil || price != "$5" {
		t.Errorf("annual: got %q (%v), want $5", price, err)
	}
}

// TestChoosePlanReportsCyclePlan checks choice correctness
func TestChoosePlanReportsCyclePlan(t *testing.T) {
	rec := &recorder{}
	var observed []Outcome
	s := newSelector(t, fullCatalog(t), rec, "",
		WithOutcomeObserver(func(o Outcome) { observed = append(observed, o) }))

	s.ToggleCycle()
	if err := s.ChoosePlan("team"); err != nil {
		t.Fatalf("ChoosePlan failed: %v", err)
	}

	if len(rec.picked) != 1 || rec.picked[0] != "team-annual" {
		t.Fatalf("Expected exactly [team-annual], got %v", rec.picked)
	}
	outcome, ok := s.Outcome()
	if !ok || outcome.Kind != PlanChosen || outcome.PlanCode != "team-annual" {
		t.Errorf("Unexpected outcome: %+v (%v)", outcome, ok)
	}
	if len(observed) != 1 || observed[0] != outcome {
		t.Errorf("Observer saw %v", observed)
	}
}

// TestCancelReportsNoPlan checks cancellation
func TestCancelReportsNoPlan(t *testing.T) {
	rec := &recorder{}
	s := newSelector(t, fullCatalog(t), rec, "")

	if err := s.Cancel(); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if len(rec.picked) != 1 || rec.picked[0] != types.NoPlan {
		t.Fatalf("Expected exactly [NoPlan], got %v", rec.picked)
	}
	if outcome, _ := s.Outcome(); outcome.Kind != Cancelled {
		t.Errorf("Expected cancelled outcome, got %s", outcome)
	}
}

// TestTerminalDispatchAtMostOnce proves no session delivers two decisions
func TestTerminalDispatchAtMostOnce(t *testing.T) {
	actions := map[string]func(*PlanSelector) error{
		"choose":  func(s *PlanSelector) error { return s.ChoosePlan("pro") },
		"cancel":  func(s *PlanSelector) error { return s.Cancel() },
		"log in":  func(s *PlanSelector) error { return s.RequestLogIn() },
		"log out": func(s *PlanSelector) error { return s.RequestLogOut() },
	}

	for firstName, first := range actions {
		for secondName, second := range actions {
			t.Run(firstName+" then "+secondName, func(t *testing.T) {
				rec := &recorder{}
				s := newSelector(t, fullCatalog(t), rec, "")

				if err := first(s); err != nil {
					t.Fatalf("first action failed: %v", err)
				}
				err := second(s)
				if !errors.IsType(err, errors.TypeState) {
					t.Errorf("Expected state error on second decision, got %v", err)
				}
				if rec.terminalCalls() != 1 {
					t.Errorf("Expected exactly one terminal callback, got %d", rec.terminalCalls())
				}
			})
		}
	}
}

func TestReentrantCallbackCannotDecideTwice(t *testing.T) {
	var s *PlanSelector
	var reentryErr error
	calls := 0

	plans := fullCatalog(t)
	s, err := New(plans, Host{
		OnPlanPicked: func(types.PlanCode) {
			calls++
			reentryErr = s.Cancel()
		},
		LogIn:  func() {},
		LogOut: func() {},
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := s.ChoosePlan("pro"); err != nil {
		t.Fatalf("ChoosePlan failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected one OnPlanPicked call, got %d", calls)
	}
	if !errors.IsType(reentryErr, errors.TypeState) {
		t.Errorf("Expected re-entrant cancel to be rejected, got %v", reentryErr)
	}
}

// TestLogInLogOutForwarding checks forwarding leaves cycle and plan callback alone
func TestLogInLogOutForwarding(t *testing.T) {
	t.Run("log in", func(t *testing.T) {
		rec := &recorder{}
		s := newSelector(t, fullCatalog(t), rec, "")
		s.ToggleCycle()

		if err := s.RequestLogIn(); err != nil {
			t.Fatal(err)
		}
		if rec.logIns != 1 || rec.logOuts != 0 || len(rec.picked) != 0 {
			t.Errorf("Unexpected calls: %+v", rec)
		}
		if s.Cycle() != types.CycleAnnual {
			t.Errorf("Log in changed the cycle to %s", s.Cycle())
		}
	})

	t.Run("log out", func(t *testing.T) {
		rec := &recorder{}
		s := newSelector(t, fullCatalog(t), rec, "me@example.com")

		if err := s.RequestLogOut(); err != nil {
			t.Fatal(err)
		}
		if rec.logOuts != 1 || rec.logIns != 0 || len(rec.picked) != 0 {
			t.Errorf("Unexpected calls: %+v", rec)
		}
		if s.Cycle() != types.CycleMonthly {
			t.Errorf("Log out changed the cycle to %s", s.Cycle())
		}
	})
}

func TestAccountActionFollowsEmail(t *testing.T) {
	rec := &recorder{}
	anon := newSelector(t, fullCatalog(t), rec, "")
	if anon.AccountAction() != ActionLogIn {
		t.Error("Expected log in without an email")
	}
	if err := anon.RequestAccountAction(); err != nil || rec.logIns != 1 {
		t.Errorf("Expected log in forwarded, err=%v calls=%+v", err, rec)
	}

	rec = &recorder{}
	signedIn := newSelector(t, fullCatalog(t), rec, "me@example.com")
	if signedIn.AccountAction() != ActionLogOut {
		t.Error("Expected log out with an email")
	}
	if err := signedIn.RequestAccountAction(); err != nil || rec.logOuts != 1 {
		t.Errorf("Expected log out forwarded, err=%v calls=%+v", err, rec)
	}
}

// TestMissingCatalogEntryFails proves an incomplete catalog never yields a price
func TestMissingCatalogEntryFails(t *testing.T) {
	plans := mustCatalog(t, map[string]string{"pro-monthly": "$6"})

	t.Run("MonthlyPriceFor", func(t *testing.T) {
		s := newSelector(t, plans, &recorder{}, "")
		s.ToggleCycle()

		price, err := s.MonthlyPriceFor("pro")
		if !errors.IsType(err, errors.TypeCatalog) {
			t.Fatalf("Expected catalog error, got %v", err)
		}
		if price != "" {
			t.Errorf("Expected no price, got %q", price)
		}
		e, _ := errors.As(err)
		if e.Context["tier"] != "pro" || e.Context["cycle"] != "annual" {
			t.Errorf("Error lacks tier/cycle context: %v", e.Context)
		}
	})

	t.Run("MustMonthlyPriceFor", func(t *testing.T) {
		s := newSelector(t, plans, &recorder{}, "")
		s.ToggleCycle()

		defer func() {
			r := recover()
			if r == nil {
				t.Fatal("Expected panic for missing pro-annual")
			}
			if msg, ok := r.(string); !ok || !strings.Contains(msg, "pro-annual") {
				t.Fatalf("Unexpected panic value: %v", r)
			}
		}()
		s.MustMonthlyPriceFor("pro")
	})

	t.Run("ChoosePlan", func(t *testing.T) {
		rec := &recorder{}
		s := newSelector(t, plans, rec, "")
		s.ToggleCycle()

		if err := s.ChoosePlan("pro"); !errors.IsType(err, errors.TypeCatalog) {
			t.Fatalf("Expected catalog error, got %v", err)
		}
		if rec.terminalCalls() != 0 || s.Decided() {
			t.Error("A failed choice must not deliver or consume the decision")
		}

		// the session can still be decided
		if err := s.Cancel(); err != nil {
			t.Errorf("Cancel after failed choice: %v", err)
		}
	})

	t.Run("unknown tier", func(t *testing.T) {
		s := newSelector(t, plans, &recorder{}, "")
		if _, err := s.MonthlyPriceFor("enterprise"); !errors.IsType(err, errors.TypeCatalog) {
			t.Errorf("Expected catalog error for unknown tier, got %v", err)
		}
	})
}

func TestViewPricesTiers(t *testing.T) {
	s := newSelector(t, catalog.DefaultPlans(), &recorder{}, "me@example.com")
	tiers := catalog.DefaultTiers()

	v := s.View(tiers)
	if v.Cycle != types.CycleMonthly || v.AccountAction != "log_out" || v.Email != "me@example.com" {
		t.Errorf("Unexpected view header: %+v", v)
	}
	if len(v.Tiers) != 2 {
		t.Fatalf("Expected 2 tiers, got %d", len(v.Tiers))
	}
	if v.Tiers[0].PlanCode != "pro-monthly" || v.Tiers[0].MonthlyPrice != "$14" {
		t.Errorf("Unexpected pro tier: %+v", v.Tiers[0])
	}
	if v.Tiers[0].Caveat != "plus tax, paid monthly" || v.Tiers[0].Billed != "" {
		t.Errorf("Unexpected monthly caveat: %q billed %q", v.Tiers[0].Caveat, v.Tiers[0].Billed)
	}

	s.ToggleCycle()
	v = s.View(tiers)
	if v.Tiers[1].PlanCode != "team-annual" || v.Tiers[1].MonthlyPrice != "$20" {
		t.Errorf("Unexpected team tier: %+v", v.Tiers[1])
	}
	if v.Tiers[1].Caveat != "plus tax, paid annually" || v.Tiers[1].Billed != "$240 / year" {
		t.Errorf("Unexpected annual caveat: %q billed %q", v.Tiers[1].Caveat, v.Tiers[1].Billed)
	}
	if v.Outcome != nil {
		t.Error("Undecided picker should have no outcome in its view")
	}

	if err := s.Cancel(); err != nil {
		t.Fatal(err)
	}
	if v = s.View(tiers); v.Outcome == nil || v.Outcome.Kind != Cancelled {
		t.Errorf("Expected cancelled outcome in view, got %v", v.Outcome)
	}
}

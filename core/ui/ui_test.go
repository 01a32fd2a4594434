package ui

import (
	"bytes"
	"strings"
	"testing"

	"plan-picker/core/catalog"
	"plan-picker/core/picker"
	"plan-picker/core/types"
)

type hostLog struct {
	picked []types.PlanCode
	logIns int
}

func newTestModel(t *testing.T, offering *catalog.Offering, email string) (*PickerModel, *hostLog) {
	t.Helper()
	log := &hostLog{}
	selector, err := picker.New(offering.Plans, picker.Host{
		Email:        email,
		OnPlanPicked: func(c types.PlanCode) { log.picked = append(log.picked, c) },
		LogIn:        func() { log.logIns++ },
		LogOut:       func() {},
	})
	if err != nil {
		t.Fatalf("picker.New failed: %v", err)
	}
	return NewPickerModel(selector, offering), log
}

func TestPickerModelStartsOnHighlightedTier(t *testing.T) {
	m, _ := newTestModel(t, catalog.DefaultOffering(), "")
	if m.Focus() != 0 {
		t.Errorf("Expected Professional focused, got %d", m.Focus())
	}
}

func TestPickerModelToggleAndChoose(t *testing.T) {
	m, log := newTestModel(t, catalog.DefaultOffering(), "")

	if cmd := m.HandleKey("t"); cmd != nil {
		t.Error("Toggling must not end the program")
	}
	if m.Selector().Cycle() != types.CycleAnnual {
		t.Fatalf("Expected annual after toggle, got %s", m.Selector().Cycle())
	}

	m.HandleKey("right")
	m.HandleKey("right")
	if m.Focus() != 0 {
		t.Fatalf("Expected Professional focused, got %d", m.Focus())
	}

	if cmd := m.HandleKey("enter"); cmd == nil {
		t.Error("Choosing a plan should quit the program")
	}
	if len(log.picked) != 1 || log.picked[0] != "pro-annual" {
		t.Errorf("Expected [pro-annual], got %v", log.picked)
	}
}

func TestPickerModelFocusWraps(t *testing.T) {
	m, _ := newTestModel(t, catalog.DefaultOffering(), "")

	m.HandleKey("left")
	if m.Focus() != 1 {
		t.Errorf("Expected focus to wrap to last tier, got %d", m.Focus())
	}
	m.HandleKey("1")
	if m.Focus() != 0 {
		t.Errorf("Expected digit to focus first tier, got %d", m.Focus())
	}
	m.HandleKey("9")
	if m.Focus() != 0 {
		t.Errorf("Out-of-range digit moved focus to %d", m.Focus())
	}
}

func TestPickerModelCancel(t *testing.T) {
	m, log := newTestModel(t, catalog.DefaultOffering(), "")

	if cmd := m.HandleKey("esc"); cmd == nil {
		t.Error("Cancel should quit the program")
	}
	if len(log.picked) != 1 || log.picked[0] != types.NoPlan {
		t.Errorf("Expected [NoPlan], got %v", log.picked)
	}

	// a second decision is refused and shown, not delivered
	if cmd := m.HandleKey("enter"); cmd != nil {
		t.Error("Second decision should not quit again")
	}
	if len(log.picked) != 1 {
		t.Errorf("Second decision reached the host: %v", log.picked)
	}
	if !strings.Contains(m.Notice(), "already") {
		t.Errorf("Expected an already-decided notice, got %q", m.Notice())
	}
}

func TestPickerModelAccountAction(t *testing.T) {
	m, log := newTestModel(t, catalog.DefaultOffering(), "")
	if cmd := m.HandleKey("a"); cmd == nil {
		t.Error("Log in should quit the program")
	}
	if log.logIns != 1 || len(log.picked) != 0 {
		t.Errorf("Expected only a log in, got %+v", log)
	}
}

func TestPickerModelContactTier(t *testing.T) {
	m, log := newTestModel(t, catalog.DefaultOffering(), "")

	m.HandleKey("2")
	if cmd := m.HandleKey("enter"); cmd != nil {
		t.Error("A contact tier must not end the program")
	}
	if len(log.picked) != 0 {
		t.Errorf("A contact tier must not pick a plan, got %v", log.picked)
	}
	if !strings.Contains(m.Notice(), catalog.DefaultContactURL) {
		t.Errorf("Expected contact notice, got %q", m.Notice())
	}
}

func TestPickerModelRender(t *testing.T) {
	m, _ := newTestModel(t, catalog.DefaultOffering(), "me@example.com")

	out := m.Render()
	for _, want := range []string{"Choose your Plan", "Professional", "Team", "$14", "$22", "me@example.com", "Log out", "Get in touch", catalog.DefaultTermsURL} {
		if !strings.Contains(out, want) {
			t.Errorf("Render missing %q", want)
		}
	}

	m.HandleKey("t")
	out = m.Render()
	for _, want := range []string{"$12", "$20", "annually"} {
		if !strings.Contains(out, want) {
			t.Errorf("Annual render missing %q", want)
		}
	}
}

func TestPlanTable(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, true)

	offering := catalog.DefaultOffering()
	m, _ := newTestModel(t, offering, "")
	m.Selector().ToggleCycle()
	w.PlanTable(m.Selector().View(offering.Tiers))

	out := buf.String()
	for _, want := range []string{"Tier", "pro-annual", "$12 / month", "team-annual", "$240 / year"} {
		if !strings.Contains(out, want) {
			t.Errorf("Plan table missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Error("noColor writer emitted ANSI codes")
	}
}

func TestOutcomeSummary(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, true)

	s := w.NewOutcomeSummary(picker.Outcome{Kind: picker.PlanChosen, PlanCode: "pro-annual"})
	s.Tier = "Professional"
	s.Price = "$12 / month"
	s.Render()

	out := buf.String()
	if !strings.Contains(out, "Plan Selected") || !strings.Contains(out, "pro-annual") || !strings.Contains(out, "$12 / month") {
		t.Errorf("Unexpected summary:\n%s", out)
	}

	buf.Reset()
	w.NewOutcomeSummary(picker.Outcome{Kind: picker.Cancelled}).Render()
	if !strings.Contains(buf.String(), "No plan chosen") {
		t.Errorf("Unexpected cancel summary: %q", buf.String())
	}
}

func TestTablePadsByDisplayWidth(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, true)

	table := w.NewTable("Name", "Price")
	table.AddRow("日本", "¥1600")
	table.AddRow("abc", "€14")
	table.Render()

	out := buf.String()
	for _, want := range []string{"Name │ Price", "日本 │ ¥1600", "abc  │ €14"} {
		if !strings.Contains(out, want) {
			t.Errorf("Table missing %q:\n%s", want, out)
		}
	}
}

package ui

import (
	"strconv"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"plan-picker/core/catalog"
	"plan-picker/core/picker"
	"plan-picker/core/types"
)

// stackBelow is the terminal width under which tiers are stacked vertically
const stackBelow = 100

var (
	popColor    = lipgloss.Color("#e1421f")
	borderColor = lipgloss.Color("#888888")
	mutedColor  = lipgloss.Color("#999999")
)

type pickerStyles struct {
	heading     lipgloss.Style
	selected    lipgloss.Style
	unselected  lipgloss.Style
	smallPrint  lipgloss.Style
	button      lipgloss.Style
	tier        lipgloss.Style
	highlighted lipgloss.Style
	focused     lipgloss.Style
	tierHeader  lipgloss.Style
	price       lipgloss.Style
	caveat      lipgloss.Style
	notice      lipgloss.Style
	help        lipgloss.Style
}

func newPickerStyles() pickerStyles {
	tier := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 2).
		Width(38)

	return pickerStyles{
		heading:     lipgloss.NewStyle().Bold(true).MarginBottom(1),
		selected:    lipgloss.NewStyle().Bold(true).Underline(true),
		unselected:  lipgloss.NewStyle().Faint(true),
		smallPrint:  lipgloss.NewStyle().Foreground(mutedColor),
		button:      lipgloss.NewStyle().Padding(0, 1),
		tier:        tier,
		highlighted: tier.BorderStyle(lipgloss.ThickBorder()).BorderForeground(popColor),
		focused:     tier.BorderStyle(lipgloss.DoubleBorder()).BorderForeground(popColor),
		tierHeader:  lipgloss.NewStyle().Bold(true).Foreground(popColor),
		price:       lipgloss.NewStyle().Bold(true),
		caveat:      lipgloss.NewStyle().Faint(true),
		notice:      lipgloss.NewStyle().Foreground(popColor),
		help:        lipgloss.NewStyle().Foreground(mutedColor),
	}
}

// PickerModel is the Bubble Tea model of the interactive picker. Every key
// press is translated into one PlanSelector operation.
type PickerModel struct {
	selector *picker.PlanSelector
	offering *catalog.Offering
	styles   pickerStyles

	focus  int
	width  int
	notice string
}

// NewPickerModel creates a picker model. The highlighted tier starts focused.
func NewPickerModel(selector *picker.PlanSelector, offering *catalog.Offering) *PickerModel {
	m := &PickerModel{
		selector: selector,
		offering: offering,
		styles:   newPickerStyles(),
		width:    stackBelow,
	}
	for i, t := range offering.Tiers {
		if t.Highlighted {
			m.focus = i
			break
		}
	}
	return m
}

// Selector returns the underlying state machine
func (m *PickerModel) Selector() *picker.PlanSelector {
	return m.selector
}

// Focus returns the index of the focused tier
func (m *PickerModel) Focus() int {
	return m.focus
}

// Notice returns the message shown under the picker, if any
func (m *PickerModel) Notice() string {
	return m.notice
}

// Init implements tea.Model
func (m *PickerModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m *PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tea.KeyPressMsg:
		return m, m.HandleKey(msg.String())
	}
	return m, nil
}

// HandleKey applies a key and returns tea.Quit once a decision is made
func (m *PickerModel) HandleKey(key string) tea.Cmd {
	m.notice = ""

	switch key {
	case "t", "tab", "space":
		m.selector.ToggleCycle()
	case "left", "h", "shift+tab":
		m.moveFocus(-1)
	case "right", "l":
		m.moveFocus(1)
	case "enter":
		return m.chooseFocused()
	case "a":
		return m.decided(m.selector.RequestAccountAction())
	case "esc", "q", "ctrl+c":
		return m.decided(m.selector.Cancel())
	default:
		if n, err := strconv.Atoi(key); err == nil && n >= 1 && n <= len(m.offering.Tiers) {
			m.focus = n - 1
		}
	}
	return nil
}

func (m *PickerModel) moveFocus(delta int) {
	n := len(m.offering.Tiers)
	if n == 0 {
		return
	}
	m.focus = (m.focus + delta + n) % n
}

func (m *PickerModel) chooseFocused() tea.Cmd {
	if len(m.offering.Tiers) == 0 {
		return nil
	}
	tier := m.offering.Tiers[m.focus]
	if !tier.Purchasable() {
		m.notice = "Get in touch: " + tier.ContactURL
		return nil
	}
	return m.decided(m.selector.ChoosePlan(tier.Code))
}

func (m *PickerModel) decided(err error) tea.Cmd {
	if err != nil {
		m.notice = err.Error()
		return nil
	}
	return tea.Quit
}

// View implements tea.Model
func (m *PickerModel) View() tea.View {
	return tea.NewView(m.Render())
}

// Render draws the picker as a string
func (m *PickerModel) Render() string {
	view := m.selector.View(m.offering.Tiers)

	details := lipgloss.JoinVertical(lipgloss.Left,
		m.styles.heading.Render("Choose your Plan"),
		m.renderToggle(view.Cycle),
		"",
		m.renderSmallPrint(view),
		"",
		m.styles.button.Render("[a] "+view.AccountLabel),
		m.styles.button.Render("[esc] Cancel"),
	)

	tiers := make([]string, len(view.Tiers))
	for i, tv := range view.Tiers {
		tiers[i] = m.renderTier(i, tv)
	}

	var table string
	if m.width < stackBelow {
		table = lipgloss.JoinVertical(lipgloss.Left, tiers...)
	} else {
		table = lipgloss.JoinHorizontal(lipgloss.Top, tiers...)
	}

	var body string
	if m.width < stackBelow {
		body = lipgloss.JoinVertical(lipgloss.Left, details, "", table)
	} else {
		body = lipgloss.JoinHorizontal(lipgloss.Top, details, "    ", table)
	}

	footer := m.styles.help.Render("t toggle billing • ←/→ select tier • enter choose • a account • esc cancel")
	if m.notice != "" {
		footer = lipgloss.JoinVertical(lipgloss.Left, m.styles.notice.Render(m.notice), footer)
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, "", footer) + "\n"
}

func (m *PickerModel) renderToggle(cycle types.BillingCycle) string {
	monthly, annual := m.styles.unselected, m.styles.unselected
	knob := "●━━○"
	if cycle == types.CycleAnnual {
		annual = m.styles.selected
		knob = "○━━●"
	} else {
		monthly = m.styles.selected
	}
	return monthly.Render("Monthly") + "  " + knob + "  " + annual.Render("Annual")
}

func (m *PickerModel) renderSmallPrint(view picker.View) string {
	var lines []string
	if view.Email != "" {
		lines = append(lines, "Logged in as "+view.Email+".")
	}
	if m.offering.TermsURL != "" {
		lines = append(lines, "By subscribing to a paid plan, you accept the terms of service:", m.offering.TermsURL)
	}
	if len(lines) == 0 {
		return ""
	}
	return m.styles.smallPrint.Render(strings.Join(lines, "\n"))
}

func (m *PickerModel) renderTier(i int, tv picker.TierView) string {
	lines := []string{
		m.styles.tierHeader.Render(tv.Tier.Name),
		"",
		m.styles.price.Render(tv.MonthlyPrice + " " + tv.Tier.Suffix()),
		m.styles.caveat.Render(tv.Caveat),
	}
	if tv.Billed != "" {
		lines = append(lines, m.styles.caveat.Render("billed "+tv.Billed))
	}
	if tv.Tier.License != "" {
		lines = append(lines, "", tv.Tier.License)
	}
	if len(tv.Tier.Features) > 0 {
		lines = append(lines, "")
		for _, f := range tv.Tier.Features {
			lines = append(lines, "• "+f)
		}
	}

	lines = append(lines, "")
	switch {
	case tv.Tier.Purchasable() && i == m.focus:
		lines = append(lines, "▶ [enter] "+tv.Tier.Action())
	case tv.Tier.Purchasable():
		lines = append(lines, "["+strconv.Itoa(i+1)+"] "+tv.Tier.Action())
	default:
		lines = append(lines, tv.Tier.Action()+":", tv.Tier.ContactURL)
	}

	style := m.styles.tier
	switch {
	case i == m.focus:
		style = m.styles.focused
	case tv.Tier.Highlighted:
		style = m.styles.highlighted
	}
	return style.Render(strings.Join(lines, "\n"))
}

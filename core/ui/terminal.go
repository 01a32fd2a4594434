// Package ui - Terminal user interface
// Plain CLI output (headers, tables, outcome summaries) and the interactive
// plan picker.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"charm.land/lipgloss/v2"

	"plan-picker/core/picker"
)

// Colors for terminal output
const (
	Reset  = "\033[0m"
	Bold   = "\033[1m"
	Dim    = "\033[2m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Blue   = "\033[34m"
	Cyan   = "\033[36m"
)

// Writer is the UI output destination
type Writer struct {
	out       io.Writer
	noColor   bool
	verbosity int
}

// NewWriter creates a UI writer
func NewWriter(out io.Writer, noColor bool) *Writer {
	if out == nil {
		out = os.Stdout
	}
	return &Writer{
		out:       out,
		noColor:   noColor,
		verbosity: 1,
	}
}

// SetVerbosity sets output verbosity (0=quiet, 1=normal, 2=verbose)
func (w *Writer) SetVerbosity(level int) {
	w.verbosity = level
}

// color applies color if enabled
func (w *Writer) color(c, text string) string {
	if w.noColor {
		return text
	}
	return c + text + Reset
}

// Print writes formatted text
func (w *Writer) Print(format string, args ...interface{}) {
	fmt.Fprintf(w.out, format, args...)
}

// Println writes a line with newline
func (w *Writer) Println(format string, args ...interface{}) {
	fmt.Fprintf(w.out, format+"\n", args...)
}

// Header prints a section header
func (w *Writer) Header(title string) {
	w.Println("")
	w.Println("%s", w.color(Bold+Cyan, "━━━ "+title+" ━━━"))
	w.Println("")
}

// SubHeader prints a subsection header
func (w *Writer) SubHeader(title string) {
	w.Println("%s", w.color(Bold, "▸ "+title))
}

// Success prints a success message
func (w *Writer) Success(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	w.Println("%s%s", w.color(Green, "✓ "), msg)
}

// Warning prints a warning
func (w *Writer) Warning(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	w.Println("%s%s", w.color(Yellow, "⚠ "), msg)
}

// Error prints an error
func (w *Writer) Error(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	w.Println("%s%s", w.color(Red, "✗ "), msg)
}

// Info prints an info message
func (w *Writer) Info(format string, args ...interface{}) {
	if w.verbosity < 1 {
		return
	}
	msg := fmt.Sprintf(format, args...)
	w.Println("%s%s", w.color(Blue, "ℹ "), msg)
}

// Debug prints a debug message
func (w *Writer) Debug(format string, args ...interface{}) {
	if w.verbosity < 2 {
		return
	}
	msg := fmt.Sprintf(format, args...)
	w.Println("%s", w.color(Dim, "  "+msg))
}

// Table renders a table
type Table struct {
	w       *Writer
	headers []string
	rows    [][]string
	widths  []int
}

// NewTable creates a table
func (w *Writer) NewTable(headers ...string) *Table {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = displayWidth(h)
	}
	return &Table{
		w:       w,
		headers: headers,
		rows:    [][]string{},
		widths:  widths,
	}
}

// AddRow adds a row to the table
func (t *Table) AddRow(cells ...string) {
	// Pad or truncate cells to match header count
	row := make([]string, len(t.headers))
	for i := range row {
		if i < len(cells) {
			row[i] = cells[i]
		}
		if n := displayWidth(row[i]); n > t.widths[i] {
			t.widths[i] = n
		}
	}
	t.rows = append(t.rows, row)
}

// Render prints the table
func (t *Table) Render() {
	t.w.Print("%s\n", t.w.color(Bold, t.line(t.headers)))

	sep := make([]string, len(t.widths))
	for i, w := range t.widths {
		sep[i] = strings.Repeat("─", w)
	}
	t.w.Println("%s", strings.Join(sep, "─┼─"))

	for _, row := range t.rows {
		t.w.Print("%s\n", t.line(row))
	}
}

func (t *Table) line(cells []string) string {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		parts[i] = cell + strings.Repeat(" ", t.widths[i]-displayWidth(cell))
	}
	return strings.TrimRight(strings.Join(parts, " │ "), " ")
}

// displayWidth is the number of terminal cells s occupies
func displayWidth(s string) int {
	return lipgloss.Width(s)
}

// PlanTable prints the tiers of a picker view
func (w *Writer) PlanTable(view picker.View) {
	table := w.NewTable("Tier", "Plan", "Price", "Billing")
	for _, tv := range view.Tiers {
		billing := tv.Caveat
		if tv.Billed != "" {
			billing += " (" + tv.Billed + ")"
		}
		table.AddRow(tv.Tier.Name, string(tv.PlanCode), tv.MonthlyPrice+" "+tv.Tier.Suffix(), billing)
	}
	table.Render()
}

// OutcomeSummary renders the decision a picker reported
type OutcomeSummary struct {
	w       *Writer
	Outcome picker.Outcome
	Tier    string
	Price   string
	Billed  string
}

// NewOutcomeSummary creates an outcome summary
func (w *Writer) NewOutcomeSummary(outcome picker.Outcome) *OutcomeSummary {
	return &OutcomeSummary{w: w, Outcome: outcome}
}

// Render prints the outcome summary
func (s *OutcomeSummary) Render() {
	switch s.Outcome.Kind {
	case picker.PlanChosen:
		s.w.Header("Plan Selected")
		s.w.Println("%s", s.w.color(Bold, "╭─────────────────────────────────────╮"))
		s.w.Println("%s%s%s", s.w.color(Bold, "│"), s.w.color(Green, fmt.Sprintf("  Plan:   %-27s", s.Outcome.PlanCode)), s.w.color(Bold, "│"))
		if s.Tier != "" {
			s.w.Println("%s%s%s", s.w.color(Bold, "│"), fmt.Sprintf("  Tier:   %-27s", s.Tier), s.w.color(Bold, "│"))
		}
		if s.Price != "" {
			s.w.Println("%s%s%s", s.w.color(Bold, "│"), fmt.Sprintf("  Price:  %-27s", s.Price), s.w.color(Bold, "│"))
		}
		if s.Billed != "" {
			s.w.Println("%s%s%s", s.w.color(Bold, "│"), s.w.color(Dim, fmt.Sprintf("  Billed: %-27s", s.Billed)), s.w.color(Bold, "│"))
		}
		s.w.Println("%s", s.w.color(Bold, "╰─────────────────────────────────────╯"))
	case picker.Cancelled:
		s.w.Warning("No plan chosen")
	case picker.LogInRequested:
		s.w.Info("Log in requested")
	case picker.LogOutRequested:
		s.w.Info("Log out requested")
	}
}

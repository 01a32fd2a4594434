// Package ui - Interactive picker runner
package ui

import (
	"context"
	"io"

	tea "charm.land/bubbletea/v2"
	"go.uber.org/zap"

	"plan-picker/core/catalog"
	"plan-picker/core/picker"
	"plan-picker/core/types"
	"plan-picker/internal/logging"
)

// PickerRunner runs one interactive picker session in the terminal
type PickerRunner struct {
	in  io.Reader
	out io.Writer
}

// NewPickerRunner creates a runner reading keys from in and drawing to out
func NewPickerRunner(in io.Reader, out io.Writer) *PickerRunner {
	return &PickerRunner{in: in, out: out}
}

// Run shows the picker until the user decides. A session that ends without
// a decision (context cancelled, program killed) is reported as cancelled,
// so the host always receives exactly one outcome.
func (r *PickerRunner) Run(ctx context.Context, offering *catalog.Offering, host picker.Host) (picker.Outcome, error) {
	offering.MustValidate()

	log := logging.Named("picker")
	selector, err := picker.New(offering.Plans, host,
		picker.WithCycleObserver(func(c types.BillingCycle) {
			log.Debug("billing cycle changed", zap.String("cycle", c.String()))
		}),
		picker.WithOutcomeObserver(func(o picker.Outcome) {
			log.Info("picker decided", zap.String("outcome", o.Kind.String()), zap.String("plan_code", string(o.PlanCode)))
		}),
	)
	if err != nil {
		return picker.Outcome{}, err
	}

	model := NewPickerModel(selector, offering)
	program := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithInput(r.in),
		tea.WithOutput(r.out),
	)

	_, runErr := program.Run()
	if !selector.Decided() {
		if err := selector.Cancel(); err != nil {
			return picker.Outcome{}, err
		}
	}

	outcome, _ := selector.Outcome()
	if runErr != nil && ctx.Err() == nil {
		return outcome, runErr
	}
	return outcome, nil
}

// Package cmd - pick command
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"plan-picker/adapters/catalogfile"
	"plan-picker/core/catalog"
	"plan-picker/core/picker"
	"plan-picker/core/types"
	"plan-picker/core/ui"
	"plan-picker/internal/config"
	"plan-picker/internal/logging"
)

var (
	catalogPath string
	pickEmail   string
	pickFormat  string
)

// pickCmd runs the interactive picker
var pickCmd = &cobra.Command{
	Use:   "pick",
	Short: "Choose a plan interactively",
	Long: `Show the plan picker in the terminal.

Keys:
  t / space    toggle monthly and annual billing
  ←/→, 1..9    select a tier
  enter        choose the selected tier
  a            log in, or log out when --email is set
  esc / q      cancel

Examples:
  plan-picker pick
  plan-picker pick --catalog plans.hcl
  plan-picker pick --email me@example.com --format json`,
	Args: cobra.NoArgs,
	RunE: runPick,
}

func init() {
	pickCmd.Flags().StringVarP(&catalogPath, "catalog", "c", "", "catalog file (hcl, yaml or json); built-in plans when empty")
	pickCmd.Flags().StringVarP(&pickEmail, "email", "e", "", "email of the signed-in account")
	pickCmd.Flags().StringVarP(&pickFormat, "format", "f", "", "output format (text, json)")
	rootCmd.AddCommand(pickCmd)
}

// pickResult is the JSON form of a picker outcome
type pickResult struct {
	Outcome      string         `json:"outcome"`
	PlanCode     types.PlanCode `json:"plan_code,omitempty"`
	Tier         string         `json:"tier,omitempty"`
	MonthlyPrice string         `json:"monthly_price,omitempty"`
	Billed       string         `json:"billed,omitempty"`
}

func runPick(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	format := pickFormat
	if format == "" {
		format = cfg.Output.DefaultFormat
	}
	if format != "text" && format != "json" {
		return fmt.Errorf("unknown format %q (use text or json)", format)
	}
	email := pickEmail
	if email == "" {
		email = cfg.Picker.Email
	}

	offering, err := loadOffering(catalogPath)
	if err != nil {
		return err
	}

	log := logging.Named("cli")
	host := picker.Host{
		Email: email,
		OnPlanPicked: func(code types.PlanCode) {
			log.Debug("plan picked", zap.String("plan_code", string(code)))
		},
		LogIn: func() {
			log.Debug("log in requested")
		},
		LogOut: func() {
			log.Debug("log out requested", zap.String("email", email))
		},
	}

	// keep stdout clean for the JSON result
	var screen io.Writer = cmd.OutOrStdout()
	if format == "json" {
		screen = cmd.ErrOrStderr()
	}

	outcome, err := ui.NewPickerRunner(os.Stdin, screen).Run(cmd.Context(), offering, host)
	if err != nil {
		return err
	}

	result := describeOutcome(offering, outcome)
	if format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	w := ui.NewWriter(cmd.OutOrStdout(), cfg.Output.NoColor)
	summary := w.NewOutcomeSummary(outcome)
	summary.Tier = result.Tier
	summary.Price = result.MonthlyPrice
	summary.Billed = result.Billed
	summary.Render()
	return nil
}

// describeOutcome looks up the display details of a chosen plan
func describeOutcome(offering *catalog.Offering, outcome picker.Outcome) pickResult {
	result := pickResult{Outcome: outcome.Kind.String(), PlanCode: outcome.PlanCode}
	if outcome.Kind != picker.PlanChosen {
		return result
	}

	plan := offering.Plans.MustGet(outcome.PlanCode)
	tierCode, cycle, _ := outcome.PlanCode.Split()
	tier, _ := offering.Tier(tierCode)

	result.Tier = tier.Name
	result.MonthlyPrice = plan.Prices.Monthly + " " + tier.Suffix()
	if amount, ok := plan.BilledAmount(cycle); ok {
		period := "month"
		if cycle == types.CycleAnnual {
			period = "year"
		}
		result.Billed = types.FormatPrice(amount, plan.Currency) + " / " + period
	}
	return result
}

// loadOffering reads the catalog named by the flag, the config, or falls
// back to the built-in plans
func loadOffering(path string) (*catalog.Offering, error) {
	cfg := config.Get()
	if path == "" {
		path = cfg.Catalog.Path
	}
	src, err := catalogfile.NewSource(path)
	if err != nil {
		return nil, err
	}
	return src.Current().WithTermsURL(cfg.Picker.TermsURL), nil
}

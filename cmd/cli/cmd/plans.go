// Package cmd - plans commands
package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"plan-picker/adapters/catalogfile"
	"plan-picker/core/catalog"
	"plan-picker/core/picker"
	"plan-picker/core/types"
	"plan-picker/core/ui"
	"plan-picker/internal/config"
)

var (
	listCycle  string
	listFormat string
)

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "Inspect plan catalogs",
}

var plansListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tiers and prices for a billing cycle",
	Long: `List every offered tier with the plan code and monthly price it
resolves to on the given billing cycle.

Examples:
  plan-picker plans list
  plan-picker plans list --cycle annual --catalog plans.yaml`,
	Args: cobra.NoArgs,
	RunE: runPlansList,
}

var plansValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a catalog file",
	Long: `Check that a catalog file parses and that every offered tier has a
monthly and an annual plan with a display price.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlansValidate,
}

func init() {
	rootCmd.AddCommand(plansCmd)
	plansCmd.AddCommand(plansListCmd)
	plansCmd.AddCommand(plansValidateCmd)

	plansCmd.PersistentFlags().StringVarP(&catalogPath, "catalog", "c", "", "catalog file (hcl, yaml or json); built-in plans when empty")
	plansListCmd.Flags().StringVar(&listCycle, "cycle", "monthly", "billing cycle (monthly, annual)")
	plansListCmd.Flags().StringVarP(&listFormat, "format", "f", "", "output format (text, json)")
}

func runPlansList(cmd *cobra.Command, args []string) error {
	cycle, err := types.ParseBillingCycle(listCycle)
	if err != nil {
		return err
	}
	offering, err := loadOffering(catalogPath)
	if err != nil {
		return err
	}

	view, err := previewView(offering, cycle)
	if err != nil {
		return err
	}

	cfg := config.Get()
	format := listFormat
	if format == "" {
		format = cfg.Output.DefaultFormat
	}
	if format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(view.Tiers)
	}

	renderPlanList(ui.NewWriter(cmd.OutOrStdout(), cfg.Output.NoColor), offering, view)
	return nil
}

// renderPlanList prints the price table followed by contact and terms links
func renderPlanList(w *ui.Writer, offering *catalog.Offering, view picker.View) {
	w.Header("Plans, billed " + view.Cycle.Adverb())
	w.PlanTable(view)

	var links []string
	for _, tier := range offering.Tiers {
		if !tier.Purchasable() {
			links = append(links, fmt.Sprintf("%s: %s at %s", tier.Name, strings.ToLower(tier.Action()), tier.ContactURL))
		}
	}
	if offering.TermsURL != "" {
		links = append(links, "Terms of service: "+offering.TermsURL)
	}
	if len(links) == 0 {
		return
	}

	w.Println("")
	w.SubHeader("Links")
	for _, l := range links {
		w.Println("  %s", l)
	}
}

// previewView prices the offering on a cycle through a picker that is never
// shown, so listings use the same derivation as the interactive picker.
func previewView(offering *catalog.Offering, cycle types.BillingCycle) (picker.View, error) {
	selector, err := picker.New(offering.Plans, picker.Host{
		OnPlanPicked: func(types.PlanCode) {},
		LogIn:        func() {},
		LogOut:       func() {},
	})
	if err != nil {
		return picker.View{}, err
	}
	if selector.Cycle() != cycle {
		selector.ToggleCycle()
	}
	return selector.View(offering.Tiers), nil
}

func runPlansValidate(cmd *cobra.Command, args []string) error {
	path := catalogPath
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		path = config.Get().Catalog.Path
	}
	if path == "" {
		return fmt.Errorf("no catalog file given")
	}

	w := ui.NewWriter(cmd.OutOrStdout(), config.Get().Output.NoColor)
	if verbose {
		w.SetVerbosity(2)
	}
	offering, err := catalogfile.LoadFile(path)
	if err != nil {
		w.Error("%s", err)
		return fmt.Errorf("%s is not a valid catalog", path)
	}

	w.Success("%s: %d tiers, %d plans", path, len(offering.Tiers), offering.Plans.Len())
	for _, tier := range offering.Tiers {
		w.Debug("%s (%s)", tier.Name, tier.Code)
	}
	return nil
}

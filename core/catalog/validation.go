// Package catalog - Catalog validation
// Ensures an offering is complete before any picker is built from it.
package catalog

import (
	"fmt"
	"strings"

	"plan-picker/core/types"
)

// ValidationRule is an offering validation rule
type ValidationRule func(*Offering) []error

// DefaultValidationRules returns the standard validation rules
func DefaultValidationRules() []ValidationRule {
	return []ValidationRule{
		validateNotEmpty,
		validatePlanCodes,
		validateDisplayPrices,
		validateTierCoverage,
		validateUniqueTiers,
	}
}

// Validate checks an offering against validation rules
func (o *Offering) Validate(rules []ValidationRule) []error {
	if o.Plans == nil {
		return []error{fmt.Errorf("offering has no plan catalog")}
	}

	var errs []error
	for _, rule := range rules {
		errs = append(errs, rule(o)...)
	}
	return errs
}

// ValidationError collects every problem found in an offering
type ValidationError struct {
	Errors []error
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("catalog has %d validation errors: %s", len(e.Errors), strings.Join(msgs, "; "))
}

// ValidateOffering runs the default rules and returns a *ValidationError
func ValidateOffering(o *Offering) error {
	if errs := o.Validate(DefaultValidationRules()); len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// validateNotEmpty ensures there is something to pick
func validateNotEmpty(o *Offering) []error {
	if len(o.Tiers) == 0 {
		return []error{fmt.Errorf("offering lists no tiers")}
	}
	return nil
}

// validatePlanCodes ensures every code splits into a tier and a known cycle
func validatePlanCodes(o *Offering) []error {
	var errs []error
	for _, code := range o.Plans.Codes() {
		if _, _, ok := code.Split(); !ok {
			errs = append(errs, fmt.Errorf("%s: plan code is not <tier>-monthly or <tier>-annual", code))
		}
	}
	return errs
}

// validateDisplayPrices ensures every plan can be shown with a monthly price
func validateDisplayPrices(o *Offering) []error {
	var errs []error
	for _, plan := range o.Plans.Plans() {
		if strings.TrimSpace(plan.Prices.Monthly) == "" {
			errs = append(errs, fmt.Errorf("%s: missing monthly display price", plan.Code))
		}
	}
	return errs
}

// validateTierCoverage ensures every offered tier has a plan on every cycle
func validateTierCoverage(o *Offering) []error {
	var errs []error
	for _, tier := range o.Tiers {
		for _, cycle := range types.Cycles {
			code := types.NewPlanCode(tier.Code, cycle)
			if !o.Plans.Has(code) {
				errs = append(errs, fmt.Errorf("tier %s: catalog has no %s plan %q", tier.Code, cycle, code))
			}
		}
	}
	return errs
}

// validateUniqueTiers ensures no tier is listed twice
func validateUniqueTiers(o *Offering) []error {
	var errs []error
	seen := make(map[types.TierCode]bool)
	for _, tier := range o.Tiers {
		if tier.Code == "" {
			errs = append(errs, fmt.Errorf("tier %q has no code", tier.Name))
			continue
		}
		if seen[tier.Code] {
			errs = append(errs, fmt.Errorf("tier %s is listed more than once", tier.Code))
		}
		seen[tier.Code] = true
	}
	return errs
}

// MustValidate panics if validation fails
func (o *Offering) MustValidate() {
	if err := ValidateOffering(o); err != nil {
		panic("CATALOG INVALID: " + err.Error())
	}
}

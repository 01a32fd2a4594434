// Package types defines core domain types shared across all layers.
// This package contains NO business logic - only type definitions and
// the deterministic plan code derivation.
package types

import (
	"fmt"
	"strings"
)

// BillingCycle is the cadence at which a tier is billed
type BillingCycle string

const (
	CycleMonthly BillingCycle = "monthly"
	CycleAnnual  BillingCycle = "annual"
)

// Cycles lists every billing cycle in display order
var Cycles = []BillingCycle{CycleMonthly, CycleAnnual}

// String returns the string representation
func (c BillingCycle) String() string {
	return string(c)
}

// IsValid checks if the cycle is known
func (c BillingCycle) IsValid() bool {
	switch c {
	case CycleMonthly, CycleAnnual:
		return true
	default:
		return false
	}
}

// Toggle returns the other billing cycle
func (c BillingCycle) Toggle() BillingCycle {
	if c == CycleAnnual {
		return CycleMonthly
	}
	return CycleAnnual
}

// Adverb is the "paid ..." wording for the cycle
func (c BillingCycle) Adverb() string {
	if c == CycleAnnual {
		return "annually"
	}
	return "monthly"
}

// Months is the number of months billed at once
func (c BillingCycle) Months() int {
	if c == CycleAnnual {
		return 12
	}
	return 1
}

// ParseBillingCycle parses "monthly" or "annual"
func ParseBillingCycle(s string) (BillingCycle, error) {
	c := BillingCycle(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", fmt.Errorf("unknown billing cycle %q (use monthly or annual)", s)
	}
	return c, nil
}

// TierCode identifies a product tier independent of billing cycle
type TierCode string

// String returns the string representation
func (t TierCode) String() string {
	return string(t)
}

// PlanCode identifies a purchasable SKU: a tier billed on a cycle
type PlanCode string

// NoPlan is reported to the host when the picker is cancelled
const NoPlan PlanCode = ""

// planCodeSeparator joins tier and cycle
const planCodeSeparator = "-"

// NewPlanCode derives the plan code for a tier on a cycle
func NewPlanCode(tier TierCode, cycle BillingCycle) PlanCode {
	return PlanCode(string(tier) + planCodeSeparator + string(cycle))
}

// String returns the string representation
func (p PlanCode) String() string {
	return string(p)
}

// Split recovers the tier and cycle. Tier codes may themselves contain the
// separator, so the cycle is taken after the last one.
func (p PlanCode) Split() (TierCode, BillingCycle, bool) {
	i := strings.LastIndex(string(p), planCodeSeparator)
	if i <= 0 {
		return "", "", false
	}
	cycle := BillingCycle(p[i+1:])
	if !cycle.IsValid() {
		return "", "", false
	}
	return TierCode(p[:i]), cycle, true
}

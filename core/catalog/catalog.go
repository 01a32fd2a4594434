// Package catalog - Authoritative plan catalog
// Maps plan codes to purchasable plans. A catalog is built once and never
// mutated afterwards; every picker reads the same snapshot for its lifetime.
package catalog

import (
	"fmt"
	"sort"

	"plan-picker/core/types"
	"plan-picker/internal/errors"
)

// PlanCatalog is an immutable mapping from plan code to plan
type PlanCatalog struct {
	plans map[types.PlanCode]types.Plan
}

// NewPlanCatalog builds a catalog. Plans without a code take the map key;
// a plan whose code disagrees with its key is rejected.
func NewPlanCatalog(plans map[types.PlanCode]types.Plan) (*PlanCatalog, error) {
	c := &PlanCatalog{plans: make(map[types.PlanCode]types.Plan, len(plans))}
	for code, plan := range plans {
		if code == types.NoPlan {
			return nil, errors.Input("plan code must not be empty")
		}
		if plan.Code == "" {
			plan.Code = code
		}
		if plan.Code != code {
			return nil, errors.Newf(errors.TypeInput, "plan keyed %q declares code %q", code, plan.Code)
		}
		c.plans[code] = plan
	}
	return c, nil
}

// FromPlans builds a catalog from a list, rejecting duplicate codes
func FromPlans(plans ...types.Plan) (*PlanCatalog, error) {
	m := make(map[types.PlanCode]types.Plan, len(plans))
	for _, p := range plans {
		if _, dup := m[p.Code]; dup {
			return nil, errors.Newf(errors.TypeInput, "duplicate plan code %q", p.Code)
		}
		m[p.Code] = p
	}
	return NewPlanCatalog(m)
}

// Get returns a plan
func (c *PlanCatalog) Get(code types.PlanCode) (types.Plan, bool) {
	plan, ok := c.plans[code]
	return plan, ok
}

// Lookup returns a plan or a catalog error naming the missing code
func (c *PlanCatalog) Lookup(code types.PlanCode) (types.Plan, error) {
	plan, ok := c.plans[code]
	if !ok {
		return types.Plan{}, errors.MissingPlan(string(code))
	}
	return plan, nil
}

// MustGet returns a plan and panics if the catalog does not contain it.
// A missing plan means the host supplied a catalog that does not cover the
// tiers it offers; there is no price that could safely be shown instead.
func (c *PlanCatalog) MustGet(code types.PlanCode) types.Plan {
	plan, ok := c.plans[code]
	if !ok {
		panic(fmt.Sprintf("CATALOG INCOMPLETE: no plan %q in a catalog of %d plans %v",
			code, len(c.plans), c.Codes()))
	}
	return plan
}

// Has reports whether the catalog contains a plan code
func (c *PlanCatalog) Has(code types.PlanCode) bool {
	_, ok := c.plans[code]
	return ok
}

// Len returns the number of plans
func (c *PlanCatalog) Len() int {
	return len(c.plans)
}

// Codes returns all plan codes, sorted
func (c *PlanCatalog) Codes() []types.PlanCode {
	codes := make([]types.PlanCode, 0, len(c.plans))
	for code := range c.plans {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// Plans returns all plans ordered by code
func (c *PlanCatalog) Plans() []types.Plan {
	codes := c.Codes()
	plans := make([]types.Plan, len(codes))
	for i, code := range codes {
		plans[i] = c.plans[code]
	}
	return plans
}

// Tiers returns the distinct tier codes of well-formed plan codes, sorted
func (c *PlanCatalog) Tiers() []types.TierCode {
	seen := make(map[types.TierCode]bool)
	var tiers []types.TierCode
	for code := range c.plans {
		tier, _, ok := code.Split()
		if !ok || seen[tier] {
			continue
		}
		seen[tier] = true
		tiers = append(tiers, tier)
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i] < tiers[j] })
	return tiers
}

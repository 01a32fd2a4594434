// Package api - API types for picker sessions
package api

import (
	"time"

	"plan-picker/core/picker"
	"plan-picker/core/types"
)

// CreateSessionRequest is the input to POST /sessions
type CreateSessionRequest struct {
	// Email of the signed-in account, if any
	Email string `json:"email,omitempty"`
}

// ChooseRequest is the input to POST /sessions/{id}/choose
type ChooseRequest struct {
	Tier types.TierCode `json:"tier"`
}

// SessionResponse is a session and its current picker view
type SessionResponse struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Decided   bool      `json:"decided"`

	picker.View
}

// PlanListing is one row of GET /plans
type PlanListing struct {
	Tier         types.TierCode `json:"tier"`
	Name         string         `json:"name"`
	PlanCode     types.PlanCode `json:"plan_code"`
	MonthlyPrice string         `json:"monthly_price"`
	Currency     types.Currency `json:"currency"`
	PriceSuffix  string         `json:"price_suffix"`
	Purchasable  bool           `json:"purchasable"`
}

// PlansResponse is the output of GET /plans
type PlansResponse struct {
	Cycle    types.BillingCycle `json:"cycle"`
	Plans    []PlanListing      `json:"plans"`
	TermsURL string             `json:"terms_url,omitempty"`
}

// ErrorBody is the error envelope of every failed request
type ErrorBody struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// ErrorResponse wraps ErrorBody
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

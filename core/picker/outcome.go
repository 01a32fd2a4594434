package picker

import "plan-picker/core/types"

// OutcomeKind identifies a terminal decision
type OutcomeKind int

const (
	// PlanChosen - the user picked a plan
	PlanChosen OutcomeKind = iota + 1
	// Cancelled - the user closed the picker without a plan
	Cancelled
	// LogInRequested - the user asked to log into an existing account
	LogInRequested
	// LogOutRequested - the user asked to log out
	LogOutRequested
)

// String returns string representation
func (k OutcomeKind) String() string {
	switch k {
	case PlanChosen:
		return "plan_chosen"
	case Cancelled:
		return "cancelled"
	case LogInRequested:
		return "log_in_requested"
	case LogOutRequested:
		return "log_out_requested"
	default:
		return "undecided"
	}
}

// Outcome is the single terminal decision of a picker session
type Outcome struct {
	Kind OutcomeKind `json:"kind"`

	// PlanCode is set only for PlanChosen
	PlanCode types.PlanCode `json:"plan_code,omitempty"`
}

// String returns string representation
func (o Outcome) String() string {
	if o.Kind == PlanChosen {
		return o.Kind.String() + ":" + string(o.PlanCode)
	}
	return o.Kind.String()
}

// AccountAction is the account button the picker offers
type AccountAction int

const (
	// ActionLogIn is offered when no account is signed in
	ActionLogIn AccountAction = iota
	// ActionLogOut is offered when an email is known
	ActionLogOut
)

// Label returns the button label
func (a AccountAction) Label() string {
	if a == ActionLogOut {
		return "Log out"
	}
	return "Log into existing account"
}

// String returns string representation
func (a AccountAction) String() string {
	if a == ActionLogOut {
		return "log_out"
	}
	return "log_in"
}

package models

// OverrideState carries the two independent per-card user overrides. Both
// slots hold action ids; an empty string means the slot is unset. The state
// is owned by the surrounding session; the resolver only reads it.
type OverrideState struct {
	Swap    string // persistent swap, survives across executions
	OneTime string // single-use menu selection, consumed after use
}

// Resolution is the result of picking exactly one action for a card.
type Resolution struct {
	Action *Action
	// Explicit reports whether the user chose the action (swap or one-time
	// selection) rather than the backend default. Telemetry only.
	Explicit bool
	// ConsumeOneTime instructs the caller to clear the one-time override
	// slot. The resolver never mutates shared state itself.
	ConsumeOneTime bool
}

// NoAction reports the sentinel resolution returned for an empty suggestion
// list. Callers must not route a no-action resolution.
func (r Resolution) NoAction() bool {
	return r.Action == nil
}

// HandlerStatus is the tri-state result a single-step handler reports.
type HandlerStatus string

const (
	HandlerSuccess        HandlerStatus = "success"
	HandlerNeedsUserInput HandlerStatus = "needs_user_input"
	HandlerCancelled      HandlerStatus = "cancelled"
)

// HandlerOutcome is what a single-step handler returns. On success the
// handler may contribute new context pairs for subsequent compound steps.
type HandlerOutcome struct {
	Status    HandlerStatus
	Additions map[string]string
}

// OutcomeType enumerates the terminal states the router can hand back to
// the surrounding UI layer.
type OutcomeType string

const (
	// OutcomeOpenExternal carries a validated absolute URL to open.
	OutcomeOpenExternal OutcomeType = "open_external"
	// OutcomeHandler means a single in-app handler ran.
	OutcomeHandler OutcomeType = "handler"
	// OutcomeFallback means no concrete handler could be resolved and the
	// generic fallback handler ran instead.
	OutcomeFallback OutcomeType = "fallback"
	// OutcomeLinkError is the terminal, auto-dismissing error state for a
	// GoTo action whose URL is missing or invalid.
	OutcomeLinkError OutcomeType = "link_error"
	// OutcomeCompleted means a compound flow reached its end behavior.
	OutcomeCompleted OutcomeType = "completed"
	// OutcomeAborted means a compound flow stopped before its last step.
	OutcomeAborted OutcomeType = "aborted"
	// OutcomeInFlight means another execution for the same card was already
	// active; the request was ignored without side effects.
	OutcomeInFlight OutcomeType = "in_flight"
)

// ExecutionOutcome is the router's answer for one execution request.
type ExecutionOutcome struct {
	Type     OutcomeType
	ActionID string
	URL      string            // OutcomeOpenExternal
	Handler  HandlerCategory   // OutcomeHandler, OutcomeFallback
	Context  map[string]string // extracted (single handler) or accumulated (compound) context
	Status   HandlerStatus     // OutcomeHandler
	End      EndBehavior       // OutcomeCompleted
	Reason   string            // OutcomeAborted, OutcomeLinkError, OutcomeFallback
}

// Dismissible reports whether the outcome leaves the card eligible to be
// marked handled. Aborted flows and link errors leave the card actionable
// so the user can retry.
func (o ExecutionOutcome) Dismissible() bool {
	switch o.Type {
	case OutcomeHandler:
		return o.Status == HandlerSuccess
	case OutcomeOpenExternal:
		return true
	case OutcomeCompleted:
		return o.End == EndDismissWithSuccess
	default:
		return false
	}
}

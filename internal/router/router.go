// Package router dispatches a resolved action to the correct execution
// path: an external link, a single in-app handler, or a compound flow.
// Every failure to resolve a concrete handler degrades to the generic
// fallback handler; the one user-visible error is an unusable GoTo link.
package router

import (
	"context"
	"sync"
	"time"

	"github.com/zeroinbox/cardactions/internal/extract"
	"github.com/zeroinbox/cardactions/internal/flow"
	"github.com/zeroinbox/cardactions/internal/interfaces"
	"github.com/zeroinbox/cardactions/internal/log"
	"github.com/zeroinbox/cardactions/pkg/models"
)

// DefaultDismissDelay is how long the terminal link-error state stays on
// screen before it dismisses itself.
const DefaultDismissDelay = 4 * time.Second

// ReasonBadLink is the single reason reported for a GoTo action whose URL
// is absent or fails validation.
const ReasonBadLink = "missing_or_invalid_url"

// urlAliases is the ordered alias list for the canonical "url" context key.
// Upstream actions are inconsistent about which one they set.
var urlAliases = []string{
	"trackingUrl",
	"deliveryUrl",
	"checkInUrl",
	"unsubscribeUrl",
	"manageUrl",
	"receiptUrl",
	"link",
}

// Router routes resolved actions. Safe for concurrent use across cards;
// concurrent requests for the same card are ignored while one is active.
type Router struct {
	catalog      interfaces.Catalog
	handlers     interfaces.HandlerSource
	emitter      interfaces.Emitter
	dismissDelay time.Duration
	onDismiss    func(cardID string)

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewRouter creates a router over a catalog and a handler registry.
func NewRouter(cat interfaces.Catalog, handlers interfaces.HandlerSource, emitter interfaces.Emitter) *Router {
	return &Router{
		catalog:      cat,
		handlers:     handlers,
		emitter:      emitter,
		dismissDelay: DefaultDismissDelay,
		inflight:     make(map[string]struct{}),
	}
}

// SetDismissDelay overrides the link-error auto-dismiss delay.
func (r *Router) SetDismissDelay(d time.Duration) {
	r.dismissDelay = d
}

// SetDismissFunc installs the callback invoked when the link-error state
// auto-dismisses. The callback runs on a timer goroutine.
func (r *Router) SetDismissFunc(f func(cardID string)) {
	r.onDismiss = f
}

// Execute dispatches the resolved action for a card and returns the
// terminal outcome the UI layer should render.
func (r *Router) Execute(ctx context.Context, card *models.Card, res models.Resolution) models.ExecutionOutcome {
	if card == nil || res.NoAction() {
		// Caller precondition violation; absorb it rather than crash.
		log.Warn("router: execute called without a resolved action")
		return models.ExecutionOutcome{Type: models.OutcomeFallback, Handler: models.HandlerFallback, Reason: "no_action"}
	}
	action := res.Action

	if !r.begin(card.ID) {
		log.Debugf("router: card %s already executing, ignoring request for %s", card.ID, action.ID)
		return models.ExecutionOutcome{Type: models.OutcomeInFlight, ActionID: action.ID}
	}
	defer r.end(card.ID)

	start := time.Now()
	var out models.ExecutionOutcome
	if action.Kind == models.KindGoTo {
		out = r.openExternal(card, action)
	} else {
		out = r.inApp(ctx, card, action)
	}
	out.ActionID = action.ID
	r.emitter.ExecutionFinished(card.ID, action.ID, out.Type, time.Since(start))
	return out
}

// openExternal validates the action's URL and either hands it to the
// external-link surface or enters the auto-dismissing error state. There is
// no silent fallback for "I cannot open a link".
func (r *Router) openExternal(card *models.Card, action *models.Action) models.ExecutionOutcome {
	raw, ok := extract.Value(action.Context, "url", urlAliases...)
	if !ok {
		log.Errorf("router: action %s on card %s has no url key or alias", action.ID, card.ID)
		return r.linkError(card, action)
	}
	u, err := extract.ValidateURL(raw)
	if err != nil {
		log.Errorf("router: action %s on card %s: %v", action.ID, card.ID, err)
		return r.linkError(card, action)
	}
	return models.ExecutionOutcome{Type: models.OutcomeOpenExternal, URL: u.String()}
}

func (r *Router) linkError(card *models.Card, action *models.Action) models.ExecutionOutcome {
	r.emitter.LinkRejected(card.ID, action.ID)
	if r.onDismiss != nil {
		cardID := card.ID
		time.AfterFunc(r.dismissDelay, func() { r.onDismiss(cardID) })
	}
	return models.ExecutionOutcome{Type: models.OutcomeLinkError, Reason: ReasonBadLink}
}

// inApp resolves the action against the catalog and dispatches either to a
// compound flow or a single handler.
func (r *Router) inApp(ctx context.Context, card *models.Card, action *models.Action) models.ExecutionOutcome {
	entry, known := r.catalog.Lookup(action.ID)

	if action.IsCompound() || (known && entry.Compound) {
		return r.compound(ctx, card, action)
	}

	if !known || entry.Handler == "" {
		return r.fallback(ctx, card, action, "unmapped_action", action.Context)
	}
	handler, ok := r.handlers.Handler(entry.Handler)
	if !ok {
		return r.fallback(ctx, card, action, "unmapped_handler", action.Context)
	}

	specs := make([]extract.RequiredSpec, len(entry.Required))
	for i, req := range entry.Required {
		specs[i] = extract.RequiredSpec{Key: req.Key, Aliases: req.Aliases}
	}
	extracted, missing := extract.Required(action.Context, specs, entry.Optional)
	if missing != "" {
		log.Warnf("router: action %s on card %s missing required key %s", action.ID, card.ID, missing)
		return r.fallback(ctx, card, action, "missing_context", action.Context)
	}

	outcome, err := handler.Invoke(ctx, card, extracted)
	if err != nil {
		log.Warnf("router: action %s handler error: %v", action.ID, err)
		return r.fallback(ctx, card, action, "handler_error", action.Context)
	}
	return models.ExecutionOutcome{
		Type:    models.OutcomeHandler,
		Handler: entry.Handler,
		Context: extracted,
		Status:  outcome.Status,
	}
}

// compound runs the action's step list through the flow engine. Step ids
// come from the action when it carries them, otherwise from the compound
// definition; the end behavior always comes from the definition.
func (r *Router) compound(ctx context.Context, card *models.Card, action *models.Action) models.ExecutionOutcome {
	steps := action.Steps
	end := models.EndReturnToHost
	if def, ok := r.catalog.Compound(action.ID); ok {
		if len(steps) == 0 {
			steps = def.Steps
		}
		end = def.End
	}

	eng, err := flow.New(action.ID, steps, end, r.catalog, r.handlers)
	if err != nil {
		log.Warnf("router: compound %s rejected: %v", action.ID, err)
		return r.fallback(ctx, card, action, "invalid_compound", action.Context)
	}

	state, err := eng.Run(ctx, card, action.Context)
	if err != nil {
		return r.fallback(ctx, card, action, "flow_error", eng.Context())
	}

	switch state.Phase {
	case flow.PhaseCompleted:
		return models.ExecutionOutcome{
			Type:    models.OutcomeCompleted,
			End:     state.End,
			Context: eng.Context(),
		}
	default: // aborted
		if state.Reason == flow.ReasonUserCancelled {
			// No retry, no fallback; the card stays un-dismissed so the
			// user can start over from step 0.
			return models.ExecutionOutcome{Type: models.OutcomeAborted, Reason: state.Reason}
		}
		return r.fallback(ctx, card, action, state.Reason, eng.Context())
	}
}

// fallback invokes the generic fallback handler and emits exactly one
// warning event. Fallbacks are a recovery, not an error: the card must
// always remain actionable.
func (r *Router) fallback(ctx context.Context, card *models.Card, action *models.Action, reason string, handoff map[string]string) models.ExecutionOutcome {
	log.Warnf("router: falling back for action %s on card %s: %s", action.ID, card.ID, reason)
	r.emitter.FallbackUsed(card.ID, action.ID, reason)

	if _, err := r.handlers.Fallback().Invoke(ctx, card, handoff); err != nil {
		log.Errorf("router: fallback handler failed for card %s: %v", card.ID, err)
	}
	return models.ExecutionOutcome{
		Type:    models.OutcomeFallback,
		Handler: models.HandlerFallback,
		Context: handoff,
		Reason:  reason,
	}
}

func (r *Router) begin(cardID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, active := r.inflight[cardID]; active {
		return false
	}
	r.inflight[cardID] = struct{}{}
	return true
}

func (r *Router) end(cardID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inflight, cardID)
}

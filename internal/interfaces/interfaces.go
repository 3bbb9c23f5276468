package interfaces

import (
	"context"
	"time"

	"github.com/zeroinbox/cardactions/pkg/models"
)

// Handler executes one single-step in-app action. The ~40 concrete handlers
// live in the UI layer and satisfy this contract; the engine only needs
// their category key and outcome shape. A handler may kick off its own
// asynchronous work, but Invoke itself returns once the handoff is done.
type Handler interface {
	// Invoke runs the handler for a card with the extracted context.
	Invoke(ctx context.Context, card *models.Card, extracted map[string]string) (models.HandlerOutcome, error)
}

// HandlerSource resolves handler categories to registered handlers.
type HandlerSource interface {
	// Handler returns the handler for a category, if one is registered.
	Handler(category models.HandlerCategory) (Handler, bool)
	// Fallback returns the always-available generic fallback handler.
	Fallback() Handler
}

// Catalog is the read-only action catalog, loaded once at session start.
type Catalog interface {
	// Lookup returns the entry for an action id. Unknown ids are a valid,
	// expected outcome and must route to the fallback handler.
	Lookup(actionID string) (*models.CatalogEntry, bool)
	// Compound returns the compound definition for an action id.
	Compound(actionID string) (*models.CompoundDefinition, bool)
}

// OverrideStore holds the per-card user overrides read by the resolver.
type OverrideStore interface {
	// Get retrieves both override slots for a card. A missing entry is not
	// an error; it yields a zero OverrideState.
	Get(cardID string) (models.OverrideState, error)
	// SetSwap records a persistent swap for a card.
	SetSwap(cardID, actionID string) error
	// ClearSwap removes a card's persistent swap.
	ClearSwap(cardID string) error
	// SetOneTime records a single-use selection for a card.
	SetOneTime(cardID, actionID string) error
	// ConsumeOneTime clears a card's one-time selection after use.
	ConsumeOneTime(cardID string) error
}

// Emitter receives telemetry events. Implementations must never block the
// caller; delivery is best-effort.
type Emitter interface {
	// ResolutionChosen records which action won resolution for a card and
	// whether the user chose it explicitly.
	ResolutionChosen(cardID, actionID string, explicit bool)
	// FallbackUsed records a router fallback (unmapped id, missing context)
	// as a warning-level event.
	FallbackUsed(cardID, actionID, reason string)
	// LinkRejected records a GoTo action whose URL failed validation.
	LinkRejected(cardID, actionID string)
	// ExecutionFinished records the terminal outcome of one execution.
	ExecutionFinished(cardID, actionID string, outcome models.OutcomeType, d time.Duration)
}

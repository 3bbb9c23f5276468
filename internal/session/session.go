// Package session is the embedding surface for the host application. A
// session owns the override store, the router, and telemetry for one app
// run, and exposes the single entry point the UI layer calls when the user
// taps a card's primary button.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/zeroinbox/cardactions/internal/interfaces"
	"github.com/zeroinbox/cardactions/internal/log"
	"github.com/zeroinbox/cardactions/internal/resolve"
	"github.com/zeroinbox/cardactions/internal/router"
	"github.com/zeroinbox/cardactions/pkg/models"
)

// ErrNoActions is returned when a card carries no suggested actions at all.
var ErrNoActions = errors.New("card has no suggested actions")

// Session binds resolution, overrides, and execution for one app run.
type Session struct {
	id        string
	overrides interfaces.OverrideStore
	router    *router.Router
	emitter   interfaces.Emitter
}

// New creates a session with a fresh random id.
func New(overrides interfaces.OverrideStore, rt *router.Router, emitter interfaces.Emitter) *Session {
	return &Session{
		id:        uuid.NewString(),
		overrides: overrides,
		router:    rt,
		emitter:   emitter,
	}
}

// ID returns the session's random identifier.
func (s *Session) ID() string {
	return s.id
}

// Act resolves and executes the winning action for a card. On a dismissible
// outcome the card is marked handled in place.
func (s *Session) Act(ctx context.Context, card *models.Card) (models.ExecutionOutcome, error) {
	if card == nil {
		return models.ExecutionOutcome{}, fmt.Errorf("nil card")
	}

	state, err := s.overrides.Get(card.ID)
	if err != nil {
		// A broken override store must not make the card dead; resolve with
		// zero overrides instead.
		log.Warnf("session: override lookup failed for card %s: %v", card.ID, err)
		state = models.OverrideState{}
	}

	res := resolve.Resolve(card, state)
	if res.NoAction() {
		return models.ExecutionOutcome{}, ErrNoActions
	}

	out := s.router.Execute(ctx, card, res)
	if out.Type == models.OutcomeInFlight {
		// The router ignored the request; the ignored request must leave
		// override state untouched, so the one-time slot stays queued for
		// the next execution.
		return out, nil
	}
	if res.ConsumeOneTime {
		if err := s.overrides.ConsumeOneTime(card.ID); err != nil {
			log.Warnf("session: failed to consume one-time selection for card %s: %v", card.ID, err)
		}
	}
	s.emitter.ResolutionChosen(card.ID, res.Action.ID, res.Explicit)

	if out.Dismissible() {
		card.Handled = true
	}
	return out, nil
}

// PreferAction records a persistent swap: from now on the given action wins
// resolution for the card.
func (s *Session) PreferAction(cardID, actionID string) error {
	return s.overrides.SetSwap(cardID, actionID)
}

// ClearPreference removes a card's persistent swap.
func (s *Session) ClearPreference(cardID string) error {
	return s.overrides.ClearSwap(cardID)
}

// ChooseOnce records a single-use selection from the full action menu. It
// wins the next resolution only.
func (s *Session) ChooseOnce(cardID, actionID string) error {
	return s.overrides.SetOneTime(cardID, actionID)
}

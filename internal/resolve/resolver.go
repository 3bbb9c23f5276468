// Package resolve decides which single suggested action wins for a card.
// Resolution is a pure lookup: it reads the card and the override state and
// returns a value; consuming the one-time slot is the caller's job.
package resolve

import "github.com/zeroinbox/cardactions/pkg/models"

// Resolve picks exactly one action from the card's suggestion list.
//
// Order, first match wins:
//  1. persistent swap naming a present action id
//  2. one-time selection naming a present action id (caller must consume)
//  3. first action flagged primary
//  4. first action in list order
//
// An empty suggestion list is a caller precondition violation; it yields the
// no-action sentinel rather than a panic. Overrides naming ids absent from
// the list are ignored, not errors: the suggestion set may have changed
// since the override was recorded.
func Resolve(card *models.Card, overrides models.OverrideState) models.Resolution {
	if card == nil || len(card.Actions) == 0 {
		return models.Resolution{}
	}

	if overrides.Swap != "" {
		if a := card.ActionByID(overrides.Swap); a != nil {
			return models.Resolution{Action: a, Explicit: true}
		}
	}

	if overrides.OneTime != "" {
		if a := card.ActionByID(overrides.OneTime); a != nil {
			return models.Resolution{Action: a, Explicit: true, ConsumeOneTime: true}
		}
	}

	// More than one primary is tolerated; list order breaks the tie. The
	// upstream contract says at most one, but the data has been seen to
	// violate it.
	for i := range card.Actions {
		if card.Actions[i].Primary {
			return models.Resolution{Action: &card.Actions[i]}
		}
	}

	return models.Resolution{Action: &card.Actions[0]}
}

// Package overrides is the session-scoped store for per-card user
// overrides. Persistent swaps survive across executions and live in the
// session database; one-time selections are memory-only and vanish with the
// session, which is exactly their lifetime.
package overrides

import (
	"sync"

	"github.com/zeroinbox/cardactions/internal/db"
	"github.com/zeroinbox/cardactions/internal/interfaces"
	"github.com/zeroinbox/cardactions/pkg/models"
)

// Store implements interfaces.OverrideStore over the session database.
type Store struct {
	db *db.DB

	mu       sync.Mutex
	oneTimes map[string]string
}

var _ interfaces.OverrideStore = (*Store)(nil)

// NewStore creates an override store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{
		db:       database,
		oneTimes: make(map[string]string),
	}
}

// Get returns both override slots for a card. Cards with no overrides yield
// a zero state.
func (s *Store) Get(cardID string) (models.OverrideState, error) {
	swap, err := s.db.GetSwap(cardID)
	if err != nil {
		return models.OverrideState{}, err
	}
	s.mu.Lock()
	oneTime := s.oneTimes[cardID]
	s.mu.Unlock()
	return models.OverrideState{Swap: swap, OneTime: oneTime}, nil
}

// SetSwap records a persistent swap for a card.
func (s *Store) SetSwap(cardID, actionID string) error {
	return s.db.SetSwap(cardID, actionID)
}

// ClearSwap removes a card's persistent swap.
func (s *Store) ClearSwap(cardID string) error {
	return s.db.ClearSwap(cardID)
}

// SetOneTime records a single-use selection for a card, replacing any
// pending one.
func (s *Store) SetOneTime(cardID, actionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.oneTimes[cardID] = actionID
	return nil
}

// ConsumeOneTime clears a card's one-time selection. Consuming an absent
// selection is a no-op.
func (s *Store) ConsumeOneTime(cardID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.oneTimes, cardID)
	return nil
}

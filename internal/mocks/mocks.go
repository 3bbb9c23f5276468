// Package mocks provides hand-rolled test doubles for the engine's
// collaborator interfaces. Each mock runs a default behavior unless the
// corresponding Func field is set.
package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/zeroinbox/cardactions/internal/interfaces"
	"github.com/zeroinbox/cardactions/pkg/models"
)

// MockHandler is a configurable Handler for testing.
type MockHandler struct {
	InvokeFunc func(ctx context.Context, card *models.Card, extracted map[string]string) (models.HandlerOutcome, error)

	mu        sync.Mutex
	calls     int
	lastInput map[string]string
}

func (m *MockHandler) Invoke(ctx context.Context, card *models.Card, extracted map[string]string) (models.HandlerOutcome, error) {
	m.mu.Lock()
	m.calls++
	m.lastInput = extracted
	m.mu.Unlock()

	if m.InvokeFunc != nil {
		return m.InvokeFunc(ctx, card, extracted)
	}
	return models.HandlerOutcome{Status: models.HandlerSuccess}, nil
}

// Calls returns how many times Invoke ran.
func (m *MockHandler) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastInput returns the extracted context passed to the latest Invoke.
func (m *MockHandler) LastInput() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastInput
}

var _ interfaces.Handler = (*MockHandler)(nil)

// MockOverrideStore is an in-memory OverrideStore.
type MockOverrideStore struct {
	GetFunc func(cardID string) (models.OverrideState, error)

	mu       sync.Mutex
	swaps    map[string]string
	oneTimes map[string]string
}

// NewMockOverrideStore creates an empty in-memory override store.
func NewMockOverrideStore() *MockOverrideStore {
	return &MockOverrideStore{
		swaps:    make(map[string]string),
		oneTimes: make(map[string]string),
	}
}

func (m *MockOverrideStore) Get(cardID string) (models.OverrideState, error) {
	if m.GetFunc != nil {
		return m.GetFunc(cardID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return models.OverrideState{Swap: m.swaps[cardID], OneTime: m.oneTimes[cardID]}, nil
}

func (m *MockOverrideStore) SetSwap(cardID, actionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.swaps[cardID] = actionID
	return nil
}

func (m *MockOverrideStore) ClearSwap(cardID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.swaps, cardID)
	return nil
}

func (m *MockOverrideStore) SetOneTime(cardID, actionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.oneTimes[cardID] = actionID
	return nil
}

func (m *MockOverrideStore) ConsumeOneTime(cardID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.oneTimes, cardID)
	return nil
}

var _ interfaces.OverrideStore = (*MockOverrideStore)(nil)

// ResolutionEvent is one recorded ResolutionChosen call.
type ResolutionEvent struct {
	CardID   string
	ActionID string
	Explicit bool
}

// FallbackEvent is one recorded FallbackUsed call.
type FallbackEvent struct {
	CardID   string
	ActionID string
	Reason   string
}

// ExecutionEvent is one recorded ExecutionFinished call.
type ExecutionEvent struct {
	CardID   string
	ActionID string
	Outcome  models.OutcomeType
	Duration time.Duration
}

// MockEmitter records telemetry events for assertions.
type MockEmitter struct {
	mu          sync.Mutex
	Resolutions []ResolutionEvent
	Fallbacks   []FallbackEvent
	LinkErrors  []string // card ids
	Executions  []ExecutionEvent
}

func (m *MockEmitter) ResolutionChosen(cardID, actionID string, explicit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Resolutions = append(m.Resolutions, ResolutionEvent{CardID: cardID, ActionID: actionID, Explicit: explicit})
}

func (m *MockEmitter) FallbackUsed(cardID, actionID, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Fallbacks = append(m.Fallbacks, FallbackEvent{CardID: cardID, ActionID: actionID, Reason: reason})
}

func (m *MockEmitter) LinkRejected(cardID, actionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LinkErrors = append(m.LinkErrors, cardID)
}

func (m *MockEmitter) ExecutionFinished(cardID, actionID string, outcome models.OutcomeType, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Executions = append(m.Executions, ExecutionEvent{CardID: cardID, ActionID: actionID, Outcome: outcome, Duration: d})
}

// FallbackCount returns the number of recorded fallback warnings.
func (m *MockEmitter) FallbackCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Fallbacks)
}

var _ interfaces.Emitter = (*MockEmitter)(nil)

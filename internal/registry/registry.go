// Package registry maps the closed set of handler categories to the
// concrete handlers the surrounding application registers at startup. The
// generic fallback handler is always present, so resolution of a category
// can degrade but never fail.
package registry

import (
	"context"
	"sync"

	"github.com/zeroinbox/cardactions/internal/interfaces"
	"github.com/zeroinbox/cardactions/pkg/models"
)

// Registry is a concurrency-safe category -> handler table.
type Registry struct {
	mu       sync.RWMutex
	handlers map[models.HandlerCategory]interfaces.Handler
	fallback interfaces.Handler
}

var _ interfaces.HandlerSource = (*Registry)(nil)

// New creates a registry with the generic fallback handler pre-registered.
func New() *Registry {
	return &Registry{
		handlers: make(map[models.HandlerCategory]interfaces.Handler),
		fallback: FallbackHandler{},
	}
}

// Register installs a handler for a category, replacing any previous one.
// Registering the fallback category replaces the generic fallback itself.
func (r *Registry) Register(category models.HandlerCategory, h interfaces.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if category == models.HandlerFallback {
		r.fallback = h
		return
	}
	r.handlers[category] = h
}

// Handler returns the handler for a category, if registered.
func (r *Registry) Handler(category models.HandlerCategory) (interfaces.Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[category]
	return h, ok
}

// Fallback returns the always-available generic fallback handler.
func (r *Registry) Fallback() interfaces.Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fallback
}

// FallbackHandler is the built-in generic handler of last resort. In the
// full application it opens a plain composer pre-filled from whatever
// context is available; here it simply reports success so the card stays
// actionable.
type FallbackHandler struct{}

// Invoke implements interfaces.Handler.
func (FallbackHandler) Invoke(ctx context.Context, card *models.Card, extracted map[string]string) (models.HandlerOutcome, error) {
	return models.HandlerOutcome{Status: models.HandlerSuccess}, nil
}

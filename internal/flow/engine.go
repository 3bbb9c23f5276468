// Package flow runs a compound action's ordered step list as a linear state
// machine, threading an accumulating context between steps.
package flow

import (
	"context"
	"errors"
	"fmt"

	"github.com/zeroinbox/cardactions/internal/extract"
	"github.com/zeroinbox/cardactions/internal/interfaces"
	"github.com/zeroinbox/cardactions/internal/log"
	"github.com/zeroinbox/cardactions/pkg/models"
)

// Phase is the engine's coarse state.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseStepRunning Phase = "step_running"
	PhaseCompleted   Phase = "completed"
	PhaseAborted     Phase = "aborted"
)

// Abort reasons. missing_input and user_cancelled are the two the UI layer
// distinguishes; the rest degrade to the generic fallback the same way
// missing_input does.
const (
	ReasonMissingInput  = "missing_input"
	ReasonUserCancelled = "user_cancelled"
	ReasonUnmappedStep  = "unmapped_step"
	ReasonStepFailed    = "step_failed"
)

// ErrNotRunning is returned by Step outside of StepRunning.
var ErrNotRunning = errors.New("flow engine is not running")

// State is the externally visible snapshot of the machine:
// Idle -> StepRunning(i) -> ... -> Completed(end) | Aborted(reason).
type State struct {
	Phase  Phase
	Step   int                // index of the current step while running
	End    models.EndBehavior // set once completed
	Reason string             // set once aborted
}

// Terminal reports whether the machine can advance no further.
func (s State) Terminal() bool {
	return s.Phase == PhaseCompleted || s.Phase == PhaseAborted
}

// Engine executes one compound definition. It is not safe for concurrent
// use; the router serializes executions per card.
type Engine struct {
	actionID string
	steps    []string
	end      models.EndBehavior
	catalog  interfaces.Catalog
	handlers interfaces.HandlerSource
	state    State
	acc      map[string]string
}

// New validates the step list against the catalog and returns an idle
// engine. Steps that are unknown to the catalog or themselves compound are
// rejected up front: the no-nesting invariant belongs to the definition,
// not to runtime.
func New(actionID string, steps []string, end models.EndBehavior, cat interfaces.Catalog, handlers interfaces.HandlerSource) (*Engine, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("compound action %s has no steps", actionID)
	}
	for _, stepID := range steps {
		entry, ok := cat.Lookup(stepID)
		if !ok {
			return nil, fmt.Errorf("compound action %s: step %s not in catalog", actionID, stepID)
		}
		if entry.Compound {
			return nil, fmt.Errorf("compound action %s: step %s is itself compound", actionID, stepID)
		}
	}
	return &Engine{
		actionID: actionID,
		steps:    steps,
		end:      end,
		catalog:  cat,
		handlers: handlers,
		state:    State{Phase: PhaseIdle},
	}, nil
}

// Start moves the engine to StepRunning(0) with a fresh copy of the initial
// context. Re-entry after an abort always restarts here; there is no
// partial-progress resume, so stale context from an abandoned flow can
// never leak into a later one.
func (e *Engine) Start(initial map[string]string) {
	e.acc = make(map[string]string, len(initial))
	for k, v := range initial {
		e.acc[k] = v
	}
	e.state = State{Phase: PhaseStepRunning, Step: 0}
}

// State returns the current state snapshot.
func (e *Engine) State() State {
	return e.state
}

// Context returns a copy of the accumulated context, used to pre-fill the
// fallback composer on completion.
func (e *Engine) Context() map[string]string {
	out := make(map[string]string, len(e.acc))
	for k, v := range e.acc {
		out[k] = v
	}
	return out
}

// Cancel records a user dismissal. It is the only cancellation signal; there
// is no timeout-based cancellation for steps.
func (e *Engine) Cancel() {
	if e.state.Phase == PhaseStepRunning {
		e.abort(ReasonUserCancelled)
	}
}

// Step invokes the current step's handler once and advances the machine.
// A successful step merges its context additions before the next step runs;
// the last successful step moves the engine to Completed(end).
func (e *Engine) Step(ctx context.Context, card *models.Card) (State, error) {
	if e.state.Phase != PhaseStepRunning {
		return e.state, ErrNotRunning
	}
	if ctx.Err() != nil {
		e.abort(ReasonUserCancelled)
		return e.state, nil
	}

	stepID := e.steps[e.state.Step]
	entry, ok := e.catalog.Lookup(stepID)
	if !ok {
		// Unreachable when built through New, which validates steps.
		e.abort(ReasonUnmappedStep)
		return e.state, nil
	}
	handler, ok := e.handlers.Handler(entry.Handler)
	if !ok {
		e.abort(ReasonUnmappedStep)
		return e.state, nil
	}

	stepCtx, missing := e.stepContext(entry)
	if missing != "" {
		log.Debugf("flow %s: step %s missing required key %s", e.actionID, stepID, missing)
		e.abort(ReasonMissingInput)
		return e.state, nil
	}

	outcome, err := handler.Invoke(ctx, card, stepCtx)
	if err != nil {
		log.Warnf("flow %s: step %s handler error: %v", e.actionID, stepID, err)
		e.abort(ReasonStepFailed)
		return e.state, nil
	}

	switch outcome.Status {
	case models.HandlerSuccess:
		for k, v := range outcome.Additions {
			e.acc[k] = v
		}
		if e.state.Step+1 >= len(e.steps) {
			e.state = State{Phase: PhaseCompleted, Step: e.state.Step, End: e.end}
		} else {
			e.state = State{Phase: PhaseStepRunning, Step: e.state.Step + 1}
		}
	case models.HandlerNeedsUserInput:
		e.abort(ReasonMissingInput)
	case models.HandlerCancelled:
		e.abort(ReasonUserCancelled)
	default:
		e.abort(ReasonStepFailed)
	}
	return e.state, nil
}

// Run drives the machine from Start to a terminal state.
func (e *Engine) Run(ctx context.Context, card *models.Card, initial map[string]string) (State, error) {
	e.Start(initial)
	for !e.state.Terminal() {
		if _, err := e.Step(ctx, card); err != nil {
			return e.state, err
		}
	}
	return e.state, nil
}

// stepContext builds the handler input: the accumulated context with the
// step's required keys resolved through their aliases. The first
// unsatisfiable required key is returned instead.
func (e *Engine) stepContext(entry *models.CatalogEntry) (map[string]string, string) {
	out := make(map[string]string, len(e.acc))
	for k, v := range e.acc {
		out[k] = v
	}
	for _, req := range entry.Required {
		v, ok := extract.Value(e.acc, req.Key, req.Aliases...)
		if !ok {
			return nil, req.Key
		}
		out[req.Key] = v
	}
	return out, ""
}

func (e *Engine) abort(reason string) {
	e.state = State{Phase: PhaseAborted, Step: e.state.Step, Reason: reason}
}

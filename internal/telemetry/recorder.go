// Package telemetry records resolution and execution events without ever
// blocking the caller. Events flow through a buffered channel to a single
// writer goroutine; when the buffer is full, events are dropped.
package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zeroinbox/cardactions/internal/db"
	"github.com/zeroinbox/cardactions/internal/interfaces"
	"github.com/zeroinbox/cardactions/internal/log"
	"github.com/zeroinbox/cardactions/pkg/models"
)

// Event kinds.
const (
	KindResolution = "resolution"
	KindFallback   = "fallback"
	KindLinkError  = "link_error"
	KindExecution  = "execution"
)

// Event is one telemetry record.
type Event struct {
	Time       time.Time `json:"ts"`
	Kind       string    `json:"kind"`
	SessionID  string    `json:"session_id,omitempty"`
	CardID     string    `json:"card_id"`
	ActionID   string    `json:"action_id,omitempty"`
	Explicit   bool      `json:"explicit,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	Outcome    string    `json:"outcome,omitempty"`
	DurationMs int64     `json:"duration_ms,omitempty"`
}

// Sink persists events. Sinks run on the writer goroutine only.
type Sink interface {
	Write(Event) error
}

// FileSink appends events as JSONL, one object per line.
type FileSink struct {
	Path string
}

// Write implements Sink.
func (s FileSink) Write(ev Event) error {
	f, err := os.OpenFile(s.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open telemetry log: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	return nil
}

// DBSink inserts events into the session database's events table.
type DBSink struct {
	DB *db.DB
}

// Write implements Sink.
func (s DBSink) Write(ev Event) error {
	return s.DB.InsertEvent(ev.SessionID, ev.CardID, ev.ActionID, ev.Kind, ev.Explicit, ev.Outcome, ev.Reason, ev.DurationMs)
}

// Recorder implements interfaces.Emitter over a set of sinks.
type Recorder struct {
	sessionID string
	ch        chan Event
	done      chan struct{}
	dropped   atomic.Int64

	mu     sync.RWMutex
	closed bool
}

var _ interfaces.Emitter = (*Recorder)(nil)

// NewRecorder starts a recorder with the given channel buffer size.
func NewRecorder(sessionID string, buffer int, sinks ...Sink) *Recorder {
	if buffer <= 0 {
		buffer = 64
	}
	r := &Recorder{
		sessionID: sessionID,
		ch:        make(chan Event, buffer),
		done:      make(chan struct{}),
	}
	go func() {
		defer close(r.done)
		for ev := range r.ch {
			for _, sink := range sinks {
				if err := sink.Write(ev); err != nil {
					log.Debugf("telemetry: sink write failed: %v", err)
				}
			}
		}
	}()
	return r
}

// Close stops accepting events, flushes the buffer, and waits for the
// writer to finish. Events emitted after Close are counted as dropped;
// calling Close again is a no-op.
func (r *Recorder) Close() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.ch)
	}
	r.mu.Unlock()
	<-r.done
}

// Dropped returns how many events were discarded because the buffer was
// full.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

func (r *Recorder) emit(ev Event) {
	ev.Time = time.Now()
	ev.SessionID = r.sessionID
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.dropped.Add(1)
		return
	}
	select {
	case r.ch <- ev:
	default:
		r.dropped.Add(1)
	}
}

// ResolutionChosen implements interfaces.Emitter.
func (r *Recorder) ResolutionChosen(cardID, actionID string, explicit bool) {
	r.emit(Event{Kind: KindResolution, CardID: cardID, ActionID: actionID, Explicit: explicit})
}

// FallbackUsed implements interfaces.Emitter.
func (r *Recorder) FallbackUsed(cardID, actionID, reason string) {
	r.emit(Event{Kind: KindFallback, CardID: cardID, ActionID: actionID, Reason: reason})
}

// LinkRejected implements interfaces.Emitter.
func (r *Recorder) LinkRejected(cardID, actionID string) {
	r.emit(Event{Kind: KindLinkError, CardID: cardID, ActionID: actionID})
}

// ExecutionFinished implements interfaces.Emitter.
func (r *Recorder) ExecutionFinished(cardID, actionID string, outcome models.OutcomeType, d time.Duration) {
	r.emit(Event{Kind: KindExecution, CardID: cardID, ActionID: actionID, Outcome: string(outcome), DurationMs: d.Milliseconds()})
}

// Nop is the emitter used when telemetry is disabled.
type Nop struct{}

var _ interfaces.Emitter = Nop{}

func (Nop) ResolutionChosen(cardID, actionID string, explicit bool) {}
func (Nop) FallbackUsed(cardID, actionID, reason string)            {}
func (Nop) LinkRejected(cardID, actionID string)                    {}
func (Nop) ExecutionFinished(cardID, actionID string, outcome models.OutcomeType, d time.Duration) {
}

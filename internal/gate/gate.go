// Package gate implements the confirmation gate that every state-mutating
// workbench action passes through: the operator sees a plain-language summary
// and must explicitly confirm before the commit is dispatched.
package gate

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrBusy is returned when a confirmation is already pending. Only one
	// confirmation may be open per gate, which serializes commits and keeps a
	// double-click from confirming two destructive actions at once.
	ErrBusy = errors.New("another confirmation is pending")

	// ErrNoMatch is returned when the confirmation ID does not match the
	// pending one (stale, cancelled, or already executed).
	ErrNoMatch = errors.New("no matching pending confirmation")

	// ErrInFlight is returned when the pending commit is already executing.
	ErrInFlight = errors.New("commit already in flight")
)

// Action performs the actual commit once the operator has confirmed.
type Action func(ctx context.Context) error

type pending struct {
	id       uuid.UUID
	summary  string
	action   Action
	inFlight bool
}

// Gate is a two-state machine: Idle, or Pending a single confirmation. The
// gate stays open while the underlying commit is in flight and rejects a
// second Confirm during that window, so a slow upstream can never cause a
// duplicate submission.
type Gate struct {
	mu      sync.Mutex
	pending *pending
}

func New() *Gate { return &Gate{} }

// Stage opens a confirmation for the given action. summary is the
// human-readable description shown to the operator.
func (g *Gate) Stage(summary string, action Action) (uuid.UUID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending != nil {
		return uuid.Nil, ErrBusy
	}
	id := uuid.New()
	g.pending = &pending{id: id, summary: summary, action: action}
	return id, nil
}

// Confirm executes the pending action and returns the gate to Idle regardless
// of the action's outcome. The commit runs without the gate lock held so the
// rest of the workbench stays responsive, but the gate itself remains Pending
// (and un-confirmable) until the action returns.
func (g *Gate) Confirm(ctx context.Context, id uuid.UUID) error {
	g.mu.Lock()
	p := g.pending
	if p == nil || p.id != id {
		g.mu.Unlock()
		return ErrNoMatch
	}
	if p.inFlight {
		g.mu.Unlock()
		return ErrInFlight
	}
	p.inFlight = true
	g.mu.Unlock()

	err := p.action(ctx)

	g.mu.Lock()
	g.pending = nil
	g.mu.Unlock()
	return err
}

// Cancel discards the pending confirmation without side effects. Cancelling a
// commit that is already in flight is rejected.
func (g *Gate) Cancel(id uuid.UUID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending == nil || g.pending.id != id {
		return ErrNoMatch
	}
	if g.pending.inFlight {
		return ErrInFlight
	}
	g.pending = nil
	return nil
}

// Pending returns the open confirmation, if any.
func (g *Gate) Pending() (id uuid.UUID, summary string, inFlight, ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending == nil {
		return uuid.Nil, "", false, false
	}
	return g.pending.id, g.pending.summary, g.pending.inFlight, true
}

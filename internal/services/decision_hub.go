package services

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/lernwerk/backend/internal/assets"
)

// DecisionHub is a CleanupDecider that parks each pending negotiation until
// a decision is submitted out of band (the cancel-decision endpoint) or the
// wait deadline passes. Timeout resolves to keep, the data-loss-safe
// default: rollback issues destructive deletes and must be explicit.
type DecisionHub struct {
	mu      sync.Mutex
	waiters map[uuid.UUID]chan assets.CleanupChoice
}

func NewDecisionHub() *DecisionHub {
	return &DecisionHub{waiters: make(map[uuid.UUID]chan assets.CleanupChoice)}
}

func (h *DecisionHub) Decide(ctx context.Context, sessionID uuid.UUID, summary assets.SessionSummary) (assets.CleanupChoice, error) {
	ch := make(chan assets.CleanupChoice, 1)
	h.mu.Lock()
	h.waiters[sessionID] = ch
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.waiters, sessionID)
		h.mu.Unlock()
	}()

	select {
	case choice := <-ch:
		return choice, nil
	case <-ctx.Done():
		return assets.CleanupKeep, nil
	}
}

// Submit resolves a pending negotiation. Returns false when no negotiation
// is waiting for this session.
func (h *DecisionHub) Submit(sessionID uuid.UUID, choice assets.CleanupChoice) bool {
	h.mu.Lock()
	ch, ok := h.waiters[sessionID]
	if ok {
		delete(h.waiters, sessionID)
	}
	h.mu.Unlock()
	if !ok {
		return false
	}
	ch <- choice
	return true
}

// Awaiting reports whether a negotiation is pending for this session.
func (h *DecisionHub) Awaiting(sessionID uuid.UUID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.waiters[sessionID]
	return ok
}
